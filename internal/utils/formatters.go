package utils

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// RoundMoney rounds a value to cents, half away from zero. All derived
// settlement figures pass through this before persistence so the repasse
// identity holds exactly at currency precision.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatMoney renders a value as "1234.56 €".
func FormatMoney(v float64) string {
	return fmt.Sprintf("%.2f €", v)
}

var weekIDRe = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)

// WeekIDFromDate returns the ISO week id ("2025-W02") the given date falls in.
func WeekIDFromDate(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// ParseWeekID validates a week id and returns its ISO year and week number.
func ParseWeekID(weekID string) (int, int, error) {
	m := weekIDRe.FindStringSubmatch(weekID)
	if m == nil {
		return 0, 0, fmt.Errorf("invalid week id %q, expected YYYY-Www", weekID)
	}
	year, _ := strconv.Atoi(m[1])
	week, _ := strconv.Atoi(m[2])
	if week < 1 || week > 53 {
		return 0, 0, fmt.Errorf("invalid week number %d in week id %q", week, weekID)
	}
	return year, week, nil
}

// WeekStart returns the Monday 00:00 UTC of the given ISO week id. Exemption
// windows are checked against this date.
func WeekStart(weekID string) (time.Time, error) {
	year, week, err := ParseWeekID(weekID)
	if err != nil {
		return time.Time{}, err
	}
	// Jan 4 is always inside ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	week1Monday := jan4.AddDate(0, 0, 1-weekday)
	return week1Monday.AddDate(0, 0, (week-1)*7), nil
}

// Int64SliceToStringSlice converts a slice of int64 to a slice of string.
func Int64SliceToStringSlice(int64Slice []int64) []string {
	stringSlice := make([]string, len(int64Slice))
	for i, v := range int64Slice {
		stringSlice[i] = strconv.FormatInt(v, 10)
	}
	return stringSlice
}

// NormalizeKey canonicalizes an integration reference key: trimmed and
// case-folded.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]`)

// NormalizePlate canonicalizes a vehicle plate: trimmed, case-folded and
// stripped of separators, so "AA-12-BB" and "aa 12 bb" compare equal.
func NormalizePlate(plate string) string {
	return nonAlnumRe.ReplaceAllString(NormalizeKey(plate), "")
}
