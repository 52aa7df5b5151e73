package settlement

import (
	"fmt"
	"sort"

	"github.com/jovjrx/frota360-demo-sub005/internal/constants"
	"github.com/jovjrx/frota360-demo-sub005/internal/models"
	"github.com/jovjrx/frota360-demo-sub005/internal/utils"
)

// Aggregate collapses a week's raw import rows into one normalized total per
// (driver, platform). Rows whose reference key resolves to no driver are
// retained as unmapped and reported, never dropped; multiple rows for the
// same driver and platform are summed. The pass mutates nothing outside its
// return value.
func Aggregate(weekID string, rows []models.RawPlatformRow, resolver *Resolver) models.AggregationResult {
	result := models.AggregationResult{WeekID: weekID}

	type aggKey struct {
		driverID int64
		platform string
	}
	totals := make(map[aggKey]*models.WeeklyPlatformAggregate)
	rowCounts := make(map[aggKey]int)

	for _, row := range rows {
		driverID, ok := resolver.Resolve(row.Platform, row.ReferenceKey)
		if !ok {
			result.Unmapped = append(result.Unmapped, models.UnmappedRow{
				WeekID:       weekID,
				Platform:     row.Platform,
				ReferenceKey: row.ReferenceKey,
				Label:        row.Label,
				Value:        utils.RoundMoney(row.Value),
				Trips:        row.Trips,
			})
			result.Diagnostics = append(result.Diagnostics, models.Diagnostic{
				Kind:    constants.DIAG_UNMAPPED_ROW,
				Message: fmt.Sprintf("%s row %q (%s) matched no active driver", row.Platform, row.ReferenceKey, row.Label),
			})
			continue
		}

		key := aggKey{driverID: driverID, platform: row.Platform}
		rowCounts[key]++
		agg, exists := totals[key]
		if !exists {
			agg = &models.WeeklyPlatformAggregate{
				DriverID: driverID,
				WeekID:   weekID,
				Platform: row.Platform,
			}
			totals[key] = agg
		}
		agg.TotalValue += row.Value
		agg.TotalTrips += row.Trips
	}

	for key, agg := range totals {
		agg.TotalValue = utils.RoundMoney(agg.TotalValue)
		result.Aggregates = append(result.Aggregates, *agg)
		if rowCounts[key] > 1 {
			result.Diagnostics = append(result.Diagnostics, models.Diagnostic{
				Kind:    constants.DIAG_DUPLICATE_ROLLUP,
				Message: fmt.Sprintf("%d %s rows collapsed into one aggregate for driver %d", rowCounts[key], key.platform, key.driverID),
			})
		}
	}
	sort.Slice(result.Aggregates, func(i, j int) bool {
		a, b := result.Aggregates[i], result.Aggregates[j]
		if a.DriverID != b.DriverID {
			return a.DriverID < b.DriverID
		}
		return a.Platform < b.Platform
	})

	result.Diagnostics = append(result.Diagnostics, resolver.Diagnostics()...)
	return result
}
