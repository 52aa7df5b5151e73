package models

import "time"

// RawPlatformRow is one already-parsed row from a platform's weekly export.
// Header-synonym normalization into this shape happens in the importer,
// before aggregation.
type RawPlatformRow struct {
	Platform     string  `json:"platform"`
	ReferenceKey string  `json:"reference_key"` // UUID, email, card number or plate, depending on platform
	Label        string  `json:"label"`         // human readable source label for diagnostics
	Value        float64 `json:"value"`
	Trips        int     `json:"trips"`
}

// WeeklyPlatformAggregate is the collapsed total per (driver, week, platform).
// At most one aggregate exists per key; once a settlement has consumed it the
// row is treated as immutable and corrections run a new aggregation pass.
type WeeklyPlatformAggregate struct {
	ID         int64     `json:"id"`
	DriverID   int64     `json:"driver_id"`
	WeekID     string    `json:"week_id"` // ISO week, e.g. "2025-W02"
	Platform   string    `json:"platform"`
	TotalValue float64   `json:"total_value"`
	TotalTrips int       `json:"total_trips"`
	CreatedAt  time.Time `json:"created_at"`
}

// UnmappedRow records an import row whose reference key matched no active
// driver. Kept and reported, never silently dropped.
type UnmappedRow struct {
	ID           int64     `json:"id"`
	WeekID       string    `json:"week_id"`
	Platform     string    `json:"platform"`
	ReferenceKey string    `json:"reference_key"`
	Label        string    `json:"label"`
	Value        float64   `json:"value"`
	Trips        int       `json:"trips"`
	CreatedAt    time.Time `json:"created_at"`
}

// Diagnostic is a non-fatal finding produced during an aggregation or
// settlement pass (ambiguous key, referral cycle, config fallback, ...).
type Diagnostic struct {
	Kind    string `json:"kind"` // constants.DIAG_*
	Message string `json:"message"`
}

// AggregationResult is the output of one aggregation pass over a week's raw
// import rows.
type AggregationResult struct {
	WeekID      string                    `json:"week_id"`
	Aggregates  []WeeklyPlatformAggregate `json:"aggregates"`
	Unmapped    []UnmappedRow             `json:"unmapped"`
	Diagnostics []Diagnostic              `json:"diagnostics"`
}
