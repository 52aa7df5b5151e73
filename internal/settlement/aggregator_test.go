package settlement

import (
	"math"
	"testing"

	"github.com/jovjrx/frota360-demo-sub005/internal/constants"
	"github.com/jovjrx/frota360-demo-sub005/internal/models"
)

func TestAggregateSumsPerDriverAndPlatform(t *testing.T) {
	r := NewResolver(testDrivers())
	rows := []models.RawPlatformRow{
		{Platform: constants.PLATFORM_UBER, ReferenceKey: "aaaa-1111", Value: 100.10, Trips: 5},
		{Platform: constants.PLATFORM_UBER, ReferenceKey: "aaaa-1111", Value: 200.20, Trips: 7},
		{Platform: constants.PLATFORM_BOLT, ReferenceKey: "alice@example.com", Value: 50, Trips: 2},
		{Platform: constants.PLATFORM_UBER, ReferenceKey: "bbbb-2222", Value: 75, Trips: 3},
	}

	result := Aggregate("2025-W10", rows, r)
	if len(result.Unmapped) != 0 {
		t.Fatalf("unexpected unmapped rows: %v", result.Unmapped)
	}
	if len(result.Aggregates) != 3 {
		t.Fatalf("got %d aggregates, want 3", len(result.Aggregates))
	}

	// Sorted by (driverID, platform): driver 1 bolt, driver 1 uber, driver 2 uber.
	first := result.Aggregates[0]
	if first.DriverID != 1 || first.Platform != constants.PLATFORM_BOLT {
		t.Errorf("first aggregate = driver %d %s, want driver 1 bolt", first.DriverID, first.Platform)
	}

	second := result.Aggregates[1]
	if math.Abs(second.TotalValue-300.30) > 0.01 {
		t.Errorf("driver 1 uber total = %.2f, want 300.30", second.TotalValue)
	}
	if second.TotalTrips != 12 {
		t.Errorf("driver 1 uber trips = %d, want 12", second.TotalTrips)
	}
}

func TestAggregateKeepsUnmappedRows(t *testing.T) {
	r := NewResolver(testDrivers())
	rows := []models.RawPlatformRow{
		{Platform: constants.PLATFORM_UBER, ReferenceKey: "aaaa-1111", Value: 100},
		{Platform: constants.PLATFORM_UBER, ReferenceKey: "nobody-has-this", Label: "Ghost Driver", Value: 55.55},
	}

	result := Aggregate("2025-W10", rows, r)
	if len(result.Aggregates) != 1 {
		t.Fatalf("got %d aggregates, want 1", len(result.Aggregates))
	}
	if len(result.Unmapped) != 1 {
		t.Fatalf("got %d unmapped rows, want 1", len(result.Unmapped))
	}

	u := result.Unmapped[0]
	if u.ReferenceKey != "nobody-has-this" || u.Label != "Ghost Driver" {
		t.Errorf("unmapped row = %+v", u)
	}

	// The unmapped value must not leak into anyone's totals.
	for _, agg := range result.Aggregates {
		if math.Abs(agg.TotalValue-100) > 0.01 {
			t.Errorf("aggregate inflated by unmapped row: %.2f", agg.TotalValue)
		}
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	r := NewResolver(testDrivers())
	result := Aggregate("2025-W10", nil, r)
	if len(result.Aggregates) != 0 || len(result.Unmapped) != 0 {
		t.Errorf("empty input produced output: %+v", result)
	}
}
