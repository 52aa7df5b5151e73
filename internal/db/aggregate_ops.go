package db

import (
	"fmt"
	"log"

	"github.com/jovjrx/frota360-demo-sub005/internal/models"
)

// ReplaceWeekAggregates overwrites a week's aggregates and unmapped rows in
// one transaction. A correction import reruns the whole aggregation pass, so
// stale rows from the previous pass must not survive.
func ReplaceWeekAggregates(weekID string, aggregates []models.WeeklyPlatformAggregate, unmapped []models.UnmappedRow) error {
	tx, err := DB.Begin()
	if err != nil {
		log.Printf("ReplaceWeekAggregates: failed to begin transaction: %v", err)
		return err
	}
	var opErr error
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if opErr != nil {
			tx.Rollback()
			log.Printf("ReplaceWeekAggregates: rolling back: %v", opErr)
		} else {
			opErr = tx.Commit()
			if opErr != nil {
				log.Printf("ReplaceWeekAggregates: commit failed: %v", opErr)
			}
		}
	}()

	if _, opErr = tx.Exec(`DELETE FROM weekly_platform_aggregates WHERE week_id = $1`, weekID); opErr != nil {
		return opErr
	}
	if _, opErr = tx.Exec(`DELETE FROM unmapped_rows WHERE week_id = $1`, weekID); opErr != nil {
		return opErr
	}

	stmtAgg, errPrepare := tx.Prepare(`
        INSERT INTO weekly_platform_aggregates (driver_id, week_id, platform, total_value, total_trips, created_at)
        VALUES ($1, $2, $3, $4, $5, NOW())`)
	if errPrepare != nil {
		opErr = errPrepare
		return opErr
	}
	defer stmtAgg.Close()

	for _, agg := range aggregates {
		if _, opErr = stmtAgg.Exec(agg.DriverID, weekID, agg.Platform, agg.TotalValue, agg.TotalTrips); opErr != nil {
			opErr = fmt.Errorf("failed to insert aggregate (driver %d, platform %s): %w", agg.DriverID, agg.Platform, opErr)
			return opErr
		}
	}

	stmtUnmapped, errPrepare := tx.Prepare(`
        INSERT INTO unmapped_rows (week_id, platform, reference_key, label, value, trips, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW())`)
	if errPrepare != nil {
		opErr = errPrepare
		return opErr
	}
	defer stmtUnmapped.Close()

	for _, row := range unmapped {
		if _, opErr = stmtUnmapped.Exec(weekID, row.Platform, row.ReferenceKey, row.Label, row.Value, row.Trips); opErr != nil {
			opErr = fmt.Errorf("failed to insert unmapped row (platform %s, key %s): %w", row.Platform, row.ReferenceKey, opErr)
			return opErr
		}
	}

	log.Printf("Week %s aggregation pass persisted: %d aggregate(s), %d unmapped row(s).", weekID, len(aggregates), len(unmapped))
	return opErr
}

// GetWeekAggregates returns all aggregates for a week keyed by driver and
// platform.
func GetWeekAggregates(weekID string) (map[int64]map[string]models.WeeklyPlatformAggregate, error) {
	query := `
        SELECT id, driver_id, week_id, platform, total_value, total_trips, created_at
        FROM weekly_platform_aggregates
        WHERE week_id = $1
        ORDER BY driver_id, platform`
	rows, err := DB.Query(query, weekID)
	if err != nil {
		log.Printf("GetWeekAggregates: query failed for week %s: %v", weekID, err)
		return nil, err
	}
	defer rows.Close()

	result := make(map[int64]map[string]models.WeeklyPlatformAggregate)
	for rows.Next() {
		var a models.WeeklyPlatformAggregate
		errScan := rows.Scan(&a.ID, &a.DriverID, &a.WeekID, &a.Platform, &a.TotalValue, &a.TotalTrips, &a.CreatedAt)
		if errScan != nil {
			log.Printf("GetWeekAggregates: scan failed: %v", errScan)
			continue
		}
		if result[a.DriverID] == nil {
			result[a.DriverID] = make(map[string]models.WeeklyPlatformAggregate)
		}
		result[a.DriverID][a.Platform] = a
	}
	return result, rows.Err()
}

// GetUnmappedRows lists the unresolved import rows recorded for a week.
func GetUnmappedRows(weekID string) ([]models.UnmappedRow, error) {
	query := `
        SELECT id, week_id, platform, reference_key, label, value, trips, created_at
        FROM unmapped_rows
        WHERE week_id = $1
        ORDER BY platform, reference_key`
	rows, err := DB.Query(query, weekID)
	if err != nil {
		log.Printf("GetUnmappedRows: query failed for week %s: %v", weekID, err)
		return nil, err
	}
	defer rows.Close()

	var unmapped []models.UnmappedRow
	for rows.Next() {
		var u models.UnmappedRow
		errScan := rows.Scan(&u.ID, &u.WeekID, &u.Platform, &u.ReferenceKey, &u.Label, &u.Value, &u.Trips, &u.CreatedAt)
		if errScan != nil {
			log.Printf("GetUnmappedRows: scan failed: %v", errScan)
			continue
		}
		unmapped = append(unmapped, u)
	}
	return unmapped, rows.Err()
}
