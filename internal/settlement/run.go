package settlement

import (
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jovjrx/frota360-demo-sub005/internal/constants"
	"github.com/jovjrx/frota360-demo-sub005/internal/models"
	"github.com/jovjrx/frota360-demo-sub005/internal/utils"
)

// DriverDirectory provides the active driver set a run operates on.
type DriverDirectory interface {
	GetActiveDrivers() ([]models.Driver, error)
}

// AggregateStore persists a week's normalized aggregates and unmapped rows.
type AggregateStore interface {
	ReplaceWeekAggregates(weekID string, aggregates []models.WeeklyPlatformAggregate, unmapped []models.UnmappedRow) error
}

// Notifier receives run outcomes. Notification failures never fail a run.
type Notifier interface {
	NotifyRunCompleted(summary models.RunSummary)
}

// Engine orchestrates a full weekly settlement run: aggregate imports,
// settle every active driver, compute affiliate bonuses after the
// per-driver barrier, persist in two phases, then notify.
type Engine struct {
	Drivers    DriverDirectory
	Settings   SettingsStore
	Aggregates AggregateStore
	Writer     *Writer
	Notifier   Notifier

	// Workers caps concurrent per-driver calculations. Zero means 8.
	Workers int
}

type driverResult struct {
	record models.DriverWeeklyRecord
	err    error
}

func hasEarnings(aggregates map[string]models.WeeklyPlatformAggregate) bool {
	for _, platform := range constants.EarningPlatforms {
		if agg, ok := aggregates[platform]; ok && agg.TotalValue != 0 {
			return true
		}
	}
	return false
}

// RunWeek processes one week's imported rows end to end and returns a
// summary. The failure mode governs per-driver calculation errors: abort
// discards the whole run on the first error, collect_errors settles the
// healthy drivers and reports the rest. The batch write itself is always
// atomic.
func (e *Engine) RunWeek(weekID string, rows []models.RawPlatformRow, mode string) models.RunSummary {
	summary := models.RunSummary{RunID: uuid.New().String(), WeekID: weekID}

	if mode != constants.FAILURE_MODE_ABORT && mode != constants.FAILURE_MODE_COLLECT {
		summary.Errors = append(summary.Errors, fmt.Sprintf("unknown failure mode %q", mode))
		return summary
	}
	weekStart, err := utils.WeekStart(weekID)
	if err != nil {
		summary.Errors = append(summary.Errors, err.Error())
		return summary
	}

	// One immutable config snapshot for the whole run.
	cfg := LoadRunConfig(e.Settings)
	summary.Diagnostics = append(summary.Diagnostics, cfg.Diagnostics...)

	drivers, err := e.Drivers.GetActiveDrivers()
	if err != nil {
		log.Printf("RunWeek: loading drivers for week %s: %v", weekID, err)
		summary.Errors = append(summary.Errors, fmt.Sprintf("failed to load drivers: %v", err))
		return summary
	}

	resolver := NewResolver(drivers)
	aggregation := Aggregate(weekID, rows, resolver)
	summary.Diagnostics = append(summary.Diagnostics, aggregation.Diagnostics...)
	summary.UnmappedRows = len(aggregation.Unmapped)

	if err := e.Aggregates.ReplaceWeekAggregates(weekID, aggregation.Aggregates, aggregation.Unmapped); err != nil {
		log.Printf("RunWeek: persisting aggregates for week %s: %v", weekID, err)
		summary.Errors = append(summary.Errors, fmt.Sprintf("failed to persist aggregates: %v", err))
		return summary
	}

	byDriver := make(map[int64]map[string]models.WeeklyPlatformAggregate)
	for _, agg := range aggregation.Aggregates {
		if byDriver[agg.DriverID] == nil {
			byDriver[agg.DriverID] = make(map[string]models.WeeklyPlatformAggregate)
		}
		byDriver[agg.DriverID][agg.Platform] = agg
	}

	// Per-driver settlement. Calculations are independent, so they fan out
	// to a bounded worker pool; bonuses wait for the full barrier below.
	workers := e.Workers
	if workers <= 0 {
		workers = 8
	}
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []driverResult
	)
	sem := make(chan struct{}, workers)
	for _, driver := range drivers {
		aggregates, ok := byDriver[driver.ID]
		if !ok {
			// No activity on any platform this week.
			continue
		}
		if !hasEarnings(aggregates) {
			// Tolls or fuel with no ride income usually means a missing
			// platform export. Settle anyway, but flag it.
			summary.Diagnostics = append(summary.Diagnostics, models.Diagnostic{
				Kind:    constants.DIAG_MISSING_AGGREGATE,
				Message: fmt.Sprintf("driver %d has expense rows but no earnings for week %s", driver.ID, weekID),
			})
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(d models.Driver, aggs map[string]models.WeeklyPlatformAggregate) {
			defer wg.Done()
			defer func() { <-sem }()
			exempt := IsExemptAt(d, weekStart)
			record, errCalc := CalculateWeek(d, aggs, cfg, exempt)
			if errCalc == nil {
				record.WeekID = weekID
			}
			mu.Lock()
			results = append(results, driverResult{record: record, err: errCalc})
			mu.Unlock()
		}(driver, aggregates)
	}
	wg.Wait()

	var records []models.DriverWeeklyRecord
	for _, res := range results {
		if res.err != nil {
			summary.Errors = append(summary.Errors, res.err.Error())
			continue
		}
		records = append(records, res.record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].DriverID < records[j].DriverID })
	sort.Strings(summary.Errors)

	if mode == constants.FAILURE_MODE_ABORT && len(summary.Errors) > 0 {
		log.Printf("RunWeek: week %s aborted, %d driver(s) failed.", weekID, len(summary.Errors))
		return summary
	}

	// Phase one: driver records, one atomic batch.
	written, writeErrors := e.Writer.WriteRecords(weekID, constants.FAILURE_MODE_ABORT, records)
	if len(writeErrors) > 0 {
		summary.Errors = append(summary.Errors, writeErrors...)
		return summary
	}
	summary.DriversProcessed = written

	// Phase two: bonuses, only after every driver's base is known.
	driverIndex := make(map[int64]models.Driver, len(drivers))
	for _, d := range drivers {
		driverIndex[d.ID] = d
	}
	bases := make(map[int64]float64, len(records))
	for _, rec := range records {
		bases[rec.DriverID] = CommissionBase(rec, cfg.Commission)
	}
	bonuses, bonusDiags := ComputeBonuses(driverIndex, bases, cfg.Commission)
	summary.Diagnostics = append(summary.Diagnostics, bonusDiags...)

	if err := e.Writer.WriteBonuses(weekID, bonuses); err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("failed to persist bonuses: %v", err))
		return summary
	}
	summary.BonusesComputed = len(bonuses)
	summary.Success = len(summary.Errors) == 0

	log.Printf("Week %s settled: %d driver(s), %d bonus payout(s), %d unmapped row(s), %d error(s).",
		weekID, summary.DriversProcessed, summary.BonusesComputed, summary.UnmappedRows, len(summary.Errors))

	if e.Notifier != nil {
		e.Notifier.NotifyRunCompleted(summary)
	}
	return summary
}

// Reprocess re-derives an already-settled week from its stored snapshots.
// Thin wrapper so callers reach both paths through the engine.
func (e *Engine) Reprocess(weekID string, adminFeePct *float64) models.RunSummary {
	summary := e.Writer.ReprocessWeek(weekID, adminFeePct)
	summary.RunID = uuid.New().String()
	if e.Notifier != nil {
		e.Notifier.NotifyRunCompleted(summary)
	}
	return summary
}
