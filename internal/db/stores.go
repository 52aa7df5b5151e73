package db

import "github.com/jovjrx/frota360-demo-sub005/internal/models"

// Thin adapters exposing the package-level operations as the narrow
// interfaces the settlement engine consumes. Tests plug fakes instead.

type DriverStore struct{}

func (DriverStore) GetActiveDrivers() ([]models.Driver, error) {
	return GetActiveDrivers()
}

type AggregateStore struct{}

func (AggregateStore) ReplaceWeekAggregates(weekID string, aggregates []models.WeeklyPlatformAggregate, unmapped []models.UnmappedRow) error {
	return ReplaceWeekAggregates(weekID, aggregates, unmapped)
}

type RecordStore struct{}

func (RecordStore) SaveWeekRecords(weekID string, records []models.DriverWeeklyRecord) error {
	return SaveWeekRecords(weekID, records)
}

func (RecordStore) GetWeekRecords(weekID string) ([]models.DriverWeeklyRecord, error) {
	return GetWeekRecords(weekID)
}

func (RecordStore) UpdateDerivedFields(rec models.DriverWeeklyRecord) error {
	return UpdateDerivedFields(rec)
}

func (RecordStore) UpdateBonusTotals(weekID string, totals map[int64]float64) error {
	return UpdateBonusTotals(weekID, totals)
}

type BonusStore struct{}

func (BonusStore) ReplaceWeekBonuses(weekID string, bonuses []models.AffiliateBonus) error {
	return ReplaceWeekBonuses(weekID, bonuses)
}
