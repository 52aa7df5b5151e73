package settlement

import (
	"database/sql"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/jovjrx/frota360-demo-sub005/internal/constants"
	"github.com/jovjrx/frota360-demo-sub005/internal/models"
)

type fakeRecordStore struct {
	saved        []models.DriverWeeklyRecord
	updated      []models.DriverWeeklyRecord
	bonusTotals  map[int64]float64
	weekRecords  []models.DriverWeeklyRecord
	saveErr      error
	failDriverID int64
}

func (f *fakeRecordStore) SaveWeekRecords(weekID string, records []models.DriverWeeklyRecord) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, records...)
	return nil
}

func (f *fakeRecordStore) GetWeekRecords(weekID string) ([]models.DriverWeeklyRecord, error) {
	return f.weekRecords, nil
}

func (f *fakeRecordStore) UpdateDerivedFields(rec models.DriverWeeklyRecord) error {
	if f.failDriverID != 0 && rec.DriverID == f.failDriverID {
		return fmt.Errorf("simulated write failure")
	}
	f.updated = append(f.updated, rec)
	return nil
}

func (f *fakeRecordStore) UpdateBonusTotals(weekID string, totals map[int64]float64) error {
	f.bonusTotals = totals
	return nil
}

type fakeBonusStore struct {
	replaced []models.AffiliateBonus
}

func (f *fakeBonusStore) ReplaceWeekBonuses(weekID string, bonuses []models.AffiliateBonus) error {
	f.replaced = append(f.replaced[:0], bonuses...)
	return nil
}

func settledRecord(driverID int64) models.DriverWeeklyRecord {
	return models.DriverWeeklyRecord{
		ID:            driverID * 100,
		DriverID:      driverID,
		WeekID:        "2025-W10",
		GrossEarnings: 1000,
		TaxValue:      60,
		NetOfTax:      940,
		AdminFeeValue: 60.20,
		AdminFeeBase:  constants.ADMIN_FEE_BASE_NET,
		FuelExpense:   50,
		TollExpense:   30,
		ExpenseTotal:  80,
		Repasse:       799.80,
		PaymentStatus: constants.PAYMENT_STATUS_PAID,
		PaidAt:        models.NullTime{NullTime: sql.NullTime{Time: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC), Valid: true}},
		ProofURL:      models.NullString{NullString: sql.NullString{String: "https://proofs/abc.pdf", Valid: true}},
		ProofFileName: models.NullString{NullString: sql.NullString{String: "abc.pdf", Valid: true}},
		Snapshot: models.InputSnapshot{
			GrossByPlatform: map[string]float64{"uber": 1000},
			TaxRatePct:      6,
			Fuel:            50,
			Tolls:           30,
			AdminFeeMode:    constants.ADMIN_FEE_MODE_PERCENT,
			AdminFeeValue:   7,
			AdminFeeBase:    constants.ADMIN_FEE_BASE_NET,
		},
	}
}

func TestWriteRecordsAbortMode(t *testing.T) {
	store := &fakeRecordStore{}
	w := &Writer{Records: store, Bonuses: &fakeBonusStore{}}

	written, errs := w.WriteRecords("2025-W10", constants.FAILURE_MODE_ABORT, []models.DriverWeeklyRecord{settledRecord(1), settledRecord(2)})
	if written != 2 || len(errs) != 0 {
		t.Fatalf("written=%d errs=%v", written, errs)
	}

	store.saveErr = fmt.Errorf("connection lost")
	written, errs = w.WriteRecords("2025-W10", constants.FAILURE_MODE_ABORT, []models.DriverWeeklyRecord{settledRecord(3)})
	if written != 0 || len(errs) != 1 {
		t.Errorf("abort mode after error: written=%d errs=%v, want 0 written and 1 error", written, errs)
	}
}

func TestWriteRecordsCollectMode(t *testing.T) {
	store := &fakeRecordStore{failDriverID: 2}
	w := &Writer{Records: store, Bonuses: &fakeBonusStore{}}

	records := []models.DriverWeeklyRecord{settledRecord(1), settledRecord(2), settledRecord(3)}
	written, errs := w.WriteRecords("2025-W10", constants.FAILURE_MODE_COLLECT, records)
	if written != 2 {
		t.Errorf("written = %d, want 2", written)
	}
	if len(errs) != 1 {
		t.Errorf("errs = %v, want exactly the failing driver", errs)
	}
}

func TestRecomputeFromSnapshotNewFeePercentage(t *testing.T) {
	rec := settledRecord(1)
	pct := 4.0

	updated, err := RecomputeFromSnapshot(rec, &pct)
	if err != nil {
		t.Fatal(err)
	}
	// 4% of (1000 - 60 - 80) = 34.40.
	if math.Abs(updated.AdminFeeValue-34.40) > 0.01 {
		t.Errorf("adminFee = %.2f, want 34.40", updated.AdminFeeValue)
	}
	if math.Abs(updated.Repasse-825.60) > 0.01 {
		t.Errorf("repasse = %.2f, want 825.60", updated.Repasse)
	}
	// Settled inputs never change on reprocess.
	if updated.GrossEarnings != rec.GrossEarnings || updated.TaxValue != rec.TaxValue || updated.NetOfTax != rec.NetOfTax {
		t.Error("gross/tax/netOfTax must not change on reprocess")
	}
}

func TestRecomputeFromSnapshotPreservesProofFields(t *testing.T) {
	rec := settledRecord(1)
	pct := 4.0

	updated, err := RecomputeFromSnapshot(rec, &pct)
	if err != nil {
		t.Fatal(err)
	}
	if updated.ProofURL != rec.ProofURL || updated.ProofFileName != rec.ProofFileName {
		t.Error("payment proof fields must be carried forward unchanged")
	}
	if updated.PaymentStatus != rec.PaymentStatus || updated.PaidAt != rec.PaidAt {
		t.Error("payment status must be carried forward unchanged")
	}
}

func TestRecomputeFromSnapshotIdempotent(t *testing.T) {
	rec := settledRecord(1)

	once, err := RecomputeFromSnapshot(rec, nil)
	if err != nil {
		t.Fatal(err)
	}
	twice, err := RecomputeFromSnapshot(once, nil)
	if err != nil {
		t.Fatal(err)
	}
	if once.AdminFeeValue != twice.AdminFeeValue || once.Repasse != twice.Repasse || once.ExpenseTotal != twice.ExpenseTotal {
		t.Errorf("second recompute changed the record: %+v vs %+v", once, twice)
	}
}

func TestRecomputeFromSnapshotExemptStaysFree(t *testing.T) {
	rec := settledRecord(1)
	rec.Snapshot.Exempt = true
	rec.AdminFeeValue = 0
	pct := 9.0

	updated, err := RecomputeFromSnapshot(rec, &pct)
	if err != nil {
		t.Fatal(err)
	}
	if updated.AdminFeeValue != 0 {
		t.Errorf("exempt record charged %.2f on reprocess", updated.AdminFeeValue)
	}
}

func TestReprocessWeekCollectsErrors(t *testing.T) {
	bad := settledRecord(2)
	bad.Snapshot.AdminFeeMode = "martian"
	store := &fakeRecordStore{
		weekRecords: []models.DriverWeeklyRecord{settledRecord(1), bad, settledRecord(3)},
	}
	w := &Writer{Records: store, Bonuses: &fakeBonusStore{}}

	summary := w.ReprocessWeek("2025-W10", nil)
	if summary.DriversProcessed != 2 {
		t.Errorf("processed = %d, want 2", summary.DriversProcessed)
	}
	if len(summary.Errors) != 1 {
		t.Errorf("errors = %v, want exactly one", summary.Errors)
	}
	if summary.Success {
		t.Error("run with errors must not report success")
	}
}

func TestReprocessWeekEmptyWeek(t *testing.T) {
	w := &Writer{Records: &fakeRecordStore{}, Bonuses: &fakeBonusStore{}}
	summary := w.ReprocessWeek("2025-W09", nil)
	if summary.Success || len(summary.Errors) == 0 {
		t.Errorf("reprocessing an unsettled week must fail, got %+v", summary)
	}
}

func TestWriteBonusesSetsTotals(t *testing.T) {
	store := &fakeRecordStore{}
	bonusStore := &fakeBonusStore{}
	w := &Writer{Records: store, Bonuses: bonusStore}

	bonuses := []models.AffiliateBonus{
		{IndicatorID: 3, Total: 26.00},
		{IndicatorID: 2, Total: 20.00},
	}
	if err := w.WriteBonuses("2025-W10", bonuses); err != nil {
		t.Fatal(err)
	}
	if len(bonusStore.replaced) != 2 {
		t.Fatalf("replaced %d bonuses, want 2", len(bonusStore.replaced))
	}
	for _, b := range bonusStore.replaced {
		if b.WeekID != "2025-W10" {
			t.Errorf("bonus week id = %q", b.WeekID)
		}
	}
	if store.bonusTotals[3] != 26.00 || store.bonusTotals[2] != 20.00 {
		t.Errorf("bonus totals = %v", store.bonusTotals)
	}
}
