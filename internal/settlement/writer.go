package settlement

import (
	"fmt"
	"log"

	"github.com/jovjrx/frota360-demo-sub005/internal/constants"
	"github.com/jovjrx/frota360-demo-sub005/internal/models"
	"github.com/jovjrx/frota360-demo-sub005/internal/utils"
)

// RecordStore is the persistence interface for settled driver-week records.
type RecordStore interface {
	SaveWeekRecords(weekID string, records []models.DriverWeeklyRecord) error
	GetWeekRecords(weekID string) ([]models.DriverWeeklyRecord, error)
	UpdateDerivedFields(rec models.DriverWeeklyRecord) error
	UpdateBonusTotals(weekID string, totals map[int64]float64) error
}

// BonusStore is the persistence interface for weekly affiliate bonuses.
type BonusStore interface {
	ReplaceWeekBonuses(weekID string, bonuses []models.AffiliateBonus) error
}

// Writer persists settlement output. The partial-failure policy is an
// explicit parameter rather than two separate code paths: the initial write
// path runs with FAILURE_MODE_ABORT (whole week or nothing), reprocessing
// runs with FAILURE_MODE_COLLECT (per-driver errors reported, the rest
// proceed).
type Writer struct {
	Records RecordStore
	Bonuses BonusStore
}

// WriteRecords persists a week's records under the given failure mode.
// Returns the number of records written and the collected error messages.
func (w *Writer) WriteRecords(weekID string, mode string, records []models.DriverWeeklyRecord) (int, []string) {
	switch mode {
	case constants.FAILURE_MODE_ABORT:
		if err := w.Records.SaveWeekRecords(weekID, records); err != nil {
			log.Printf("WriteRecords: week %s settlement phase failed: %v", weekID, err)
			return 0, []string{err.Error()}
		}
		return len(records), nil
	case constants.FAILURE_MODE_COLLECT:
		var errors []string
		written := 0
		for _, rec := range records {
			if err := w.Records.UpdateDerivedFields(rec); err != nil {
				log.Printf("WriteRecords: driver %d week %s: %v", rec.DriverID, weekID, err)
				errors = append(errors, fmt.Sprintf("driver %d: %v", rec.DriverID, err))
				continue
			}
			written++
		}
		return written, errors
	}
	return 0, []string{fmt.Sprintf("unknown failure mode %q", mode)}
}

// WriteBonuses persists the bonus phase: the week's bonus aggregates plus
// the per-record bonus totals, grouped so a reader never sees payouts
// without their bonuses mid-run.
func (w *Writer) WriteBonuses(weekID string, bonuses []models.AffiliateBonus) error {
	for i := range bonuses {
		bonuses[i].WeekID = weekID
	}
	if err := w.Bonuses.ReplaceWeekBonuses(weekID, bonuses); err != nil {
		log.Printf("WriteBonuses: week %s bonus phase failed: %v", weekID, err)
		return err
	}

	totals := make(map[int64]float64, len(bonuses))
	for _, bonus := range bonuses {
		totals[bonus.IndicatorID] = bonus.Total
	}
	if err := w.Records.UpdateBonusTotals(weekID, totals); err != nil {
		log.Printf("WriteBonuses: week %s bonus totals failed: %v", weekID, err)
		return err
	}
	return nil
}

// RecomputeFromSnapshot re-runs the derived steps of the calculation (admin
// fee, expenses, repasse) from a record's stored input snapshot. Gross and
// tax are taken from the record as settled; platform data is never
// re-aggregated. A non-nil adminFeePct overrides the snapshot's fee with a
// percentage fee of that value.
//
// Financing interest is recomputed as a percentage of net-of-tax even when
// the stored record predates that fix.
func RecomputeFromSnapshot(rec models.DriverWeeklyRecord, adminFeePct *float64) (models.DriverWeeklyRecord, error) {
	snap := rec.Snapshot

	fuel := utils.RoundMoney(snap.Fuel)
	tolls := utils.RoundMoney(snap.Tolls)
	rent := utils.RoundMoney(snap.Rent)

	installment, interest := 0.0, 0.0
	if snap.FinancingActive {
		if snap.FinancingInstallmentPct > 0 {
			installment = utils.RoundMoney(rec.NetOfTax * snap.FinancingInstallmentPct / 100)
		} else {
			installment = utils.RoundMoney(snap.FinancingInstallment)
		}
		interest = utils.RoundMoney(rec.NetOfTax * snap.FinancingInterestPct / 100)
	}
	expenseTotal := utils.RoundMoney(fuel + tolls + rent + installment + interest)

	feeMode, feeValue := snap.AdminFeeMode, snap.AdminFeeValue
	if adminFeePct != nil {
		feeMode = constants.ADMIN_FEE_MODE_PERCENT
		feeValue = *adminFeePct
	}

	adminFee := 0.0
	if !snap.Exempt {
		switch feeMode {
		case constants.ADMIN_FEE_MODE_PERCENT:
			base, err := ResolveAdminFeeBase(snap.AdminFeeBase, rec.GrossEarnings, rec.TaxValue, expenseTotal)
			if err != nil {
				return rec, fmt.Errorf("record #%d: %w", rec.ID, err)
			}
			adminFee = utils.RoundMoney(base * feeValue / 100)
		case constants.ADMIN_FEE_MODE_FIXED:
			adminFee = utils.RoundMoney(feeValue)
		default:
			return rec, fmt.Errorf("record #%d: unknown admin fee mode %q in snapshot", rec.ID, feeMode)
		}
	}

	rec.AdminFeeValue = adminFee
	rec.FuelExpense = fuel
	rec.TollExpense = tolls
	rec.RentExpense = rent
	rec.FinancingInstallment = installment
	rec.FinancingInterest = interest
	rec.ExpenseTotal = expenseTotal
	rec.Repasse = utils.RoundMoney(rec.NetOfTax - adminFee - expenseTotal)
	rec.Snapshot.AdminFeeMode = feeMode
	rec.Snapshot.AdminFeeValue = feeValue
	return rec, nil
}

// ReprocessWeek recomputes the derived fields of every existing record of a
// week from its stored snapshot and overwrites only those fields. Payment
// proof, payment status and bonus totals are carried forward unchanged.
// Best-effort batch: a failing driver is reported, the rest proceed.
func (w *Writer) ReprocessWeek(weekID string, adminFeePct *float64) models.RunSummary {
	summary := models.RunSummary{WeekID: weekID}

	records, err := w.Records.GetWeekRecords(weekID)
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("failed to load week %s: %v", weekID, err))
		return summary
	}
	if len(records) == 0 {
		summary.Errors = append(summary.Errors, fmt.Sprintf("week %s has no settled records", weekID))
		return summary
	}

	var recomputed []models.DriverWeeklyRecord
	for _, rec := range records {
		updated, errRecompute := RecomputeFromSnapshot(rec, adminFeePct)
		if errRecompute != nil {
			log.Printf("ReprocessWeek: driver %d week %s: %v", rec.DriverID, weekID, errRecompute)
			summary.Errors = append(summary.Errors, fmt.Sprintf("driver %d: %v", rec.DriverID, errRecompute))
			continue
		}
		recomputed = append(recomputed, updated)
	}

	written, writeErrors := w.WriteRecords(weekID, constants.FAILURE_MODE_COLLECT, recomputed)
	summary.Errors = append(summary.Errors, writeErrors...)
	summary.DriversProcessed = written
	summary.Success = len(summary.Errors) == 0
	log.Printf("Week %s reprocessed: %d driver(s) updated, %d error(s).", weekID, written, len(summary.Errors))
	return summary
}
