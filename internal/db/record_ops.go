package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jovjrx/frota360-demo-sub005/internal/models"
)

// SaveWeekRecords persists a whole settlement phase atomically: either every
// record of the week lands or none does. Records are upserted on
// (driver_id, week_id) so re-running a week overwrites computed fields while
// payment status and proof columns survive untouched.
func SaveWeekRecords(weekID string, records []models.DriverWeeklyRecord) error {
	tx, err := DB.Begin()
	if err != nil {
		log.Printf("SaveWeekRecords: failed to begin transaction: %v", err)
		return err
	}
	var opErr error
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if opErr != nil {
			tx.Rollback()
			log.Printf("SaveWeekRecords: rolling back week %s: %v", weekID, opErr)
		} else {
			opErr = tx.Commit()
			if opErr != nil {
				log.Printf("SaveWeekRecords: commit failed for week %s: %v", weekID, opErr)
			}
		}
	}()

	query := `
        INSERT INTO driver_weekly_records (
            driver_id, week_id, gross_earnings, tax_value, net_of_tax,
            admin_fee_value, admin_fee_base, fee_exempt,
            fuel_expense, toll_expense, rent_expense,
            financing_installment, financing_interest, expense_total,
            repasse, bonus_total, payment_status, snapshot_json, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, 0, 'pending', $16, NOW(), NOW())
        ON CONFLICT (driver_id, week_id) DO UPDATE SET
            gross_earnings = EXCLUDED.gross_earnings,
            tax_value = EXCLUDED.tax_value,
            net_of_tax = EXCLUDED.net_of_tax,
            admin_fee_value = EXCLUDED.admin_fee_value,
            admin_fee_base = EXCLUDED.admin_fee_base,
            fee_exempt = EXCLUDED.fee_exempt,
            fuel_expense = EXCLUDED.fuel_expense,
            toll_expense = EXCLUDED.toll_expense,
            rent_expense = EXCLUDED.rent_expense,
            financing_installment = EXCLUDED.financing_installment,
            financing_interest = EXCLUDED.financing_interest,
            expense_total = EXCLUDED.expense_total,
            repasse = EXCLUDED.repasse,
            snapshot_json = EXCLUDED.snapshot_json,
            updated_at = NOW()`

	stmt, errPrepare := tx.Prepare(query)
	if errPrepare != nil {
		opErr = errPrepare
		return opErr
	}
	defer stmt.Close()

	for _, rec := range records {
		snapshotBytes, errMarshal := json.Marshal(rec.Snapshot)
		if errMarshal != nil {
			opErr = fmt.Errorf("failed to marshal snapshot for driver %d: %w", rec.DriverID, errMarshal)
			return opErr
		}
		_, opErr = stmt.Exec(
			rec.DriverID, weekID, rec.GrossEarnings, rec.TaxValue, rec.NetOfTax,
			rec.AdminFeeValue, rec.AdminFeeBase, rec.FeeExempt,
			rec.FuelExpense, rec.TollExpense, rec.RentExpense,
			rec.FinancingInstallment, rec.FinancingInterest, rec.ExpenseTotal,
			rec.Repasse, string(snapshotBytes),
		)
		if opErr != nil {
			opErr = fmt.Errorf("failed to save record for driver %d: %w", rec.DriverID, opErr)
			return opErr
		}
	}

	log.Printf("Week %s settlement phase persisted: %d record(s).", weekID, len(records))
	return opErr
}

const recordColumns = `
    r.id, r.driver_id, r.week_id, r.gross_earnings, r.tax_value, r.net_of_tax,
    r.admin_fee_value, r.admin_fee_base, r.fee_exempt,
    r.fuel_expense, r.toll_expense, r.rent_expense,
    r.financing_installment, r.financing_interest, r.expense_total,
    r.repasse, r.bonus_total, r.payment_status, r.paid_at,
    r.proof_url, r.proof_file_name, r.proof_uploaded_at,
    r.snapshot_json, r.created_at, r.updated_at`

func scanRecord(row interface{ Scan(...interface{}) error }) (models.DriverWeeklyRecord, error) {
	var rec models.DriverWeeklyRecord
	var snapshotJSON string
	err := row.Scan(
		&rec.ID, &rec.DriverID, &rec.WeekID, &rec.GrossEarnings, &rec.TaxValue, &rec.NetOfTax,
		&rec.AdminFeeValue, &rec.AdminFeeBase, &rec.FeeExempt,
		&rec.FuelExpense, &rec.TollExpense, &rec.RentExpense,
		&rec.FinancingInstallment, &rec.FinancingInterest, &rec.ExpenseTotal,
		&rec.Repasse, &rec.BonusTotal, &rec.PaymentStatus, &rec.PaidAt,
		&rec.ProofURL, &rec.ProofFileName, &rec.ProofUploaded,
		&snapshotJSON, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return rec, err
	}
	if errUnmarshal := json.Unmarshal([]byte(snapshotJSON), &rec.Snapshot); errUnmarshal != nil {
		return rec, fmt.Errorf("failed to unmarshal snapshot for record #%d: %w", rec.ID, errUnmarshal)
	}
	return rec, nil
}

// GetWeekRecords returns every settled record of a week, ordered by driver.
func GetWeekRecords(weekID string) ([]models.DriverWeeklyRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM driver_weekly_records r WHERE r.week_id = $1 ORDER BY r.driver_id ASC`
	rows, err := DB.Query(query, weekID)
	if err != nil {
		log.Printf("GetWeekRecords: query failed for week %s: %v", weekID, err)
		return nil, err
	}
	defer rows.Close()

	var records []models.DriverWeeklyRecord
	for rows.Next() {
		rec, errScan := scanRecord(rows)
		if errScan != nil {
			log.Printf("GetWeekRecords: scan failed: %v", errScan)
			continue
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetWeekRecordsWithNames returns a week's records joined with driver names,
// for report views and the Excel export.
func GetWeekRecordsWithNames(weekID string) ([]models.DriverWeeklyRecordWithName, error) {
	query := `SELECT ` + recordColumns + `, d.name
        FROM driver_weekly_records r
        JOIN drivers d ON r.driver_id = d.id
        WHERE r.week_id = $1
        ORDER BY d.name ASC`
	rows, err := DB.Query(query, weekID)
	if err != nil {
		log.Printf("GetWeekRecordsWithNames: query failed for week %s: %v", weekID, err)
		return nil, err
	}
	defer rows.Close()

	var records []models.DriverWeeklyRecordWithName
	for rows.Next() {
		var rec models.DriverWeeklyRecordWithName
		var snapshotJSON string
		errScan := rows.Scan(
			&rec.ID, &rec.DriverID, &rec.WeekID, &rec.GrossEarnings, &rec.TaxValue, &rec.NetOfTax,
			&rec.AdminFeeValue, &rec.AdminFeeBase, &rec.FeeExempt,
			&rec.FuelExpense, &rec.TollExpense, &rec.RentExpense,
			&rec.FinancingInstallment, &rec.FinancingInterest, &rec.ExpenseTotal,
			&rec.Repasse, &rec.BonusTotal, &rec.PaymentStatus, &rec.PaidAt,
			&rec.ProofURL, &rec.ProofFileName, &rec.ProofUploaded,
			&snapshotJSON, &rec.CreatedAt, &rec.UpdatedAt,
			&rec.DriverName,
		)
		if errScan != nil {
			log.Printf("GetWeekRecordsWithNames: scan failed: %v", errScan)
			continue
		}
		if errUnmarshal := json.Unmarshal([]byte(snapshotJSON), &rec.Snapshot); errUnmarshal != nil {
			log.Printf("GetWeekRecordsWithNames: bad snapshot for record #%d: %v", rec.ID, errUnmarshal)
			continue
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpdateDerivedFields overwrites only the reprocessable fields of a record.
// Proof columns, payment status and bonus total are deliberately absent from
// the statement so a reprocessing pass can never touch them.
func UpdateDerivedFields(rec models.DriverWeeklyRecord) error {
	if rec.ID == 0 {
		return fmt.Errorf("record id must not be 0 for derived-field update")
	}
	snapshotBytes, errMarshal := json.Marshal(rec.Snapshot)
	if errMarshal != nil {
		return fmt.Errorf("failed to marshal snapshot for record #%d: %w", rec.ID, errMarshal)
	}

	query := `
        UPDATE driver_weekly_records SET
            admin_fee_value = $1,
            admin_fee_base = $2,
            fee_exempt = $3,
            fuel_expense = $4,
            toll_expense = $5,
            rent_expense = $6,
            financing_installment = $7,
            financing_interest = $8,
            expense_total = $9,
            repasse = $10,
            snapshot_json = $11,
            updated_at = NOW()
        WHERE id = $12`
	result, err := DB.Exec(query,
		rec.AdminFeeValue, rec.AdminFeeBase, rec.FeeExempt,
		rec.FuelExpense, rec.TollExpense, rec.RentExpense,
		rec.FinancingInstallment, rec.FinancingInterest, rec.ExpenseTotal,
		rec.Repasse, string(snapshotBytes), rec.ID,
	)
	if err != nil {
		log.Printf("UpdateDerivedFields: failed to update record #%d: %v", rec.ID, err)
		return err
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("record #%d not found for derived-field update", rec.ID)
	}
	return nil
}

// UpdateBonusTotals writes the commission engine's per-driver totals onto the
// week's records in one transaction, zeroing drivers that earned nothing so a
// re-run never leaves stale totals behind.
func UpdateBonusTotals(weekID string, totals map[int64]float64) error {
	tx, err := DB.Begin()
	if err != nil {
		log.Printf("UpdateBonusTotals: failed to begin transaction: %v", err)
		return err
	}
	var opErr error
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if opErr != nil {
			tx.Rollback()
		} else {
			opErr = tx.Commit()
			if opErr != nil {
				log.Printf("UpdateBonusTotals: commit failed for week %s: %v", weekID, opErr)
			}
		}
	}()

	if _, opErr = tx.Exec(`UPDATE driver_weekly_records SET bonus_total = 0, updated_at = NOW() WHERE week_id = $1`, weekID); opErr != nil {
		return opErr
	}

	stmt, errPrepare := tx.Prepare(`UPDATE driver_weekly_records SET bonus_total = $1, updated_at = NOW() WHERE week_id = $2 AND driver_id = $3`)
	if errPrepare != nil {
		opErr = errPrepare
		return opErr
	}
	defer stmt.Close()

	for driverID, total := range totals {
		if _, opErr = stmt.Exec(total, weekID, driverID); opErr != nil {
			opErr = fmt.Errorf("failed to set bonus total for driver %d: %w", driverID, opErr)
			return opErr
		}
	}
	return opErr
}

// MarkRecordPaid sets the payment status of one record. Marking paid is an
// external decision; the engine only records it.
func MarkRecordPaid(recordID int64) error {
	query := `UPDATE driver_weekly_records SET payment_status = 'paid', paid_at = NOW(), updated_at = NOW() WHERE id = $1 AND payment_status <> 'paid'`
	result, err := DB.Exec(query, recordID)
	if err != nil {
		log.Printf("MarkRecordPaid: failed to update record #%d: %v", recordID, err)
		return err
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		var alreadyPaid bool
		errCheck := DB.QueryRow(`SELECT EXISTS(SELECT 1 FROM driver_weekly_records WHERE id = $1 AND payment_status = 'paid')`, recordID).Scan(&alreadyPaid)
		if errCheck == nil && alreadyPaid {
			log.Printf("MarkRecordPaid: record #%d was already marked paid.", recordID)
			return nil
		}
		return fmt.Errorf("record #%d not found", recordID)
	}
	log.Printf("Record #%d marked as paid.", recordID)
	return nil
}

// AttachPaymentProof stores the externally-uploaded proof metadata on a
// record.
func AttachPaymentProof(recordID int64, proofURL, proofFileName string) error {
	query := `
        UPDATE driver_weekly_records
        SET proof_url = $1, proof_file_name = $2, proof_uploaded_at = NOW(), updated_at = NOW()
        WHERE id = $3`
	result, err := DB.Exec(query, proofURL, proofFileName, recordID)
	if err != nil {
		log.Printf("AttachPaymentProof: failed to update record #%d: %v", recordID, err)
		return err
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("record #%d not found for proof attachment", recordID)
	}
	log.Printf("Payment proof attached to record #%d.", recordID)
	return nil
}

// GetRecordByID fetches one settled record.
func GetRecordByID(recordID int64) (models.DriverWeeklyRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM driver_weekly_records r WHERE r.id = $1`
	rec, err := scanRecord(DB.QueryRow(query, recordID))
	if err != nil {
		if err == sql.ErrNoRows {
			return rec, fmt.Errorf("record #%d not found", recordID)
		}
		log.Printf("GetRecordByID: failed to fetch record #%d: %v", recordID, err)
		return rec, err
	}
	return rec, nil
}
