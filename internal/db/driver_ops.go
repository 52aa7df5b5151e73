package db

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/jovjrx/frota360-demo-sub005/internal/models"
)

const driverColumns = `
    id, name, email, phone, type, active, referred_by,
    uber_uuid, bolt_email, viaverde_id, myprio_card, plate,
    rental_fee, admin_fee_override_mode, admin_fee_override_value,
    is_exempt, exemption_start, exemption_weeks, exemption_reason, exemption_set_by,
    financing_active, financing_installment, financing_installment_pct, financing_interest_pct,
    created_at, updated_at`

func scanDriver(row interface{ Scan(...interface{}) error }) (models.Driver, error) {
	var d models.Driver
	err := row.Scan(
		&d.ID, &d.Name, &d.Email, &d.Phone, &d.Type, &d.Active, &d.ReferredBy,
		&d.UberUUID, &d.BoltEmail, &d.ViaVerdeID, &d.MyPrioCard, &d.Plate,
		&d.RentalFee, &d.AdminFeeOverrideMode, &d.AdminFeeOverrideValue,
		&d.IsExempt, &d.ExemptionStart, &d.ExemptionWeeks, &d.ExemptionReason, &d.ExemptionSetBy,
		&d.FinancingActive, &d.FinancingInstallment, &d.FinancingInstallmentPct, &d.FinancingInterestPct,
		&d.CreatedAt, &d.UpdatedAt,
	)
	return d, err
}

// GetDriverByID retrieves one driver by internal id.
func GetDriverByID(driverID int64) (models.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1`
	d, err := scanDriver(DB.QueryRow(query, driverID))
	if err != nil {
		if err == sql.ErrNoRows {
			return d, fmt.Errorf("driver %d not found", driverID)
		}
		log.Printf("GetDriverByID: failed to fetch driver %d: %v", driverID, err)
		return d, err
	}
	return d, nil
}

// GetActiveDrivers retrieves all active drivers ordered by id. The stable
// ordering matters: the resolver's first-match-wins policy depends on it.
func GetActiveDrivers() ([]models.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE active = TRUE ORDER BY id ASC`
	rows, err := DB.Query(query)
	if err != nil {
		log.Printf("GetActiveDrivers: query failed: %v", err)
		return nil, err
	}
	defer rows.Close()

	var drivers []models.Driver
	for rows.Next() {
		d, errScan := scanDriver(rows)
		if errScan != nil {
			log.Printf("GetActiveDrivers: scan failed: %v", errScan)
			continue
		}
		drivers = append(drivers, d)
	}
	return drivers, rows.Err()
}

// SetDriverExemption opens (or rewrites) an admin-fee exemption window for a
// driver. weeks == 0 clears the exemption.
func SetDriverExemption(driverID int64, weeks int, reason string, actorID int64) error {
	if weeks < 0 {
		return fmt.Errorf("exemption weeks must not be negative, got %d", weeks)
	}
	if weeks == 0 {
		return ClearDriverExemption(driverID)
	}

	query := `
        UPDATE drivers
        SET is_exempt = TRUE,
            exemption_start = $1,
            exemption_weeks = $2,
            exemption_reason = $3,
            exemption_set_by = $4,
            updated_at = NOW()
        WHERE id = $5`
	result, err := DB.Exec(query, time.Now().UTC().Format("2006-01-02"), weeks, reason, actorID, driverID)
	if err != nil {
		log.Printf("SetDriverExemption: failed to update driver %d: %v", driverID, err)
		return err
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("driver %d not found for exemption update", driverID)
	}
	log.Printf("Driver %d exempted from admin fee for %d week(s) by actor %d.", driverID, weeks, actorID)
	return nil
}

// ClearDriverExemption closes a driver's exemption window.
func ClearDriverExemption(driverID int64) error {
	query := `
        UPDATE drivers
        SET is_exempt = FALSE,
            exemption_start = NULL,
            exemption_weeks = 0,
            exemption_reason = NULL,
            exemption_set_by = NULL,
            updated_at = NOW()
        WHERE id = $1`
	result, err := DB.Exec(query, driverID)
	if err != nil {
		log.Printf("ClearDriverExemption: failed to update driver %d: %v", driverID, err)
		return err
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("driver %d not found for exemption clear", driverID)
	}
	log.Printf("Admin fee exemption cleared for driver %d.", driverID)
	return nil
}

// DeactivateDriver marks a driver inactive. Drivers are never deleted.
func DeactivateDriver(driverID int64) error {
	result, err := DB.Exec(`UPDATE drivers SET active = FALSE, updated_at = NOW() WHERE id = $1`, driverID)
	if err != nil {
		log.Printf("DeactivateDriver: failed to update driver %d: %v", driverID, err)
		return err
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("driver %d not found", driverID)
	}
	log.Printf("Driver %d deactivated.", driverID)
	return nil
}
