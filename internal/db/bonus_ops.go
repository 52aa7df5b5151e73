package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jovjrx/frota360-demo-sub005/internal/models"
)

// ReplaceWeekBonuses overwrites a week's affiliate bonuses as one unit.
// The commission engine is idempotent per week: a re-run replaces the
// previous pass instead of accumulating on top of it.
func ReplaceWeekBonuses(weekID string, bonuses []models.AffiliateBonus) error {
	tx, err := DB.Begin()
	if err != nil {
		log.Printf("ReplaceWeekBonuses: failed to begin transaction: %v", err)
		return err
	}
	var opErr error
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if opErr != nil {
			tx.Rollback()
			log.Printf("ReplaceWeekBonuses: rolling back week %s: %v", weekID, opErr)
		} else {
			opErr = tx.Commit()
			if opErr != nil {
				log.Printf("ReplaceWeekBonuses: commit failed for week %s: %v", weekID, opErr)
			}
		}
	}()

	// Paid-out bonuses are money already handed over; refuse to overwrite.
	var paidCount int
	if opErr = tx.QueryRow(`SELECT COUNT(*) FROM affiliate_bonuses WHERE week_id = $1 AND paid_out = TRUE`, weekID).Scan(&paidCount); opErr != nil {
		return opErr
	}
	if paidCount > 0 {
		opErr = fmt.Errorf("week %s has %d paid-out bonus aggregate(s); refusing to overwrite", weekID, paidCount)
		return opErr
	}

	if _, opErr = tx.Exec(`DELETE FROM affiliate_bonuses WHERE week_id = $1`, weekID); opErr != nil {
		return opErr
	}

	stmt, errPrepare := tx.Prepare(`
        INSERT INTO affiliate_bonuses (indicator_id, week_id, total, details_json, paid_out, created_at)
        VALUES ($1, $2, $3, $4, FALSE, NOW())`)
	if errPrepare != nil {
		opErr = errPrepare
		return opErr
	}
	defer stmt.Close()

	for _, bonus := range bonuses {
		detailsBytes, errMarshal := json.Marshal(bonus.Details)
		if errMarshal != nil {
			opErr = fmt.Errorf("failed to marshal details for indicator %d: %w", bonus.IndicatorID, errMarshal)
			return opErr
		}
		if _, opErr = stmt.Exec(bonus.IndicatorID, weekID, bonus.Total, string(detailsBytes)); opErr != nil {
			opErr = fmt.Errorf("failed to insert bonus for indicator %d: %w", bonus.IndicatorID, opErr)
			return opErr
		}
	}

	log.Printf("Week %s bonus phase persisted: %d aggregate(s).", weekID, len(bonuses))
	return opErr
}

// GetWeekBonuses returns a week's bonus aggregates ordered by indicator.
func GetWeekBonuses(weekID string) ([]models.AffiliateBonus, error) {
	query := `
        SELECT id, indicator_id, week_id, total, details_json, paid_out, created_at
        FROM affiliate_bonuses
        WHERE week_id = $1
        ORDER BY indicator_id ASC`
	rows, err := DB.Query(query, weekID)
	if err != nil {
		log.Printf("GetWeekBonuses: query failed for week %s: %v", weekID, err)
		return nil, err
	}
	defer rows.Close()

	var bonuses []models.AffiliateBonus
	for rows.Next() {
		var b models.AffiliateBonus
		var detailsJSON sql.NullString
		errScan := rows.Scan(&b.ID, &b.IndicatorID, &b.WeekID, &b.Total, &detailsJSON, &b.PaidOut, &b.CreatedAt)
		if errScan != nil {
			log.Printf("GetWeekBonuses: scan failed: %v", errScan)
			continue
		}
		if detailsJSON.Valid && detailsJSON.String != "" && detailsJSON.String != "null" {
			if errUnmarshal := json.Unmarshal([]byte(detailsJSON.String), &b.Details); errUnmarshal != nil {
				log.Printf("GetWeekBonuses: bad details for bonus #%d: %v. JSON: %s", b.ID, errUnmarshal, detailsJSON.String)
				b.Details = []models.BonusDetail{}
			}
		} else {
			b.Details = []models.BonusDetail{}
		}
		bonuses = append(bonuses, b)
	}
	return bonuses, rows.Err()
}

// GetBonusesByIndicator lists one driver's bonus history, newest week first.
func GetBonusesByIndicator(indicatorID int64) ([]models.AffiliateBonus, error) {
	query := `
        SELECT id, indicator_id, week_id, total, details_json, paid_out, created_at
        FROM affiliate_bonuses
        WHERE indicator_id = $1
        ORDER BY week_id DESC`
	rows, err := DB.Query(query, indicatorID)
	if err != nil {
		log.Printf("GetBonusesByIndicator: query failed for indicator %d: %v", indicatorID, err)
		return nil, err
	}
	defer rows.Close()

	var bonuses []models.AffiliateBonus
	for rows.Next() {
		var b models.AffiliateBonus
		var detailsJSON sql.NullString
		errScan := rows.Scan(&b.ID, &b.IndicatorID, &b.WeekID, &b.Total, &detailsJSON, &b.PaidOut, &b.CreatedAt)
		if errScan != nil {
			log.Printf("GetBonusesByIndicator: scan failed: %v", errScan)
			continue
		}
		if detailsJSON.Valid && detailsJSON.String != "" && detailsJSON.String != "null" {
			if errUnmarshal := json.Unmarshal([]byte(detailsJSON.String), &b.Details); errUnmarshal != nil {
				log.Printf("GetBonusesByIndicator: bad details for bonus #%d: %v", b.ID, errUnmarshal)
				b.Details = []models.BonusDetail{}
			}
		} else {
			b.Details = []models.BonusDetail{}
		}
		bonuses = append(bonuses, b)
	}
	return bonuses, rows.Err()
}
