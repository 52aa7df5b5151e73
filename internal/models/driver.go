package models

import (
	"database/sql"
	"time"
)

// Driver is a fleet driver. Created on approval, mutated by admin edits and
// the exemption registry; never deleted, only deactivated.
type Driver struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	Email      sql.NullString `json:"email"`
	Phone      sql.NullString `json:"phone,omitempty"`
	Type       string         `json:"type"` // constants.DRIVER_TYPE_*
	Active     bool           `json:"active"`
	ReferredBy sql.NullInt64  `json:"referred_by"` // upline driver id, if recruited

	// Per-platform integration keys used by the resolver to map imported rows
	// back to this driver.
	UberUUID   sql.NullString `json:"uber_uuid"`
	BoltEmail  sql.NullString `json:"bolt_email"`
	ViaVerdeID sql.NullString `json:"viaverde_id"`
	MyPrioCard sql.NullString `json:"myprio_card"`
	Plate      sql.NullString `json:"plate"`

	// Weekly rent, charged only for renters.
	RentalFee float64 `json:"rental_fee"`

	// Optional per-driver admin fee override. Replaces mode/value from the
	// configured AdminFeeConfig; the base is never overridable.
	AdminFeeOverrideMode  sql.NullString  `json:"admin_fee_override_mode"`
	AdminFeeOverrideValue sql.NullFloat64 `json:"admin_fee_override_value"`

	// Admin fee exemption window. Active for checkDate iff
	// start <= checkDate < start + weeks*7d.
	IsExempt        bool          `json:"is_exempt"`
	ExemptionStart  sql.NullTime  `json:"exemption_start"`
	ExemptionWeeks  int           `json:"exemption_weeks"`
	ExemptionReason NullString    `json:"exemption_reason,omitempty"`
	ExemptionSetBy  sql.NullInt64 `json:"exemption_set_by,omitempty"`

	// Car financing. A positive InstallmentPct means the weekly installment is
	// that percentage of net-of-tax earnings; otherwise Installment is a flat
	// weekly amount. Interest is always a percentage of net-of-tax.
	FinancingActive         bool    `json:"financing_active"`
	FinancingInstallment    float64 `json:"financing_installment"`
	FinancingInstallmentPct float64 `json:"financing_installment_pct"`
	FinancingInterestPct    float64 `json:"financing_interest_pct"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IntegrationKey returns the stored reference key for the given platform, or
// "" when the driver has none for it.
func (d Driver) IntegrationKey(platform string) string {
	switch platform {
	case "uber":
		if d.UberUUID.Valid {
			return d.UberUUID.String
		}
	case "bolt":
		if d.BoltEmail.Valid {
			return d.BoltEmail.String
		}
	case "viaverde":
		if d.ViaVerdeID.Valid {
			return d.ViaVerdeID.String
		}
	case "myprio":
		if d.MyPrioCard.Valid {
			return d.MyPrioCard.String
		}
	}
	return ""
}
