package models

import "time"

// InputSnapshot freezes everything the calculator consumed for one
// driver-week. Stored as JSONB next to the record so a reprocessing pass can
// recompute derived fields without re-aggregating platform data, and so
// audits can reconstruct any payout.
type InputSnapshot struct {
	GrossByPlatform map[string]float64 `json:"gross_by_platform"`
	TripsByPlatform map[string]int     `json:"trips_by_platform"`
	TaxRatePct      float64            `json:"tax_rate_pct"`

	Fuel  float64 `json:"fuel"`
	Tolls float64 `json:"tolls"`
	Rent  float64 `json:"rent"`

	FinancingActive         bool    `json:"financing_active"`
	FinancingInstallment    float64 `json:"financing_installment"`
	FinancingInstallmentPct float64 `json:"financing_installment_pct"`
	FinancingInterestPct    float64 `json:"financing_interest_pct"`

	AdminFeeMode  string  `json:"admin_fee_mode"`
	AdminFeeValue float64 `json:"admin_fee_value"`
	AdminFeeBase  string  `json:"admin_fee_base"`
	Exempt        bool    `json:"exempt"`
}

// DriverWeeklyRecord is the settlement output for one (driver, week).
// Created by the calculator; later mutated only by the commission engine
// attaching bonus totals, the reprocessor recomputing derived fields, and
// external payment-proof attachment.
type DriverWeeklyRecord struct {
	ID       int64  `json:"id"`
	DriverID int64  `json:"driver_id"`
	WeekID   string `json:"week_id"`

	GrossEarnings float64 `json:"gross_earnings"` // uber + bolt
	TaxValue      float64 `json:"tax_value"`
	NetOfTax      float64 `json:"net_of_tax"`

	AdminFeeValue float64 `json:"admin_fee_value"`
	AdminFeeBase  string  `json:"admin_fee_base"` // base the fee was computed on
	FeeExempt     bool    `json:"fee_exempt"`

	FuelExpense          float64 `json:"fuel_expense"`
	TollExpense          float64 `json:"toll_expense"`
	RentExpense          float64 `json:"rent_expense"`
	FinancingInstallment float64 `json:"financing_installment"`
	FinancingInterest    float64 `json:"financing_interest"`
	ExpenseTotal         float64 `json:"expense_total"`

	// Repasse is the net amount transferred to the driver:
	// netOfTax - adminFee - expenseTotal.
	Repasse float64 `json:"repasse"`

	BonusTotal float64 `json:"bonus_total"` // attached by the commission engine

	PaymentStatus string     `json:"payment_status"`
	PaidAt        NullTime   `json:"paid_at,omitempty"`
	ProofURL      NullString `json:"proof_url,omitempty"`
	ProofFileName NullString `json:"proof_file_name,omitempty"`
	ProofUploaded NullTime   `json:"proof_uploaded_at,omitempty"`

	Snapshot InputSnapshot `json:"snapshot"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DriverWeeklyRecordWithName carries the driver's display name alongside the
// record for report views and exports.
type DriverWeeklyRecordWithName struct {
	DriverWeeklyRecord
	DriverName string `json:"driver_name"`
}

// RunSummary is what the admin-facing caller gets back from a settlement or
// reprocessing run. No raw errors cross the engine boundary unhandled.
type RunSummary struct {
	RunID            string       `json:"run_id"`
	WeekID           string       `json:"week_id"`
	Success          bool         `json:"success"`
	DriversProcessed int          `json:"drivers_processed"`
	BonusesComputed  int          `json:"bonuses_computed"`
	UnmappedRows     int          `json:"unmapped_rows"`
	Errors           []string     `json:"errors"`
	Diagnostics      []Diagnostic `json:"diagnostics,omitempty"`
}
