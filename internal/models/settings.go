package models

// CommissionConfig is the global multi-level commission policy. Read-only
// during a run; changed only between runs.
type CommissionConfig struct {
	// MinWeeklyRevenue is the weekly base an indicator must reach to receive
	// any bonus that week. The gate is on the indicator's own base, not the
	// downline's.
	MinWeeklyRevenue float64 `json:"min_weekly_revenue"`
	// Base selects the quantity bonuses are computed on
	// (constants.COMMISSION_BASE_*).
	Base      string `json:"base"`
	MaxLevels int    `json:"max_levels"`
	// Levels maps level (1..MaxLevels) to the rate applied to the referred
	// driver's base. A zero rate skips the level but the walk still advances.
	Levels map[int]float64 `json:"levels"`
}

// AdminFeeRule is the fee policy for one driver type.
type AdminFeeRule struct {
	Mode  string  `json:"mode"` // constants.ADMIN_FEE_MODE_*
	Value float64 `json:"value"`
	Base  string  `json:"base"` // constants.ADMIN_FEE_BASE_*
}

// AdminFeeConfig holds the admin fee rules per driver type.
type AdminFeeConfig struct {
	Affiliate AdminFeeRule `json:"affiliate"`
	Renter    AdminFeeRule `json:"renter"`
}

// RuleFor returns the rule for the given driver type, defaulting to the
// affiliate rule for unknown types.
func (c AdminFeeConfig) RuleFor(driverType string) AdminFeeRule {
	if driverType == "renter" {
		return c.Renter
	}
	return c.Affiliate
}

// FinancialConfig holds run-wide financial parameters.
type FinancialConfig struct {
	TaxRatePct float64 `json:"tax_rate_pct"` // IVA, applied to gross platform earnings
	Currency   string  `json:"currency"`
}
