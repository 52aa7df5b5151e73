package settlement

import (
	"errors"
	"fmt"
	"log"

	"github.com/jovjrx/frota360-demo-sub005/internal/constants"
	"github.com/jovjrx/frota360-demo-sub005/internal/db"
	"github.com/jovjrx/frota360-demo-sub005/internal/models"
)

// SettingsStore is the narrow configuration interface the engine consumes.
// db implements it; tests plug fakes.
type SettingsStore interface {
	GetCommissionConfig() (models.CommissionConfig, error)
	GetAdminFeeConfig() (models.AdminFeeConfig, error)
	GetFinancialConfig() (models.FinancialConfig, error)
}

// RunConfig is the immutable configuration snapshot for one settlement run.
// Taken once at the start of a run and passed by value to every component, so
// no component can observe a mid-run config change.
type RunConfig struct {
	Commission models.CommissionConfig
	AdminFee   models.AdminFeeConfig
	Financial  models.FinancialConfig

	// Diagnostics collects config-fallback notices raised while loading.
	Diagnostics []models.Diagnostic
}

// DefaultCommissionConfig is the documented fallback: repasse-based, two
// levels, 550 € weekly eligibility threshold.
func DefaultCommissionConfig() models.CommissionConfig {
	return models.CommissionConfig{
		MinWeeklyRevenue: constants.DEFAULT_MIN_WEEKLY_BASE,
		Base:             constants.COMMISSION_BASE_REPASSE,
		MaxLevels:        constants.DEFAULT_COMMISSION_LEVELS,
		Levels: map[int]float64{
			1: 0.02,
			2: 0.01,
		},
	}
}

// DefaultAdminFeeConfig is the documented fallback: 7% of
// gross-minus-tax-minus-expenses for both driver types.
func DefaultAdminFeeConfig() models.AdminFeeConfig {
	rule := models.AdminFeeRule{
		Mode:  constants.ADMIN_FEE_MODE_PERCENT,
		Value: constants.DEFAULT_ADMIN_FEE_PCT,
		Base:  constants.ADMIN_FEE_BASE_NET,
	}
	return models.AdminFeeConfig{Affiliate: rule, Renter: rule}
}

// DefaultFinancialConfig is the documented fallback: 6% IVA, euros.
func DefaultFinancialConfig() models.FinancialConfig {
	return models.FinancialConfig{TaxRatePct: constants.DEFAULT_TAX_RATE_PCT, Currency: "EUR"}
}

// LoadRunConfig snapshots all three settings documents for a run. Missing or
// malformed documents fall back to the documented defaults with a logged
// diagnostic; configuration never fails a run.
func LoadRunConfig(store SettingsStore) RunConfig {
	cfg := RunConfig{}

	commission, err := store.GetCommissionConfig()
	if err != nil {
		cfg.Diagnostics = append(cfg.Diagnostics, fallbackDiag("commission_config", err))
		commission = DefaultCommissionConfig()
	}
	cfg.Commission = normalizeCommission(commission, &cfg.Diagnostics)

	adminFee, err := store.GetAdminFeeConfig()
	if err != nil {
		cfg.Diagnostics = append(cfg.Diagnostics, fallbackDiag("admin_fee_config", err))
		adminFee = DefaultAdminFeeConfig()
	}
	cfg.AdminFee = normalizeAdminFee(adminFee, &cfg.Diagnostics)

	financial, err := store.GetFinancialConfig()
	if err != nil {
		cfg.Diagnostics = append(cfg.Diagnostics, fallbackDiag("financial_config", err))
		financial = DefaultFinancialConfig()
	}
	if financial.TaxRatePct <= 0 || financial.TaxRatePct >= 100 {
		cfg.Diagnostics = append(cfg.Diagnostics, fallbackDiag("financial_config.tax_rate_pct",
			fmt.Errorf("out-of-range tax rate %.2f", financial.TaxRatePct)))
		financial.TaxRatePct = constants.DEFAULT_TAX_RATE_PCT
	}
	cfg.Financial = financial

	return cfg
}

func fallbackDiag(what string, err error) models.Diagnostic {
	msg := fmt.Sprintf("%s unavailable (%v), using documented default", what, err)
	if errors.Is(err, db.ErrSettingsNotFound) {
		msg = fmt.Sprintf("%s not configured, using documented default", what)
	}
	log.Printf("LoadRunConfig: %s", msg)
	return models.Diagnostic{Kind: constants.DIAG_CONFIG_FALLBACK, Message: msg}
}

func normalizeCommission(cfg models.CommissionConfig, diags *[]models.Diagnostic) models.CommissionConfig {
	if cfg.Base != constants.COMMISSION_BASE_REPASSE && cfg.Base != constants.COMMISSION_BASE_NET_OF_TAX {
		*diags = append(*diags, fallbackDiag("commission_config.base", fmt.Errorf("unknown base %q", cfg.Base)))
		cfg.Base = constants.COMMISSION_BASE_REPASSE
	}
	if cfg.MaxLevels <= 0 {
		*diags = append(*diags, fallbackDiag("commission_config.max_levels", fmt.Errorf("non-positive max levels %d", cfg.MaxLevels)))
		cfg.MaxLevels = constants.DEFAULT_COMMISSION_LEVELS
	}
	if cfg.Levels == nil {
		cfg.Levels = map[int]float64{}
	}
	return cfg
}

func normalizeAdminFee(cfg models.AdminFeeConfig, diags *[]models.Diagnostic) models.AdminFeeConfig {
	cfg.Affiliate = normalizeAdminFeeRule("affiliate", cfg.Affiliate, diags)
	cfg.Renter = normalizeAdminFeeRule("renter", cfg.Renter, diags)
	return cfg
}

func normalizeAdminFeeRule(driverType string, rule models.AdminFeeRule, diags *[]models.Diagnostic) models.AdminFeeRule {
	switch rule.Mode {
	case constants.ADMIN_FEE_MODE_PERCENT, constants.ADMIN_FEE_MODE_FIXED:
	default:
		*diags = append(*diags, fallbackDiag("admin_fee_config."+driverType+".mode", fmt.Errorf("unknown mode %q", rule.Mode)))
		rule.Mode = constants.ADMIN_FEE_MODE_PERCENT
		rule.Value = constants.DEFAULT_ADMIN_FEE_PCT
	}
	switch rule.Base {
	case constants.ADMIN_FEE_BASE_GROSS, constants.ADMIN_FEE_BASE_GROSS_MINUS_TAX,
		constants.ADMIN_FEE_BASE_GROSS_MINUS_EXPENSES, constants.ADMIN_FEE_BASE_NET:
	default:
		*diags = append(*diags, fallbackDiag("admin_fee_config."+driverType+".base", fmt.Errorf("unknown base %q", rule.Base)))
		rule.Base = constants.ADMIN_FEE_BASE_NET
	}
	return rule
}

// DBSettingsStore adapts the db package to the SettingsStore interface.
type DBSettingsStore struct{}

func (DBSettingsStore) GetCommissionConfig() (models.CommissionConfig, error) {
	return db.GetCommissionConfig()
}

func (DBSettingsStore) GetAdminFeeConfig() (models.AdminFeeConfig, error) {
	return db.GetAdminFeeConfig()
}

func (DBSettingsStore) GetFinancialConfig() (models.FinancialConfig, error) {
	return db.GetFinancialConfig()
}
