package settlement

import (
	"testing"

	"github.com/jovjrx/frota360-demo-sub005/internal/constants"
	"github.com/jovjrx/frota360-demo-sub005/internal/db"
	"github.com/jovjrx/frota360-demo-sub005/internal/models"
)

type fakeSettingsStore struct {
	commission    models.CommissionConfig
	commissionErr error
	adminFee      models.AdminFeeConfig
	adminFeeErr   error
	financial     models.FinancialConfig
	financialErr  error
}

func (f fakeSettingsStore) GetCommissionConfig() (models.CommissionConfig, error) {
	return f.commission, f.commissionErr
}

func (f fakeSettingsStore) GetAdminFeeConfig() (models.AdminFeeConfig, error) {
	return f.adminFee, f.adminFeeErr
}

func (f fakeSettingsStore) GetFinancialConfig() (models.FinancialConfig, error) {
	return f.financial, f.financialErr
}

func TestLoadRunConfigFallsBackToDefaults(t *testing.T) {
	store := fakeSettingsStore{
		commissionErr: db.ErrSettingsNotFound,
		adminFeeErr:   db.ErrSettingsNotFound,
		financialErr:  db.ErrSettingsNotFound,
	}

	cfg := LoadRunConfig(store)
	if cfg.Commission.MinWeeklyRevenue != constants.DEFAULT_MIN_WEEKLY_BASE {
		t.Errorf("min weekly revenue = %.2f", cfg.Commission.MinWeeklyRevenue)
	}
	if cfg.AdminFee.Affiliate.Value != constants.DEFAULT_ADMIN_FEE_PCT {
		t.Errorf("admin fee = %.2f", cfg.AdminFee.Affiliate.Value)
	}
	if cfg.Financial.TaxRatePct != constants.DEFAULT_TAX_RATE_PCT {
		t.Errorf("tax rate = %.2f", cfg.Financial.TaxRatePct)
	}
	if len(cfg.Diagnostics) != 3 {
		t.Errorf("got %d diagnostics, want one per missing document", len(cfg.Diagnostics))
	}
	for _, d := range cfg.Diagnostics {
		if d.Kind != constants.DIAG_CONFIG_FALLBACK {
			t.Errorf("diagnostic kind = %q", d.Kind)
		}
	}
}

func TestLoadRunConfigNormalizesMalformedValues(t *testing.T) {
	store := fakeSettingsStore{
		commission: models.CommissionConfig{
			MinWeeklyRevenue: 550,
			Base:             "vibes",
			MaxLevels:        -1,
		},
		adminFee: models.AdminFeeConfig{
			Affiliate: models.AdminFeeRule{Mode: "nope", Base: "nope"},
			Renter:    models.AdminFeeRule{Mode: constants.ADMIN_FEE_MODE_FIXED, Value: 50, Base: constants.ADMIN_FEE_BASE_GROSS},
		},
		financial: models.FinancialConfig{TaxRatePct: 140},
	}

	cfg := LoadRunConfig(store)
	if cfg.Commission.Base != constants.COMMISSION_BASE_REPASSE {
		t.Errorf("commission base = %q", cfg.Commission.Base)
	}
	if cfg.Commission.MaxLevels != constants.DEFAULT_COMMISSION_LEVELS {
		t.Errorf("max levels = %d", cfg.Commission.MaxLevels)
	}
	if cfg.AdminFee.Affiliate.Mode != constants.ADMIN_FEE_MODE_PERCENT {
		t.Errorf("affiliate mode = %q", cfg.AdminFee.Affiliate.Mode)
	}
	// A valid renter rule survives normalization untouched.
	if cfg.AdminFee.Renter.Value != 50 || cfg.AdminFee.Renter.Base != constants.ADMIN_FEE_BASE_GROSS {
		t.Errorf("renter rule mangled: %+v", cfg.AdminFee.Renter)
	}
	if cfg.Financial.TaxRatePct != constants.DEFAULT_TAX_RATE_PCT {
		t.Errorf("tax rate = %.2f", cfg.Financial.TaxRatePct)
	}
	if len(cfg.Diagnostics) == 0 {
		t.Error("malformed config produced no diagnostics")
	}
}

func TestLoadRunConfigKeepsValidConfig(t *testing.T) {
	store := fakeSettingsStore{
		commission: models.CommissionConfig{
			MinWeeklyRevenue: 600,
			Base:             constants.COMMISSION_BASE_NET_OF_TAX,
			MaxLevels:        3,
			Levels:           map[int]float64{1: 0.03, 2: 0.02, 3: 0.01},
		},
		adminFee:  DefaultAdminFeeConfig(),
		financial: models.FinancialConfig{TaxRatePct: 6, Currency: "EUR"},
	}

	cfg := LoadRunConfig(store)
	if len(cfg.Diagnostics) != 0 {
		t.Errorf("valid config raised diagnostics: %v", cfg.Diagnostics)
	}
	if cfg.Commission.MinWeeklyRevenue != 600 || cfg.Commission.MaxLevels != 3 {
		t.Errorf("commission config mangled: %+v", cfg.Commission)
	}
}
