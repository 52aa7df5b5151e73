package settlement

import (
	"database/sql"
	"math"
	"testing"

	"github.com/jovjrx/frota360-demo-sub005/internal/constants"
	"github.com/jovjrx/frota360-demo-sub005/internal/models"
)

func testRunConfig() RunConfig {
	return RunConfig{
		Commission: DefaultCommissionConfig(),
		AdminFee:   DefaultAdminFeeConfig(),
		Financial:  DefaultFinancialConfig(),
	}
}

func weekAggregates(uber, bolt, viaverde, myprio float64) map[string]models.WeeklyPlatformAggregate {
	aggs := map[string]models.WeeklyPlatformAggregate{}
	set := func(platform string, value float64) {
		if value != 0 {
			aggs[platform] = models.WeeklyPlatformAggregate{Platform: platform, TotalValue: value}
		}
	}
	set(constants.PLATFORM_UBER, uber)
	set(constants.PLATFORM_BOLT, bolt)
	set(constants.PLATFORM_VIAVERDE, viaverde)
	set(constants.PLATFORM_MYPRIO, myprio)
	return aggs
}

func moneyEq(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 0.01 {
		t.Errorf("%s = %.2f, want %.2f", name, got, want)
	}
}

func TestCalculateWeekAffiliate(t *testing.T) {
	driver := models.Driver{ID: 1, Type: constants.DRIVER_TYPE_AFFILIATE}
	// 1000 gross, 6% tax, 50 fuel, 30 tolls, default 7% fee on
	// gross-minus-tax-minus-expenses.
	rec, err := CalculateWeek(driver, weekAggregates(600, 400, 30, 50), testRunConfig(), false)
	if err != nil {
		t.Fatal(err)
	}

	moneyEq(t, "gross", rec.GrossEarnings, 1000)
	moneyEq(t, "tax", rec.TaxValue, 60)
	moneyEq(t, "netOfTax", rec.NetOfTax, 940)
	moneyEq(t, "expenseTotal", rec.ExpenseTotal, 80)
	// 7% of (1000 - 60 - 80) = 60.20
	moneyEq(t, "adminFee", rec.AdminFeeValue, 60.20)
	moneyEq(t, "repasse", rec.Repasse, 799.80)
}

func TestCalculateWeekRepasseIdentity(t *testing.T) {
	// The identity repasse = netOfTax - adminFee - expenseTotal must hold at
	// cent precision for awkward inputs too.
	cases := []struct {
		name                       string
		uber, bolt, viaverde, prio float64
		driverType                 string
		rentalFee                  float64
	}{
		{"affiliate plain", 123.45, 67.89, 10.01, 20.02, constants.DRIVER_TYPE_AFFILIATE, 0},
		{"renter with rent", 999.99, 0.01, 5.55, 6.66, constants.DRIVER_TYPE_RENTER, 250},
		{"tiny amounts", 0.01, 0.02, 0.01, 0.01, constants.DRIVER_TYPE_AFFILIATE, 0},
		{"expenses exceed earnings", 50, 0, 80, 120, constants.DRIVER_TYPE_RENTER, 300},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			driver := models.Driver{ID: 7, Type: tc.driverType, RentalFee: tc.rentalFee}
			rec, err := CalculateWeek(driver, weekAggregates(tc.uber, tc.bolt, tc.viaverde, tc.prio), testRunConfig(), false)
			if err != nil {
				t.Fatal(err)
			}
			moneyEq(t, "repasse identity", rec.Repasse, rec.NetOfTax-rec.AdminFeeValue-rec.ExpenseTotal)
		})
	}
}

func TestCalculateWeekIsPure(t *testing.T) {
	driver := models.Driver{ID: 3, Type: constants.DRIVER_TYPE_RENTER, RentalFee: 200}
	aggs := weekAggregates(800, 300, 25, 60)
	cfg := testRunConfig()

	first, err := CalculateWeek(driver, aggs, cfg, false)
	if err != nil {
		t.Fatal(err)
	}
	second, err := CalculateWeek(driver, aggs, cfg, false)
	if err != nil {
		t.Fatal(err)
	}
	if first.Repasse != second.Repasse || first.AdminFeeValue != second.AdminFeeValue || first.ExpenseTotal != second.ExpenseTotal {
		t.Errorf("identical inputs produced different records: %+v vs %+v", first, second)
	}
}

func TestCalculateWeekExemptionZeroesFee(t *testing.T) {
	driver := models.Driver{ID: 2, Type: constants.DRIVER_TYPE_AFFILIATE}
	rec, err := CalculateWeek(driver, weekAggregates(1000, 0, 0, 0), testRunConfig(), true)
	if err != nil {
		t.Fatal(err)
	}
	if rec.AdminFeeValue != 0 {
		t.Errorf("adminFee = %.2f, want 0 for exempt driver", rec.AdminFeeValue)
	}
	if !rec.FeeExempt {
		t.Error("FeeExempt not set on record")
	}
	moneyEq(t, "repasse", rec.Repasse, rec.NetOfTax)
}

func TestCalculateWeekAdminFeeBases(t *testing.T) {
	// gross=1000, tax=60, expenses=80. 10% fee over each base.
	cases := []struct {
		base string
		want float64
	}{
		{constants.ADMIN_FEE_BASE_GROSS, 100.00},
		{constants.ADMIN_FEE_BASE_GROSS_MINUS_TAX, 94.00},
		{constants.ADMIN_FEE_BASE_GROSS_MINUS_EXPENSES, 92.00},
		{constants.ADMIN_FEE_BASE_NET, 86.00},
	}
	for _, tc := range cases {
		t.Run(tc.base, func(t *testing.T) {
			cfg := testRunConfig()
			rule := models.AdminFeeRule{Mode: constants.ADMIN_FEE_MODE_PERCENT, Value: 10, Base: tc.base}
			cfg.AdminFee = models.AdminFeeConfig{Affiliate: rule, Renter: rule}

			driver := models.Driver{ID: 4, Type: constants.DRIVER_TYPE_AFFILIATE}
			rec, err := CalculateWeek(driver, weekAggregates(700, 300, 30, 50), cfg, false)
			if err != nil {
				t.Fatal(err)
			}
			moneyEq(t, "adminFee", rec.AdminFeeValue, tc.want)
		})
	}
}

func TestCalculateWeekFixedFeeAndOverride(t *testing.T) {
	cfg := testRunConfig()

	t.Run("fixed mode", func(t *testing.T) {
		rule := models.AdminFeeRule{Mode: constants.ADMIN_FEE_MODE_FIXED, Value: 45, Base: constants.ADMIN_FEE_BASE_NET}
		c := cfg
		c.AdminFee = models.AdminFeeConfig{Affiliate: rule, Renter: rule}
		rec, err := CalculateWeek(models.Driver{ID: 5}, weekAggregates(1000, 0, 0, 0), c, false)
		if err != nil {
			t.Fatal(err)
		}
		moneyEq(t, "adminFee", rec.AdminFeeValue, 45)
	})

	t.Run("driver override replaces mode and value", func(t *testing.T) {
		driver := models.Driver{
			ID:                    6,
			Type:                  constants.DRIVER_TYPE_AFFILIATE,
			AdminFeeOverrideMode:  sql.NullString{String: constants.ADMIN_FEE_MODE_FIXED, Valid: true},
			AdminFeeOverrideValue: sql.NullFloat64{Float64: 25, Valid: true},
		}
		rec, err := CalculateWeek(driver, weekAggregates(1000, 0, 0, 0), cfg, false)
		if err != nil {
			t.Fatal(err)
		}
		moneyEq(t, "adminFee", rec.AdminFeeValue, 25)
	})

	t.Run("unknown mode is an error", func(t *testing.T) {
		driver := models.Driver{
			ID:                   8,
			AdminFeeOverrideMode: sql.NullString{String: "percent_of_vibes", Valid: true},
		}
		if _, err := CalculateWeek(driver, weekAggregates(100, 0, 0, 0), cfg, false); err == nil {
			t.Error("expected error for unknown admin fee mode")
		}
	})
}

func TestCalculateWeekFinancing(t *testing.T) {
	t.Run("flat installment plus interest pct", func(t *testing.T) {
		driver := models.Driver{
			ID:                   9,
			Type:                 constants.DRIVER_TYPE_AFFILIATE,
			FinancingActive:      true,
			FinancingInstallment: 100,
			FinancingInterestPct: 2,
		}
		rec, err := CalculateWeek(driver, weekAggregates(1000, 0, 0, 0), testRunConfig(), false)
		if err != nil {
			t.Fatal(err)
		}
		moneyEq(t, "installment", rec.FinancingInstallment, 100)
		// 2% of netOfTax (940), not a flat amount.
		moneyEq(t, "interest", rec.FinancingInterest, 18.80)
	})

	t.Run("percentage installment wins over flat", func(t *testing.T) {
		driver := models.Driver{
			ID:                      10,
			FinancingActive:         true,
			FinancingInstallment:    100,
			FinancingInstallmentPct: 10,
		}
		rec, err := CalculateWeek(driver, weekAggregates(1000, 0, 0, 0), testRunConfig(), false)
		if err != nil {
			t.Fatal(err)
		}
		moneyEq(t, "installment", rec.FinancingInstallment, 94.00)
	})

	t.Run("inactive financing charges nothing", func(t *testing.T) {
		driver := models.Driver{ID: 11, FinancingInstallment: 100, FinancingInterestPct: 5}
		rec, err := CalculateWeek(driver, weekAggregates(1000, 0, 0, 0), testRunConfig(), false)
		if err != nil {
			t.Fatal(err)
		}
		if rec.FinancingInstallment != 0 || rec.FinancingInterest != 0 {
			t.Errorf("inactive financing charged %.2f + %.2f", rec.FinancingInstallment, rec.FinancingInterest)
		}
	})
}

func TestCalculateWeekRentOnlyForRenters(t *testing.T) {
	aggs := weekAggregates(500, 0, 0, 0)
	cfg := testRunConfig()

	affiliate := models.Driver{ID: 12, Type: constants.DRIVER_TYPE_AFFILIATE, RentalFee: 200}
	rec, err := CalculateWeek(affiliate, aggs, cfg, false)
	if err != nil {
		t.Fatal(err)
	}
	if rec.RentExpense != 0 {
		t.Errorf("affiliate charged rent %.2f", rec.RentExpense)
	}

	renter := models.Driver{ID: 13, Type: constants.DRIVER_TYPE_RENTER, RentalFee: 200}
	rec, err = CalculateWeek(renter, aggs, cfg, false)
	if err != nil {
		t.Fatal(err)
	}
	moneyEq(t, "rent", rec.RentExpense, 200)
}

func TestCommissionBaseSelection(t *testing.T) {
	rec := models.DriverWeeklyRecord{NetOfTax: 940, Repasse: 800}

	cfg := models.CommissionConfig{Base: constants.COMMISSION_BASE_REPASSE}
	if got := CommissionBase(rec, cfg); got != 800 {
		t.Errorf("repasse base = %.2f, want 800", got)
	}
	cfg.Base = constants.COMMISSION_BASE_NET_OF_TAX
	if got := CommissionBase(rec, cfg); got != 940 {
		t.Errorf("net_of_tax base = %.2f, want 940", got)
	}
}
