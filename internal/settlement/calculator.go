package settlement

import (
	"fmt"

	"github.com/jovjrx/frota360-demo-sub005/internal/constants"
	"github.com/jovjrx/frota360-demo-sub005/internal/models"
	"github.com/jovjrx/frota360-demo-sub005/internal/utils"
)

// ResolveAdminFeeBase maps a configured base name onto the corresponding
// intermediate quantity. Single lookup point for the four selectable bases;
// call sites never branch on the base name themselves.
func ResolveAdminFeeBase(base string, gross, tax, expenses float64) (float64, error) {
	switch base {
	case constants.ADMIN_FEE_BASE_GROSS:
		return gross, nil
	case constants.ADMIN_FEE_BASE_GROSS_MINUS_TAX:
		return gross - tax, nil
	case constants.ADMIN_FEE_BASE_GROSS_MINUS_EXPENSES:
		return gross - expenses, nil
	case constants.ADMIN_FEE_BASE_NET:
		return gross - tax - expenses, nil
	}
	return 0, fmt.Errorf("unknown admin fee base %q", base)
}

// CalculateWeek derives one driver's settlement for a week from their
// platform aggregates and the run's configuration snapshot. Pure: identical
// inputs always produce an identical record, which is what makes
// reprocessing safe.
//
// Ordering: gross -> tax -> expenses -> admin fee -> repasse. Expenses come
// before the fee because two of the four configurable fee bases subtract
// them.
func CalculateWeek(driver models.Driver, aggregates map[string]models.WeeklyPlatformAggregate, cfg RunConfig, exempt bool) (models.DriverWeeklyRecord, error) {
	grossByPlatform := make(map[string]float64, len(aggregates))
	tripsByPlatform := make(map[string]int, len(aggregates))
	for platform, agg := range aggregates {
		grossByPlatform[platform] = agg.TotalValue
		tripsByPlatform[platform] = agg.TotalTrips
	}

	// 1. Gross earnings: income platforms only; toll and fuel totals are
	// expenses, never revenue.
	gross := 0.0
	for _, platform := range constants.EarningPlatforms {
		gross += grossByPlatform[platform]
	}
	gross = utils.RoundMoney(gross)

	// 2–3. IVA and net of tax.
	tax := utils.RoundMoney(gross * cfg.Financial.TaxRatePct / 100)
	netOfTax := utils.RoundMoney(gross - tax)

	// 5 (computed early, see ordering note). Expense block.
	fuel := utils.RoundMoney(grossByPlatform[constants.PLATFORM_MYPRIO])
	tolls := utils.RoundMoney(grossByPlatform[constants.PLATFORM_VIAVERDE])

	rent := 0.0
	if driver.Type == constants.DRIVER_TYPE_RENTER {
		rent = utils.RoundMoney(driver.RentalFee)
	}

	installment, interest := 0.0, 0.0
	if driver.FinancingActive {
		if driver.FinancingInstallmentPct > 0 {
			installment = utils.RoundMoney(netOfTax * driver.FinancingInstallmentPct / 100)
		} else {
			installment = utils.RoundMoney(driver.FinancingInstallment)
		}
		// Interest is a percentage of net-of-tax, not a flat amount.
		interest = utils.RoundMoney(netOfTax * driver.FinancingInterestPct / 100)
	}

	expenseTotal := utils.RoundMoney(fuel + tolls + rent + installment + interest)

	// 4. Admin fee: the configured rule for the driver's type, with the
	// driver's optional mode/value override. The base is never overridable.
	// An active exemption zeroes the fee regardless of mode.
	rule := cfg.AdminFee.RuleFor(driver.Type)
	feeMode, feeValue := rule.Mode, rule.Value
	if driver.AdminFeeOverrideMode.Valid {
		feeMode = driver.AdminFeeOverrideMode.String
		if driver.AdminFeeOverrideValue.Valid {
			feeValue = driver.AdminFeeOverrideValue.Float64
		}
	}

	adminFee := 0.0
	if !exempt {
		switch feeMode {
		case constants.ADMIN_FEE_MODE_PERCENT:
			base, err := ResolveAdminFeeBase(rule.Base, gross, tax, expenseTotal)
			if err != nil {
				return models.DriverWeeklyRecord{}, fmt.Errorf("driver %d: %w", driver.ID, err)
			}
			adminFee = utils.RoundMoney(base * feeValue / 100)
		case constants.ADMIN_FEE_MODE_FIXED:
			adminFee = utils.RoundMoney(feeValue)
		default:
			return models.DriverWeeklyRecord{}, fmt.Errorf("driver %d: unknown admin fee mode %q", driver.ID, feeMode)
		}
	}

	// 6. Repasse.
	repasse := utils.RoundMoney(netOfTax - adminFee - expenseTotal)

	record := models.DriverWeeklyRecord{
		DriverID:             driver.ID,
		GrossEarnings:        gross,
		TaxValue:             tax,
		NetOfTax:             netOfTax,
		AdminFeeValue:        adminFee,
		AdminFeeBase:         rule.Base,
		FeeExempt:            exempt,
		FuelExpense:          fuel,
		TollExpense:          tolls,
		RentExpense:          rent,
		FinancingInstallment: installment,
		FinancingInterest:    interest,
		ExpenseTotal:         expenseTotal,
		Repasse:              repasse,
		PaymentStatus:        constants.PAYMENT_STATUS_PENDING,
		Snapshot: models.InputSnapshot{
			GrossByPlatform:         grossByPlatform,
			TripsByPlatform:         tripsByPlatform,
			TaxRatePct:              cfg.Financial.TaxRatePct,
			Fuel:                    fuel,
			Tolls:                   tolls,
			Rent:                    rent,
			FinancingActive:         driver.FinancingActive,
			FinancingInstallment:    driver.FinancingInstallment,
			FinancingInstallmentPct: driver.FinancingInstallmentPct,
			FinancingInterestPct:    driver.FinancingInterestPct,
			AdminFeeMode:            feeMode,
			AdminFeeValue:           feeValue,
			AdminFeeBase:            rule.Base,
			Exempt:                  exempt,
		},
	}
	return record, nil
}

// CommissionBase selects the quantity bonuses are computed on for one record,
// per the configured commission base.
func CommissionBase(record models.DriverWeeklyRecord, cfg models.CommissionConfig) float64 {
	if cfg.Base == constants.COMMISSION_BASE_NET_OF_TAX {
		return record.NetOfTax
	}
	return record.Repasse
}
