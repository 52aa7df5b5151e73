package settlement

import (
	"time"

	"github.com/jovjrx/frota360-demo-sub005/internal/db"
	"github.com/jovjrx/frota360-demo-sub005/internal/models"
)

// IsExemptAt reports whether the driver's admin-fee exemption window covers
// checkDate. The window is [start, start + weeks*7d): a 2-week exemption
// starting 2025-01-06 covers checks through 2025-01-19 and not 2025-01-20.
func IsExemptAt(driver models.Driver, checkDate time.Time) bool {
	if !driver.IsExempt || !driver.ExemptionStart.Valid || driver.ExemptionWeeks <= 0 {
		return false
	}
	start := truncateToDay(driver.ExemptionStart.Time)
	end := start.AddDate(0, 0, driver.ExemptionWeeks*7)
	check := truncateToDay(checkDate)
	return !check.Before(start) && check.Before(end)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ExemptionRegistry answers exemption queries for the settlement run and
// forwards admin-initiated mutations. The engine itself only reads; all
// mutations come from admin actions through the API.
type ExemptionRegistry struct{}

// IsExempt reports whether the driver is inside an active exemption window
// on checkDate.
func (ExemptionRegistry) IsExempt(driverID int64, checkDate time.Time) (bool, error) {
	driver, err := db.GetDriverByID(driverID)
	if err != nil {
		return false, err
	}
	return IsExemptAt(driver, checkDate), nil
}

// SetExemption opens an exemption window of the given length starting today.
// weeks == 0 is equivalent to clearing.
func (ExemptionRegistry) SetExemption(driverID int64, weeks int, reason string, actorID int64) error {
	return db.SetDriverExemption(driverID, weeks, reason, actorID)
}

// ClearExemption closes the driver's exemption window.
func (ExemptionRegistry) ClearExemption(driverID int64) error {
	return db.ClearDriverExemption(driverID)
}
