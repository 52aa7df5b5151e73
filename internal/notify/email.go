package notify

import (
	"fmt"
	"log"

	"gopkg.in/gomail.v2"

	"github.com/jovjrx/frota360-demo-sub005/internal/models"
	"github.com/jovjrx/frota360-demo-sub005/internal/utils"
)

// Mailer sends driver-facing e-mails over SMTP.
type Mailer struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// SendWeeklyStatement mails a driver their settled week. Drivers without an
// e-mail on file are skipped silently.
func (m *Mailer) SendWeeklyStatement(driver models.Driver, rec models.DriverWeeklyRecord) error {
	if !driver.Email.Valid || driver.Email.String == "" {
		return nil
	}

	subject := fmt.Sprintf("Weekly statement %s", rec.WeekID)
	body := fmt.Sprintf(
		"Hello %s,\n\n"+
			"Your settlement for week %s is ready.\n\n"+
			"Gross earnings: %s\n"+
			"Tax: %s\n"+
			"Admin fee: %s\n"+
			"Expenses (fuel, tolls, rent, financing): %s\n"+
			"Amount to receive: %s\n",
		driver.Name, rec.WeekID,
		utils.FormatMoney(rec.GrossEarnings),
		utils.FormatMoney(rec.TaxValue),
		utils.FormatMoney(rec.AdminFeeValue),
		utils.FormatMoney(rec.ExpenseTotal),
		utils.FormatMoney(rec.Repasse),
	)
	if rec.BonusTotal > 0 {
		body += fmt.Sprintf("Referral bonus: %s\n", utils.FormatMoney(rec.BonusTotal))
	}
	body += "\nBest regards,\nFrota360"

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", driver.Email.String)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	d := gomail.NewDialer(m.Host, m.Port, m.User, m.Pass)
	if err := d.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send statement to %s: %w", driver.Email.String, err)
	}
	return nil
}

// SendWeekStatements mails every settled driver of a week. Best effort per
// driver; the count of failures is returned for the run report.
func (m *Mailer) SendWeekStatements(drivers map[int64]models.Driver, records []models.DriverWeeklyRecord) int {
	failed := 0
	for _, rec := range records {
		driver, ok := drivers[rec.DriverID]
		if !ok {
			continue
		}
		if err := m.SendWeeklyStatement(driver, rec); err != nil {
			log.Printf("SendWeekStatements: driver %d: %v", rec.DriverID, err)
			failed++
		}
	}
	return failed
}
