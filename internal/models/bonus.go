package models

import "time"

// BonusDetail is one credited level of an indicator's weekly bonus.
type BonusDetail struct {
	Level            int     `json:"level"`
	ReferredDriverID int64   `json:"referred_driver_id"`
	Amount           float64 `json:"amount"`
	Base             float64 `json:"base"` // the downline's weekly base the rate was applied to
}

// AffiliateBonus aggregates one indicator's multi-level bonuses for one week.
// Written whole per run; re-running a week overwrites rather than accumulates.
type AffiliateBonus struct {
	ID          int64         `json:"id"`
	IndicatorID int64         `json:"indicator_id"`
	WeekID      string        `json:"week_id"`
	Total       float64       `json:"total"`
	Details     []BonusDetail `json:"details"`
	PaidOut     bool          `json:"paid_out"`
	CreatedAt   time.Time     `json:"created_at"`
}
