package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jovjrx/frota360-demo-sub005/internal/constants"
	"github.com/jovjrx/frota360-demo-sub005/internal/models"
)

// ErrSettingsNotFound is returned when a settings document does not exist.
// Callers fall back to documented defaults and log the fallback; a missing
// document never fails a run.
var ErrSettingsNotFound = fmt.Errorf("settings document not found")

func getSettingsDocument(key string, target interface{}) error {
	var valueJSON string
	err := DB.QueryRow(`SELECT value FROM settings WHERE key = $1`, key).Scan(&valueJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrSettingsNotFound
		}
		log.Printf("getSettingsDocument: failed to fetch '%s': %v", key, err)
		return err
	}
	if errUnmarshal := json.Unmarshal([]byte(valueJSON), target); errUnmarshal != nil {
		log.Printf("getSettingsDocument: malformed document '%s': %v. JSON: %s", key, errUnmarshal, valueJSON)
		return fmt.Errorf("malformed settings document '%s': %w", key, errUnmarshal)
	}
	return nil
}

func putSettingsDocument(key string, value interface{}) error {
	valueBytes, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal settings document '%s': %w", key, err)
	}
	query := `
        INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, NOW())
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	if _, err := DB.Exec(query, key, string(valueBytes)); err != nil {
		log.Printf("putSettingsDocument: failed to store '%s': %v", key, err)
		return err
	}
	log.Printf("Settings document '%s' updated.", key)
	return nil
}

// GetCommissionConfig reads the commission rules document.
func GetCommissionConfig() (models.CommissionConfig, error) {
	var cfg models.CommissionConfig
	// Levels keys arrive as JSON strings; decode through an intermediate map.
	var raw struct {
		MinWeeklyRevenue float64            `json:"min_weekly_revenue"`
		Base             string             `json:"base"`
		MaxLevels        int                `json:"max_levels"`
		Levels           map[string]float64 `json:"levels"`
	}
	if err := getSettingsDocument(constants.SETTINGS_KEY_COMMISSION, &raw); err != nil {
		return cfg, err
	}
	cfg.MinWeeklyRevenue = raw.MinWeeklyRevenue
	cfg.Base = raw.Base
	cfg.MaxLevels = raw.MaxLevels
	cfg.Levels = make(map[int]float64, len(raw.Levels))
	for levelStr, rate := range raw.Levels {
		var level int
		if _, err := fmt.Sscanf(levelStr, "%d", &level); err != nil {
			return cfg, fmt.Errorf("malformed commission level key '%s'", levelStr)
		}
		cfg.Levels[level] = rate
	}
	return cfg, nil
}

// UpdateCommissionConfig stores the commission rules document.
func UpdateCommissionConfig(cfg models.CommissionConfig) error {
	raw := struct {
		MinWeeklyRevenue float64            `json:"min_weekly_revenue"`
		Base             string             `json:"base"`
		MaxLevels        int                `json:"max_levels"`
		Levels           map[string]float64 `json:"levels"`
	}{
		MinWeeklyRevenue: cfg.MinWeeklyRevenue,
		Base:             cfg.Base,
		MaxLevels:        cfg.MaxLevels,
		Levels:           make(map[string]float64, len(cfg.Levels)),
	}
	for level, rate := range cfg.Levels {
		raw.Levels[fmt.Sprintf("%d", level)] = rate
	}
	return putSettingsDocument(constants.SETTINGS_KEY_COMMISSION, raw)
}

// GetAdminFeeConfig reads the admin fee rules document.
func GetAdminFeeConfig() (models.AdminFeeConfig, error) {
	var cfg models.AdminFeeConfig
	err := getSettingsDocument(constants.SETTINGS_KEY_ADMIN_FEE, &cfg)
	return cfg, err
}

// UpdateAdminFeeConfig stores the admin fee rules document.
func UpdateAdminFeeConfig(cfg models.AdminFeeConfig) error {
	return putSettingsDocument(constants.SETTINGS_KEY_ADMIN_FEE, cfg)
}

// GetFinancialConfig reads the financial policy document.
func GetFinancialConfig() (models.FinancialConfig, error) {
	var cfg models.FinancialConfig
	err := getSettingsDocument(constants.SETTINGS_KEY_FINANCIAL, &cfg)
	return cfg, err
}

// UpdateFinancialConfig stores the financial policy document.
func UpdateFinancialConfig(cfg models.FinancialConfig) error {
	return putSettingsDocument(constants.SETTINGS_KEY_FINANCIAL, cfg)
}
