package config

import (
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Config holds all process-level configuration. Business configuration
// (commission rules, admin fee rules, financial policy) lives in the settings
// table and is snapshotted per settlement run, not here.
type Config struct {
	DatabaseURL string
	AppEnv      string
	Port        string

	// Shared secret for the admin API (X-Api-Key header).
	AdminAPIKey string

	// Telegram ops notifications.
	TelegramToken string
	OpsChatID     int64

	// SMTP for driver "settlement ready" mails.
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string

	// Public registration page used for referral invite links.
	ReferralBaseURL string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
}

// LoadConfig reads configuration from environment variables. Missing optional
// values are logged and defaulted; only the database URL is truly required,
// and even that is validated later by db.InitDB.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		AppEnv:          os.Getenv("ENV"),
		Port:            os.Getenv("PORT"),
		AdminAPIKey:     os.Getenv("ADMIN_API_KEY"),
		TelegramToken:   os.Getenv("TELEGRAM_APITOKEN"),
		SMTPHost:        os.Getenv("SMTP_HOST"),
		SMTPUser:        os.Getenv("SMTP_USER"),
		SMTPPass:        os.Getenv("SMTP_PASS"),
		MailFrom:        os.Getenv("MAIL_FROM"),
		ReferralBaseURL: os.Getenv("REFERRAL_BASE_URL"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	var err error
	cfg.OpsChatID, err = strconv.ParseInt(os.Getenv("OPS_CHAT_ID"), 10, 64)
	if err != nil {
		log.Printf("Warning: could not read OPS_CHAT_ID: %v. Telegram ops notifications disabled.", err)
		cfg.OpsChatID = 0
	}

	cfg.SMTPPort = 587
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		port, errParse := strconv.Atoi(portStr)
		if errParse != nil {
			log.Printf("Warning: invalid SMTP_PORT ('%s'): %v. Using 587.", portStr, errParse)
		} else {
			cfg.SMTPPort = port
		}
	}

	if cfg.MailFrom == "" {
		cfg.MailFrom = cfg.SMTPUser
	}

	if cfg.AdminAPIKey == "" {
		log.Println("Warning: ADMIN_API_KEY not set. Admin API requests will be rejected.")
	}
	if cfg.TelegramToken == "" {
		log.Println("Warning: TELEGRAM_APITOKEN not set. Telegram ops notifications disabled.")
	}
	if cfg.SMTPHost == "" {
		log.Println("Warning: SMTP_HOST not set. Driver e-mail notifications disabled.")
	}
	if cfg.ReferralBaseURL == "" {
		log.Println("Warning: REFERRAL_BASE_URL not set. Referral invite links disabled.")
	}

	if cfg.DatabaseURL == "" {
		log.Println("Critical: DATABASE_URL not set.")
	} else {
		parsedURL, parseErr := url.Parse(cfg.DatabaseURL)
		if parseErr != nil {
			log.Printf("Critical: failed to parse DATABASE_URL: %v", parseErr)
		} else {
			cfg.DBHost = parsedURL.Hostname()
			cfg.DBPort = parsedURL.Port()
			if cfg.DBPort == "" {
				cfg.DBPort = "5432"
			}
			cfg.DBUser = parsedURL.User.Username()
			cfg.DBPassword, _ = parsedURL.User.Password()
			cfg.DBName = strings.TrimPrefix(parsedURL.Path, "/")
		}
	}

	log.Println("Configuration loaded.")
	return cfg, nil
}
