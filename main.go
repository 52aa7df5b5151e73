package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/jovjrx/frota360-demo-sub005/internal/api"
	"github.com/jovjrx/frota360-demo-sub005/internal/config"
	"github.com/jovjrx/frota360-demo-sub005/internal/db"
	"github.com/jovjrx/frota360-demo-sub005/internal/notify"
	"github.com/jovjrx/frota360-demo-sub005/internal/settlement"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: could not load .env file. Environment variables must be set another way.")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Critical: failed to load configuration: %v", err)
	}

	if err := db.InitDB(); err != nil {
		log.Fatalf("Critical: failed to initialize database: %v", err)
	}
	defer db.CloseDB()

	// Telegram ops notifications are optional; the engine runs without them.
	var notifier settlement.Notifier
	if cfg.TelegramToken != "" && cfg.OpsChatID != 0 {
		botClient, errBot := notify.NewBotClient(cfg.TelegramToken, cfg.AppEnv == "dev")
		if errBot != nil {
			log.Printf("Warning: Telegram init failed: %v. Ops notifications disabled.", errBot)
		} else {
			notifier = &notify.OpsNotifier{Client: botClient, ChatID: cfg.OpsChatID}
		}
	}

	var mailer *notify.Mailer
	if cfg.SMTPHost != "" {
		mailer = &notify.Mailer{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.MailFrom,
		}
	}

	engine := &settlement.Engine{
		Drivers:    db.DriverStore{},
		Settings:   settlement.DBSettingsStore{},
		Aggregates: db.AggregateStore{},
		Writer: &settlement.Writer{
			Records: db.RecordStore{},
			Bonuses: db.BonusStore{},
		},
		Notifier: notifier,
	}

	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Api-Key"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	api.SetupRoutes(router, api.ApiDependencies{
		Config: cfg,
		Engine: engine,
		Mailer: mailer,
	})

	log.Printf("Starting settlement API on port %s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatalf("Critical: HTTP server failed: %v", err)
	}
}
