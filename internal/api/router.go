package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/jovjrx/frota360-demo-sub005/internal/config"
	"github.com/jovjrx/frota360-demo-sub005/internal/notify"
	"github.com/jovjrx/frota360-demo-sub005/internal/settlement"
)

// ApiDependencies holds the dependencies the API handlers operate on.
type ApiDependencies struct {
	Config *config.Config
	Engine *settlement.Engine
	Mailer *notify.Mailer
}

// SetupRoutes mounts all API routes. Everything under /api/admin requires the
// X-Api-Key header.
func SetupRoutes(r *chi.Mux, deps ApiDependencies) {
	h := &Handlers{deps: deps}

	r.Get("/api/health", h.Health)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(deps.Config.AdminAPIKey))

		r.Route("/api/admin", func(r chi.Router) {
			// Settlement runs.
			r.Post("/settlement/run", h.RunSettlement)
			r.Post("/settlement/reprocess", h.ReprocessSettlement)

			// Week reports.
			r.Get("/settlement/{weekID}", h.GetWeekReport)
			r.Get("/settlement/{weekID}/unmapped", h.GetUnmappedRows)
			r.Get("/settlement/{weekID}/export", h.ExportWeekExcel)
			r.Post("/settlement/{weekID}/notify-drivers", h.NotifyDrivers)

			// Payment lifecycle.
			r.Post("/record/{id}/mark-paid", h.MarkRecordPaid)
			r.Post("/record/{id}/proof", h.AttachPaymentProof)

			// Driver administration.
			r.Post("/driver/{id}/exemption", h.SetExemption)
			r.Delete("/driver/{id}/exemption", h.ClearExemption)
			r.Get("/driver/{id}/referral-qr", h.ReferralQRCode)

			// Business configuration.
			r.Get("/config/commission", h.GetCommissionConfig)
			r.Put("/config/commission", h.UpdateCommissionConfig)
			r.Get("/config/admin-fee", h.GetAdminFeeConfig)
			r.Put("/config/admin-fee", h.UpdateAdminFeeConfig)
			r.Get("/config/financial", h.GetFinancialConfig)
			r.Put("/config/financial", h.UpdateFinancialConfig)
		})
	})
}
