package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jovjrx/frota360-demo-sub005/internal/constants"
	"github.com/jovjrx/frota360-demo-sub005/internal/db"
	"github.com/jovjrx/frota360-demo-sub005/internal/importer"
	"github.com/jovjrx/frota360-demo-sub005/internal/models"
	"github.com/jovjrx/frota360-demo-sub005/internal/settlement"
	"github.com/jovjrx/frota360-demo-sub005/internal/utils"
)

// Handlers carries the API dependencies into the route handlers.
type Handlers struct {
	deps ApiDependencies
}

// Exemption windows are admin-initiated; the engine only reads them.
var exemptions settlement.ExemptionRegistry

// jsonResponse is the standard API envelope.
type jsonResponse struct {
	Status  string      `json:"status"` // "success" or "error"
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(jsonResponse{Status: "error", Message: message})
}

func writeJSONSuccess(w http.ResponseWriter, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(jsonResponse{Status: "success", Message: message, Data: data})
}

func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

// Health is the unauthenticated liveness probe.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSONSuccess(w, "ok", nil)
}

// RunSettlement runs a full weekly settlement. Multipart form: week_id,
// optional failure_mode, and one xlsx file field per platform (uber, bolt,
// viaverde, myprio). Platforms without a file are simply absent that week.
func (h *Handlers) RunSettlement(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}

	weekID := r.FormValue("week_id")
	if _, _, err := utils.ParseWeekID(weekID); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	mode := r.FormValue("failure_mode")
	if mode == "" {
		mode = constants.FAILURE_MODE_ABORT
	}

	var rows []models.RawPlatformRow
	filesSeen := 0
	for _, platform := range constants.AllPlatforms {
		file, header, err := r.FormFile(platform)
		if err != nil {
			continue // platform not uploaded this week
		}
		platformRows, errParse := importer.ParsePlatformExport(platform, file)
		file.Close()
		if errParse != nil {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("File %s: %v", header.Filename, errParse))
			return
		}
		rows = append(rows, platformRows...)
		filesSeen++
	}
	if filesSeen == 0 {
		writeJSONError(w, http.StatusBadRequest, "No platform files uploaded")
		return
	}

	summary := h.deps.Engine.RunWeek(weekID, rows, mode)
	if !summary.Success && summary.DriversProcessed == 0 {
		writeJSONError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Settlement run failed: %v", summary.Errors))
		return
	}
	writeJSONSuccess(w, "Settlement run completed", summary)
}

// ReprocessRequest is the body of POST /settlement/reprocess.
type ReprocessRequest struct {
	WeekID      string   `json:"week_id"`
	AdminFeePct *float64 `json:"admin_fee_pct,omitempty"`
}

// ReprocessSettlement re-derives an already-settled week from its stored
// snapshots, optionally with a new admin fee percentage.
func (h *Handlers) ReprocessSettlement(w http.ResponseWriter, r *http.Request) {
	var req ReprocessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}
	if _, _, err := utils.ParseWeekID(req.WeekID); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.AdminFeePct != nil && (*req.AdminFeePct < 0 || *req.AdminFeePct >= 100) {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Admin fee percentage %.2f out of range", *req.AdminFeePct))
		return
	}

	summary := h.deps.Engine.Reprocess(req.WeekID, req.AdminFeePct)
	writeJSONSuccess(w, "Reprocessing completed", summary)
}

// WeekReportResponse bundles a week's records and bonus payouts.
type WeekReportResponse struct {
	WeekID  string                              `json:"week_id"`
	Records []models.DriverWeeklyRecordWithName `json:"records"`
	Bonuses []models.AffiliateBonus             `json:"bonuses"`
}

// GetWeekReport returns all settled records of a week with driver names,
// plus the week's bonus payouts.
func (h *Handlers) GetWeekReport(w http.ResponseWriter, r *http.Request) {
	weekID := chi.URLParam(r, "weekID")
	if _, _, err := utils.ParseWeekID(weekID); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := db.GetWeekRecordsWithNames(weekID)
	if err != nil {
		log.Printf("GetWeekReport: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to load week records")
		return
	}
	bonuses, err := db.GetWeekBonuses(weekID)
	if err != nil {
		log.Printf("GetWeekReport: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to load week bonuses")
		return
	}
	writeJSONSuccess(w, "Week report", WeekReportResponse{WeekID: weekID, Records: records, Bonuses: bonuses})
}

// GetUnmappedRows returns the imported rows that resolved to no driver.
func (h *Handlers) GetUnmappedRows(w http.ResponseWriter, r *http.Request) {
	weekID := chi.URLParam(r, "weekID")
	if _, _, err := utils.ParseWeekID(weekID); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	rows, err := db.GetUnmappedRows(weekID)
	if err != nil {
		log.Printf("GetUnmappedRows: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to load unmapped rows")
		return
	}
	writeJSONSuccess(w, "Unmapped rows", rows)
}

// NotifyDrivers mails every settled driver of the week their statement.
func (h *Handlers) NotifyDrivers(w http.ResponseWriter, r *http.Request) {
	weekID := chi.URLParam(r, "weekID")
	if _, _, err := utils.ParseWeekID(weekID); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if h.deps.Mailer == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "SMTP not configured")
		return
	}

	records, err := db.GetWeekRecords(weekID)
	if err != nil {
		log.Printf("NotifyDrivers: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to load week records")
		return
	}
	drivers, err := db.GetActiveDrivers()
	if err != nil {
		log.Printf("NotifyDrivers: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to load drivers")
		return
	}
	index := make(map[int64]models.Driver, len(drivers))
	for _, d := range drivers {
		index[d.ID] = d
	}

	failed := h.deps.Mailer.SendWeekStatements(index, records)
	writeJSONSuccess(w, "Statements sent", map[string]int{"sent": len(records) - failed, "failed": failed})
}

// MarkRecordPaid marks one settled record as paid. Idempotent.
func (h *Handlers) MarkRecordPaid(w http.ResponseWriter, r *http.Request) {
	recordID, err := idParam(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := db.MarkRecordPaid(recordID); err != nil {
		log.Printf("MarkRecordPaid: record %d: %v", recordID, err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to mark record paid")
		return
	}
	writeJSONSuccess(w, "Record marked paid", nil)
}

// ProofRequest is the body of POST /record/{id}/proof.
type ProofRequest struct {
	ProofURL string `json:"proof_url"`
	FileName string `json:"file_name"`
}

// AttachPaymentProof attaches a transfer proof to a record. The proof fields
// survive reprocessing untouched.
func (h *Handlers) AttachPaymentProof(w http.ResponseWriter, r *http.Request) {
	recordID, err := idParam(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req ProofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}
	if req.ProofURL == "" {
		writeJSONError(w, http.StatusBadRequest, "proof_url is required")
		return
	}
	if err := db.AttachPaymentProof(recordID, req.ProofURL, req.FileName); err != nil {
		log.Printf("AttachPaymentProof: record %d: %v", recordID, err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to attach payment proof")
		return
	}
	writeJSONSuccess(w, "Payment proof attached", nil)
}

// ExemptionRequest is the body of POST /driver/{id}/exemption.
type ExemptionRequest struct {
	Weeks   int    `json:"weeks"`
	Reason  string `json:"reason"`
	ActorID int64  `json:"actor_id"`
}

// SetExemption opens an admin-fee exemption window for a driver starting now.
// Zero weeks clears any active window.
func (h *Handlers) SetExemption(w http.ResponseWriter, r *http.Request) {
	driverID, err := idParam(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req ExemptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}
	if req.Weeks < 0 {
		writeJSONError(w, http.StatusBadRequest, "weeks must not be negative")
		return
	}
	if err := exemptions.SetExemption(driverID, req.Weeks, req.Reason, req.ActorID); err != nil {
		log.Printf("SetExemption: driver %d: %v", driverID, err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to set exemption")
		return
	}
	writeJSONSuccess(w, "Exemption updated", nil)
}

// ClearExemption ends a driver's exemption window immediately.
func (h *Handlers) ClearExemption(w http.ResponseWriter, r *http.Request) {
	driverID, err := idParam(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := exemptions.ClearExemption(driverID); err != nil {
		log.Printf("ClearExemption: driver %d: %v", driverID, err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to clear exemption")
		return
	}
	writeJSONSuccess(w, "Exemption cleared", nil)
}

// ReferralQRCode serves a PNG QR code of the driver's referral invite link.
func (h *Handlers) ReferralQRCode(w http.ResponseWriter, r *http.Request) {
	driverID, err := idParam(r, "id")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if h.deps.Config.ReferralBaseURL == "" {
		writeJSONError(w, http.StatusServiceUnavailable, "Referral links not configured")
		return
	}
	if _, err := db.GetDriverByID(driverID); err != nil {
		writeJSONError(w, http.StatusNotFound, "Driver not found")
		return
	}

	png, err := utils.GenerateReferralQRCode(h.deps.Config.ReferralBaseURL, driverID)
	if err != nil {
		log.Printf("ReferralQRCode: driver %d: %v", driverID, err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to generate QR code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// --- Business configuration ---

func (h *Handlers) GetCommissionConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := db.GetCommissionConfig()
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "Commission config not set")
		return
	}
	writeJSONSuccess(w, "Commission config", cfg)
}

func (h *Handlers) UpdateCommissionConfig(w http.ResponseWriter, r *http.Request) {
	var cfg models.CommissionConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}
	if cfg.Base != constants.COMMISSION_BASE_REPASSE && cfg.Base != constants.COMMISSION_BASE_NET_OF_TAX {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Unknown commission base %q", cfg.Base))
		return
	}
	if err := db.UpdateCommissionConfig(cfg); err != nil {
		log.Printf("UpdateCommissionConfig: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to update commission config")
		return
	}
	writeJSONSuccess(w, "Commission config updated", cfg)
}

func (h *Handlers) GetAdminFeeConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := db.GetAdminFeeConfig()
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "Admin fee config not set")
		return
	}
	writeJSONSuccess(w, "Admin fee config", cfg)
}

func (h *Handlers) UpdateAdminFeeConfig(w http.ResponseWriter, r *http.Request) {
	var cfg models.AdminFeeConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}
	if err := db.UpdateAdminFeeConfig(cfg); err != nil {
		log.Printf("UpdateAdminFeeConfig: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to update admin fee config")
		return
	}
	writeJSONSuccess(w, "Admin fee config updated", cfg)
}

func (h *Handlers) GetFinancialConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := db.GetFinancialConfig()
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "Financial config not set")
		return
	}
	writeJSONSuccess(w, "Financial config", cfg)
}

func (h *Handlers) UpdateFinancialConfig(w http.ResponseWriter, r *http.Request) {
	var cfg models.FinancialConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return
	}
	if cfg.TaxRatePct < 0 || cfg.TaxRatePct >= 100 {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Tax rate %.2f out of range", cfg.TaxRatePct))
		return
	}
	if err := db.UpdateFinancialConfig(cfg); err != nil {
		log.Printf("UpdateFinancialConfig: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to update financial config")
		return
	}
	writeJSONSuccess(w, "Financial config updated", cfg)
}
