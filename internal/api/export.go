package api

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"

	"github.com/jovjrx/frota360-demo-sub005/internal/db"
	"github.com/jovjrx/frota360-demo-sub005/internal/utils"
)

// ExportWeekExcel generates and streams an xlsx report of a settled week:
// one row per driver record, a second sheet with the bonus payouts.
func (h *Handlers) ExportWeekExcel(w http.ResponseWriter, r *http.Request) {
	weekID := chi.URLParam(r, "weekID")
	if _, _, err := utils.ParseWeekID(weekID); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := db.GetWeekRecordsWithNames(weekID)
	if err != nil {
		log.Printf("ExportWeekExcel: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to load week records")
		return
	}
	if len(records) == 0 {
		writeJSONError(w, http.StatusNotFound, "No settled records for week "+weekID)
		return
	}
	bonuses, err := db.GetWeekBonuses(weekID)
	if err != nil {
		log.Printf("ExportWeekExcel: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to load week bonuses")
		return
	}

	f := excelize.NewFile()
	sheetName := "Settlement"
	index, _ := f.NewSheet(sheetName)
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headers := []string{"Driver ID", "Driver", "Gross", "Tax", "Net of Tax", "Admin Fee", "Fuel", "Tolls", "Rent", "Financing", "Interest", "Expenses Total", "Repasse", "Bonus", "Status"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	rowIndex := 2
	for _, rec := range records {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", rowIndex), rec.DriverID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", rowIndex), rec.DriverName)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", rowIndex), rec.GrossEarnings)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", rowIndex), rec.TaxValue)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", rowIndex), rec.NetOfTax)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", rowIndex), rec.AdminFeeValue)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", rowIndex), rec.FuelExpense)
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", rowIndex), rec.TollExpense)
		f.SetCellValue(sheetName, fmt.Sprintf("I%d", rowIndex), rec.RentExpense)
		f.SetCellValue(sheetName, fmt.Sprintf("J%d", rowIndex), rec.FinancingInstallment)
		f.SetCellValue(sheetName, fmt.Sprintf("K%d", rowIndex), rec.FinancingInterest)
		f.SetCellValue(sheetName, fmt.Sprintf("L%d", rowIndex), rec.ExpenseTotal)
		f.SetCellValue(sheetName, fmt.Sprintf("M%d", rowIndex), rec.Repasse)
		f.SetCellValue(sheetName, fmt.Sprintf("N%d", rowIndex), rec.BonusTotal)
		f.SetCellValue(sheetName, fmt.Sprintf("O%d", rowIndex), rec.PaymentStatus)
		rowIndex++
	}

	bonusSheet := "Bonuses"
	f.NewSheet(bonusSheet)
	bonusHeaders := []string{"Indicator ID", "Level", "Referred Driver", "Base", "Amount"}
	for i, header := range bonusHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(bonusSheet, cell, header)
	}
	rowIndex = 2
	for _, bonus := range bonuses {
		for _, detail := range bonus.Details {
			f.SetCellValue(bonusSheet, fmt.Sprintf("A%d", rowIndex), bonus.IndicatorID)
			f.SetCellValue(bonusSheet, fmt.Sprintf("B%d", rowIndex), detail.Level)
			f.SetCellValue(bonusSheet, fmt.Sprintf("C%d", rowIndex), detail.ReferredDriverID)
			f.SetCellValue(bonusSheet, fmt.Sprintf("D%d", rowIndex), detail.Base)
			f.SetCellValue(bonusSheet, fmt.Sprintf("E%d", rowIndex), detail.Amount)
			rowIndex++
		}
	}

	fileName := fmt.Sprintf("settlement_%s.xlsx", weekID)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	if err := f.Write(w); err != nil {
		log.Printf("ExportWeekExcel: writing response: %v", err)
	}
}
