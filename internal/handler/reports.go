package handler

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/atmfleet/api/internal/commission"
	"github.com/atmfleet/api/internal/database"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// ReportsStore defines the database methods needed by report handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ReportsStore interface {
	GetFleetMonthlySummary(ctx context.Context, arg database.GetFleetMonthlySummaryParams) ([]database.GetFleetMonthlySummaryRow, error)
	GetMonthlyTrend(ctx context.Context, arg database.GetMonthlyTrendParams) ([]database.GetMonthlyTrendRow, error)
}

// ReportsHandler handles report endpoints.
type ReportsHandler struct {
	store ReportsStore
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(store ReportsStore) *ReportsHandler {
	return &ReportsHandler{store: store}
}

// RegisterRoutes registers report endpoints on the given Chi router.
// Expected to be mounted at /reports
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/fleet-summary", h.FleetSummary)
	r.Get("/monthly-trend", h.MonthlyTrend)
}

// --- Response types ---

type fleetSummaryResponse struct {
	TerminalCode     string `json:"terminal_code"`
	TransactionCount int64  `json:"transaction_count"`
	TotalSales       string `json:"total_sales"`
	TotalFees        string `json:"total_fees"`
	TotalBitstopFees string `json:"total_bitstop_fees"`
}

type monthlyTrendResponse struct {
	Month            string `json:"month"`
	TransactionCount int64  `json:"transaction_count"`
	TotalSales       string `json:"total_sales"`
	TotalFees        string `json:"total_fees"`
}

// --- Handlers ---

// FleetSummary returns per-terminal totals for a month.
// GET /reports/fleet-summary?month=&year=
func (h *ReportsHandler) FleetSummary(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriodParams(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := h.store.GetFleetMonthlySummary(r.Context(), database.GetFleetMonthlySummaryParams{
		StartDate: pgtype.Date{Time: period.Start(), Valid: true},
		EndDate:   pgtype.Date{Time: period.End(), Valid: true},
	})
	if err != nil {
		log.Printf("ERROR: get fleet summary for %s: %v", period, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]fleetSummaryResponse, len(rows))
	for i, row := range rows {
		resp[i] = fleetSummaryResponse{
			TerminalCode:     row.TerminalCode,
			TransactionCount: row.TransactionCount,
			TotalSales:       row.TotalSales,
			TotalFees:        row.TotalFees,
			TotalBitstopFees: row.TotalBitstopFees,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// MonthlyTrend returns fleet-wide per-month totals.
// GET /reports/monthly-trend?months=12 (ending with the current month)
func (h *ReportsHandler) MonthlyTrend(w http.ResponseWriter, r *http.Request) {
	months := 12
	if s := r.URL.Query().Get("months"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid months"})
			return
		}
		months = v
	}
	if months > 60 {
		months = 60
	}

	now := time.Now().UTC()
	end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1)
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)

	rows, err := h.store.GetMonthlyTrend(r.Context(), database.GetMonthlyTrendParams{
		StartDate: pgtype.Date{Time: start, Valid: true},
		EndDate:   pgtype.Date{Time: end, Valid: true},
	})
	if err != nil {
		log.Printf("ERROR: get monthly trend: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]monthlyTrendResponse, len(rows))
	for i, row := range rows {
		month := ""
		if row.Month.Valid {
			month = row.Month.Time.Format("2006-01")
		}
		resp[i] = monthlyTrendResponse{
			Month:            month,
			TransactionCount: row.TransactionCount,
			TotalSales:       row.TotalSales,
			TotalFees:        row.TotalFees,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

// parsePeriodParams reads month and year query params.
func parsePeriodParams(r *http.Request) (commission.Period, error) {
	month := r.URL.Query().Get("month")
	yearStr := r.URL.Query().Get("year")
	if month == "" || yearStr == "" {
		return commission.Period{}, fmt.Errorf("month and year are required")
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return commission.Period{}, fmt.Errorf("invalid year")
	}
	return commission.ParsePeriod(month, year)
}
