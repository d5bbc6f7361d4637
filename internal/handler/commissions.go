package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/atmfleet/api/internal/commission"
	"github.com/atmfleet/api/internal/database"
	"github.com/atmfleet/api/internal/service"
	"github.com/atmfleet/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// CommissionCalculator defines the service methods needed by commission handlers.
// Satisfied by *service.CommissionService; narrow interface for testability.
type CommissionCalculator interface {
	Calculate(ctx context.Context, period commission.Period) (*service.CalculateResult, error)
}

// CommissionStore defines the database methods needed by commission read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type CommissionStore interface {
	ListCommissionSummariesByMonth(ctx context.Context, monthYear pgtype.Date) ([]database.ListCommissionSummariesByMonthRow, error)
	GetCommissionSummary(ctx context.Context, id uuid.UUID) (database.CommissionSummary, error)
	ListCommissionDetailsBySummary(ctx context.Context, summaryID uuid.UUID) ([]database.CommissionDetail, error)
}

// Notifier publishes events to connected dashboard clients.
// Satisfied by *ws.Hub.
type Notifier interface {
	Broadcast(eventType string, payload interface{})
}

// CommissionHandler handles commission endpoints.
type CommissionHandler struct {
	svc      CommissionCalculator
	store    CommissionStore
	notifier Notifier
}

// NewCommissionHandler creates a new CommissionHandler.
func NewCommissionHandler(svc CommissionCalculator, store CommissionStore, notifier Notifier) *CommissionHandler {
	return &CommissionHandler{svc: svc, store: store, notifier: notifier}
}

// RegisterRoutes registers commission endpoints on the given Chi router.
// Expected to be mounted at /commissions
func (h *CommissionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/calculate", h.Calculate)
	r.Get("/", h.List)
	r.Get("/{id}/details", h.Details)
}

// --- Request / Response types ---

type calculateRequest struct {
	Month string `json:"month"`
	Year  int    `json:"year"`
}

type calculateResponse struct {
	Success            bool                 `json:"success"`
	Message            string               `json:"message"`
	CommissionsCreated int                  `json:"commissions_created"`
	Details            []summaryResponse    `json:"details"`
	Debug              calculateDebugResult `json:"debug"`
}

type calculateDebugResult struct {
	TransactionCount    int `json:"transaction_count"`
	ProfileCount        int `json:"profile_count"`
	RepresentativeCount int `json:"representative_count"`
	MachineCount        int `json:"machine_count"`
}

type summaryResponse struct {
	ID                 uuid.UUID        `json:"id"`
	RepresentativeID   uuid.UUID        `json:"representative_id"`
	RepresentativeName string           `json:"representative_name,omitempty"`
	Month              string           `json:"month"`
	AtmCount           int32            `json:"atm_count"`
	TotalSales         string           `json:"total_sales"`
	TotalFees          string           `json:"total_fees"`
	TotalBitstopFees   string           `json:"total_bitstop_fees"`
	TotalRent          string           `json:"total_rent"`
	TotalCashMgmtFee   string           `json:"total_cash_mgmt_fee"`
	TotalNetProfit     string           `json:"total_net_profit"`
	CommissionAmount   string           `json:"commission_amount"`
	FlatFeeAmount      string           `json:"flat_fee_amount"`
	TotalCommission    string           `json:"total_commission"`
	Machines           []detailResponse `json:"machines,omitempty"`
}

type detailResponse struct {
	ID               uuid.UUID `json:"id"`
	TerminalCode     string    `json:"terminal_code"`
	LocationName     string    `json:"location_name"`
	TotalSales       string    `json:"total_sales"`
	TotalFees        string    `json:"total_fees"`
	TotalBitstopFees string    `json:"total_bitstop_fees"`
	Rent             string    `json:"rent"`
	CashMgmtFeeRps   string    `json:"cash_mgmt_fee_rps"`
	CashMgmtFeeRep   string    `json:"cash_mgmt_fee_rep"`
	NetProfit        string    `json:"net_profit"`
	CommissionAmount string    `json:"commission_amount"`
}

// --- Handlers ---

// Calculate handles POST /commissions/calculate.
// Runs the monthly calculation and persists one summary per representative.
func (h *CommissionHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Month == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "month is required"})
		return
	}
	if req.Year == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "year is required"})
		return
	}

	period, err := commission.ParsePeriod(req.Month, req.Year)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := h.svc.Calculate(r.Context(), period)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoTransactions), errors.Is(err, service.ErrNoRepresentatives):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: calculate commissions for %s: %v", period, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	details := make([]summaryResponse, len(result.Commissions))
	for i, c := range result.Commissions {
		details[i] = toSummaryResponse(c.Summary, c.RepresentativeName, c.Details)
	}

	if h.notifier != nil {
		h.notifier.Broadcast(ws.EventCommissionCompleted, map[string]interface{}{
			"month":               period.String(),
			"commissions_created": len(result.Commissions),
		})
	}

	writeJSON(w, http.StatusOK, calculateResponse{
		Success:            true,
		Message:            fmt.Sprintf("commissions calculated for %s", period),
		CommissionsCreated: len(result.Commissions),
		Details:            details,
		Debug: calculateDebugResult{
			TransactionCount:    result.Debug.TransactionCount,
			ProfileCount:        result.Debug.ProfileCount,
			RepresentativeCount: result.Debug.RepresentativeCount,
			MachineCount:        result.Debug.MachineCount,
		},
	})
}

// List handles GET /commissions?month=&year=.
func (h *CommissionHandler) List(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	year := r.URL.Query().Get("year")
	if month == "" || year == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "month and year are required"})
		return
	}
	yearNum, err := strconv.Atoi(year)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid year"})
		return
	}

	period, err := commission.ParsePeriod(month, yearNum)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := h.store.ListCommissionSummariesByMonth(r.Context(), pgtype.Date{Time: period.Start(), Valid: true})
	if err != nil {
		log.Printf("ERROR: list commissions for %s: %v", period, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]summaryResponse, len(rows))
	for i, row := range rows {
		resp[i] = toSummaryResponse(row.CommissionSummary, row.RepresentativeName, nil)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Details handles GET /commissions/{id}/details.
func (h *CommissionHandler) Details(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid commission ID"})
		return
	}

	summary, err := h.store.GetCommissionSummary(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "commission not found"})
			return
		}
		log.Printf("ERROR: get commission %s: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	details, err := h.store.ListCommissionDetailsBySummary(r.Context(), id)
	if err != nil {
		log.Printf("ERROR: list details for commission %s: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toSummaryResponse(summary, "", details))
}

// --- Helpers ---

func toSummaryResponse(s database.CommissionSummary, repName string, details []database.CommissionDetail) summaryResponse {
	resp := summaryResponse{
		ID:                 s.ID,
		RepresentativeID:   s.RepresentativeID,
		RepresentativeName: repName,
		AtmCount:           s.AtmCount,
		TotalSales:         numericToString(s.TotalSales),
		TotalFees:          numericToString(s.TotalFees),
		TotalBitstopFees:   numericToString(s.TotalBitstopFees),
		TotalRent:          numericToString(s.TotalRent),
		TotalCashMgmtFee:   numericToString(s.TotalCashMgmtFee),
		TotalNetProfit:     numericToString(s.TotalNetProfit),
		CommissionAmount:   numericToString(s.CommissionAmount),
		FlatFeeAmount:      numericToString(s.FlatFeeAmount),
		TotalCommission:    numericToString(s.TotalCommission),
	}
	if s.MonthYear.Valid {
		resp.Month = s.MonthYear.Time.Format("2006-01")
	}
	if len(details) > 0 {
		resp.Machines = make([]detailResponse, len(details))
		for i, d := range details {
			resp.Machines[i] = detailResponse{
				ID:               d.ID,
				TerminalCode:     d.TerminalCode,
				LocationName:     d.LocationName,
				TotalSales:       numericToString(d.TotalSales),
				TotalFees:        numericToString(d.TotalFees),
				TotalBitstopFees: numericToString(d.TotalBitstopFees),
				Rent:             numericToString(d.Rent),
				CashMgmtFeeRps:   numericToString(d.CashMgmtFeeRps),
				CashMgmtFeeRep:   numericToString(d.CashMgmtFeeRep),
				NetProfit:        numericToString(d.NetProfit),
				CommissionAmount: numericToString(d.CommissionAmount),
			}
		}
	}
	return resp
}
