package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/atmfleet/api/internal/database"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// RepresentativeStore defines the database methods needed by representative handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type RepresentativeStore interface {
	ListSalesRepresentatives(ctx context.Context) ([]database.SalesRepresentative, error)
	GetSalesRepresentative(ctx context.Context, id uuid.UUID) (database.SalesRepresentative, error)
	CreateSalesRepresentative(ctx context.Context, arg database.CreateSalesRepresentativeParams) (database.SalesRepresentative, error)
	UpdateSalesRepresentative(ctx context.Context, arg database.UpdateSalesRepresentativeParams) (database.SalesRepresentative, error)
	DeleteSalesRepresentative(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// RepresentativeHandler handles sales representative endpoints.
type RepresentativeHandler struct {
	store RepresentativeStore
}

// NewRepresentativeHandler creates a new RepresentativeHandler.
func NewRepresentativeHandler(store RepresentativeStore) *RepresentativeHandler {
	return &RepresentativeHandler{store: store}
}

// RegisterRoutes registers representative endpoints on the given Chi router.
// Expected to be mounted at /representatives
func (h *RepresentativeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type representativeRequest struct {
	Name             string `json:"name"`
	CommissionPct    string `json:"commission_pct"`
	FlatMonthlyFee   string `json:"flat_monthly_fee"`
	GuaranteedPayout bool   `json:"guaranteed_payout"`
}

type representativeResponse struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	CommissionPct    string    `json:"commission_pct"`
	FlatMonthlyFee   string    `json:"flat_monthly_fee"`
	GuaranteedPayout bool      `json:"guaranteed_payout"`
	CreatedAt        time.Time `json:"created_at"`
}

// --- Handlers ---

// List handles GET /representatives.
func (h *RepresentativeHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListSalesRepresentatives(r.Context())
	if err != nil {
		log.Printf("ERROR: list representatives: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]representativeResponse, len(rows))
	for i, row := range rows {
		resp[i] = toRepresentativeResponse(row)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /representatives/{id}.
func (h *RepresentativeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid representative ID"})
		return
	}

	row, err := h.store.GetSalesRepresentative(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "representative not found"})
			return
		}
		log.Printf("ERROR: get representative %s: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toRepresentativeResponse(row))
}

// Create handles POST /representatives.
func (h *RepresentativeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req representativeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	pct, flatFee, errMsg := parseRepresentativeTerms(req)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}

	row, err := h.store.CreateSalesRepresentative(r.Context(), database.CreateSalesRepresentativeParams{
		Name:             req.Name,
		CommissionPct:    pct,
		FlatMonthlyFee:   flatFee,
		GuaranteedPayout: req.GuaranteedPayout,
	})
	if err != nil {
		log.Printf("ERROR: create representative: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toRepresentativeResponse(row))
}

// Update handles PUT /representatives/{id}.
func (h *RepresentativeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid representative ID"})
		return
	}

	var req representativeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	pct, flatFee, errMsg := parseRepresentativeTerms(req)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}

	row, err := h.store.UpdateSalesRepresentative(r.Context(), database.UpdateSalesRepresentativeParams{
		ID:               id,
		Name:             req.Name,
		CommissionPct:    pct,
		FlatMonthlyFee:   flatFee,
		GuaranteedPayout: req.GuaranteedPayout,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "representative not found"})
			return
		}
		log.Printf("ERROR: update representative %s: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toRepresentativeResponse(row))
}

// Delete handles DELETE /representatives/{id}.
func (h *RepresentativeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid representative ID"})
		return
	}

	if _, err := h.store.DeleteSalesRepresentative(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "representative not found"})
			return
		}
		log.Printf("ERROR: delete representative %s: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

// parseRepresentativeTerms validates commission_pct (0-100) and flat_monthly_fee.
// The third return value is a user-facing error message, empty on success.
func parseRepresentativeTerms(req representativeRequest) (pgtype.Numeric, pgtype.Numeric, string) {
	var zero pgtype.Numeric

	if req.CommissionPct == "" {
		return zero, zero, "commission_pct is required"
	}
	pct, err := decimal.NewFromString(req.CommissionPct)
	if err != nil {
		return zero, zero, "invalid commission_pct"
	}
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return zero, zero, "commission_pct must be between 0 and 100"
	}

	flatFee, err := parseAmount(req.FlatMonthlyFee)
	if err != nil {
		return zero, zero, "invalid flat_monthly_fee"
	}

	var pctNumeric pgtype.Numeric
	_ = pctNumeric.Scan(pct.StringFixed(2))
	return pctNumeric, flatFee, ""
}

func toRepresentativeResponse(row database.SalesRepresentative) representativeResponse {
	return representativeResponse{
		ID:               row.ID,
		Name:             row.Name,
		CommissionPct:    numericToString(row.CommissionPct),
		FlatMonthlyFee:   numericToString(row.FlatMonthlyFee),
		GuaranteedPayout: row.GuaranteedPayout,
		CreatedAt:        row.CreatedAt,
	}
}
