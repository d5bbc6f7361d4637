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
)

// ProfileStore defines the database methods needed by profile handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ProfileStore interface {
	ListAtmProfiles(ctx context.Context) ([]database.AtmProfile, error)
	GetAtmProfile(ctx context.Context, id uuid.UUID) (database.AtmProfile, error)
	CreateAtmProfile(ctx context.Context, arg database.CreateAtmProfileParams) (database.AtmProfile, error)
	UpdateAtmProfile(ctx context.Context, arg database.UpdateAtmProfileParams) (database.AtmProfile, error)
	DeleteAtmProfile(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// ProfileHandler handles ATM profile endpoints.
type ProfileHandler struct {
	store ProfileStore
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(store ProfileStore) *ProfileHandler {
	return &ProfileHandler{store: store}
}

// RegisterRoutes registers profile endpoints on the given Chi router.
// Expected to be mounted at /atm-profiles
func (h *ProfileHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type profileRequest struct {
	TerminalCode     string `json:"terminal_code"`
	LocationName     string `json:"location_name"`
	RepresentativeID string `json:"representative_id"`
	MonthlyRent      string `json:"monthly_rent"`
	CashMgmtFeeRep   string `json:"cash_mgmt_fee_rep"`
	CashMgmtFeeRps   string `json:"cash_mgmt_fee_rps"`
	InstalledOn      string `json:"installed_on"`
	RemovedOn        string `json:"removed_on"`
}

type profileResponse struct {
	ID               uuid.UUID `json:"id"`
	TerminalCode     string    `json:"terminal_code"`
	LocationName     string    `json:"location_name"`
	RepresentativeID *string   `json:"representative_id"`
	MonthlyRent      string    `json:"monthly_rent"`
	CashMgmtFeeRep   string    `json:"cash_mgmt_fee_rep"`
	CashMgmtFeeRps   string    `json:"cash_mgmt_fee_rps"`
	InstalledOn      *string   `json:"installed_on"`
	RemovedOn        *string   `json:"removed_on"`
	CreatedAt        time.Time `json:"created_at"`
}

// --- Handlers ---

// List handles GET /atm-profiles.
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListAtmProfiles(r.Context())
	if err != nil {
		log.Printf("ERROR: list atm profiles: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]profileResponse, len(rows))
	for i, row := range rows {
		resp[i] = toProfileResponse(row)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /atm-profiles/{id}.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid profile ID"})
		return
	}

	row, err := h.store.GetAtmProfile(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
			return
		}
		log.Printf("ERROR: get atm profile %s: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(row))
}

// Create handles POST /atm-profiles.
func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params, errMsg := profileParamsFromRequest(req)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}

	row, err := h.store.CreateAtmProfile(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: create atm profile: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toProfileResponse(row))
}

// Update handles PUT /atm-profiles/{id}.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid profile ID"})
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params, errMsg := profileParamsFromRequest(req)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}

	row, err := h.store.UpdateAtmProfile(r.Context(), database.UpdateAtmProfileParams{
		ID:               id,
		TerminalCode:     params.TerminalCode,
		LocationName:     params.LocationName,
		RepresentativeID: params.RepresentativeID,
		MonthlyRent:      params.MonthlyRent,
		CashMgmtFeeRep:   params.CashMgmtFeeRep,
		CashMgmtFeeRps:   params.CashMgmtFeeRps,
		InstalledOn:      params.InstalledOn,
		RemovedOn:        params.RemovedOn,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
			return
		}
		log.Printf("ERROR: update atm profile %s: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(row))
}

// Delete handles DELETE /atm-profiles/{id}.
func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid profile ID"})
		return
	}

	if _, err := h.store.DeleteAtmProfile(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
			return
		}
		log.Printf("ERROR: delete atm profile %s: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

// profileParamsFromRequest validates a profile payload. The second return
// value is a user-facing error message, empty on success.
func profileParamsFromRequest(req profileRequest) (database.CreateAtmProfileParams, string) {
	var params database.CreateAtmProfileParams

	if req.TerminalCode == "" {
		return params, "terminal_code is required"
	}
	if req.LocationName == "" {
		return params, "location_name is required"
	}

	repID := pgtype.UUID{}
	if req.RepresentativeID != "" {
		rid, err := uuid.Parse(req.RepresentativeID)
		if err != nil {
			return params, "invalid representative_id"
		}
		repID = pgtype.UUID{Bytes: rid, Valid: true}
	}

	rent, err := parseAmount(req.MonthlyRent)
	if err != nil {
		return params, "invalid monthly_rent"
	}
	feeRep, err := parseAmount(req.CashMgmtFeeRep)
	if err != nil {
		return params, "invalid cash_mgmt_fee_rep"
	}
	feeRps, err := parseAmount(req.CashMgmtFeeRps)
	if err != nil {
		return params, "invalid cash_mgmt_fee_rps"
	}

	installedOn, err := parseDateParam(req.InstalledOn)
	if err != nil {
		return params, "invalid installed_on"
	}
	removedOn, err := parseDateParam(req.RemovedOn)
	if err != nil {
		return params, "invalid removed_on"
	}
	if installedOn.Valid && removedOn.Valid && removedOn.Time.Before(installedOn.Time) {
		return params, "removed_on must not be before installed_on"
	}

	return database.CreateAtmProfileParams{
		TerminalCode:     req.TerminalCode,
		LocationName:     req.LocationName,
		RepresentativeID: repID,
		MonthlyRent:      rent,
		CashMgmtFeeRep:   feeRep,
		CashMgmtFeeRps:   feeRps,
		InstalledOn:      installedOn,
		RemovedOn:        removedOn,
	}, ""
}

func toProfileResponse(row database.AtmProfile) profileResponse {
	resp := profileResponse{
		ID:             row.ID,
		TerminalCode:   row.TerminalCode,
		LocationName:   row.LocationName,
		MonthlyRent:    numericToString(row.MonthlyRent),
		CashMgmtFeeRep: numericToString(row.CashMgmtFeeRep),
		CashMgmtFeeRps: numericToString(row.CashMgmtFeeRps),
		InstalledOn:    dateToStringPtr(row.InstalledOn),
		RemovedOn:      dateToStringPtr(row.RemovedOn),
		CreatedAt:      row.CreatedAt,
	}
	if row.RepresentativeID.Valid {
		s := uuid.UUID(row.RepresentativeID.Bytes).String()
		resp.RepresentativeID = &s
	}
	return resp
}
