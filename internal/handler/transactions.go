package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/atmfleet/api/internal/database"
	"github.com/atmfleet/api/internal/service"
	"github.com/atmfleet/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// TransactionStore defines the database methods needed by transaction handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type TransactionStore interface {
	CreateAtmTransaction(ctx context.Context, arg database.CreateAtmTransactionParams) (database.AtmTransaction, error)
	ListAtmTransactions(ctx context.Context, arg database.ListAtmTransactionsParams) ([]database.AtmTransaction, error)
}

// NewTransactionStore creates a TransactionStore from a DBTX (pool or tx).
type NewTransactionStore func(db database.DBTX) TransactionStore

// TransactionHandler handles transaction endpoints.
type TransactionHandler struct {
	store    TransactionStore
	pool     service.TxBeginner
	newStore NewTransactionStore
	notifier Notifier
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(store TransactionStore, pool service.TxBeginner, newStore NewTransactionStore, notifier Notifier) *TransactionHandler {
	return &TransactionHandler{store: store, pool: pool, newStore: newStore, notifier: notifier}
}

// RegisterRoutes registers transaction endpoints on the given Chi router.
// Expected to be mounted at /transactions
func (h *TransactionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/batch", h.CreateBatch)
	r.Get("/", h.List)
}

// --- Request / Response types ---

type createTransactionRequest struct {
	TerminalCode     string `json:"terminal_code"`
	SaleAmount       string `json:"sale_amount"`
	FeeAmount        string `json:"fee_amount"`
	BitstopFeeAmount string `json:"bitstop_fee_amount"`
	OccurredOn       string `json:"occurred_on"`
}

type createBatchRequest struct {
	Transactions []createTransactionRequest `json:"transactions"`
}

type transactionResponse struct {
	ID               uuid.UUID `json:"id"`
	TerminalCode     string    `json:"terminal_code"`
	SaleAmount       string    `json:"sale_amount"`
	FeeAmount        string    `json:"fee_amount"`
	BitstopFeeAmount string    `json:"bitstop_fee_amount"`
	OccurredOn       string    `json:"occurred_on"`
	CreatedAt        time.Time `json:"created_at"`
}

type createBatchResponse struct {
	Created      int                   `json:"created"`
	Transactions []transactionResponse `json:"transactions"`
}

// --- Handlers ---

// CreateBatch handles POST /transactions/batch.
// Inserts all rows in one transaction so a bad row rejects the whole upload.
func (h *TransactionHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req createBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.Transactions) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "transactions are required"})
		return
	}

	params := make([]database.CreateAtmTransactionParams, len(req.Transactions))
	for i, tr := range req.Transactions {
		if tr.TerminalCode == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("transactions[%d]: terminal_code is required", i)})
			return
		}
		if tr.OccurredOn == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("transactions[%d]: occurred_on is required", i)})
			return
		}
		occurredOn, err := parseDateParam(tr.OccurredOn)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("transactions[%d]: invalid occurred_on", i)})
			return
		}

		sale, err := parseAmount(tr.SaleAmount)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("transactions[%d]: invalid sale_amount", i)})
			return
		}
		fee, err := parseAmount(tr.FeeAmount)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("transactions[%d]: invalid fee_amount", i)})
			return
		}
		bitstop, err := parseAmount(tr.BitstopFeeAmount)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("transactions[%d]: invalid bitstop_fee_amount", i)})
			return
		}

		params[i] = database.CreateAtmTransactionParams{
			TerminalCode:     tr.TerminalCode,
			SaleAmount:       sale,
			FeeAmount:        fee,
			BitstopFeeAmount: bitstop,
			OccurredOn:       occurredOn,
		}
	}

	tx, err := h.pool.Begin(r.Context())
	if err != nil {
		log.Printf("ERROR: begin tx for transaction batch: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	defer tx.Rollback(r.Context()) //nolint:errcheck

	store := h.newStore(tx)
	created := make([]transactionResponse, len(params))
	for i, p := range params {
		row, err := store.CreateAtmTransaction(r.Context(), p)
		if err != nil {
			log.Printf("ERROR: create transaction %d: %v", i, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		created[i] = toTransactionResponse(row)
	}

	if err := tx.Commit(r.Context()); err != nil {
		log.Printf("ERROR: commit transaction batch: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if h.notifier != nil {
		h.notifier.Broadcast(ws.EventTransactionsUploaded, map[string]int{"created": len(created)})
	}

	writeJSON(w, http.StatusCreated, createBatchResponse{
		Created:      len(created),
		Transactions: created,
	})
}

// List handles GET /transactions?start_date=&end_date=&terminal_code=&limit=&offset=.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	startDate, err := parseDateParam(r.URL.Query().Get("start_date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date"})
		return
	}
	endDate, err := parseDateParam(r.URL.Query().Get("end_date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end_date"})
		return
	}

	terminalCode := pgtype.Text{}
	if s := r.URL.Query().Get("terminal_code"); s != "" {
		terminalCode = pgtype.Text{String: s, Valid: true}
	}

	limit, offset := parsePagination(r)

	rows, err := h.store.ListAtmTransactions(r.Context(), database.ListAtmTransactionsParams{
		StartDate:    startDate,
		EndDate:      endDate,
		TerminalCode: terminalCode,
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		log.Printf("ERROR: list transactions: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]transactionResponse, len(rows))
	for i, row := range rows {
		resp[i] = toTransactionResponse(row)
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

// parseAmount parses a money string; empty means zero.
func parseAmount(s string) (pgtype.Numeric, error) {
	if s == "" {
		var n pgtype.Numeric
		_ = n.Scan("0.00")
		return n, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return pgtype.Numeric{}, err
	}
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n, nil
}

func toTransactionResponse(row database.AtmTransaction) transactionResponse {
	return transactionResponse{
		ID:               row.ID,
		TerminalCode:     row.TerminalCode,
		SaleAmount:       numericToString(row.SaleAmount),
		FeeAmount:        numericToString(row.FeeAmount),
		BitstopFeeAmount: numericToString(row.BitstopFeeAmount),
		OccurredOn:       dateToString(row.OccurredOn),
		CreatedAt:        row.CreatedAt,
	}
}
