package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/atmfleet/api/internal/commission"
	"github.com/atmfleet/api/internal/database"
	"github.com/atmfleet/api/internal/handler"
	"github.com/atmfleet/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// --- Mocks ---

type mockCalculator struct {
	calculateFn func(ctx context.Context, period commission.Period) (*service.CalculateResult, error)
	gotPeriod   commission.Period
}

func (m *mockCalculator) Calculate(ctx context.Context, period commission.Period) (*service.CalculateResult, error) {
	m.gotPeriod = period
	return m.calculateFn(ctx, period)
}

type mockCommissionStore struct {
	summaries    []database.ListCommissionSummariesByMonthRow
	summariesErr error
	summary      database.CommissionSummary
	summaryErr   error
	details      []database.CommissionDetail
	detailsErr   error
}

func (m *mockCommissionStore) ListCommissionSummariesByMonth(ctx context.Context, monthYear pgtype.Date) ([]database.ListCommissionSummariesByMonthRow, error) {
	if m.summariesErr != nil {
		return nil, m.summariesErr
	}
	return m.summaries, nil
}

func (m *mockCommissionStore) GetCommissionSummary(ctx context.Context, id uuid.UUID) (database.CommissionSummary, error) {
	if m.summaryErr != nil {
		return database.CommissionSummary{}, m.summaryErr
	}
	return m.summary, nil
}

func (m *mockCommissionStore) ListCommissionDetailsBySummary(ctx context.Context, summaryID uuid.UUID) ([]database.CommissionDetail, error) {
	if m.detailsErr != nil {
		return nil, m.detailsErr
	}
	return m.details, nil
}

type mockNotifier struct {
	events []string
}

func (m *mockNotifier) Broadcast(eventType string, payload interface{}) {
	m.events = append(m.events, eventType)
}

// --- Test Helpers ---

func toNumeric(s string) pgtype.Numeric {
	d, _ := decimal.NewFromString(s)
	n := pgtype.Numeric{}
	n.Scan(d.String())
	return n
}

func toDate(s string) pgtype.Date {
	t, _ := time.Parse("2006-01-02", s)
	var date pgtype.Date
	date.Scan(t)
	return date
}

func setupCommissionRouter(svc handler.CommissionCalculator, store handler.CommissionStore, notifier handler.Notifier) http.Handler {
	h := handler.NewCommissionHandler(svc, store, notifier)
	r := chi.NewRouter()
	r.Route("/commissions", h.RegisterRoutes)
	return r
}

func sampleResult(repID uuid.UUID) *service.CalculateResult {
	summaryID := uuid.New()
	return &service.CalculateResult{
		Commissions: []service.CalculatedCommission{
			{
				Summary: database.CommissionSummary{
					ID:               summaryID,
					RepresentativeID: repID,
					MonthYear:        toDate("2024-03-01"),
					AtmCount:         1,
					TotalSales:       toNumeric("500.00"),
					TotalFees:        toNumeric("50.00"),
					TotalBitstopFees: toNumeric("0.00"),
					TotalRent:        toNumeric("10.00"),
					TotalCashMgmtFee: toNumeric("5.00"),
					TotalNetProfit:   toNumeric("35.00"),
					CommissionAmount: toNumeric("7.00"),
					FlatFeeAmount:    toNumeric("30.00"),
					TotalCommission:  toNumeric("37.00"),
				},
				RepresentativeName: "Dana Reyes",
				Details: []database.CommissionDetail{
					{
						ID:               uuid.New(),
						SummaryID:        summaryID,
						TerminalCode:     "ATM-100",
						LocationName:     "Corner Mart",
						TotalSales:       toNumeric("500.00"),
						TotalFees:        toNumeric("50.00"),
						NetProfit:        toNumeric("35.00"),
						CommissionAmount: toNumeric("7.00"),
					},
				},
			},
		},
		Debug: service.CalculateDebug{
			TransactionCount:    1,
			ProfileCount:        1,
			RepresentativeCount: 1,
			MachineCount:        1,
		},
	}
}

// --- Calculate Tests ---

func TestCalculateCommissions(t *testing.T) {
	repID := uuid.New()
	svc := &mockCalculator{
		calculateFn: func(ctx context.Context, period commission.Period) (*service.CalculateResult, error) {
			return sampleResult(repID), nil
		},
	}
	notifier := &mockNotifier{}
	router := setupCommissionRouter(svc, &mockCommissionStore{}, notifier)

	body := bytes.NewBufferString(`{"month":"3","year":2024}`)
	req := httptest.NewRequest(http.MethodPost, "/commissions/calculate", body)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Success            bool `json:"success"`
		CommissionsCreated int  `json:"commissions_created"`
		Details            []struct {
			RepresentativeName string `json:"representative_name"`
			Month              string `json:"month"`
			TotalNetProfit     string `json:"total_net_profit"`
			TotalCommission    string `json:"total_commission"`
			Machines           []struct {
				TerminalCode string `json:"terminal_code"`
			} `json:"machines"`
		} `json:"details"`
		Debug struct {
			TransactionCount int `json:"transaction_count"`
		} `json:"debug"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}

	if !resp.Success {
		t.Error("expected success=true")
	}
	if resp.CommissionsCreated != 1 {
		t.Errorf("commissions_created = %d, want 1", resp.CommissionsCreated)
	}
	if len(resp.Details) != 1 {
		t.Fatalf("details = %d, want 1", len(resp.Details))
	}
	d := resp.Details[0]
	if d.RepresentativeName != "Dana Reyes" {
		t.Errorf("representative_name = %q", d.RepresentativeName)
	}
	if d.Month != "2024-03" {
		t.Errorf("month = %q, want 2024-03", d.Month)
	}
	if d.TotalNetProfit != "35.00" || d.TotalCommission != "37.00" {
		t.Errorf("net = %s, total = %s", d.TotalNetProfit, d.TotalCommission)
	}
	if len(d.Machines) != 1 || d.Machines[0].TerminalCode != "ATM-100" {
		t.Errorf("machines = %+v", d.Machines)
	}
	if resp.Debug.TransactionCount != 1 {
		t.Errorf("debug transaction_count = %d", resp.Debug.TransactionCount)
	}

	if svc.gotPeriod.Year != 2024 || svc.gotPeriod.Month != time.March {
		t.Errorf("service received period %v", svc.gotPeriod)
	}
	if len(notifier.events) != 1 || notifier.events[0] != "commission.completed" {
		t.Errorf("notifier events = %v", notifier.events)
	}
}

func TestCalculateCommissionsZeroPaddedMonth(t *testing.T) {
	svc := &mockCalculator{
		calculateFn: func(ctx context.Context, period commission.Period) (*service.CalculateResult, error) {
			return &service.CalculateResult{}, nil
		},
	}
	router := setupCommissionRouter(svc, &mockCommissionStore{}, &mockNotifier{})

	body := bytes.NewBufferString(`{"month":"03","year":2024}`)
	req := httptest.NewRequest(http.MethodPost, "/commissions/calculate", body)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if svc.gotPeriod.Month != time.March {
		t.Errorf("period month = %v, want March", svc.gotPeriod.Month)
	}
}

func TestCalculateCommissionsValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing month", `{"year":2024}`},
		{"missing year", `{"month":"3"}`},
		{"invalid month", `{"month":"13","year":2024}`},
		{"malformed body", `{month: 3}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			svc := &mockCalculator{
				calculateFn: func(ctx context.Context, period commission.Period) (*service.CalculateResult, error) {
					called = true
					return &service.CalculateResult{}, nil
				},
			}
			router := setupCommissionRouter(svc, &mockCommissionStore{}, &mockNotifier{})

			req := httptest.NewRequest(http.MethodPost, "/commissions/calculate", bytes.NewBufferString(tc.body))
			rr := httptest.NewRecorder()

			router.ServeHTTP(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", rr.Code)
			}
			if called {
				t.Error("service should not be called on invalid input")
			}
		})
	}
}

func TestCalculateCommissionsNoTransactions(t *testing.T) {
	svc := &mockCalculator{
		calculateFn: func(ctx context.Context, period commission.Period) (*service.CalculateResult, error) {
			return nil, service.ErrNoTransactions
		},
	}
	notifier := &mockNotifier{}
	router := setupCommissionRouter(svc, &mockCommissionStore{}, notifier)

	body := bytes.NewBufferString(`{"month":"3","year":2024}`)
	req := httptest.NewRequest(http.MethodPost, "/commissions/calculate", body)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp["error"] == "" {
		t.Error("expected error message")
	}
	if len(notifier.events) != 0 {
		t.Errorf("no events should be published, got %v", notifier.events)
	}
}

func TestCalculateCommissionsServiceError(t *testing.T) {
	svc := &mockCalculator{
		calculateFn: func(ctx context.Context, period commission.Period) (*service.CalculateResult, error) {
			return nil, fmt.Errorf("db down")
		},
	}
	router := setupCommissionRouter(svc, &mockCommissionStore{}, &mockNotifier{})

	body := bytes.NewBufferString(`{"month":"3","year":2024}`)
	req := httptest.NewRequest(http.MethodPost, "/commissions/calculate", body)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
}

// --- List Tests ---

func TestListCommissions(t *testing.T) {
	repID := uuid.New()
	store := &mockCommissionStore{
		summaries: []database.ListCommissionSummariesByMonthRow{
			{
				CommissionSummary: database.CommissionSummary{
					ID:               uuid.New(),
					RepresentativeID: repID,
					MonthYear:        toDate("2024-03-01"),
					AtmCount:         2,
					TotalCommission:  toNumeric("37.00"),
				},
				RepresentativeName: "Dana Reyes",
			},
		},
	}
	router := setupCommissionRouter(&mockCalculator{}, store, &mockNotifier{})

	req := httptest.NewRequest(http.MethodGet, "/commissions/?month=3&year=2024", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp []struct {
		RepresentativeName string `json:"representative_name"`
		Month              string `json:"month"`
		AtmCount           int    `json:"atm_count"`
		TotalCommission    string `json:"total_commission"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(resp))
	}
	if resp[0].RepresentativeName != "Dana Reyes" || resp[0].Month != "2024-03" {
		t.Errorf("summary = %+v", resp[0])
	}
	if resp[0].TotalCommission != "37.00" {
		t.Errorf("total_commission = %s", resp[0].TotalCommission)
	}
}

func TestListCommissionsMissingParams(t *testing.T) {
	router := setupCommissionRouter(&mockCalculator{}, &mockCommissionStore{}, &mockNotifier{})

	req := httptest.NewRequest(http.MethodGet, "/commissions/", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

// --- Details Tests ---

func TestCommissionDetails(t *testing.T) {
	summaryID := uuid.New()
	store := &mockCommissionStore{
		summary: database.CommissionSummary{
			ID:               summaryID,
			RepresentativeID: uuid.New(),
			MonthYear:        toDate("2024-03-01"),
			AtmCount:         1,
		},
		details: []database.CommissionDetail{
			{
				ID:           uuid.New(),
				SummaryID:    summaryID,
				TerminalCode: "ATM-100",
				LocationName: "Corner Mart",
				NetProfit:    toNumeric("35.00"),
			},
		},
	}
	router := setupCommissionRouter(&mockCalculator{}, store, &mockNotifier{})

	req := httptest.NewRequest(http.MethodGet, "/commissions/"+summaryID.String()+"/details", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Machines []struct {
			TerminalCode string `json:"terminal_code"`
			LocationName string `json:"location_name"`
			NetProfit    string `json:"net_profit"`
		} `json:"machines"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Machines) != 1 {
		t.Fatalf("expected 1 machine, got %d", len(resp.Machines))
	}
	if resp.Machines[0].TerminalCode != "ATM-100" || resp.Machines[0].NetProfit != "35.00" {
		t.Errorf("machine = %+v", resp.Machines[0])
	}
}

func TestCommissionDetailsNotFound(t *testing.T) {
	store := &mockCommissionStore{summaryErr: pgx.ErrNoRows}
	router := setupCommissionRouter(&mockCalculator{}, store, &mockNotifier{})

	req := httptest.NewRequest(http.MethodGet, "/commissions/"+uuid.NewString()+"/details", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

func TestCommissionDetailsInvalidID(t *testing.T) {
	router := setupCommissionRouter(&mockCalculator{}, &mockCommissionStore{}, &mockNotifier{})

	req := httptest.NewRequest(http.MethodGet, "/commissions/not-a-uuid/details", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}
