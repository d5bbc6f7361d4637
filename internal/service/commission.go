package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atmfleet/api/internal/commission"
	"github.com/atmfleet/api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Errors returned by the commission service.
var (
	ErrNoTransactions    = errors.New("no transactions found for the requested month")
	ErrNoRepresentatives = errors.New("no sales representatives configured")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CommissionStore defines the DB methods needed to calculate commissions.
// Satisfied by *database.Queries (and its WithTx variant).
type CommissionStore interface {
	ListTransactionsByDateRange(ctx context.Context, arg database.ListTransactionsByDateRangeParams) ([]database.AtmTransaction, error)
	ListAtmProfiles(ctx context.Context) ([]database.AtmProfile, error)
	ListSalesRepresentatives(ctx context.Context) ([]database.SalesRepresentative, error)
	UpsertCommissionSummary(ctx context.Context, arg database.UpsertCommissionSummaryParams) (database.CommissionSummary, error)
	DeleteCommissionDetailsBySummary(ctx context.Context, summaryID uuid.UUID) error
	CreateCommissionDetail(ctx context.Context, arg database.CreateCommissionDetailParams) (database.CommissionDetail, error)
}

// NewCommissionStore creates a CommissionStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewCommissionStore func(db database.DBTX) CommissionStore

// CalculatedCommission is one representative's persisted result with its
// per-machine detail rows.
type CalculatedCommission struct {
	Summary            database.CommissionSummary
	RepresentativeName string
	Details            []database.CommissionDetail
}

// CalculateDebug reports the input sizes the calculation ran against.
type CalculateDebug struct {
	TransactionCount    int
	ProfileCount        int
	RepresentativeCount int
	MachineCount        int
}

// CalculateResult is the outcome of one monthly calculation run.
type CalculateResult struct {
	Commissions []CalculatedCommission
	Debug       CalculateDebug
}

// CommissionService runs the monthly commission calculation.
type CommissionService struct {
	pool     TxBeginner
	newStore NewCommissionStore
}

// NewCommissionService creates a new CommissionService.
func NewCommissionService(pool TxBeginner, newStore NewCommissionStore) *CommissionService {
	return &CommissionService{pool: pool, newStore: newStore}
}

// Calculate loads the month's transactions, profiles and representatives,
// aggregates per machine, distributes commissions, and persists one summary
// per representative plus its detail rows. The whole run happens in a single
// transaction: rerunning a month overwrites the previous results, and a run
// that finds no transactions writes nothing.
func (s *CommissionService) Calculate(ctx context.Context, period commission.Period) (*CalculateResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// --- Load inputs ---
	txRows, err := store.ListTransactionsByDateRange(ctx, database.ListTransactionsByDateRangeParams{
		StartDate: pgtype.Date{Time: period.Start(), Valid: true},
		EndDate:   pgtype.Date{Time: period.End(), Valid: true},
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if len(txRows) == 0 {
		return nil, ErrNoTransactions
	}

	profileRows, err := store.ListAtmProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	repRows, err := store.ListSalesRepresentatives(ctx)
	if err != nil {
		return nil, fmt.Errorf("list representatives: %w", err)
	}
	if len(repRows) == 0 {
		return nil, ErrNoRepresentatives
	}

	txs := make([]commission.Transaction, 0, len(txRows))
	for _, r := range txRows {
		txs = append(txs, transactionFromRow(r))
	}
	profiles := make([]commission.Profile, 0, len(profileRows))
	for _, r := range profileRows {
		profiles = append(profiles, profileFromRow(r))
	}
	reps := make([]commission.Representative, 0, len(repRows))
	repNames := make(map[uuid.UUID]string, len(repRows))
	for _, r := range repRows {
		reps = append(reps, representativeFromRow(r))
		repNames[r.ID] = r.Name
	}

	// --- Aggregate and distribute ---
	aggregates := commission.AggregateTransactions(txs, profiles, reps, period)
	summaries := commission.DistributeCommissions(aggregates, reps, period)

	// --- Persist ---
	var results []CalculatedCommission
	for _, sum := range summaries {
		row, err := store.UpsertCommissionSummary(ctx, summaryParams(sum))
		if err != nil {
			return nil, fmt.Errorf("upsert summary for %s: %w", sum.RepresentativeID, err)
		}
		if err := store.DeleteCommissionDetailsBySummary(ctx, row.ID); err != nil {
			return nil, fmt.Errorf("clear details for %s: %w", row.ID, err)
		}

		var details []database.CommissionDetail
		for _, d := range sum.Details {
			detail, err := store.CreateCommissionDetail(ctx, detailParams(row.ID, d))
			if err != nil {
				return nil, fmt.Errorf("create detail %s: %w", d.Key.TerminalCode, err)
			}
			details = append(details, detail)
		}

		results = append(results, CalculatedCommission{
			Summary:            row,
			RepresentativeName: repNames[sum.RepresentativeID],
			Details:            details,
		})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CalculateResult{
		Commissions: results,
		Debug: CalculateDebug{
			TransactionCount:    len(txs),
			ProfileCount:        len(profiles),
			RepresentativeCount: len(reps),
			MachineCount:        len(aggregates),
		},
	}, nil
}

// --- Row mapping ---

func transactionFromRow(r database.AtmTransaction) commission.Transaction {
	return commission.Transaction{
		TerminalCode:     r.TerminalCode,
		SaleAmount:       numericToDecimal(r.SaleAmount),
		FeeAmount:        numericToDecimal(r.FeeAmount),
		BitstopFeeAmount: numericToDecimal(r.BitstopFeeAmount),
		OccurredOn:       r.OccurredOn.Time,
	}
}

func profileFromRow(r database.AtmProfile) commission.Profile {
	return commission.Profile{
		ID:               r.ID,
		TerminalCode:     r.TerminalCode,
		LocationName:     r.LocationName,
		RepresentativeID: uuidPtr(r.RepresentativeID),
		MonthlyRent:      numericToDecimal(r.MonthlyRent),
		CashMgmtFeeRep:   numericToDecimal(r.CashMgmtFeeRep),
		CashMgmtFeeRPS:   numericToDecimal(r.CashMgmtFeeRps),
		InstalledOn:      datePtr(r.InstalledOn),
		RemovedOn:        datePtr(r.RemovedOn),
	}
}

func representativeFromRow(r database.SalesRepresentative) commission.Representative {
	return commission.Representative{
		ID:               r.ID,
		Name:             r.Name,
		CommissionPct:    numericToDecimal(r.CommissionPct),
		FlatMonthlyFee:   numericToDecimal(r.FlatMonthlyFee),
		GuaranteedPayout: r.GuaranteedPayout,
	}
}

func summaryParams(s commission.Summary) database.UpsertCommissionSummaryParams {
	return database.UpsertCommissionSummaryParams{
		RepresentativeID: s.RepresentativeID,
		MonthYear:        pgtype.Date{Time: s.Month, Valid: true},
		AtmCount:         int32(s.AtmCount),
		TotalSales:       decimalToNumeric(s.TotalSales),
		TotalFees:        decimalToNumeric(s.TotalFees),
		TotalBitstopFees: decimalToNumeric(s.TotalBitstopFees),
		TotalRent:        decimalToNumeric(s.TotalRent),
		TotalCashMgmtFee: decimalToNumeric(s.TotalCashMgmtFee),
		TotalNetProfit:   decimalToNumeric(s.TotalNetProfit),
		CommissionAmount: decimalToNumeric(s.CommissionAmount),
		FlatFeeAmount:    decimalToNumeric(s.FlatFeeAmount),
		TotalCommission:  decimalToNumeric(s.TotalCommission),
	}
}

func detailParams(summaryID uuid.UUID, d commission.Detail) database.CreateCommissionDetailParams {
	return database.CreateCommissionDetailParams{
		SummaryID:        summaryID,
		TerminalCode:     d.Key.TerminalCode,
		LocationName:     d.Key.LocationName,
		TotalSales:       decimalToNumeric(d.TotalSales),
		TotalFees:        decimalToNumeric(d.TotalFees),
		TotalBitstopFees: decimalToNumeric(d.TotalBitstopFees),
		Rent:             decimalToNumeric(d.Rent),
		CashMgmtFeeRps:   decimalToNumeric(d.CashMgmtFeeRPS),
		CashMgmtFeeRep:   decimalToNumeric(d.CashMgmtFeeRep),
		NetProfit:        decimalToNumeric(d.NetProfit),
		CommissionAmount: decimalToNumeric(d.CommissionAmount),
	}
}

// --- Helpers ---

func uuidPtr(u pgtype.UUID) *uuid.UUID {
	if !u.Valid {
		return nil
	}
	id := uuid.UUID(u.Bytes)
	return &id
}

func datePtr(d pgtype.Date) *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Time
	return &t
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
