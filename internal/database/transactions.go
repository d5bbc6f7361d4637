package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const atmTransactionColumns = `id, terminal_code, sale_amount, fee_amount, bitstop_fee_amount, occurred_on, created_at`

func scanAtmTransaction(row pgx.Row) (AtmTransaction, error) {
	var t AtmTransaction
	err := row.Scan(
		&t.ID,
		&t.TerminalCode,
		&t.SaleAmount,
		&t.FeeAmount,
		&t.BitstopFeeAmount,
		&t.OccurredOn,
		&t.CreatedAt,
	)
	return t, err
}

type CreateAtmTransactionParams struct {
	TerminalCode     string
	SaleAmount       pgtype.Numeric
	FeeAmount        pgtype.Numeric
	BitstopFeeAmount pgtype.Numeric
	OccurredOn       pgtype.Date
}

func (q *Queries) CreateAtmTransaction(ctx context.Context, arg CreateAtmTransactionParams) (AtmTransaction, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO atm_transactions (terminal_code, sale_amount, fee_amount, bitstop_fee_amount, occurred_on)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+atmTransactionColumns,
		arg.TerminalCode, arg.SaleAmount, arg.FeeAmount, arg.BitstopFeeAmount, arg.OccurredOn,
	)
	return scanAtmTransaction(row)
}

type ListTransactionsByDateRangeParams struct {
	StartDate pgtype.Date
	EndDate   pgtype.Date
}

// ListTransactionsByDateRange returns every transaction with occurred_on
// inside [StartDate, EndDate], both bounds inclusive.
func (q *Queries) ListTransactionsByDateRange(ctx context.Context, arg ListTransactionsByDateRangeParams) ([]AtmTransaction, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+atmTransactionColumns+`
		FROM atm_transactions
		WHERE occurred_on >= $1 AND occurred_on <= $2
		ORDER BY occurred_on, terminal_code, created_at`,
		arg.StartDate, arg.EndDate,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []AtmTransaction
	for rows.Next() {
		t, err := scanAtmTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

type ListAtmTransactionsParams struct {
	StartDate    pgtype.Date
	EndDate      pgtype.Date
	TerminalCode pgtype.Text
	Limit        int32
	Offset       int32
}

func (q *Queries) ListAtmTransactions(ctx context.Context, arg ListAtmTransactionsParams) ([]AtmTransaction, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+atmTransactionColumns+`
		FROM atm_transactions
		WHERE ($1::date IS NULL OR occurred_on >= $1)
		  AND ($2::date IS NULL OR occurred_on <= $2)
		  AND ($3::text IS NULL OR terminal_code = $3)
		ORDER BY occurred_on DESC, created_at DESC
		LIMIT $4 OFFSET $5`,
		arg.StartDate, arg.EndDate, arg.TerminalCode, arg.Limit, arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []AtmTransaction
	for rows.Next() {
		t, err := scanAtmTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

type GetFleetMonthlySummaryParams struct {
	StartDate pgtype.Date
	EndDate   pgtype.Date
}

type GetFleetMonthlySummaryRow struct {
	TerminalCode     string
	TransactionCount int64
	TotalSales       string
	TotalFees        string
	TotalBitstopFees string
}

// GetFleetMonthlySummary aggregates per-terminal totals for a date range.
func (q *Queries) GetFleetMonthlySummary(ctx context.Context, arg GetFleetMonthlySummaryParams) ([]GetFleetMonthlySummaryRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT
			terminal_code,
			COUNT(*) AS transaction_count,
			COALESCE(SUM(sale_amount), 0)::text AS total_sales,
			COALESCE(SUM(fee_amount), 0)::text AS total_fees,
			COALESCE(SUM(bitstop_fee_amount), 0)::text AS total_bitstop_fees
		FROM atm_transactions
		WHERE occurred_on >= $1 AND occurred_on <= $2
		GROUP BY terminal_code
		ORDER BY terminal_code`,
		arg.StartDate, arg.EndDate,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []GetFleetMonthlySummaryRow
	for rows.Next() {
		var r GetFleetMonthlySummaryRow
		if err := rows.Scan(&r.TerminalCode, &r.TransactionCount, &r.TotalSales, &r.TotalFees, &r.TotalBitstopFees); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

type GetMonthlyTrendParams struct {
	StartDate pgtype.Date
	EndDate   pgtype.Date
}

type GetMonthlyTrendRow struct {
	Month            pgtype.Date
	TransactionCount int64
	TotalSales       string
	TotalFees        string
}

// GetMonthlyTrend aggregates fleet-wide totals per calendar month.
func (q *Queries) GetMonthlyTrend(ctx context.Context, arg GetMonthlyTrendParams) ([]GetMonthlyTrendRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT
			date_trunc('month', occurred_on)::date AS month,
			COUNT(*) AS transaction_count,
			COALESCE(SUM(sale_amount), 0)::text AS total_sales,
			COALESCE(SUM(fee_amount), 0)::text AS total_fees
		FROM atm_transactions
		WHERE occurred_on >= $1 AND occurred_on <= $2
		GROUP BY date_trunc('month', occurred_on)
		ORDER BY month`,
		arg.StartDate, arg.EndDate,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []GetMonthlyTrendRow
	for rows.Next() {
		var r GetMonthlyTrendRow
		if err := rows.Scan(&r.Month, &r.TransactionCount, &r.TotalSales, &r.TotalFees); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
