package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const commissionSummaryColumns = `id, representative_id, month_year, atm_count, total_sales, total_fees, total_bitstop_fees, total_rent, total_cash_mgmt_fee, total_net_profit, commission_amount, flat_fee_amount, total_commission, created_at, updated_at`

func scanCommissionSummary(row pgx.Row) (CommissionSummary, error) {
	var s CommissionSummary
	err := row.Scan(
		&s.ID,
		&s.RepresentativeID,
		&s.MonthYear,
		&s.AtmCount,
		&s.TotalSales,
		&s.TotalFees,
		&s.TotalBitstopFees,
		&s.TotalRent,
		&s.TotalCashMgmtFee,
		&s.TotalNetProfit,
		&s.CommissionAmount,
		&s.FlatFeeAmount,
		&s.TotalCommission,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	return s, err
}

type UpsertCommissionSummaryParams struct {
	RepresentativeID uuid.UUID
	MonthYear        pgtype.Date
	AtmCount         int32
	TotalSales       pgtype.Numeric
	TotalFees        pgtype.Numeric
	TotalBitstopFees pgtype.Numeric
	TotalRent        pgtype.Numeric
	TotalCashMgmtFee pgtype.Numeric
	TotalNetProfit   pgtype.Numeric
	CommissionAmount pgtype.Numeric
	FlatFeeAmount    pgtype.Numeric
	TotalCommission  pgtype.Numeric
}

// UpsertCommissionSummary inserts a representative's monthly summary, or
// overwrites the existing row for the same representative and month so the
// calculation can be rerun safely.
func (q *Queries) UpsertCommissionSummary(ctx context.Context, arg UpsertCommissionSummaryParams) (CommissionSummary, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO commission_summaries (
			representative_id, month_year, atm_count,
			total_sales, total_fees, total_bitstop_fees, total_rent, total_cash_mgmt_fee,
			total_net_profit, commission_amount, flat_fee_amount, total_commission
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (representative_id, month_year) DO UPDATE SET
			atm_count = EXCLUDED.atm_count,
			total_sales = EXCLUDED.total_sales,
			total_fees = EXCLUDED.total_fees,
			total_bitstop_fees = EXCLUDED.total_bitstop_fees,
			total_rent = EXCLUDED.total_rent,
			total_cash_mgmt_fee = EXCLUDED.total_cash_mgmt_fee,
			total_net_profit = EXCLUDED.total_net_profit,
			commission_amount = EXCLUDED.commission_amount,
			flat_fee_amount = EXCLUDED.flat_fee_amount,
			total_commission = EXCLUDED.total_commission,
			updated_at = now()
		RETURNING `+commissionSummaryColumns,
		arg.RepresentativeID, arg.MonthYear, arg.AtmCount,
		arg.TotalSales, arg.TotalFees, arg.TotalBitstopFees, arg.TotalRent, arg.TotalCashMgmtFee,
		arg.TotalNetProfit, arg.CommissionAmount, arg.FlatFeeAmount, arg.TotalCommission,
	)
	return scanCommissionSummary(row)
}

func (q *Queries) DeleteCommissionDetailsBySummary(ctx context.Context, summaryID uuid.UUID) error {
	_, err := q.db.Exec(ctx, `
		DELETE FROM commission_details
		WHERE summary_id = $1`,
		summaryID,
	)
	return err
}

type CreateCommissionDetailParams struct {
	SummaryID        uuid.UUID
	TerminalCode     string
	LocationName     string
	TotalSales       pgtype.Numeric
	TotalFees        pgtype.Numeric
	TotalBitstopFees pgtype.Numeric
	Rent             pgtype.Numeric
	CashMgmtFeeRps   pgtype.Numeric
	CashMgmtFeeRep   pgtype.Numeric
	NetProfit        pgtype.Numeric
	CommissionAmount pgtype.Numeric
}

func (q *Queries) CreateCommissionDetail(ctx context.Context, arg CreateCommissionDetailParams) (CommissionDetail, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO commission_details (
			summary_id, terminal_code, location_name,
			total_sales, total_fees, total_bitstop_fees,
			rent, cash_mgmt_fee_rps, cash_mgmt_fee_rep,
			net_profit, commission_amount
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, summary_id, terminal_code, location_name, total_sales, total_fees, total_bitstop_fees, rent, cash_mgmt_fee_rps, cash_mgmt_fee_rep, net_profit, commission_amount, created_at`,
		arg.SummaryID, arg.TerminalCode, arg.LocationName,
		arg.TotalSales, arg.TotalFees, arg.TotalBitstopFees,
		arg.Rent, arg.CashMgmtFeeRps, arg.CashMgmtFeeRep,
		arg.NetProfit, arg.CommissionAmount,
	)
	var d CommissionDetail
	err := row.Scan(
		&d.ID,
		&d.SummaryID,
		&d.TerminalCode,
		&d.LocationName,
		&d.TotalSales,
		&d.TotalFees,
		&d.TotalBitstopFees,
		&d.Rent,
		&d.CashMgmtFeeRps,
		&d.CashMgmtFeeRep,
		&d.NetProfit,
		&d.CommissionAmount,
		&d.CreatedAt,
	)
	return d, err
}

type ListCommissionSummariesByMonthRow struct {
	CommissionSummary
	RepresentativeName string
}

func (q *Queries) ListCommissionSummariesByMonth(ctx context.Context, monthYear pgtype.Date) ([]ListCommissionSummariesByMonthRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT
			cs.id, cs.representative_id, cs.month_year, cs.atm_count,
			cs.total_sales, cs.total_fees, cs.total_bitstop_fees, cs.total_rent, cs.total_cash_mgmt_fee,
			cs.total_net_profit, cs.commission_amount, cs.flat_fee_amount, cs.total_commission,
			cs.created_at, cs.updated_at,
			sr.name AS representative_name
		FROM commission_summaries cs
		JOIN sales_representatives sr ON sr.id = cs.representative_id
		WHERE cs.month_year = $1
		ORDER BY sr.name`,
		monthYear,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ListCommissionSummariesByMonthRow
	for rows.Next() {
		var r ListCommissionSummariesByMonthRow
		if err := rows.Scan(
			&r.ID,
			&r.RepresentativeID,
			&r.MonthYear,
			&r.AtmCount,
			&r.TotalSales,
			&r.TotalFees,
			&r.TotalBitstopFees,
			&r.TotalRent,
			&r.TotalCashMgmtFee,
			&r.TotalNetProfit,
			&r.CommissionAmount,
			&r.FlatFeeAmount,
			&r.TotalCommission,
			&r.CreatedAt,
			&r.UpdatedAt,
			&r.RepresentativeName,
		); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

func (q *Queries) GetCommissionSummary(ctx context.Context, id uuid.UUID) (CommissionSummary, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+commissionSummaryColumns+`
		FROM commission_summaries
		WHERE id = $1`,
		id,
	)
	return scanCommissionSummary(row)
}

func (q *Queries) ListCommissionDetailsBySummary(ctx context.Context, summaryID uuid.UUID) ([]CommissionDetail, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, summary_id, terminal_code, location_name, total_sales, total_fees, total_bitstop_fees, rent, cash_mgmt_fee_rps, cash_mgmt_fee_rep, net_profit, commission_amount, created_at
		FROM commission_details
		WHERE summary_id = $1
		ORDER BY terminal_code, location_name`,
		summaryID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []CommissionDetail
	for rows.Next() {
		var d CommissionDetail
		if err := rows.Scan(
			&d.ID,
			&d.SummaryID,
			&d.TerminalCode,
			&d.LocationName,
			&d.TotalSales,
			&d.TotalFees,
			&d.TotalBitstopFees,
			&d.Rent,
			&d.CashMgmtFeeRps,
			&d.CashMgmtFeeRep,
			&d.NetProfit,
			&d.CommissionAmount,
			&d.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}
