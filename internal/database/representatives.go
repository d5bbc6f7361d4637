package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const salesRepresentativeColumns = `id, name, commission_pct, flat_monthly_fee, guaranteed_payout, created_at`

func scanSalesRepresentative(row pgx.Row) (SalesRepresentative, error) {
	var r SalesRepresentative
	err := row.Scan(
		&r.ID,
		&r.Name,
		&r.CommissionPct,
		&r.FlatMonthlyFee,
		&r.GuaranteedPayout,
		&r.CreatedAt,
	)
	return r, err
}

func (q *Queries) ListSalesRepresentatives(ctx context.Context) ([]SalesRepresentative, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+salesRepresentativeColumns+`
		FROM sales_representatives
		ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []SalesRepresentative
	for rows.Next() {
		r, err := scanSalesRepresentative(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

func (q *Queries) GetSalesRepresentative(ctx context.Context, id uuid.UUID) (SalesRepresentative, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+salesRepresentativeColumns+`
		FROM sales_representatives
		WHERE id = $1`,
		id,
	)
	return scanSalesRepresentative(row)
}

type CreateSalesRepresentativeParams struct {
	Name             string
	CommissionPct    pgtype.Numeric
	FlatMonthlyFee   pgtype.Numeric
	GuaranteedPayout bool
}

func (q *Queries) CreateSalesRepresentative(ctx context.Context, arg CreateSalesRepresentativeParams) (SalesRepresentative, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO sales_representatives (name, commission_pct, flat_monthly_fee, guaranteed_payout)
		VALUES ($1, $2, $3, $4)
		RETURNING `+salesRepresentativeColumns,
		arg.Name, arg.CommissionPct, arg.FlatMonthlyFee, arg.GuaranteedPayout,
	)
	return scanSalesRepresentative(row)
}

type UpdateSalesRepresentativeParams struct {
	ID               uuid.UUID
	Name             string
	CommissionPct    pgtype.Numeric
	FlatMonthlyFee   pgtype.Numeric
	GuaranteedPayout bool
}

func (q *Queries) UpdateSalesRepresentative(ctx context.Context, arg UpdateSalesRepresentativeParams) (SalesRepresentative, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE sales_representatives
		SET name = $2,
		    commission_pct = $3,
		    flat_monthly_fee = $4,
		    guaranteed_payout = $5
		WHERE id = $1
		RETURNING `+salesRepresentativeColumns,
		arg.ID, arg.Name, arg.CommissionPct, arg.FlatMonthlyFee, arg.GuaranteedPayout,
	)
	return scanSalesRepresentative(row)
}

func (q *Queries) DeleteSalesRepresentative(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var deleted uuid.UUID
	err := q.db.QueryRow(ctx, `
		DELETE FROM sales_representatives
		WHERE id = $1
		RETURNING id`,
		id,
	).Scan(&deleted)
	return deleted, err
}
