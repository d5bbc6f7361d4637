package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const atmProfileColumns = `id, terminal_code, location_name, representative_id, monthly_rent, cash_mgmt_fee_rep, cash_mgmt_fee_rps, installed_on, removed_on, created_at`

func scanAtmProfile(row pgx.Row) (AtmProfile, error) {
	var p AtmProfile
	err := row.Scan(
		&p.ID,
		&p.TerminalCode,
		&p.LocationName,
		&p.RepresentativeID,
		&p.MonthlyRent,
		&p.CashMgmtFeeRep,
		&p.CashMgmtFeeRps,
		&p.InstalledOn,
		&p.RemovedOn,
		&p.CreatedAt,
	)
	return p, err
}

// ListAtmProfiles returns the full profile history for every terminal, in
// the order the commission resolver scans them: per terminal, oldest
// placement first.
func (q *Queries) ListAtmProfiles(ctx context.Context) ([]AtmProfile, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+atmProfileColumns+`
		FROM atm_profiles
		ORDER BY terminal_code, installed_on ASC NULLS FIRST, created_at`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []AtmProfile
	for rows.Next() {
		p, err := scanAtmProfile(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (q *Queries) GetAtmProfile(ctx context.Context, id uuid.UUID) (AtmProfile, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+atmProfileColumns+`
		FROM atm_profiles
		WHERE id = $1`,
		id,
	)
	return scanAtmProfile(row)
}

type CreateAtmProfileParams struct {
	TerminalCode     string
	LocationName     string
	RepresentativeID pgtype.UUID
	MonthlyRent      pgtype.Numeric
	CashMgmtFeeRep   pgtype.Numeric
	CashMgmtFeeRps   pgtype.Numeric
	InstalledOn      pgtype.Date
	RemovedOn        pgtype.Date
}

func (q *Queries) CreateAtmProfile(ctx context.Context, arg CreateAtmProfileParams) (AtmProfile, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO atm_profiles (terminal_code, location_name, representative_id, monthly_rent, cash_mgmt_fee_rep, cash_mgmt_fee_rps, installed_on, removed_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+atmProfileColumns,
		arg.TerminalCode, arg.LocationName, arg.RepresentativeID, arg.MonthlyRent,
		arg.CashMgmtFeeRep, arg.CashMgmtFeeRps, arg.InstalledOn, arg.RemovedOn,
	)
	return scanAtmProfile(row)
}

type UpdateAtmProfileParams struct {
	ID               uuid.UUID
	TerminalCode     string
	LocationName     string
	RepresentativeID pgtype.UUID
	MonthlyRent      pgtype.Numeric
	CashMgmtFeeRep   pgtype.Numeric
	CashMgmtFeeRps   pgtype.Numeric
	InstalledOn      pgtype.Date
	RemovedOn        pgtype.Date
}

func (q *Queries) UpdateAtmProfile(ctx context.Context, arg UpdateAtmProfileParams) (AtmProfile, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE atm_profiles
		SET terminal_code = $2,
		    location_name = $3,
		    representative_id = $4,
		    monthly_rent = $5,
		    cash_mgmt_fee_rep = $6,
		    cash_mgmt_fee_rps = $7,
		    installed_on = $8,
		    removed_on = $9
		WHERE id = $1
		RETURNING `+atmProfileColumns,
		arg.ID, arg.TerminalCode, arg.LocationName, arg.RepresentativeID, arg.MonthlyRent,
		arg.CashMgmtFeeRep, arg.CashMgmtFeeRps, arg.InstalledOn, arg.RemovedOn,
	)
	return scanAtmProfile(row)
}

func (q *Queries) DeleteAtmProfile(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var deleted uuid.UUID
	err := q.db.QueryRow(ctx, `
		DELETE FROM atm_profiles
		WHERE id = $1
		RETURNING id`,
		id,
	).Scan(&deleted)
	return deleted, err
}
