package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// AtmTransaction is one processed ATM transaction row. Rows are immutable
// once uploaded; the commission engine only reads them.
type AtmTransaction struct {
	ID               uuid.UUID
	TerminalCode     string
	SaleAmount       pgtype.Numeric
	FeeAmount        pgtype.Numeric
	BitstopFeeAmount pgtype.Numeric
	OccurredOn       pgtype.Date
	CreatedAt        time.Time
}

// AtmProfile is one time-bounded placement/configuration row for a
// machine. Several rows may share a terminal_code.
type AtmProfile struct {
	ID               uuid.UUID
	TerminalCode     string
	LocationName     string
	RepresentativeID pgtype.UUID
	MonthlyRent      pgtype.Numeric
	CashMgmtFeeRep   pgtype.Numeric
	CashMgmtFeeRps   pgtype.Numeric
	InstalledOn      pgtype.Date
	RemovedOn        pgtype.Date
	CreatedAt        time.Time
}

// SalesRepresentative holds a representative's commission terms.
type SalesRepresentative struct {
	ID               uuid.UUID
	Name             string
	CommissionPct    pgtype.Numeric
	FlatMonthlyFee   pgtype.Numeric
	GuaranteedPayout bool
	CreatedAt        time.Time
}

// CommissionSummary is one representative's persisted result for a month.
// Unique on (representative_id, month_year); month_year is the first
// calendar day of the month.
type CommissionSummary struct {
	ID               uuid.UUID
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
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CommissionDetail is one machine's line under a CommissionSummary.
// Details are deleted and reinserted whenever their summary is recomputed.
type CommissionDetail struct {
	ID               uuid.UUID
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
	CreatedAt        time.Time
}
