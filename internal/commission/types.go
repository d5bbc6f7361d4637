// Package commission implements the monthly commission engine: resolving
// time-bounded ATM profiles against transactions, apportioning recurring
// costs to active months, aggregating per machine, and distributing each
// representative's commission pool across their machines.
//
// Everything in this package is pure: inputs and outputs are plain values,
// the data store never appears. The service layer feeds it rows and
// persists what comes back.
package commission

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is one processed ATM transaction in the target month.
type Transaction struct {
	TerminalCode     string
	SaleAmount       decimal.Decimal
	FeeAmount        decimal.Decimal
	BitstopFeeAmount decimal.Decimal
	OccurredOn       time.Time
}

// Profile is one time-bounded placement/configuration record for a machine.
// Several profiles may share a TerminalCode; their intervals are expected
// not to overlap (an upstream data contract, not enforced here).
type Profile struct {
	ID               uuid.UUID
	TerminalCode     string
	LocationName     string
	RepresentativeID *uuid.UUID
	MonthlyRent      decimal.Decimal
	CashMgmtFeeRep   decimal.Decimal
	CashMgmtFeeRPS   decimal.Decimal
	InstalledOn      *time.Time
	RemovedOn        *time.Time
}

// Representative is a sales representative's commission terms.
// GuaranteedPayout marks a representative who is credited for active
// machines even in months with zero transaction volume, and whose flat fee
// is the sum of per-machine cash management fees instead of a per-machine
// flat rate.
type Representative struct {
	ID               uuid.UUID
	Name             string
	CommissionPct    decimal.Decimal
	FlatMonthlyFee   decimal.Decimal
	GuaranteedPayout bool
}

// MachineKey identifies one machine at one location. The same terminal
// relocating mid-history produces distinct keys.
type MachineKey struct {
	TerminalCode string
	LocationName string
}

// MachineAggregate accumulates one machine's financials for the month.
type MachineAggregate struct {
	Key              MachineKey
	RepresentativeID *uuid.UUID
	TotalSales       decimal.Decimal
	TotalFees        decimal.Decimal
	TotalBitstopFees decimal.Decimal
	Rent             decimal.Decimal
	CashMgmtFeeRPS   decimal.Decimal
	CashMgmtFeeRep   decimal.Decimal
	MonthsActive     int
}

// NetProfit is the machine's fees collected minus pass-through costs.
func (a MachineAggregate) NetProfit() decimal.Decimal {
	return a.TotalFees.
		Sub(a.TotalBitstopFees).
		Sub(a.Rent).
		Sub(a.CashMgmtFeeRPS).
		Sub(a.CashMgmtFeeRep)
}

// Summary is one representative's commission result for the month.
type Summary struct {
	RepresentativeID uuid.UUID
	Month            time.Time
	AtmCount         int
	TotalSales       decimal.Decimal
	TotalFees        decimal.Decimal
	TotalBitstopFees decimal.Decimal
	TotalRent        decimal.Decimal
	TotalCashMgmtFee decimal.Decimal
	TotalNetProfit   decimal.Decimal
	CommissionAmount decimal.Decimal
	FlatFeeAmount    decimal.Decimal
	TotalCommission  decimal.Decimal
	Details          []Detail
}

// Detail is one machine's line under a Summary.
type Detail struct {
	Key              MachineKey
	TotalSales       decimal.Decimal
	TotalFees        decimal.Decimal
	TotalBitstopFees decimal.Decimal
	Rent             decimal.Decimal
	CashMgmtFeeRPS   decimal.Decimal
	CashMgmtFeeRep   decimal.Decimal
	NetProfit        decimal.Decimal
	CommissionAmount decimal.Decimal
}
