package commission

import (
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// DistributeCommissions rolls machine aggregates up into one Summary per
// representative and splits each representative's commission pool across
// their machines in proportion to net profit.
//
// Aggregates without a resolvable representative are skipped with a
// diagnostic. The pool is commission_pct percent of total net profit when
// that total is positive, zero otherwise — no commission is owed on a net
// loss. With a non-zero total, each detail receives
// (net_profit / total_net_profit) * pool; machines with mixed-sign profits
// can therefore receive a negative share or more than their proportional
// share, which is the defined behavior of a linear split. The flat fee is
// the sum of per-machine cash management fees for guaranteed
// representatives, machine count times the flat monthly rate for everyone
// else.
func DistributeCommissions(aggregates []MachineAggregate, reps []Representative, period Period) []Summary {
	repByID := make(map[uuid.UUID]Representative, len(reps))
	for _, r := range reps {
		repByID[r.ID] = r
	}

	index := make(map[uuid.UUID]int)
	var summaries []Summary

	for _, agg := range aggregates {
		if agg.RepresentativeID == nil {
			log.Printf("WARN: commission %s: terminal %s at %q has no representative, skipping",
				period, agg.Key.TerminalCode, agg.Key.LocationName)
			continue
		}
		rep, ok := repByID[*agg.RepresentativeID]
		if !ok {
			log.Printf("WARN: commission %s: terminal %s references unknown representative %s, skipping",
				period, agg.Key.TerminalCode, agg.RepresentativeID)
			continue
		}

		i, seen := index[rep.ID]
		if !seen {
			i = len(summaries)
			index[rep.ID] = i
			summaries = append(summaries, Summary{
				RepresentativeID: rep.ID,
				Month:            period.Start(),
			})
		}

		netProfit := agg.NetProfit()
		s := &summaries[i]
		s.AtmCount++
		s.TotalSales = s.TotalSales.Add(agg.TotalSales)
		s.TotalFees = s.TotalFees.Add(agg.TotalFees)
		s.TotalBitstopFees = s.TotalBitstopFees.Add(agg.TotalBitstopFees)
		s.TotalRent = s.TotalRent.Add(agg.Rent)
		s.TotalCashMgmtFee = s.TotalCashMgmtFee.Add(agg.CashMgmtFeeRPS).Add(agg.CashMgmtFeeRep)
		s.TotalNetProfit = s.TotalNetProfit.Add(netProfit)

		if rep.GuaranteedPayout {
			s.FlatFeeAmount = s.FlatFeeAmount.Add(agg.CashMgmtFeeRep)
		} else {
			s.FlatFeeAmount = rep.FlatMonthlyFee.Mul(decimal.NewFromInt(int64(s.AtmCount)))
		}

		s.Details = append(s.Details, Detail{
			Key:              agg.Key,
			TotalSales:       agg.TotalSales,
			TotalFees:        agg.TotalFees,
			TotalBitstopFees: agg.TotalBitstopFees,
			Rent:             agg.Rent,
			CashMgmtFeeRPS:   agg.CashMgmtFeeRPS,
			CashMgmtFeeRep:   agg.CashMgmtFeeRep,
			NetProfit:        netProfit,
		})
	}

	for i := range summaries {
		s := &summaries[i]
		rep := repByID[s.RepresentativeID]

		if s.TotalNetProfit.IsPositive() {
			s.CommissionAmount = s.TotalNetProfit.Mul(rep.CommissionPct).Div(oneHundred)
		} else {
			s.CommissionAmount = decimal.Zero
		}

		for j := range s.Details {
			d := &s.Details[j]
			if s.TotalNetProfit.IsZero() {
				d.CommissionAmount = decimal.Zero
				continue
			}
			d.CommissionAmount = d.NetProfit.Div(s.TotalNetProfit).Mul(s.CommissionAmount)
		}

		s.TotalCommission = s.CommissionAmount.Add(s.FlatFeeAmount)
	}

	return summaries
}
