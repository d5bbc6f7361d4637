package commission

import "log"

// AggregateTransactions folds a month of transactions into per-machine
// aggregates keyed by (terminal, location).
//
// Each transaction is matched to its profile via ResolveProfile; the first
// transaction seen for a key seeds the aggregate's recurring charges
// (rent and cash management fees scaled by MonthsActive), every
// transaction accumulates sale/fee/bitstop amounts. Transactions with no
// terminal code or no resolvable profile are skipped with a diagnostic —
// one bad upload row must not fail the whole run.
//
// After the transaction pass, representatives with GuaranteedPayout get a
// zero-sales aggregate for each of their machines that produced no
// transactions but was active in the month, so the fee component is
// credited even without volume.
func AggregateTransactions(txs []Transaction, profiles []Profile, reps []Representative, period Period) []MachineAggregate {
	index := make(map[MachineKey]int)
	var aggregates []MachineAggregate

	for _, tx := range txs {
		if tx.TerminalCode == "" {
			log.Printf("WARN: commission %s: transaction on %s has no terminal code, skipping",
				period, tx.OccurredOn.Format("2006-01-02"))
			continue
		}
		profile, ok := ResolveProfile(profiles, tx.TerminalCode, tx.OccurredOn)
		if !ok {
			log.Printf("WARN: commission %s: no profile for terminal %s, skipping transaction on %s",
				period, tx.TerminalCode, tx.OccurredOn.Format("2006-01-02"))
			continue
		}

		key := MachineKey{TerminalCode: tx.TerminalCode, LocationName: profile.LocationName}
		i, seen := index[key]
		if !seen {
			i = len(aggregates)
			index[key] = i
			aggregates = append(aggregates, newAggregate(key, profile, period))
		}

		agg := &aggregates[i]
		agg.TotalSales = agg.TotalSales.Add(tx.SaleAmount)
		agg.TotalFees = agg.TotalFees.Add(tx.FeeAmount)
		agg.TotalBitstopFees = agg.TotalBitstopFees.Add(tx.BitstopFeeAmount)
	}

	// Guaranteed representatives are paid the fee component on every active
	// machine, transactions or not.
	for _, rep := range reps {
		if !rep.GuaranteedPayout {
			continue
		}
		for i := range profiles {
			p := profiles[i]
			if p.RepresentativeID == nil || *p.RepresentativeID != rep.ID {
				continue
			}
			key := MachineKey{TerminalCode: p.TerminalCode, LocationName: p.LocationName}
			if _, seen := index[key]; seen {
				continue
			}
			if MonthsActive(p, period) == 0 {
				continue
			}
			index[key] = len(aggregates)
			aggregates = append(aggregates, newAggregate(key, p, period))
		}
	}

	return aggregates
}

// newAggregate seeds a zero-sales aggregate with the profile's recurring
// charges, attached once per machine rather than per transaction.
func newAggregate(key MachineKey, p Profile, period Period) MachineAggregate {
	months := MonthsActive(p, period)
	agg := MachineAggregate{
		Key:              key,
		RepresentativeID: p.RepresentativeID,
		MonthsActive:     months,
	}
	if months > 0 {
		agg.Rent = p.MonthlyRent
		agg.CashMgmtFeeRPS = p.CashMgmtFeeRPS
		agg.CashMgmtFeeRep = p.CashMgmtFeeRep
	}
	return agg
}
