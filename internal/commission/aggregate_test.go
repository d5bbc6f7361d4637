package commission

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func tx(terminal string, sale, fee, bitstop string, y int, m time.Month, d int) Transaction {
	return Transaction{
		TerminalCode:     terminal,
		SaleAmount:       dec(sale),
		FeeAmount:        dec(fee),
		BitstopFeeAmount: dec(bitstop),
		OccurredOn:       date(y, m, d),
	}
}

func findAggregate(t *testing.T, aggs []MachineAggregate, key MachineKey) MachineAggregate {
	t.Helper()
	for _, a := range aggs {
		if a.Key == key {
			return a
		}
	}
	t.Fatalf("no aggregate for key %+v", key)
	return MachineAggregate{}
}

func TestAggregateTransactions(t *testing.T) {
	repID := uuid.New()
	period := mustPeriod(t, "3", 2024)

	profile := Profile{
		ID:               uuid.New(),
		TerminalCode:     "A1",
		LocationName:     "Corner Store",
		RepresentativeID: &repID,
		MonthlyRent:      dec("50"),
		CashMgmtFeeRPS:   dec("10"),
		CashMgmtFeeRep:   dec("5"),
		InstalledOn:      datePtr(2024, time.January, 1),
	}

	txs := []Transaction{
		tx("A1", "600", "60", "0", 2024, time.March, 5),
		tx("A1", "400", "40", "0", 2024, time.March, 20),
		tx("", "100", "10", "0", 2024, time.March, 7),   // no terminal code
		tx("Z9", "100", "10", "0", 2024, time.March, 8), // no profile
	}

	aggs := AggregateTransactions(txs, []Profile{profile}, nil, period)
	if len(aggs) != 1 {
		t.Fatalf("expected 1 aggregate, got %d", len(aggs))
	}

	agg := aggs[0]
	if agg.Key != (MachineKey{TerminalCode: "A1", LocationName: "Corner Store"}) {
		t.Errorf("unexpected key: %+v", agg.Key)
	}
	if !agg.TotalSales.Equal(dec("1000")) {
		t.Errorf("total sales: got %s, want 1000", agg.TotalSales)
	}
	if !agg.TotalFees.Equal(dec("100")) {
		t.Errorf("total fees: got %s, want 100", agg.TotalFees)
	}
	// Recurring charges attach once, not per transaction.
	if !agg.Rent.Equal(dec("50")) || !agg.CashMgmtFeeRPS.Equal(dec("10")) || !agg.CashMgmtFeeRep.Equal(dec("5")) {
		t.Errorf("recurring charges: rent=%s rps=%s rep=%s", agg.Rent, agg.CashMgmtFeeRPS, agg.CashMgmtFeeRep)
	}
	if !agg.NetProfit().Equal(dec("35")) {
		t.Errorf("net profit: got %s, want 35", agg.NetProfit())
	}
}

func TestAggregateTransactions_InstallMonthHasNoCharges(t *testing.T) {
	period := mustPeriod(t, "3", 2024)
	profile := Profile{
		TerminalCode: "A1",
		LocationName: "Corner Store",
		MonthlyRent:  dec("50"),
		InstalledOn:  datePtr(2024, time.March, 15),
	}

	aggs := AggregateTransactions(
		[]Transaction{tx("A1", "100", "10", "0", 2024, time.March, 20)},
		[]Profile{profile}, nil, period)

	agg := findAggregate(t, aggs, MachineKey{TerminalCode: "A1", LocationName: "Corner Store"})
	if !agg.Rent.IsZero() {
		t.Errorf("install-month rent should be zero, got %s", agg.Rent)
	}
	if agg.MonthsActive != 0 {
		t.Errorf("months active: got %d, want 0", agg.MonthsActive)
	}
	// Transaction amounts still accumulate.
	if !agg.TotalFees.Equal(dec("10")) {
		t.Errorf("fees: got %s, want 10", agg.TotalFees)
	}
}

func TestAggregateTransactions_GuaranteedRepZeroSales(t *testing.T) {
	repID := uuid.New()
	otherRepID := uuid.New()
	period := mustPeriod(t, "3", 2024)

	reps := []Representative{
		{ID: repID, Name: "Guaranteed Rep", GuaranteedPayout: true},
		{ID: otherRepID, Name: "Regular Rep"},
	}
	profiles := []Profile{
		{
			TerminalCode:     "A2",
			LocationName:     "Quiet Laundromat",
			RepresentativeID: &repID,
			CashMgmtFeeRep:   dec("40"),
			InstalledOn:      datePtr(2024, time.January, 1),
		},
		{
			// Same representative but removed long ago: not credited.
			TerminalCode:     "A3",
			LocationName:     "Closed Bar",
			RepresentativeID: &repID,
			CashMgmtFeeRep:   dec("40"),
			InstalledOn:      datePtr(2022, time.January, 1),
			RemovedOn:        datePtr(2023, time.June, 1),
		},
		{
			// Regular representative's unsold machine: not credited.
			TerminalCode:     "B1",
			LocationName:     "Diner",
			RepresentativeID: &otherRepID,
			CashMgmtFeeRep:   dec("15"),
			InstalledOn:      datePtr(2024, time.January, 1),
		},
	}

	aggs := AggregateTransactions(nil, profiles, reps, period)
	if len(aggs) != 1 {
		t.Fatalf("expected 1 zero-sales aggregate, got %d", len(aggs))
	}

	agg := aggs[0]
	if agg.Key.TerminalCode != "A2" {
		t.Fatalf("expected aggregate for A2, got %s", agg.Key.TerminalCode)
	}
	if !agg.TotalSales.IsZero() || !agg.TotalFees.IsZero() {
		t.Errorf("zero-sales aggregate has sales=%s fees=%s", agg.TotalSales, agg.TotalFees)
	}
	if !agg.NetProfit().Equal(dec("-40")) {
		t.Errorf("net profit: got %s, want -40", agg.NetProfit())
	}
}

func TestAggregateTransactions_GuaranteedRepNotDuplicated(t *testing.T) {
	repID := uuid.New()
	period := mustPeriod(t, "3", 2024)

	reps := []Representative{{ID: repID, GuaranteedPayout: true}}
	profiles := []Profile{{
		TerminalCode:     "A1",
		LocationName:     "Corner Store",
		RepresentativeID: &repID,
		CashMgmtFeeRep:   dec("5"),
		InstalledOn:      datePtr(2024, time.January, 1),
	}}

	aggs := AggregateTransactions(
		[]Transaction{tx("A1", "100", "10", "0", 2024, time.March, 1)},
		profiles, reps, period)

	if len(aggs) != 1 {
		t.Fatalf("machine with transactions must not get a second zero-sales aggregate, got %d", len(aggs))
	}
	if !aggs[0].TotalSales.Equal(dec("100")) {
		t.Errorf("sales: got %s, want 100", aggs[0].TotalSales)
	}
}

func TestAggregateTransactions_RelocatedTerminalSplitsByLocation(t *testing.T) {
	period := mustPeriod(t, "3", 2024)
	profiles := []Profile{
		{
			TerminalCode: "A1",
			LocationName: "Old Spot",
			InstalledOn:  datePtr(2023, time.January, 1),
			RemovedOn:    datePtr(2024, time.March, 10),
		},
		{
			TerminalCode: "A1",
			LocationName: "New Spot",
			InstalledOn:  datePtr(2024, time.March, 11),
		},
	}

	aggs := AggregateTransactions(
		[]Transaction{
			tx("A1", "100", "10", "0", 2024, time.March, 5),
			tx("A1", "200", "20", "0", 2024, time.March, 20),
		},
		profiles, nil, period)

	if len(aggs) != 2 {
		t.Fatalf("expected 2 aggregates for relocated terminal, got %d", len(aggs))
	}
	old := findAggregate(t, aggs, MachineKey{TerminalCode: "A1", LocationName: "Old Spot"})
	if !old.TotalFees.Equal(dec("10")) {
		t.Errorf("old spot fees: got %s, want 10", old.TotalFees)
	}
	renewed := findAggregate(t, aggs, MachineKey{TerminalCode: "A1", LocationName: "New Spot"})
	if !renewed.TotalFees.Equal(dec("20")) {
		t.Errorf("new spot fees: got %s, want 20", renewed.TotalFees)
	}
}
