package commission

import "time"

// MonthsActive reports whether a profile incurs its recurring charges
// (rent, cash management fees) in the given month: 1 or 0, never a
// fraction.
//
// Charging starts with the first full month after installation — a machine
// installed mid-month pays nothing for the partial month — and ends with
// the month of removal. Formally: the effective start is the first day of
// the month following InstalledOn, clamped to no earlier than the period
// start; the effective end is RemovedOn when it precedes the period end,
// else the period end. The profile is active iff the adjusted interval
// overlaps the month.
func MonthsActive(p Profile, period Period) int {
	monthStart := period.Start()
	monthEnd := period.End()

	effectiveStart := monthStart
	if p.InstalledOn != nil {
		firstFullMonth := firstOfNextMonth(*p.InstalledOn)
		if firstFullMonth.After(effectiveStart) {
			effectiveStart = firstFullMonth
		}
	}

	effectiveEnd := monthEnd
	if p.RemovedOn != nil && p.RemovedOn.Before(monthEnd) {
		effectiveEnd = *p.RemovedOn
	}

	if !effectiveStart.After(monthEnd) && !effectiveEnd.Before(monthStart) {
		return 1
	}
	return 0
}

func firstOfNextMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}
