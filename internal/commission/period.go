package commission

import (
	"fmt"
	"strconv"
	"time"
)

// Period is one calendar month of commission processing.
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod builds a Period from a month string ("3" or "03") and a year.
func ParsePeriod(month string, year int) (Period, error) {
	m, err := strconv.Atoi(month)
	if err != nil {
		return Period{}, fmt.Errorf("invalid month %q", month)
	}
	if m < 1 || m > 12 {
		return Period{}, fmt.Errorf("month must be between 1 and 12, got %d", m)
	}
	if year < 2000 || year > 2200 {
		return Period{}, fmt.Errorf("year out of range: %d", year)
	}
	return Period{Year: year, Month: time.Month(m)}, nil
}

// Start returns the first day of the month at midnight UTC.
// This is also the value persisted as a summary's month key, so date-only
// comparisons are free of timezone drift.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last day of the month at midnight UTC (inclusive bound).
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, -1)
}

func (p Period) String() string {
	return p.Start().Format("2006-01")
}
