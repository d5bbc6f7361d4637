package commission

import "time"

// ResolveProfile selects the profile covering a transaction date for a
// terminal. Profiles are scanned in stored order; the first whose
// [InstalledOn, RemovedOn] interval contains the date wins (a missing bound
// is open-ended on that side). When no interval matches, the terminal's
// first profile is returned regardless of date — legacy uploads predate
// consistent install dates. Returns false only when the terminal has no
// profile at all.
//
// Intervals for one terminal are assumed mutually non-overlapping; with
// overlapping data the first stored match wins.
func ResolveProfile(profiles []Profile, terminalCode string, date time.Time) (Profile, bool) {
	var fallback *Profile
	for i := range profiles {
		p := &profiles[i]
		if p.TerminalCode != terminalCode {
			continue
		}
		if fallback == nil {
			fallback = p
		}
		if profileCovers(p, date) {
			return *p, true
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return Profile{}, false
}

func profileCovers(p *Profile, date time.Time) bool {
	if p.InstalledOn != nil && date.Before(*p.InstalledOn) {
		return false
	}
	if p.RemovedOn != nil && date.After(*p.RemovedOn) {
		return false
	}
	return true
}
