// Package monitor runs the continuous flow scan loop during market
// hours and serves the operational HTTP endpoints.
package monitor

import "time"

// easternTime resolves America/New_York, falling back to a fixed UTC-5
// zone when the tz database is missing.
func easternTime() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}

// marketOpenMinutes and marketCloseMinutes bound the regular US equity
// session, minutes after midnight Eastern.
const (
	marketOpenMinutes  = 9*60 + 30
	marketCloseMinutes = 16 * 60
)

// MarketOpen reports whether t falls inside the regular session:
// weekdays 09:30..16:00 Eastern. Exchange holidays are not modeled; a
// holiday scan simply finds no fresh ticks.
func MarketOpen(t time.Time) bool {
	et := t.In(easternTime())
	switch et.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	minutes := et.Hour()*60 + et.Minute()
	return minutes >= marketOpenMinutes && minutes < marketCloseMinutes
}

// NextOpen returns the next session open at or after t.
func NextOpen(t time.Time) time.Time {
	et := t.In(easternTime())
	for {
		open := time.Date(et.Year(), et.Month(), et.Day(), 9, 30, 0, 0, et.Location())
		if et.Before(open) && open.Weekday() != time.Saturday && open.Weekday() != time.Sunday {
			return open
		}
		et = time.Date(et.Year(), et.Month(), et.Day(), 0, 0, 0, 0, et.Location()).AddDate(0, 0, 1)
	}
}
