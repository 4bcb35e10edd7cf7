// Package weekwindow provides the timezone-aware day/week boundary and
// schedule-window math used by search status rollups and the runner.
package weekwindow

import (
	"time"

	"github.com/shifthunter/backend/internal/db"
)

// Location resolves an IANA timezone identifier, falling back to UTC
// when it is empty or unknown.
func Location(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DayStart returns midnight of now's calendar day in the given timezone.
func DayStart(now time.Time, tz string) time.Time {
	local := now.In(Location(tz))
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, local.Location())
}

// WeekStart returns the most recent Sunday 00:00 (inclusive) in the
// given timezone. Offers decided at or after this instant count toward
// the current week.
func WeekStart(now time.Time, tz string) time.Time {
	dayStart := DayStart(now, tz)
	// time.Weekday numbers Sunday as 0
	return dayStart.AddDate(0, 0, -int(dayStart.Weekday()))
}

// WithinSchedule reports whether now falls inside the enabled window
// for its weekday. A nil schedule or a weekday with no entry imposes no
// restriction; a disabled weekday always reports false. Window bounds
// are "HH:MM" strings compared inclusively in the given timezone.
func WithinSchedule(sched db.WeekSchedule, tz string, now time.Time) bool {
	if sched == nil {
		return true
	}

	local := now.In(Location(tz))
	day, ok := sched[weekdayKey(local.Weekday())]
	if !ok {
		return true
	}
	if !day.Enabled {
		return false
	}

	start, okStart := parseClock(day.StartTime)
	end, okEnd := parseClock(day.EndTime)
	if !okStart || !okEnd {
		return true
	}

	minuteOfDay := local.Hour()*60 + local.Minute()
	return minuteOfDay >= start && minuteOfDay <= end
}

func weekdayKey(d time.Weekday) string {
	switch d {
	case time.Sunday:
		return "sunday"
	case time.Monday:
		return "monday"
	case time.Tuesday:
		return "tuesday"
	case time.Wednesday:
		return "wednesday"
	case time.Thursday:
		return "thursday"
	case time.Friday:
		return "friday"
	default:
		return "saturday"
	}
}

// parseClock converts "HH:MM" to a minute-of-day value.
func parseClock(s string) (int, bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}
