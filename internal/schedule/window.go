package schedule

import "time"

// Window is the weekly announcement range: Monday noon through the following
// Monday 11:59, civil time in one timezone.
type Window struct {
	Start time.Time
	End   time.Time
}

// NextMondayNoon returns the upcoming Monday at 12:00 local time in loc.
// When now is a Monday at or before 12:00:00 local, today's noon is returned.
// All arithmetic is civil so the zone database handles DST shifts.
func NextMondayNoon(now time.Time, loc *time.Location) time.Time {
	local := now.In(loc)
	daysAhead := (int(time.Monday) - int(local.Weekday()) + 7) % 7
	if daysAhead == 0 {
		noon := time.Date(local.Year(), local.Month(), local.Day(), 12, 0, 0, 0, loc)
		if !local.After(noon) {
			return noon
		}
		daysAhead = 7
	}
	d := local.AddDate(0, 0, daysAhead)
	return time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, loc)
}

// FollowingMondayEnd returns the instant 7 civil days after start, at
// 11:59:00 local time in loc.
func FollowingMondayEnd(start time.Time, loc *time.Location) time.Time {
	d := start.In(loc).AddDate(0, 0, 7)
	return time.Date(d.Year(), d.Month(), d.Day(), 11, 59, 0, 0, loc)
}

// EventWindow composes the canonical announcement window around now:
// 6 days 23 hours 59 minutes of civil time starting at a Monday noon.
func EventWindow(now time.Time, loc *time.Location) Window {
	start := NextMondayNoon(now, loc)
	return Window{Start: start, End: FollowingMondayEnd(start, loc)}
}
