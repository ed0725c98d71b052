package schedule

import (
	"testing"
	"time"
)

func mustLoc(t *testing.T, tz string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(tz)
	if err != nil {
		t.Fatalf("load tz %s: %v", tz, err)
	}
	return loc
}

// 2026-01-05 is a Monday.

func TestNextMondayNoon(t *testing.T) {
	t.Parallel()
	loc := mustLoc(t, "Europe/Berlin")
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "monday morning stays today",
			now:  time.Date(2026, time.January, 5, 11, 0, 0, 0, loc),
			want: time.Date(2026, time.January, 5, 12, 0, 0, 0, loc),
		},
		{
			name: "monday noon exactly stays today",
			now:  time.Date(2026, time.January, 5, 12, 0, 0, 0, loc),
			want: time.Date(2026, time.January, 5, 12, 0, 0, 0, loc),
		},
		{
			name: "monday afternoon rolls a week",
			now:  time.Date(2026, time.January, 5, 13, 0, 0, 0, loc),
			want: time.Date(2026, time.January, 12, 12, 0, 0, 0, loc),
		},
		{
			name: "thursday targets upcoming monday",
			now:  time.Date(2026, time.January, 8, 9, 30, 0, 0, loc),
			want: time.Date(2026, time.January, 12, 12, 0, 0, 0, loc),
		},
		{
			name: "sunday night targets tomorrow",
			now:  time.Date(2026, time.January, 4, 23, 59, 0, 0, loc),
			want: time.Date(2026, time.January, 5, 12, 0, 0, 0, loc),
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := NextMondayNoon(tt.now, loc)
			if !got.Equal(tt.want) {
				t.Fatalf("NextMondayNoon = %v, want %v", got, tt.want)
			}
			if got.Weekday() != time.Monday {
				t.Fatalf("result is %v, want Monday", got.Weekday())
			}
		})
	}
}

func TestFollowingMondayEnd(t *testing.T) {
	t.Parallel()
	loc := mustLoc(t, "Europe/Berlin")
	start := time.Date(2026, time.January, 5, 12, 0, 0, 0, loc)
	got := FollowingMondayEnd(start, loc)
	want := time.Date(2026, time.January, 12, 11, 59, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("FollowingMondayEnd = %v, want %v", got, want)
	}
}

func TestEventWindowLength(t *testing.T) {
	t.Parallel()
	// No DST in UTC, so absolute duration equals the civil span.
	w := EventWindow(time.Date(2026, time.January, 7, 8, 0, 0, 0, time.UTC), time.UTC)
	want := 6*24*time.Hour + 23*time.Hour + 59*time.Minute
	if got := w.End.Sub(w.Start); got != want {
		t.Fatalf("window length = %v, want %v", got, want)
	}
}

func TestEventWindowShape(t *testing.T) {
	t.Parallel()
	zones := []string{"UTC", "America/New_York", "Asia/Tokyo", "Pacific/Auckland"}
	instants := []time.Time{
		time.Date(2026, time.January, 5, 3, 17, 0, 0, time.UTC),
		time.Date(2026, time.January, 9, 22, 45, 0, 0, time.UTC),
		time.Date(2026, time.June, 30, 12, 0, 0, 0, time.UTC),
	}
	for _, tz := range zones {
		loc := mustLoc(t, tz)
		for _, now := range instants {
			w := EventWindow(now, loc)

			s := w.Start.In(loc)
			if s.Weekday() != time.Monday || s.Hour() != 12 || s.Minute() != 0 {
				t.Fatalf("%s: start %v is not Monday 12:00", tz, s)
			}
			e := w.End.In(loc)
			if e.Weekday() != time.Monday || e.Hour() != 11 || e.Minute() != 59 {
				t.Fatalf("%s: end %v is not Monday 11:59", tz, e)
			}
			if w.Start.Before(now) {
				t.Fatalf("%s: start %v is before now %v", tz, w.Start, now)
			}
		}
	}
}

func TestEventWindowAcrossSpringForward(t *testing.T) {
	t.Parallel()
	// US DST begins 2026-03-08; the window starting Monday 2026-03-02 spans it.
	loc := mustLoc(t, "America/New_York")
	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, loc)
	w := EventWindow(now, loc)

	wantStart := time.Date(2026, time.March, 2, 12, 0, 0, 0, loc)
	wantEnd := time.Date(2026, time.March, 9, 11, 59, 0, 0, loc)
	if !w.Start.Equal(wantStart) || !w.End.Equal(wantEnd) {
		t.Fatalf("window = [%v, %v], want [%v, %v]", w.Start, w.End, wantStart, wantEnd)
	}

	civil := 6*24*time.Hour + 23*time.Hour + 59*time.Minute
	// Spring forward removes one absolute hour from the civil span.
	if got := w.End.Sub(w.Start); got != civil-time.Hour {
		t.Fatalf("absolute span = %v, want %v", got, civil-time.Hour)
	}
}
