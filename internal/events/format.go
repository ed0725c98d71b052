package events

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lukadfagundes/bwaincell-sub001/internal/schedule"
)

const digestCap = 25

// FormatDigest renders the weekly announcement text for a location and
// window. Events are listed chronologically; an empty week gets a fallback
// line instead of a bare header.
func FormatDigest(evs []Event, location string, w schedule.Window) string {
	loc := w.Start.Location()
	header := fmt.Sprintf("This week in %s (%s to %s):",
		location,
		w.Start.In(loc).Format("Mon Jan 2"),
		w.End.In(loc).Format("Mon Jan 2"),
	)

	if len(evs) == 0 {
		return header + "\nNothing on the calendar this week. Check back next Monday!"
	}

	sorted := make([]Event, len(evs))
	copy(sorted, evs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	var b strings.Builder
	b.WriteString(header)
	for i, e := range sorted {
		if i == digestCap {
			b.WriteString(fmt.Sprintf("\n...and %d more.", len(sorted)-digestCap))
			break
		}
		b.WriteString("\n- ")
		b.WriteString(e.Start.In(loc).Format("Mon Jan 2, 3:04 PM"))
		b.WriteString(": ")
		b.WriteString(e.Title)
		if e.Venue != "" {
			b.WriteString(" at ")
			b.WriteString(e.Venue)
		}
		if e.URL != "" {
			b.WriteString("\n  ")
			b.WriteString(e.URL)
		}
	}
	return b.String()
}
