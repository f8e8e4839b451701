package timeline

import (
	"time"

	"github.com/fathima-sithara/chat-client/internal/models"
)

// Entry is one display row: either a date-boundary marker (Marker != "") or
// a message. RunStart marks the first bubble of a consecutive run from the
// same sender, for bubble-grouping in the presentation layer.
type Entry struct {
	Marker   string
	Message  *models.Message
	RunStart bool
}

// WithMarkers renders the timeline with a date marker before every message
// whose calendar day differs from the previous message's day. Days are
// reckoned in now's location (the caller passes local time). Markers are
// derived on every call and carry no identity of their own.
func (s *Store) WithMarkers(now time.Time) []Entry {
	out := make([]Entry, 0, len(s.msgs)+4)
	loc := now.Location()
	var prevDay time.Time
	prevSender := ""
	afterMarker := false
	for i := range s.msgs {
		m := s.msgs[i]
		day := startOfDay(m.CreatedAt.In(loc))
		if !day.Equal(prevDay) {
			out = append(out, Entry{Marker: DateLabel(m.CreatedAt, now)})
			prevDay = day
			afterMarker = true
		}
		runStart := afterMarker || m.SenderID != prevSender
		msg := m
		out = append(out, Entry{Message: &msg, RunStart: runStart})
		prevSender = m.SenderID
		afterMarker = false
	}
	return out
}

// DateLabel names a calendar day relative to now: "Today", "Yesterday", the
// weekday name inside the last week, otherwise a short date. Days are
// reckoned in now's location.
func DateLabel(ts, now time.Time) string {
	day := startOfDay(ts.In(now.Location()))
	today := startOfDay(now)
	switch diff := int(today.Sub(day).Hours() / 24); {
	case diff <= 0:
		return "Today"
	case diff == 1:
		return "Yesterday"
	case diff < 7:
		return day.Weekday().String()
	default:
		return day.Format("Jan 2, 2006")
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
