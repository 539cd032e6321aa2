package calendar

import (
	"fmt"
	"strings"
	"time"
)

// View selects the visible window of the calendar.
type View string

const (
	ViewDay    View = "day"
	ViewWeek   View = "week"
	ViewMonth  View = "month"
	ViewAgenda View = "agenda"
)

// ParseView validates a view mode string.
func ParseView(raw string) (View, error) {
	switch v := View(strings.ToLower(strings.TrimSpace(raw))); v {
	case ViewDay, ViewWeek, ViewMonth, ViewAgenda:
		return v, nil
	case "":
		return ViewWeek, nil
	default:
		return "", fmt.Errorf("unknown view %q", raw)
	}
}

// Range is an inclusive visible window. End sits one millisecond before the
// next period starts, so [Start, End] covers the period exactly at the
// millisecond resolution the event timestamps use.
type Range struct {
	Start time.Time
	End   time.Time
}

func (r Range) StartMS() int64 { return r.Start.UnixMilli() }
func (r Range) EndMS() int64   { return r.End.UnixMilli() }

// ContainsMS reports whether a millisecond timestamp falls inside the range.
func (r Range) ContainsMS(ms int64) bool {
	return ms >= r.StartMS() && ms <= r.EndMS()
}

// ViewRange computes the visible window for a view mode anchored at a date.
// Weeks start on Sunday. Agenda uses the month as a look-ahead window.
func ViewRange(v View, anchor time.Time) Range {
	switch v {
	case ViewDay:
		return Range{Start: StartOfDay(anchor), End: EndOfDay(anchor)}
	case ViewWeek:
		return Range{Start: StartOfWeek(anchor), End: EndOfWeek(anchor)}
	default:
		return Range{Start: StartOfMonth(anchor), End: EndOfMonth(anchor)}
	}
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Millisecond)
}

func StartOfWeek(t time.Time) time.Time {
	d := StartOfDay(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

func EndOfWeek(t time.Time) time.Time {
	return EndOfDay(StartOfWeek(t).AddDate(0, 0, 6))
}

func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

func EndOfMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, 0).Add(-time.Millisecond)
}

// SameDay reports whether two instants fall on the same calendar day in a's
// location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

func timeFromMS(ms int64, loc *time.Location) time.Time {
	return time.UnixMilli(ms).In(loc)
}
