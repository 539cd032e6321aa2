package calendar

import "time"

// TypeFilter toggles event visibility per type. The zero value hides
// everything; use AllTypes for the default all-visible filter.
type TypeFilter struct {
	Reminders  bool
	TimeBlocks bool
	Meetings   bool
	Deadlines  bool
	Tasks      bool
}

// AllTypes returns a filter with every event type enabled.
func AllTypes() TypeFilter {
	return TypeFilter{Reminders: true, TimeBlocks: true, Meetings: true, Deadlines: true, Tasks: true}
}

// Allows reports whether events of type t pass the filter.
func (f TypeFilter) Allows(t EventType) bool {
	switch t {
	case TypeReminder:
		return f.Reminders
	case TypeTimeBlock:
		return f.TimeBlocks
	case TypeMeeting:
		return f.Meetings
	case TypeDeadline:
		return f.Deadlines
	case TypeTask:
		return f.Tasks
	default:
		return false
	}
}

// FilterOptions drive one filtering pass.
type FilterOptions struct {
	Types TypeFilter

	// FocusMode restricts the calendar to events starting today. It is a
	// no-op in day view, which already shows a single day.
	FocusMode bool
	View      View
	Today     time.Time
}

// Filter drops events whose type flag is off, then applies focus mode.
// Input order is preserved; the input slice is never mutated.
func Filter(events []Event, opts FilterOptions) []Event {
	filtered := make([]Event, 0, len(events))
	for _, e := range events {
		if !opts.Types.Allows(e.Type) {
			continue
		}
		filtered = append(filtered, e)
	}

	if !opts.FocusMode || opts.View == ViewDay {
		return filtered
	}

	today := StartOfDay(opts.Today)
	focused := filtered[:0]
	for _, e := range filtered {
		if SameDay(today, timeFromMS(e.StartTime, today.Location())) {
			focused = append(focused, e)
		}
	}
	return focused
}
