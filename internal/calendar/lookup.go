package calendar

import "time"

// EventsForDay returns the items belonging to a calendar day: the item
// starts that day, ends that day, or spans it entirely. Items with missing
// timestamps are skipped.
func EventsForDay(items []Event, day time.Time) []Event {
	loc := day.Location()
	dayStart := StartOfDay(day).UnixMilli()
	dayEnd := EndOfDay(day).UnixMilli()

	matched := make([]Event, 0, len(items))
	for _, e := range items {
		if !e.HasValidTimes() {
			continue
		}
		start := timeFromMS(e.StartTime, loc)
		end := timeFromMS(e.EndTime, loc)
		if SameDay(day, start) || SameDay(day, end) ||
			(e.StartTime <= dayStart && e.EndTime >= dayEnd) {
			matched = append(matched, e)
		}
	}
	return matched
}

// EventsForHour returns the non-all-day items touching the hour slot
// [hh:00, hh:59]: the item starts in the slot, ends in the slot, or spans
// it.
func EventsForHour(items []Event, day time.Time, hour int) []Event {
	y, m, d := day.Date()
	slotStart := time.Date(y, m, d, hour, 0, 0, 0, day.Location()).UnixMilli()
	slotEnd := time.Date(y, m, d, hour, 59, 0, 0, day.Location()).UnixMilli()

	matched := make([]Event, 0, len(items))
	for _, e := range items {
		if !e.HasValidTimes() || e.IsAllDay {
			continue
		}
		startsIn := e.StartTime >= slotStart && e.StartTime <= slotEnd
		endsIn := e.EndTime >= slotStart && e.EndTime <= slotEnd
		spans := e.StartTime <= slotStart && e.EndTime >= slotEnd
		if startsIn || endsIn || spans {
			matched = append(matched, e)
		}
	}
	return matched
}
