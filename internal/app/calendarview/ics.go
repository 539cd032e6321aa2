package calendarview

import (
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/noteloom/workspace/internal/calendar"
)

// ExportICS serializes calendar items to an iCalendar feed. Synthetic
// due-date items are included so external calendars see them too.
func ExportICS(items []calendar.Event, now time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//noteloom//workspace//EN")

	for _, item := range items {
		if !item.HasValidTimes() {
			continue
		}
		ve := cal.AddEvent(item.ID)
		ve.SetDtStampTime(now)
		ve.SetSummary(item.Title)
		if item.Description != "" {
			ve.SetDescription(item.Description)
		}

		start := time.UnixMilli(item.StartTime).UTC()
		end := time.UnixMilli(item.EndTime).UTC()
		if item.IsAllDay {
			ve.SetAllDayStartAt(start)
			// DTEND on all-day events is exclusive.
			ve.SetAllDayEndAt(end.Add(time.Millisecond))
		} else {
			ve.SetStartAt(start)
			ve.SetEndAt(end)
		}
	}
	return cal.Serialize()
}
