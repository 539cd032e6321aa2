package calendar

import (
	"time"
)

// timedEvent builds an event spanning [start, end) on 2024-06-15 UTC using
// hour:minute clock positions.
func timedEvent(id string, startHour, startMin, endHour, endMin int) Event {
	day := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	start := day.Add(time.Duration(startHour)*time.Hour + time.Duration(startMin)*time.Minute)
	end := day.Add(time.Duration(endHour)*time.Hour + time.Duration(endMin)*time.Minute)
	return Event{
		ID:          id,
		Title:       id,
		StartTime:   start.UnixMilli(),
		EndTime:     end.UnixMilli(),
		WorkspaceID: "ws-1",
		Type:        TypeMeeting,
	}
}

func testDay() time.Time {
	return time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
}
