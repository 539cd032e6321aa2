package calendar

import (
	"sort"
	"time"
)

// AdjacencyToleranceMS absorbs clock-precision noise when deciding whether
// an event starts exactly where a group ends.
const AdjacencyToleranceMS = 1000

// Group is a rendered cluster of back-to-back events. The color is fixed by
// the seeding event and never changes as later events merge in.
type Group struct {
	Events    []Event `json:"events"`
	StartTime int64   `json:"start_time"`
	EndTime   int64   `json:"end_time"`
	Color     string  `json:"color"`
}

// GroupConsecutive merges strictly adjacent events into groups. An event
// attaches to the first group whose current end lies within the tolerance
// of the event's start; otherwise it seeds a new group. Events that merely
// overlap a group are NOT merged and remain separate groups, which can
// render as stacked blocks. Groups come back in creation order, not
// re-sorted after merging.
func GroupConsecutive(events []Event) []Group {
	if len(events) == 0 {
		return nil
	}

	sorted := make([]Event, 0, len(events))
	for _, e := range events {
		if e.HasValidTimes() {
			sorted = append(sorted, e)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime < sorted[j].StartTime
	})

	var groups []Group
	for _, e := range sorted {
		attached := false
		for i := range groups {
			gap := groups[i].EndTime - e.StartTime
			if gap < 0 {
				gap = -gap
			}
			if gap <= AdjacencyToleranceMS {
				groups[i].Events = append(groups[i].Events, e)
				if e.EndTime > groups[i].EndTime {
					groups[i].EndTime = e.EndTime
				}
				attached = true
				break
			}
		}
		if !attached {
			groups = append(groups, Group{
				Events:    []Event{e},
				StartTime: e.StartTime,
				EndTime:   e.EndTime,
				Color:     e.DisplayColor(),
			})
		}
	}
	return groups
}

// Box is a vertical placement on a time-axis grid, in layout units.
type Box struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// Layout positions a group on a day grid scaled at hourScale units per
// hour, measured in minutes since midnight of the group's day.
func (g Group) Layout(loc *time.Location, hourScale float64) Box {
	start := timeFromMS(g.StartTime, loc)
	end := timeFromMS(g.EndTime, loc)

	startMinutes := float64(start.Hour()*60 + start.Minute())
	endMinutes := float64(end.Hour()*60 + end.Minute())

	return Box{
		Top:    startMinutes / 60 * hourScale,
		Height: (endMinutes - startMinutes) / 60 * hourScale,
	}
}
