package calendar

import (
	"sort"
	"time"
)

// Config bundles the engine settings one aggregation pass needs.
type Config struct {
	Fragmentation FragmentationConfig
	HourScale     float64
	Location      *time.Location
}

// DefaultConfig returns the stock engine configuration in UTC.
func DefaultConfig() Config {
	return Config{
		Fragmentation: DefaultFragmentationConfig(),
		HourScale:     64,
		Location:      time.UTC,
	}
}

// PlacedGroup is a merged event cluster with its grid placement.
type PlacedGroup struct {
	Group
	Box Box `json:"box"`
}

// HourSlot lists the items touching one hour of a day grid.
type HourSlot struct {
	Hour   int     `json:"hour"`
	Events []Event `json:"events,omitempty"`
}

// DayCell is everything a calendar view renders for one day.
type DayCell struct {
	Date          string        `json:"date"`
	Today         bool          `json:"today"`
	InMonth       bool          `json:"in_month"`
	AllDay        []Event       `json:"all_day,omitempty"`
	Events        []Event       `json:"events"`
	Groups        []PlacedGroup `json:"groups,omitempty"`
	Hours         []HourSlot    `json:"hours,omitempty"`
	Fragmentation Fragmentation `json:"fragmentation"`
}

// ViewModel is the derived model a calendar view renders: the visible
// range, the combined item set, and per-day cells.
type ViewModel struct {
	View       View      `json:"view"`
	RangeStart int64     `json:"range_start"`
	RangeEnd   int64     `json:"range_end"`
	Items      []Event   `json:"items"`
	Days       []DayCell `json:"days"`
}

// BuildViewModel derives the render model for a view anchored at a date.
// Items are the already filtered and synthesized calendar items. The pass
// is pure: inputs are never mutated.
//
// Day and week cells carry merged groups with grid placement; day cells
// additionally carry hour slots. Month cells span the grid from the Sunday
// before the month to the Saturday after it. Agenda cells cover the month
// and omit empty days.
func BuildViewModel(items []Event, v View, anchor, now time.Time, cfg Config) ViewModel {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	anchor = anchor.In(cfg.Location)
	now = now.In(cfg.Location)
	window := ViewRange(v, anchor)

	var gridStart, gridEnd time.Time
	switch v {
	case ViewDay:
		gridStart, gridEnd = window.Start, window.Start
	case ViewWeek:
		gridStart, gridEnd = window.Start, StartOfDay(window.End)
	case ViewMonth:
		gridStart, gridEnd = StartOfWeek(window.Start), StartOfDay(EndOfWeek(window.End))
	default:
		gridStart, gridEnd = window.Start, StartOfDay(window.End)
	}

	vm := ViewModel{
		View:       v,
		RangeStart: window.StartMS(),
		RangeEnd:   window.EndMS(),
		Items:      items,
	}

	for day := gridStart; !day.After(gridEnd); day = day.AddDate(0, 0, 1) {
		cell := buildDayCell(items, v, day, anchor, now, cfg)
		if v == ViewAgenda && len(cell.Events) == 0 {
			continue
		}
		vm.Days = append(vm.Days, cell)
	}
	return vm
}

func buildDayCell(items []Event, v View, day, anchor, now time.Time, cfg Config) DayCell {
	dayItems := EventsForDay(items, day)
	sort.SliceStable(dayItems, func(i, j int) bool {
		return dayItems[i].StartTime < dayItems[j].StartTime
	})

	cell := DayCell{
		Date:          day.Format("2006-01-02"),
		Today:         SameDay(day, now),
		InMonth:       day.Month() == anchor.Month() && day.Year() == anchor.Year(),
		Events:        dayItems,
		Fragmentation: Fragment(dayItems, cfg.Fragmentation),
	}

	if v != ViewDay && v != ViewWeek {
		return cell
	}

	var timed []Event
	for _, e := range dayItems {
		if e.IsAllDay {
			cell.AllDay = append(cell.AllDay, e)
		} else {
			timed = append(timed, e)
		}
	}
	for _, g := range GroupConsecutive(timed) {
		cell.Groups = append(cell.Groups, PlacedGroup{
			Group: g,
			Box:   g.Layout(cfg.Location, cfg.HourScale),
		})
	}
	if v == ViewDay {
		for hour := 0; hour < 24; hour++ {
			cell.Hours = append(cell.Hours, HourSlot{
				Hour:   hour,
				Events: EventsForHour(dayItems, day, hour),
			})
		}
	}
	return cell
}
