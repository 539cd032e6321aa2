package calendar

import (
	"strings"
	"time"
)

// EventType classifies a calendar item.
type EventType string

const (
	TypeReminder  EventType = "reminder"
	TypeTimeBlock EventType = "timeblock"
	TypeMeeting   EventType = "meeting"
	TypeDeadline  EventType = "deadline"
	TypeTask      EventType = "task"
)

func (t EventType) Valid() bool {
	switch t {
	case TypeReminder, TypeTimeBlock, TypeMeeting, TypeDeadline, TypeTask:
		return true
	default:
		return false
	}
}

// Priority is the optional importance marker of an event.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// SyntheticIDPrefix marks items derived from document due dates. Ids with
// this prefix never exist in storage and must not be mutated or deleted.
const SyntheticIDPrefix = "doc-"

// IsSyntheticID reports whether id belongs to a due-date-derived item.
func IsSyntheticID(id string) bool {
	return strings.HasPrefix(id, SyntheticIDPrefix)
}

var typeColors = map[EventType]string{
	TypeReminder:  "#8b5cf6",
	TypeTimeBlock: "#06b6d4",
	TypeMeeting:   "#f59e0b",
	TypeDeadline:  "#ef4444",
	TypeTask:      "#10b981",
}

// DefaultColor returns the display color used when an event carries none.
func DefaultColor(t EventType) string {
	return typeColors[t]
}

// Event is a calendar item. Timestamps are milliseconds since epoch with
// StartTime <= EndTime. Synthetic items (due dates) are flagged and carry a
// SyntheticIDPrefix id.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartTime   int64     `json:"start_time"`
	EndTime     int64     `json:"end_time"`
	WorkspaceID string    `json:"workspace_id"`
	DocumentID  string    `json:"document_id,omitempty"`
	Type        EventType `json:"type"`
	Color       string    `json:"color,omitempty"`
	Priority    Priority  `json:"priority,omitempty"`
	IsAllDay    bool      `json:"is_all_day"`
	Synthetic   bool      `json:"synthetic,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasValidTimes reports whether the event carries usable timestamps.
// Malformed events are skipped by grouping and fragmentation, never fatal.
func (e Event) HasValidTimes() bool {
	return e.StartTime != 0 && e.EndTime != 0
}

// DisplayColor resolves the event's rendered color.
func (e Event) DisplayColor() string {
	if e.Color != "" {
		return e.Color
	}
	return DefaultColor(e.Type)
}
