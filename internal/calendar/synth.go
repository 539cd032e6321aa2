package calendar

// DueDate is a document's due date, the raw material for synthetic
// deadline items.
type DueDate struct {
	DocumentID  string
	WorkspaceID string
	Title       string
	DueDate     int64
}

// SynthesizeDueDates materializes one all-day, high-priority deadline item
// per due date falling inside the visible range. Synthetic items are never
// persisted; their ids carry SyntheticIDPrefix so mutation paths can refuse
// them.
func SynthesizeDueDates(dues []DueDate, r Range) []Event {
	items := make([]Event, 0, len(dues))
	for _, due := range dues {
		if due.DueDate == 0 || !r.ContainsMS(due.DueDate) {
			continue
		}
		title := due.Title
		if title == "" {
			title = "Untitled"
		}
		day := timeFromMS(due.DueDate, r.Start.Location())
		items = append(items, Event{
			ID:          SyntheticIDPrefix + due.DocumentID,
			Title:       title,
			Description: "Due date for: " + title,
			StartTime:   StartOfDay(day).UnixMilli(),
			EndTime:     EndOfDay(day).UnixMilli(),
			WorkspaceID: due.WorkspaceID,
			DocumentID:  due.DocumentID,
			Type:        TypeDeadline,
			Color:       DefaultColor(TypeDeadline),
			Priority:    PriorityHigh,
			IsAllDay:    true,
			Synthetic:   true,
		})
	}
	return items
}
