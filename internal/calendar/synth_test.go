package calendar

import (
	"testing"
	"time"
)

func TestSynthesizeDueDates(t *testing.T) {
	due := time.Date(2024, 6, 15, 13, 45, 0, 0, time.UTC)
	window := ViewRange(ViewMonth, due)

	items := SynthesizeDueDates([]DueDate{
		{DocumentID: "d1", WorkspaceID: "ws-1", Title: "Ship report", DueDate: due.UnixMilli()},
	}, window)

	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	item := items[0]
	if item.ID != "doc-d1" {
		t.Errorf("id = %q, want doc-d1", item.ID)
	}
	if !item.Synthetic || !IsSyntheticID(item.ID) {
		t.Error("item not marked synthetic")
	}
	if !item.IsAllDay {
		t.Error("synthetic due dates must be all-day")
	}
	if item.Type != TypeDeadline || item.Priority != PriorityHigh {
		t.Errorf("type/priority = %v/%v", item.Type, item.Priority)
	}
	wantStart := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC).UnixMilli()
	wantEnd := time.Date(2024, 6, 15, 23, 59, 59, 999000000, time.UTC).UnixMilli()
	if item.StartTime != wantStart || item.EndTime != wantEnd {
		t.Errorf("span = [%d, %d], want [%d, %d]", item.StartTime, item.EndTime, wantStart, wantEnd)
	}
	if item.Description != "Due date for: Ship report" {
		t.Errorf("description = %q", item.Description)
	}
}

func TestSynthesizeDueDates_OutsideRangeSkipped(t *testing.T) {
	window := ViewRange(ViewMonth, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	july := time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC)

	items := SynthesizeDueDates([]DueDate{
		{DocumentID: "d1", DueDate: july.UnixMilli()},
		{DocumentID: "d2"}, // no due date at all
	}, window)

	if len(items) != 0 {
		t.Fatalf("got %d items, want 0", len(items))
	}
}

func TestSynthesizeDueDates_UntitledFallback(t *testing.T) {
	due := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	window := ViewRange(ViewDay, due)

	items := SynthesizeDueDates([]DueDate{{DocumentID: "d1", DueDate: due.UnixMilli()}}, window)
	if len(items) != 1 || items[0].Title != "Untitled" {
		t.Fatalf("untitled fallback missing: %+v", items)
	}
}
