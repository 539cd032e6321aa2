package calendarview

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/noteloom/workspace/internal/app/documents"
	"github.com/noteloom/workspace/internal/calendar"
)

type fakeEvents struct {
	events []calendar.Event
}

func (f *fakeEvents) QueryRange(_ context.Context, workspaceID string, startMS, endMS int64) ([]calendar.Event, error) {
	var result []calendar.Event
	for _, e := range f.events {
		if e.WorkspaceID != workspaceID {
			continue
		}
		if (e.StartTime >= startMS && e.StartTime <= endMS) ||
			(e.EndTime >= startMS && e.EndTime <= endMS) ||
			(e.StartTime <= startMS && e.EndTime >= endMS) {
			result = append(result, e)
		}
	}
	return result, nil
}

type fakeDues struct {
	docs []documents.Document
}

func (f *fakeDues) ListWithDueDates(_ context.Context, workspaceID string) ([]documents.Document, error) {
	var result []documents.Document
	for _, doc := range f.docs {
		if doc.WorkspaceID == workspaceID && doc.DueDate != nil {
			result = append(result, doc)
		}
	}
	return result, nil
}

var testDay = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

func atTime(hour, minute int) int64 {
	return time.Date(2024, 6, 15, hour, minute, 0, 0, time.UTC).UnixMilli()
}

func newTestService(events *fakeEvents, dues *fakeDues) *Service {
	svc := NewService(events, dues, calendar.DefaultConfig())
	svc.Now = func() time.Time { return testDay.Add(8 * time.Hour) }
	return svc
}

func TestBuildView_MergesStoredAndSyntheticItems(t *testing.T) {
	due := atTime(14, 0)
	events := &fakeEvents{events: []calendar.Event{{
		ID: "e1", WorkspaceID: "ws-1", Title: "Standup",
		StartTime: atTime(9, 0), EndTime: atTime(9, 15), Type: calendar.TypeMeeting,
	}}}
	dues := &fakeDues{docs: []documents.Document{{
		ID: "d1", WorkspaceID: "ws-1", Title: "Launch plan", DueDate: &due,
	}}}
	svc := newTestService(events, dues)

	vm, err := svc.BuildView(context.Background(), "ws-1", ViewRequest{
		View: calendar.ViewDay, Anchor: testDay, Types: calendar.AllTypes(),
	})
	if err != nil {
		t.Fatalf("BuildView returned error: %v", err)
	}
	if len(vm.Items) != 2 {
		t.Fatalf("expected stored + synthetic item, got %d", len(vm.Items))
	}
	var foundSynthetic bool
	for _, item := range vm.Items {
		if item.ID == "doc-d1" {
			foundSynthetic = true
			if !item.Synthetic || !item.IsAllDay || item.Type != calendar.TypeDeadline {
				t.Fatalf("synthetic item malformed: %+v", item)
			}
		}
	}
	if !foundSynthetic {
		t.Fatalf("due date should surface as a synthetic item: %+v", vm.Items)
	}
}

func TestBuildView_TypeFilterHidesEvents(t *testing.T) {
	events := &fakeEvents{events: []calendar.Event{
		{ID: "m1", WorkspaceID: "ws-1", Title: "Standup", StartTime: atTime(9, 0), EndTime: atTime(9, 15), Type: calendar.TypeMeeting},
		{ID: "t1", WorkspaceID: "ws-1", Title: "Review", StartTime: atTime(10, 0), EndTime: atTime(11, 0), Type: calendar.TypeTask},
	}}
	svc := newTestService(events, &fakeDues{})

	vm, err := svc.BuildView(context.Background(), "ws-1", ViewRequest{
		View: calendar.ViewDay, Anchor: testDay,
		Types: calendar.TypeFilter{Tasks: true},
	})
	if err != nil {
		t.Fatalf("BuildView returned error: %v", err)
	}
	if len(vm.Items) != 1 || vm.Items[0].ID != "t1" {
		t.Fatalf("type filter should keep only the task, got %+v", vm.Items)
	}
}

func TestBuildView_DueDatesBypassFilters(t *testing.T) {
	// Due-date items join after filtering: a disabled deadline flag or
	// focus mode hides stored events but never a document deadline.
	due := atTime(14, 0)
	events := &fakeEvents{events: []calendar.Event{{
		ID: "e1", WorkspaceID: "ws-1", Title: "Deep work",
		StartTime: atTime(9, 0), EndTime: atTime(11, 0), Type: calendar.TypeDeadline,
	}}}
	dues := &fakeDues{docs: []documents.Document{{
		ID: "d1", WorkspaceID: "ws-1", Title: "Launch plan", DueDate: &due,
	}}}
	svc := newTestService(events, dues)

	vm, err := svc.BuildView(context.Background(), "ws-1", ViewRequest{
		View: calendar.ViewDay, Anchor: testDay,
		Types: calendar.TypeFilter{Meetings: true, Tasks: true, Reminders: true, TimeBlocks: true},
	})
	if err != nil {
		t.Fatalf("BuildView returned error: %v", err)
	}
	if len(vm.Items) != 1 || vm.Items[0].ID != "doc-d1" {
		t.Fatalf("disabled deadline flag must hide the stored event but keep the due date, got %+v", vm.Items)
	}

	// Due date on a non-today day, focus mode in week view: stored events
	// not starting today vanish, the due date stays.
	svc.Now = func() time.Time { return testDay.AddDate(0, 0, 2).Add(8 * time.Hour) }
	vm, err = svc.BuildView(context.Background(), "ws-1", ViewRequest{
		View: calendar.ViewWeek, Anchor: testDay, Types: calendar.AllTypes(), FocusMode: true,
	})
	if err != nil {
		t.Fatalf("BuildView returned error: %v", err)
	}
	if len(vm.Items) != 1 || vm.Items[0].ID != "doc-d1" {
		t.Fatalf("focus mode must not hide the due date, got %+v", vm.Items)
	}
}

func TestBuildView_FocusModeIgnoredInDayView(t *testing.T) {
	// An event on a different day than "now": focus mode would hide it in
	// week view but must not apply in day view.
	otherDay := time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC)
	events := &fakeEvents{events: []calendar.Event{{
		ID: "e1", WorkspaceID: "ws-1", Title: "Past",
		StartTime: otherDay.UnixMilli(), EndTime: otherDay.Add(time.Hour).UnixMilli(),
		Type: calendar.TypeTask,
	}}}
	svc := newTestService(events, &fakeDues{})

	vm, err := svc.BuildView(context.Background(), "ws-1", ViewRequest{
		View: calendar.ViewDay, Anchor: otherDay, Types: calendar.AllTypes(), FocusMode: true,
	})
	if err != nil {
		t.Fatalf("BuildView returned error: %v", err)
	}
	if len(vm.Items) != 1 {
		t.Fatalf("focus mode must be ignored in day view, got %+v", vm.Items)
	}

	vm, err = svc.BuildView(context.Background(), "ws-1", ViewRequest{
		View: calendar.ViewWeek, Anchor: otherDay, Types: calendar.AllTypes(), FocusMode: true,
	})
	if err != nil {
		t.Fatalf("BuildView returned error: %v", err)
	}
	if len(vm.Items) != 0 {
		t.Fatalf("focus mode in week view should hide events not starting today, got %+v", vm.Items)
	}
}

func TestParseTypeFilter(t *testing.T) {
	f, err := parseTypeFilter("meeting,task")
	if err != nil {
		t.Fatalf("parseTypeFilter returned error: %v", err)
	}
	if !f.Meetings || !f.Tasks || f.Reminders || f.TimeBlocks || f.Deadlines {
		t.Fatalf("unexpected filter: %+v", f)
	}

	if _, err := parseTypeFilter("meeting,party"); err == nil {
		t.Fatalf("unknown type must be rejected")
	}

	f, err = parseTypeFilter("")
	if err != nil {
		t.Fatalf("parseTypeFilter returned error: %v", err)
	}
	if f != calendar.AllTypes() {
		t.Fatalf("empty list should keep all types visible: %+v", f)
	}
}

func TestExportICS(t *testing.T) {
	due := atTime(14, 0)
	events := &fakeEvents{events: []calendar.Event{{
		ID: "e1", WorkspaceID: "ws-1", Title: "Standup",
		StartTime: atTime(9, 0), EndTime: atTime(9, 15), Type: calendar.TypeMeeting,
	}}}
	dues := &fakeDues{docs: []documents.Document{{
		ID: "d1", WorkspaceID: "ws-1", Title: "Launch plan", DueDate: &due,
	}}}
	svc := newTestService(events, dues)

	items, err := svc.Items(context.Background(), "ws-1", calendar.ViewWeek, testDay)
	if err != nil {
		t.Fatalf("Items returned error: %v", err)
	}
	feed := ExportICS(items, svc.Now())

	if !strings.Contains(feed, "BEGIN:VCALENDAR") || !strings.Contains(feed, "END:VCALENDAR") {
		t.Fatalf("not a VCALENDAR feed:\n%s", feed)
	}
	if !strings.Contains(feed, "SUMMARY:Standup") {
		t.Fatalf("stored event missing from feed:\n%s", feed)
	}
	if !strings.Contains(feed, "UID:doc-d1") {
		t.Fatalf("synthetic due date missing from feed:\n%s", feed)
	}
}
