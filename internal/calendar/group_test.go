package calendar

import (
	"testing"
)

func TestGroupConsecutive_AdjacentMerge(t *testing.T) {
	events := []Event{
		timedEvent("a", 10, 0, 10, 30),
		timedEvent("b", 10, 30, 11, 0),
	}

	groups := GroupConsecutive(events)
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	g := groups[0]
	if len(g.Events) != 2 {
		t.Fatalf("group holds %d events, want 2", len(g.Events))
	}
	if g.StartTime != events[0].StartTime || g.EndTime != events[1].EndTime {
		t.Errorf("group spans [%d, %d], want [%d, %d]", g.StartTime, g.EndTime, events[0].StartTime, events[1].EndTime)
	}
}

func TestGroupConsecutive_GapDoesNotMerge(t *testing.T) {
	events := []Event{
		timedEvent("a", 10, 0, 10, 30),
		timedEvent("b", 10, 31, 11, 0), // 1-minute gap exceeds the 1s tolerance
	}

	groups := GroupConsecutive(events)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
}

func TestGroupConsecutive_OverlapDoesNotMerge(t *testing.T) {
	events := []Event{
		timedEvent("a", 10, 0, 11, 0),
		timedEvent("b", 10, 30, 11, 30), // overlaps, does not abut
	}

	groups := GroupConsecutive(events)
	if len(groups) != 2 {
		t.Fatalf("overlapping events merged: got %d groups, want 2", len(groups))
	}
}

func TestGroupConsecutive_ToleranceAbsorbsOneSecond(t *testing.T) {
	a := timedEvent("a", 10, 0, 10, 30)
	b := timedEvent("b", 10, 30, 11, 0)
	b.StartTime += 1000 // starts one second after the group ends

	groups := GroupConsecutive([]Event{a, b})
	if len(groups) != 1 {
		t.Fatalf("1s offset not absorbed: got %d groups", len(groups))
	}
}

func TestGroupConsecutive_ColorFixedBySeed(t *testing.T) {
	a := timedEvent("a", 9, 0, 10, 0)
	a.Color = "#123456"
	b := timedEvent("b", 10, 0, 11, 0)
	b.Color = "#abcdef"

	groups := GroupConsecutive([]Event{a, b})
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	if groups[0].Color != "#123456" {
		t.Errorf("group color = %q, want the seed's %q", groups[0].Color, "#123456")
	}
}

func TestGroupConsecutive_DefaultColorFromType(t *testing.T) {
	a := timedEvent("a", 9, 0, 10, 0)
	a.Type = TypeTask

	groups := GroupConsecutive([]Event{a})
	if groups[0].Color != DefaultColor(TypeTask) {
		t.Errorf("group color = %q, want %q", groups[0].Color, DefaultColor(TypeTask))
	}
}

func TestGroupConsecutive_SkipsInvalidEvents(t *testing.T) {
	events := []Event{
		{ID: "broken", Type: TypeMeeting}, // no timestamps
		timedEvent("a", 9, 0, 10, 0),
	}

	groups := GroupConsecutive(events)
	if len(groups) != 1 || groups[0].Events[0].ID != "a" {
		t.Fatalf("invalid event not skipped: %+v", groups)
	}
}

func TestGroupConsecutive_Idempotent(t *testing.T) {
	events := []Event{
		timedEvent("c", 11, 0, 11, 30),
		timedEvent("a", 10, 0, 10, 30),
		timedEvent("b", 10, 30, 11, 0),
	}

	first := GroupConsecutive(events)
	if len(first) != 1 {
		t.Fatalf("got %d groups, want 1", len(first))
	}

	second := GroupConsecutive(first[0].Events)
	if len(second) != 1 {
		t.Fatalf("regrouping changed the result: %d groups", len(second))
	}
	if second[0].StartTime != first[0].StartTime || second[0].EndTime != first[0].EndTime {
		t.Errorf("regrouping changed the span: [%d, %d] vs [%d, %d]",
			second[0].StartTime, second[0].EndTime, first[0].StartTime, first[0].EndTime)
	}
}

func TestGroupConsecutive_EmissionOrderIsCreationOrder(t *testing.T) {
	// The second group starts earlier in the afternoon but is created
	// after the morning chain's first block.
	events := []Event{
		timedEvent("m1", 9, 0, 10, 0),
		timedEvent("aft", 8, 0, 8, 30),
		timedEvent("m2", 10, 0, 11, 0),
	}

	groups := GroupConsecutive(events)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].Events[0].ID != "aft" {
		t.Errorf("first created group should seed from the earliest start, got %q", groups[0].Events[0].ID)
	}
}

func TestGroupLayout(t *testing.T) {
	g := GroupConsecutive([]Event{timedEvent("a", 9, 30, 11, 0)})[0]
	box := g.Layout(testDay().Location(), 64)

	if box.Top != 9.5*64 {
		t.Errorf("top = %v, want %v", box.Top, 9.5*64)
	}
	if box.Height != 1.5*64 {
		t.Errorf("height = %v, want %v", box.Height, 1.5*64)
	}
}
