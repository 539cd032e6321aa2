package calendarview

import (
	"context"
	"time"

	"github.com/noteloom/workspace/internal/app/documents"
	"github.com/noteloom/workspace/internal/calendar"
	"github.com/noteloom/workspace/internal/platform/metrics"
)

// EventSource supplies stored calendar events intersecting a time range.
type EventSource interface {
	QueryRange(ctx context.Context, workspaceID string, startMS, endMS int64) ([]calendar.Event, error)
}

// DueDateSource supplies documents carrying a due date.
type DueDateSource interface {
	ListWithDueDates(ctx context.Context, workspaceID string) ([]documents.Document, error)
}

// Service aggregates stored events and document due dates into the derived
// calendar view model.
type Service struct {
	Events EventSource
	Dues   DueDateSource
	Engine calendar.Config
	Now    func() time.Time
}

func NewService(events EventSource, dues DueDateSource, engine calendar.Config) *Service {
	if engine.Location == nil {
		engine.Location = time.UTC
	}
	return &Service{
		Events: events,
		Dues:   dues,
		Engine: engine,
		Now:    func() time.Time { return time.Now().UTC() },
	}
}

// ViewRequest describes one aggregation pass.
type ViewRequest struct {
	View      calendar.View
	Anchor    time.Time
	Types     calendar.TypeFilter
	FocusMode bool
}

// BuildView runs the full pipeline: fetch stored events for the visible
// range, filter them, then append synthetic due-date items and derive the
// view model. Synthetics join after filtering so a document deadline stays
// visible even when the deadline type flag is off or focus mode is active.
func (s *Service) BuildView(ctx context.Context, workspaceID string, req ViewRequest) (calendar.ViewModel, error) {
	window := calendar.ViewRange(req.View, req.Anchor.In(s.Engine.Location))

	stored, err := s.Events.QueryRange(ctx, workspaceID, window.StartMS(), window.EndMS())
	if err != nil {
		return calendar.ViewModel{}, err
	}

	now := s.Now().In(s.Engine.Location)
	filtered := calendar.Filter(stored, calendar.FilterOptions{
		Types:     req.Types,
		FocusMode: req.FocusMode,
		View:      req.View,
		Today:     now,
	})

	synthetic, err := s.syntheticItems(ctx, workspaceID, window)
	if err != nil {
		return calendar.ViewModel{}, err
	}
	items := append(filtered, synthetic...)

	vm := calendar.BuildViewModel(items, req.View, req.Anchor, now, s.Engine)
	metrics.ObserveCalendarAggregation(string(req.View))
	return vm, nil
}

// Items returns the combined stored and synthetic item set for a view range
// without filtering. Used by the ICS export.
func (s *Service) Items(ctx context.Context, workspaceID string, v calendar.View, anchor time.Time) ([]calendar.Event, error) {
	window := calendar.ViewRange(v, anchor.In(s.Engine.Location))

	stored, err := s.Events.QueryRange(ctx, workspaceID, window.StartMS(), window.EndMS())
	if err != nil {
		return nil, err
	}

	synthetic, err := s.syntheticItems(ctx, workspaceID, window)
	if err != nil {
		return nil, err
	}
	return append(stored, synthetic...), nil
}

func (s *Service) syntheticItems(ctx context.Context, workspaceID string, window calendar.Range) ([]calendar.Event, error) {
	docs, err := s.Dues.ListWithDueDates(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	dues := make([]calendar.DueDate, 0, len(docs))
	for _, doc := range docs {
		if doc.DueDate == nil {
			continue
		}
		dues = append(dues, calendar.DueDate{
			DocumentID:  doc.ID,
			WorkspaceID: doc.WorkspaceID,
			Title:       doc.Title,
			DueDate:     *doc.DueDate,
		})
	}
	return calendar.SynthesizeDueDates(dues, window), nil
}
