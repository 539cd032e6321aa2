package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/nats-io/nuid"
	"github.com/noteloom/workspace/internal/calendar"
	"github.com/noteloom/workspace/internal/contracts"
	"github.com/noteloom/workspace/internal/patch"
	"github.com/noteloom/workspace/internal/platform/metrics"
	"github.com/noteloom/workspace/internal/sharding"
)

var (
	ErrNotFound       = errors.New("event not found")
	ErrSyntheticEvent = errors.New("due date items are derived from documents and cannot be mutated")
	ErrTitleRequired  = errors.New("title is required")
	ErrWorkspaceID    = errors.New("workspace_id is required")
	ErrInvalidType    = errors.New("invalid event type")
	ErrInvalidRange   = errors.New("start_time must not be after end_time")
	ErrInvalidTimes   = errors.New("start_time and end_time are required")
)

type Repository interface {
	EnsureSchema(ctx context.Context) error
	CreateEvent(ctx context.Context, e calendar.Event) error
	GetEvent(ctx context.Context, id string) (calendar.Event, error)
	// QueryRange returns events intersecting [startMS, endMS]: events that
	// start inside it, end inside it, or span across it.
	QueryRange(ctx context.Context, workspaceID string, startMS, endMS int64) ([]calendar.Event, error)
	EventsForDocument(ctx context.Context, documentID string) ([]calendar.Event, error)
	UpdateEvent(ctx context.Context, e calendar.Event) error
	DeleteEvent(ctx context.Context, id string) error
	DeleteEventsForDocument(ctx context.Context, documentID string) error
}

type PublishFunc func(subject string, payload []byte) error

type Service struct {
	Repo    Repository
	Publish PublishFunc
	Now     func() time.Time
	NewID   func() string
}

func NewService(repo Repository, publish PublishFunc) *Service {
	return &Service{
		Repo:    repo,
		Publish: publish,
		Now:     func() time.Time { return time.Now().UTC() },
		NewID:   nuid.Next,
	}
}

type CreateRequest struct {
	WorkspaceID string             `json:"workspace_id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	StartTime   int64              `json:"start_time"`
	EndTime     int64              `json:"end_time"`
	DocumentID  string             `json:"document_id,omitempty"`
	Type        calendar.EventType `json:"type"`
	Color       string             `json:"color,omitempty"`
	Priority    calendar.Priority  `json:"priority,omitempty"`
	IsAllDay    bool               `json:"is_all_day"`
}

type Patch struct {
	Title       patch.Field[string]             `json:"title"`
	Description patch.Field[string]             `json:"description"`
	StartTime   patch.Field[int64]              `json:"start_time"`
	EndTime     patch.Field[int64]              `json:"end_time"`
	Type        patch.Field[calendar.EventType] `json:"type"`
	Color       patch.Field[string]             `json:"color"`
	Priority    patch.Field[calendar.Priority]  `json:"priority"`
	IsAllDay    patch.Field[bool]               `json:"is_all_day"`
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (calendar.Event, error) {
	if strings.TrimSpace(req.WorkspaceID) == "" {
		return calendar.Event{}, ErrWorkspaceID
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return calendar.Event{}, ErrTitleRequired
	}
	if !req.Type.Valid() {
		return calendar.Event{}, ErrInvalidType
	}
	if req.StartTime == 0 || req.EndTime == 0 {
		return calendar.Event{}, ErrInvalidTimes
	}
	if req.StartTime > req.EndTime {
		return calendar.Event{}, ErrInvalidRange
	}
	if req.Priority != "" && !req.Priority.Valid() {
		return calendar.Event{}, errors.New("invalid priority")
	}

	now := s.Now()
	e := calendar.Event{
		ID:          s.NewID(),
		Title:       title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		WorkspaceID: req.WorkspaceID,
		DocumentID:  req.DocumentID,
		Type:        req.Type,
		Color:       req.Color,
		Priority:    req.Priority,
		IsAllDay:    req.IsAllDay,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if e.Color == "" {
		e.Color = calendar.DefaultColor(e.Type)
	}
	if err := s.Repo.CreateEvent(ctx, e); err != nil {
		return calendar.Event{}, err
	}
	s.notify(e.WorkspaceID, e.ID, contracts.ActionCreated)
	return e, nil
}

func (s *Service) Get(ctx context.Context, id string) (calendar.Event, error) {
	if calendar.IsSyntheticID(id) {
		return calendar.Event{}, ErrNotFound
	}
	return s.Repo.GetEvent(ctx, id)
}

func (s *Service) QueryRange(ctx context.Context, workspaceID string, startMS, endMS int64) ([]calendar.Event, error) {
	return s.Repo.QueryRange(ctx, workspaceID, startMS, endMS)
}

func (s *Service) EventsForDocument(ctx context.Context, documentID string) ([]calendar.Event, error) {
	return s.Repo.EventsForDocument(ctx, documentID)
}

// DeleteForDocument removes every stored event linked to a document. The
// document delete path calls this per subtree node; synthetic due-date items
// need no cleanup since they are never stored.
func (s *Service) DeleteForDocument(ctx context.Context, documentID string) error {
	return s.Repo.DeleteEventsForDocument(ctx, documentID)
}

func (s *Service) Update(ctx context.Context, id string, p Patch) (calendar.Event, error) {
	if calendar.IsSyntheticID(id) {
		return calendar.Event{}, ErrSyntheticEvent
	}
	e, err := s.Repo.GetEvent(ctx, id)
	if err != nil {
		return calendar.Event{}, err
	}

	if p.Title.Present() {
		title, ok := p.Title.Value()
		if !ok || strings.TrimSpace(title) == "" {
			return calendar.Event{}, ErrTitleRequired
		}
		e.Title = strings.TrimSpace(title)
	}
	if p.Description.Present() {
		desc, _ := p.Description.Value()
		e.Description = desc
	}
	if p.StartTime.Present() {
		v, ok := p.StartTime.Value()
		if !ok || v == 0 {
			return calendar.Event{}, ErrInvalidTimes
		}
		e.StartTime = v
	}
	if p.EndTime.Present() {
		v, ok := p.EndTime.Value()
		if !ok || v == 0 {
			return calendar.Event{}, ErrInvalidTimes
		}
		e.EndTime = v
	}
	if e.StartTime > e.EndTime {
		return calendar.Event{}, ErrInvalidRange
	}
	if p.Type.Present() {
		t, ok := p.Type.Value()
		if !ok || !t.Valid() {
			return calendar.Event{}, ErrInvalidType
		}
		e.Type = t
	}
	if p.Color.Present() {
		if c, ok := p.Color.Value(); ok {
			e.Color = c
		} else {
			e.Color = calendar.DefaultColor(e.Type)
		}
	}
	if p.Priority.Present() {
		if pr, ok := p.Priority.Value(); ok {
			if !pr.Valid() {
				return calendar.Event{}, errors.New("invalid priority")
			}
			e.Priority = pr
		} else {
			e.Priority = ""
		}
	}
	if p.IsAllDay.Present() {
		v, _ := p.IsAllDay.Value()
		e.IsAllDay = v
	}

	e.UpdatedAt = s.Now()
	if err := s.Repo.UpdateEvent(ctx, e); err != nil {
		return calendar.Event{}, err
	}
	s.notify(e.WorkspaceID, e.ID, contracts.ActionUpdated)
	return e, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if calendar.IsSyntheticID(id) {
		return ErrSyntheticEvent
	}
	e, err := s.Repo.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repo.DeleteEvent(ctx, id); err != nil {
		return err
	}
	s.notify(e.WorkspaceID, id, contracts.ActionDeleted)
	return nil
}

func (s *Service) notify(workspaceID, entityID, action string) {
	if s.Publish == nil {
		return
	}
	event := contracts.ChangeEvent{
		EventID:     s.NewID(),
		WorkspaceID: workspaceID,
		Entity:      contracts.EntityEvent,
		EntityID:    entityID,
		Action:      action,
		OccurredAt:  s.Now(),
		ShardID:     sharding.GetShardID(workspaceID),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		metrics.ObserveChangePublish(contracts.EntityEvent, err)
		return
	}
	err = s.Publish(sharding.GetSubject("workspace", workspaceID), payload)
	metrics.ObserveChangePublish(contracts.EntityEvent, err)
}
