package workspaces

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/nats-io/nuid"
	"github.com/noteloom/workspace/internal/contracts"
	"github.com/noteloom/workspace/internal/patch"
	"github.com/noteloom/workspace/internal/platform/metrics"
	"github.com/noteloom/workspace/internal/sharding"
)

var (
	ErrNotFound     = errors.New("workspace not found")
	ErrNameRequired = errors.New("name is required")
	ErrIconRequired = errors.New("icon is required")
)

// Workspace is the top-level container owning documents and calendar events.
type Workspace struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Icon        string    `json:"icon"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Repository interface {
	EnsureSchema(ctx context.Context) error
	CreateWorkspace(ctx context.Context, ws Workspace) error
	GetWorkspace(ctx context.Context, id string) (Workspace, error)
	ListWorkspaces(ctx context.Context) ([]Workspace, error)
	UpdateWorkspace(ctx context.Context, ws Workspace) error
	// DeleteWorkspaceCascade removes the workspace together with its
	// documents and calendar events in one transaction.
	DeleteWorkspaceCascade(ctx context.Context, id string) error
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
	Name        string  `json:"name"`
	Icon        string  `json:"icon"`
	Description *string `json:"description,omitempty"`
}

// Patch distinguishes omitted fields (unchanged) from explicit nulls
// (cleared). Only Description is clearable.
type Patch struct {
	Name        patch.Field[string] `json:"name"`
	Icon        patch.Field[string] `json:"icon"`
	Description patch.Field[string] `json:"description"`
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (Workspace, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return Workspace{}, ErrNameRequired
	}
	icon := strings.TrimSpace(req.Icon)
	if icon == "" {
		return Workspace{}, ErrIconRequired
	}

	ws := Workspace{
		ID:          s.NewID(),
		Name:        name,
		Icon:        icon,
		Description: req.Description,
		CreatedAt:   s.Now(),
	}
	if err := s.Repo.CreateWorkspace(ctx, ws); err != nil {
		return Workspace{}, err
	}
	s.notify(ws.ID, ws.ID, contracts.ActionCreated)
	return ws, nil
}

func (s *Service) Get(ctx context.Context, id string) (Workspace, error) {
	return s.Repo.GetWorkspace(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Workspace, error) {
	return s.Repo.ListWorkspaces(ctx)
}

func (s *Service) Update(ctx context.Context, id string, p Patch) (Workspace, error) {
	ws, err := s.Repo.GetWorkspace(ctx, id)
	if err != nil {
		return Workspace{}, err
	}

	if p.Name.Present() {
		name, ok := p.Name.Value()
		if !ok || strings.TrimSpace(name) == "" {
			return Workspace{}, ErrNameRequired
		}
		ws.Name = strings.TrimSpace(name)
	}
	if p.Icon.Present() {
		icon, ok := p.Icon.Value()
		if !ok || strings.TrimSpace(icon) == "" {
			return Workspace{}, ErrIconRequired
		}
		ws.Icon = strings.TrimSpace(icon)
	}
	if p.Description.Present() {
		if desc, ok := p.Description.Value(); ok {
			ws.Description = &desc
		} else {
			ws.Description = nil
		}
	}

	if err := s.Repo.UpdateWorkspace(ctx, ws); err != nil {
		return Workspace{}, err
	}
	s.notify(ws.ID, ws.ID, contracts.ActionUpdated)
	return ws, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.Repo.DeleteWorkspaceCascade(ctx, id); err != nil {
		return err
	}
	s.notify(id, id, contracts.ActionDeleted)
	return nil
}

// notify publishes a change event. Publishing is best-effort: the mutation
// has already been committed, so a broker hiccup only delays live updates.
func (s *Service) notify(workspaceID, entityID, action string) {
	if s.Publish == nil {
		return
	}
	event := contracts.ChangeEvent{
		EventID:     s.NewID(),
		WorkspaceID: workspaceID,
		Entity:      contracts.EntityWorkspace,
		EntityID:    entityID,
		Action:      action,
		OccurredAt:  s.Now(),
		ShardID:     sharding.GetShardID(workspaceID),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		metrics.ObserveChangePublish(contracts.EntityWorkspace, err)
		return
	}
	err = s.Publish(sharding.GetSubject("workspace", workspaceID), payload)
	metrics.ObserveChangePublish(contracts.EntityWorkspace, err)
}
