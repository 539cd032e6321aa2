package documents

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
	ErrNotFound       = errors.New("document not found")
	ErrParentNotFound = errors.New("parent document not found")
	ErrCycle          = errors.New("reparent would create a cycle")
	ErrCrossWorkspace = errors.New("parent belongs to a different workspace")
	ErrWorkspaceID    = errors.New("workspace_id is required")
)

// DefaultTitle is used when a document is created or renamed to a blank title.
const DefaultTitle = "Untitled"

type Document struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Title       string    `json:"title"`
	Icon        *string   `json:"icon,omitempty"`
	CoverImage  *string   `json:"cover_image,omitempty"`
	Content     *string   `json:"content,omitempty"`
	ParentID    *string   `json:"parent_id,omitempty"`
	IsArchived  bool      `json:"is_archived"`
	IsFavorite  bool      `json:"is_favorite"`
	DueDate     *int64    `json:"due_date,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Repository interface {
	EnsureSchema(ctx context.Context) error
	CreateDocument(ctx context.Context, doc Document) error
	GetDocument(ctx context.Context, id string) (Document, error)
	// ListDocuments returns non-archived documents under the given parent.
	// A nil parentID selects top-level documents.
	ListDocuments(ctx context.Context, workspaceID string, parentID *string) ([]Document, error)
	ListFavorites(ctx context.Context, workspaceID string) ([]Document, error)
	ListArchived(ctx context.Context, workspaceID string) ([]Document, error)
	ListWithDueDates(ctx context.Context, workspaceID string) ([]Document, error)
	ListChildrenIDs(ctx context.Context, parentID string) ([]string, error)
	UpdateDocument(ctx context.Context, doc Document) error
	UpdateContent(ctx context.Context, id string, content string, updatedAt time.Time) error
	SetArchived(ctx context.Context, ids []string, archived bool, updatedAt time.Time) error
	// DeleteDocuments removes all given documents atomically.
	DeleteDocuments(ctx context.Context, ids []string) error
	ArchivedBefore(ctx context.Context, cutoff time.Time) ([]Document, error)
}

type PublishFunc func(subject string, payload []byte) error

// EventPurger removes stored calendar events linked to a document. Wired to
// the event service so a document delete takes its events with it.
type EventPurger interface {
	DeleteForDocument(ctx context.Context, documentID string) error
}

type Service struct {
	Repo    Repository
	Publish PublishFunc
	Events  EventPurger
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
	WorkspaceID string  `json:"workspace_id"`
	Title       string  `json:"title"`
	ParentID    *string `json:"parent_id,omitempty"`
}

// Patch distinguishes omitted fields from explicit nulls. Icon, CoverImage,
// Content and DueDate are clearable; ParentID changes go through Reparent.
type Patch struct {
	Title      patch.Field[string] `json:"title"`
	Icon       patch.Field[string] `json:"icon"`
	CoverImage patch.Field[string] `json:"cover_image"`
	Content    patch.Field[string] `json:"content"`
	DueDate    patch.Field[int64]  `json:"due_date"`
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (Document, error) {
	if strings.TrimSpace(req.WorkspaceID) == "" {
		return Document{}, ErrWorkspaceID
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = DefaultTitle
	}

	if req.ParentID != nil {
		parent, err := s.Repo.GetDocument(ctx, *req.ParentID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return Document{}, ErrParentNotFound
			}
			return Document{}, err
		}
		if parent.WorkspaceID != req.WorkspaceID {
			return Document{}, ErrCrossWorkspace
		}
	}

	now := s.Now()
	doc := Document{
		ID:          s.NewID(),
		WorkspaceID: req.WorkspaceID,
		Title:       title,
		ParentID:    req.ParentID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Repo.CreateDocument(ctx, doc); err != nil {
		return Document{}, err
	}
	s.notify(doc.WorkspaceID, doc.ID, contracts.ActionCreated)
	return doc, nil
}

func (s *Service) Get(ctx context.Context, id string) (Document, error) {
	return s.Repo.GetDocument(ctx, id)
}

func (s *Service) List(ctx context.Context, workspaceID string, parentID *string) ([]Document, error) {
	return s.Repo.ListDocuments(ctx, workspaceID, parentID)
}

func (s *Service) ListFavorites(ctx context.Context, workspaceID string) ([]Document, error) {
	return s.Repo.ListFavorites(ctx, workspaceID)
}

func (s *Service) ListArchived(ctx context.Context, workspaceID string) ([]Document, error) {
	return s.Repo.ListArchived(ctx, workspaceID)
}

func (s *Service) ListWithDueDates(ctx context.Context, workspaceID string) ([]Document, error) {
	return s.Repo.ListWithDueDates(ctx, workspaceID)
}

// ArchivedBefore lists documents archived earlier than the cutoff, across
// all workspaces. Used by the retention sweeper.
func (s *Service) ArchivedBefore(ctx context.Context, cutoff time.Time) ([]Document, error) {
	return s.Repo.ArchivedBefore(ctx, cutoff)
}

func (s *Service) Update(ctx context.Context, id string, p Patch) (Document, error) {
	doc, err := s.Repo.GetDocument(ctx, id)
	if err != nil {
		return Document{}, err
	}

	if p.Title.Present() {
		title, _ := p.Title.Value()
		title = strings.TrimSpace(title)
		if title == "" {
			title = DefaultTitle
		}
		doc.Title = title
	}
	applyOptional(&doc.Icon, p.Icon)
	applyOptional(&doc.CoverImage, p.CoverImage)
	applyOptional(&doc.Content, p.Content)
	applyOptional(&doc.DueDate, p.DueDate)

	doc.UpdatedAt = s.Now()
	if err := s.Repo.UpdateDocument(ctx, doc); err != nil {
		return Document{}, err
	}
	s.notify(doc.WorkspaceID, doc.ID, contracts.ActionUpdated)
	return doc, nil
}

func applyOptional[T any](dst **T, f patch.Field[T]) {
	if !f.Present() {
		return
	}
	if v, ok := f.Value(); ok {
		*dst = &v
	} else {
		*dst = nil
	}
}

func (s *Service) ToggleFavorite(ctx context.Context, id string) (Document, error) {
	doc, err := s.Repo.GetDocument(ctx, id)
	if err != nil {
		return Document{}, err
	}
	doc.IsFavorite = !doc.IsFavorite
	doc.UpdatedAt = s.Now()
	if err := s.Repo.UpdateDocument(ctx, doc); err != nil {
		return Document{}, err
	}
	s.notify(doc.WorkspaceID, doc.ID, contracts.ActionUpdated)
	return doc, nil
}

// Reparent moves a document to a new parent, or to the top level when the
// parent field carries an explicit null. Moving a document under itself or
// under any of its own descendants is rejected.
func (s *Service) Reparent(ctx context.Context, id string, parent patch.Field[string]) (Document, error) {
	doc, err := s.Repo.GetDocument(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if !parent.Present() {
		return doc, nil
	}

	if parentID, ok := parent.Value(); ok {
		if parentID == id {
			return Document{}, ErrCycle
		}
		target, err := s.Repo.GetDocument(ctx, parentID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return Document{}, ErrParentNotFound
			}
			return Document{}, err
		}
		if target.WorkspaceID != doc.WorkspaceID {
			return Document{}, ErrCrossWorkspace
		}
		inSubtree, err := s.isDescendant(ctx, id, parentID)
		if err != nil {
			return Document{}, err
		}
		if inSubtree {
			return Document{}, ErrCycle
		}
		doc.ParentID = &parentID
	} else {
		doc.ParentID = nil
	}

	doc.UpdatedAt = s.Now()
	if err := s.Repo.UpdateDocument(ctx, doc); err != nil {
		return Document{}, err
	}
	s.notify(doc.WorkspaceID, doc.ID, contracts.ActionUpdated)
	return doc, nil
}

// isDescendant reports whether candidateID sits inside the subtree rooted at
// rootID. It walks parent pointers upward and keeps a visited set so that a
// corrupted tree with a parent cycle terminates instead of looping.
func (s *Service) isDescendant(ctx context.Context, rootID, candidateID string) (bool, error) {
	visited := map[string]bool{}
	current := candidateID
	for {
		if current == rootID {
			return true, nil
		}
		if visited[current] {
			return false, nil
		}
		visited[current] = true

		doc, err := s.Repo.GetDocument(ctx, current)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		if doc.ParentID == nil {
			return false, nil
		}
		current = *doc.ParentID
	}
}

// Archive marks the document and its whole subtree as archived.
func (s *Service) Archive(ctx context.Context, id string) error {
	doc, err := s.Repo.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	ids, err := s.collectSubtree(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repo.SetArchived(ctx, ids, true, s.Now()); err != nil {
		return err
	}
	s.notify(doc.WorkspaceID, doc.ID, contracts.ActionUpdated)
	return nil
}

// Restore unarchives the document and its subtree. If the document's parent
// is still archived the document is detached to the top level so it does not
// reappear under a hidden parent.
func (s *Service) Restore(ctx context.Context, id string) error {
	doc, err := s.Repo.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	ids, err := s.collectSubtree(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repo.SetArchived(ctx, ids, false, s.Now()); err != nil {
		return err
	}

	if doc.ParentID != nil {
		parent, err := s.Repo.GetDocument(ctx, *doc.ParentID)
		if errors.Is(err, ErrNotFound) || (err == nil && parent.IsArchived) {
			doc.ParentID = nil
			doc.IsArchived = false
			doc.UpdatedAt = s.Now()
			if err := s.Repo.UpdateDocument(ctx, doc); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
	}
	s.notify(doc.WorkspaceID, doc.ID, contracts.ActionUpdated)
	return nil
}

// Delete removes the document and every descendant in one atomic operation.
// The id list is built deepest-first so children precede their parents.
func (s *Service) Delete(ctx context.Context, id string) error {
	doc, err := s.Repo.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	ids, err := s.collectSubtree(ctx, id)
	if err != nil {
		return err
	}
	// Purge linked events first: a retry after a partial failure then finds
	// the documents still present and runs the purge again.
	if s.Events != nil {
		for _, docID := range ids {
			if err := s.Events.DeleteForDocument(ctx, docID); err != nil {
				return err
			}
		}
	}
	if err := s.Repo.DeleteDocuments(ctx, ids); err != nil {
		return err
	}
	s.notify(doc.WorkspaceID, doc.ID, contracts.ActionDeleted)
	return nil
}

// collectSubtree returns the ids of the subtree rooted at id in post-order:
// every child appears before its parent. A visited set guards against parent
// cycles in corrupted data.
func (s *Service) collectSubtree(ctx context.Context, id string) ([]string, error) {
	var ids []string
	visited := map[string]bool{}

	var walk func(string) error
	walk = func(current string) error {
		if visited[current] {
			return nil
		}
		visited[current] = true
		children, err := s.Repo.ListChildrenIDs(ctx, current)
		if err != nil {
			return err
		}
		for _, child := range children {
			if err := walk(child); err != nil {
				return err
			}
		}
		ids = append(ids, current)
		return nil
	}
	if err := walk(id); err != nil {
		return nil, err
	}
	return ids, nil
}

// saveContent persists autosaved content. Used by the Saver; bypasses the
// full update path so a flush cannot clobber concurrent metadata edits.
func (s *Service) saveContent(ctx context.Context, id, content string) error {
	err := s.Repo.UpdateContent(ctx, id, content, s.Now())
	if err != nil {
		return err
	}
	doc, getErr := s.Repo.GetDocument(ctx, id)
	if getErr == nil {
		s.notify(doc.WorkspaceID, id, contracts.ActionUpdated)
	}
	return nil
}

func (s *Service) notify(workspaceID, entityID, action string) {
	if s.Publish == nil {
		return
	}
	event := contracts.ChangeEvent{
		EventID:     s.NewID(),
		WorkspaceID: workspaceID,
		Entity:      contracts.EntityDocument,
		EntityID:    entityID,
		Action:      action,
		OccurredAt:  s.Now(),
		ShardID:     sharding.GetShardID(workspaceID),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		metrics.ObserveChangePublish(contracts.EntityDocument, err)
		return
	}
	err = s.Publish(sharding.GetSubject("workspace", workspaceID), payload)
	metrics.ObserveChangePublish(contracts.EntityDocument, err)
}
