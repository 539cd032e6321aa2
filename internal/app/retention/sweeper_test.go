package retention

import (
	"context"
	"testing"
	"time"

	"github.com/noteloom/workspace/internal/app/documents"
)

type fakeStore struct {
	archived map[string]time.Time
	deleted  []string
}

func (f *fakeStore) ArchivedBefore(_ context.Context, cutoff time.Time) ([]documents.Document, error) {
	var result []documents.Document
	for id, at := range f.archived {
		if at.Before(cutoff) {
			result = append(result, documents.Document{ID: id, UpdatedAt: at, IsArchived: true})
		}
	}
	return result, nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	if _, ok := f.archived[id]; !ok {
		return documents.ErrNotFound
	}
	delete(f.archived, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func TestSweep_RemovesOnlyExpiredDocuments(t *testing.T) {
	now := time.Date(2026, 8, 30, 3, 0, 0, 0, time.UTC)
	store := &fakeStore{archived: map[string]time.Time{
		"old":    now.Add(-31 * 24 * time.Hour),
		"recent": now.Add(-5 * 24 * time.Hour),
	}}
	sw := NewSweeper(store, 30)
	sw.Now = func() time.Time { return now }

	removed, err := sw.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep returned error: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "old" {
		t.Fatalf("expected old to be deleted, got %v", store.deleted)
	}
	if _, ok := store.archived["recent"]; !ok {
		t.Fatalf("recent document must survive the sweep")
	}
}

func TestSweep_SkipsDocumentsAlreadyGone(t *testing.T) {
	now := time.Date(2026, 8, 30, 3, 0, 0, 0, time.UTC)
	store := &fakeStore{archived: map[string]time.Time{
		"old": now.Add(-40 * 24 * time.Hour),
	}}
	sw := NewSweeper(store, 30)
	sw.Now = func() time.Time { return now }

	// Simulate a subtree delete racing the sweep.
	listed, _ := store.ArchivedBefore(context.Background(), now)
	if len(listed) != 1 {
		t.Fatalf("setup: expected one expired document")
	}
	delete(store.archived, "old")

	removed, err := sw.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep returned error: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected no removals, got %d", removed)
	}
}
