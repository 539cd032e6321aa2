package documents

import (
	"context"
	"errors"
	"testing"
	"time"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func TestSaver_DebouncesRapidSaves(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	seedDoc(repo, "d1", "ws-1", nil)
	saver := NewSaver(svc, 30*time.Millisecond)

	saver.Save("d1", "v1")
	saver.Save("d1", "v2")
	saver.Save("d1", "v3")

	waitFor(t, time.Second, func() bool { return saver.PendingCount() == 0 })
	doc := repo.docs["d1"]
	if doc.Content == nil || *doc.Content != "v3" {
		t.Fatalf("latest content must win, got %+v", doc.Content)
	}
}

func TestSaver_DocumentsFlushIndependently(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	seedDoc(repo, "d1", "ws-1", nil)
	seedDoc(repo, "d2", "ws-1", nil)
	saver := NewSaver(svc, 30*time.Millisecond)

	saver.Save("d1", "alpha")
	saver.Save("d2", "beta")

	waitFor(t, time.Second, func() bool { return saver.PendingCount() == 0 })
	if repo.docs["d1"].Content == nil || *repo.docs["d1"].Content != "alpha" {
		t.Fatalf("d1 content wrong: %+v", repo.docs["d1"].Content)
	}
	if repo.docs["d2"].Content == nil || *repo.docs["d2"].Content != "beta" {
		t.Fatalf("d2 content wrong: %+v", repo.docs["d2"].Content)
	}
}

func TestSaver_RetainsBufferWhenPersistFails(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	seedDoc(repo, "d1", "ws-1", nil)
	repo.failContent = errors.New("db down")
	saver := NewSaver(svc, 20*time.Millisecond)

	saver.Save("d1", "draft")
	// The first flush fails and re-arms; recover the repo and wait for retry.
	time.Sleep(40 * time.Millisecond)
	repo.failContent = nil

	waitFor(t, time.Second, func() bool { return saver.PendingCount() == 0 })
	doc := repo.docs["d1"]
	if doc.Content == nil || *doc.Content != "draft" {
		t.Fatalf("buffer should survive a failed persist, got %+v", doc.Content)
	}
}

func TestSaver_FlushPersistsAllPending(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	seedDoc(repo, "d1", "ws-1", nil)
	seedDoc(repo, "d2", "ws-1", nil)
	saver := NewSaver(svc, time.Hour)

	saver.Save("d1", "one")
	saver.Save("d2", "two")
	saver.Flush(context.Background())

	if saver.PendingCount() != 0 {
		t.Fatalf("flush should drain all buffers, %d left", saver.PendingCount())
	}
	if repo.docs["d1"].Content == nil || *repo.docs["d1"].Content != "one" {
		t.Fatalf("d1 not persisted on flush")
	}
	if repo.docs["d2"].Content == nil || *repo.docs["d2"].Content != "two" {
		t.Fatalf("d2 not persisted on flush")
	}
}
