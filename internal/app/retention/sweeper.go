package retention

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/noteloom/workspace/internal/app/documents"
	"github.com/noteloom/workspace/internal/platform/metrics"
)

// DocumentStore is the slice of the documents service the sweeper needs.
type DocumentStore interface {
	ArchivedBefore(ctx context.Context, cutoff time.Time) ([]documents.Document, error)
	Delete(ctx context.Context, id string) error
}

// Sweeper permanently removes documents that have sat in the trash longer
// than the retention window. Deleting a document removes its whole subtree,
// so descendants of an expired document disappear with it.
type Sweeper struct {
	Docs   DocumentStore
	MaxAge time.Duration
	Now    func() time.Time
}

func NewSweeper(docs DocumentStore, maxAgeDays int) *Sweeper {
	if maxAgeDays <= 0 {
		maxAgeDays = 30
	}
	return &Sweeper{
		Docs:   docs,
		MaxAge: time.Duration(maxAgeDays) * 24 * time.Hour,
		Now:    func() time.Time { return time.Now().UTC() },
	}
}

// Sweep runs one pass and returns the number of expired documents removed.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := s.Now().Add(-s.MaxAge)
	expired, err := s.Docs.ArchivedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, doc := range expired {
		err := s.Docs.Delete(ctx, doc.ID)
		if err != nil {
			// Already gone as part of an earlier subtree delete.
			if errors.Is(err, documents.ErrNotFound) {
				continue
			}
			metrics.AddRetentionDeletes(removed)
			return removed, err
		}
		removed++
	}
	metrics.AddRetentionDeletes(removed)
	return removed, nil
}

// Run is the cron entrypoint: it logs the outcome instead of returning it.
func (s *Sweeper) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := s.Sweep(ctx)
	if err != nil {
		log.Printf("retention sweep failed after removing %d documents: %v", removed, err)
		return
	}
	if removed > 0 {
		log.Printf("retention sweep removed %d expired documents", removed)
	}
}
