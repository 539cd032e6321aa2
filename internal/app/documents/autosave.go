package documents

import (
	"context"
	"sync"
	"time"

	"github.com/noteloom/workspace/internal/platform/metrics"
)

// Saver debounces document content writes. Rapid successive saves for the
// same document collapse into a single persist once the stream goes quiet
// for the configured period. Other documents flush independently.
type Saver struct {
	Service *Service
	Quiet   time.Duration

	mu      sync.Mutex
	pending map[string]*pendingSave
}

type pendingSave struct {
	content string
	timer   *time.Timer
}

func NewSaver(service *Service, quiet time.Duration) *Saver {
	if quiet <= 0 {
		quiet = 600 * time.Millisecond
	}
	return &Saver{
		Service: service,
		Quiet:   quiet,
		pending: make(map[string]*pendingSave),
	}
}

// Save buffers the latest content for the document and (re)arms its timer.
// The newest content always wins.
func (s *Saver) Save(documentID, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pending[documentID]; ok {
		p.content = content
		p.timer.Reset(s.Quiet)
		return
	}
	p := &pendingSave{content: content}
	p.timer = time.AfterFunc(s.Quiet, func() { s.flushOne(documentID) })
	s.pending[documentID] = p
}

func (s *Saver) flushOne(documentID string) {
	s.mu.Lock()
	p, ok := s.pending[documentID]
	if !ok {
		s.mu.Unlock()
		return
	}
	content := p.content
	delete(s.pending, documentID)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.Service.saveContent(ctx, documentID, content)
	metrics.ObserveAutosaveFlush(err)
	if err != nil {
		// Persist failed; keep the buffer so the next quiet period retries,
		// unless a newer save already re-armed the timer.
		s.mu.Lock()
		if _, ok := s.pending[documentID]; !ok {
			np := &pendingSave{content: content}
			np.timer = time.AfterFunc(s.Quiet, func() { s.flushOne(documentID) })
			s.pending[documentID] = np
		}
		s.mu.Unlock()
	}
}

// Flush persists every pending buffer immediately. Called on shutdown.
func (s *Saver) Flush(ctx context.Context) {
	s.mu.Lock()
	drained := make(map[string]string, len(s.pending))
	for id, p := range s.pending {
		p.timer.Stop()
		drained[id] = p.content
	}
	s.pending = make(map[string]*pendingSave)
	s.mu.Unlock()

	for id, content := range drained {
		err := s.Service.saveContent(ctx, id, content)
		metrics.ObserveAutosaveFlush(err)
	}
}

// PendingCount reports the number of documents with unsaved content.
func (s *Saver) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
