package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/noteloom/workspace/internal/contracts"
	"github.com/noteloom/workspace/internal/messaging"
	"github.com/noteloom/workspace/internal/platform/env"
	"github.com/noteloom/workspace/internal/platform/natsutil"
	"github.com/noteloom/workspace/internal/sharding"
)

const heartbeatInterval = 25 * time.Second

var workspaceStreams *workspaceStreamRegistry

func main() {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	streamerAddr := env.String("CHANGE_STREAMER_ADDR", env.DefaultStreamerAddr)
	shutdownTimeout := env.Duration("SHUTDOWN_TIMEOUT", 10*time.Second)

	client, err := natsutil.ConnectJetStreamWithRetry(env.String("NATS_URL", env.DefaultNATSURL), env.Duration("NATS_CONNECT_TIMEOUT", 90*time.Second))
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()
	if err := messaging.EnsureStreams(client.JS); err != nil {
		log.Fatal(err)
	}
	workspaceStreams = newWorkspaceStreamRegistry(client.JS)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if client.Conn == nil || !client.Conn.IsConnected() {
			http.Error(w, "nats connection is not ready", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/changes", handleChanges)

	server := &http.Server{
		Addr:              streamerAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Keep WriteTimeout unset for long-lived SSE streams.
		IdleTimeout: 120 * time.Second,
	}

	fmt.Printf("Change Streamer listening on %s\n", streamerAddr)
	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		log.Fatal(err)
	case <-runCtx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("change-streamer graceful shutdown failed: %v", err)
	}
}

// handleChanges streams workspace change events as SSE. Each event is one
// `change` message with the ChangeEvent JSON as data; a comment heartbeat
// keeps idle connections alive through proxies.
func handleChanges(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	workspaceID := strings.TrimSpace(r.URL.Query().Get("workspace_id"))
	if workspaceID == "" {
		http.Error(w, "workspace_id is required", http.StatusBadRequest)
		return
	}

	eventCh, unsubscribe, err := workspaceStreams.Subscribe(workspaceID)
	if err != nil {
		http.Error(w, "stream subscription failed", http.StatusInternalServerError)
		return
	}
	defer unsubscribe()

	fmt.Fprintf(w, ": connected workspace=%s\n\n", workspaceID)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		case event := <-eventCh:
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

// workspaceStreamRegistry multiplexes one JetStream subscription per
// workspace across all of that workspace's SSE subscribers.
type workspaceStreamRegistry struct {
	mu          sync.Mutex
	js          nats.JetStreamContext
	byWorkspace map[string]*workspaceStream
}

type workspaceStream struct {
	workspaceID string
	js          nats.JetStreamContext

	mu          sync.Mutex
	sub         *nats.Subscription
	subscribers map[string]chan contracts.ChangeEvent
	nextID      uint64
}

func newWorkspaceStreamRegistry(js nats.JetStreamContext) *workspaceStreamRegistry {
	return &workspaceStreamRegistry{
		js:          js,
		byWorkspace: map[string]*workspaceStream{},
	}
}

func (r *workspaceStreamRegistry) Subscribe(workspaceID string) (<-chan contracts.ChangeEvent, func(), error) {
	r.mu.Lock()
	stream, ok := r.byWorkspace[workspaceID]
	if !ok {
		stream = &workspaceStream{
			workspaceID: workspaceID,
			js:          r.js,
			subscribers: map[string]chan contracts.ChangeEvent{},
		}
		r.byWorkspace[workspaceID] = stream
	}
	r.mu.Unlock()

	subID, ch, err := stream.addSubscriber()
	if err != nil {
		return nil, nil, err
	}

	unsubscribe := func() {
		empty := stream.removeSubscriber(subID)
		if !empty {
			return
		}
		r.mu.Lock()
		current, ok := r.byWorkspace[workspaceID]
		if ok && current == stream {
			delete(r.byWorkspace, workspaceID)
		}
		r.mu.Unlock()
	}

	return ch, unsubscribe, nil
}

func (s *workspaceStream) addSubscriber() (string, chan contracts.ChangeEvent, error) {
	ch := make(chan contracts.ChangeEvent, 64)

	s.mu.Lock()
	s.nextID++
	subID := fmt.Sprintf("%s-%d", s.workspaceID, s.nextID)
	s.subscribers[subID] = ch
	s.mu.Unlock()

	if err := s.ensureSubscription(); err != nil {
		s.mu.Lock()
		delete(s.subscribers, subID)
		s.mu.Unlock()
		return "", nil, err
	}

	return subID, ch, nil
}

func (s *workspaceStream) removeSubscriber(subID string) bool {
	var (
		shouldStop bool
		sub        *nats.Subscription
	)

	s.mu.Lock()
	delete(s.subscribers, subID)
	if len(s.subscribers) == 0 {
		shouldStop = true
		sub = s.sub
		s.sub = nil
	}
	s.mu.Unlock()

	if shouldStop && sub != nil {
		_ = sub.Unsubscribe()
	}

	return shouldStop
}

func (s *workspaceStream) ensureSubscription() error {
	s.mu.Lock()
	if s.sub != nil {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if s.js == nil {
		return fmt.Errorf("jetstream is not configured")
	}

	sub, err := s.js.Subscribe(sharding.GetSubject("workspace", s.workspaceID), func(msg *nats.Msg) {
		var event contracts.ChangeEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return
		}
		s.broadcast(event)
	}, nats.DeliverNew())
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.sub != nil {
		s.mu.Unlock()
		_ = sub.Unsubscribe()
		return nil
	}
	s.sub = sub
	s.mu.Unlock()
	return nil
}

func (s *workspaceStream) broadcast(event contracts.ChangeEvent) {
	s.mu.Lock()
	subs := make([]chan contracts.ChangeEvent, 0, len(s.subscribers))
	for _, ch := range s.subscribers {
		subs = append(subs, ch)
	}
	s.mu.Unlock()

	// Slow subscribers drop events rather than stalling the fan-out.
	for _, ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}
}
