package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/robfig/cron/v3"

	"github.com/noteloom/workspace/internal/app/calendarview"
	"github.com/noteloom/workspace/internal/app/documents"
	"github.com/noteloom/workspace/internal/app/events"
	"github.com/noteloom/workspace/internal/app/retention"
	"github.com/noteloom/workspace/internal/app/workspaces"
	"github.com/noteloom/workspace/internal/calendar"
	"github.com/noteloom/workspace/internal/config"
	"github.com/noteloom/workspace/internal/messaging"
	"github.com/noteloom/workspace/internal/platform/dbpool"
	"github.com/noteloom/workspace/internal/platform/env"
	"github.com/noteloom/workspace/internal/platform/metrics"
	"github.com/noteloom/workspace/internal/platform/natsutil"
)

func main() {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	apiAddr := env.String("WORKSPACE_API_ADDR", env.DefaultAPIAddr)
	pgURL := env.String("DATABASE_URL", env.DefaultDatabaseURL)
	configPath := env.String("CONFIG_PATH", "config.yaml")
	shutdownTimeout := env.Duration("SHUTDOWN_TIMEOUT", 10*time.Second)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatal(err)
	}

	pool, err := dbpool.New(runCtx, pgURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	workspaceRepo := workspaces.NewPostgresRepository(pool)
	documentRepo := documents.NewPostgresRepository(pool)
	eventRepo := events.NewPostgresRepository(pool)
	if err := waitForSchemas(runCtx, 30*time.Second,
		workspaceRepo.EnsureSchema, documentRepo.EnsureSchema, eventRepo.EnsureSchema,
	); err != nil {
		log.Fatal(err)
	}

	client, err := natsutil.ConnectJetStreamWithRetry(env.String("NATS_URL", env.DefaultNATSURL), env.Duration("NATS_CONNECT_TIMEOUT", 90*time.Second))
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()
	if err := messaging.EnsureStreams(client.JS); err != nil {
		log.Fatal(err)
	}
	publisher := natsutil.JetStreamPublisher{JS: client.JS}

	workspaceSvc := workspaces.NewService(workspaceRepo, publisher.Publish)
	documentSvc := documents.NewService(documentRepo, publisher.Publish)
	eventSvc := events.NewService(eventRepo, publisher.Publish)
	documentSvc.Events = eventSvc
	saver := documents.NewSaver(documentSvc, cfg.Autosave.QuietPeriod)
	viewSvc := calendarview.NewService(eventSvc, documentSvc, calendar.Config{
		Fragmentation: calendar.FragmentationConfig{
			GapThresholdMinutes: cfg.Calendar.GapThresholdMinutes,
			GapWeight:           cfg.Calendar.GapWeight,
			GapMinutesDivisor:   cfg.Calendar.GapMinutesDivisor,
			MaxScore:            cfg.Calendar.MaxScore,
		},
		HourScale: cfg.Calendar.HourScale,
		Location:  loc,
	})

	sweeper := retention.NewSweeper(documentSvc, cfg.Retention.MaxAgeDays)
	scheduler := cron.New()
	if _, err := scheduler.AddJob(cfg.Retention.Schedule, sweeper); err != nil {
		log.Fatal(err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if err := checkReadiness(req.Context(), pool, client.Conn); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Mount("/api/v1/workspaces", workspaces.NewHandler(workspaceSvc).Routes())
	r.Mount("/api/v1/documents", documents.NewHandler(documentSvc, saver).Routes())
	r.Mount("/api/v1/events", events.NewHandler(eventSvc).Routes())
	r.Mount("/api/v1/calendar", calendarview.NewHandler(viewSvc).Routes())

	server := &http.Server{
		Addr:              apiAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	fmt.Printf("Workspace API listening on %s\n", apiAddr)
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
		log.Printf("workspace-api graceful shutdown failed: %v", err)
	}
	// Persist any buffered autosaves before exiting.
	saver.Flush(shutdownCtx)
}

func waitForSchemas(ctx context.Context, timeout time.Duration, ensure ...func(context.Context) error) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		lastErr = nil
		for _, fn := range ensure {
			attemptCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			lastErr = fn(attemptCtx)
			cancel()
			if lastErr != nil {
				break
			}
		}
		if lastErr == nil {
			return nil
		}
		log.Printf("waiting for schema readiness: %v", lastErr)
		time.Sleep(500 * time.Millisecond)
	}
	return lastErr
}

func checkReadiness(ctx context.Context, pool *pgxpool.Pool, conn *nats.Conn) error {
	if conn == nil || !conn.IsConnected() {
		return errors.New("nats connection is not ready")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return pool.Ping(pingCtx)
}
