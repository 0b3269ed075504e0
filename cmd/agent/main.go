package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/inboxpilot/scheduler/internal/agent"
	"github.com/inboxpilot/scheduler/internal/calendar"
	"github.com/inboxpilot/scheduler/internal/interpreter"
	"github.com/inboxpilot/scheduler/internal/models"
	"github.com/inboxpilot/scheduler/internal/scheduler"
	"github.com/inboxpilot/scheduler/internal/storage"
	"github.com/inboxpilot/scheduler/internal/timeparse"
	"github.com/inboxpilot/scheduler/pkg/config"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", "config.yaml"))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid config", zap.Error(err))
	}

	// Initialize storage
	var store storage.Store
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory storage")
		store = storage.NewMemoryStore()
	} else {
		logger.Info("Using PostgreSQL storage")
		store, err = storage.NewPostgresStore(storage.DatabaseConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		})
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
	}
	defer store.Close()

	// Initialize interpreter and time resolver
	var interp interpreter.Interpreter
	var resolver timeparse.Resolver
	if cfg.OpenAI.APIKey != "" {
		interp = interpreter.NewOpenAIInterpreter(
			cfg.OpenAI.APIKey,
			cfg.OpenAI.Model,
			cfg.OpenAI.MaxTokens,
			cfg.OpenAI.Temperature,
			logger,
		)
		resolver = timeparse.NewOpenAIResolver(cfg.OpenAI.APIKey, cfg.OpenAI.Model, logger)
	} else {
		logger.Warn("No OpenAI API key configured, falling back to keyword interpreter")
		interp = interpreter.NewKeywordInterpreter()
		resolver = timeparse.NullResolver{}
	}

	// Initialize calendar backend
	ctx := context.Background()
	var backend calendar.Backend
	if cfg.Calendar.DryRun {
		logger.Info("Calendar dry-run mode, no real events will be created")
		backend = calendar.NewFakeBackend()
	} else {
		backend, err = calendar.NewGoogleBackend(ctx, cfg.Calendar.CredentialsFile, logger)
		if err != nil {
			logger.Fatal("Failed to initialize calendar backend", zap.Error(err))
		}
	}

	// One source and worker per monitored identity
	sources := make(map[string]*agent.QueueSource, len(cfg.Agent.Identities))
	workers := make([]*agent.Worker, 0, len(cfg.Agent.Identities))
	for _, identity := range cfg.Agent.Identities {
		reconciler, err := scheduler.NewReconciler(
			scheduler.Config{
				Identity: identity,
				Timezone: cfg.Agent.Timezone,
				Defaults: scheduler.Defaults{
					DurationMinutes: cfg.Agent.DefaultDurationMinutes,
					Topic:           cfg.Agent.FallbackTopic,
					Location:        cfg.Agent.DefaultLocation,
				},
			},
			store, interp, resolver, backend, nil, logger,
		)
		if err != nil {
			logger.Fatal("Failed to create reconciler", zap.Error(err), zap.String("identity", identity))
		}

		source := agent.NewQueueSource()
		sources[identity] = source
		workers = append(workers, agent.NewWorker(identity, source, reconciler, store, agent.Options{
			PollInterval: time.Duration(cfg.Agent.PollIntervalSeconds) * time.Second,
			BatchSize:    cfg.Agent.BatchSize,
			PruneAfter:   time.Duration(cfg.Agent.PruneAfterDays) * 24 * time.Hour,
		}, logger))
	}

	// Health, metrics, and message delivery surface
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := store.Ping(req.Context()); err != nil {
			http.Error(w, "storage unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/identities/{identity}/messages", func(w http.ResponseWriter, req *http.Request) {
		source, ok := sources[chi.URLParam(req, "identity")]
		if !ok {
			http.Error(w, "unknown identity", http.StatusNotFound)
			return
		}
		var msgs []models.InboundMessage
		if err := json.NewDecoder(req.Body).Decode(&msgs); err != nil {
			http.Error(w, "malformed batch", http.StatusBadRequest)
			return
		}
		source.Push(msgs...)
		w.WriteHeader(http.StatusAccepted)
	})

	server := &http.Server{Addr: cfg.Metrics.ListenAddr, Handler: r}
	go func() {
		logger.Info("Metrics server listening", zap.String("addr", cfg.Metrics.ListenAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics server error", zap.Error(err))
		}
	}()

	// Run workers until interrupted
	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	for _, w := range workers {
		wg.Add(1)
		go func(w *agent.Worker) {
			defer wg.Done()
			w.Run(runCtx)
		}(w)
	}

	<-runCtx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Metrics server forced to shut down", zap.Error(err))
	}
	wg.Wait()
	logger.Info("Stopped")
}
