package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prophetd/prophetd/internal/api"
	"github.com/prophetd/prophetd/internal/auth"
	"github.com/prophetd/prophetd/internal/config"
	"github.com/prophetd/prophetd/internal/database"
	"github.com/prophetd/prophetd/internal/engine"
	"github.com/prophetd/prophetd/internal/forecast"
	"github.com/prophetd/prophetd/internal/logging"
	"github.com/prophetd/prophetd/internal/metrics"
	"github.com/prophetd/prophetd/internal/middleware"
	"github.com/prophetd/prophetd/internal/narrative"
	"github.com/prophetd/prophetd/internal/scheduler"
	"github.com/prophetd/prophetd/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting prophetd")

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.Database.URL

	logger.Info("connecting to database")
	db, err := database.Connect(context.Background(), dbCfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("database connected")

	// Run pending migrations (non-fatal to allow app to start even if migrations fail)
	if err := database.RunMigrations(db, "./migrations", logger); err != nil {
		logger.Warn("failed to run migrations, continuing anyway", "error", err)
	}

	repo := database.NewModelRepository(db)

	// An engine URL selects the remote engine; otherwise the in-memory mock
	// keeps local development off the network.
	var newEngine forecast.EngineFactory
	if cfg.Engine.URL != "" {
		logger.Info("using remote forecasting engine", "url", cfg.Engine.URL)
		newEngine = func() engine.Engine {
			return engine.NewHTTPClient(cfg.Engine.URL, cfg.Engine.Timeout, logger)
		}
	} else {
		logger.Warn("ENGINE_URL not set, using in-memory engine")
		newEngine = func() engine.Engine {
			return engine.NewMock()
		}
	}

	summarizer := narrative.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model, logger)
	if summarizer.Enabled() {
		logger.Info("narrative summaries enabled", "model", cfg.OpenAI.Model)
	} else {
		logger.Info("narrative summaries disabled, OPENAI_API_KEY not set")
	}

	collector, err := metrics.NewHTTPCollector()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}

	service := forecast.New(repo, newEngine, summarizer, collector, logger)

	authConfig := auth.LoadConfigFromEnv()
	logger.Info("auth configured", "jwt_secret_set", authConfig.JWTSecret != "change-this-secret")

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/metrics", collector.Handler())

	handler := api.NewHandler(db, repo, service, authConfig, logger)
	api.SetupRoutes(mux, handler, authConfig)

	logger.Info("starting forecast scheduler")
	sched := scheduler.New(repo, service, logger)
	schedCtx, cancelSched := context.WithCancel(context.Background())
	go sched.Start(schedCtx)

	rl := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	root := collector.InstrumentHandler(rl.Middleware(mux))

	srv := server.New(cfg.Server, logger, root)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("prophetd started", "port", cfg.Server.Port)

	waitForSignal(logger)

	logger.Info("shutting down")
	cancelSched()
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}

func waitForSignal(logger *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	sig := <-c
	logger.Info("received signal", "signal", sig.String())
	signal.Stop(c)
	close(c)
}
