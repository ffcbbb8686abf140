package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/bronn-dev/smartdental/internal/api/handlers"
	"github.com/bronn-dev/smartdental/internal/api/router"
	"github.com/bronn-dev/smartdental/internal/clinic"
	appconfig "github.com/bronn-dev/smartdental/internal/config"
	"github.com/bronn-dev/smartdental/internal/llm"
	observemetrics "github.com/bronn-dev/smartdental/internal/observability/metrics"
	"github.com/bronn-dev/smartdental/internal/orchestration"
	"github.com/bronn-dev/smartdental/internal/schedule"
	"github.com/bronn-dev/smartdental/internal/store"
	"github.com/bronn-dev/smartdental/internal/triage"
	appmigrations "github.com/bronn-dev/smartdental/migrations"
	"github.com/bronn-dev/smartdental/pkg/logging"
)

// appStore is everything the pipeline needs from persistence.
type appStore interface {
	schedule.Store
	schedule.BookingStore
	triage.ProcedureStore
	clinic.Store
	handlers.CatalogStore
}

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting smartdental API server", "env", cfg.Env, "port", cfg.Port)

	for _, issue := range cfg.Issues() {
		logger.Warn("configuration issue", "issue", issue)
	}

	appCtx, stop := context.WithCancel(context.Background())
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	pipelineMetrics := observemetrics.NewPipelineMetrics(registry)

	var dataStore appStore
	if cfg.UseMemoryStore {
		mem := store.NewMemory()
		mem.LoadSeed(store.DemoSeed())
		dataStore = mem
		logger.Info("using in-memory store with demo seed data")
	} else {
		pool, err := pgxpool.New(appCtx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		runAutoMigrate(cfg.DatabaseURL, logger)
		dataStore = store.NewPostgres(pool)
	}

	var llmClient llm.Client = llm.Disabled{}
	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiClient(appCtx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Error("gemini client init failed", "error", err)
			os.Exit(1)
		}
		defer func() { _ = gemini.Close() }()
		llmClient = gemini
	}

	analyzer := triage.NewAnalyzer(llmClient, logger, triage.WithExtractionTimeout(cfg.ExtractionTimeout))
	resolver := triage.NewProcedureResolver(dataStore, logger)
	engine := schedule.NewEngine(dataStore, logger)
	orchestrator := orchestration.NewOrchestrator(analyzer, resolver, engine, dataStore, logger, pipelineMetrics)
	bookingService := schedule.NewBookingService(dataStore, logger)
	dashboard := clinic.NewDashboard(dataStore, logger)

	handler := router.New(&router.Config{
		Logger:             logger,
		Triage:             handlers.NewTriageHandler(orchestrator, logger),
		Slots:              handlers.NewSlotsHandler(engine, dataStore, logger),
		Appointments:       handlers.NewAppointmentsHandler(bookingService, dataStore, logger, pipelineMetrics),
		Dashboard:          handlers.NewDashboardHandler(dashboard, logger),
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
		stop()
	}()

	logger.Info("listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// runAutoMigrate applies pending schema migrations at startup.
func runAutoMigrate(databaseURL string, logger *logging.Logger) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		logger.Error("automigrate open failed", "error", err)
		return
	}
	defer func() { _ = db.Close() }()

	dbDriver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		logger.Error("automigrate driver failed", "error", err)
		return
	}
	srcDriver, err := iofs.New(appmigrations.FS, ".")
	if err != nil {
		logger.Error("automigrate source failed", "error", err)
		return
	}
	m, err := migrate.NewWithInstance("iofs", srcDriver, "postgres", dbDriver)
	if err != nil {
		logger.Error("automigrate init failed", "error", err)
		return
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("automigrate up failed", "error", err)
		return
	}
	logger.Info("schema migrations applied")
}
