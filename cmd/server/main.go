// Package main provides the entry point for the cycler queue service.
// The service submits battery cycling jobs to a tomato daemon via its
// ketchup CLI, mirrors the queue into a database, and exposes the
// snapshots over an HTTP API with Prometheus metrics.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/battlab/cycler-queue-service/internal/api"
	"github.com/battlab/cycler-queue-service/internal/metrics"
	"github.com/battlab/cycler-queue-service/internal/scheduler"
	"github.com/battlab/cycler-queue-service/internal/storage"
	"github.com/battlab/cycler-queue-service/internal/syncer"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	// Server settings
	Port int
	Host string

	// Database settings
	DatabaseType string // "sqlite" or "postgres"
	DatabaseURL  string

	// Scheduler settings
	SchedulerBackend string // "mock" or "tomato" (required)
	ScriptDir        string // where submission scripts are written
	Shell            string // shell used to run ketchup commands

	// Syncer settings
	SyncInterval time.Duration
	StaleAfter   time.Duration

	// Logging
	Verbose bool
}

func main() {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err == nil {
		fmt.Println("Loaded configuration from .env")
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg.Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Initialize storage
	store, err := storage.New(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Initialize metrics exporter; it also observes scheduler outcomes
	metricsExporter := metrics.NewExporter(store)

	// Initialize scheduler source
	jobSource, err := initScheduler(cfg, metricsExporter, log)
	if err != nil {
		log.Fatal("failed to initialize scheduler", zap.Error(err))
	}
	log.Info("scheduler backend ready", zap.String("backend", cfg.SchedulerBackend))

	// Start the queue syncer
	syncerConfig := syncer.DefaultConfig()
	syncerConfig.SyncInterval = cfg.SyncInterval
	syncerConfig.StaleAfter = cfg.StaleAfter
	jobSyncer := syncer.New(jobSource, store, syncerConfig, log)
	jobSyncer.Start()
	defer jobSyncer.Stop()

	// Initialize API server
	apiServer := api.NewServer(store, jobSource, metricsExporter, log)

	addr := cfg.Host + ":" + strconv.Itoa(cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      apiServer.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("starting server", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-done
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("server shutdown failed", zap.Error(err))
	}
	log.Info("server stopped")
}

func loadConfig() (*Config, error) {
	cfg := &Config{}

	cfg.Port = getEnvInt("PORT", 8080)
	cfg.Host = getEnv("HOST", "0.0.0.0")
	cfg.DatabaseType = getEnv("DATABASE_TYPE", "sqlite")
	cfg.DatabaseURL = getEnv("DATABASE_URL", "")
	cfg.ScriptDir = getEnv("SCRIPT_DIR", "")
	cfg.Shell = getEnv("KETCHUP_SHELL", "")
	cfg.SyncInterval = getEnvDuration("SYNC_INTERVAL", 30*time.Second)
	cfg.StaleAfter = getEnvDuration("STALE_AFTER", 2*time.Minute)
	cfg.Verbose = getEnvBool("VERBOSE", false)

	// Scheduler configuration (required)
	cfg.SchedulerBackend = getEnv("SCHEDULER_BACKEND", "")
	if cfg.SchedulerBackend == "" {
		return nil, fmt.Errorf("SCHEDULER_BACKEND is required (must be 'mock' or 'tomato')")
	}
	if cfg.SchedulerBackend != "mock" && cfg.SchedulerBackend != "tomato" {
		return nil, fmt.Errorf("SCHEDULER_BACKEND must be 'mock' or 'tomato', got '%s'", cfg.SchedulerBackend)
	}

	if cfg.DatabaseType == "postgres" && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when DATABASE_TYPE is 'postgres'")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if boolVal, err := strconv.ParseBool(val); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// initScheduler creates the appropriate job source based on configuration.
func initScheduler(cfg *Config, observer scheduler.Observer, log *zap.Logger) (scheduler.JobSource, error) {
	switch cfg.SchedulerBackend {
	case "mock":
		return scheduler.NewMockJobSource(), nil
	case "tomato":
		return scheduler.NewTomatoJobSource(scheduler.TomatoConfig{
			ScriptDir: cfg.ScriptDir,
			Runner:    &scheduler.LocalRunner{Shell: cfg.Shell},
			Observer:  observer,
			Logger:    log,
		}), nil
	default:
		return nil, fmt.Errorf("unknown scheduler backend: %s", cfg.SchedulerBackend)
	}
}
