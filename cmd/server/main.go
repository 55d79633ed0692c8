package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iconidentify/imgrabba/internal/api"
	"github.com/iconidentify/imgrabba/internal/api/handler"
	"github.com/iconidentify/imgrabba/internal/config"
	"github.com/iconidentify/imgrabba/internal/downloader"
	"github.com/iconidentify/imgrabba/internal/metrics"
	"github.com/iconidentify/imgrabba/internal/repository"
	"github.com/iconidentify/imgrabba/internal/service"
	"github.com/iconidentify/imgrabba/internal/worker"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("imgrabba-server %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting imgrabba server",
		"version", Version,
		"build_time", BuildTime,
	)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateServer(); err != nil {
		logger.Error("invalid server config", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.Storage.BasePath, 0755); err != nil {
		logger.Error("failed to create storage directory", "error", err)
		os.Exit(1)
	}

	// Initialize dependencies
	batchRepo := repository.NewInMemoryBatchRepository()
	fetcher := downloader.NewHTTPFetcher(cfg.Fetch, cfg.Storage)
	fetcher.SetLogger(logger)

	batchSvc := service.NewBatchService(
		fetcher,
		batchRepo,
		cfg.Storage,
		cfg.Worker,
		logger,
	)

	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		collector := metrics.New(cfg.Metrics.Namespace, reg)
		fetcher.SetObserver(collector)
		batchSvc.SetMetrics(collector)
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	// Initialize handlers
	batchHandler := handler.NewBatchHandler(batchSvc, logger)
	healthHandler := handler.NewHealthHandler(batchRepo, cfg.Storage.BasePath)

	router := api.NewRouter(batchHandler, healthHandler, metricsHandler, cfg.Server.APIKey, logger)

	pool := worker.NewPool(
		worker.Config{
			Workers:      cfg.Worker.BatchWorkers,
			PollInterval: cfg.Worker.PollInterval,
		},
		batchRepo,
		batchSvc,
		logger,
	)
	pool.Start()

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	// Running batches see a cancelled context; in-flight fetches abort.
	if err := pool.Stop(25 * time.Second); err != nil {
		logger.Error("worker pool shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
