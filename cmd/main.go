package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"submission-preprocessor/internal/api"
	"submission-preprocessor/internal/awsclient"
	"submission-preprocessor/internal/config"
	"submission-preprocessor/internal/pipeline"
	"submission-preprocessor/internal/queue"
	"submission-preprocessor/internal/stream"
	"submission-preprocessor/pkg/logger"
	"submission-preprocessor/pkg/validator"
)

func main() {
	// Initialize logger
	logger.Init(os.Getenv("LOG_MODE") == "prod")
	defer logger.Sync()
	log := logger.Get()

	// Load configuration
	cfg := config.Load()
	log.Infow("loaded configuration",
		"aws_endpoint", cfg.AWSEndpointURL,
		"aws_region", cfg.AWSRegion,
		"queue", cfg.QueueName,
		"stream", cfg.StreamName,
		"batch_size", cfg.BatchSize,
		"visibility_timeout_s", cfg.VisibilityTimeoutSeconds,
		"rate_per_second", cfg.RatePerSecond,
	)

	ctx := context.Background()
	awsCfg, err := awsclient.Load(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to load AWS config", "error", err)
	}

	// Metrics registry shared by the pipeline and the ops server
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics := pipeline.NewMetrics(registry)

	// Queue and stream clients are built once and injected; no package-level
	// client state.
	consumer, err := queue.NewConsumer(ctx, awsCfg, cfg, metrics)
	if err != nil {
		log.Fatalw("failed to initialize queue consumer", "error", err)
	}
	publisher := stream.NewPublisher(awsCfg, cfg, metrics)

	orch := pipeline.NewOrchestrator(consumer, publisher, &validator.SubmissionValidator{}, metrics, cfg)
	orch.Start()

	// Ops HTTP server (health + metrics)
	mux := http.NewServeMux()
	server := api.NewServer(orch, registry)
	server.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		log.Infow("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server error", "error", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM. A leased-but-undeleted message
	// redelivers once its visibility timeout expires.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server shutdown error", "error", err)
	}

	orch.Shutdown()
	log.Info("service stopped")
}
