package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"swaprouter/apps/router/internal/api"
	"swaprouter/apps/router/internal/config"
	"swaprouter/apps/router/internal/dex"
	"swaprouter/apps/router/internal/engine"
	"swaprouter/apps/router/internal/pubsub"
	"swaprouter/apps/router/internal/queue"
	"swaprouter/apps/router/internal/repository"
	"swaprouter/apps/router/internal/status"
	"swaprouter/apps/router/internal/worker"
)

func main() {
	// Initialize zap logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	// Load configuration from environment variables
	cfg := config.NewConfig()

	logger.Info("Starting application with configuration",
		zap.String("db_url", cfg.DbURL),
		zap.String("queue_backend", cfg.QueueBackend),
		zap.Int("api_port", cfg.APIPort),
		zap.Int("worker_concurrency", cfg.WorkerConcurrency),
		zap.Int("max_attempts", cfg.MaxAttempts),
	)

	// Connect to database
	db, err := sql.Open("postgres", cfg.DbURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Initialize database tables
	if err := repository.InitMigration(db); err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}

	orderRepository := repository.NewOrderRepository(db, logger)

	// Create the job queue
	var jobQueue queue.Queue
	switch cfg.QueueBackend {
	case config.QueueBackendKafka:
		jobQueue, err = queue.NewKafkaQueue(cfg.KafkaBroker, cfg.KafkaTopic, cfg.KafkaGroup, logger)
		if err != nil {
			logger.Fatal("Failed to create Kafka queue", zap.Error(err))
		}
	default:
		jobQueue = queue.NewMemoryQueue(0, logger)
	}
	defer jobQueue.Close()

	// Wire the order pipeline
	broker := pubsub.NewBroker(logger)
	publisher := status.NewPublisher(orderRepository, broker, logger)
	aggregator := dex.NewAggregator(dex.DefaultVenues(1.0, logger), logger)
	executionEngine := engine.New(cfg.MaxAttempts, publisher, logger)
	pipeline := worker.NewPipeline(orderRepository, aggregator, executionEngine, publisher, logger)
	pool := worker.NewPool(jobQueue, pipeline, cfg.WorkerConcurrency, logger)

	// Start worker pool in background
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	pool.Start(workerCtx)

	// Create and start API server
	apiServer := api.NewServer(cfg.APIPort, orderRepository, jobQueue, broker, logger)
	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Fatal("API server failed", zap.Error(err))
		}
	}()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	<-sigChan
	logger.Info("Received shutdown signal, starting graceful shutdown...")

	// Create a context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown API server gracefully
	if err := apiServer.Stop(ctx); err != nil {
		logger.Error("Error shutting down API server", zap.Error(err))
	}

	// Stop workers; in-flight jobs are redelivered on the next start
	stopWorkers()
	pool.Wait()

	logger.Info("Application shutdown complete")
}
