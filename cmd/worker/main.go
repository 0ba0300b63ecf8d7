package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/guilhermexp/zenith-tasks/internal/config"
	"github.com/guilhermexp/zenith-tasks/internal/database"
	"github.com/guilhermexp/zenith-tasks/internal/logger"
	"github.com/guilhermexp/zenith-tasks/internal/queue"
	"github.com/guilhermexp/zenith-tasks/internal/services/ai"
	"github.com/guilhermexp/zenith-tasks/internal/services/intelligence"
	"github.com/guilhermexp/zenith-tasks/internal/workers"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Parse command-line flags
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	scheduleFlag := flag.Bool("schedule", false, "Enqueue the twice-daily analysis jobs and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override debug mode if flag is set
	debugMode := cfg.WorkerDebugMode || *debugFlag

	// Initialize logger
	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		if syncErr := zapLogger.Sync(); syncErr != nil {
			// Ignore sync errors in production
			_ = syncErr
		}
	}()

	zapLogger.Info("Starting worker",
		zap.Bool("debug_mode", debugMode),
		zap.String("ai_provider", cfg.AIProvider),
		zap.String("ai_model", cfg.AIModel),
	)

	// Initialize database connection
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("Failed to close database connection", zap.Error(err))
		}
	}()

	zapLogger.Info("Connected to database")

	// Initialize repositories
	itemRepo := database.NewItemRepository(db)
	analysisRepo := database.NewAnalysisRepository(db)
	patternRepo := database.NewPatternRepository(db)
	conflictRepo := database.NewConflictRepository(db)

	// Initialize RabbitMQ queue
	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
	if err != nil {
		zapLogger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("Failed to close RabbitMQ connection", zap.Error(err))
		}
	}()

	zapLogger.Info("Connected to RabbitMQ",
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	// The scheduler mode only enqueues jobs, meant for cron
	if *scheduleFlag {
		scheduler := workers.NewScheduler(jobQueue, itemRepo, zapLogger)
		if err := scheduler.ScheduleAnalysisJobs(context.Background()); err != nil {
			zapLogger.Fatal("Failed to schedule analysis jobs", zap.Error(err))
		}
		return
	}

	// Connect to Redis for the analysis snapshot cache
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("Failed to parse Redis URL", zap.Error(err))
	}
	redisClient := redis.NewClient(redisOpts)
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		pingCancel()
		zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	pingCancel()
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("Failed to close Redis connection", zap.Error(err))
		}
	}()
	analysisCache := database.NewAnalysisCache(redisClient, cfg.AnalysisCacheTTL)

	// Create AI provider with logger; the scorer falls back to rule-based
	// prioritization when no provider is configured
	var aiProvider ai.Provider
	if cfg.OpenAIKey != "" && cfg.AIProvider == "openai" {
		aiProvider = ai.NewOpenAIProviderWithLogger(
			cfg.OpenAIKey,
			cfg.AIBaseURL,
			cfg.AIModel,
			zapLogger,
			debugMode,
		)
		zapLogger.Info("Initialized AI provider",
			zap.String("provider", cfg.AIProvider),
			zap.String("model", cfg.AIModel),
		)
	} else {
		zapLogger.Warn("No AI provider configured, using rule-based scoring")
	}

	// Build the intelligence engine
	scorer := intelligence.NewScorer(aiProvider, analysisRepo, zapLogger)
	scorer.SetMaxAttempts(cfg.ScorerMaxAttempts)
	patternDetector := intelligence.NewPatternDetector(patternRepo, intelligence.PatternConfig{
		MinOccurrences: cfg.PatternMinOccurrences,
		MinConfidence:  cfg.PatternMinConfidence,
	}, zapLogger)
	conflictDetector := intelligence.NewConflictDetector(conflictRepo, zapLogger)
	engine := intelligence.NewEngine(scorer, patternDetector, conflictDetector)

	// Create the analysis worker
	worker := workers.NewAnalysisWorker(engine, itemRepo, analysisCache, jobQueue)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start the DLQ garbage collector
	// Run every hour, retain messages for 24 hours
	dlqGC := queue.NewGarbageCollector(jobQueue, 1*time.Hour, 24*time.Hour)
	go func() {
		if err := dlqGC.Start(ctx); err != nil && err != context.Canceled {
			zapLogger.Error("DLQ garbage collector stopped with error", zap.Error(err))
		}
	}()

	// Start consuming messages
	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("Failed to start consuming messages", zap.Error(err))
	}

	zapLogger.Info("Worker started, consuming messages from queue")

	// Process messages
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgChan:
				if !ok {
					zapLogger.Info("Message channel closed")
					return
				}

				// Process job
				if err := worker.ProcessJob(ctx, msg); err != nil {
					zapLogger.Error("Failed to process job",
						zap.Error(err),
						zap.String("job_id", msg.GetJob().ID.String()),
						zap.String("job_type", string(msg.GetJob().Type)),
					)
				}
			}
		}
	}()

	// Handle errors
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errChan:
				if !ok {
					return
				}
				zapLogger.Error("Queue error", zap.Error(err))
			}
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	zapLogger.Info("Shutdown signal received, stopping worker...")

	// Cancel context to stop processing
	cancel()

	zapLogger.Info("Worker stopped")
}
