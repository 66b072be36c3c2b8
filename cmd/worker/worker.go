package main

import (
	"context"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"studymate-platform/internal/ai"
	"studymate-platform/internal/config"
	"studymate-platform/internal/database"
	"studymate-platform/internal/logger"
	"studymate-platform/internal/objectstore"
	"studymate-platform/internal/queue"
	"studymate-platform/internal/telemetry"
	"studymate-platform/internal/vectorstore"
	"studymate-platform/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg)

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		logger.Warn("metrics disabled", "error", err)
	}

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()
	store := database.NewStore(mongoClient, cfg.DBName)

	redisClient, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer redisClient.Close()

	geminiClient, err := ai.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiTier, cfg.ChatModel, cfg.EmbeddingModel)
	if err != nil {
		log.Fatal("Failed to initialize Gemini client:", err)
	}
	defer geminiClient.Close()

	awsCfg, err := objectstore.LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		log.Fatal("Failed to load AWS config:", err)
	}
	objects, err := objectstore.NewS3Store(context.Background(), cfg)
	if err != nil {
		log.Fatal("Failed to initialize object storage:", err)
	}

	vectors := vectorstore.NewGateway(vectorstore.Config{
		URL:        cfg.QdrantURL,
		APIKey:     cfg.QdrantAPIKey,
		Collection: cfg.QdrantCollection,
		Dimension:  cfg.VectorDimensions,
	}, geminiClient)

	textract := services.NewTextractClient(awsCfg, cfg.S3Bucket)
	poller := services.NewExtractionPoller(textract, cfg.ExtractionPollInterval, cfg.ExtractionMaxWait)
	chunker := services.NewChunkerService(cfg.MaxChunkChars)
	embeddingCache := services.NewEmbeddingCache(redisClient, cfg.EmbeddingCacheTTL)
	studyGen := services.NewStudyGenerator(geminiClient, store, metrics)
	ingestion := services.NewIngestionService(store, objects, poller, chunker, vectors, studyGen, embeddingCache, metrics)

	sweeper := services.NewIngestionSweeper(store, cfg.StuckThreshold)
	if err := sweeper.Start(cfg.SweepInterval); err != nil {
		logger.Warn("failed to schedule stuck ingestion sweep", "error", err)
	}
	defer sweeper.Stop()

	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			StrictPriority: true,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	processor := queue.NewTaskProcessor(ingestion)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskDocumentIngest, processor.HandleDocumentIngest)
	mux.HandleFunc(queue.TaskStudyRegen, processor.HandleStudyRegen)

	logger.Info("starting worker", "concurrency", 10, "redis", cfg.RedisURL)
	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
