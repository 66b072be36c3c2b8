package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"studymate-platform/internal/ai"
	"studymate-platform/internal/config"
	"studymate-platform/internal/database"
	"studymate-platform/internal/logger"
	"studymate-platform/internal/objectstore"
	"studymate-platform/internal/telemetry"
	"studymate-platform/internal/vectorstore"
	"studymate-platform/middleware"
	"studymate-platform/routes"
	"studymate-platform/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg)

	shutdownTracer, err := telemetry.InitTracer("studymate-platform")
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	} else {
		defer shutdownTracer()
	}
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

	queueClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer queueClient.Close()

	embeddingCache := services.NewEmbeddingCache(redisClient, cfg.EmbeddingCacheTTL)
	assembler := services.NewContextAssembler(vectors, cfg.RetrievalTopK, cfg.ContextTokenBudget)
	chatService := services.NewChatService(store, assembler, geminiClient, metrics)
	exportService := services.NewExportService(store)
	suggestionService := services.NewSuggestionService(store, geminiClient, embeddingCache, cfg.SuggestionWorkers, cfg.SuggestionMaxLimit, metrics)

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.TracingMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	authMW := middleware.RequireAuth(cfg.JWTSecret)
	rateLimitMW := middleware.RateLimitMiddleware(redisClient, cfg.RateLimitReqs, cfg.RateLimitWindow)
	router.Use(rateLimitMW)
	router.Use(middleware.EnrichTrace())

	routes.SetupDocumentRoutes(router, cfg, store, objects, vectors, embeddingCache, queueClient, authMW)
	routes.SetupChatRoutes(router, chatService, authMW)
	routes.SetupStudyRoutes(router, store, exportService, authMW)
	routes.SetupSuggestionRoutes(router, suggestionService, authMW)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("server exited")
}
