package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI    string
	DBName      string
	Port        string
	GinMode     string
	CORSOrigins []string
	JWTSecret   string

	// Upload limits
	MaxFileSize  int64
	AllowedTypes []string

	// Chunking
	MaxChunkChars int

	// Retrieval / context assembly
	RetrievalTopK      int
	ContextTokenBudget int

	// Redis (asynq backing + embedding cache)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Gemini
	GeminiAPIKey   string
	GeminiTier     string
	ChatModel      string
	EmbeddingModel string

	// Qdrant vector store
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string
	VectorDimensions int

	// AWS (object storage + text extraction)
	AWSRegion    string
	AWSAccessKey string
	AWSSecretKey string
	S3Bucket     string

	// Extraction job polling
	ExtractionPollInterval time.Duration
	ExtractionMaxWait      time.Duration

	// Similarity recommendations
	SuggestionWorkers  int
	EmbeddingCacheTTL  time.Duration
	SuggestionMaxLimit int

	// Ingestion sweep
	StuckThreshold time.Duration
	SweepInterval  time.Duration

	// Per-user API rate limiting
	RateLimitReqs   int
	RateLimitWindow time.Duration
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017/studymate"),
		DBName:      getEnv("DB_NAME", "studymate"),
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		JWTSecret:   getEnv("JWT_SECRET", ""),

		MaxFileSize:  getEnvInt64("MAX_FILE_SIZE", 52428800), // 50MB
		AllowedTypes: strings.Split(getEnv("ALLOWED_FILE_TYPES", "application/pdf"), ","),

		MaxChunkChars: getEnvInt("MAX_CHUNK_CHARS", 1500),

		RetrievalTopK:      getEnvInt("RETRIEVAL_TOP_K", 5),
		ContextTokenBudget: getEnvInt("CONTEXT_TOKEN_BUDGET", 4000),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiTier:     getEnv("GEMINI_TIER", "free"),
		ChatModel:      getEnv("CHAT_MODEL", "gemini-2.0-flash"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-004"),

		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey:     getEnv("QDRANT_API_KEY", ""),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "document_chunks"),
		VectorDimensions: getEnvInt("VECTOR_DIM", 768),

		AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AWSSecretKey: getEnv("AWS_SECRET_KEY", ""),
		S3Bucket:     getEnv("S3_BUCKET", "studymate-docs"),

		ExtractionPollInterval: getEnvDuration("EXTRACTION_POLL_INTERVAL", 3*time.Second),
		ExtractionMaxWait:      getEnvDuration("EXTRACTION_MAX_WAIT", 10*time.Minute),

		SuggestionWorkers:  getEnvInt("SUGGESTION_WORKERS", 4),
		EmbeddingCacheTTL:  getEnvDuration("EMBEDDING_CACHE_TTL", 6*time.Hour),
		SuggestionMaxLimit: getEnvInt("SUGGESTION_MAX_LIMIT", 20),

		StuckThreshold: getEnvDuration("STUCK_THRESHOLD", 30*time.Minute),
		SweepInterval:  getEnvDuration("SWEEP_INTERVAL", 15*time.Minute),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 120),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
	}

	// Validate required fields
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required - set it in .env file")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
