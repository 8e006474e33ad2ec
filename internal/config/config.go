package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"rag-chat-platform/models"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string

	// Assistant persona used by the default prompt template
	AssistantTopic string

	// Generation
	GenerationProvider string // "gemini" (default), "ollama"
	GenerationModel    string
	GeminiAPIKey       string
	GeminiTier         string

	// Embeddings configuration
	EmbeddingsProvider    string // "google" (default), "ollama"
	GoogleEmbeddingsModel string // e.g., "text-embedding-004"
	OllamaHost            string
	OllamaChatModel       string
	OllamaEmbeddingsModel string

	// Vector store
	VectorStore      string // "memory" (default), "mongo", "qdrant"
	MongoURI         string
	DBName           string
	VectorCollection string
	VectorIndexName  string
	QdrantHost       string
	QdrantPort       int
	VectorDimensions int
	SimilarityMetric models.SimilarityMetric
	SearchLimit      int

	// Ingestion
	ChunkSize         int
	ChunkOverlap      int
	IngestConcurrency int
	RenderJS          bool
	RenderTimeout     time.Duration
	SourcesFile       string
	IngestCron        string
	IngestOnStart     bool

	// Redis Configuration
	RedisURL          string
	RedisPassword     string
	RedisDB           int
	EmbeddingCacheTTL time.Duration

	RateLimitReqs   int
	RateLimitWindow int
	MaxRequestBytes int64

	// Tracing
	TracingEnabled   bool
	OTLPEndpoint     string
	TraceSampleRatio float64
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	metric, err := models.ParseSimilarityMetric(getEnv("SIMILARITY_METRIC", string(models.MetricDotProduct)))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		CORSOrigins:    strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		AssistantTopic: getEnv("ASSISTANT_TOPIC", "Formula One"),

		GenerationProvider: getEnv("GENERATION_PROVIDER", "gemini"),
		GenerationModel:    getEnv("GENERATION_MODEL", "gemini-1.5-flash"),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GeminiTier:         getEnv("GEMINI_TIER", "free"),

		EmbeddingsProvider:    getEnv("EMBEDDINGS_PROVIDER", "google"),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		OllamaHost:            getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaChatModel:       getEnv("OLLAMA_CHAT_MODEL", "llama3.2"),
		OllamaEmbeddingsModel: getEnv("OLLAMA_EMBEDDINGS_MODEL", "nomic-embed-text"),

		VectorStore:      getEnv("VECTOR_STORE", "memory"),
		MongoURI:         getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:           getEnv("DB_NAME", "rag_chat"),
		VectorCollection: getEnv("VECTOR_COLLECTION", "f1gpt"),
		VectorIndexName:  getEnv("MONGODB_VECTOR_INDEX", "chunks_vector"),
		QdrantHost:       getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:       getEnvInt("QDRANT_PORT", 6334),
		VectorDimensions: getEnvInt("VECTOR_DIM", 768),
		SimilarityMetric: metric,
		SearchLimit:      getEnvInt("SEARCH_LIMIT", 10),

		ChunkSize:         getEnvInt("CHUNK_SIZE", 512),
		ChunkOverlap:      getEnvInt("CHUNK_OVERLAP", 100),
		IngestConcurrency: getEnvInt("INGEST_CONCURRENCY", 4),
		RenderJS:          getEnvBool("RENDER_JS", true),
		RenderTimeout:     getEnvDuration("RENDER_TIMEOUT", 60*time.Second),
		SourcesFile:       getEnv("SOURCES_FILE", ""),
		IngestCron:        getEnv("INGEST_CRON", ""),
		IngestOnStart:     getEnvBool("INGEST_ON_START", false),

		RedisURL:          getEnv("REDIS_URL", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		EmbeddingCacheTTL: getEnvDuration("EMBEDDING_CACHE_TTL", 24*time.Hour),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),
		MaxRequestBytes: getEnvInt64("MAX_REQUEST_BYTES", 1<<20),

		TracingEnabled:   getEnvBool("TRACING_ENABLED", false),
		OTLPEndpoint:     getEnv("OTLP_ENDPOINT", "localhost:4317"),
		TraceSampleRatio: getEnvFloat("TRACE_SAMPLE_RATIO", 0.1),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the combinations LoadConfig cannot express through defaults
func (cfg *Config) Validate() error {
	usesGemini := cfg.GenerationProvider == "gemini" || cfg.EmbeddingsProvider == "google"
	if usesGemini && cfg.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	switch cfg.GenerationProvider {
	case "gemini", "ollama":
	default:
		return fmt.Errorf("unknown generation provider: %s", cfg.GenerationProvider)
	}

	switch cfg.EmbeddingsProvider {
	case "google", "ollama":
	default:
		return fmt.Errorf("unknown embeddings provider: %s", cfg.EmbeddingsProvider)
	}

	switch cfg.VectorStore {
	case "memory", "mongo", "qdrant":
	default:
		return fmt.Errorf("unknown vector store: %s", cfg.VectorStore)
	}

	if cfg.VectorDimensions <= 0 {
		return fmt.Errorf("VECTOR_DIM must be positive")
	}
	if cfg.ChunkSize <= 0 || cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP (%d) must be non-negative and smaller than CHUNK_SIZE (%d)", cfg.ChunkOverlap, cfg.ChunkSize)
	}
	if cfg.TraceSampleRatio < 0 || cfg.TraceSampleRatio > 1 {
		return fmt.Errorf("TRACE_SAMPLE_RATIO must be between 0 and 1")
	}
	if cfg.SearchLimit <= 0 {
		return fmt.Errorf("SEARCH_LIMIT must be positive")
	}
	return nil
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

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
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
