package cache

import (
	"log/slog"

	"github.com/redis/go-redis/v9"

	"rag-chat-platform/internal/ai"
	"rag-chat-platform/internal/config"
)

// FromConfig connects to REDIS_URL and puts the embedding cache in front of
// embedder. Without Redis the embedder is returned unchanged and rdb is nil.
func FromConfig(cfg *config.Config, embedder ai.Embedder, log *slog.Logger) (ai.Embedder, *redis.Client) {
	if cfg.RedisURL == "" {
		return embedder, nil
	}
	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Warn("Redis unavailable, embeddings will not be cached", "error", err)
		return embedder, nil
	}
	return NewEmbeddingCache(embedder, rdb, cfg.EmbeddingCacheTTL).WithLogger(log), rdb
}
