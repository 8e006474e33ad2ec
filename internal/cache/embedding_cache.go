// Package cache keeps computed embeddings in Redis so re-ingesting an unchanged
// page or repeating a question does not call the embedding provider again.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"rag-chat-platform/internal/ai"
	"rag-chat-platform/internal/logger"
	"rag-chat-platform/utils"
)

// Redis is the subset of redis.Cmdable the cache needs
type Redis interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// EmbeddingCache is a read-through ai.Embedder decorator.
// Redis failures are logged and never fail the embed.
type EmbeddingCache struct {
	next ai.Embedder
	rdb  Redis
	ttl  time.Duration
	log  *slog.Logger
}

func NewEmbeddingCache(next ai.Embedder, rdb Redis, ttl time.Duration) *EmbeddingCache {
	return &EmbeddingCache{next: next, rdb: rdb, ttl: ttl, log: logger.L()}
}

// WithLogger replaces the logger
func (c *EmbeddingCache) WithLogger(l *slog.Logger) *EmbeddingCache {
	c.log = l
	return c
}

func (c *EmbeddingCache) Model() string { return c.next.Model() }

// Key is namespaced by model so switching models never serves stale vectors
func Key(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return "emb:" + model + ":" + hex.EncodeToString(sum[:])
}

func (c *EmbeddingCache) Embed(ctx context.Context, text string) ([]float32, error) {
	key := Key(c.next.Model(), text)

	if vec, ok := c.get(ctx, key); ok {
		return vec, nil
	}

	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.set(ctx, key, vec)
	return vec, nil
}

func (c *EmbeddingCache) get(ctx context.Context, key string) ([]float32, bool) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.log.Warn("Embedding cache read failed", "key", key, "error", err)
		return nil, false
	}

	data, err := utils.Decompress(raw, utils.EncodingBrotli)
	if err != nil {
		c.log.Warn("Embedding cache entry corrupt", "key", key, "error", err)
		return nil, false
	}
	var vec []float32
	if err := json.Unmarshal(data, &vec); err != nil || len(vec) == 0 {
		c.log.Warn("Embedding cache entry corrupt", "key", key, "error", err)
		return nil, false
	}
	return vec, true
}

func (c *EmbeddingCache) set(ctx context.Context, key string, vec []float32) {
	data, err := json.Marshal(vec)
	if err != nil {
		return
	}
	compressed, err := utils.Compress(data, utils.EncodingBrotli)
	if err != nil {
		c.log.Warn("Embedding cache compression failed", "key", key, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, key, compressed, c.ttl).Err(); err != nil {
		c.log.Warn("Embedding cache write failed", "key", key, "error", err)
	}
}
