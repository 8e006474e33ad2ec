package queue

import (
	"strings"

	"github.com/hibiken/asynq"

	"rag-chat-platform/internal/config"
)

// RedisConnOpt maps REDIS_URL onto asynq's connection options
func RedisConnOpt(cfg *config.Config) (asynq.RedisConnOpt, error) {
	if strings.HasPrefix(cfg.RedisURL, "redis://") || strings.HasPrefix(cfg.RedisURL, "rediss://") {
		return asynq.ParseRedisURI(cfg.RedisURL)
	}
	addr := cfg.RedisURL
	if addr == "" {
		addr = "localhost:6379"
	}
	return asynq.RedisClientOpt{
		Addr:     addr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}
