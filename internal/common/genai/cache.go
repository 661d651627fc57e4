// internal/common/genai/cache.go
package genai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"venue-recommender/internal/common/logger"
)

const cacheKeyPrefix = "genai:completion:"

// CachedCompleter memoises completions in Redis. Cache errors never fail a
// call; they only cost the round trip.
type CachedCompleter struct {
	next   Completer
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedCompleter(next Completer, client *redis.Client, ttl time.Duration, log logger.Logger) *CachedCompleter {
	return &CachedCompleter{
		next:   next,
		redis:  client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "genai-cache"}),
	}
}

// CacheKey is the Redis key for one system/prompt pair.
func CacheKey(systemInstruction, userPrompt string) string {
	sum := sha256.Sum256([]byte(systemInstruction + "\x00" + userPrompt))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *CachedCompleter) Complete(ctx context.Context, systemInstruction, userPrompt string) (string, error) {
	key := CacheKey(systemInstruction, userPrompt)

	cached, err := c.redis.Get(ctx, key).Result()
	switch {
	case err == nil && cached != "":
		return cached, nil
	case err != nil && !errors.Is(err, redis.Nil):
		c.logger.Warn("completion cache read failed", map[string]interface{}{"error": err.Error()})
	}

	text, err := c.next.Complete(ctx, systemInstruction, userPrompt)
	if err != nil {
		return "", err
	}
	if text == "" {
		return text, nil
	}

	if err := c.redis.Set(ctx, key, text, c.ttl).Err(); err != nil {
		c.logger.Warn("completion cache write failed", map[string]interface{}{"error": err.Error()})
	}
	return text, nil
}
