// internal/common/genai/factory.go
package genai

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"venue-recommender/internal/common/config"
	"venue-recommender/internal/common/logger"
)

// New assembles the completion chain for cfg: backend, then breaker, then
// the optional Redis cache in front. rdb may be nil when caching is off.
func New(ctx context.Context, cfg config.GenAIConfig, rdb *redis.Client, observe StateObserver, log logger.Logger) (Completer, error) {
	var backend Completer
	switch cfg.Provider {
	case config.ProviderHTTP, "":
		backend = NewHTTPCompleter(&HTTPConfig{
			BaseURL:     cfg.BaseURL,
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Timeout:     config.GetDuration(cfg.Timeout),
			MaxRetries:  cfg.MaxRetries,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		}, log)
	case config.ProviderArk:
		ark, err := NewArkCompleter(ctx, EinoConfig{
			BaseURL:     cfg.BaseURL,
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		})
		if err != nil {
			return nil, err
		}
		backend = ark
	default:
		return nil, fmt.Errorf("unsupported genai provider %q", cfg.Provider)
	}

	var chain Completer = NewBreakerCompleter(backend, BreakerConfig{
		Name:         "genai-" + cfg.Provider,
		MaxRequests:  cfg.Breaker.MaxRequests,
		Interval:     config.GetDuration(cfg.Breaker.Interval),
		Timeout:      config.GetDuration(cfg.Breaker.Timeout),
		FailureRatio: cfg.Breaker.FailureRatio,
		MinRequests:  cfg.Breaker.MinRequests,
	}, observe, log)

	if cfg.CacheTTL > 0 && rdb != nil {
		chain = NewCachedCompleter(chain, rdb, time.Duration(cfg.CacheTTL)*time.Second, log)
	}
	return chain, nil
}
