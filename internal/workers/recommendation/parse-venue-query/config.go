// internal/workers/recommendation/parse-venue-query/config.go
package parsevenuequery

import (
	"time"

	"venue-recommender/internal/common/config"
)

type Config struct {
	Timeout        time.Duration
	MinQueryLength int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        2 * time.Second,
		MinQueryLength: 5,
	}
}

// ConfigFrom reads the query settings of the recommendation section.
func ConfigFrom(cfg config.RecommendationConfig) *Config {
	c := LoadConfig()
	if cfg.QueryTimeout > 0 {
		c.Timeout = config.GetDuration(cfg.QueryTimeout)
	}
	if cfg.MinQueryLength > 0 {
		c.MinQueryLength = cfg.MinQueryLength
	}
	return c
}
