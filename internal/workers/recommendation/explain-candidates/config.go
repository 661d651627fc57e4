// internal/workers/recommendation/explain-candidates/config.go
package explaincandidates

import (
	"time"

	"venue-recommender/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 3 * time.Second,
	}
}

func ConfigFrom(cfg config.RecommendationConfig) *Config {
	c := LoadConfig()
	if cfg.ExplanationTimeout > 0 {
		c.Timeout = config.GetDuration(cfg.ExplanationTimeout)
	}
	return c
}
