// internal/workers/recommendation/retrieve-candidates/config.go
package retrievecandidates

import "venue-recommender/internal/common/config"

type Config struct {
	DefaultRadiusKm float64
	MaxCandidates   int
}

func LoadConfig() *Config {
	return &Config{
		DefaultRadiusKm: 5,
		MaxCandidates:   50,
	}
}

func ConfigFrom(cfg config.RecommendationConfig) *Config {
	c := LoadConfig()
	if cfg.DefaultRadiusKm > 0 {
		c.DefaultRadiusKm = cfg.DefaultRadiusKm
	}
	if cfg.MaxCandidates > 0 {
		c.MaxCandidates = cfg.MaxCandidates
	}
	return c
}
