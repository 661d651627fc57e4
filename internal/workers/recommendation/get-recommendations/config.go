// internal/workers/recommendation/get-recommendations/config.go
package getrecommendations

import (
	"fmt"
	"time"

	"venue-recommender/internal/common/config"
	explaincandidates "venue-recommender/internal/workers/recommendation/explain-candidates"
	parsevenuequery "venue-recommender/internal/workers/recommendation/parse-venue-query"
	retrievecandidates "venue-recommender/internal/workers/recommendation/retrieve-candidates"
)

type Config struct {
	Enabled         bool
	Timeout         time.Duration
	DefaultPageSize int
	MaxPageSize     int
	SlowThreshold   time.Duration

	Query       *parsevenuequery.Config
	Retrieval   *retrievecandidates.Config
	Explanation *explaincandidates.Config
}

func LoadConfig() *Config {
	return &Config{
		Enabled:         true,
		Timeout:         30 * time.Second,
		DefaultPageSize: 10,
		MaxPageSize:     50,
		SlowThreshold:   1500 * time.Millisecond,
		Query:           parsevenuequery.LoadConfig(),
		Retrieval:       retrievecandidates.LoadConfig(),
		Explanation:     explaincandidates.LoadConfig(),
	}
}

// ConfigFrom builds the pipeline config from the application config.
func ConfigFrom(appConfig *config.Config) *Config {
	c := LoadConfig()
	if appConfig == nil {
		return c
	}

	rec := appConfig.Recommendation
	if rec.DefaultPageSize > 0 {
		c.DefaultPageSize = rec.DefaultPageSize
	}
	if rec.MaxPageSize > 0 {
		c.MaxPageSize = rec.MaxPageSize
	}
	if rec.SlowThreshold > 0 {
		c.SlowThreshold = config.GetDuration(rec.SlowThreshold)
	}
	c.Query = parsevenuequery.ConfigFrom(rec)
	c.Retrieval = retrievecandidates.ConfigFrom(rec)
	c.Explanation = explaincandidates.ConfigFrom(rec)

	if wc, ok := appConfig.Workers[TaskType]; ok {
		c.Enabled = wc.Enabled
		if wc.Timeout > 0 {
			c.Timeout = config.GetDuration(wc.Timeout)
		}
	}
	return c
}

func (c *Config) Validate() error {
	if c.DefaultPageSize <= 0 || c.MaxPageSize <= 0 {
		return fmt.Errorf("page sizes must be positive")
	}
	if c.DefaultPageSize > c.MaxPageSize {
		return fmt.Errorf("default page size %d exceeds max %d", c.DefaultPageSize, c.MaxPageSize)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Query == nil || c.Retrieval == nil || c.Explanation == nil {
		return fmt.Errorf("stage configs are required")
	}
	return nil
}
