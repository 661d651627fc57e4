// internal/common/genai/breaker.go
package genai

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"venue-recommender/internal/common/logger"
)

// BreakerConfig controls when the completion breaker opens.
type BreakerConfig struct {
	Name         string
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

// StateObserver is told about every breaker transition.
type StateObserver func(name, from, to string)

// BreakerCompleter short-circuits completions while the GenAI backend keeps
// failing. An open breaker answers ErrCircuitOpen without calling out.
type BreakerCompleter struct {
	next    Completer
	breaker *gobreaker.CircuitBreaker[string]
	logger  logger.Logger
}

func NewBreakerCompleter(next Completer, cfg BreakerConfig, observe StateObserver, log logger.Logger) *BreakerCompleter {
	if cfg.Name == "" {
		cfg.Name = "genai"
	}
	b := &BreakerCompleter{
		next:   next,
		logger: log.WithFields(map[string]interface{}{"breaker": cfg.Name}),
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.logger.Warn("circuit breaker state changed", map[string]interface{}{
				"from": from.String(),
				"to":   to.String(),
			})
			if observe != nil {
				observe(name, from.String(), to.String())
			}
		},
	}
	b.breaker = gobreaker.NewCircuitBreaker[string](settings)
	return b
}

func (b *BreakerCompleter) Complete(ctx context.Context, systemInstruction, userPrompt string) (string, error) {
	text, err := b.breaker.Execute(func() (string, error) {
		return b.next.Complete(ctx, systemInstruction, userPrompt)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", ErrCircuitOpen
	}
	return text, err
}

// State returns the breaker state name: closed, half-open or open.
func (b *BreakerCompleter) State() string {
	return b.breaker.State().String()
}
