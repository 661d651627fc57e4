// internal/workers/recommendation/explain-candidates/handler.go
package explaincandidates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"venue-recommender/internal/common/genai"
	"venue-recommender/internal/common/logger"
	"venue-recommender/internal/common/metrics"
	"venue-recommender/internal/common/observability"
)

const (
	TaskType  = "explain-candidates"
	operation = "explain"
)

var (
	ErrNoExplanations = errors.New("NO_EXPLANATIONS")
)

type Handler struct {
	config    *Config
	completer genai.Completer
	obs       *observability.Observability
	logger    logger.Logger
}

func NewHandler(config *Config, completer genai.Completer, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		completer: completer,
		obs:       &observability.Observability{},
		logger: log.WithFields(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

// WithObservability records completion outcomes on o as well.
func (h *Handler) WithObservability(o *observability.Observability) *Handler {
	if o != nil {
		h.obs = o
	}
	return h
}

// Execute asks the completion service to explain each venue. It never
// fails: on any problem Reasons is empty and the overview is synthesized.
func (h *Handler) Execute(ctx context.Context, in Input) *Output {
	out := &Output{Reasons: map[int]string{}}
	if len(in.Venues) == 0 {
		out.Overview = SynthesizeOverview(in)
		return out
	}

	start := time.Now()
	parsed, err := h.execute(ctx, in)
	metrics.CompletionDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	metrics.CompletionCalls.WithLabelValues(operation, genai.Outcome(err)).Inc()
	h.obs.RecordCompletion(ctx, operation, genai.Outcome(err))

	if err != nil {
		code := ErrNoExplanations.Error()
		if !errors.Is(err, ErrNoExplanations) {
			code = string(genai.Describe(operation, h.config.Timeout, err).Code)
		}
		h.logger.Warn("explanation degraded, using defaults", map[string]interface{}{
			"error":      err.Error(),
			"errorCode":  code,
			"venues":     len(in.Venues),
			"durationMs": time.Since(start).Milliseconds(),
		})
	} else {
		for i, reason := range parsed {
			if i != OverviewIndex {
				out.Reasons[i] = reason
			}
		}
		out.Overview = parsed[OverviewIndex]
	}

	if strings.TrimSpace(out.Overview) == "" {
		out.Overview = SynthesizeOverview(in)
	}
	return out
}

func (h *Handler) execute(ctx context.Context, in Input) (map[int]string, error) {
	text, err := genai.CompleteWithTimeout(ctx, h.completer, h.config.Timeout, systemInstruction, BuildPrompt(in))
	if err != nil {
		return nil, err
	}

	parsed := ParseReply(text, len(in.Venues))
	if len(parsed) == 0 {
		return nil, fmt.Errorf("%w: reply had no usable lines", ErrNoExplanations)
	}
	return parsed, nil
}
