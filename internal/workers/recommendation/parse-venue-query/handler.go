// internal/workers/recommendation/parse-venue-query/handler.go
package parsevenuequery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"venue-recommender/internal/common/genai"
	"venue-recommender/internal/common/logger"
	"venue-recommender/internal/common/metrics"
	"venue-recommender/internal/common/observability"
	"venue-recommender/internal/common/validation"
	"venue-recommender/internal/models"
	"venue-recommender/internal/recommendation/mood"
)

const (
	TaskType  = "parse-venue-query"
	operation = "parse_query"
)

var (
	ErrReplyMalformed = errors.New("QUERY_REPLY_MALFORMED")
)

const systemInstruction = `Bạn là trợ lý phân tích yêu cầu tìm địa điểm đi chơi.
Đọc câu của người dùng và trả về DUY NHẤT một đối tượng JSON với các khóa:
"intent" (mục đích ngắn gọn), "mood" (một trong các trạng thái cảm xúc cặp đôi nếu nhận ra),
"personalityTags" (mảng nhãn tính cách), "region" (mã khu vực nếu được nhắc tới).
Bỏ trống khóa nào không xác định được. Không giải thích thêm.`

var schema = mustCompile(replySchema)

func mustCompile(s string) *validation.Schema {
	compiled, err := validation.CompileSchema(s)
	if err != nil {
		panic(fmt.Sprintf("parse-venue-query: reply schema: %v", err))
	}
	return compiled
}

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

// Execute extracts hints from a free-text query. It never fails: any
// problem with the completion yields an empty context.
func (h *Handler) Execute(ctx context.Context, query string) models.ParsedQueryContext {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < h.config.MinQueryLength {
		return models.ParsedQueryContext{}
	}

	start := time.Now()
	parsed, err := h.execute(ctx, query)
	metrics.CompletionDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	metrics.CompletionCalls.WithLabelValues(operation, outcome(err)).Inc()
	h.obs.RecordCompletion(ctx, operation, outcome(err))
	if err != nil {
		h.logger.Warn("query understanding degraded", map[string]interface{}{
			"error":      err.Error(),
			"errorCode":  errorCode(err, h.config.Timeout),
			"durationMs": time.Since(start).Milliseconds(),
		})
		return models.ParsedQueryContext{}
	}

	h.logger.Debug("query parsed", map[string]interface{}{
		"intent": parsed.Intent,
		"mood":   parsed.Mood,
		"region": parsed.Region,
		"tags":   len(parsed.PersonalityTags),
	})
	return parsed
}

func (h *Handler) execute(ctx context.Context, query string) (models.ParsedQueryContext, error) {
	text, err := genai.CompleteWithTimeout(ctx, h.completer, h.config.Timeout, systemInstruction, query)
	if err != nil {
		return models.ParsedQueryContext{}, err
	}
	return ParseReply(text)
}

// ParseReply decodes a completion reply into a query context. Fenced code
// blocks are unwrapped; a mood outside the known categories is dropped.
func ParseReply(text string) (models.ParsedQueryContext, error) {
	raw := []byte(stripFence(text))

	if result := schema.ValidateBytes(raw); !result.Valid {
		return models.ParsedQueryContext{}, fmt.Errorf("%w: %s", ErrReplyMalformed, result.Error())
	}

	var r reply
	if err := json.Unmarshal(raw, &r); err != nil {
		return models.ParsedQueryContext{}, fmt.Errorf("%w: %v", ErrReplyMalformed, err)
	}

	parsed := models.ParsedQueryContext{
		Intent: strings.TrimSpace(r.Intent),
		Region: strings.TrimSpace(r.Region),
	}
	if c := mood.Canonical(r.Mood); c != "" {
		parsed.Mood = string(c)
	}
	for _, tag := range r.PersonalityTags {
		if tag = strings.TrimSpace(tag); tag != "" {
			parsed.PersonalityTags = append(parsed.PersonalityTags, tag)
		}
	}
	return parsed, nil
}

// stripFence returns the body of the first fenced block, or the trimmed
// text when there is none.
func stripFence(text string) string {
	text = strings.TrimSpace(text)
	open := strings.Index(text, "```")
	if open < 0 {
		return text
	}
	body := text[open+3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		// language hint such as ```json
		if !strings.ContainsAny(body[:nl], "{[") {
			body = body[nl+1:]
		}
	}
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

func errorCode(err error, timeout time.Duration) string {
	if errors.Is(err, ErrReplyMalformed) {
		return ErrReplyMalformed.Error()
	}
	return string(genai.Describe(operation, timeout, err).Code)
}

func outcome(err error) string {
	if errors.Is(err, ErrReplyMalformed) {
		return "malformed"
	}
	return genai.Outcome(err)
}
