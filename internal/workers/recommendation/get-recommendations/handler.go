// internal/workers/recommendation/get-recommendations/handler.go
package getrecommendations

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"venue-recommender/internal/common/errors"
	"venue-recommender/internal/common/genai"
	"venue-recommender/internal/common/logger"
	"venue-recommender/internal/common/metrics"
	"venue-recommender/internal/common/observability"
	"venue-recommender/internal/common/validation"
	"venue-recommender/internal/recommendation/mood"
	"venue-recommender/internal/recommendation/personality"
	venuestore "venue-recommender/internal/workers/data-access/venue-store"
	assembleresponse "venue-recommender/internal/workers/recommendation/assemble-response"
	explaincandidates "venue-recommender/internal/workers/recommendation/explain-candidates"
	parsevenuequery "venue-recommender/internal/workers/recommendation/parse-venue-query"
	retrievecandidates "venue-recommender/internal/workers/recommendation/retrieve-candidates"
	"venue-recommender/pkg/registry"
)

const TaskType = "get-recommendations"

type Handler struct {
	config      *Config
	backend     string
	parser      *parsevenuequery.Handler
	retriever   *retrievecandidates.Handler
	explainer   *explaincandidates.Handler
	assembler   *assembleresponse.Handler
	inputSchema *validation.Schema
	errors      *errors.ErrorHandler
	obs         *observability.Observability
	logger      logger.Logger
}

type HandlerOptions struct {
	Config        *Config
	Store         venuestore.Store
	Completer     genai.Completer
	Observability *observability.Observability
	// Activity, when set, supplies the JSON schema job variables are
	// checked against.
	Activity *registry.Activity
	Logger   logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = LoadConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("%s: venue store is required", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	obs := opts.Observability
	if obs == nil {
		obs = &observability.Observability{}
	}

	h := &Handler{
		config:    cfg,
		backend:   opts.Store.Backend(),
		parser:    parsevenuequery.NewHandler(cfg.Query, opts.Completer, log).WithObservability(obs),
		retriever: retrievecandidates.NewHandler(cfg.Retrieval, opts.Store, log),
		explainer: explaincandidates.NewHandler(cfg.Explanation, opts.Completer, log).WithObservability(obs),
		assembler: assembleresponse.NewHandler(log),
		obs:       obs,
		logger: log.WithFields(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
	h.errors = errors.NewErrorHandler(h.logger)

	if opts.Activity != nil && len(opts.Activity.InputSchema) > 0 {
		schema, err := validation.CompileSchema(opts.Activity.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("%s input schema: %w", TaskType, err)
		}
		h.inputSchema = schema
	}
	return h, nil
}

// Handle serves a get-recommendations job.
func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.Key,
		"processInstanceKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	if !h.config.Enabled {
		h.fail(ctx, client, job, errors.NewInvalidRequestError("worker disabled by configuration"))
		return
	}

	input, err := h.parseInput(job)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	raw := []byte(job.Variables)
	if len(strings.TrimSpace(job.Variables)) == 0 {
		raw = []byte("{}")
	}

	if h.inputSchema != nil {
		if result := h.inputSchema.ValidateBytes(raw); !result.Valid {
			return nil, errors.NewInvalidRequestError(result.Error())
		}
	}

	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, errors.NewInvalidRequestError(fmt.Sprintf("decode variables: %v", err))
	}
	if result := validation.ValidateStruct(input); !result.Valid {
		return nil, errors.NewInvalidRequestError(result.Error())
	}
	return &input, nil
}

// Execute runs the full pipeline for one request. Only a venue store
// failure is returned as an error; completion problems degrade to defaults.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()
	requestID := uuid.NewString()

	ctx, span := h.obs.StartSpan(ctx, "recommendation.execute", attribute.String("request.id", requestID))
	defer span.End()

	p := h.resolveProfile(ctx, input)

	retrieval := retrievecandidates.Input{
		CoupleMood:       p.coupleMood,
		PersonalityTags:  p.personalityTags,
		SingleMoodDetail: p.singleMood,
		AreaCode:         p.areaCode,
		Lat:              input.Latitude,
		Lon:              input.Longitude,
		RadiusKm:         input.RadiusKm,
		BudgetTier:       input.BudgetTier,
		Limit:            h.config.Retrieval.MaxCandidates,
	}

	result, err := h.retriever.Execute(ctx, retrieval)
	if err == nil && len(result.Candidates) == 0 {
		result, err = h.retriever.Popular(ctx, retrieval)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "venue query failed")
		return nil, errors.NewVenueQueryFailedError(h.backend, err)
	}

	page, pageSize := h.pageOf(input)
	pageCandidates := slicePage(result.Candidates, page, pageSize)

	explanations := h.explainer.Execute(ctx, explaincandidates.Input{
		Venues:          retrievecandidates.Venues(pageCandidates),
		CoupleMood:      p.coupleMood,
		SingleMood:      p.singleMood,
		PersonalityTags: p.personalityTags,
		Personality1:    p.personality1,
		Personality2:    p.personality2,
		Query:           optional(input.Query),
	})

	output := h.assembler.Execute(assembleresponse.Input{
		RequestID:       requestID,
		StartedAt:       start,
		Candidates:      pageCandidates,
		Explanations:    explanations,
		FallbackUsed:    result.FallbackUsed,
		CoupleMood:      p.coupleMood,
		SingleMood:      p.singleLabel,
		PersonalityTags: p.personalityTags,
		Page:            page,
		PageSize:        pageSize,
		TotalItems:      len(result.Candidates),
	})

	h.record(ctx, start, output, len(result.Candidates))
	span.SetAttributes(
		attribute.Int("recommendation.candidates", len(result.Candidates)),
		attribute.Bool("recommendation.fallback", result.FallbackUsed),
	)
	return output, nil
}

// resolveProfile derives moods, personality tags and area code from the
// request. Query hints only fill what the explicit fields left empty.
func (h *Handler) resolveProfile(ctx context.Context, input *Input) profile {
	var p profile

	m1, m2 := mood.Normalize(input.Mood1), mood.Normalize(input.Mood2)
	switch {
	case m1 != "" && m2 != "":
		p.coupleMood = optional(string(mood.Map(m1, m2)))
	case m1 != "":
		p.singleLabel, p.singleMood = optional(m1), optional(mood.DetailTag(m1))
	case m2 != "":
		p.singleLabel, p.singleMood = optional(m2), optional(mood.DetailTag(m2))
	}

	p.personality1 = optional(input.Personality1)
	p.personality2 = optional(input.Personality2)
	switch {
	case p.personality1 != nil && p.personality2 != nil:
		p.personalityTags = personality.Map(*p.personality1, *p.personality2)
	case p.personality1 != nil:
		p.personalityTags = personality.SingleTags(*p.personality1)
	case p.personality2 != nil:
		p.personalityTags = personality.SingleTags(*p.personality2)
	default:
		p.personalityTags = []string{}
	}

	if !input.HasCoordinates() {
		p.areaCode = optional(input.AreaCode)
	}

	if strings.TrimSpace(input.Query) == "" {
		return p
	}
	parsed := h.parser.Execute(ctx, input.Query)
	if parsed.IsEmpty() {
		return p
	}

	if parsed.Mood != "" && p.coupleMood == nil && p.singleMood == nil {
		p.coupleMood = optional(parsed.Mood)
	}
	p.personalityTags = appendUnique(p.personalityTags, parsed.PersonalityTags...)
	if parsed.Region != "" && !input.HasCoordinates() && p.areaCode == nil {
		p.areaCode = optional(parsed.Region)
	}
	return p
}

func (h *Handler) pageOf(input *Input) (page, pageSize int) {
	page = input.Page
	if page < 1 {
		page = 1
	}
	pageSize = input.PageSize
	if pageSize < 1 {
		pageSize = h.config.DefaultPageSize
	}
	if pageSize > h.config.MaxPageSize {
		pageSize = h.config.MaxPageSize
	}
	return page, pageSize
}

func (h *Handler) record(ctx context.Context, start time.Time, output *Output, candidates int) {
	elapsed := time.Since(start)

	path := "filtered"
	if output.FallbackUsed {
		path = "fallback"
		metrics.RecommendationFallbacks.Inc()
	}
	metrics.RecommendationDuration.WithLabelValues(path).Observe(elapsed.Seconds())
	metrics.RecommendationCandidates.Observe(float64(candidates))
	h.obs.RecordRecommendation(ctx, elapsed, output.FallbackUsed, candidates)

	fields := map[string]interface{}{
		"requestId":  output.RequestID,
		"candidates": candidates,
		"returned":   len(output.Venues),
		"fallback":   output.FallbackUsed,
		"durationMs": elapsed.Milliseconds(),
	}
	if elapsed > h.config.SlowThreshold {
		h.logger.Warn("slow recommendation pipeline", fields)
		return
	}
	h.logger.Info("recommendation completed", fields)
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.fail(ctx, client, job, errors.NewInternalError(err))
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		metrics.RecommendationRequests.WithLabelValues("zeebe", "error").Inc()
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.RecommendationRequests.WithLabelValues("zeebe", "success").Inc()
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := errors.AsStandardError(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()

	outcome := "error"
	if stdErr.Code == errors.ErrCodeInvalidRequest {
		outcome = "invalid"
	}
	metrics.RecommendationRequests.WithLabelValues("zeebe", outcome).Inc()

	h.errors.HandleJobError(ctx, client, job, stdErr)
}

func slicePage(candidates []retrievecandidates.Candidate, page, pageSize int) []retrievecandidates.Candidate {
	if page < 1 || pageSize < 1 || page-1 >= (len(candidates)+pageSize-1)/pageSize {
		return []retrievecandidates.Candidate{}
	}
	from := (page - 1) * pageSize
	to := from + pageSize
	if to > len(candidates) {
		to = len(candidates)
	}
	return candidates[from:to]
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func appendUnique(dst []string, values ...string) []string {
	seen := make(map[string]bool, len(dst))
	for _, v := range dst {
		seen[v] = true
	}
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		dst = append(dst, v)
	}
	return dst
}
