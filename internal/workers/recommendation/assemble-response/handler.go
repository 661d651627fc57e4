// internal/workers/recommendation/assemble-response/handler.go
package assembleresponse

import (
	"fmt"
	"math"
	"strings"
	"time"

	"venue-recommender/internal/common/logger"
	"venue-recommender/internal/models"
	explaincandidates "venue-recommender/internal/workers/recommendation/explain-candidates"
	retrievecandidates "venue-recommender/internal/workers/recommendation/retrieve-candidates"
)

const (
	TaskType = "assemble-response"
)

type Handler struct {
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(log logger.Logger) *Handler {
	return &Handler{
		logger: log.WithFields(map[string]interface{}{
			"taskType": TaskType,
		}),
		now: time.Now,
	}
}

// Execute builds the response for one page.
func (h *Handler) Execute(in Input) *Output {
	def := explaincandidates.DefaultReason
	if in.FallbackUsed {
		def = explaincandidates.FallbackReason
	}

	venues := make([]models.RecommendedVenue, 0, len(in.Candidates))
	for i, c := range in.Candidates {
		venues = append(venues, recommend(c, in.Explanations.Reason(i, def)))
	}

	overview := ""
	if in.Explanations != nil {
		overview = in.Explanations.Overview
	}
	if strings.TrimSpace(overview) == "" {
		overview = explaincandidates.SynthesizeOverview(explaincandidates.Input{
			Venues:          retrievecandidates.Venues(in.Candidates),
			CoupleMood:      in.CoupleMood,
			SingleMood:      in.SingleMood,
			PersonalityTags: in.PersonalityTags,
		})
	}

	tags := in.PersonalityTags
	if tags == nil {
		tags = []string{}
	}

	out := &Output{
		RequestID:        in.RequestID,
		Venues:           venues,
		Pagination:       Paginate(in.Page, in.PageSize, in.TotalItems),
		Overview:         overview,
		CoupleMood:       in.CoupleMood,
		SingleMood:       in.SingleMood,
		PersonalityTags:  tags,
		FallbackUsed:     in.FallbackUsed,
		ProcessingTimeMs: h.now().Sub(in.StartedAt).Milliseconds(),
	}

	h.logger.Debug("response assembled", map[string]interface{}{
		"requestId": in.RequestID,
		"venues":    len(venues),
		"total":     in.TotalItems,
	})
	return out
}

func recommend(c retrievecandidates.Candidate, reason string) models.RecommendedVenue {
	v := c.Venue
	return models.RecommendedVenue{
		ID:           v.ID,
		Name:         v.Name,
		Address:      v.Address,
		Description:  v.Description,
		Latitude:     v.Latitude,
		Longitude:    v.Longitude,
		Price:        v.Price,
		BudgetTier:   int(models.TierOf(v.Price)),
		AreaCode:     v.AreaCode,
		DistanceKm:   c.DistanceKm,
		DistanceText: DistanceText(c.DistanceKm),
		MatchReason:  reason,
		MatchedTags:  MatchedTags(v.Tags),
		Rating:       Rating(v),
		ReviewCount:  v.ReviewCount,
	}
}

// DistanceText formats a distance: whole metres below 1 km, one decimal
// kilometre otherwise, empty when unknown.
func DistanceText(km *float64) string {
	if km == nil {
		return ""
	}
	if *km < 1 {
		return fmt.Sprintf("%d m", int(math.Floor(*km*1000)))
	}
	return fmt.Sprintf("%.1f km", *km)
}

// Rating averages the non-null review ratings, rounded to two decimals.
// Without any rated review the store aggregate is used.
func Rating(v models.Venue) *float64 {
	var sum float64
	var n int
	for _, r := range v.Reviews {
		if r.Rating != nil {
			sum += *r.Rating
			n++
		}
	}
	if n == 0 {
		return v.Rating
	}
	mean := math.Round(sum/float64(n)*100) / 100
	return &mean
}

// MatchedTags lists the mood and personality names of the tags, first
// occurrence first.
func MatchedTags(tags []models.Tag) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, t := range tags {
		for _, name := range []string{t.MoodCategory, t.PersonalityType} {
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// Paginate computes the page metadata for total items.
func Paginate(page, pageSize, total int) models.Pagination {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return models.Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}
