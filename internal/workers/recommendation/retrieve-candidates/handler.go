// internal/workers/recommendation/retrieve-candidates/handler.go
package retrievecandidates

import (
	"context"
	"sort"
	"strings"

	"venue-recommender/internal/common/geo"
	"venue-recommender/internal/common/logger"
	"venue-recommender/internal/models"
	venuestore "venue-recommender/internal/workers/data-access/venue-store"
)

const (
	TaskType = "retrieve-candidates"
)

type Handler struct {
	config *Config
	store  venuestore.Store
	logger logger.Logger
}

func NewHandler(config *Config, store venuestore.Store, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		store:  store,
		logger: log.WithFields(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

// Execute applies the location, budget, tag and status filters and returns
// the ranked candidates. With coordinates the result is nearest first,
// otherwise most popular first.
func (h *Handler) Execute(ctx context.Context, in Input) (*Output, error) {
	q := h.baseQuery(in)
	q.Tags = tagPredicate(in)

	candidates, err := h.run(ctx, in, q, true)
	if err != nil {
		return nil, err
	}

	h.logger.Debug("candidates retrieved", map[string]interface{}{
		"count":     len(candidates),
		"tagFilter": !q.Tags.IsEmpty(),
		"geo":       in.HasCoordinates(),
	})
	return &Output{Candidates: candidates}, nil
}

// Popular is the fallback used when the filtered set is empty: top rated
// active venues honouring only location and budget.
func (h *Handler) Popular(ctx context.Context, in Input) (*Output, error) {
	candidates, err := h.run(ctx, in, h.baseQuery(in), false)
	if err != nil {
		return nil, err
	}

	h.logger.Info("popularity fallback used", map[string]interface{}{
		"count": len(candidates),
	})
	return &Output{Candidates: candidates, FallbackUsed: true}, nil
}

func (h *Handler) baseQuery(in Input) venuestore.Query {
	q := venuestore.Query{ActiveOnly: true}

	if in.HasCoordinates() {
		box := geo.NewBoundingBox(*in.Lat, *in.Lon, h.radius(in))
		q.BBox = &box
	} else if in.AreaCode != nil && strings.TrimSpace(*in.AreaCode) != "" {
		q.AreaCode = strings.TrimSpace(*in.AreaCode)
	}

	if in.BudgetTier != nil {
		if tier := models.BudgetTier(*in.BudgetTier); tier.Valid() {
			q.MinPrice, q.MaxPrice, _ = tier.PriceRange()
		}
	}

	if !in.HasCoordinates() {
		q.Limit = h.limit(in)
	}
	return q
}

func (h *Handler) run(ctx context.Context, in Input, q venuestore.Query, nearestFirst bool) ([]Candidate, error) {
	venues, err := h.store.FindVenues(ctx, q)
	if err != nil {
		h.logger.Error("venue query failed", map[string]interface{}{
			"backend": h.store.Backend(),
			"error":   err.Error(),
		})
		return nil, err
	}

	if !in.HasCoordinates() {
		candidates := make([]Candidate, 0, len(venues))
		for _, v := range venues {
			if v.IsActive() {
				candidates = append(candidates, Candidate{Venue: v})
			}
		}
		return truncate(candidates, h.limit(in)), nil
	}

	candidates := WithinRadius(venues, *in.Lat, *in.Lon, h.radius(in))
	if nearestFirst {
		SortByDistance(candidates)
	} else {
		sortByPopularity(candidates)
	}
	return truncate(candidates, h.limit(in)), nil
}

func (h *Handler) radius(in Input) float64 {
	if in.RadiusKm != nil && *in.RadiusKm > 0 {
		return *in.RadiusKm
	}
	return h.config.DefaultRadiusKm
}

func (h *Handler) limit(in Input) int {
	if in.Limit > 0 {
		return in.Limit
	}
	return h.config.MaxCandidates
}

func tagPredicate(in Input) venuestore.TagPredicate {
	p := venuestore.TagPredicate{PersonalityTypes: in.PersonalityTags}
	if in.SingleMoodDetail != nil && *in.SingleMoodDetail != "" {
		p.Detail = *in.SingleMoodDetail
	} else if in.CoupleMood != nil {
		p.MoodCategory = *in.CoupleMood
	}
	return p
}

// WithinRadius keeps active venues whose exact distance from (lat, lon) is
// at most radiusKm. Venues without coordinates are dropped.
func WithinRadius(venues []models.Venue, lat, lon, radiusKm float64) []Candidate {
	out := make([]Candidate, 0, len(venues))
	for _, v := range venues {
		if !v.IsActive() || !v.HasCoordinates() {
			continue
		}
		d := geo.Haversine(lat, lon, *v.Latitude, *v.Longitude)
		if d > radiusKm {
			continue
		}
		out = append(out, Candidate{Venue: v, DistanceKm: &d})
	}
	return out
}

// SortByDistance orders candidates nearest first, ties by id.
func SortByDistance(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		di, dj := distance(candidates[i]), distance(candidates[j])
		if di != dj {
			return di < dj
		}
		return candidates[i].Venue.ID < candidates[j].Venue.ID
	})
}

func sortByPopularity(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return venuestore.PopularityLess(candidates[i].Venue, candidates[j].Venue)
	})
}

func distance(c Candidate) float64 {
	if c.DistanceKm == nil {
		return 0
	}
	return *c.DistanceKm
}

func truncate(candidates []Candidate, limit int) []Candidate {
	if limit > 0 && len(candidates) > limit {
		return candidates[:limit]
	}
	return candidates
}
