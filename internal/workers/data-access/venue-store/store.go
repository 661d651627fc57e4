// internal/workers/data-access/venue-store/store.go
package venuestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"venue-recommender/internal/common/geo"
	"venue-recommender/internal/common/metrics"
	"venue-recommender/internal/models"
)

var (
	ErrQueryFailed   = errors.New("VENUE_QUERY_FAILED")
	ErrQueryTimeout  = errors.New("QUERY_TIMEOUT")
	ErrIndexNotFound = errors.New("INDEX_NOT_FOUND")
)

// Store is the read side of the venue catalogue.
type Store interface {
	FindVenues(ctx context.Context, q Query) ([]models.Venue, error)
	Backend() string
}

// Query narrows the catalogue. Every zero-valued field means "no filter".
type Query struct {
	BBox       *geo.BoundingBox
	AreaCode   string
	MinPrice   *int64
	MaxPrice   *int64
	Tags       TagPredicate
	ActiveOnly bool
	// Limit caps the result; 0 returns every match.
	Limit int
}

// TagPredicate selects venues by their tags. A venue matches when at least
// one of its tags matches.
//
// With Detail set, a tag matches when any of its details contains Detail
// (case-insensitive) or its personality type is listed. Otherwise a tag
// matches on mood category equality or a listed personality type.
type TagPredicate struct {
	MoodCategory     string
	PersonalityTypes []string
	Detail           string
}

// IsEmpty reports whether the predicate filters nothing.
func (p TagPredicate) IsEmpty() bool {
	return p.Detail == "" && p.MoodCategory == "" && len(p.PersonalityTypes) == 0
}

// MatchTag evaluates the predicate against a single tag.
func (p TagPredicate) MatchTag(t models.Tag) bool {
	if p.personalityListed(t.PersonalityType) {
		return true
	}
	if p.Detail != "" {
		needle := strings.ToLower(p.Detail)
		for _, d := range t.Details {
			if strings.Contains(strings.ToLower(d), needle) {
				return true
			}
		}
		return false
	}
	return p.MoodCategory != "" && t.MoodCategory == p.MoodCategory
}

// Match evaluates the predicate against a venue.
func (p TagPredicate) Match(v models.Venue) bool {
	if p.IsEmpty() {
		return true
	}
	for _, t := range v.Tags {
		if p.MatchTag(t) {
			return true
		}
	}
	return false
}

func (p TagPredicate) personalityListed(name string) bool {
	if name == "" {
		return false
	}
	for _, n := range p.PersonalityTypes {
		if n == name {
			return true
		}
	}
	return false
}

// Matches applies every filter of q to a single venue.
func (q Query) Matches(v models.Venue) bool {
	if q.ActiveOnly && !v.IsActive() {
		return false
	}
	if q.BBox != nil {
		if !v.HasCoordinates() || !q.BBox.Contains(*v.Latitude, *v.Longitude) {
			return false
		}
	}
	if q.AreaCode != "" && v.AreaCode != q.AreaCode {
		return false
	}
	if q.MinPrice != nil && v.Price < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && v.Price > *q.MaxPrice {
		return false
	}
	return q.Tags.Match(v)
}

// SortByPopularity orders venues by rating descending with missing ratings
// last, then review count descending, then id.
func SortByPopularity(venues []models.Venue) {
	sort.SliceStable(venues, func(i, j int) bool {
		return PopularityLess(venues[i], venues[j])
	})
}

// PopularityLess reports whether a ranks before b: rating descending with
// unrated venues last, then review count descending, then id.
func PopularityLess(a, b models.Venue) bool {
	switch {
	case a.Rating != nil && b.Rating == nil:
		return true
	case a.Rating == nil && b.Rating != nil:
		return false
	case a.Rating != nil && b.Rating != nil && *a.Rating != *b.Rating:
		return *a.Rating > *b.Rating
	}
	if a.ReviewCount != b.ReviewCount {
		return a.ReviewCount > b.ReviewCount
	}
	return a.ID < b.ID
}

// instrumented records per-backend query metrics around a Store.
type instrumented struct {
	next Store
}

// Instrument wraps s with Prometheus query counters and latency.
func Instrument(s Store) Store {
	return &instrumented{next: s}
}

func (i *instrumented) Backend() string { return i.next.Backend() }

func (i *instrumented) FindVenues(ctx context.Context, q Query) ([]models.Venue, error) {
	start := time.Now()
	venues, err := i.next.FindVenues(ctx, q)
	metrics.VenueStoreDuration.WithLabelValues(i.next.Backend()).Observe(time.Since(start).Seconds())

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	metrics.VenueStoreQueries.WithLabelValues(i.next.Backend(), outcome).Inc()
	return venues, err
}

func wrapQueryError(ctx context.Context, backend string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", ErrQueryTimeout, backend, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrQueryFailed, backend, err)
}
