// internal/workers/recommendation/explain-candidates/models.go
package explaincandidates

import "venue-recommender/internal/models"

const (
	// DefaultReason is used for filtered results without an explanation.
	DefaultReason = "Phù hợp với sở thích của bạn"
	// FallbackReason is used for popularity fallback results.
	FallbackReason = "Địa điểm phổ biến và được đánh giá cao"
)

// OverviewIndex is the explanation key holding the overview line.
const OverviewIndex = -1

type Input struct {
	Venues          []models.Venue
	CoupleMood      *string
	SingleMood      *string
	PersonalityTags []string
	Personality1    *string
	Personality2    *string
	Query           *string
}

// IsCouple reports whether the profile describes two people.
func (in Input) IsCouple() bool {
	return in.CoupleMood != nil || (in.Personality1 != nil && in.Personality2 != nil)
}

// Output holds per-venue reasons keyed by position in Input.Venues, and
// the overview, which is never blank.
type Output struct {
	Reasons  map[int]string `json:"reasons"`
	Overview string         `json:"overview"`
}

// Reason returns the explanation at index i, or def when there is none.
func (o *Output) Reason(i int, def string) string {
	if o != nil {
		if r, ok := o.Reasons[i]; ok {
			return r
		}
	}
	return def
}
