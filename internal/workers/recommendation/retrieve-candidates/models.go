// internal/workers/recommendation/retrieve-candidates/models.go
package retrievecandidates

import "venue-recommender/internal/models"

// Input carries the resolved filters of one request. Nil pointers mean the
// filter was not supplied.
type Input struct {
	CoupleMood       *string
	PersonalityTags  []string
	SingleMoodDetail *string
	AreaCode         *string
	Lat              *float64
	Lon              *float64
	RadiusKm         *float64
	BudgetTier       *int
	Limit            int
}

// HasCoordinates reports whether both lat and lon were given.
func (in Input) HasCoordinates() bool {
	return in.Lat != nil && in.Lon != nil
}

// Candidate is a venue with its distance from the request point, when
// known.
type Candidate struct {
	Venue      models.Venue `json:"venue"`
	DistanceKm *float64     `json:"distanceKm"`
}

type Output struct {
	Candidates   []Candidate `json:"candidates"`
	FallbackUsed bool        `json:"fallbackUsed"`
}

// Venues returns the candidate venues in order.
func Venues(candidates []Candidate) []models.Venue {
	out := make([]models.Venue, len(candidates))
	for i, c := range candidates {
		out[i] = c.Venue
	}
	return out
}
