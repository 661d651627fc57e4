// internal/workers/recommendation/assemble-response/models.go
package assembleresponse

import (
	"time"

	"venue-recommender/internal/models"
	explaincandidates "venue-recommender/internal/workers/recommendation/explain-candidates"
	retrievecandidates "venue-recommender/internal/workers/recommendation/retrieve-candidates"
)

// Input is everything the assembler needs for one page of results.
// Candidates holds only the requested page; TotalItems counts the whole
// candidate set.
type Input struct {
	RequestID       string
	StartedAt       time.Time
	Candidates      []retrievecandidates.Candidate
	Explanations    *explaincandidates.Output
	FallbackUsed    bool
	CoupleMood      *string
	SingleMood      *string
	PersonalityTags []string
	Page            int
	PageSize        int
	TotalItems      int
}

type Output = models.RecommendationResponse
