// internal/workers/recommendation/get-recommendations/models.go
package getrecommendations

import "venue-recommender/internal/models"

type Input = models.RecommendationRequest

type Output = models.RecommendationResponse

// profile is the resolved mood and personality state of one request.
type profile struct {
	coupleMood      *string
	singleMood      *string // detail keyword used for retrieval and prompts
	singleLabel     *string
	personality1    *string
	personality2    *string
	personalityTags []string
	areaCode        *string
}
