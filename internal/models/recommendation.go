// internal/models/recommendation.go
package models

// RecommendationRequest is the inbound request of the recommendation
// operation. Every field is optional; coordinates win over AreaCode.
type RecommendationRequest struct {
	Query        string   `json:"query,omitempty" validate:"max=500"`
	Personality1 string   `json:"personality1,omitempty" validate:"max=8"`
	Personality2 string   `json:"personality2,omitempty" validate:"max=8"`
	Mood1        string   `json:"mood1,omitempty" validate:"max=32"`
	Mood2        string   `json:"mood2,omitempty" validate:"max=32"`
	AreaCode     string   `json:"areaCode,omitempty" validate:"max=32"`
	Latitude     *float64 `json:"latitude,omitempty" validate:"omitempty,min=-90,max=90"`
	Longitude    *float64 `json:"longitude,omitempty" validate:"omitempty,min=-180,max=180"`
	RadiusKm     *float64 `json:"radiusKm,omitempty" validate:"omitempty,gt=0,max=100"`
	BudgetTier   *int     `json:"budgetTier,omitempty" validate:"omitempty,min=1,max=3"`
	Page         int      `json:"page,omitempty" validate:"omitempty,min=1,max=10000"`
	PageSize     int      `json:"pageSize,omitempty" validate:"omitempty,min=1,max=50"`
}

// HasCoordinates reports whether both latitude and longitude were given.
func (r RecommendationRequest) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// ParsedQueryContext holds the hints extracted from a free-text query.
type ParsedQueryContext struct {
	Intent          string   `json:"intent,omitempty"`
	Mood            string   `json:"mood,omitempty"`
	PersonalityTags []string `json:"personalityTags,omitempty"`
	Region          string   `json:"region,omitempty"`
}

// IsEmpty reports whether no hint was extracted.
func (p ParsedQueryContext) IsEmpty() bool {
	return p.Intent == "" && p.Mood == "" && len(p.PersonalityTags) == 0 && p.Region == ""
}

// RecommendedVenue is one entry of the recommendation result.
type RecommendedVenue struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	Description  string   `json:"description,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	Price        int64    `json:"price"`
	BudgetTier   int      `json:"budgetTier"`
	AreaCode     string   `json:"areaCode,omitempty"`
	DistanceKm   *float64 `json:"distanceKm"`
	DistanceText string   `json:"distanceText"`
	MatchReason  string   `json:"matchReason"`
	MatchedTags  []string `json:"matchedTags"`
	Rating       *float64 `json:"rating"`
	ReviewCount  int      `json:"reviewCount"`
}

// Pagination describes the page returned and the size of the candidate set.
type Pagination struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"pageSize"`
	TotalItems int  `json:"totalItems"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
}

// RecommendationResponse is the outbound result of the recommendation operation.
type RecommendationResponse struct {
	RequestID        string             `json:"requestId"`
	Venues           []RecommendedVenue `json:"venues"`
	Pagination       Pagination         `json:"pagination"`
	Overview         string             `json:"overview"`
	CoupleMood       *string            `json:"coupleMood"`
	SingleMood       *string            `json:"singleMood"`
	PersonalityTags  []string           `json:"personalityTags"`
	FallbackUsed     bool               `json:"fallbackUsed"`
	ProcessingTimeMs int64              `json:"processingTimeMs"`
}
