// internal/models/venue.go
package models

// StatusActive is the only venue status eligible for recommendation.
const StatusActive = "ACTIVE"

// Venue is a persisted place as returned by the venue store.
type Venue struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	Description string   `json:"description,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Price       int64    `json:"price"` // typical spend per visit
	AreaCode    string   `json:"areaCode,omitempty"`
	Rating      *float64 `json:"rating,omitempty"` // aggregated by the store
	ReviewCount int      `json:"reviewCount"`
	Tags        []Tag    `json:"tags,omitempty"`
	Reviews     []Review `json:"reviews,omitempty"`
	Status      string   `json:"status"`
}

// HasCoordinates reports whether both coordinates are known.
func (v Venue) HasCoordinates() bool {
	return v.Latitude != nil && v.Longitude != nil
}

// IsActive reports whether the venue may be recommended.
func (v Venue) IsActive() bool {
	return v.Status == StatusActive
}

// Tag links a venue to a couple mood, a personality descriptor and free-text
// detail keywords.
type Tag struct {
	MoodCategory    string   `json:"moodCategory,omitempty"`
	PersonalityType string   `json:"personalityType,omitempty"`
	Details         []string `json:"details,omitempty"`
}

// Review carries a single, possibly missing, rating.
type Review struct {
	Rating *float64 `json:"rating,omitempty"`
}
