// internal/workers/data-access/venue-store/memory.go
package venuestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"venue-recommender/internal/models"
)

// MemoryStore serves venues from a slice loaded at startup.
type MemoryStore struct {
	venues []models.Venue
}

func NewMemoryStore(venues []models.Venue) *MemoryStore {
	cp := make([]models.Venue, len(venues))
	copy(cp, venues)
	return &MemoryStore{venues: cp}
}

// LoadMemoryStore reads a JSON array of venues from path.
func LoadMemoryStore(path string) (*MemoryStore, error) {
	venues, err := ReadSeed(path)
	if err != nil {
		return nil, err
	}
	return NewMemoryStore(venues), nil
}

// ReadSeed decodes a JSON array of venues.
func ReadSeed(path string) ([]models.Venue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read venue seed: %w", err)
	}
	var venues []models.Venue
	if err := json.Unmarshal(data, &venues); err != nil {
		return nil, fmt.Errorf("decode venue seed %s: %w", path, err)
	}
	return venues, nil
}

func (m *MemoryStore) Backend() string { return "memory" }

// Len returns the number of seeded venues.
func (m *MemoryStore) Len() int { return len(m.venues) }

func (m *MemoryStore) FindVenues(ctx context.Context, q Query) ([]models.Venue, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapQueryError(ctx, m.Backend(), err)
	}

	out := make([]models.Venue, 0)
	for _, v := range m.venues {
		if q.Matches(v) {
			out = append(out, v)
		}
	}

	SortByPopularity(out)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}
