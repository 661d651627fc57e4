package venuestore

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"venue-recommender/internal/common/config"
	"venue-recommender/internal/common/geo"
	"venue-recommender/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func floatPtr(v float64) *float64 { return &v }
func int64Ptr(v int64) *int64     { return &v }

func seedPath(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "..", "configs", "venues.seed.json")
}

func venue(id string, rating *float64, reviews int, tags ...models.Tag) models.Venue {
	return models.Venue{
		ID:          id,
		Name:        "Venue " + id,
		Latitude:    floatPtr(10.77),
		Longitude:   floatPtr(106.70),
		Price:       150000,
		AreaCode:    "Q1",
		Rating:      rating,
		ReviewCount: reviews,
		Tags:        tags,
		Status:      models.StatusActive,
	}
}

func ids(venues []models.Venue) []string {
	out := make([]string, len(venues))
	for i, v := range venues {
		out[i] = v.ID
	}
	return out
}

// ==========================
// Tag Predicate
// ==========================

func TestTagPredicate_MatchTag(t *testing.T) {
	tag := models.Tag{
		MoodCategory:    "Bình yên",
		PersonalityType: "Yên tĩnh",
		Details:         []string{"Cà phê", "Bình Yên buổi sáng"},
	}

	tests := []struct {
		name string
		pred TagPredicate
		want bool
	}{
		{name: "mood equality", pred: TagPredicate{MoodCategory: "Bình yên"}, want: true},
		{name: "mood mismatch", pred: TagPredicate{MoodCategory: "Vui vẻ"}, want: false},
		{name: "personality listed", pred: TagPredicate{PersonalityTypes: []string{"Sôi động", "Yên tĩnh"}}, want: true},
		{name: "mood mismatch but personality listed", pred: TagPredicate{MoodCategory: "Vui vẻ", PersonalityTypes: []string{"Yên tĩnh"}}, want: true},
		{name: "detail contains case-insensitively", pred: TagPredicate{Detail: "bình yên"}, want: true},
		{name: "detail absent", pred: TagPredicate{Detail: "buồn"}, want: false},
		{name: "detail ignores mood", pred: TagPredicate{Detail: "buồn", MoodCategory: "Bình yên"}, want: false},
		{name: "detail absent but personality listed", pred: TagPredicate{Detail: "buồn", PersonalityTypes: []string{"Yên tĩnh"}}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pred.MatchTag(tag))
		})
	}
}

func TestTagPredicate_EmptyMatchesEverything(t *testing.T) {
	assert.True(t, TagPredicate{}.IsEmpty())
	assert.True(t, TagPredicate{}.Match(models.Venue{}))
}

// ==========================
// Ordering
// ==========================

func TestSortByPopularity(t *testing.T) {
	venues := []models.Venue{
		venue("c", nil, 10),
		venue("b", floatPtr(4.5), 1),
		venue("a", floatPtr(4.5), 1),
		venue("d", floatPtr(4.5), 7),
		venue("e", floatPtr(4.9), 0),
		venue("f", nil, 2),
	}
	SortByPopularity(venues)
	assert.Equal(t, []string{"e", "d", "a", "b", "c", "f"}, ids(venues))
}

// ==========================
// Memory Store
// ==========================

func TestMemoryStore_FindVenues(t *testing.T) {
	inactive := venue("inactive", floatPtr(5), 9)
	inactive.Status = "INACTIVE"
	far := venue("far", floatPtr(4), 1)
	far.Latitude, far.Longitude = floatPtr(21.0), floatPtr(105.8)
	far.AreaCode = "HN"
	pricey := venue("pricey", floatPtr(3), 1)
	pricey.Price = 2_000_000

	store := NewMemoryStore([]models.Venue{
		venue("calm", floatPtr(4.2), 1, models.Tag{MoodCategory: "Bình yên"}),
		venue("happy", floatPtr(4.8), 1, models.Tag{MoodCategory: "Vui vẻ"}),
		inactive, far, pricey,
	})

	box := geo.NewBoundingBox(10.77, 106.70, 2)

	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{name: "active only", query: Query{ActiveOnly: true}, want: []string{"happy", "calm", "far", "pricey"}},
		{name: "bounding box", query: Query{ActiveOnly: true, BBox: &box}, want: []string{"happy", "calm", "pricey"}},
		{name: "area code", query: Query{ActiveOnly: true, AreaCode: "HN"}, want: []string{"far"}},
		{name: "price ceiling", query: Query{ActiveOnly: true, MaxPrice: int64Ptr(1_000_000)}, want: []string{"happy", "calm", "far"}},
		{name: "price floor", query: Query{ActiveOnly: true, MinPrice: int64Ptr(1_000_001)}, want: []string{"pricey"}},
		{name: "tag predicate", query: Query{ActiveOnly: true, Tags: TagPredicate{MoodCategory: "Bình yên"}}, want: []string{"calm"}},
		{name: "limit", query: Query{ActiveOnly: true, Limit: 2}, want: []string{"happy", "calm"}},
		{name: "inactive included when not filtered", query: Query{Limit: 1}, want: []string{"inactive"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.FindVenues(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryStore(nil).FindVenues(ctx, Query{})
	assert.ErrorIs(t, err, ErrQueryFailed)
}

func TestLoadMemoryStore_Seed(t *testing.T) {
	store, err := LoadMemoryStore(seedPath(t))
	require.NoError(t, err)
	assert.Equal(t, 10, store.Len())

	got, err := store.FindVenues(context.Background(), Query{ActiveOnly: true, AreaCode: "Q3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ven-005", "ven-004"}, ids(got))
}

func TestLoadMemoryStore_MissingFile(t *testing.T) {
	_, err := LoadMemoryStore(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

// ==========================
// Factory
// ==========================

func TestNew(t *testing.T) {
	s, err := New(config.RecommendationConfig{Store: config.StoreMemory, SeedFile: seedPath(t)}, Backends{})
	require.NoError(t, err)
	assert.Equal(t, "memory", s.Backend())

	_, err = New(config.RecommendationConfig{Store: config.StorePostgres}, Backends{})
	assert.Error(t, err)

	_, err = New(config.RecommendationConfig{Store: config.StoreElasticsearch}, Backends{})
	assert.Error(t, err)

	_, err = New(config.RecommendationConfig{Store: "mongo"}, Backends{})
	assert.Error(t, err)
}
