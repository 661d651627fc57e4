package venuestore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"venue-recommender/internal/common/geo"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newESServer(t *testing.T, status int, body string, capture *map[string]interface{}) *elasticsearch.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil && r.Body != nil {
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, capture)
		}
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return client
}

const esHits = `{
  "hits": {
    "total": {"value": 2},
    "hits": [
      {"_id": "ven-6", "_source": {"id": "ven-6", "name": "Ánh Nến", "address": "15 Thái Văn Lung",
        "location": {"lat": 10.778, "lon": 106.7052}, "price": 2500000, "areaCode": "Q1",
        "rating": 4.9, "reviewCount": 4, "status": "ACTIVE",
        "tags": [{"moodCategory": "Vui vẻ", "personalityType": "Lãng mạn", "details": ["hẹn hò"]}]}},
      {"_id": "ven-7", "_source": {"name": "Chợ đêm", "address": "Lê Lợi", "price": 150000,
        "areaCode": "Q1", "reviewCount": 0, "status": "ACTIVE"}}
    ]
  }
}`

func TestElasticsearchStore_FindVenues(t *testing.T) {
	var captured map[string]interface{}
	client := newESServer(t, http.StatusOK, esHits, &captured)
	store := NewElasticsearchStore(client, "venues")

	box := geo.NewBoundingBox(10.77, 106.70, 5)
	venues, err := store.FindVenues(context.Background(), Query{
		ActiveOnly: true,
		BBox:       &box,
		MaxPrice:   int64Ptr(199999),
		Tags:       TagPredicate{MoodCategory: "Vui vẻ", PersonalityTypes: []string{"Lãng mạn"}},
		Limit:      20,
	})
	require.NoError(t, err)
	require.Len(t, venues, 2)

	assert.Equal(t, "ven-6", venues[0].ID)
	require.NotNil(t, venues[0].Latitude)
	assert.InDelta(t, 10.778, *venues[0].Latitude, 1e-9)
	require.NotNil(t, venues[0].Rating)
	assert.Equal(t, "Lãng mạn", venues[0].Tags[0].PersonalityType)

	assert.Equal(t, "ven-7", venues[1].ID, "falls back to the document id")
	assert.Nil(t, venues[1].Latitude)
	assert.Nil(t, venues[1].Rating)

	query := captured["query"].(map[string]interface{})["bool"].(map[string]interface{})
	filters := query["filter"].([]interface{})
	assert.Len(t, filters, 4)
	assert.Contains(t, filters[1].(map[string]interface{}), "geo_bounding_box")
	assert.Contains(t, filters[3].(map[string]interface{}), "nested")
}

func TestBuildSearchBody_DetailUsesWildcard(t *testing.T) {
	body := buildSearchBody(Query{Tags: TagPredicate{Detail: "buồn"}})
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	assert.Contains(t, string(raw), `"tags.details"`)
	assert.Contains(t, string(raw), `"*buồn*"`)
	assert.NotContains(t, string(raw), "tags.moodCategory")
}

func TestElasticsearchStore_Errors(t *testing.T) {
	t.Run("missing index", func(t *testing.T) {
		client := newESServer(t, http.StatusNotFound, `{"error":{"type":"index_not_found_exception"}}`, nil)
		_, err := NewElasticsearchStore(client, "venues").FindVenues(context.Background(), Query{})
		assert.ErrorIs(t, err, ErrIndexNotFound)
	})

	t.Run("server error", func(t *testing.T) {
		client := newESServer(t, http.StatusBadRequest, `{"error":{"type":"parsing_exception"}}`, nil)
		_, err := NewElasticsearchStore(client, "venues").FindVenues(context.Background(), Query{})
		assert.ErrorIs(t, err, ErrQueryFailed)
	})

	t.Run("malformed response", func(t *testing.T) {
		client := newESServer(t, http.StatusOK, `{"hits":`, nil)
		_, err := NewElasticsearchStore(client, "venues").FindVenues(context.Background(), Query{})
		assert.ErrorIs(t, err, ErrQueryFailed)
	})
}
