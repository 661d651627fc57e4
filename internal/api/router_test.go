// internal/api/router_test.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue-recommender/internal/common/database"
	"venue-recommender/internal/common/errors"
	"venue-recommender/internal/common/logger"
	"venue-recommender/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type stubRecommender struct {
	got  *models.RecommendationRequest
	resp *models.RecommendationResponse
	err  error
}

func (s *stubRecommender) Execute(ctx context.Context, req *models.RecommendationRequest) (*models.RecommendationResponse, error) {
	s.got = req
	return s.resp, s.err
}

type stubPinger struct {
	name string
	err  error
}

func (p stubPinger) Name() string                   { return p.name }
func (p stubPinger) Ping(ctx context.Context) error { return p.err }

func newServer(t *testing.T, rec Recommender, backends ...database.Pinger) *httptest.Server {
	t.Helper()
	router := NewRouter(Options{Recommender: rec, Backends: backends, Logger: logger.NewTestLogger(t)})
	server := httptest.NewServer(router.Handler())
	t.Cleanup(server.Close)
	return server
}

func post(t *testing.T, server *httptest.Server, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.Post(server.URL+"/api/v1/recommendations", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

// ==========================
// Probe Tests
// ==========================

func TestHealth(t *testing.T) {
	server := newServer(t, &stubRecommender{})

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReady(t *testing.T) {
	tests := []struct {
		name     string
		backends []database.Pinger
		want     int
	}{
		{name: "no backends", want: http.StatusOK},
		{name: "all reachable", backends: []database.Pinger{stubPinger{name: "postgres"}}, want: http.StatusOK},
		{
			name:     "one down",
			backends: []database.Pinger{stubPinger{name: "postgres"}, stubPinger{name: "redis", err: fmt.Errorf("refused")}},
			want:     http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newServer(t, &stubRecommender{}, tt.backends...)
			resp, err := http.Get(server.URL + "/ready")
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server := newServer(t, &stubRecommender{})

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// ==========================
// Recommendation Tests
// ==========================

func TestRecommend_Success(t *testing.T) {
	rec := &stubRecommender{resp: &models.RecommendationResponse{
		RequestID: "req-1",
		Venues:    []models.RecommendedVenue{{ID: "ven-001", DistanceText: "450 m", MatchedTags: []string{}}},
		Overview:  "Tổng quan",
	}}
	server := newServer(t, rec)

	resp, body := post(t, server, `{"mood1":"happy","mood2":"calm","latitude":10.77,"longitude":106.70,"radiusKm":3,"budgetTier":2}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "req-1", body["requestId"])
	require.NotNil(t, rec.got)
	assert.Equal(t, "happy", rec.got.Mood1)
	require.NotNil(t, rec.got.BudgetTier)
	assert.Equal(t, 2, *rec.got.BudgetTier)
}

func TestRecommend_EmptyBody(t *testing.T) {
	rec := &stubRecommender{resp: &models.RecommendationResponse{Overview: "x"}}
	server := newServer(t, rec)

	resp, err := http.Post(server.URL+"/api/v1/recommendations", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRecommend_InvalidRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"mood1":`},
		{name: "latitude out of range", body: `{"latitude":91,"longitude":106}`},
		{name: "longitude missing", body: `{"latitude":10.7}`},
		{name: "radius zero", body: `{"latitude":10.7,"longitude":106.7,"radiusKm":0}`},
		{name: "radius too large", body: `{"latitude":10.7,"longitude":106.7,"radiusKm":101}`},
		{name: "budget tier", body: `{"budgetTier":0}`},
		{name: "page", body: `{"page":-1}`},
		{name: "page too large", body: `{"page":9223372036854775807}`},
		{name: "page size", body: `{"pageSize":51}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &stubRecommender{}
			server := newServer(t, rec)

			resp, body := post(t, server, tt.body)

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "INVALID_REQUEST", body["code"])
			assert.Nil(t, rec.got, "pipeline must not run")
		})
	}
}

func TestRecommend_StoreFailure(t *testing.T) {
	rec := &stubRecommender{err: errors.NewVenueQueryFailedError("postgres", fmt.Errorf("connection refused"))}
	server := newServer(t, rec)

	resp, body := post(t, server, `{}`)

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "VENUE_QUERY_FAILED", body["code"])
	assert.True(t, strings.Contains(body["details"].(string), "connection refused"))
}

func TestRecommend_UnexpectedError(t *testing.T) {
	rec := &stubRecommender{err: fmt.Errorf("boom")}
	server := newServer(t, rec)

	resp, body := post(t, server, `{}`)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "INTERNAL_ERROR", body["code"])
}

func TestRecommend_MethodNotAllowed(t *testing.T) {
	server := newServer(t, &stubRecommender{})

	resp, err := http.Get(server.URL + "/api/v1/recommendations")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
