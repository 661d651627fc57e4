package venuestore

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"

	"venue-recommender/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededVenue() models.Venue {
	v := venue("ven-1", floatPtr(4.5), 2, models.Tag{MoodCategory: "Vui vẻ", Details: []string{"hẹn hò"}})
	v.Reviews = []models.Review{{Rating: floatPtr(5)}, {Rating: nil}}
	return v
}

// ==========================
// PostgreSQL
// ==========================

func TestSeedPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO venues")).
		WithArgs("ven-1", "Venue ven-1", "", "", sqlmock.AnyArg(), sqlmock.AnyArg(), int64(150000), "Q1", "ACTIVE").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM venue_tags")).WithArgs("ven-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM venue_reviews")).WithArgs("ven-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO venue_tags")).
		WithArgs("ven-1", "Vui vẻ", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO venue_reviews")).WithArgs("ven-1", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO venue_reviews")).WithArgs("ven-1", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	require.NoError(t, SeedPostgres(context.Background(), db, []models.Venue{seededVenue()}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedPostgres_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO venues")).WillReturnError(errors.New("relation does not exist"))
	mock.ExpectRollback()

	err = SeedPostgres(context.Background(), db, []models.Venue{seededVenue()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ven-1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Elasticsearch
// ==========================

type esRecorder struct {
	mu       sync.Mutex
	requests []string
	bulk     []string
}

func (r *esRecorder) handler(indexExists bool, bulkBody string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		r.mu.Lock()
		r.requests = append(r.requests, req.Method+" "+req.URL.Path)
		if req.URL.Path == "/_bulk" {
			scanner := bufio.NewScanner(req.Body)
			for scanner.Scan() {
				r.bulk = append(r.bulk, scanner.Text())
			}
		}
		r.mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		switch {
		case req.Method == http.MethodHead && !indexExists:
			w.WriteHeader(http.StatusNotFound)
		case req.Method == http.MethodHead:
			w.WriteHeader(http.StatusOK)
		case req.URL.Path == "/_bulk":
			_, _ = w.Write([]byte(bulkBody))
		default:
			_, _ = w.Write([]byte(`{"acknowledged":true}`))
		}
	}
}

func newRecordingES(t *testing.T, rec *esRecorder, indexExists bool, bulkBody string) *elasticsearch.Client {
	t.Helper()
	server := httptest.NewServer(rec.handler(indexExists, bulkBody))
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return client
}

func TestIndexElasticsearch_CreatesIndexAndBulkIndexes(t *testing.T) {
	rec := &esRecorder{}
	client := newRecordingES(t, rec, false, `{"errors":false,"items":[]}`)

	require.NoError(t, IndexElasticsearch(context.Background(), client, "venues", []models.Venue{seededVenue()}))

	assert.Equal(t, []string{"HEAD /venues", "PUT /venues", "POST /_bulk"}, rec.requests)
	require.Len(t, rec.bulk, 2)
	assert.Contains(t, rec.bulk[0], `"_id":"ven-1"`)
	assert.Contains(t, rec.bulk[1], `"location":{"lat":10.77,"lon":106.7}`)
	assert.False(t, strings.Contains(rec.bulk[1], "reviews"))
}

func TestIndexElasticsearch_ExistingIndex(t *testing.T) {
	rec := &esRecorder{}
	client := newRecordingES(t, rec, true, `{"errors":false,"items":[]}`)

	require.NoError(t, IndexElasticsearch(context.Background(), client, "venues", []models.Venue{seededVenue()}))
	assert.Equal(t, []string{"HEAD /venues", "POST /_bulk"}, rec.requests)
}

func TestIndexElasticsearch_RejectedDocuments(t *testing.T) {
	rec := &esRecorder{}
	client := newRecordingES(t, rec, true, `{"errors":true,"items":[]}`)

	err := IndexElasticsearch(context.Background(), client, "venues", []models.Venue{seededVenue()})
	assert.Error(t, err)
}

func TestReadSeed(t *testing.T) {
	venues, err := ReadSeed(seedPath(t))
	require.NoError(t, err)
	require.Len(t, venues, 10)
	assert.Len(t, venues[4].Reviews, 2)
	assert.Nil(t, venues[4].Reviews[1].Rating)
}
