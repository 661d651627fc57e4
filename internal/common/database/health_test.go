package database

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"venue-recommender/internal/common/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAll_AllHealthy(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPing()

	mr := miniredis.RunT(t)
	rdb := NewRedis(config.RedisConfig{Address: mr.Addr()})
	defer rdb.Close()

	failures := CheckAll(context.Background(), time.Second, NewPostgresFromDB(db), rdb)
	assert.Empty(t, failures)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckAll_ReportsFailures(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPing().WillReturnError(assert.AnError)

	mr := miniredis.RunT(t)
	rdb := NewRedis(config.RedisConfig{Address: mr.Addr()})
	defer rdb.Close()
	mr.Close()

	failures := CheckAll(context.Background(), time.Second, NewPostgresFromDB(db), rdb)
	assert.Len(t, failures, 2)
	assert.Contains(t, failures["postgres"], "postgres ping failed")
	assert.Contains(t, failures["redis"], "redis ping failed")
}

func TestElasticsearchPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	es, err := NewElasticsearch(config.ElasticsearchConfig{URL: server.URL, Index: "venues"})
	require.NoError(t, err)
	assert.Equal(t, "venues", es.Index)
	assert.NoError(t, es.Ping(context.Background()))
}
