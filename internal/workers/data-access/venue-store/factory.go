// internal/workers/data-access/venue-store/factory.go
package venuestore

import (
	"fmt"

	"venue-recommender/internal/common/config"
	"venue-recommender/internal/common/database"
)

// Backends holds the connections a store may be built on. Only the one
// selected by config needs to be set.
type Backends struct {
	Postgres      *database.PostgresClient
	Elasticsearch *database.ElasticsearchClient
}

// New builds the instrumented store selected by cfg.Store.
func New(cfg config.RecommendationConfig, backends Backends) (Store, error) {
	var s Store
	switch cfg.Store {
	case config.StorePostgres:
		if backends.Postgres == nil {
			return nil, fmt.Errorf("postgres store selected but no connection given")
		}
		s = NewPostgresStore(backends.Postgres.DB)
	case config.StoreElasticsearch:
		if backends.Elasticsearch == nil {
			return nil, fmt.Errorf("elasticsearch store selected but no client given")
		}
		s = NewElasticsearchStore(backends.Elasticsearch.Client, backends.Elasticsearch.Index)
	case config.StoreMemory:
		mem, err := LoadMemoryStore(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		s = mem
	default:
		return nil, fmt.Errorf("unsupported venue store %q", cfg.Store)
	}
	return Instrument(s), nil
}
