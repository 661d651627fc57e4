// cmd/tools/venue-seeder/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"venue-recommender/internal/common/config"
	"venue-recommender/internal/common/database"
	"venue-recommender/internal/models"
	venuestore "venue-recommender/internal/workers/data-access/venue-store"
)

func main() {
	target := flag.String("target", "", "Store to load (postgres, elasticsearch). Defaults to recommendation.store")
	seedFile := flag.String("seed", "configs/venues.seed.json", "Path to the venue seed file")
	schemaFile := flag.String("schema", "configs/schema.sql", "DDL applied before seeding PostgreSQL; empty to skip")
	timeout := flag.Duration("timeout", time.Minute, "Overall timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *target == "" {
		*target = cfg.Recommendation.Store
	}

	venues, err := venuestore.ReadSeed(*seedFile)
	if err != nil {
		fmt.Printf("Error reading seed: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch *target {
	case config.StorePostgres:
		err = seedPostgres(ctx, cfg.Database.Postgres, *schemaFile, venues)
	case config.StoreElasticsearch:
		err = seedElasticsearch(ctx, cfg.Database.Elasticsearch, venues)
	default:
		err = fmt.Errorf("nothing to seed for store %q", *target)
	}
	if err != nil {
		fmt.Printf("Seeding failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Seeded %d venues into %s.\n", len(venues), *target)
}

func seedPostgres(ctx context.Context, cfg config.PostgresConfig, schemaFile string, venues []models.Venue) error {
	pg, err := database.NewPostgres(cfg)
	if err != nil {
		return err
	}
	defer pg.Close()

	if err := pg.Ping(ctx); err != nil {
		return err
	}
	if schemaFile != "" {
		ddl, err := os.ReadFile(schemaFile)
		if err != nil {
			return fmt.Errorf("read schema: %w", err)
		}
		if _, err := pg.DB.ExecContext(ctx, string(ddl)); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return venuestore.SeedPostgres(ctx, pg.DB, venues)
}

func seedElasticsearch(ctx context.Context, cfg config.ElasticsearchConfig, venues []models.Venue) error {
	es, err := database.NewElasticsearch(cfg)
	if err != nil {
		return err
	}
	if err := es.Ping(ctx); err != nil {
		return err
	}
	return venuestore.IndexElasticsearch(ctx, es.Client, es.Index, venues)
}
