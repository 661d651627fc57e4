// internal/workers/data-access/venue-store/seed.go
package venuestore

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/lib/pq"

	"venue-recommender/internal/models"
)

const (
	insertVenue = `
		INSERT INTO venues (id, name, address, description, latitude, longitude, price, area_code, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, address = EXCLUDED.address, description = EXCLUDED.description,
			latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude, price = EXCLUDED.price,
			area_code = EXCLUDED.area_code, status = EXCLUDED.status`
	deleteTags    = `DELETE FROM venue_tags WHERE venue_id = $1`
	deleteReviews = `DELETE FROM venue_reviews WHERE venue_id = $1`
	insertTag     = `
		INSERT INTO venue_tags (venue_id, mood_category, personality_type, details)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4)`
	insertReview = `INSERT INTO venue_reviews (venue_id, rating) VALUES ($1, $2)`
)

// venueMapping matches the fields ElasticsearchStore filters and sorts on.
const venueMapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "keyword"},
      "name":        {"type": "text"},
      "address":     {"type": "text"},
      "description": {"type": "text"},
      "location":    {"type": "geo_point"},
      "price":       {"type": "long"},
      "areaCode":    {"type": "keyword"},
      "rating":      {"type": "float"},
      "reviewCount": {"type": "integer"},
      "status":      {"type": "keyword"},
      "tags": {
        "type": "nested",
        "properties": {
          "moodCategory":    {"type": "keyword"},
          "personalityType": {"type": "keyword"},
          "details":         {"type": "keyword"}
        }
      }
    }
  }
}`

// SeedPostgres upserts venues with their tags and reviews in one
// transaction. Tags and reviews of a seeded venue are replaced.
func SeedPostgres(ctx context.Context, db *sql.DB, venues []models.Venue) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	for _, v := range venues {
		if _, err := tx.ExecContext(ctx, insertVenue,
			v.ID, v.Name, v.Address, v.Description, v.Latitude, v.Longitude, v.Price, v.AreaCode, v.Status,
		); err != nil {
			return fmt.Errorf("seed venue %s: %w", v.ID, err)
		}
		if _, err := tx.ExecContext(ctx, deleteTags, v.ID); err != nil {
			return fmt.Errorf("clear tags of %s: %w", v.ID, err)
		}
		if _, err := tx.ExecContext(ctx, deleteReviews, v.ID); err != nil {
			return fmt.Errorf("clear reviews of %s: %w", v.ID, err)
		}
		for _, tag := range v.Tags {
			details := tag.Details
			if details == nil {
				details = []string{}
			}
			if _, err := tx.ExecContext(ctx, insertTag,
				v.ID, tag.MoodCategory, tag.PersonalityType, pq.Array(details),
			); err != nil {
				return fmt.Errorf("seed tag of %s: %w", v.ID, err)
			}
		}
		for _, review := range v.Reviews {
			if _, err := tx.ExecContext(ctx, insertReview, v.ID, review.Rating); err != nil {
				return fmt.Errorf("seed review of %s: %w", v.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}

// IndexElasticsearch creates index with the venue mapping when it is
// missing and bulk-indexes venues into it.
func IndexElasticsearch(ctx context.Context, client *elasticsearch.Client, index string, venues []models.Venue) error {
	exists, err := esapi.IndicesExistsRequest{Index: []string{index}}.Do(ctx, client)
	if err != nil {
		return fmt.Errorf("check index %s: %w", index, err)
	}
	exists.Body.Close()

	if exists.StatusCode == http.StatusNotFound {
		res, err := esapi.IndicesCreateRequest{Index: index, Body: strings.NewReader(venueMapping)}.Do(ctx, client)
		if err != nil {
			return fmt.Errorf("create index %s: %w", index, err)
		}
		defer res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("create index %s: %s", index, res.Status())
		}
	}

	if len(venues) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, v := range venues {
		if err := enc.Encode(map[string]interface{}{"index": map[string]string{"_index": index, "_id": v.ID}}); err != nil {
			return err
		}
		if err := enc.Encode(toDocument(v)); err != nil {
			return err
		}
	}

	res, err := esapi.BulkRequest{Body: &buf, Refresh: "true"}.Do(ctx, client)
	if err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("bulk index: %s", res.Status())
	}

	var parsed struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if parsed.Errors {
		return fmt.Errorf("bulk index: some documents were rejected")
	}
	return nil
}

func toDocument(v models.Venue) esVenue {
	doc := esVenue{
		ID:          v.ID,
		Name:        v.Name,
		Address:     v.Address,
		Description: v.Description,
		Price:       v.Price,
		AreaCode:    v.AreaCode,
		Rating:      v.Rating,
		ReviewCount: v.ReviewCount,
		Status:      v.Status,
		Tags:        v.Tags,
	}
	if v.HasCoordinates() {
		doc.Location = &esLocation{Lat: *v.Latitude, Lon: *v.Longitude}
	}
	return doc
}
