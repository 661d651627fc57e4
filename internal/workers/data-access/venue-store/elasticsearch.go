// internal/workers/data-access/venue-store/elasticsearch.go
package venuestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"venue-recommender/internal/models"
)

// maxSearchSize bounds unlimited queries to the default index window.
const maxSearchSize = 10000

// ElasticsearchStore queries a venue index whose documents carry a
// geo_point "location" and nested "tags".
type ElasticsearchStore struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearchStore(client *elasticsearch.Client, index string) *ElasticsearchStore {
	return &ElasticsearchStore{client: client, index: index}
}

func (s *ElasticsearchStore) Backend() string { return "elasticsearch" }

type esLocation struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type esVenue struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Address     string       `json:"address"`
	Description string       `json:"description"`
	Location    *esLocation  `json:"location"`
	Price       int64        `json:"price"`
	AreaCode    string       `json:"areaCode"`
	Rating      *float64     `json:"rating"`
	ReviewCount int          `json:"reviewCount"`
	Status      string       `json:"status"`
	Tags        []models.Tag `json:"tags"`
}

type esSearchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string  `json:"_id"`
			Source esVenue `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *ElasticsearchStore) FindVenues(ctx context.Context, q Query) ([]models.Venue, error) {
	body, err := json.Marshal(buildSearchBody(q))
	if err != nil {
		return nil, wrapQueryError(ctx, s.Backend(), err)
	}

	size := q.Limit
	if size <= 0 || size > maxSearchSize {
		size = maxSearchSize
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, wrapQueryError(ctx, s.Backend(), err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, s.index)
	}
	if res.IsError() {
		return nil, wrapQueryError(ctx, s.Backend(), fmt.Errorf("search error: %s", res.Status()))
	}

	var parsed esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, wrapQueryError(ctx, s.Backend(), fmt.Errorf("decode response: %w", err))
	}

	venues := make([]models.Venue, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		doc := hit.Source
		v := models.Venue{
			ID:          doc.ID,
			Name:        doc.Name,
			Address:     doc.Address,
			Description: doc.Description,
			Price:       doc.Price,
			AreaCode:    doc.AreaCode,
			Rating:      doc.Rating,
			ReviewCount: doc.ReviewCount,
			Status:      doc.Status,
			Tags:        doc.Tags,
		}
		if v.ID == "" {
			v.ID = hit.ID
		}
		if doc.Location != nil {
			lat, lon := doc.Location.Lat, doc.Location.Lon
			v.Latitude, v.Longitude = &lat, &lon
		}
		venues = append(venues, v)
	}
	return venues, nil
}

func buildSearchBody(q Query) map[string]interface{} {
	filterClauses := []interface{}{}

	if q.ActiveOnly {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"status": models.StatusActive},
		})
	}
	if q.BBox != nil {
		filterClauses = append(filterClauses, map[string]interface{}{
			"geo_bounding_box": map[string]interface{}{
				"location": map[string]interface{}{
					"top_left":     map[string]float64{"lat": q.BBox.MaxLat, "lon": q.BBox.MinLon},
					"bottom_right": map[string]float64{"lat": q.BBox.MinLat, "lon": q.BBox.MaxLon},
				},
			},
		})
	}
	if q.AreaCode != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"areaCode": q.AreaCode},
		})
	}
	if q.MinPrice != nil || q.MaxPrice != nil {
		priceRange := map[string]interface{}{}
		if q.MinPrice != nil {
			priceRange["gte"] = *q.MinPrice
		}
		if q.MaxPrice != nil {
			priceRange["lte"] = *q.MaxPrice
		}
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{"price": priceRange},
		})
	}
	if !q.Tags.IsEmpty() {
		filterClauses = append(filterClauses, tagQuery(q.Tags))
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"filter": filterClauses},
		},
		"sort": []interface{}{
			map[string]interface{}{"rating": map[string]interface{}{"order": "desc", "missing": "_last"}},
			map[string]interface{}{"reviewCount": map[string]interface{}{"order": "desc"}},
			map[string]interface{}{"id": map[string]interface{}{"order": "asc"}},
		},
	}
}

func tagQuery(p TagPredicate) map[string]interface{} {
	should := []interface{}{}
	if len(p.PersonalityTypes) > 0 {
		should = append(should, map[string]interface{}{
			"terms": map[string]interface{}{"tags.personalityType": p.PersonalityTypes},
		})
	}
	if p.Detail != "" {
		should = append(should, map[string]interface{}{
			"wildcard": map[string]interface{}{
				"tags.details": map[string]interface{}{
					"value":            "*" + p.Detail + "*",
					"case_insensitive": true,
				},
			},
		})
	} else if p.MoodCategory != "" {
		should = append(should, map[string]interface{}{
			"term": map[string]interface{}{"tags.moodCategory": p.MoodCategory},
		})
	}

	return map[string]interface{}{
		"nested": map[string]interface{}{
			"path": "tags",
			"query": map[string]interface{}{
				"bool": map[string]interface{}{
					"should":               should,
					"minimum_should_match": 1,
				},
			},
		},
	}
}
