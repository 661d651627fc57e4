// internal/workers/data-access/venue-store/postgres.go
package venuestore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"venue-recommender/internal/models"
)

const venueSelect = `
		SELECT v.id, v.name, v.address, v.description, v.latitude, v.longitude,
		       v.price, v.area_code, v.status, r.avg_rating, COALESCE(r.review_count, 0)
		FROM venues v
		LEFT JOIN (
			SELECT venue_id, AVG(rating) AS avg_rating, COUNT(*) AS review_count
			FROM venue_reviews
			GROUP BY venue_id
		) r ON r.venue_id = v.id`

const venueOrder = `
		ORDER BY r.avg_rating DESC NULLS LAST, COALESCE(r.review_count, 0) DESC, v.id`

const tagSelect = `
		SELECT venue_id, mood_category, personality_type, details
		FROM venue_tags
		WHERE venue_id = ANY($1)
		ORDER BY venue_id, id`

// PostgresStore reads venues, their tags and aggregated review ratings from
// the catalogue database.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Backend() string { return "postgres" }

func (s *PostgresStore) FindVenues(ctx context.Context, q Query) ([]models.Venue, error) {
	query, args := buildVenueQuery(q)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapQueryError(ctx, s.Backend(), err)
	}
	defer rows.Close()

	venues := make([]models.Venue, 0)
	index := make(map[string]int)
	for rows.Next() {
		var (
			v           models.Venue
			description sql.NullString
			areaCode    sql.NullString
			lat, lon    sql.NullFloat64
			rating      sql.NullFloat64
		)
		if err := rows.Scan(
			&v.ID, &v.Name, &v.Address, &description, &lat, &lon,
			&v.Price, &areaCode, &v.Status, &rating, &v.ReviewCount,
		); err != nil {
			return nil, wrapQueryError(ctx, s.Backend(), err)
		}
		v.Description = description.String
		v.AreaCode = areaCode.String
		if lat.Valid && lon.Valid {
			v.Latitude, v.Longitude = &lat.Float64, &lon.Float64
		}
		if rating.Valid {
			v.Rating = &rating.Float64
		}
		index[v.ID] = len(venues)
		venues = append(venues, v)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapQueryError(ctx, s.Backend(), err)
	}

	if len(venues) == 0 {
		return venues, nil
	}
	if err := s.loadTags(ctx, venues, index); err != nil {
		return nil, err
	}
	return venues, nil
}

func (s *PostgresStore) loadTags(ctx context.Context, venues []models.Venue, index map[string]int) error {
	ids := make([]string, len(venues))
	for i, v := range venues {
		ids[i] = v.ID
	}

	rows, err := s.db.QueryContext(ctx, tagSelect, pq.Array(ids))
	if err != nil {
		return wrapQueryError(ctx, s.Backend(), err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			venueID     string
			mood        sql.NullString
			personality sql.NullString
			details     []string
		)
		if err := rows.Scan(&venueID, &mood, &personality, pq.Array(&details)); err != nil {
			return wrapQueryError(ctx, s.Backend(), err)
		}
		i, ok := index[venueID]
		if !ok {
			continue
		}
		venues[i].Tags = append(venues[i].Tags, models.Tag{
			MoodCategory:    mood.String,
			PersonalityType: personality.String,
			Details:         details,
		})
	}
	if err := rows.Err(); err != nil {
		return wrapQueryError(ctx, s.Backend(), err)
	}
	return nil
}

// buildVenueQuery renders q into SQL with positional arguments.
func buildVenueQuery(q Query) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.ActiveOnly {
		where = append(where, "v.status = "+arg(models.StatusActive))
	}
	if q.BBox != nil {
		where = append(where,
			fmt.Sprintf("v.latitude BETWEEN %s AND %s", arg(q.BBox.MinLat), arg(q.BBox.MaxLat)),
			fmt.Sprintf("v.longitude BETWEEN %s AND %s", arg(q.BBox.MinLon), arg(q.BBox.MaxLon)),
		)
	}
	if q.AreaCode != "" {
		where = append(where, "v.area_code = "+arg(q.AreaCode))
	}
	if q.MinPrice != nil {
		where = append(where, "v.price >= "+arg(*q.MinPrice))
	}
	if q.MaxPrice != nil {
		where = append(where, "v.price <= "+arg(*q.MaxPrice))
	}
	if !q.Tags.IsEmpty() {
		where = append(where, tagClause(q.Tags, arg))
	}

	var b strings.Builder
	b.WriteString(venueSelect)
	if len(where) > 0 {
		b.WriteString("\n\t\tWHERE ")
		b.WriteString(strings.Join(where, "\n\t\t  AND "))
	}
	b.WriteString(venueOrder)
	if q.Limit > 0 {
		b.WriteString("\n\t\tLIMIT " + arg(q.Limit))
	}
	return b.String(), args
}

func tagClause(p TagPredicate, arg func(interface{}) string) string {
	var alts []string
	if len(p.PersonalityTypes) > 0 {
		alts = append(alts, "t.personality_type = ANY("+arg(pq.Array(p.PersonalityTypes))+")")
	}
	if p.Detail != "" {
		alts = append(alts, "EXISTS (SELECT 1 FROM unnest(t.details) d WHERE d ILIKE "+arg("%"+escapeLike(p.Detail)+"%")+")")
	} else if p.MoodCategory != "" {
		alts = append(alts, "t.mood_category = "+arg(p.MoodCategory))
	}
	return "EXISTS (SELECT 1 FROM venue_tags t WHERE t.venue_id = v.id AND (" + strings.Join(alts, " OR ") + "))"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
