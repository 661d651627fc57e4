// Package geo holds the distance math used to filter venues around a point.
package geo

import "math"

const (
	// EarthRadiusKm is the mean Earth radius used by Haversine.
	EarthRadiusKm = 6371.0
	// KmPerDegree approximates one degree of latitude.
	KmPerDegree = 111.0
)

// BoundingBox is an axis-aligned latitude/longitude window.
type BoundingBox struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLon float64 `json:"minLon"`
	MaxLon float64 `json:"maxLon"`
}

// NewBoundingBox returns the prefilter window around (lat, lon): radius/111
// degrees of latitude and radius/(111*cos(lat)) degrees of longitude. The
// longitude delta uses the query latitude only, so the box loosens toward
// the poles; at the pole itself every longitude is admitted.
func NewBoundingBox(lat, lon, radiusKm float64) BoundingBox {
	dLat := radiusKm / KmPerDegree

	dLon := 180.0
	if c := math.Cos(toRadians(lat)); c > 1e-12 {
		dLon = math.Min(radiusKm/(KmPerDegree*c), 180.0)
	}

	return BoundingBox{
		MinLat: lat - dLat,
		MaxLat: lat + dLat,
		MinLon: lon - dLon,
		MaxLon: lon + dLon,
	}
}

// Contains reports whether the point lies inside the box, edges included.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Haversine returns the great-circle distance in kilometres.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
