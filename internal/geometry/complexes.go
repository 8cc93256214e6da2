package geometry

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"

	"github.com/darkus007/FlatScrapper/internal/models"
)

// Nearest ranks complexes by geodesic distance from point and returns at
// most limit of them. Complexes without coordinates are ignored.
func Nearest(complexes []models.Complex, point orb.Point, limit int) []models.ComplexDistance {
	result := make([]models.ComplexDistance, 0, len(complexes))
	for _, c := range complexes {
		location, ok := c.Location()
		if !ok {
			continue
		}
		result = append(result, models.ComplexDistance{
			Complex:  c,
			Distance: geo.Distance(point, location),
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Distance < result[j].Distance
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// FeatureCollection renders located complexes as GeoJSON points with their
// descriptive attributes as properties.
func FeatureCollection(complexes []models.Complex) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	var points orb.MultiPoint
	for _, c := range complexes {
		location, ok := c.Location()
		if !ok {
			continue
		}
		points = append(points, location)

		feature := geojson.NewFeature(location)
		feature.ID = c.ComplexID
		feature.Properties = geojson.Properties{
			"complex_id":    c.ComplexID,
			"name":          deref(c.Name),
			"city":          deref(c.City),
			"metro":         deref(c.Metro),
			"time_to_metro": c.TimeToMetro,
			"url":           deref(c.URL),
			"address":       deref(c.Address),
		}
		fc.Append(feature)
	}

	if len(points) > 0 {
		fc.BBox = geojson.NewBBox(points.Bound())
	}
	return fc
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
