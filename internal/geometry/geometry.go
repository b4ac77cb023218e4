package geometry

import (
	"math"
	"sort"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"

	"estate/server/internal/models"
)

// Point returns the location of a property as lon/lat
func Point(p *models.Property) (orb.Point, bool) {
	if !p.HasCoordinates() {
		return orb.Point{}, false
	}
	return orb.Point{*p.Longitude, *p.Latitude}, true
}

// Nearby is a property with its distance to a search center
type Nearby struct {
	Property   models.Property `json:"property"`
	DistanceKm float64         `json:"distance_km"`
}

// WithinRadius keeps the properties within radiusKm of center, closest first
func WithinRadius(properties []models.Property, center orb.Point, radiusKm float64) []Nearby {
	bound := geo.NewBoundAroundPoint(center, radiusKm*1000)

	var result []Nearby
	for _, p := range properties {
		point, ok := Point(&p)
		if !ok || !bound.Contains(point) {
			continue
		}
		distance := geo.Distance(center, point) / 1000
		if distance <= radiusKm {
			result = append(result, Nearby{Property: p, DistanceKm: distance})
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].DistanceKm < result[j].DistanceKm
	})
	return result
}

// FeatureCollection renders geocoded properties as GeoJSON points
func FeatureCollection(properties []models.Property) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range properties {
		point, ok := Point(&p)
		if !ok {
			continue
		}
		feature := geojson.NewFeature(point)
		feature.ID = p.ID
		feature.Properties = geojson.Properties{
			"id":             p.ID,
			"name":           p.Name,
			"state":          p.State,
			"city":           p.City,
			"expected_price": p.ExpectedPrice,
			"best_offer":     p.BestOffer,
			"bedrooms":       p.Bedrooms,
			"total_area":     p.TotalArea,
		}
		fc.Append(feature)
	}
	return fc
}

// CityAreas adds one polygon feature per city enclosing its geocoded properties.
// Cities with fewer than three distinct locations get no area.
func CityAreas(fc *geojson.FeatureCollection, properties []models.Property) {
	byCity := make(map[string][]orb.Point)
	names := make(map[string]string)
	for _, p := range properties {
		point, ok := Point(&p)
		if !ok || p.City == "" {
			continue
		}
		key := strings.ToLower(p.City)
		byCity[key] = append(byCity[key], point)
		if _, seen := names[key]; !seen {
			names[key] = p.City
		}
	}

	keys := make([]string, 0, len(byCity))
	for key := range byCity {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		hull := ConvexHull(byCity[key])
		if hull == nil {
			continue
		}
		polygon := orb.Polygon{hull}
		feature := geojson.NewFeature(polygon)
		feature.Properties = geojson.Properties{
			"city":           names[key],
			"property_count": len(byCity[key]),
			"area_km2":       math.Abs(geo.Area(polygon)) / 1e6,
		}
		fc.Append(feature)
	}
}

// ConvexHull returns the closed hull ring of the points, nil for fewer than three
// non-collinear points
func ConvexHull(points []orb.Point) orb.Ring {
	pts := make([]orb.Point, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i][0] != pts[j][0] {
			return pts[i][0] < pts[j][0]
		}
		return pts[i][1] < pts[j][1]
	})
	pts = dedupe(pts)
	if len(pts) < 3 {
		return nil
	}

	// Monotone chain, counter-clockwise
	hull := make([]orb.Point, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// hull is closed: the last point repeats the first
	if len(hull) < 4 {
		return nil
	}
	return orb.Ring(hull)
}

func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

func dedupe(sorted []orb.Point) []orb.Point {
	out := sorted[:0]
	for _, p := range sorted {
		if len(out) == 0 || !p.Equal(out[len(out)-1]) {
			out = append(out, p)
		}
	}
	return out
}
