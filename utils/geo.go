// utils/geo.go
package utils

import "math"

const earthRadiusMeters = 6371000.0

// DistanceMeters returns the great-circle (haversine) distance between two
// WGS84 coordinates in meters. Prize radii are tens to hundreds of meters, so
// a flat-earth approximation is not good enough here.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// WithinRadius reports whether a point lies within radiusMeters of a center.
// The boundary itself counts as inside; a sub-micrometer slack absorbs
// floating-point noise at the exact boundary.
func WithinRadius(lat, lng, centerLat, centerLng, radiusMeters float64) bool {
	return DistanceMeters(lat, lng, centerLat, centerLng)-radiusMeters <= 1e-6
}

// BoundingRegion is the game's configured playable area.
type BoundingRegion struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// Contains reports whether a coordinate falls inside the region.
func (r BoundingRegion) Contains(lat, lng float64) bool {
	return lat >= r.MinLat && lat <= r.MaxLat && lng >= r.MinLng && lng <= r.MaxLng
}

// BoundingBox returns a latitude/longitude box that fully contains the circle
// of radiusMeters around a center. Used as a cheap SQL prefilter before the
// exact haversine check.
func BoundingBox(lat, lng, radiusMeters float64) (minLat, maxLat, minLng, maxLng float64) {
	dLat := radiusMeters / earthRadiusMeters * 180 / math.Pi
	dLng := dLat / math.Cos(lat*math.Pi/180)
	return lat - dLat, lat + dLat, lng - dLng, lng + dLng
}
