// Package location: geo_utils holds pure geographic computation helpers.
package location

import (
	"math"

	"sewaalat/internal/types"
)

const earthRadiusKm = 6371.0

// GreatCircleDistanceKm returns the great-circle distance in kilometres
// between origin and destination. It accepts any finite input and never fails.
func GreatCircleDistanceKm(origin, destination types.Point) float64 {
	return haversineKm(origin.Lat, origin.Lng, destination.Lat, destination.Lng)
}

// haversineKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees.
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// Rounding can push a a hair past 1 for antipodal points.
	a = math.Min(1, math.Max(0, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
