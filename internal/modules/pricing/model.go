// README: Mobilization rate tiers and quote result.
package pricing

import "sewaalat/internal/types"

// RateTier is the mobilization rate for one product category. Amounts are whole IDR.
type RateTier struct {
	FlatRate       int64 `yaml:"flat_rate" json:"flat_rate"`
	FlatDistanceKm int64 `yaml:"flat_distance" json:"flat_distance"`
	RatePerKmExtra int64 `yaml:"rate_per_km_extra" json:"rate_per_km_extra"`
}

// MobilizationQuote is the priced result for one trip.
type MobilizationQuote struct {
	DistanceKm int64
	Fee        types.Money
}

// TripRequest asks for a quote between a vendor and a project site.
type TripRequest struct {
	Category string
	Vendor   types.Point
	Project  types.Point
}
