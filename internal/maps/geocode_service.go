package maps

import (
	"context"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"

	"sewaalat/internal/modules/location"
	"sewaalat/internal/types"
)

// GeocodeService resolves project-site addresses with the Google Geocoding API.
type GeocodeService struct {
	client *maps.Client
	region string
}

// NewGeocodeService creates a GeocodeService with the given API Key. region is
// a ccTLD bias such as "id"; it may be empty.
func NewGeocodeService(apiKey, region string, opts ...maps.ClientOption) (*GeocodeService, error) {
	opts = append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)
	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GeocodeService{client: client, region: region}, nil
}

// Geocode returns the location of the best match for address.
func (s *GeocodeService) Geocode(ctx context.Context, address string) (types.Point, error) {
	r := &maps.GeocodingRequest{
		Address: address,
		Region:  s.region,
	}

	results, err := s.client.Geocode(ctx, r)
	if err != nil {
		if isZeroResults(err) {
			return types.Point{}, fmt.Errorf("%w: %q", location.ErrAddressNotFound, address)
		}
		return types.Point{}, fmt.Errorf("geocoding api error: %w", err)
	}

	if len(results) == 0 {
		return types.Point{}, fmt.Errorf("%w: %q", location.ErrAddressNotFound, address)
	}

	loc := results[0].Geometry.Location
	return types.Point{Lat: loc.Lat, Lng: loc.Lng}, nil
}

func isZeroResults(err error) bool {
	return strings.Contains(err.Error(), "ZERO_RESULTS")
}
