// README: Location service resolves project sites and measures vendor-to-site distance.
package location

import (
	"context"
	"strings"

	"sewaalat/internal/types"
)

// Geocoder turns a free-form address into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (types.Point, error)
}

type Service struct {
	geocoder Geocoder
}

// NewService accepts a nil geocoder; Resolve then reports ErrGeocoderDisabled.
func NewService(geocoder Geocoder) *Service {
	return &Service{geocoder: geocoder}
}

func (s *Service) DistanceKm(origin, destination types.Point) float64 {
	return GreatCircleDistanceKm(origin, destination)
}

func (s *Service) Resolve(ctx context.Context, address string) (types.Point, error) {
	if s.geocoder == nil {
		return types.Point{}, ErrGeocoderDisabled
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return types.Point{}, ErrAddressNotFound
	}
	p, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		return types.Point{}, err
	}
	if err := ValidatePoint(p); err != nil {
		return types.Point{}, err
	}
	return p, nil
}
