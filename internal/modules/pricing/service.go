// README: Pricing service quotes mobilization fees for rental deliveries.
package pricing

import (
	"sewaalat/internal/modules/location"
)

type Service struct {
	rates *RateTable
}

func NewService(rates *RateTable) *Service {
	if rates == nil {
		rates = DefaultRateTable()
	}
	return &Service{rates: rates}
}

// Quote prices an already measured distance.
func (s *Service) Quote(category string, distanceKm float64) MobilizationQuote {
	return s.rates.Quote(category, distanceKm)
}

// QuoteTrip measures the great-circle distance between vendor and project and
// prices it. Coordinates are expected to be validated by the caller.
func (s *Service) QuoteTrip(req TripRequest) MobilizationQuote {
	km := location.GreatCircleDistanceKm(req.Vendor, req.Project)
	return s.rates.Quote(req.Category, km)
}
