// README: Boundary validation for coordinates before they reach the distance engine.
package location

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"sewaalat/internal/types"
)

var (
	// ErrInvalidCoordinate marks input that is missing, non-numeric or out of range.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrAddressNotFound   = errors.New("address not found")
	ErrGeocoderDisabled  = errors.New("geocoding not configured")
)

// ParseDegrees parses a decimal-degree value sent as text. field names the
// input in the returned error.
func ParseDegrees(field, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s is required", ErrInvalidCoordinate, field)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidCoordinate, field)
	}
	return v, nil
}

// ValidatePoint checks latitude and longitude ranges.
func ValidatePoint(p types.Point) error {
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidCoordinate, p.Lat)
	}
	if p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidCoordinate, p.Lng)
	}
	return nil
}

// ParsePoint parses and validates a latitude/longitude pair; prefix names the
// pair in errors (for example "vendor" yields vendor_lat / vendor_lng).
func ParsePoint(prefix, rawLat, rawLng string) (types.Point, error) {
	lat, err := ParseDegrees(prefix+"_lat", rawLat)
	if err != nil {
		return types.Point{}, err
	}
	lng, err := ParseDegrees(prefix+"_lng", rawLng)
	if err != nil {
		return types.Point{}, err
	}
	p := types.Point{Lat: lat, Lng: lng}
	if err := ValidatePoint(p); err != nil {
		return types.Point{}, err
	}
	return p, nil
}
