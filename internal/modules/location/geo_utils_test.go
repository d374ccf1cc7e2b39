package location

import (
	"math"
	"testing"

	"sewaalat/internal/types"
)

func TestHaversineKm_KnownDistances(t *testing.T) {
	tests := []struct {
		name      string
		lat1      float64
		lng1      float64
		lat2      float64
		lng2      float64
		wantKm    float64
		tolerance float64
	}{
		{
			name: "same point",
			lat1: -6.2088, lng1: 106.8456,
			lat2: -6.2088, lng2: 106.8456,
			wantKm:    0,
			tolerance: 0.000001,
		},
		{
			name: "origin to origin",
			lat1: 0, lng1: 0,
			lat2: 0, lng2: 0,
			wantKm:    0,
			tolerance: 0.000001,
		},
		{
			name: "one degree of longitude on the equator",
			lat1: 0, lng1: 0,
			lat2: 0, lng2: 1,
			wantKm:    111.195,
			tolerance: 0.01,
		},
		{
			name: "Jakarta to Bandung (~116km)",
			lat1: -6.2088, lng1: 106.8456,
			lat2: -6.9175, lng2: 107.6191,
			wantKm:    116,
			tolerance: 3,
		},
		{
			name: "antipodal points",
			lat1: 0, lng1: 0,
			lat2: 0, lng2: 180,
			wantKm:    math.Pi * earthRadiusKm,
			tolerance: 0.001,
		},
		{
			name: "pole to pole",
			lat1: 90, lng1: 0,
			lat2: -90, lng2: 0,
			wantKm:    math.Pi * earthRadiusKm,
			tolerance: 0.001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := haversineKm(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("haversineKm() = %f, want %f (±%f)", got, tt.wantKm, tt.tolerance)
			}
		})
	}
}

func TestGreatCircleDistanceKm_Symmetry(t *testing.T) {
	a := types.Point{Lat: -6.2, Lng: 106.8}
	b := types.Point{Lat: -7.25, Lng: 112.75}
	d1 := GreatCircleDistanceKm(a, b)
	d2 := GreatCircleDistanceKm(b, a)
	if math.Abs(d1-d2) > 1e-9 {
		t.Errorf("distance is not symmetric: %f vs %f", d1, d2)
	}
}

func TestGreatCircleDistanceKm_Bounds(t *testing.T) {
	maxKm := math.Pi * earthRadiusKm
	for lat1 := -90.0; lat1 <= 90; lat1 += 30 {
		for lng1 := -180.0; lng1 <= 180; lng1 += 45 {
			for lat2 := -90.0; lat2 <= 90; lat2 += 45 {
				for lng2 := -180.0; lng2 <= 180; lng2 += 60 {
					d := GreatCircleDistanceKm(types.Point{Lat: lat1, Lng: lng1}, types.Point{Lat: lat2, Lng: lng2})
					if math.IsNaN(d) || d < 0 || d > maxKm+1e-6 {
						t.Fatalf("distance(%v,%v -> %v,%v) = %f outside [0, %f]", lat1, lng1, lat2, lng2, d, maxKm)
					}
				}
			}
		}
	}
}

func TestGreatCircleDistanceKm_OutOfRangeInputStillFinite(t *testing.T) {
	d := GreatCircleDistanceKm(types.Point{Lat: 400, Lng: -900}, types.Point{Lat: 0, Lng: 0})
	if math.IsNaN(d) || math.IsInf(d, 0) {
		t.Fatalf("expected finite distance, got %v", d)
	}
}
