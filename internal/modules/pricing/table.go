// README: Immutable rate table and the tiered mobilization fee rule.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"sewaalat/internal/types"
)

var ErrInvalidRate = errors.New("invalid rate tier")

// RateTable maps product categories to tiers. It is never mutated after
// construction, so Quote may be called from any goroutine.
type RateTable struct {
	tiers map[string]RateTier
	def   RateTier
}

// NewRateTable copies tiers so later changes to the argument do not leak in.
func NewRateTable(tiers map[string]RateTier, def RateTier) (*RateTable, error) {
	if err := validateTier("default", def); err != nil {
		return nil, err
	}
	copied := make(map[string]RateTier, len(tiers))
	for category, tier := range tiers {
		if err := validateTier(category, tier); err != nil {
			return nil, err
		}
		copied[category] = tier
	}
	return &RateTable{tiers: copied, def: def}, nil
}

// DefaultRateTable returns the built-in IDR rates.
func DefaultRateTable() *RateTable {
	heavy := RateTier{FlatRate: 2_500_000, FlatDistanceKm: 20, RatePerKmExtra: 30_000}
	t, _ := NewRateTable(map[string]RateTier{
		"1": heavy,
		"2": heavy,
		"3": {FlatRate: 5_000_000, FlatDistanceKm: 20, RatePerKmExtra: 40_000},
	}, RateTier{FlatRate: 1_000_000, FlatDistanceKm: 20, RatePerKmExtra: 25_000})
	return t
}

// Tier returns the tier for category, falling back to the default tier.
func (t *RateTable) Tier(category string) RateTier {
	if tier, ok := t.tiers[category]; ok {
		return tier
	}
	return t.def
}

// Quote rounds the distance up to whole kilometres and prices it against the
// category's tier. Unknown categories use the default tier.
func (t *RateTable) Quote(category string, distanceKm float64) MobilizationQuote {
	km := billableKm(distanceKm)
	tier := t.Tier(category)

	fee := tier.FlatRate
	if km > tier.FlatDistanceKm {
		fee += (km - tier.FlatDistanceKm) * tier.RatePerKmExtra
	}
	return MobilizationQuote{DistanceKm: km, Fee: types.IDR(fee)}
}

func billableKm(distanceKm float64) int64 {
	if math.IsNaN(distanceKm) || distanceKm <= 0 {
		return 0
	}
	return int64(math.Ceil(distanceKm))
}

func validateTier(name string, tier RateTier) error {
	if tier.FlatRate < 0 || tier.FlatDistanceKm < 0 || tier.RatePerKmExtra < 0 {
		return fmt.Errorf("%w: %s has a negative value", ErrInvalidRate, name)
	}
	return nil
}

type rateFile struct {
	Default *RateTier           `yaml:"default"`
	Tiers   map[string]RateTier `yaml:"tiers"`
}

// LoadRateTable reads a YAML rate file. An empty path yields DefaultRateTable.
// Tiers missing from the file keep their built-in values.
func LoadRateTable(path string) (*RateTable, error) {
	if path == "" {
		return DefaultRateTable(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rate file: %w", err)
	}
	var f rateFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse rate file: %w", err)
	}

	base := DefaultRateTable()
	def := base.def
	if f.Default != nil {
		def = *f.Default
	}
	tiers := make(map[string]RateTier, len(base.tiers)+len(f.Tiers))
	for k, v := range base.tiers {
		tiers[k] = v
	}
	for k, v := range f.Tiers {
		tiers[k] = v
	}
	return NewRateTable(tiers, def)
}
