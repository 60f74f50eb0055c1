package pricing

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"
)

// MaterialKey identifies which density and cost coefficients apply, e.g. a polymer family.
type MaterialKey string

const (
	PLA  MaterialKey = "PLA"
	PETG MaterialKey = "PETG"
	ASA  MaterialKey = "ASA"
)

var materialKeyPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9_-]*$`)

// ParseMaterialKey normalizes raw into a MaterialKey and rejects malformed keys.
func ParseMaterialKey(raw string) (MaterialKey, error) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if !materialKeyPattern.MatchString(key) {
		return "", fmt.Errorf("%w: material key %q", ErrInvalidInput, raw)
	}
	return MaterialKey(key), nil
}

// Parameters is a full snapshot of the cost coefficients used by Price.
// Values are never mutated after a Config is created; use Clone to derive a new set.
type Parameters struct {
	Density             map[MaterialKey]float64 `json:"density" yaml:"density"`
	MaterialCostPerGram map[MaterialKey]float64 `json:"material_cost_per_g" yaml:"material_cost_per_g"`
	MachineRatePerHour  float64                 `json:"machine_rate_eur_per_hour" yaml:"machine_rate_eur_per_hour"`
	BaseFee             float64                 `json:"base_fee_eur" yaml:"base_fee_eur"`
	PostRatePerMinute   float64                 `json:"post_rate_eur_per_minute" yaml:"post_rate_eur_per_minute"`
	RiskMultiplier      float64                 `json:"risk_multiplier" yaml:"risk_multiplier"`
	MinimumItemPrice    float64                 `json:"minimum_item_price_eur" yaml:"minimum_item_price_eur"`
	MinimumOrderPrice   float64                 `json:"minimum_order_price_eur" yaml:"minimum_order_price_eur"`
	SetupTimeHours      float64                 `json:"setup_time_hours" yaml:"setup_time_hours"`
}

// Config is an immutable, versioned pricing parameter snapshot.
type Config struct {
	// ID is the insertion sequence assigned by the config store.
	ID            int64      `json:"-" yaml:"-"`
	Version       string     `json:"version" yaml:"version"`
	EffectiveFrom time.Time  `json:"effective_from" yaml:"effective_from"`
	Parameters    Parameters `json:"parameters" yaml:"parameters"`
	CreatedBy     string     `json:"created_by" yaml:"created_by"`
}

// DefaultParameters returns the coefficients shipped with the service.
func DefaultParameters() Parameters {
	return Parameters{
		Density:             map[MaterialKey]float64{PLA: 1.24, PETG: 1.27, ASA: 1.07},
		MaterialCostPerGram: map[MaterialKey]float64{PLA: 0.045, PETG: 0.055, ASA: 0.06},
		MachineRatePerHour:  15.0,
		BaseFee:             4.0,
		PostRatePerMinute:   0.80,
		RiskMultiplier:      1.10,
		MinimumItemPrice:    6.0,
		MinimumOrderPrice:   15.0,
		SetupTimeHours:      0.25,
	}
}

// DefaultConfig is the config that must always be present in a config store.
func DefaultConfig() Config {
	return Config{
		Version:       "1.0.0",
		EffectiveFrom: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Parameters:    DefaultParameters(),
		CreatedBy:     "system",
	}
}

// Clone returns a deep copy of p.
func (p Parameters) Clone() Parameters {
	out := p
	out.Density = make(map[MaterialKey]float64, len(p.Density))
	for k, v := range p.Density {
		out.Density[k] = v
	}
	out.MaterialCostPerGram = make(map[MaterialKey]float64, len(p.MaterialCostPerGram))
	for k, v := range p.MaterialCostPerGram {
		out.MaterialCostPerGram[k] = v
	}
	return out
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	c.Parameters = c.Parameters.Clone()
	return c
}

// Materials returns the sorted set of keys priced by p (present in both maps).
func (p Parameters) Materials() []MaterialKey {
	keys := make([]MaterialKey, 0, len(p.Density))
	for k := range p.Density {
		if _, ok := p.MaterialCostPerGram[k]; ok {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Covers reports whether key has both a density and a cost per gram.
func (p Parameters) Covers(key MaterialKey) bool {
	_, hasDensity := p.Density[key]
	_, hasCost := p.MaterialCostPerGram[key]
	return hasDensity && hasCost
}

// Validate checks that every coefficient is a finite non-negative number and that
// the density and cost maps name the same materials.
func (p Parameters) Validate() error {
	scalars := []struct {
		name  string
		value float64
	}{
		{"machine_rate_eur_per_hour", p.MachineRatePerHour},
		{"base_fee_eur", p.BaseFee},
		{"post_rate_eur_per_minute", p.PostRatePerMinute},
		{"risk_multiplier", p.RiskMultiplier},
		{"minimum_item_price_eur", p.MinimumItemPrice},
		{"minimum_order_price_eur", p.MinimumOrderPrice},
		{"setup_time_hours", p.SetupTimeHours},
	}
	for _, s := range scalars {
		if !validCoefficient(s.value) {
			return fmt.Errorf("%w: %s must be a non-negative number", ErrInvalidInput, s.name)
		}
	}

	if len(p.Density) == 0 {
		return fmt.Errorf("%w: no material densities", ErrIncompleteParameters)
	}
	for k, v := range p.Density {
		if !validCoefficient(v) {
			return fmt.Errorf("%w: density[%s] must be a non-negative number", ErrInvalidInput, k)
		}
		if _, ok := p.MaterialCostPerGram[k]; !ok {
			return fmt.Errorf("%w: material_cost_per_g missing %s", ErrIncompleteParameters, k)
		}
	}
	for k, v := range p.MaterialCostPerGram {
		if !validCoefficient(v) {
			return fmt.Errorf("%w: material_cost_per_g[%s] must be a non-negative number", ErrInvalidInput, k)
		}
		if _, ok := p.Density[k]; !ok {
			return fmt.Errorf("%w: density missing %s", ErrIncompleteParameters, k)
		}
	}
	return nil
}

// RequireMaterials fails with ErrIncompleteParameters if any key is not priced by p.
func (p Parameters) RequireMaterials(keys ...MaterialKey) error {
	var missing []string
	for _, k := range keys {
		if !p.Covers(k) {
			missing = append(missing, string(k))
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: missing coefficients for %s", ErrIncompleteParameters, strings.Join(missing, ", "))
	}
	return nil
}

func validCoefficient(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
