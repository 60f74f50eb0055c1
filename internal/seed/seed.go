package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/Simplici0/printquote/internal/pricing"
	"github.com/Simplici0/printquote/internal/store"
)

const (
	defaultBrand     = "Generic"
	defaultColorName = "Natural"
	defaultHex       = "#FFFFFF"
)

type defaultMaterial struct {
	family    pricing.MaterialKey
	density   float64
	costPerKg float64
}

var defaultMaterials = []defaultMaterial{
	{pricing.PLA, 1.24, 45.0},
	{pricing.PETG, 1.27, 55.0},
	{pricing.ASA, 1.07, 60.0},
}

// Config contains the values required by startup seed.
type Config struct {
	// Pricing, when set, is appended if its version is not stored yet. It replaces
	// the built-in default on an empty store.
	Pricing *pricing.Config
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// Run executes the startup seed in an idempotent way. After it succeeds the config
// store holds at least one pricing config.
func Run(ctx context.Context, st store.Store, cfg Config) (Stats, error) {
	stats := Stats{}

	if err := ensurePricingConfig(ctx, st, cfg.Pricing, &stats); err != nil {
		return Stats{}, err
	}
	if err := ensureMaterials(ctx, st, &stats); err != nil {
		return Stats{}, err
	}

	return stats, nil
}

func ensurePricingConfig(ctx context.Context, st store.Store, override *pricing.Config, stats *Stats) error {
	configs, err := st.ListConfigs(ctx)
	if err != nil {
		return fmt.Errorf("check pricing config existence: %w", err)
	}

	candidate := pricing.DefaultConfig()
	if override != nil {
		candidate = override.Clone()
	} else if len(configs) > 0 {
		return nil
	}

	for _, c := range configs {
		if c.Version == candidate.Version {
			return nil
		}
	}

	if err := candidate.Parameters.Validate(); err != nil {
		return fmt.Errorf("validate seed pricing config %s: %w", candidate.Version, err)
	}
	active, err := activeFamilies(ctx, st)
	if err != nil {
		return err
	}
	if err := candidate.Parameters.RequireMaterials(active...); err != nil {
		return fmt.Errorf("validate seed pricing config %s: %w", candidate.Version, err)
	}
	if _, err := st.AppendConfig(ctx, candidate); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil
		}
		return fmt.Errorf("insert pricing config %s: %w", candidate.Version, err)
	}
	stats.Inserts++
	return nil
}

func ensureMaterials(ctx context.Context, st store.Store, stats *Stats) error {
	existing, err := st.ListMaterials(ctx)
	if err != nil {
		return fmt.Errorf("check default material existence: %w", err)
	}

	present := make(map[pricing.MaterialKey]bool, len(existing))
	for _, m := range existing {
		present[m.Family] = true
	}

	configs, err := st.ListConfigs(ctx)
	if err != nil {
		return fmt.Errorf("list pricing configs: %w", err)
	}
	current, err := pricing.SelectCurrent(configs)
	if err != nil {
		return fmt.Errorf("select current pricing config: %w", err)
	}

	for _, dm := range defaultMaterials {
		if present[dm.family] {
			continue
		}
		// Families the current config cannot price are seeded disabled.
		active := current.Parameters.Covers(dm.family)
		if _, err := st.CreateMaterial(ctx, store.Material{
			Family:    dm.family,
			Brand:     defaultBrand,
			ColorName: defaultColorName,
			Hex:       defaultHex,
			Density:   dm.density,
			CostPerKg: dm.costPerKg,
			Active:    active,
		}); err != nil {
			return fmt.Errorf("insert default material %s: %w", dm.family, err)
		}
		stats.Inserts++
	}
	return nil
}

func activeFamilies(ctx context.Context, st store.Store) ([]pricing.MaterialKey, error) {
	materials, err := st.ListMaterials(ctx)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}

	var families []pricing.MaterialKey
	for _, m := range materials {
		if m.Active {
			families = append(families, m.Family)
		}
	}
	return families, nil
}
