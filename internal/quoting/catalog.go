package quoting

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Simplici0/printquote/internal/pricing"
	"github.com/Simplici0/printquote/internal/store"
)

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// MaterialInput describes a new catalog material.
type MaterialInput struct {
	Family    string
	Brand     string
	ColorName string
	Hex       string
	Density   float64
	CostPerKg float64
	Surcharge float64
}

// CreateMaterial adds an active material to the catalog. Its family must be priced by
// the current config, otherwise quotes for it could never succeed.
func (s *Service) CreateMaterial(ctx context.Context, in MaterialInput) (store.Material, error) {
	family, err := pricing.ParseMaterialKey(in.Family)
	if err != nil {
		return store.Material{}, err
	}

	hex := strings.TrimSpace(in.Hex)
	if hex == "" {
		hex = "#FFFFFF"
	}
	if !hexColorPattern.MatchString(hex) {
		return store.Material{}, fmt.Errorf("%w: hex must look like #RRGGBB", pricing.ErrInvalidInput)
	}
	if in.Density <= 0 {
		return store.Material{}, fmt.Errorf("%w: density must be greater than 0", pricing.ErrInvalidInput)
	}
	if in.CostPerKg <= 0 {
		return store.Material{}, fmt.Errorf("%w: cost_per_kg must be greater than 0", pricing.ErrInvalidInput)
	}
	if in.Surcharge < 0 {
		return store.Material{}, fmt.Errorf("%w: surcharge must be greater than or equal to 0", pricing.ErrInvalidInput)
	}

	current, err := s.CurrentConfig(ctx)
	if err != nil {
		return store.Material{}, err
	}
	if err := current.Parameters.RequireMaterials(family); err != nil {
		return store.Material{}, fmt.Errorf("config %s: %w", current.Version, err)
	}

	m, err := s.store.CreateMaterial(ctx, store.Material{
		Family:    family,
		Brand:     strings.TrimSpace(in.Brand),
		ColorName: strings.TrimSpace(in.ColorName),
		Hex:       strings.ToUpper(hex),
		Density:   in.Density,
		CostPerKg: in.CostPerKg,
		Surcharge: in.Surcharge,
		Active:    true,
	})
	if err != nil {
		return store.Material{}, fmt.Errorf("create material: %w", err)
	}

	s.logger.Info("material created", "id", m.ID, "family", m.Family, "brand", m.Brand)
	return m, nil
}

// ListMaterials returns the catalog.
func (s *Service) ListMaterials(ctx context.Context) ([]store.Material, error) {
	materials, err := s.store.ListMaterials(ctx)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	return materials, nil
}

// SetMaterialActive enables or disables ordering of a material. Re-activating a
// material requires the current config to price its family.
func (s *Service) SetMaterialActive(ctx context.Context, id int64, active bool) (store.Material, error) {
	if active {
		m, err := s.store.GetMaterial(ctx, id)
		if err != nil {
			return store.Material{}, err
		}
		current, err := s.CurrentConfig(ctx)
		if err != nil {
			return store.Material{}, err
		}
		if err := current.Parameters.RequireMaterials(m.Family); err != nil {
			return store.Material{}, fmt.Errorf("config %s: %w", current.Version, err)
		}
	}

	m, err := s.store.SetMaterialActive(ctx, id, active)
	if err != nil {
		return store.Material{}, err
	}
	return m, nil
}
