package quoting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Simplici0/printquote/internal/pricing"
)

const defaultConfigAuthor = "admin"

// ProposeConfigInput is a full replacement parameter snapshot. Partial updates are
// not supported.
type ProposeConfigInput struct {
	Version       string
	EffectiveFrom time.Time
	Parameters    pricing.Parameters
	CreatedBy     string
}

// ProposeConfig validates and appends a new immutable pricing config. The effective
// date is not checked against existing configs; selection at quote time decides
// precedence.
func (s *Service) ProposeConfig(ctx context.Context, in ProposeConfigInput) (pricing.Config, error) {
	version := strings.TrimSpace(in.Version)
	if version == "" {
		return pricing.Config{}, fmt.Errorf("%w: version is required", pricing.ErrInvalidInput)
	}
	if in.EffectiveFrom.IsZero() {
		return pricing.Config{}, fmt.Errorf("%w: effective_from is required", pricing.ErrInvalidInput)
	}
	createdBy := strings.TrimSpace(in.CreatedBy)
	if createdBy == "" {
		createdBy = defaultConfigAuthor
	}

	params := in.Parameters.Clone()
	if err := params.Validate(); err != nil {
		return pricing.Config{}, err
	}

	required, err := s.orderableMaterials(ctx)
	if err != nil {
		return pricing.Config{}, err
	}
	if err := params.RequireMaterials(required...); err != nil {
		return pricing.Config{}, err
	}

	cfg, err := s.store.AppendConfig(ctx, pricing.Config{
		Version:       version,
		EffectiveFrom: in.EffectiveFrom,
		Parameters:    params,
		CreatedBy:     createdBy,
	})
	if err != nil {
		return pricing.Config{}, fmt.Errorf("append pricing config: %w", err)
	}

	configsProposed.Inc()
	s.logger.Info("pricing config proposed",
		"version", cfg.Version,
		"effective_from", cfg.EffectiveFrom,
		"created_by", cfg.CreatedBy,
	)
	return cfg, nil
}

// CurrentConfig returns the config with the latest effective date.
func (s *Service) CurrentConfig(ctx context.Context) (pricing.Config, error) {
	configs, err := s.store.ListConfigs(ctx)
	if err != nil {
		return pricing.Config{}, fmt.Errorf("list pricing configs: %w", err)
	}
	return pricing.SelectCurrent(configs)
}

// ConfigAsOf returns the config that was in force at the given instant.
func (s *Service) ConfigAsOf(ctx context.Context, at time.Time) (pricing.Config, error) {
	configs, err := s.store.ListConfigs(ctx)
	if err != nil {
		return pricing.Config{}, fmt.Errorf("list pricing configs: %w", err)
	}
	return pricing.SelectAsOf(configs, at)
}

// ListConfigs returns every config in insertion order.
func (s *Service) ListConfigs(ctx context.Context) ([]pricing.Config, error) {
	configs, err := s.store.ListConfigs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pricing configs: %w", err)
	}
	return configs, nil
}

// orderableMaterials returns the distinct families of active catalog materials.
func (s *Service) orderableMaterials(ctx context.Context) ([]pricing.MaterialKey, error) {
	materials, err := s.store.ListMaterials(ctx)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}

	seen := make(map[pricing.MaterialKey]bool)
	keys := make([]pricing.MaterialKey, 0, len(materials))
	for _, m := range materials {
		if !m.Active || seen[m.Family] {
			continue
		}
		seen[m.Family] = true
		keys = append(keys, m.Family)
	}
	return keys, nil
}
