package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Simplici0/printquote/internal/pricing"
)

// PricingFile is the YAML document used to bootstrap or propose a pricing config.
//
//	version: "1.1.0"
//	effective_from: 2024-06-01T00:00:00Z
//	created_by: ops
//	parameters:
//	  density: {PLA: 1.24}
//	  material_cost_per_g: {PLA: 0.045}
//	  machine_rate_eur_per_hour: 15
type PricingFile struct {
	Version       string             `yaml:"version"`
	EffectiveFrom time.Time          `yaml:"effective_from"`
	CreatedBy     string             `yaml:"created_by"`
	Parameters    pricing.Parameters `yaml:"parameters"`
}

// LoadPricingFile reads a pricing YAML file, expanding environment variables.
func LoadPricingFile(path string) (PricingFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PricingFile{}, fmt.Errorf("read pricing file: %w", err)
	}

	var file PricingFile
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &file); err != nil {
		return PricingFile{}, fmt.Errorf("parse pricing file: %w", err)
	}

	if file.Version == "" {
		return PricingFile{}, fmt.Errorf("pricing file %s: version is required", path)
	}
	if file.EffectiveFrom.IsZero() {
		return PricingFile{}, fmt.Errorf("pricing file %s: effective_from is required", path)
	}

	return file, nil
}

// Config converts the file into a pricing config.
func (f PricingFile) Config() pricing.Config {
	return pricing.Config{
		Version:       f.Version,
		EffectiveFrom: f.EffectiveFrom,
		Parameters:    f.Parameters.Clone(),
		CreatedBy:     f.CreatedBy,
	}
}
