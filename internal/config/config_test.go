package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Simplici0/printquote/internal/pricing"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "DB_PATH", "PORT", "UPLOAD_DIR", "LOG_LEVEL", "LOG_FORMAT", "PRICING_FILE"} {
		unsetForTest(t, key)
	}
	t.Chdir(t.TempDir())

	cfg := Load()

	if cfg.DBPath != defaultDBPath || cfg.Port != defaultPort || cfg.UploadDir != defaultUploadDir {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.IsDev() {
		t.Fatalf("expected dev environment by default")
	}
	if cfg.LogFormat != "console" {
		t.Fatalf("LogFormat=%q, want console", cfg.LogFormat)
	}
}

func TestLoad_ProductionDefaultsToJSONLogs(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9090")
	unsetForTest(t, "LOG_FORMAT")
	t.Chdir(t.TempDir())

	cfg := Load()

	if cfg.IsDev() {
		t.Fatalf("expected non-dev environment")
	}
	if cfg.Port != "9090" {
		t.Fatalf("Port=%q, want 9090", cfg.Port)
	}
	if cfg.LogFormat != "json" {
		t.Fatalf("LogFormat=%q, want json", cfg.LogFormat)
	}
}

func TestLoadPricingFile(t *testing.T) {
	t.Setenv("PQ_AUTHOR", "ops-team")

	content := `
version: "1.1.0"
effective_from: 2024-06-01T00:00:00Z
created_by: ${PQ_AUTHOR}
parameters:
  density:
    PLA: 1.24
    TPU: 1.21
  material_cost_per_g:
    PLA: 0.05
    TPU: 0.09
  machine_rate_eur_per_hour: 18
  base_fee_eur: 4
  post_rate_eur_per_minute: 0.8
  risk_multiplier: 1.15
  minimum_item_price_eur: 6
  minimum_order_price_eur: 15
  setup_time_hours: 0.25
`
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write pricing file: %v", err)
	}

	file, err := LoadPricingFile(path)
	if err != nil {
		t.Fatalf("LoadPricingFile: %v", err)
	}

	cfg := file.Config()
	if cfg.Version != "1.1.0" || cfg.CreatedBy != "ops-team" {
		t.Fatalf("unexpected config header: %+v", cfg)
	}
	if !cfg.EffectiveFrom.Equal(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("EffectiveFrom=%v", cfg.EffectiveFrom)
	}
	if cfg.Parameters.Density["TPU"] != 1.21 || cfg.Parameters.MaterialCostPerGram[pricing.PLA] != 0.05 {
		t.Fatalf("unexpected material maps: %+v", cfg.Parameters)
	}
	if cfg.Parameters.RiskMultiplier != 1.15 || cfg.Parameters.MachineRatePerHour != 18 {
		t.Fatalf("unexpected scalars: %+v", cfg.Parameters)
	}
	if err := cfg.Parameters.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadPricingFile_RequiresVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	if err := os.WriteFile(path, []byte("effective_from: 2024-06-01T00:00:00Z\n"), 0o600); err != nil {
		t.Fatalf("write pricing file: %v", err)
	}

	if _, err := LoadPricingFile(path); err == nil {
		t.Fatalf("expected missing version error")
	}

	if _, err := LoadPricingFile(filepath.Join(t.TempDir(), "nope.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want os.ErrNotExist", err)
	}
}
