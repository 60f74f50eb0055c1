package seed

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Simplici0/printquote/internal/db"
	"github.com/Simplici0/printquote/internal/migrations"
	"github.com/Simplici0/printquote/internal/pricing"
	"github.com/Simplici0/printquote/internal/store"
)

func TestRunIsIdempotent(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "seed-test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()

	if err := migrations.Up(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	st := store.NewSQLite(database)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		stats, err := Run(ctx, st, Config{})
		if err != nil {
			t.Fatalf("run seed (iteration=%d): %v", i, err)
		}
		if i == 0 {
			if stats.Inserts != 4 {
				t.Fatalf("expected 4 inserts in first run, got %d", stats.Inserts)
			}
			continue
		}
		if stats.Inserts != 0 {
			t.Fatalf("expected 0 inserts in iteration %d, got %d", i, stats.Inserts)
		}
	}

	configs, err := st.ListConfigs(ctx)
	if err != nil {
		t.Fatalf("list configs: %v", err)
	}
	if len(configs) != 1 || configs[0].Version != "1.0.0" || configs[0].CreatedBy != "system" {
		t.Fatalf("unexpected configs: %+v", configs)
	}

	materials, err := st.ListMaterials(ctx)
	if err != nil {
		t.Fatalf("list materials: %v", err)
	}
	if len(materials) != 3 {
		t.Fatalf("expected 3 materials, got %d", len(materials))
	}
	for _, m := range materials {
		if !configs[0].Parameters.Covers(m.Family) {
			t.Fatalf("default config does not price seeded material %s", m.Family)
		}
	}
}

func TestRunAppendsPricingOverrideOnce(t *testing.T) {
	t.Parallel()

	st := store.NewMemory()
	ctx := context.Background()

	if _, err := Run(ctx, st, Config{}); err != nil {
		t.Fatalf("initial seed: %v", err)
	}

	override := pricing.DefaultConfig()
	override.Version = "1.1.0"
	override.EffectiveFrom = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	override.Parameters.MachineRatePerHour = 18

	for i := 0; i < 3; i++ {
		if _, err := Run(ctx, st, Config{Pricing: &override}); err != nil {
			t.Fatalf("seed with override (iteration=%d): %v", i, err)
		}
	}

	configs, err := st.ListConfigs(ctx)
	if err != nil {
		t.Fatalf("list configs: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("expected default and override configs, got %d", len(configs))
	}

	current, err := pricing.SelectCurrent(configs)
	if err != nil {
		t.Fatalf("select current: %v", err)
	}
	if current.Version != "1.1.0" || current.Parameters.MachineRatePerHour != 18 {
		t.Fatalf("unexpected current config: %+v", current)
	}
}

func TestRunOverrideReplacesDefaultOnEmptyStore(t *testing.T) {
	t.Parallel()

	st := store.NewMemory()
	override := pricing.DefaultConfig()
	override.Version = "2024.1"

	if _, err := Run(context.Background(), st, Config{Pricing: &override}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	configs, err := st.ListConfigs(context.Background())
	if err != nil {
		t.Fatalf("list configs: %v", err)
	}
	if len(configs) != 1 || configs[0].Version != "2024.1" {
		t.Fatalf("unexpected configs: %+v", configs)
	}
}

func withoutASA(version string) pricing.Config {
	cfg := pricing.DefaultConfig()
	cfg.Version = version
	cfg.EffectiveFrom = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	delete(cfg.Parameters.Density, pricing.ASA)
	delete(cfg.Parameters.MaterialCostPerGram, pricing.ASA)
	return cfg
}

func TestRunSeedsUnpricedDefaultsDisabled(t *testing.T) {
	t.Parallel()

	st := store.NewMemory()
	override := withoutASA("2.0.0")

	if _, err := Run(context.Background(), st, Config{Pricing: &override}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	materials, err := st.ListMaterials(context.Background())
	if err != nil {
		t.Fatalf("list materials: %v", err)
	}
	if len(materials) != 3 {
		t.Fatalf("expected 3 materials, got %d", len(materials))
	}
	for _, m := range materials {
		if m.Active != override.Parameters.Covers(m.Family) {
			t.Fatalf("material %s active=%v, config 2.0.0 covers=%v", m.Family, m.Active, override.Parameters.Covers(m.Family))
		}
	}
}

func TestRunRejectsOverrideMissingActiveFamily(t *testing.T) {
	t.Parallel()

	st := store.NewMemory()
	ctx := context.Background()
	if _, err := Run(ctx, st, Config{}); err != nil {
		t.Fatalf("initial seed: %v", err)
	}

	override := withoutASA("2.0.0")
	_, err := Run(ctx, st, Config{Pricing: &override})
	if !errors.Is(err, pricing.ErrIncompleteParameters) {
		t.Fatalf("err = %v, want %v", err, pricing.ErrIncompleteParameters)
	}

	configs, err := st.ListConfigs(ctx)
	if err != nil {
		t.Fatalf("list configs: %v", err)
	}
	if len(configs) != 1 || configs[0].Version != "1.0.0" {
		t.Fatalf("expected only the default config, got %+v", configs)
	}
}
