package config

import (
	"os"
	"path/filepath"
	"testing"
)

// unsetForTest removes key for the duration of the test and restores it afterwards.
func unsetForTest(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("unset %s: %v", key, err)
	}
}

func TestLoadDotEnv_LoadsValuesAndIgnoresNoise(t *testing.T) {
	unsetForTest(t, "PQ_A")
	unsetForTest(t, "PQ_B")
	unsetForTest(t, "PQ_C")

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := []byte(`
# comment

PQ_A=one
export PQ_B=two
PQ_C="three"
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}

	if err := loadDotEnv(path); err != nil {
		t.Fatalf("loadDotEnv: %v", err)
	}

	if got := os.Getenv("PQ_A"); got != "one" {
		t.Fatalf("PQ_A=%q, want %q", got, "one")
	}
	if got := os.Getenv("PQ_B"); got != "two" {
		t.Fatalf("PQ_B=%q, want %q", got, "two")
	}
	if got := os.Getenv("PQ_C"); got != "three" {
		t.Fatalf("PQ_C=%q, want %q", got, "three")
	}
}

func TestLoadDotEnv_DoesNotOverwriteExistingEnv(t *testing.T) {
	t.Setenv("PQ_KEEP", "already")

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("PQ_KEEP=fromfile\n"), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}

	if err := loadDotEnv(path); err != nil {
		t.Fatalf("loadDotEnv: %v", err)
	}

	if got := os.Getenv("PQ_KEEP"); got != "already" {
		t.Fatalf("PQ_KEEP=%q, want %q", got, "already")
	}
}

func TestLoadDotEnv_MissingFileIsIgnored(t *testing.T) {
	if err := loadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("loadDotEnv: %v", err)
	}
}

func TestLoadDotEnv_StripsSingleQuotes(t *testing.T) {
	unsetForTest(t, "PQ_Q")

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("PQ_Q='hello world'\n"), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}

	if err := loadDotEnv(path); err != nil {
		t.Fatalf("loadDotEnv: %v", err)
	}

	if got := os.Getenv("PQ_Q"); got != "hello world" {
		t.Fatalf("PQ_Q=%q, want %q", got, "hello world")
	}
}
