package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

func TestDSNAppendsConnectionPragmas(t *testing.T) {
	cases := map[string]string{
		"./dev.db":           "./dev.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		":memory:":           ":memory:?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		"file:x.db?mode=rwc": "file:x.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
	}
	for in, want := range cases {
		if got := dsn(in); got != want {
			t.Fatalf("dsn(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOpenEnablesForeignKeysOnEveryConnection(t *testing.T) {
	database, err := Open(filepath.Join(t.TempDir(), "pragma-test.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	first, err := database.Conn(ctx)
	if err != nil {
		t.Fatalf("first connection: %v", err)
	}
	defer first.Close()
	second, err := database.Conn(ctx)
	if err != nil {
		t.Fatalf("second connection: %v", err)
	}
	defer second.Close()

	for name, conn := range map[string]*sql.Conn{"first": first, "second": second} {
		var enabled int
		if err := conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enabled); err != nil {
			t.Fatalf("%s connection: read foreign_keys: %v", name, err)
		}
		if enabled != 1 {
			t.Fatalf("%s connection: foreign_keys = %d, want 1", name, enabled)
		}
	}
}
