package database

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenAppliesSchema(t *testing.T) {
	cfg := Config{Path: filepath.Join(t.TempDir(), "sub", "test.db")}

	db, err := Open(cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'recipes'`).Scan(&name)
	if err != nil {
		t.Fatalf("recipes table missing: %v", err)
	}

	// schema is idempotent
	if err := Migrate(db); err != nil {
		t.Errorf("second migrate: %v", err)
	}
}

func TestDSN(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"data/recipes.db", "data/recipes.db?_busy_timeout=5000"},
		{"data/recipes.db?_foreign_keys=on", "data/recipes.db?_foreign_keys=on&_busy_timeout=5000"},
		{"file:data/recipes.db?cache=shared", "file:data/recipes.db?cache=shared&_busy_timeout=5000"},
	}
	for _, tt := range tests {
		if got := dsn(tt.path); got != tt.want {
			t.Errorf("dsn(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
	if got := filePath("file:data/recipes.db?cache=shared"); got != "data/recipes.db" {
		t.Errorf("filePath = %q", got)
	}
}

func TestOpenWithQueryString(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nested", "test.db")

	db, err := Open(Config{Path: "file:" + file + "?cache=shared"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	var timeout int
	if err := db.QueryRow(`PRAGMA busy_timeout`).Scan(&timeout); err != nil {
		t.Fatalf("busy_timeout: %v", err)
	}
	if timeout != 5000 {
		t.Errorf("busy_timeout = %d, want 5000", timeout)
	}
	if _, err := os.Stat(file); err != nil {
		t.Errorf("database file not created at %s: %v", file, err)
	}
}
