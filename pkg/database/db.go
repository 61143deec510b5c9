package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

type Config struct {
	Path string
}

const busyTimeoutParam = "_busy_timeout=5000"

// EnsureDataDir creates the directory holding the database file. Path may be
// a plain file path or a file: URI with a query string.
func EnsureDataDir(cfg Config) error {
	return os.MkdirAll(filepath.Dir(filePath(cfg.Path)), 0o755)
}

func filePath(p string) string {
	p = strings.TrimPrefix(p, "file:")
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	return p
}

// dsn adds the busy timeout to path, keeping any query it already has.
func dsn(path string) string {
	if strings.Contains(path, "?") {
		return path + "&" + busyTimeoutParam
	}
	return path + "?" + busyTimeoutParam
}

// Open opens the sqlite file at cfg.Path and applies the embedded schema.
func Open(cfg Config) (*sql.DB, error) {
	if err := EnsureDataDir(cfg); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn(cfg.Path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma journal_mode: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}
