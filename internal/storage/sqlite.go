package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"recipehub/pkg/models"
)

// SQLite stores one row per recipe with the full record as JSON.
type SQLite struct {
	DB *sql.DB
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{DB: db}
}

func (s *SQLite) LoadAll(ctx context.Context) ([]models.Recipe, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT slug, data
		FROM recipes
		ORDER BY slug ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	var out []models.Recipe
	for rows.Next() {
		var (
			slug string
			data string
		)
		if err := rows.Scan(&slug, &data); err != nil {
			return nil, fmt.Errorf("scan recipe row: %w", err)
		}
		var r models.Recipe
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("decode recipe %s: %w", slug, err)
		}
		r.Slug = slug
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (s *SQLite) Put(ctx context.Context, r models.Recipe) error {
	return upsertRecipe(ctx, s.DB, r)
}

func (s *SQLite) Rename(ctx context.Context, oldSlug string, r models.Recipe) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rename: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM recipes WHERE slug = ?`, oldSlug); err != nil {
		return fmt.Errorf("delete old slug: %w", err)
	}
	if err := upsertRecipe(ctx, tx, r); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rename: %w", err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, slug string) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM recipes WHERE slug = ?`, slug); err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	return nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *SQLite) Close() error {
	return s.DB.Close()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertRecipe(ctx context.Context, db execer, r models.Recipe) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode recipe %s: %w", r.Slug, err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO recipes (slug, title, data, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(slug) DO UPDATE SET
			title = excluded.title,
			data = excluded.data,
			updated_at = CURRENT_TIMESTAMP
	`, r.Slug, r.Title, string(data))
	if err != nil {
		return fmt.Errorf("upsert recipe %s: %w", r.Slug, err)
	}
	return nil
}
