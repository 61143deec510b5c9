package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"

	"recipehub/pkg/models"
	"recipehub/pkg/utils"
)

// JSONFile keeps the whole collection in one JSON document keyed by slug.
// Every write rewrites the document through a temp file and rename, so the
// file on disk is always a complete snapshot.
type JSONFile struct {
	path string

	mu      sync.Mutex
	loaded  bool
	recipes map[string]models.Recipe
}

type jsonDocument struct {
	Version int                      `json:"version"`
	Recipes map[string]models.Recipe `json:"recipes"`
}

func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

func (s *JSONFile) LoadAll(ctx context.Context) ([]models.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return nil, err
	}

	slugs := make([]string, 0, len(s.recipes))
	for slug := range s.recipes {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	out := make([]models.Recipe, 0, len(slugs))
	for _, slug := range slugs {
		out = append(out, s.recipes[slug].Clone())
	}
	return out, nil
}

func (s *JSONFile) Put(ctx context.Context, r models.Recipe) error {
	return s.mutate(func(m map[string]models.Recipe) {
		m[r.Slug] = r.Clone()
	})
}

func (s *JSONFile) Rename(ctx context.Context, oldSlug string, r models.Recipe) error {
	return s.mutate(func(m map[string]models.Recipe) {
		delete(m, oldSlug)
		m[r.Slug] = r.Clone()
	})
}

func (s *JSONFile) Delete(ctx context.Context, slug string) error {
	return s.mutate(func(m map[string]models.Recipe) {
		delete(m, slug)
	})
}

func (s *JSONFile) Ping(ctx context.Context) error {
	_, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *JSONFile) Close() error { return nil }

// mutate applies fn to a copy of the collection and only adopts the copy
// once it is on disk.
func (s *JSONFile) mutate(fn func(map[string]models.Recipe)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}

	next := make(map[string]models.Recipe, len(s.recipes)+1)
	for k, v := range s.recipes {
		next[k] = v
	}
	fn(next)

	b, err := json.MarshalIndent(jsonDocument{Version: 1, Recipes: next}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode recipes: %w", err)
	}
	if err := utils.WriteFileAtomic(s.path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	s.recipes = next
	return nil
}

// load must be called with s.mu held.
func (s *JSONFile) load() error {
	if s.loaded {
		return nil
	}

	b, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.recipes = make(map[string]models.Recipe)
	case err != nil:
		return fmt.Errorf("read %s: %w", s.path, err)
	default:
		var doc jsonDocument
		if err := json.Unmarshal(b, &doc); err != nil {
			return fmt.Errorf("decode %s: %w", s.path, err)
		}
		s.recipes = make(map[string]models.Recipe, len(doc.Recipes))
		for slug, r := range doc.Recipes {
			if r.Slug == "" {
				r.Slug = slug
			}
			if r.Slug != slug {
				return fmt.Errorf("decode %s: key %q holds recipe %q", s.path, slug, r.Slug)
			}
			s.recipes[slug] = r
		}
	}
	s.loaded = true
	return nil
}
