package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"recipehub/pkg/database"
	"recipehub/pkg/models"
	"recipehub/pkg/utils"
)

func sampleRecipe(slug, title string) models.Recipe {
	return models.Recipe{
		Slug:        slug,
		Title:       title,
		Description: "desc",
		Difficulty:  models.DifficultyEasy,
		Servings:    2,
		Category:    "Asian",
		Ingredients: []string{"noodles", "garlic"},
		Method:      []string{"boil", "toss"},
		Tips:        []string{},
		Dietary:     []string{"Vegan"},
		Tags:        []string{},
		Season:      "All",
		Reviews:     []models.Review{},
	}
}

// exerciseBackend runs the behaviour every backend must share.
func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	all, err := b.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("len = %d, want 0", len(all))
	}

	if err := b.Put(ctx, sampleRecipe("noodles", "Noodles")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := b.Put(ctx, sampleRecipe("soup", "Soup")); err != nil {
		t.Fatalf("put: %v", err)
	}

	// overwrite keeps one row
	updated := sampleRecipe("soup", "Soup")
	updated.Description = "hot"
	if err := b.Put(ctx, updated); err != nil {
		t.Fatalf("put update: %v", err)
	}

	renamed := sampleRecipe("spicy-noodles", "Spicy Noodles")
	if err := b.Rename(ctx, "noodles", renamed); err != nil {
		t.Fatalf("rename: %v", err)
	}

	all, err = b.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(all), all)
	}
	got := map[string]models.Recipe{}
	for _, r := range all {
		got[r.Slug] = r
	}
	if _, ok := got["noodles"]; ok {
		t.Error("old slug still present after rename")
	}
	if r, ok := got["spicy-noodles"]; !ok || r.Title != "Spicy Noodles" {
		t.Errorf("renamed recipe = %+v", r)
	}
	if got["soup"].Description != "hot" {
		t.Errorf("soup description = %q, want hot", got["soup"].Description)
	}
	if d := got["soup"].Dietary; len(d) != 1 || d[0] != "Vegan" {
		t.Errorf("dietary = %v", d)
	}

	if err := b.Delete(ctx, "soup"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	all, _ = b.LoadAll(ctx)
	if len(all) != 1 || all[0].Slug != "spicy-noodles" {
		t.Errorf("after delete = %+v", all)
	}

	if err := b.Ping(ctx); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestJSONFileBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipes.json")
	exerciseBackend(t, NewJSONFile(path))

	// a fresh instance sees what the first one wrote
	reopened := NewJSONFile(path)
	all, err := reopened.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(all) != 1 || all[0].Slug != "spicy-noodles" {
		t.Errorf("reloaded = %+v", all)
	}
}

func TestJSONFileRejectsMismatchedKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipes.json")
	doc := `{"version":1,"recipes":{"a":{"slug":"b","title":"B"}}}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewJSONFile(path).LoadAll(context.Background()); err == nil {
		t.Error("expected error for key/slug mismatch")
	}
}

func TestJSONFileCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipes.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewJSONFile(path)
	if _, err := s.LoadAll(context.Background()); err == nil {
		t.Error("expected decode error")
	}
	// a failed load must not let a write clobber the file
	if err := s.Put(context.Background(), sampleRecipe("x", "X")); err == nil {
		t.Error("expected put to fail on unreadable file")
	}
	b, _ := os.ReadFile(path)
	if string(b) != "{not json" {
		t.Errorf("file overwritten: %q", b)
	}
}

func TestSQLiteBackend(t *testing.T) {
	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "recipes.db")})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	s := NewSQLite(db)
	t.Cleanup(func() { s.Close() })

	exerciseBackend(t, s)
}

func TestRedisBackend(t *testing.T) {
	addr := os.Getenv("RECIPEHUB_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("RECIPEHUB_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	prefix := "recipehub-test-" + filepath.Base(t.TempDir())
	s := NewRedis(client, prefix)
	t.Cleanup(func() {
		client.Del(context.Background(), prefix+":recipes")
		s.Close()
	})

	exerciseBackend(t, s)
}

func TestOpenDrivers(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	jsonStore, err := Open(ctx, utils.StorageConfig{Driver: "json", JSONPath: filepath.Join(dir, "r.json")}, zap.NewNop())
	if err != nil {
		t.Fatalf("open json: %v", err)
	}
	if _, ok := jsonStore.(*JSONFile); !ok {
		t.Errorf("json driver returned %T", jsonStore)
	}

	sqliteStore, err := Open(ctx, utils.StorageConfig{Driver: "sqlite", SQLitePath: filepath.Join(dir, "r.db")}, zap.NewNop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer sqliteStore.Close()
	if _, ok := sqliteStore.(*SQLite); !ok {
		t.Errorf("sqlite driver returned %T", sqliteStore)
	}

	if _, err := Open(ctx, utils.StorageConfig{Driver: "mongo"}, zap.NewNop()); err == nil {
		t.Error("expected error for unknown driver")
	}
}
