package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"recipehub/internal/recipe"
	"recipehub/internal/storage"
	"recipehub/pkg/logging"
	"recipehub/pkg/models"
	"recipehub/pkg/utils"
)

func main() {
	in := flag.String("in", "data/recipes.csv", "input CSV path")
	dryRun := flag.Bool("dry-run", false, "parse and validate only")
	flag.Parse()

	if err := run(*in, *dryRun); err != nil {
		fmt.Fprintf(os.Stderr, "import-csv: %v\n", err)
		os.Exit(1)
	}
}

func run(path string, dryRun bool) error {
	_ = godotenv.Load()
	cfg, err := utils.Load()
	if err != nil {
		return err
	}
	if err := cfg.Storage.Validate(); err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	drafts, err := recipe.ReadCSV(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	if dryRun {
		logger.Info("dry run", zap.String("file", path), zap.Int("rows", len(drafts)))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := storage.Open(ctx, cfg.Storage, logger.Named("storage"))
	if err != nil {
		return err
	}
	defer store.Close()

	repo, err := recipe.NewRepo(ctx, store)
	if err != nil {
		return err
	}

	created, skipped, err := importDrafts(ctx, repo, drafts, logger)
	if err != nil {
		return err
	}

	logger.Info("import finished",
		zap.String("file", path),
		zap.String("driver", cfg.Storage.Driver),
		zap.Int("created", created),
		zap.Int("skipped", skipped),
		zap.Int("total", repo.Len()),
	)
	return nil
}

// importDrafts creates each draft in order. Duplicate and invalid rows are
// skipped and counted; any other error stops the import.
func importDrafts(ctx context.Context, repo *recipe.Repo, drafts []models.Recipe, logger *zap.Logger) (created, skipped int, err error) {
	for _, d := range drafts {
		rec, err := repo.Create(ctx, d)
		var verr *recipe.ValidationError
		switch {
		case err == nil:
			created++
			logger.Debug("imported", zap.String("slug", rec.Slug))
		case errors.Is(err, recipe.ErrDuplicateSlug):
			skipped++
			logger.Info("skipping existing recipe", zap.String("title", d.Title))
		case errors.As(err, &verr):
			skipped++
			logger.Warn("skipping invalid row", zap.String("title", d.Title), zap.Error(err))
		default:
			return created, skipped, fmt.Errorf("import %q: %w", d.Title, err)
		}
	}
	return created, skipped, nil
}
