package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"recipehub/internal/recipe"
	"recipehub/internal/storage"
	"recipehub/pkg/logging"
	"recipehub/pkg/utils"
)

func main() {
	out := flag.String("out", "data/recipes_export.csv", "output CSV path ('-' for stdout)")
	category := flag.String("category", "", "only export this category")
	flag.Parse()

	if err := run(*out, *category); err != nil {
		fmt.Fprintf(os.Stderr, "export-csv: %v\n", err)
		os.Exit(1)
	}
}

func run(path, category string) error {
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

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
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
	items, _ := repo.List(recipe.ListQuery{Category: category})

	var w io.Writer = os.Stdout
	if path != "-" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	if err := recipe.WriteCSV(w, items); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	logger.Info("export finished", zap.String("file", path), zap.Int("recipes", len(items)))
	return nil
}
