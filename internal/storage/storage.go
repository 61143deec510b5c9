package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"recipehub/pkg/database"
	"recipehub/pkg/models"
	"recipehub/pkg/utils"
)

// Backend is a recipe store plus lifecycle hooks for the server.
type Backend interface {
	LoadAll(ctx context.Context) ([]models.Recipe, error)
	Put(ctx context.Context, r models.Recipe) error
	Rename(ctx context.Context, oldSlug string, r models.Recipe) error
	Delete(ctx context.Context, slug string) error
	Ping(ctx context.Context) error
	Close() error
}

// Open returns the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg utils.StorageConfig, logger *zap.Logger) (Backend, error) {
	switch cfg.Driver {
	case "json":
		logger.Info("recipe storage", zap.String("driver", "json"), zap.String("path", cfg.JSONPath))
		return NewJSONFile(cfg.JSONPath), nil

	case "sqlite":
		db, err := database.Open(database.Config{Path: cfg.SQLitePath})
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.Info("recipe storage", zap.String("driver", "sqlite"), zap.String("path", cfg.SQLitePath))
		return NewSQLite(db), nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
		}
		logger.Info("recipe storage", zap.String("driver", "redis"), zap.String("addr", cfg.RedisAddr))
		return NewRedis(client, cfg.RedisPrefix), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
