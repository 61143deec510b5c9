package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"recipehub/pkg/models"
)

// Redis keeps recipes in a single hash: field = slug, value = JSON.
type Redis struct {
	client *redis.Client
	key    string
}

func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "recipehub"
	}
	return &Redis{client: client, key: prefix + ":recipes"}
}

func (s *Redis) LoadAll(ctx context.Context) ([]models.Recipe, error) {
	all, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", s.key, err)
	}

	slugs := make([]string, 0, len(all))
	for slug := range all {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	out := make([]models.Recipe, 0, len(all))
	for _, slug := range slugs {
		var r models.Recipe
		if err := json.Unmarshal([]byte(all[slug]), &r); err != nil {
			return nil, fmt.Errorf("decode recipe %s: %w", slug, err)
		}
		r.Slug = slug
		out = append(out, r)
	}
	return out, nil
}

func (s *Redis) Put(ctx context.Context, r models.Recipe) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode recipe %s: %w", r.Slug, err)
	}
	if err := s.client.HSet(ctx, s.key, r.Slug, data).Err(); err != nil {
		return fmt.Errorf("hset %s: %w", r.Slug, err)
	}
	return nil
}

// Rename runs HDEL and HSET inside MULTI/EXEC.
func (s *Redis) Rename(ctx context.Context, oldSlug string, r models.Recipe) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode recipe %s: %w", r.Slug, err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, s.key, oldSlug)
		pipe.HSet(ctx, s.key, r.Slug, data)
		return nil
	})
	if err != nil {
		return fmt.Errorf("rename %s -> %s: %w", oldSlug, r.Slug, err)
	}
	return nil
}

func (s *Redis) Delete(ctx context.Context, slug string) error {
	if err := s.client.HDel(ctx, s.key, slug).Err(); err != nil {
		return fmt.Errorf("hdel %s: %w", slug, err)
	}
	return nil
}

func (s *Redis) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Redis) Close() error {
	return s.client.Close()
}
