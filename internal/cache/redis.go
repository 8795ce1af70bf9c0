package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/skiniq/internal/config"
)

// KeyPrefix общий префикс ключей админки в Redis; Clear удаляет только их.
const KeyPrefix = "skiniq:admin:"

// Redis кеш админки, общий для нескольких инстансов.
type Redis struct {
	Db         *redis.Client
	defaultTTL time.Duration
}

// InitServer подключается к Redis и проверяет соединение.
func InitServer(ctx context.Context, cfg config.RedisConnection, defaultTTL time.Duration) (*Redis, error) {
	const op = "cache.InitServer"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Redis{Db: db, defaultTTL: defaultTTL}, nil
}

func (c *Redis) Get(ctx context.Context, key string, result any) (bool, error) {
	const op = "cache.Redis.Get"
	val, err := c.Db.Get(ctx, KeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err := json.Unmarshal(val, result); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

func (c *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	const op = "cache.Redis.Set"
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if err := c.Db.Set(ctx, KeyPrefix+key, jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *Redis) Delete(ctx context.Context, key string) error {
	const op = "cache.Redis.Delete"
	if err := c.Db.Del(ctx, KeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Clear удаляет все ключи с KeyPrefix.
func (c *Redis) Clear(ctx context.Context) error {
	const op = "cache.Redis.Clear"
	iter := c.Db.Scan(ctx, 0, KeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.Db.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает клиент.
func (c *Redis) Close() error {
	return c.Db.Close()
}
