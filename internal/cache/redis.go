package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisClient struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(addr, password string, db int, ttl time.Duration) *RedisClient {
	c := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisClient{client: c, ttl: ttl}
}

func (r *RedisClient) Ping(ctx context.Context) error { return r.client.Ping(ctx).Err() }

func (r *RedisClient) Close() error { return r.client.Close() }

func (r *RedisClient) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(val, dest)
}

func (r *RedisClient) SetJSON(ctx context.Context, key string, value interface{}) error {
	return r.SetJSONTTL(ctx, key, value, r.ttl)
}

func (r *RedisClient) SetJSONTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, b, ttl).Err()
}

func (r *RedisClient) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
