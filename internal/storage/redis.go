package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

// RedisKV is a KV backed by plain Redis strings under a namespace prefix.
type RedisKV struct {
	client    *redis.Client
	namespace string
}

// NewRedisKV connects to the Redis server at url (redis://host:port/db).
func NewRedisKV(url, namespace string) (*RedisKV, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return NewRedisKVWithClient(redis.NewClient(opts), namespace), nil
}

// NewRedisKVWithClient wraps an existing client.
func NewRedisKVWithClient(client *redis.Client, namespace string) *RedisKV {
	return &RedisKV{client: client, namespace: namespace}
}

// Ping checks connectivity.
func (r *RedisKV) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("pinging redis: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (r *RedisKV) Close() error {
	return r.client.Close()
}

func (r *RedisKV) key(k string) string {
	return r.namespace + k
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting record %q: %w", key, err)
	}
	return v, nil
}

func (r *RedisKV) Put(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("putting record %q: %w", key, err)
	}
	return nil
}

func (r *RedisKV) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("deleting record %q: %w", key, err)
	}
	return nil
}

func (r *RedisKV) List(ctx context.Context, prefix string) ([]Entry, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.key(prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning records %q: %w", prefix, err)
	}
	sort.Strings(keys)

	entries := []Entry{}
	if len(keys) == 0 {
		return entries, nil
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("loading records %q: %w", prefix, err)
	}
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			// Deleted between SCAN and MGET.
			continue
		}
		entries = append(entries, Entry{Key: keys[i][len(r.namespace):], Value: []byte(s)})
	}
	return entries, nil
}
