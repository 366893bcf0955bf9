package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Backend persists gateway collections as plain redis strings, one key per
// logical collection. It is the primary backend in the gateway's fallback
// order; values live without TTL because history must outlast sessions.
type Backend struct {
	client *redis.Client
	prefix string
}

func NewBackend(client *redis.Client, prefix string) *Backend {
	return &Backend{client: client, prefix: prefix}
}

func (b *Backend) Name() string { return "redis" }

func (b *Backend) Read(ctx context.Context, key string) ([]byte, error) {
	value, err := b.client.Get(ctx, b.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (b *Backend) Write(ctx context.Context, key string, value []byte) error {
	return b.client.Set(ctx, b.key(key), value, 0).Err()
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	return b.client.Del(ctx, b.key(key)).Err()
}

func (b *Backend) key(key string) string {
	if b.prefix == "" {
		return key
	}
	return b.prefix + ":" + key
}
