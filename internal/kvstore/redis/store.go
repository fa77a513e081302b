// Package redis implements kvstore.Store on plain Redis string keys, for
// pointing several demo processes at one shared substrate.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/akulikov-dev/localchat/internal/errs"
	"github.com/akulikov-dev/localchat/internal/kvstore"
)

// Store is the Redis-backed implementation. Values never expire: the host
// storage being modeled has no TTL notion.
type Store struct{ client *redis.Client }

// New connects to the Redis instance at url and verifies the connection.
func New(ctx context.Context, url string) (*Store, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Store{client: client}, nil
}

// Close releases the client's connections.
func (s *Store) Close() error { return s.client.Close() }

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", errs.ErrNotFound
		}
		return "", err
	}
	return v, nil
}

// Set writes value under key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, key, value, 0).Err()
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

var _ kvstore.Store = (*Store)(nil)
