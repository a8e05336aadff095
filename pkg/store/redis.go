package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores snapshots as plain string values under prefix+id
type Redis struct {
	db     redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// RedisOption configures a Redis store
type RedisOption func(*Redis)

// WithKeyPrefix sets the prefix of every snapshot key
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *Redis) { s.prefix = prefix }
}

// WithTTL expires snapshots after ttl. Zero means no expiration.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *Redis) { s.ttl = ttl }
}

func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	s := &Redis{db: client, prefix: "statechart:"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Redis) key(id string) string {
	return s.prefix + id
}

func (s *Redis) Save(ctx context.Context, id string, data []byte) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := s.db.Set(ctx, s.key(id), data, s.ttl).Err(); err != nil {
		return errors.Join(ErrFailedToSave, err)
	}
	return nil
}

// Load maps redis.Nil to ErrNotFound
func (s *Redis) Load(ctx context.Context, id string) ([]byte, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	data, err := s.db.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrFailedToLoad, err)
	}
	return data, nil
}

func (s *Redis) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := s.db.Del(ctx, s.key(id)).Err(); err != nil {
		return errors.Join(ErrFailedToDelete, err)
	}
	return nil
}

// Close terminates the Redis connection
func (s *Redis) Close() error {
	return s.db.Close()
}
