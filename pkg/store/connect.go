package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ConnectOptions controls the connection retries of the Connect helpers
type ConnectOptions struct {
	RetryAttempts  int
	RetryInterval  time.Duration
	ConnectTimeout time.Duration
}

// DefaultConnectOptions returns three attempts, one second apart, within 30s
func DefaultConnectOptions() ConnectOptions {
	return ConnectOptions{
		RetryAttempts:  3,
		RetryInterval:  time.Second,
		ConnectTimeout: 30 * time.Second,
	}
}

// retry calls fn until it succeeds, the attempts are exhausted or ctx is done.
// Attempt n waits n*RetryInterval before the next one; a zero ConnectTimeout
// leaves ctx without a deadline.
func retry(ctx context.Context, opts ConnectOptions, fn func(ctx context.Context) error) error {
	if opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.ConnectTimeout)
		defer cancel()
	}

	attempts := max(opts.RetryAttempts, 1)
	var lastErr error
	for i := range attempts {
		if lastErr = fn(ctx); lastErr == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return errors.Join(ErrNotReady, ctx.Err(), lastErr)
		case <-time.After(time.Duration(i+1) * opts.RetryInterval):
		}
	}
	return errors.Join(ErrNotReady, lastErr)
}

// ConnectRedis parses url and pings the server until it answers
func ConnectRedis(ctx context.Context, url string, opts ConnectOptions) (*redis.Client, error) {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis connection url: %w", err)
	}

	var client *redis.Client
	err = retry(ctx, opts, func(ctx context.Context) error {
		c := redis.NewClient(redisOpts)
		if err := c.Ping(ctx).Err(); err != nil {
			_ = c.Close()
			return err
		}
		client = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// ConnectPostgres opens a pgx pool and pings the database until it answers
func ConnectPostgres(ctx context.Context, url string, opts ConnectOptions) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres connection url: %w", err)
	}

	var pool *pgxpool.Pool
	err = retry(ctx, opts, func(ctx context.Context) error {
		p, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// ConnectMongo connects a client and pings the deployment until it answers
func ConnectMongo(ctx context.Context, url string, opts ConnectOptions) (*mongo.Client, error) {
	var client *mongo.Client
	err := retry(ctx, opts, func(ctx context.Context) error {
		clientOpts := options.Client().ApplyURI(url)
		if opts.ConnectTimeout > 0 {
			clientOpts.SetConnectTimeout(opts.ConnectTimeout)
		}
		c, err := mongo.Connect(clientOpts)
		if err != nil {
			return err
		}
		if err := c.Ping(ctx, nil); err != nil {
			_ = c.Disconnect(context.Background())
			return err
		}
		client = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}
