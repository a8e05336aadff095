package store

import (
	"context"
	"fmt"
	"io"

	"github.com/anggasct/statechart/pkg/config"
)

// Backend is a Store owning a connection
type Backend interface {
	Store
	io.Closer
}

// Open connects the store selected by cfg.StoreDriver
func Open(ctx context.Context, cfg config.App, opts ConnectOptions) (Backend, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory, "":
		return NewMemory(), nil

	case config.StoreRedis:
		client, err := ConnectRedis(ctx, cfg.RedisURL, opts)
		if err != nil {
			return nil, err
		}
		return NewRedis(client, WithKeyPrefix(cfg.KeyPrefix)), nil

	case config.StorePostgres:
		pool, err := ConnectPostgres(ctx, cfg.PostgresURL, opts)
		if err != nil {
			return nil, err
		}
		s, err := NewPostgres(pool, cfg.PostgresTable)
		if err == nil {
			err = s.Migrate(ctx)
		}
		if err != nil {
			pool.Close()
			return nil, err
		}
		return s, nil

	case config.StoreMongo:
		client, err := ConnectMongo(ctx, cfg.MongoURL, opts)
		if err != nil {
			return nil, err
		}
		coll := client.Database(cfg.MongoDatabase).Collection(collectionName(cfg.KeyPrefix))
		return NewMongo(coll), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.StoreDriver)
}

// collectionName derives the snapshot collection from the key prefix,
// "statechart:" becoming "statechart_snapshots"
func collectionName(prefix string) string {
	name := make([]byte, 0, len(prefix)+len("_snapshots"))
	for i := 0; i < len(prefix); i++ {
		c := prefix[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			name = append(name, c)
		}
	}
	if len(name) == 0 {
		name = append(name, "statechart"...)
	}
	return string(name) + "_snapshots"
}
