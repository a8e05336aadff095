package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Postgres stores snapshots in a table with the columns
// id text primary key, data bytea, updated_at timestamptz
type Postgres struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgres returns a store using table. Call Migrate to create it.
func NewPostgres(pool *pgxpool.Pool, table string) (*Postgres, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}
	return &Postgres{pool: pool, table: pgx.Identifier{table}.Sanitize()}, nil
}

// Migrate creates the snapshot table if it does not exist
func (s *Postgres) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+s.table+` (
		id         TEXT PRIMARY KEY,
		data       BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	if err != nil {
		return fmt.Errorf("failed to create snapshot table: %w", err)
	}
	return nil
}

func (s *Postgres) Save(ctx context.Context, id string, data []byte) error {
	if err := checkID(id); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO `+s.table+` (id, data, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`, id, data)
	if err != nil {
		return errors.Join(ErrFailedToSave, err)
	}
	return nil
}

func (s *Postgres) Load(ctx context.Context, id string) ([]byte, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM `+s.table+` WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrFailedToLoad, err)
	}
	return data, nil
}

func (s *Postgres) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM `+s.table+` WHERE id = $1`, id); err != nil {
		return errors.Join(ErrFailedToDelete, err)
	}
	return nil
}

// Close closes the connection pool
func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}
