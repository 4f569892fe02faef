package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/segmentlens/pkg/models"
)

// PostgresStore implements PreferenceStore using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) GetPreference(ctx context.Context, clientID, key string) (*models.Preference, error) {
	var p models.Preference
	err := s.pool.QueryRow(ctx,
		`SELECT client_id, key, value, updated_at FROM preferences WHERE client_id = $1 AND key = $2`,
		clientID, key,
	).Scan(&p.ClientID, &p.Key, &p.Value, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get preference: %w", err)
	}
	return &p, nil
}

// SetPreference inserts or replaces a preference and fills in UpdatedAt.
func (s *PostgresStore) SetPreference(ctx context.Context, pref *models.Preference) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO preferences (client_id, key, value, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (client_id, key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = NOW()
		 RETURNING updated_at`,
		pref.ClientID, pref.Key, pref.Value,
	).Scan(&pref.UpdatedAt)
	if err != nil {
		return fmt.Errorf("set preference: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeletePreference(ctx context.Context, clientID, key string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM preferences WHERE client_id = $1 AND key = $2`, clientID, key)
	if err != nil {
		return fmt.Errorf("delete preference: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Compile-time check that PostgresStore implements PreferenceStore.
var _ PreferenceStore = (*PostgresStore)(nil)
