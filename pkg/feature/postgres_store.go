package feature

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/humanyze/flagkit/pkg/pg"
)

// PostgresStore is a Store implementation on top of a pgx connection pool.
// Duplicate keys are enforced by the primary key on feature_flags and
// override upserts ride on ON CONFLICT, so this store stays correct even
// with multiple registry instances writing concurrently.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed flag store.
// Panics if pool is nil to fail fast during initialization.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("feature: pgx pool is required")
	}
	return &PostgresStore{pool: pool}
}

const flagColumns = `key, name, description, enabled, min_subscription_tier,
	percentage_rollout, start_date, end_date, metadata, created_at, updated_at`

// GetFlag returns the flag with the given key.
func (s *PostgresStore) GetFlag(ctx context.Context, key string) (*Flag, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+flagColumns+` FROM feature_flags WHERE key = $1`, key)
	return scanFlag(row)
}

// ListFlags returns all flag definitions.
func (s *PostgresStore) ListFlags(ctx context.Context) ([]*Flag, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+flagColumns+` FROM feature_flags`)
	if err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}
	defer rows.Close()

	var flags []*Flag
	for rows.Next() {
		flag, err := scanFlag(rows)
		if err != nil {
			return nil, err
		}
		flags = append(flags, flag)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}
	return flags, nil
}

// InsertFlag stores a new flag, mapping the unique-key violation to
// ErrDuplicateKey.
func (s *PostgresStore) InsertFlag(ctx context.Context, flag *Flag) error {
	metadata, err := json.Marshal(flag.Metadata)
	if err != nil {
		return errors.Join(ErrStoreFailure, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO feature_flags (`+flagColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		flag.Key, flag.Name, flag.Description, flag.Enabled, tierParam(flag.MinTier),
		flag.PercentageRollout, flag.StartAt, flag.EndAt, metadata,
		flag.CreatedAt, flag.UpdatedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}

// UpdateFlag replaces an existing flag's mutable fields.
func (s *PostgresStore) UpdateFlag(ctx context.Context, flag *Flag) error {
	metadata, err := json.Marshal(flag.Metadata)
	if err != nil {
		return errors.Join(ErrStoreFailure, err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE feature_flags SET
			name = $2, description = $3, enabled = $4, min_subscription_tier = $5,
			percentage_rollout = $6, start_date = $7, end_date = $8,
			metadata = $9, updated_at = $10
		WHERE key = $1`,
		flag.Key, flag.Name, flag.Description, flag.Enabled, tierParam(flag.MinTier),
		flag.PercentageRollout, flag.StartAt, flag.EndAt, metadata, flag.UpdatedAt)
	if err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFlagNotFound
	}
	return nil
}

// DeleteFlag removes a flag definition.
func (s *PostgresStore) DeleteFlag(ctx context.Context, key string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM feature_flags WHERE key = $1`, key)
	if err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFlagNotFound
	}
	return nil
}

// GetOverride returns the override for the (flag, user) pair.
func (s *PostgresStore) GetOverride(ctx context.Context, flagKey, userID string) (*Override, error) {
	var o Override
	err := s.pool.QueryRow(ctx, `
		SELECT flag_key, user_id, enabled, created_at, updated_at
		FROM feature_overrides WHERE flag_key = $1 AND user_id = $2`,
		flagKey, userID).
		Scan(&o.FlagKey, &o.UserID, &o.Enabled, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrOverrideNotFound
		}
		return nil, errors.Join(ErrStoreFailure, err)
	}
	return &o, nil
}

// UpsertOverride inserts or updates the override for the pair, preserving
// the original created_at on update.
func (s *PostgresStore) UpsertOverride(ctx context.Context, o *Override) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO feature_overrides (flag_key, user_id, enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (flag_key, user_id)
		DO UPDATE SET enabled = EXCLUDED.enabled, updated_at = EXCLUDED.updated_at`,
		o.FlagKey, o.UserID, o.Enabled, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}

// DeleteOverride removes the override for the pair.
func (s *PostgresStore) DeleteOverride(ctx context.Context, flagKey, userID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM feature_overrides WHERE flag_key = $1 AND user_id = $2`,
		flagKey, userID)
	if err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOverrideNotFound
	}
	return nil
}

// DeleteOverridesForFlag removes every override for a flag key.
func (s *PostgresStore) DeleteOverridesForFlag(ctx context.Context, flagKey string) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM feature_overrides WHERE flag_key = $1`, flagKey)
	if err != nil {
		return 0, errors.Join(ErrStoreFailure, err)
	}
	return int(tag.RowsAffected()), nil
}

func tierParam(t *Tier) *string {
	if t == nil {
		return nil
	}
	s := string(*t)
	return &s
}

func scanFlag(row pgx.Row) (*Flag, error) {
	var (
		flag     Flag
		minTier  *string
		metadata []byte
		startAt  *time.Time
		endAt    *time.Time
	)
	err := row.Scan(&flag.Key, &flag.Name, &flag.Description, &flag.Enabled,
		&minTier, &flag.PercentageRollout, &startAt, &endAt, &metadata,
		&flag.CreatedAt, &flag.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrFlagNotFound
		}
		return nil, errors.Join(ErrStoreFailure, err)
	}

	if minTier != nil {
		tier := Tier(*minTier)
		flag.MinTier = &tier
	}
	flag.StartAt = startAt
	flag.EndAt = endAt
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &flag.Metadata); err != nil {
			return nil, errors.Join(ErrStoreFailure, err)
		}
	}
	return &flag, nil
}
