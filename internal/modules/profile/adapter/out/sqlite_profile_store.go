package out

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"studywarden/internal/modules/profile/domain"
	profileout "studywarden/internal/modules/profile/port/out"
	apperrors "studywarden/internal/platform/errors"
	"studywarden/internal/platform/tx"
)

type SQLiteProfileStore struct {
	db *sql.DB
}

func NewSQLiteProfileStore(db *sql.DB) (profileout.ProfileStore, error) {
	store := &SQLiteProfileStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteProfileStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS profiles (
  id TEXT PRIMARY KEY,
  guardian_id TEXT NOT NULL,
  name TEXT NOT NULL,
  tier TEXT NOT NULL,
  score REAL NOT NULL DEFAULT 0,
  tunables TEXT NOT NULL,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create profiles table: %w", err)
	}
	return nil
}

func (s *SQLiteProfileStore) Insert(ctx context.Context, profile domain.Profile) error {
	tunables, err := json.Marshal(profile.Tunables)
	if err != nil {
		return fmt.Errorf("encode tunables: %w", err)
	}
	const stmt = `INSERT INTO profiles (id, guardian_id, name, tier, score, tunables, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.From(ctx, s.db).ExecContext(ctx, stmt,
		profile.ID,
		profile.GuardianID,
		profile.Name,
		profile.Tier,
		profile.Score,
		string(tunables),
		profile.CreatedAt.UTC().Format(time.RFC3339Nano),
		profile.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("%w: insert profile: %v", apperrors.ErrPersistenceFailure, err)
	}
	return nil
}

func (s *SQLiteProfileStore) Get(ctx context.Context, id string) (domain.Profile, error) {
	const query = `SELECT id, guardian_id, name, tier, score, tunables, created_at, updated_at FROM profiles WHERE id = ?`
	var (
		profile          domain.Profile
		tunables         string
		created, updated string
	)
	err := tx.From(ctx, s.db).QueryRowContext(ctx, query, id).Scan(
		&profile.ID,
		&profile.GuardianID,
		&profile.Name,
		&profile.Tier,
		&profile.Score,
		&tunables,
		&created,
		&updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Profile{}, fmt.Errorf("%w: profile %s", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("%w: load profile: %v", apperrors.ErrPersistenceFailure, err)
	}
	if err := json.Unmarshal([]byte(tunables), &profile.Tunables); err != nil {
		return domain.Profile{}, fmt.Errorf("decode tunables: %w", err)
	}
	profile.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	profile.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return profile, nil
}

func (s *SQLiteProfileStore) Update(ctx context.Context, profile domain.Profile) error {
	tunables, err := json.Marshal(profile.Tunables)
	if err != nil {
		return fmt.Errorf("encode tunables: %w", err)
	}
	const stmt = `UPDATE profiles SET name = ?, tier = ?, score = ?, tunables = ?, updated_at = ? WHERE id = ?`
	res, err := tx.From(ctx, s.db).ExecContext(ctx, stmt,
		profile.Name,
		profile.Tier,
		profile.Score,
		string(tunables),
		profile.UpdatedAt.UTC().Format(time.RFC3339Nano),
		profile.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: update profile: %v", apperrors.ErrPersistenceFailure, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: profile %s", apperrors.ErrNotFound, profile.ID)
	}
	return nil
}
