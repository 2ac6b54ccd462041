package out

import (
	"context"
	"database/sql"
	"fmt"

	breaksout "studywarden/internal/modules/breaks/port/out"
	apperrors "studywarden/internal/platform/errors"
	"studywarden/internal/platform/tx"
)

type SQLiteCountStore struct {
	db *sql.DB
}

func NewSQLiteCountStore(db *sql.DB) (breaksout.CountStore, error) {
	store := &SQLiteCountStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteCountStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS break_counts (
  profile_id TEXT NOT NULL,
  day TEXT NOT NULL,
  kind TEXT NOT NULL,
  count INTEGER NOT NULL,
  PRIMARY KEY (profile_id, day, kind)
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create break_counts table: %w", err)
	}
	return nil
}

func (s *SQLiteCountStore) Counts(ctx context.Context, profileID, day string) (map[string]int, error) {
	rows, err := tx.From(ctx, s.db).QueryContext(ctx, `SELECT kind, count FROM break_counts WHERE profile_id = ? AND day = ?`, profileID, day)
	if err != nil {
		return nil, fmt.Errorf("%w: query break counts: %v", apperrors.ErrPersistenceFailure, err)
	}
	defer rows.Close()
	counts := map[string]int{}
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("%w: scan break count: %v", apperrors.ErrPersistenceFailure, err)
		}
		counts[kind] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate break counts: %v", apperrors.ErrPersistenceFailure, err)
	}
	return counts, nil
}

func (s *SQLiteCountStore) Increment(ctx context.Context, profileID, day, kind string) (int, error) {
	const stmt = `
INSERT INTO break_counts (profile_id, day, kind, count) VALUES (?, ?, ?, 1)
ON CONFLICT(profile_id, day, kind) DO UPDATE SET count = count + 1
RETURNING count;
`
	var count int
	if err := tx.From(ctx, s.db).QueryRowContext(ctx, stmt, profileID, day, kind).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: increment break count: %v", apperrors.ErrPersistenceFailure, err)
	}
	return count, nil
}
