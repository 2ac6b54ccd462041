package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"studywarden/internal/modules/budget/domain"
	budgetout "studywarden/internal/modules/budget/port/out"
	apperrors "studywarden/internal/platform/errors"
	"studywarden/internal/platform/tx"
)

type SQLiteLedgerStore struct {
	db *sql.DB
}

func NewSQLiteLedgerStore(db *sql.DB) (budgetout.LedgerStore, error) {
	store := &SQLiteLedgerStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteLedgerStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS budget_ledger (
  profile_id TEXT NOT NULL,
  day TEXT NOT NULL,
  allowed_seconds INTEGER NOT NULL,
  consumed_seconds INTEGER NOT NULL,
  updated_at TEXT NOT NULL,
  PRIMARY KEY (profile_id, day)
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create budget_ledger table: %w", err)
	}
	return nil
}

func (s *SQLiteLedgerStore) Get(ctx context.Context, profileID, day string) (domain.Entry, error) {
	const query = `SELECT allowed_seconds, consumed_seconds, updated_at FROM budget_ledger WHERE profile_id = ? AND day = ?`
	entry := domain.Entry{ProfileID: profileID, Day: day}
	var updated string
	err := tx.From(ctx, s.db).QueryRowContext(ctx, query, profileID, day).Scan(&entry.AllowedSeconds, &entry.ConsumedSeconds, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Entry{}, apperrors.ErrNotFound
	}
	if err != nil {
		return domain.Entry{}, fmt.Errorf("%w: load ledger entry: %v", apperrors.ErrPersistenceFailure, err)
	}
	entry.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return entry, nil
}

func (s *SQLiteLedgerStore) Put(ctx context.Context, entry domain.Entry) error {
	const stmt = `
INSERT INTO budget_ledger (profile_id, day, allowed_seconds, consumed_seconds, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(profile_id, day) DO UPDATE SET
  allowed_seconds=excluded.allowed_seconds,
  consumed_seconds=excluded.consumed_seconds,
  updated_at=excluded.updated_at;
`
	_, err := tx.From(ctx, s.db).ExecContext(ctx, stmt,
		entry.ProfileID,
		entry.Day,
		entry.AllowedSeconds,
		entry.ConsumedSeconds,
		entry.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("%w: save ledger entry: %v", apperrors.ErrPersistenceFailure, err)
	}
	return nil
}
