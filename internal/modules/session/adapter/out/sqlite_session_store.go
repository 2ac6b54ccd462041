package out

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"studywarden/internal/modules/session/domain"
	sessionout "studywarden/internal/modules/session/port/out"
	apperrors "studywarden/internal/platform/errors"
	"studywarden/internal/platform/tx"
)

type SQLiteSessionStore struct {
	db *sql.DB
}

func NewSQLiteSessionStore(db *sql.DB) (sessionout.SessionStore, error) {
	store := &SQLiteSessionStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteSessionStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  profile_id TEXT NOT NULL,
  status TEXT NOT NULL,
  tier TEXT NOT NULL,
  tunables TEXT NOT NULL,
  started_at TEXT NOT NULL,
  ended_at TEXT,
  end_reason TEXT NOT NULL DEFAULT '',
  breaks TEXT NOT NULL,
  last_attention TEXT,
  updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_profile ON sessions(profile_id, started_at);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}
	return nil
}

const sessionColumns = `id, profile_id, status, tier, tunables, started_at, ended_at, end_reason, breaks, last_attention, updated_at`

func (s *SQLiteSessionStore) Save(ctx context.Context, session domain.Session) error {
	tunables, err := json.Marshal(session.Tunables)
	if err != nil {
		return fmt.Errorf("encode tunables: %w", err)
	}
	breaks, err := json.Marshal(session.Breaks)
	if err != nil {
		return fmt.Errorf("encode breaks: %w", err)
	}
	var attention sql.NullString
	if session.LastAttention != nil {
		raw, err := json.Marshal(session.LastAttention)
		if err != nil {
			return fmt.Errorf("encode attention: %w", err)
		}
		attention = sql.NullString{String: string(raw), Valid: true}
	}
	const stmt = `INSERT INTO sessions (` + sessionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  status = excluded.status,
  tunables = excluded.tunables,
  ended_at = excluded.ended_at,
  end_reason = excluded.end_reason,
  breaks = excluded.breaks,
  last_attention = excluded.last_attention,
  updated_at = excluded.updated_at`
	_, err = tx.From(ctx, s.db).ExecContext(ctx, stmt,
		session.ID,
		session.ProfileID,
		string(session.Status),
		session.Tier,
		string(tunables),
		formatTime(session.StartedAt),
		formatOptionalTime(session.EndedAt),
		string(session.EndReason),
		string(breaks),
		attention,
		formatTime(session.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("%w: save session: %v", apperrors.ErrPersistenceFailure, err)
	}
	return nil
}

func (s *SQLiteSessionStore) Get(ctx context.Context, id string) (domain.Session, error) {
	row := tx.From(ctx, s.db).QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, fmt.Errorf("%w: session %s", apperrors.ErrNotFound, id)
	}
	return session, err
}

func (s *SQLiteSessionStore) LatestForProfile(ctx context.Context, profileID string) (domain.Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM sessions WHERE profile_id = ? ORDER BY started_at DESC, updated_at DESC LIMIT 1`
	session, err := scanSession(tx.From(ctx, s.db).QueryRowContext(ctx, query, profileID))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, fmt.Errorf("%w: no session for profile %s", apperrors.ErrNotFound, profileID)
	}
	return session, err
}

func (s *SQLiteSessionStore) ListUnfinished(ctx context.Context) ([]domain.Session, error) {
	rows, err := tx.From(ctx, s.db).QueryContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE status != ? ORDER BY started_at`, string(domain.StatusFinished))
	if err != nil {
		return nil, fmt.Errorf("%w: list sessions: %v", apperrors.ErrPersistenceFailure, err)
	}
	defer rows.Close()
	out := []domain.Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate sessions: %v", apperrors.ErrPersistenceFailure, err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (domain.Session, error) {
	var (
		session          domain.Session
		status, reason   string
		tunables, breaks string
		started, updated string
		ended, attention sql.NullString
	)
	err := row.Scan(
		&session.ID,
		&session.ProfileID,
		&status,
		&session.Tier,
		&tunables,
		&started,
		&ended,
		&reason,
		&breaks,
		&attention,
		&updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, err
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: load session: %v", apperrors.ErrPersistenceFailure, err)
	}
	session.Status = domain.Status(status)
	session.EndReason = domain.EndReason(reason)
	if err := json.Unmarshal([]byte(tunables), &session.Tunables); err != nil {
		return domain.Session{}, fmt.Errorf("decode tunables: %w", err)
	}
	if err := json.Unmarshal([]byte(breaks), &session.Breaks); err != nil {
		return domain.Session{}, fmt.Errorf("decode breaks: %w", err)
	}
	if attention.Valid {
		session.LastAttention = &domain.Attention{}
		if err := json.Unmarshal([]byte(attention.String), session.LastAttention); err != nil {
			return domain.Session{}, fmt.Errorf("decode attention: %w", err)
		}
	}
	session.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	session.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	if ended.Valid {
		t, err := time.Parse(time.RFC3339Nano, ended.String)
		if err == nil {
			session.EndedAt = &t
		}
	}
	return session, nil
}

// timeLayout is fixed width so text columns sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatOptionalTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}
