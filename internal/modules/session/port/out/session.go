package out

import (
	"context"

	"studywarden/internal/modules/session/domain"
)

type SessionStore interface {
	// Save inserts or replaces the session.
	Save(ctx context.Context, session domain.Session) error
	Get(ctx context.Context, id string) (domain.Session, error)
	LatestForProfile(ctx context.Context, profileID string) (domain.Session, error)
	ListUnfinished(ctx context.Context) ([]domain.Session, error)
}
