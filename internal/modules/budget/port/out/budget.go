package out

import (
	"context"

	"studywarden/internal/modules/budget/domain"
)

// LedgerStore persists ledger entries. Get returns apperrors.ErrNotFound for a
// day that has no entry yet.
type LedgerStore interface {
	Get(ctx context.Context, profileID, day string) (domain.Entry, error)
	Put(ctx context.Context, entry domain.Entry) error
}

// TierSource reports the tier a profile holds right now.
type TierSource interface {
	CurrentTier(ctx context.Context, profileID string) (string, error)
}
