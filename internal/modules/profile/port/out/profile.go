package out

import (
	"context"

	"studywarden/internal/modules/profile/domain"
)

// ProfileStore persists profiles. Get returns apperrors.ErrNotFound for unknown ids.
type ProfileStore interface {
	Insert(ctx context.Context, profile domain.Profile) error
	Get(ctx context.Context, id string) (domain.Profile, error)
	Update(ctx context.Context, profile domain.Profile) error
}
