package in

import (
	"context"

	"studywarden/internal/modules/breaks/dto"
)

type Usecase interface {
	CanBreak(ctx context.Context, input dto.CanBreakInput) (dto.Decision, error)
	RecordBreak(ctx context.Context, profileID, day, kind string) (int, error)
	Counts(ctx context.Context, profileID, day string) (map[string]int, error)
	ObserveStudy(sessionID string, elapsedSeconds, limitSeconds int64) bool
	ResetWatch(sessionID string)
	ObserveAttention(sessionID string, focused, onSeat bool) (dto.Nudge, bool)
	Forget(sessionID string)
}
