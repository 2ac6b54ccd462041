package in

import (
	"context"

	sessiondto "studywarden/internal/modules/session/dto"
)

type Usecase interface {
	Start(ctx context.Context, input sessiondto.StartInput) (sessiondto.SessionOutput, error)
	Stop(ctx context.Context, sessionID string) (sessiondto.SessionOutput, error)
	RequestBreak(ctx context.Context, input sessiondto.BreakInput) (sessiondto.SessionOutput, error)
	Resume(ctx context.Context, sessionID string) (sessiondto.SessionOutput, error)
	Snapshot(ctx context.Context, sessionID string) (sessiondto.SessionOutput, error)
	// Active returns the profile's non-terminal session, or its most recent one.
	Active(ctx context.Context, profileID string) (sessiondto.SessionOutput, error)
}
