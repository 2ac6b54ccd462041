package in

import (
	"context"

	"studywarden/internal/modules/analysis/dto"
)

type Usecase interface {
	Start(ctx context.Context, input dto.StartInput) error
	// Stop cancels the session's scheduler. The returned channel is closed once
	// its loop and any in-flight analysis have exited.
	Stop(sessionID string) <-chan struct{}
	Running(sessionID string) bool
	PushFrame(ctx context.Context, input dto.FrameInput) error
}
