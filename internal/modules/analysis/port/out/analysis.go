package out

import (
	"context"

	"studywarden/internal/modules/analysis/domain"
)

// Analyzer is the external vision collaborator.
type Analyzer interface {
	Analyze(ctx context.Context, frame domain.Frame) (domain.Result, error)
	Close() error
}

// FrameBuffer holds the most recent frame per session.
type FrameBuffer interface {
	Put(frame domain.Frame)
	// Take removes and returns the latest frame so a frame is analyzed at most once.
	Take(sessionID string) (domain.Frame, bool)
	Drop(sessionID string)
}
