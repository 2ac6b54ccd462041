package dto

import (
	"context"
	"time"
)

type Result struct {
	Focused    bool      `json:"focused"`
	OnSeat     bool      `json:"on_seat"`
	CostUnits  float64   `json:"cost_units"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// ResultHandler receives each successful analysis. ctx is cancelled once the
// session's scheduler has been stopped.
type ResultHandler func(ctx context.Context, sessionID string, result Result)

type StartInput struct {
	SessionID string
	ProfileID string
	Interval  time.Duration
	Handler   ResultHandler
}

type FrameInput struct {
	SessionID string
	Image     []byte
}
