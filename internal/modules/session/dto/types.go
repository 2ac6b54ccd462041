package dto

import "time"

type StartInput struct {
	ProfileID string
}

type BreakInput struct {
	SessionID string
	Kind      string
}

type BreakOutput struct {
	Kind            string     `json:"kind"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationSeconds int        `json:"duration_seconds"`
}

type AttentionOutput struct {
	Focused    bool      `json:"focused"`
	OnSeat     bool      `json:"on_seat"`
	ObservedAt time.Time `json:"observed_at"`
}

// SessionOutput is the authoritative snapshot clients re-fetch after a
// reconnect and the payload of every session_updated event.
type SessionOutput struct {
	ID             string           `json:"id"`
	ProfileID      string           `json:"profile_id"`
	Status         string           `json:"status"`
	Tier           string           `json:"tier"`
	StartedAt      time.Time        `json:"started_at"`
	EndedAt        *time.Time       `json:"ended_at,omitempty"`
	EndReason      string           `json:"end_reason,omitempty"`
	Breaks         []BreakOutput    `json:"breaks"`
	CurrentBreak   *BreakOutput     `json:"current_break,omitempty"`
	BreakRemaining int64            `json:"break_remaining_seconds,omitempty"`
	StudiedSeconds int64            `json:"studied_seconds"`
	LastAttention  *AttentionOutput `json:"last_attention,omitempty"`
	UpdatedAt      time.Time        `json:"updated_at"`
}
