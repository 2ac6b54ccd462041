package dto

import "time"

type Kind string

const (
	KindSessionUpdated       Kind = "session_updated"
	KindRemainingTimeUpdated Kind = "remaining_time_updated"
	KindForcedBreak          Kind = "forced_break_notification"
	KindConfigUpdated        Kind = "config_updated"
	KindStageChanged         Kind = "stage_changed"
	KindAttentionNudge       Kind = "attention_nudge"
)

// Event is one best-effort realtime notification. Payload holds the value for
// Kind (a session snapshot, budget view, notice, ...).
type Event struct {
	Kind       Kind      `json:"kind"`
	ProfileID  string    `json:"profile_id,omitempty"`
	SessionID  string    `json:"session_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload,omitempty"`
}

type ForcedBreakNotice struct {
	Message         string `json:"message"`
	DurationSeconds int    `json:"duration_seconds"`
}

type ConfigNotice struct {
	Sections []string `json:"sections"`
}

type AttentionNotice struct {
	Reason string `json:"reason"`
	Misses int    `json:"misses"`
}
