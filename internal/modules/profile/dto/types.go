package dto

import "time"

type CreateInput struct {
	GuardianID string
	Name       string
	Tier       string
}

// SettingsInput carries a partial update; nil fields are left unchanged.
type SettingsInput struct {
	ProfileID              string
	Tier                   *string
	ContinuousLimitSeconds *int
	ForcedBreakSeconds     *int
	BreakCaps              map[string]int
}

type ProfileOutput struct {
	ID                     string         `json:"id"`
	GuardianID             string         `json:"guardian_id"`
	Name                   string         `json:"name"`
	Tier                   string         `json:"tier"`
	Score                  float64        `json:"score"`
	ContinuousLimitSeconds int            `json:"continuous_limit_seconds"`
	ForcedBreakSeconds     int            `json:"forced_break_seconds"`
	BreakCaps              map[string]int `json:"break_caps,omitempty"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
}

type ScoreOutput struct {
	ProfileID string
	Before    float64
	After     float64
}
