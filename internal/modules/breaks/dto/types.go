package dto

type CanBreakInput struct {
	ProfileID string
	Day       string
	Kind      string
	OpenBreak bool
	// Caps overrides the policy caps per kind for this profile.
	Caps map[string]int
	// ForcedSeconds overrides the policy forced-break duration when positive.
	ForcedSeconds int
}

type Decision struct {
	Kind            string `json:"kind"`
	DurationSeconds int    `json:"duration_seconds"`
}

type Nudge struct {
	Reason string `json:"reason"`
	Misses int    `json:"misses"`
}
