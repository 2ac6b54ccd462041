package domain

import (
	"fmt"
	"strings"
	"time"
)

// Profile is a monitored child's persistent record. The progression stage is
// derived from Score on every read and never stored.
type Profile struct {
	ID         string
	GuardianID string
	Name       string
	Tier       string
	Score      float64
	Tunables   Tunables
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Tunables are guardian-set overrides. Zero values inherit the policy defaults.
type Tunables struct {
	ContinuousLimitSeconds int            `json:"continuous_limit_seconds,omitempty"`
	ForcedBreakSeconds     int            `json:"forced_break_seconds,omitempty"`
	BreakCaps              map[string]int `json:"break_caps,omitempty"`
}

func (p Profile) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("profile id is required")
	}
	if strings.TrimSpace(p.GuardianID) == "" {
		return fmt.Errorf("guardian id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("profile name is required")
	}
	if p.Score < 0 {
		return fmt.Errorf("score must be non-negative")
	}
	return p.Tunables.Validate()
}

func (t Tunables) Validate() error {
	if t.ContinuousLimitSeconds < 0 {
		return fmt.Errorf("continuous limit must be non-negative")
	}
	if t.ForcedBreakSeconds < 0 {
		return fmt.Errorf("forced break duration must be non-negative")
	}
	for kind, limit := range t.BreakCaps {
		if limit < 0 {
			return fmt.Errorf("break cap %s must be non-negative", kind)
		}
	}
	return nil
}
