package domain

import (
	"fmt"
	"time"

	apperrors "studywarden/internal/platform/errors"
)

type Status string

const (
	StatusIdle     Status = "idle"
	StatusStudying Status = "studying"
	StatusBreak    Status = "break"
	StatusFinished Status = "finished"
)

func (s Status) Terminal() bool {
	return s == StatusFinished
}

// Active reports whether the status holds the profile's single session slot.
func (s Status) Active() bool {
	return s == StatusStudying || s == StatusBreak
}

type EndReason string

const (
	ReasonStopped             EndReason = "stopped"
	ReasonNoBudgetRemaining   EndReason = "no_budget_remaining"
	ReasonOutsideAllowedHours EndReason = "outside_allowed_hours"
	ReasonInterrupted         EndReason = "interrupted"
)

const KindForced = "forced"

type BreakInterval struct {
	Kind            string     `json:"kind"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationSeconds int        `json:"duration_seconds"`
}

func (b BreakInterval) Open() bool {
	return b.EndedAt == nil
}

// Due reports whether the break has run its fixed duration at now.
func (b BreakInterval) Due(now time.Time) bool {
	return b.Open() && !now.Before(b.StartedAt.Add(time.Duration(b.DurationSeconds)*time.Second))
}

type Tunables struct {
	ContinuousLimitSeconds int            `json:"continuous_limit_seconds,omitempty"`
	ForcedBreakSeconds     int            `json:"forced_break_seconds,omitempty"`
	BreakCaps              map[string]int `json:"break_caps,omitempty"`
}

type Attention struct {
	Focused    bool      `json:"focused"`
	OnSeat     bool      `json:"on_seat"`
	ObservedAt time.Time `json:"observed_at"`
}

// Session is one supervised study attempt with its embedded break history.
type Session struct {
	ID            string
	ProfileID     string
	Status        Status
	Tier          string
	Tunables      Tunables
	StartedAt     time.Time
	EndedAt       *time.Time
	EndReason     EndReason
	Breaks        []BreakInterval
	LastAttention *Attention
	UpdatedAt     time.Time
}

func New(id, profileID, tier string, tunables Tunables, now time.Time) Session {
	return Session{
		ID:        id,
		ProfileID: profileID,
		Status:    StatusIdle,
		Tier:      tier,
		Tunables:  tunables,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy so a mutation can be staged and discarded.
func (s Session) Clone() Session {
	out := s
	if s.EndedAt != nil {
		ended := *s.EndedAt
		out.EndedAt = &ended
	}
	if s.LastAttention != nil {
		attention := *s.LastAttention
		out.LastAttention = &attention
	}
	if s.Tunables.BreakCaps != nil {
		out.Tunables.BreakCaps = make(map[string]int, len(s.Tunables.BreakCaps))
		for k, v := range s.Tunables.BreakCaps {
			out.Tunables.BreakCaps[k] = v
		}
	}
	out.Breaks = make([]BreakInterval, len(s.Breaks))
	for i, b := range s.Breaks {
		if b.EndedAt != nil {
			ended := *b.EndedAt
			b.EndedAt = &ended
		}
		out.Breaks[i] = b
	}
	return out
}

// OpenBreak returns the index of the open break interval, or -1.
func (s Session) OpenBreak() int {
	for i := len(s.Breaks) - 1; i >= 0; i-- {
		if s.Breaks[i].Open() {
			return i
		}
	}
	return -1
}

func (s Session) CurrentBreak() (BreakInterval, bool) {
	idx := s.OpenBreak()
	if idx < 0 {
		return BreakInterval{}, false
	}
	return s.Breaks[idx], true
}

func (s *Session) Begin(now time.Time) error {
	if s.Status != StatusIdle {
		return fmt.Errorf("%w: cannot start from %s", apperrors.ErrInvalidTransition, s.Status)
	}
	s.Status = StatusStudying
	s.StartedAt = now
	s.UpdatedAt = now
	return nil
}

func (s *Session) StartBreak(kind string, durationSeconds int, now time.Time) error {
	if s.Status != StatusStudying {
		return fmt.Errorf("%w: cannot break from %s", apperrors.ErrInvalidTransition, s.Status)
	}
	if s.OpenBreak() >= 0 {
		return apperrors.ErrBreakAlreadyActive
	}
	if durationSeconds <= 0 {
		return fmt.Errorf("%w: break duration must be positive", apperrors.ErrInvalidInput)
	}
	s.Breaks = append(s.Breaks, BreakInterval{Kind: kind, StartedAt: now, DurationSeconds: durationSeconds})
	s.Status = StatusBreak
	s.UpdatedAt = now
	return nil
}

func (s *Session) Resume(now time.Time) error {
	if s.Status != StatusBreak {
		return fmt.Errorf("%w: cannot resume from %s", apperrors.ErrInvalidTransition, s.Status)
	}
	s.closeBreak(now)
	s.Status = StatusStudying
	s.UpdatedAt = now
	return nil
}

// Finish ends the session. Finishing a finished session changes nothing.
func (s *Session) Finish(reason EndReason, now time.Time) error {
	switch s.Status {
	case StatusFinished:
		return nil
	case StatusIdle:
		return fmt.Errorf("%w: session was never started", apperrors.ErrInvalidTransition)
	}
	s.end(reason, now)
	return nil
}

func (s *Session) end(reason EndReason, now time.Time) {
	s.closeBreak(now)
	ended := now
	s.EndedAt = &ended
	s.EndReason = reason
	s.Status = StatusFinished
	s.UpdatedAt = now
}

// Interrupt ends a session from any non-terminal status, idle included.
func (s *Session) Interrupt(now time.Time) {
	if s.Status == StatusFinished {
		return
	}
	s.end(ReasonInterrupted, now)
}

func (s *Session) Observe(focused, onSeat bool, now time.Time) {
	s.LastAttention = &Attention{Focused: focused, OnSeat: onSeat, ObservedAt: now}
	s.UpdatedAt = now
}

func (s *Session) closeBreak(now time.Time) {
	if idx := s.OpenBreak(); idx >= 0 {
		ended := now
		s.Breaks[idx].EndedAt = &ended
	}
}

// StudiedSeconds is wall time spent studying up to now, excluding breaks.
func (s Session) StudiedSeconds(now time.Time) int64 {
	if s.StartedAt.IsZero() {
		return 0
	}
	end := now
	if s.EndedAt != nil {
		end = *s.EndedAt
	}
	total := end.Sub(s.StartedAt)
	for _, b := range s.Breaks {
		stop := end
		if b.EndedAt != nil {
			stop = *b.EndedAt
		}
		total -= stop.Sub(b.StartedAt)
	}
	if total < 0 {
		return 0
	}
	return int64(total / time.Second)
}
