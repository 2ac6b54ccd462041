package service

import (
	"time"

	"studywarden/internal/modules/session/domain"
	sessiondto "studywarden/internal/modules/session/dto"
)

// ToOutput renders the snapshot of session as seen at now.
func ToOutput(session domain.Session, now time.Time) sessiondto.SessionOutput {
	out := sessiondto.SessionOutput{
		ID:             session.ID,
		ProfileID:      session.ProfileID,
		Status:         string(session.Status),
		Tier:           session.Tier,
		StartedAt:      session.StartedAt,
		EndReason:      string(session.EndReason),
		Breaks:         make([]sessiondto.BreakOutput, 0, len(session.Breaks)),
		StudiedSeconds: session.StudiedSeconds(now),
		UpdatedAt:      session.UpdatedAt,
	}
	if session.EndedAt != nil {
		ended := *session.EndedAt
		out.EndedAt = &ended
	}
	for _, b := range session.Breaks {
		out.Breaks = append(out.Breaks, toBreakOutput(b))
	}
	if current, ok := session.CurrentBreak(); ok {
		view := toBreakOutput(current)
		out.CurrentBreak = &view
		left := current.StartedAt.Add(time.Duration(current.DurationSeconds) * time.Second).Sub(now)
		if left > 0 {
			out.BreakRemaining = int64((left + time.Second - 1) / time.Second)
		}
	}
	if session.LastAttention != nil {
		out.LastAttention = &sessiondto.AttentionOutput{
			Focused:    session.LastAttention.Focused,
			OnSeat:     session.LastAttention.OnSeat,
			ObservedAt: session.LastAttention.ObservedAt,
		}
	}
	return out
}

func toBreakOutput(b domain.BreakInterval) sessiondto.BreakOutput {
	out := sessiondto.BreakOutput{Kind: b.Kind, StartedAt: b.StartedAt, DurationSeconds: b.DurationSeconds}
	if b.EndedAt != nil {
		ended := *b.EndedAt
		out.EndedAt = &ended
	}
	return out
}
