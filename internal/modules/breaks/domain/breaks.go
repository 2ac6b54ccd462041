package domain

import (
	"fmt"
	"strings"

	apperrors "studywarden/internal/platform/errors"
)

type Kind string

const (
	KindStretch   Kind = "stretch"
	KindHydration Kind = "hydration"
	KindRestroom  Kind = "restroom"
	KindForced    Kind = "forced"
)

func ParseKind(raw string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(raw)))
	switch kind {
	case KindStretch, KindHydration, KindRestroom, KindForced:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: unknown break kind %q", apperrors.ErrInvalidInput, raw)
	}
}

// Voluntary reports whether the kind is client-requested and subject to caps.
func (k Kind) Voluntary() bool {
	return k != KindForced
}

// Request is the input of a break decision.
type Request struct {
	Kind      Kind
	OpenBreak bool
	Used      int
	Cap       int
	Capped    bool
}

// Decide approves or denies a break. Forced breaks are never capped.
func Decide(r Request) error {
	if r.OpenBreak {
		return apperrors.ErrBreakAlreadyActive
	}
	if r.Kind.Voluntary() && r.Capped && r.Used >= r.Cap {
		return fmt.Errorf("%w: %s used %d of %d today", apperrors.ErrBreakLimitExceeded, r.Kind, r.Used, r.Cap)
	}
	return nil
}

// Watch accumulates continuous on-task seconds and fires once per crossing.
type Watch struct {
	ContinuousSeconds int64
	Fired             bool
}

// Observe adds elapsed seconds and reports whether the limit was crossed by
// this call. A limit of zero disables the watch.
func (w *Watch) Observe(elapsed, limit int64) bool {
	if limit <= 0 || w.Fired || elapsed <= 0 {
		return false
	}
	w.ContinuousSeconds += elapsed
	if w.ContinuousSeconds >= limit {
		w.Fired = true
		return true
	}
	return false
}

func (w *Watch) Reset() {
	w.ContinuousSeconds = 0
	w.Fired = false
}

type NudgeReason string

const (
	NudgeOffSeat    NudgeReason = "off_seat"
	NudgeDistracted NudgeReason = "distracted"
)

// Attention counts consecutive analyses where the child was away or unfocused.
type Attention struct {
	Misses int
	Nudged bool
}

// Observe records one analysis. It returns a reason once the miss streak
// reaches nudgeAfter; the nudge re-arms when attention recovers.
func (a *Attention) Observe(focused, onSeat bool, nudgeAfter int) (NudgeReason, bool) {
	if focused && onSeat {
		a.Misses = 0
		a.Nudged = false
		return "", false
	}
	a.Misses++
	if nudgeAfter <= 0 || a.Nudged || a.Misses < nudgeAfter {
		return "", false
	}
	a.Nudged = true
	if !onSeat {
		return NudgeOffSeat, true
	}
	return NudgeDistracted, true
}
