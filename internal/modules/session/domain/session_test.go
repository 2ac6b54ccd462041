package domain_test

import (
	"errors"
	"math/rand"
	"testing"
	"testing/quick"
	"time"

	"studywarden/internal/modules/session/domain"
	apperrors "studywarden/internal/platform/errors"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func startedSession(t *testing.T) domain.Session {
	t.Helper()
	s := domain.New("s1", "kid-1", "free", domain.Tunables{}, t0)
	if err := s.Begin(t0); err != nil {
		t.Fatalf("begin: %v", err)
	}
	return s
}

func TestBreakFromIdleIsInvalidTransition(t *testing.T) {
	t.Parallel()
	s := domain.New("s1", "kid-1", "free", domain.Tunables{}, t0)
	if err := s.StartBreak("hydration", 300, t0); !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestBreakLifecycle(t *testing.T) {
	t.Parallel()
	s := startedSession(t)
	if err := s.StartBreak("stretch", 300, t0.Add(10*time.Minute)); err != nil {
		t.Fatalf("start break: %v", err)
	}
	current, ok := s.CurrentBreak()
	if !ok || current.Kind != "stretch" {
		t.Fatalf("expected open stretch break, got %+v ok=%v", current, ok)
	}
	if current.Due(t0.Add(14 * time.Minute)) {
		t.Fatalf("break must not be due before its duration")
	}
	if !current.Due(t0.Add(15 * time.Minute)) {
		t.Fatalf("break must be due at its duration")
	}
	if err := s.Resume(t0.Add(15 * time.Minute)); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if s.OpenBreak() != -1 || s.Status != domain.StatusStudying {
		t.Fatalf("expected closed break and studying, got %+v", s)
	}
	if got := s.StudiedSeconds(t0.Add(20 * time.Minute)); got != 15*60 {
		t.Fatalf("expected 900 studied seconds, got %d", got)
	}
}

func TestFinishClosesOpenBreakAndIsIdempotent(t *testing.T) {
	t.Parallel()
	s := startedSession(t)
	if err := s.StartBreak("restroom", 300, t0.Add(time.Minute)); err != nil {
		t.Fatalf("start break: %v", err)
	}
	end := t0.Add(2 * time.Minute)
	if err := s.Finish(domain.ReasonStopped, end); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if err := s.Finish(domain.ReasonNoBudgetRemaining, end.Add(time.Hour)); err != nil {
		t.Fatalf("second finish: %v", err)
	}
	if s.EndReason != domain.ReasonStopped || !s.EndedAt.Equal(end) {
		t.Fatalf("second finish must not change the session: %+v", s)
	}
	if s.Breaks[0].EndedAt == nil || !s.Breaks[0].EndedAt.Equal(end) {
		t.Fatalf("expected open break to close at finish")
	}
}

func TestCloneDoesNotShareBreaks(t *testing.T) {
	t.Parallel()
	s := startedSession(t)
	if err := s.StartBreak("stretch", 300, t0); err != nil {
		t.Fatalf("start break: %v", err)
	}
	clone := s.Clone()
	if err := clone.Resume(t0.Add(time.Minute)); err != nil {
		t.Fatalf("resume clone: %v", err)
	}
	if !s.Breaks[0].Open() {
		t.Fatalf("mutating a clone leaked into the original")
	}
}

// Any command sequence leaves at most one open break, and only while in break.
func TestAtMostOneOpenBreakProperty(t *testing.T) {
	t.Parallel()
	kinds := []string{"stretch", "hydration", "restroom", domain.KindForced}
	property := func(seed int64, length uint8) bool {
		rng := rand.New(rand.NewSource(seed))
		s := domain.New("s1", "kid-1", "free", domain.Tunables{}, t0)
		now := t0
		for i := 0; i < int(length); i++ {
			now = now.Add(time.Duration(rng.Intn(120)) * time.Second)
			switch rng.Intn(5) {
			case 0:
				_ = s.Begin(now)
			case 1:
				_ = s.StartBreak(kinds[rng.Intn(len(kinds))], 300, now)
			case 2:
				_ = s.Resume(now)
			case 3:
				_ = s.Finish(domain.ReasonStopped, now)
			case 4:
				s.Observe(rng.Intn(2) == 0, rng.Intn(2) == 0, now)
			}
			open := 0
			for _, b := range s.Breaks {
				if b.Open() {
					open++
				}
			}
			if open > 1 {
				return false
			}
			if (open == 1) != (s.Status == domain.StatusBreak) {
				return false
			}
		}
		return true
	}
	if err := quick.Check(property, &quick.Config{MaxCount: 500}); err != nil {
		t.Fatalf("property violated: %v", err)
	}
}
