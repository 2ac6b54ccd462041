package service

import (
	"context"
	"sync"

	"studywarden/internal/modules/breaks/domain"
	breaksout "studywarden/internal/modules/breaks/port/out"
	"studywarden/internal/platform/config"
)

// ArbiterService gates voluntary breaks and tracks the per-session watches
// that originate forced breaks and attention nudges.
type ArbiterService struct {
	policy *config.PolicyStore
	store  breaksout.CountStore

	mu        sync.Mutex
	watches   map[string]*domain.Watch
	attention map[string]*domain.Attention
}

func NewArbiterService(policy *config.PolicyStore, store breaksout.CountStore) *ArbiterService {
	return &ArbiterService{
		policy:    policy,
		store:     store,
		watches:   map[string]*domain.Watch{},
		attention: map[string]*domain.Attention{},
	}
}

// Decide returns the fixed duration for an approved break. Every voluntary
// kind shares one duration.
func (s *ArbiterService) Decide(ctx context.Context, profileID, day string, kind domain.Kind, openBreak bool, caps map[string]int, forcedSeconds int) (int, error) {
	policy := s.policy.Current()
	req := domain.Request{Kind: kind, OpenBreak: openBreak}
	if kind.Voluntary() && !openBreak {
		limit, capped := caps[string(kind)]
		if !capped {
			limit, capped = policy.BreakCap(string(kind))
		}
		req.Cap, req.Capped = limit, capped
		if capped {
			counts, err := s.store.Counts(ctx, profileID, day)
			if err != nil {
				return 0, err
			}
			req.Used = counts[string(kind)]
		}
	}
	if err := domain.Decide(req); err != nil {
		return 0, err
	}
	if kind == domain.KindForced {
		if forcedSeconds > 0 {
			return forcedSeconds, nil
		}
		return policy.Breaks.ForcedSeconds, nil
	}
	return policy.Breaks.VoluntarySeconds, nil
}

func (s *ArbiterService) Record(ctx context.Context, profileID, day string, kind domain.Kind) (int, error) {
	return s.store.Increment(ctx, profileID, day, string(kind))
}

func (s *ArbiterService) Counts(ctx context.Context, profileID, day string) (map[string]int, error) {
	return s.store.Counts(ctx, profileID, day)
}

func (s *ArbiterService) ObserveStudy(sessionID string, elapsed, limit int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	watch, ok := s.watches[sessionID]
	if !ok {
		watch = &domain.Watch{}
		s.watches[sessionID] = watch
	}
	return watch.Observe(elapsed, limit)
}

func (s *ArbiterService) ResetWatch(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if watch, ok := s.watches[sessionID]; ok {
		watch.Reset()
	}
}

func (s *ArbiterService) ObserveAttention(sessionID string, focused, onSeat bool) (domain.NudgeReason, int, bool) {
	nudgeAfter := s.policy.Current().Attention.NudgeAfter
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.attention[sessionID]
	if !ok {
		state = &domain.Attention{}
		s.attention[sessionID] = state
	}
	reason, nudge := state.Observe(focused, onSeat, nudgeAfter)
	return reason, state.Misses, nudge
}

func (s *ArbiterService) Forget(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.watches, sessionID)
	delete(s.attention, sessionID)
}
