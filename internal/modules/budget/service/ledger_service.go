package service

import (
	"context"
	"errors"
	"fmt"

	"studywarden/internal/modules/budget/domain"
	budgetout "studywarden/internal/modules/budget/port/out"
	"studywarden/internal/platform/clock"
	"studywarden/internal/platform/config"
	apperrors "studywarden/internal/platform/errors"
	"studywarden/internal/platform/tx"
)

type LedgerService struct {
	clock  clock.Clock
	policy *config.PolicyStore
	store  budgetout.LedgerStore
	tx     tx.Manager
	tiers  budgetout.TierSource
}

func NewLedgerService(clk clock.Clock, policy *config.PolicyStore, store budgetout.LedgerStore, txm tx.Manager) *LedgerService {
	if txm == nil {
		txm = tx.NoopManager{}
	}
	return &LedgerService{clock: clk, policy: policy, store: store, tx: txm}
}

// WithTiers makes new day entries take the profile's current tier instead of
// the tier the caller passes.
func (s *LedgerService) WithTiers(tiers budgetout.TierSource) *LedgerService {
	s.tiers = tiers
	return s
}

// Allowance is the daily allowance for tier under the live policy.
func (s *LedgerService) Allowance(tier string) int64 {
	return s.policy.Current().Tier(tier).AllowanceSeconds
}

// Today returns the current day's entry, creating it on first use. The
// allowance is fixed when the entry is created; a tier change mid-day applies
// from the next day's entry. tier is used only without a TierSource.
func (s *LedgerService) Today(ctx context.Context, profileID, tier string) (domain.Entry, error) {
	if profileID == "" {
		return domain.Entry{}, fmt.Errorf("%w: profile id is required", apperrors.ErrInvalidInput)
	}
	now := s.clock.Now()
	day := s.policy.Current().Day(now)
	entry, err := s.store.Get(ctx, profileID, day)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return domain.Entry{}, err
	}
	if s.tiers != nil {
		if tier, err = s.tiers.CurrentTier(ctx, profileID); err != nil {
			return domain.Entry{}, fmt.Errorf("resolve tier for %s: %w", profileID, err)
		}
	}
	entry = domain.NewEntry(profileID, day, s.Allowance(tier), now)
	if err := s.store.Put(ctx, entry); err != nil {
		return domain.Entry{}, err
	}
	return entry, nil
}

func (s *LedgerService) Consume(ctx context.Context, profileID, tier string, seconds int64) (domain.Entry, error) {
	if seconds < 0 {
		return domain.Entry{}, fmt.Errorf("%w: seconds must be non-negative", apperrors.ErrInvalidInput)
	}
	var out domain.Entry
	err := s.tx.Within(ctx, func(ctx context.Context) error {
		entry, err := s.Today(ctx, profileID, tier)
		if err != nil {
			return err
		}
		if seconds == 0 {
			out = entry
			return nil
		}
		entry = entry.Consume(seconds, s.clock.Now())
		if err := s.store.Put(ctx, entry); err != nil {
			return err
		}
		out = entry
		return nil
	})
	if err != nil {
		return domain.Entry{}, err
	}
	return out, nil
}
