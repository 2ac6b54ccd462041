package service

import (
	"context"
	"fmt"
	"strings"

	"studywarden/internal/modules/profile/domain"
	profileout "studywarden/internal/modules/profile/port/out"
	"studywarden/internal/platform/clock"
	apperrors "studywarden/internal/platform/errors"
	"studywarden/internal/platform/id"
	"studywarden/internal/platform/tx"
)

type ProfileService struct {
	clock clock.Clock
	idGen id.Generator
	store profileout.ProfileStore
	tx    tx.Manager
}

func NewProfileService(clk clock.Clock, idGen id.Generator, store profileout.ProfileStore, txm tx.Manager) *ProfileService {
	if txm == nil {
		txm = tx.NoopManager{}
	}
	return &ProfileService{clock: clk, idGen: idGen, store: store, tx: txm}
}

func (s *ProfileService) Create(ctx context.Context, guardianID, name, tier string) (domain.Profile, error) {
	now := s.clock.Now()
	profile := domain.Profile{
		ID:         s.idGen.New(),
		GuardianID: strings.TrimSpace(guardianID),
		Name:       strings.TrimSpace(name),
		Tier:       strings.TrimSpace(tier),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := profile.Validate(); err != nil {
		return domain.Profile{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	if err := s.store.Insert(ctx, profile); err != nil {
		return domain.Profile{}, err
	}
	return profile, nil
}

func (s *ProfileService) Get(ctx context.Context, profileID string) (domain.Profile, error) {
	return s.store.Get(ctx, profileID)
}

// Update applies mutate to the stored profile inside one transaction.
func (s *ProfileService) Update(ctx context.Context, profileID string, mutate func(*domain.Profile) error) (domain.Profile, error) {
	var out domain.Profile
	err := s.tx.Within(ctx, func(ctx context.Context) error {
		profile, err := s.store.Get(ctx, profileID)
		if err != nil {
			return err
		}
		if err := mutate(&profile); err != nil {
			return err
		}
		if err := profile.Validate(); err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
		}
		profile.UpdatedAt = s.clock.Now()
		if err := s.store.Update(ctx, profile); err != nil {
			return err
		}
		out = profile
		return nil
	})
	return out, err
}

// AddScore increases the score; the score never decreases here.
func (s *ProfileService) AddScore(ctx context.Context, profileID string, amount float64) (before, after float64, err error) {
	if amount < 0 {
		return 0, 0, fmt.Errorf("%w: score amount must be non-negative", apperrors.ErrInvalidInput)
	}
	_, err = s.Update(ctx, profileID, func(p *domain.Profile) error {
		before = p.Score
		p.Score += amount
		after = p.Score
		return nil
	})
	return before, after, err
}
