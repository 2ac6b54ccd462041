package service

import (
	"studywarden/internal/modules/progression/domain"
	"studywarden/internal/platform/config"
)

// ProgressionService maps scores onto the live stage thresholds. It holds no
// stage state, so a threshold change is reflected on the next read.
type ProgressionService struct {
	policy *config.PolicyStore
}

func NewProgressionService(policy *config.PolicyStore) *ProgressionService {
	return &ProgressionService{policy: policy}
}

func (s *ProgressionService) Thresholds() []domain.Threshold {
	stages := s.policy.Current().Stages
	out := make([]domain.Threshold, 0, len(stages))
	for _, stage := range stages {
		out = append(out, domain.Threshold{Name: stage.Name, MinScore: stage.MinScore})
	}
	return out
}

func (s *ProgressionService) Stage(score float64) domain.Stage {
	return domain.CurrentStage(score, s.Thresholds())
}

// Compare returns the transition between two scores under one threshold
// snapshot, or nil when both map to the same stage.
func (s *ProgressionService) Compare(before, after float64) *domain.Transition {
	thresholds := s.Thresholds()
	from := domain.CurrentStage(before, thresholds)
	to := domain.CurrentStage(after, thresholds)
	if from.Index == to.Index {
		return nil
	}
	return &domain.Transition{From: from, To: to}
}
