package out

import (
	"context"

	"studywarden/internal/modules/analysis/domain"
	"studywarden/internal/platform/clock"
)

// StaticAnalyzer reports every frame as focused and seated. It stands in when
// no analyzer binary is configured.
type StaticAnalyzer struct {
	Clock     clock.Clock
	CostUnits float64
}

func (a StaticAnalyzer) Analyze(ctx context.Context, frame domain.Frame) (domain.Result, error) {
	if err := ctx.Err(); err != nil {
		return domain.Result{}, err
	}
	return domain.Result{Focused: true, OnSeat: true, CostUnits: a.CostUnits, AnalyzedAt: a.Clock.Now()}, nil
}

func (StaticAnalyzer) Close() error { return nil }
