package predictor

import (
	"fmt"

	"github.com/afltools/supercoach-optimizer/internal/models"
	"github.com/afltools/supercoach-optimizer/internal/optimizer"
)

// Strategy picks the objective the allocator ranks candidates by.
type Strategy string

const (
	// StrategyScore ranks purely on projected points.
	StrategyScore Strategy = "score"
	// StrategyValue ranks on risk- and upside-adjusted points per dollar.
	StrategyValue Strategy = "value"
	// StrategyBalanced blends the two, weighted toward raw points.
	StrategyBalanced Strategy = "balanced"
)

// ParseStrategy validates a strategy name, defaulting to balanced for "".
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyScore, StrategyValue, StrategyBalanced:
		return Strategy(s), nil
	case "":
		return StrategyBalanced, nil
	}
	return "", fmt.Errorf("unknown strategy %q", s)
}

// Objective computes the allocator score for a player under this strategy.
func (s Strategy) Objective(p *models.Player) float64 {
	switch s {
	case StrategyScore:
		return p.PredictedScore
	case StrategyValue:
		return p.AdjustedValue
	default:
		return p.PredictedScore*0.7 + p.AdjustedValue*0.3
	}
}

// BuildCandidates converts a scored pool into allocator candidates under the
// given strategy.
func (s Strategy) BuildCandidates(players []models.Player) []optimizer.Candidate {
	candidates := make([]optimizer.Candidate, 0, len(players))
	for i := range players {
		candidates = append(candidates, players[i].ToCandidate(s.Objective(&players[i])))
	}
	return candidates
}
