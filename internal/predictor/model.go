package predictor

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/afltools/supercoach-optimizer/internal/models"
	"github.com/afltools/supercoach-optimizer/internal/supercoach"
)

// statOrder fixes the feature vector layout for fitting and prediction.
var statOrder = []string{"kicks", "handballs", "marks", "tackles", "goals", "behinds", "hitouts"}

// Model is a versioned, read-only per-stat linear scoring model. It is
// passed explicitly to whoever needs predictions; there is no process-wide
// model state.
type Model struct {
	Version   string             `json:"version"`
	Intercept float64            `json:"intercept"`
	Weights   map[string]float64 `json:"weights"`
	FittedAt  time.Time          `json:"fitted_at"`
}

// Fallback returns the model built from the official SuperCoach scoring
// weights. Used when the pool is too small to fit, or a fit is degenerate.
func Fallback() *Model {
	weights := make(map[string]float64, len(supercoach.ScoringWeights))
	for stat, w := range supercoach.ScoringWeights {
		weights[stat] = w
	}
	return &Model{
		Version:  "scoring-weights-v1",
		Weights:  weights,
		FittedAt: time.Time{},
	}
}

// Fit estimates per-stat weights by ordinary least squares against each
// player's historical average score. Falls back to the official scoring
// weights when the system is underdetermined or the solve fails.
func Fit(players []models.Player) (*Model, error) {
	cols := len(statOrder) + 1 // intercept column
	if len(players) < cols {
		return Fallback(), nil
	}

	x := mat.NewDense(len(players), cols, nil)
	y := mat.NewDense(len(players), 1, nil)
	for i, p := range players {
		x.Set(i, 0, 1)
		for j, v := range statVector(&p) {
			x.Set(i, j+1, v)
		}
		y.Set(i, 0, p.AvgScore)
	}

	var qr mat.QR
	qr.Factorize(x)
	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, y); err != nil {
		return Fallback(), nil
	}

	weights := make(map[string]float64, len(statOrder))
	for j, stat := range statOrder {
		w := beta.At(j+1, 0)
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return Fallback(), nil
		}
		weights[stat] = w
	}

	return &Model{
		Version:   fmt.Sprintf("ols-%d", time.Now().Year()),
		Intercept: beta.At(0, 0),
		Weights:   weights,
		FittedAt:  time.Now().UTC(),
	}, nil
}

// PredictScore projects a player's round score from season averages.
func (m *Model) PredictScore(p *models.Player) float64 {
	score := m.Intercept
	for j, stat := range statOrder {
		score += m.Weights[stat] * statVector(p)[j]
	}
	if score < 0 {
		score = 0
	}
	return score
}

// ScorePool fills PredictedScore, ValueScore and AdjustedValue on every
// player. Players are updated in place; the model itself never changes.
func (m *Model) ScorePool(players []models.Player) {
	for i := range players {
		p := &players[i]
		p.PredictedScore = m.PredictScore(p)
		if p.Price > 0 {
			// Points per $100k, the SuperCoach community's value unit.
			p.ValueScore = p.PredictedScore / float64(p.Price) * 100000
		}
		p.AdjustedValue = p.ValueScore * riskFactor(p) * upsideFactor(p)
	}
}

// riskFactor discounts injury-prone players, clamped so a long history never
// zeroes a player out entirely.
func riskFactor(p *models.Player) float64 {
	risk := 1.0 - 0.1*float64(p.InjuryHistory)
	if risk < 0.5 {
		risk = 0.5
	}
	if risk > 1.0 {
		risk = 1.0
	}
	if p.GamesLast3 == 0 {
		risk *= 0.9
	}
	return risk
}

// upsideFactor boosts young players still on a development curve.
func upsideFactor(p *models.Player) float64 {
	switch {
	case p.Age <= 20:
		return 1.25
	case p.Age <= 23:
		return 1.15
	default:
		return 1.0
	}
}

func statVector(p *models.Player) [7]float64 {
	return [7]float64{
		p.AvgKicks,
		p.AvgHandballs,
		p.AvgMarks,
		p.AvgTackles,
		p.AvgGoals,
		p.AvgBehinds,
		p.AvgHitouts,
	}
}
