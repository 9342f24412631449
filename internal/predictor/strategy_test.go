package predictor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afltools/supercoach-optimizer/internal/models"
	"github.com/afltools/supercoach-optimizer/internal/supercoach"
)

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		input   string
		want    Strategy
		wantErr bool
	}{
		{"score", StrategyScore, false},
		{"value", StrategyValue, false},
		{"balanced", StrategyBalanced, false},
		{"", StrategyBalanced, false},
		{"yolo", "", true},
		{"SCORE", "", true},
	}

	for _, tt := range tests {
		got, err := ParseStrategy(tt.input)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.input)
			continue
		}
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got)
	}
}

func TestObjectivePerStrategy(t *testing.T) {
	p := models.Player{
		PredictedScore: 100,
		AdjustedValue:  40,
	}

	assert.InDelta(t, 100.0, StrategyScore.Objective(&p), 1e-9)
	assert.InDelta(t, 40.0, StrategyValue.Objective(&p), 1e-9)
	assert.InDelta(t, 100*0.7+40*0.3, StrategyBalanced.Objective(&p), 1e-9)
}

func TestBuildCandidatesCarriesPlayerIdentity(t *testing.T) {
	players := []models.Player{
		{
			ExternalID:     "P0001",
			Name:           "Sam Walsh",
			Club:           "Carlton",
			Position:       string(supercoach.PositionMID),
			Price:          650000,
			Source:         "footywire",
			PredictedScore: 110,
			AdjustedValue:  20,
		},
	}

	candidates := StrategyScore.BuildCandidates(players)
	require.Len(t, candidates, 1)

	c := candidates[0]
	assert.Equal(t, "P0001", c.ID)
	assert.Equal(t, supercoach.PositionMID, c.Position)
	assert.Equal(t, int64(650000), c.Cost)
	assert.InDelta(t, 110.0, c.Score, 1e-9)
	assert.Equal(t, "footywire", c.Source)
}
