package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afltools/supercoach-optimizer/internal/supercoach"
)

func squadPlayer(id string, pos supercoach.Position, predicted float64, price int64) Player {
	return Player{
		ExternalID:     id,
		Name:           id,
		Position:       string(pos),
		Price:          price,
		PredictedScore: predicted,
	}
}

func TestDefaultQuotasMatchSquadSize(t *testing.T) {
	quotas := DefaultQuotas()
	assert.Equal(t, 30, quotas.Total())
	assert.Equal(t, 8, quotas[supercoach.PositionDEF])
	assert.Equal(t, 11, quotas[supercoach.PositionMID])
	assert.Equal(t, 3, quotas[supercoach.PositionRUC])
	assert.Equal(t, 8, quotas[supercoach.PositionFWD])
}

func TestOnFieldCountsSumTo22(t *testing.T) {
	total := 0
	for _, n := range OnFieldCounts {
		total += n
	}
	assert.Equal(t, 22, total)
}

func TestPositionQuotasJSONRoundTrip(t *testing.T) {
	quotas := DefaultQuotas()

	value, err := quotas.Value()
	require.NoError(t, err)

	var decoded PositionQuotas
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, quotas, decoded)

	// Postgres hands back []byte, sqlite a string.
	var fromString PositionQuotas
	require.NoError(t, fromString.Scan(string(value.([]byte))))
	assert.Equal(t, quotas, fromString)
}

func TestUnfilledRoundTrip(t *testing.T) {
	squad := &Squad{}
	require.NoError(t, squad.SetUnfilled(map[supercoach.Position]int{
		supercoach.PositionRUC: 2,
	}))

	shortfalls, err := squad.Shortfalls()
	require.NoError(t, err)
	assert.Equal(t, 2, shortfalls[supercoach.PositionRUC])

	empty := &Squad{}
	require.NoError(t, empty.SetUnfilled(nil))
	shortfalls, err = empty.Shortfalls()
	require.NoError(t, err)
	assert.Empty(t, shortfalls)
}

func TestStartingLineupPicksTopScorersPerPosition(t *testing.T) {
	squad := &Squad{}
	// Three rucks: the two best go on field, the worst sits on the bench.
	squad.Players = append(squad.Players,
		squadPlayer("r1", supercoach.PositionRUC, 105, 600000),
		squadPlayer("r2", supercoach.PositionRUC, 88, 450000),
		squadPlayer("r3", supercoach.PositionRUC, 42, 120000),
	)
	for i := 0; i < 8; i++ {
		squad.Players = append(squad.Players,
			squadPlayer(stringID("d", i), supercoach.PositionDEF, float64(60+i), 300000))
	}

	lineup := squad.StartingLineup()

	var rucs, defs []string
	for _, p := range lineup {
		switch p.Position {
		case string(supercoach.PositionRUC):
			rucs = append(rucs, p.ExternalID)
		case string(supercoach.PositionDEF):
			defs = append(defs, p.ExternalID)
		}
	}

	assert.ElementsMatch(t, []string{"r1", "r2"}, rucs)
	assert.Len(t, defs, 6)
	assert.NotContains(t, defs, "d0")
	assert.NotContains(t, defs, "d1")

	bench := squad.BenchPlayers()
	benchIDs := make([]string, 0, len(bench))
	for _, p := range bench {
		benchIDs = append(benchIDs, p.ExternalID)
	}
	assert.ElementsMatch(t, []string{"r3", "d0", "d1"}, benchIDs)
}

func TestStartingLineupTieBreaksOnExternalID(t *testing.T) {
	squad := &Squad{}
	squad.Players = []Player{
		squadPlayer("r2", supercoach.PositionRUC, 90, 500000),
		squadPlayer("r1", supercoach.PositionRUC, 90, 500000),
		squadPlayer("r3", supercoach.PositionRUC, 90, 500000),
	}

	lineup := squad.StartingLineup()
	require.Len(t, lineup, 2)
	assert.Equal(t, "r1", lineup[0].ExternalID)
	assert.Equal(t, "r2", lineup[1].ExternalID)
}

func TestTotalPrice(t *testing.T) {
	squad := &Squad{
		Players: []Player{
			squadPlayer("a", supercoach.PositionMID, 100, 700000),
			squadPlayer("b", supercoach.PositionMID, 90, 300000),
		},
	}
	assert.Equal(t, int64(1000000), squad.TotalPrice())
}

func stringID(prefix string, i int) string {
	return prefix + string(rune('0'+i))
}
