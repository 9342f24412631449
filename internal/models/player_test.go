package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afltools/supercoach-optimizer/internal/supercoach"
)

func validRecord() supercoach.PlayerRecord {
	return supercoach.PlayerRecord{
		ExternalID: "FW1001",
		Name:       "Marcus Bontempelli",
		Club:       "Western Bulldogs",
		Position:   "MID",
		Price:      720000,
		Age:        29,
		AvgScore:   118.4,
		Source:     "footywire",
	}
}

func TestPlayerFromRecord(t *testing.T) {
	player, err := PlayerFromRecord(validRecord())
	require.NoError(t, err)

	assert.Equal(t, "FW1001", player.ExternalID)
	assert.Equal(t, "MID", player.Position)
	assert.Equal(t, int64(720000), player.Price)
	assert.Equal(t, "footywire", player.Source)
}

func TestPlayerFromRecordRejectsMalformedRows(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*supercoach.PlayerRecord)
	}{
		{"missing external id", func(r *supercoach.PlayerRecord) { r.ExternalID = "" }},
		{"unknown position", func(r *supercoach.PlayerRecord) { r.Position = "WING" }},
		{"zero price", func(r *supercoach.PlayerRecord) { r.Price = 0 }},
		{"negative price", func(r *supercoach.PlayerRecord) { r.Price = -5000 }},
		{"NaN score", func(r *supercoach.PlayerRecord) { r.AvgScore = math.NaN() }},
		{"infinite score", func(r *supercoach.PlayerRecord) { r.AvgScore = math.Inf(1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			tt.mutate(&rec)
			_, err := PlayerFromRecord(rec)
			assert.Error(t, err)
		})
	}
}

func TestToCandidateUsesObjective(t *testing.T) {
	player, err := PlayerFromRecord(validRecord())
	require.NoError(t, err)

	c := player.ToCandidate(95.5)
	assert.Equal(t, player.ExternalID, c.ID)
	assert.Equal(t, supercoach.PositionMID, c.Position)
	assert.Equal(t, player.Price, c.Cost)
	assert.InDelta(t, 95.5, c.Score, 1e-9)
}

func TestRecordRoundTrip(t *testing.T) {
	rec := validRecord()
	rec.AvgKicks = 14.2
	rec.AvgTackles = 5.1
	rec.GamesPlayed = 210

	player, err := PlayerFromRecord(rec)
	require.NoError(t, err)

	back := player.ToRecord()
	assert.Equal(t, rec.ExternalID, back.ExternalID)
	assert.Equal(t, rec.Price, back.Price)
	assert.Equal(t, rec.AvgKicks, back.AvgKicks)
	assert.Equal(t, rec.GamesPlayed, back.GamesPlayed)
	assert.Equal(t, rec.Source, back.Source)
}
