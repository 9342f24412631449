package providers

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afltools/supercoach-optimizer/internal/supercoach"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func TestSampleProviderIsDeterministic(t *testing.T) {
	first, err := NewSampleProvider(100, testLogger()).GetPlayers(2025)
	require.NoError(t, err)
	second, err := NewSampleProvider(100, testLogger()).GetPlayers(2025)
	require.NoError(t, err)

	assert.Len(t, first, 100)
	for i := range first {
		// LastUpdated is wall-clock; everything else must match run to run.
		first[i].LastUpdated = second[i].LastUpdated
	}
	assert.Equal(t, first, second)
}

func TestSampleProviderProducesValidRecords(t *testing.T) {
	records, err := NewSampleProvider(300, testLogger()).GetPlayers(2025)
	require.NoError(t, err)

	seen := make(map[string]bool, len(records))
	counts := make(map[supercoach.Position]int)
	cheap := 0
	for _, rec := range records {
		assert.False(t, seen[rec.ExternalID], "duplicate id %s", rec.ExternalID)
		seen[rec.ExternalID] = true

		pos, err := supercoach.ParsePosition(rec.Position)
		require.NoError(t, err)
		counts[pos]++

		assert.GreaterOrEqual(t, rec.Price, int64(102400))
		assert.LessOrEqual(t, rec.Price, int64(800000))
		assert.Equal(t, "synthetic", rec.Source)
		assert.NotEmpty(t, rec.Name)
		assert.NotEmpty(t, rec.Club)

		if rec.Price < 200000 {
			cheap++
		}
	}

	// Every position must be represented well past its quota.
	for _, pos := range supercoach.Positions {
		assert.Greater(t, counts[pos], 15, "position %s underrepresented", pos)
	}

	// The pool needs a basement-priced tail or a full squad can't fit the cap.
	assert.Greater(t, cheap, 20)
}

func TestSampleProviderDefaultsPoolSize(t *testing.T) {
	records, err := NewSampleProvider(0, testLogger()).GetPlayers(2025)
	require.NoError(t, err)
	assert.Len(t, records, 450)
}
