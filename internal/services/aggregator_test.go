package services

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afltools/supercoach-optimizer/internal/supercoach"
)

type stubProvider struct {
	name    string
	records []supercoach.PlayerRecord
	err     error
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) GetPlayers(season int) ([]supercoach.PlayerRecord, error) {
	return p.records, p.err
}

func record(id string, pos string, price int64, source string) supercoach.PlayerRecord {
	return supercoach.PlayerRecord{
		ExternalID: id,
		Name:       "Player " + id,
		Club:       "Essendon",
		Position:   pos,
		Price:      price,
		AvgScore:   80,
		Source:     source,
	}
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func newTestAggregator(providers []supercoach.Provider, fallback supercoach.Provider) *PoolAggregator {
	return NewPoolAggregator(nil, NewCacheService(nil), testLogger(), providers, fallback)
}

func TestCollectPoolValidatesAndCounts(t *testing.T) {
	primary := &stubProvider{name: "footywire", records: []supercoach.PlayerRecord{
		record("A1", "MID", 500000, "footywire"),
		record("A2", "RUC", 400000, "footywire"),
		record("A3", "WING", 300000, "footywire"), // unknown position
		record("A4", "FWD", 0, "footywire"),       // free player
	}}

	pool, err := newTestAggregator([]supercoach.Provider{primary}, nil).CollectPool(2025)
	require.NoError(t, err)

	assert.Len(t, pool.Players, 2)
	assert.Len(t, pool.Warnings, 2)
	assert.Equal(t, 2, pool.Sources["footywire"])

	reasons := pool.Warnings[0].Reason + " " + pool.Warnings[1].Reason
	assert.Contains(t, reasons, "position")
	assert.Contains(t, reasons, "price")
}

func TestCollectPoolMergesWithProviderPrecedence(t *testing.T) {
	primary := &stubProvider{name: "footywire", records: []supercoach.PlayerRecord{
		record("X1", "MID", 600000, "footywire"),
	}}
	secondary := &stubProvider{name: "csv", records: []supercoach.PlayerRecord{
		record("X1", "MID", 100000, "csv"), // same player, must lose to primary
		record("X2", "DEF", 350000, "csv"),
	}}

	pool, err := newTestAggregator([]supercoach.Provider{primary, secondary}, nil).CollectPool(2025)
	require.NoError(t, err)

	require.Len(t, pool.Players, 2)
	byID := make(map[string]int64)
	for _, p := range pool.Players {
		byID[p.ExternalID] = p.Price
	}
	assert.Equal(t, int64(600000), byID["X1"])
	assert.Equal(t, int64(350000), byID["X2"])
	assert.Equal(t, 1, pool.Sources["footywire"])
	assert.Equal(t, 1, pool.Sources["csv"])
}

func TestCollectPoolFallsBackWhenAllProvidersFail(t *testing.T) {
	broken := &stubProvider{name: "footywire", err: errors.New("upstream down")}
	fallback := &stubProvider{name: "synthetic", records: []supercoach.PlayerRecord{
		record("S1", "FWD", 250000, "synthetic"),
	}}

	pool, err := newTestAggregator([]supercoach.Provider{broken}, fallback).CollectPool(2025)
	require.NoError(t, err)

	require.Len(t, pool.Players, 1)
	assert.Equal(t, "S1", pool.Players[0].ExternalID)
	assert.Equal(t, 1, pool.Sources["synthetic"])
}

func TestCollectPoolErrorsWithNoFallback(t *testing.T) {
	broken := &stubProvider{name: "footywire", err: errors.New("upstream down")}

	_, err := newTestAggregator([]supercoach.Provider{broken}, nil).CollectPool(2025)
	assert.Error(t, err)
}
