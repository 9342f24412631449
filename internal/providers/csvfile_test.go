package providers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afltools/supercoach-optimizer/internal/supercoach"
)

func TestCSVRoundTrip(t *testing.T) {
	records := []supercoach.PlayerRecord{
		{
			ExternalID: "P0001", Name: "Nick Daicos", Club: "Collingwood",
			Position: "MID", Price: 715000, Age: 22, GamesPlayed: 70,
			AvgDisposals: 31.2, AvgKicks: 18.4, AvgHandballs: 12.8,
			AvgMarks: 5.1, AvgTackles: 3.9, AvgGoals: 0.7, AvgBehinds: 0.5,
			AvgHitouts: 0, AvgScore: 121.55, InjuryHistory: 1, GamesLast3: 3,
			FormLast5: 118.2,
		},
		{
			ExternalID: "P0002", Name: "Max Gawn", Club: "Melbourne",
			Position: "RUC", Price: 680000, Age: 33, GamesPlayed: 200,
			AvgHitouts: 38.5, AvgScore: 112.3, GamesLast3: 3,
		},
	}

	path := filepath.Join(t.TempDir(), "pool.csv")
	require.NoError(t, WritePool(path, records))

	loaded, err := NewCSVProvider(path, testLogger()).GetPlayers(2025)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, "P0001", loaded[0].ExternalID)
	assert.Equal(t, int64(715000), loaded[0].Price)
	assert.InDelta(t, 121.55, loaded[0].AvgScore, 1e-9)
	assert.Equal(t, "csv", loaded[0].Source)
	assert.Equal(t, "RUC", loaded[1].Position)
	assert.InDelta(t, 38.5, loaded[1].AvgHitouts, 1e-9)
}

func TestCSVSkipsUnparseableRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pool.csv")
	rows := []string{
		strings.Join(csvHeader, ","),
		"P0001,Good Player,Geelong,FWD,450000,24,60,15.0,8.0,7.0,6.0,3.0,2.1,0.8,0.2,88.50,0,3,85.0",
		"P0002,Bad Price,Geelong,FWD,not-a-number,24,60,15.0,8.0,7.0,6.0,3.0,2.1,0.8,0.2,88.50,0,3,85.0",
		"P0003,Bad Age,Geelong,DEF,450000,old,60,15.0,8.0,7.0,6.0,3.0,2.1,0.8,0.2,88.50,0,3,85.0",
		"P0004,Truncated Row,Geelong,DEF,450000",
		"P0005,Also Good,Carlton,MID,520000,27,120,22.0,12.0,10.0,4.5,5.0,0.5,0.4,0.1,95.20,0,3,92.0",
	}
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(rows, "\n")+"\n"), 0o644))

	loaded, err := NewCSVProvider(path, testLogger()).GetPlayers(2025)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "P0001", loaded[0].ExternalID)
	assert.Equal(t, "P0005", loaded[1].ExternalID)
}

func TestCSVWithoutHeaderRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pool.csv")
	row := "P0009,No Header,Richmond,DEF,300000,26,100,18.0,10.0,8.0,5.5,4.0,0.4,0.3,0.1,82.00,0,3,80.0\n"
	require.NoError(t, os.WriteFile(path, []byte(row), 0o644))

	loaded, err := NewCSVProvider(path, testLogger()).GetPlayers(2025)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "P0009", loaded[0].ExternalID)
}

func TestCSVMissingFileErrors(t *testing.T) {
	_, err := NewCSVProvider("/does/not/exist.csv", testLogger()).GetPlayers(2025)
	assert.Error(t, err)
}

func TestCSVEmptyFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pool.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := NewCSVProvider(path, testLogger()).GetPlayers(2025)
	assert.Error(t, err)
}
