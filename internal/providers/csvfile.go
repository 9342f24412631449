package providers

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/afltools/supercoach-optimizer/internal/supercoach"
)

var csvHeader = []string{
	"external_id", "name", "club", "position", "price", "age", "games_played",
	"avg_disposals", "avg_kicks", "avg_handballs", "avg_marks", "avg_tackles",
	"avg_goals", "avg_behinds", "avg_hitouts", "avg_score",
	"injury_history", "games_last_3", "form_last_5",
}

// CSVProvider loads a candidate pool from a local CSV file, for offline runs
// and for replaying previously exported pools.
type CSVProvider struct {
	path   string
	logger *logrus.Logger
}

func NewCSVProvider(path string, logger *logrus.Logger) *CSVProvider {
	return &CSVProvider{path: path, logger: logger}
}

func (p *CSVProvider) Name() string {
	return "csv"
}

// GetPlayers reads the whole pool from the CSV file. Rows that fail to parse
// are skipped with a warning; a malformed row should not sink the run.
func (p *CSVProvider) GetPlayers(season int) ([]supercoach.PlayerRecord, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open player csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	// Rows with a deviant column count must reach parseRow to be skipped,
	// not abort the whole read.
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read player csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("player csv %s is empty", p.path)
	}

	// Skip a header row if present.
	start := 0
	if rows[0][0] == csvHeader[0] {
		start = 1
	}

	now := time.Now().UTC()
	records := make([]supercoach.PlayerRecord, 0, len(rows)-start)
	for i, row := range rows[start:] {
		rec, err := parseRow(row)
		if err != nil {
			p.logger.Warnf("Skipping csv row %d: %v", i+start+1, err)
			continue
		}
		rec.Source = p.Name()
		rec.LastUpdated = now
		records = append(records, rec)
	}

	return records, nil
}

// WritePool saves a pool back to CSV in the same column layout GetPlayers
// reads.
func WritePool(path string, records []supercoach.PlayerRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create player csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{
			rec.ExternalID, rec.Name, rec.Club, rec.Position,
			strconv.FormatInt(rec.Price, 10),
			strconv.Itoa(rec.Age),
			strconv.Itoa(rec.GamesPlayed),
			formatFloat(rec.AvgDisposals),
			formatFloat(rec.AvgKicks),
			formatFloat(rec.AvgHandballs),
			formatFloat(rec.AvgMarks),
			formatFloat(rec.AvgTackles),
			formatFloat(rec.AvgGoals),
			formatFloat(rec.AvgBehinds),
			formatFloat(rec.AvgHitouts),
			formatFloat(rec.AvgScore),
			strconv.Itoa(rec.InjuryHistory),
			strconv.Itoa(rec.GamesLast3),
			formatFloat(rec.FormLast5),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func parseRow(row []string) (supercoach.PlayerRecord, error) {
	var rec supercoach.PlayerRecord
	if len(row) != len(csvHeader) {
		return rec, fmt.Errorf("expected %d columns, got %d", len(csvHeader), len(row))
	}

	price, err := strconv.ParseInt(row[4], 10, 64)
	if err != nil {
		return rec, fmt.Errorf("bad price %q: %w", row[4], err)
	}

	ints := make([]int, 0, 4)
	for _, idx := range []int{5, 6, 16, 17} {
		v, err := strconv.Atoi(row[idx])
		if err != nil {
			return rec, fmt.Errorf("bad integer %q in column %s: %w", row[idx], csvHeader[idx], err)
		}
		ints = append(ints, v)
	}

	floats := make([]float64, 0, 10)
	for _, idx := range []int{7, 8, 9, 10, 11, 12, 13, 14, 15, 18} {
		v, err := strconv.ParseFloat(row[idx], 64)
		if err != nil {
			return rec, fmt.Errorf("bad number %q in column %s: %w", row[idx], csvHeader[idx], err)
		}
		floats = append(floats, v)
	}

	rec = supercoach.PlayerRecord{
		ExternalID:    row[0],
		Name:          row[1],
		Club:          row[2],
		Position:      row[3],
		Price:         price,
		Age:           ints[0],
		GamesPlayed:   ints[1],
		AvgDisposals:  floats[0],
		AvgKicks:      floats[1],
		AvgHandballs:  floats[2],
		AvgMarks:      floats[3],
		AvgTackles:    floats[4],
		AvgGoals:      floats[5],
		AvgBehinds:    floats[6],
		AvgHitouts:    floats[7],
		AvgScore:      floats[8],
		InjuryHistory: ints[2],
		GamesLast3:    ints[3],
		FormLast5:     floats[9],
	}
	return rec, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
