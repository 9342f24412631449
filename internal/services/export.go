package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/afltools/supercoach-optimizer/internal/models"
)

// ExportService renders squads as CSV for spreadsheet review.
type ExportService struct{}

func NewExportService() *ExportService {
	return &ExportService{}
}

// ExportFormat describes a supported squad export layout.
type ExportFormat struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Headers     []string `json:"headers"`
}

var squadHeaders = []string{
	"slot", "position", "name", "club", "price",
	"predicted_score", "value_score", "role", "source",
}

// GetAvailableFormats returns the supported export layouts.
func (s *ExportService) GetAvailableFormats() []ExportFormat {
	return []ExportFormat{
		{
			ID:          "squad",
			Name:        "Full squad",
			Description: "All rostered players, starters and bench",
			Headers:     squadHeaders,
		},
		{
			ID:          "lineup",
			Name:        "Starting lineup",
			Description: "On-field players only",
			Headers:     squadHeaders,
		},
	}
}

// ExportSquad renders one squad to CSV. Format "lineup" exports starters
// only; anything else exports the full squad with a role column.
func (s *ExportService) ExportSquad(squad *models.Squad, format string) ([]byte, error) {
	if len(squad.Players) == 0 {
		return nil, fmt.Errorf("squad %s has no players to export", squad.RunID)
	}

	starters := squad.StartingLineup()
	starting := make(map[string]bool, len(starters))
	for _, p := range starters {
		starting[p.ExternalID] = true
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(squadHeaders); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}

	slot := 0
	for _, p := range squad.Players {
		role := "bench"
		if starting[p.ExternalID] {
			role = "field"
		}
		if format == "lineup" && role == "bench" {
			continue
		}
		slot++
		row := []string{
			strconv.Itoa(slot),
			p.Position,
			p.Name,
			p.Club,
			strconv.FormatInt(p.Price, 10),
			strconv.FormatFloat(p.PredictedScore, 'f', 2, 64),
			strconv.FormatFloat(p.ValueScore, 'f', 2, 64),
			role,
			p.Source,
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write row for %s: %w", p.Name, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush export: %w", err)
	}

	return buf.Bytes(), nil
}

// FileName builds a stable download name for a squad export.
func (s *ExportService) FileName(squad *models.Squad, format string) string {
	return fmt.Sprintf("squad_%d_%s_%s.csv", squad.Season, squad.Strategy, squad.RunID)
}
