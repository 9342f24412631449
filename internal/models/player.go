package models

import (
	"fmt"
	"math"
	"time"

	"github.com/afltools/supercoach-optimizer/internal/optimizer"
	"github.com/afltools/supercoach-optimizer/internal/supercoach"
)

// Player is a SuperCoach-priced AFL player with the season averages the
// predictor consumes. Predicted score and value fields are zero until the
// predictor has run over the pool.
type Player struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ExternalID    string    `gorm:"uniqueIndex;not null" json:"external_id"`
	Name          string    `gorm:"not null" json:"name"`
	Club          string    `gorm:"not null" json:"club"`
	Position      string    `gorm:"not null;index" json:"position"`
	Price         int64     `gorm:"not null" json:"price"`
	Age           int       `json:"age"`
	GamesPlayed   int       `json:"games_played"`
	AvgDisposals  float64   `json:"avg_disposals"`
	AvgKicks      float64   `json:"avg_kicks"`
	AvgHandballs  float64   `json:"avg_handballs"`
	AvgMarks      float64   `json:"avg_marks"`
	AvgTackles    float64   `json:"avg_tackles"`
	AvgGoals      float64   `json:"avg_goals"`
	AvgBehinds    float64   `json:"avg_behinds"`
	AvgHitouts    float64   `json:"avg_hitouts"`
	AvgScore      float64   `json:"avg_score"`
	InjuryHistory int       `json:"injury_history"`
	GamesLast3    int       `json:"games_last_3"`
	FormLast5     float64   `json:"form_last_5"`
	Source        string    `gorm:"index" json:"source"` // provenance: "footywire", "csv", "synthetic"
	LastUpdated   time.Time `json:"last_updated"`

	PredictedScore float64 `json:"predicted_score"`
	ValueScore     float64 `json:"value_score"`
	AdjustedValue  float64 `json:"adjusted_value"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Player) TableName() string {
	return "players"
}

// PlayerFromRecord is the typed validation boundary between raw provider
// records and the closed Player structure. Malformed rows come back as an
// error for the caller to log and drop; they never reach the allocator.
func PlayerFromRecord(rec supercoach.PlayerRecord) (*Player, error) {
	if rec.ExternalID == "" {
		return nil, fmt.Errorf("record has no external id")
	}
	pos, err := supercoach.ParsePosition(rec.Position)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", rec.ExternalID, err)
	}
	if rec.Price <= 0 {
		return nil, fmt.Errorf("record %s: non-positive price %d", rec.ExternalID, rec.Price)
	}
	if math.IsNaN(rec.AvgScore) || math.IsInf(rec.AvgScore, 0) {
		return nil, fmt.Errorf("record %s: average score is not a finite number", rec.ExternalID)
	}

	return &Player{
		ExternalID:    rec.ExternalID,
		Name:          rec.Name,
		Club:          rec.Club,
		Position:      string(pos),
		Price:         rec.Price,
		Age:           rec.Age,
		GamesPlayed:   rec.GamesPlayed,
		AvgDisposals:  rec.AvgDisposals,
		AvgKicks:      rec.AvgKicks,
		AvgHandballs:  rec.AvgHandballs,
		AvgMarks:      rec.AvgMarks,
		AvgTackles:    rec.AvgTackles,
		AvgGoals:      rec.AvgGoals,
		AvgBehinds:    rec.AvgBehinds,
		AvgHitouts:    rec.AvgHitouts,
		AvgScore:      rec.AvgScore,
		InjuryHistory: rec.InjuryHistory,
		GamesLast3:    rec.GamesLast3,
		FormLast5:     rec.FormLast5,
		Source:        rec.Source,
		LastUpdated:   rec.LastUpdated,
	}, nil
}

// ToRecord converts a player back into the provider record shape, used when
// writing pools and squads out as CSV.
func (p *Player) ToRecord() supercoach.PlayerRecord {
	return supercoach.PlayerRecord{
		ExternalID:    p.ExternalID,
		Name:          p.Name,
		Club:          p.Club,
		Position:      p.Position,
		Price:         p.Price,
		Age:           p.Age,
		GamesPlayed:   p.GamesPlayed,
		AvgDisposals:  p.AvgDisposals,
		AvgKicks:      p.AvgKicks,
		AvgHandballs:  p.AvgHandballs,
		AvgMarks:      p.AvgMarks,
		AvgTackles:    p.AvgTackles,
		AvgGoals:      p.AvgGoals,
		AvgBehinds:    p.AvgBehinds,
		AvgHitouts:    p.AvgHitouts,
		AvgScore:      p.AvgScore,
		InjuryHistory: p.InjuryHistory,
		GamesLast3:    p.GamesLast3,
		FormLast5:     p.FormLast5,
		Source:        p.Source,
		LastUpdated:   p.LastUpdated,
	}
}

// ToCandidate converts a scored player into an allocator candidate using the
// given objective value.
func (p *Player) ToCandidate(objective float64) optimizer.Candidate {
	return optimizer.Candidate{
		ID:       p.ExternalID,
		Name:     p.Name,
		Club:     p.Club,
		Position: supercoach.Position(p.Position),
		Cost:     p.Price,
		Score:    objective,
		Source:   p.Source,
	}
}
