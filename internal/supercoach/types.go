package supercoach

import (
	"fmt"
	"time"
)

// Position is one of the four SuperCoach position buckets.
type Position string

const (
	PositionDEF Position = "DEF"
	PositionMID Position = "MID"
	PositionRUC Position = "RUC"
	PositionFWD Position = "FWD"
)

// Positions lists every position in squad-sheet order. Per-position passes
// always iterate in this order so results are reproducible.
var Positions = []Position{PositionDEF, PositionMID, PositionRUC, PositionFWD}

// ParsePosition validates a raw position string against the closed set.
func ParsePosition(s string) (Position, error) {
	switch Position(s) {
	case PositionDEF, PositionMID, PositionRUC, PositionFWD:
		return Position(s), nil
	}
	return "", fmt.Errorf("unknown position %q", s)
}

// PlayerRecord is a raw record produced by a data provider, before the typed
// validation boundary converts it into a models.Player. Source marks
// provenance ("footywire", "csv", "synthetic") and is passed through for
// reporting only.
type PlayerRecord struct {
	ExternalID    string    `json:"external_id"`
	Name          string    `json:"name"`
	Club          string    `json:"club"`
	Position      string    `json:"position"`
	Price         int64     `json:"price"`
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
	Source        string    `json:"source"`
	LastUpdated   time.Time `json:"last_updated"`
}

// Provider is the interface every external data source implements.
type Provider interface {
	// GetPlayers returns the full candidate pool for a season.
	GetPlayers(season int) ([]PlayerRecord, error)
	// Name identifies the provider in logs and provenance fields.
	Name() string
}

// CacheProvider is the subset of the cache service providers depend on.
type CacheProvider interface {
	SetSimple(key string, value interface{}, expiration time.Duration) error
	GetSimple(key string, dest interface{}) error
}

// ScoringWeights are the official SuperCoach per-stat point values, used as
// the fallback objective when no fitted model is available.
var ScoringWeights = map[string]float64{
	"kicks":     3,
	"handballs": 2,
	"marks":     3,
	"tackles":   4,
	"goals":     6,
	"behinds":   1,
	"hitouts":   1,
}
