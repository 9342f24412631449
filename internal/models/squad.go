package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/afltools/supercoach-optimizer/internal/supercoach"
)

// PositionQuotas maps each position to its exact required count.
type PositionQuotas map[supercoach.Position]int

// Scan implements the sql.Scanner interface for JSON columns
func (q *PositionQuotas) Scan(value interface{}) error {
	if value == nil {
		*q = make(PositionQuotas)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into PositionQuotas", value)
	}

	var result map[supercoach.Position]int
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}

	*q = PositionQuotas(result)
	return nil
}

// Value implements the driver.Valuer interface for JSON columns
func (q PositionQuotas) Value() (driver.Value, error) {
	if q == nil {
		return nil, nil
	}
	return json.Marshal(q)
}

// Total returns the squad size the quotas add up to.
func (q PositionQuotas) Total() int {
	total := 0
	for _, n := range q {
		total += n
	}
	return total
}

// DefaultQuotas is the 30-player SuperCoach squad split: 22 on-field slots
// plus 8 bench slots distributed over the same buckets.
func DefaultQuotas() PositionQuotas {
	return PositionQuotas{
		supercoach.PositionDEF: 8,
		supercoach.PositionMID: 11,
		supercoach.PositionRUC: 3,
		supercoach.PositionFWD: 8,
	}
}

// OnFieldCounts is the number of scoring (non-bench) slots per position.
var OnFieldCounts = map[supercoach.Position]int{
	supercoach.PositionDEF: 6,
	supercoach.PositionMID: 8,
	supercoach.PositionRUC: 2,
	supercoach.PositionFWD: 6,
}

// Squad is a persisted allocation run: the selected players plus the
// feasibility diagnostics the allocator reported.
type Squad struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	RunID           uuid.UUID      `gorm:"type:uuid;uniqueIndex" json:"run_id"`
	Season          int            `gorm:"not null" json:"season"`
	Strategy        string         `gorm:"not null" json:"strategy"`
	Budget          int64          `gorm:"not null" json:"budget"`
	TotalCost       int64          `gorm:"not null" json:"total_cost"`
	RemainingBudget int64          `json:"remaining_budget"`
	PredictedTotal  float64        `json:"predicted_total"`
	Filled          bool           `gorm:"default:false" json:"filled"`
	Quotas          PositionQuotas `gorm:"type:jsonb" json:"quotas"`
	Unfilled        datatypes.JSON `json:"unfilled,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`

	Players []Player `gorm:"-" json:"players"`
}

// TableName specifies the table name for GORM
func (Squad) TableName() string {
	return "squads"
}

// SquadPlayer is the join table linking a squad to its selected players.
// Slot preserves selection order so exports reproduce the allocator output.
type SquadPlayer struct {
	SquadID  uint   `gorm:"primaryKey"`
	PlayerID uint   `gorm:"primaryKey"`
	Position string `gorm:"not null"`
	Slot     int    `gorm:"not null"`
}

func (SquadPlayer) TableName() string {
	return "squad_players"
}

// SetUnfilled stores the allocator's shortfall map as a JSON column.
func (s *Squad) SetUnfilled(unfilled map[supercoach.Position]int) error {
	if len(unfilled) == 0 {
		s.Unfilled = nil
		return nil
	}
	data, err := json.Marshal(unfilled)
	if err != nil {
		return err
	}
	s.Unfilled = datatypes.JSON(data)
	return nil
}

// Shortfalls decodes the stored shortfall map; empty when the squad filled.
func (s *Squad) Shortfalls() (map[supercoach.Position]int, error) {
	if len(s.Unfilled) == 0 {
		return map[supercoach.Position]int{}, nil
	}
	var unfilled map[supercoach.Position]int
	if err := json.Unmarshal(s.Unfilled, &unfilled); err != nil {
		return nil, err
	}
	return unfilled, nil
}

// TotalPrice sums the prices of the loaded players.
func (s *Squad) TotalPrice() int64 {
	var total int64
	for _, p := range s.Players {
		total += p.Price
	}
	return total
}

// StartingLineup returns the on-field players: the top OnFieldCounts players
// per position by predicted score. The rest of the squad is the bench.
func (s *Squad) StartingLineup() []Player {
	var lineup []Player
	for _, pos := range supercoach.Positions {
		var posPlayers []Player
		for _, p := range s.Players {
			if p.Position == string(pos) {
				posPlayers = append(posPlayers, p)
			}
		}
		sort.Slice(posPlayers, func(i, j int) bool {
			if posPlayers[i].PredictedScore != posPlayers[j].PredictedScore {
				return posPlayers[i].PredictedScore > posPlayers[j].PredictedScore
			}
			return posPlayers[i].ExternalID < posPlayers[j].ExternalID
		})
		onField := OnFieldCounts[pos]
		if onField > len(posPlayers) {
			onField = len(posPlayers)
		}
		lineup = append(lineup, posPlayers[:onField]...)
	}
	return lineup
}

// BenchPlayers returns the squad members outside the starting lineup.
func (s *Squad) BenchPlayers() []Player {
	starting := make(map[string]bool)
	for _, p := range s.StartingLineup() {
		starting[p.ExternalID] = true
	}

	var bench []Player
	for _, p := range s.Players {
		if !starting[p.ExternalID] {
			bench = append(bench, p)
		}
	}
	return bench
}

// LoadPlayers loads the squad's players from the database in slot order.
func (s *Squad) LoadPlayers(db *gorm.DB) error {
	var squadPlayers []SquadPlayer
	if err := db.Where("squad_id = ?", s.ID).Order("slot").Find(&squadPlayers).Error; err != nil {
		return err
	}

	playerIDs := make([]uint, len(squadPlayers))
	for i, sp := range squadPlayers {
		playerIDs[i] = sp.PlayerID
	}

	var players []Player
	if err := db.Where("id IN ?", playerIDs).Find(&players).Error; err != nil {
		return err
	}

	byID := make(map[uint]Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}

	s.Players = make([]Player, 0, len(squadPlayers))
	for _, sp := range squadPlayers {
		if p, ok := byID[sp.PlayerID]; ok {
			s.Players = append(s.Players, p)
		}
	}
	return nil
}
