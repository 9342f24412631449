package optimizer

import (
	"fmt"
	"math"
	"sort"

	"github.com/afltools/supercoach-optimizer/internal/supercoach"
)

// Candidate is a scored, priced, positioned entity eligible for selection.
// Score is an opaque precomputed objective (higher is better); the allocator
// never recomputes it.
type Candidate struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	Club     string              `json:"club"`
	Position supercoach.Position `json:"position"`
	Cost     int64               `json:"cost"`
	Score    float64             `json:"score"`
	Source   string              `json:"source,omitempty"`
}

// ValueDensity is score per dollar, the secondary ranking signal.
func (c Candidate) ValueDensity() float64 {
	if c.Cost <= 0 {
		return 0
	}
	return c.Score / float64(c.Cost)
}

// Constraints declares the budget ceiling and exact per-position quotas.
type Constraints struct {
	Budget    int64                       `json:"budget"`
	Quotas    map[supercoach.Position]int `json:"quotas"`
	SquadSize int                         `json:"squad_size"`
}

// ConfigError reports a malformed Constraints. It is the only fatal error
// the allocator produces; feasibility problems are reported on the Roster.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid constraints: %s", e.Reason)
}

// Validate checks the Constraints invariants: non-negative budget, a
// non-negative quota for every known position, and quotas summing to
// SquadSize.
func (c Constraints) Validate() error {
	if c.Budget < 0 {
		return &ConfigError{Reason: fmt.Sprintf("budget must be non-negative, got %d", c.Budget)}
	}
	total := 0
	for pos, quota := range c.Quotas {
		if _, err := supercoach.ParsePosition(string(pos)); err != nil {
			return &ConfigError{Reason: err.Error()}
		}
		if quota < 0 {
			return &ConfigError{Reason: fmt.Sprintf("quota for %s must be non-negative, got %d", pos, quota)}
		}
		total += quota
	}
	for _, pos := range supercoach.Positions {
		if _, ok := c.Quotas[pos]; !ok {
			return &ConfigError{Reason: fmt.Sprintf("missing quota for position %s", pos)}
		}
	}
	if total != c.SquadSize {
		return &ConfigError{Reason: fmt.Sprintf("quotas sum to %d, squad size is %d", total, c.SquadSize)}
	}
	return nil
}

// ExcludedCandidate records a candidate dropped before ranking, with the
// data-quality reason.
type ExcludedCandidate struct {
	Candidate Candidate `json:"candidate"`
	Reason    string    `json:"reason"`
}

// Roster is the allocation result. It is always produced for a valid
// Constraints, even when no quota could be met; Filled and Unfilled carry the
// feasibility diagnostics downstream consumers must surface.
type Roster struct {
	Selected        []Candidate                 `json:"selected"`
	PositionCounts  map[supercoach.Position]int `json:"position_counts"`
	TotalCost       int64                       `json:"total_cost"`
	RemainingBudget int64                       `json:"remaining_budget"`
	Filled          bool                        `json:"filled"`
	Unfilled        map[supercoach.Position]int `json:"unfilled,omitempty"`
	Excluded        []ExcludedCandidate         `json:"excluded,omitempty"`
}

// HasCandidate reports whether the roster already contains the given ID.
func (r *Roster) HasCandidate(id string) bool {
	for _, c := range r.Selected {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Allocate selects a squad from the pool under the given constraints.
//
// The pass structure is: partition by position, rank each position by score
// (value density then ID break ties), fill each quota greedily under a
// running global budget, then backfill still-short positions with the
// cheapest remaining candidates. The greedy pass reserves the cheapest
// possible completion of every outstanding slot before committing to a pick,
// so an expensive early selection can never price the remaining quotas out of
// the budget. The backfill trades score for feasibility for whatever the
// greedy pass could not afford.
//
// Inputs are read-only; repeated calls with the same inputs return identical
// rosters.
func Allocate(pool []Candidate, cons Constraints) (*Roster, error) {
	if err := cons.Validate(); err != nil {
		return nil, err
	}

	valid, excluded := sanitizePool(pool, cons)
	byPosition := partitionByPosition(valid)
	cheapest := make(map[supercoach.Position][]Candidate, len(byPosition))
	for pos := range byPosition {
		rankCandidates(byPosition[pos])
		cheapest[pos] = sortedByCost(byPosition[pos])
	}

	roster := &Roster{
		Selected:        make([]Candidate, 0, cons.SquadSize),
		PositionCounts:  make(map[supercoach.Position]int, len(supercoach.Positions)),
		RemainingBudget: cons.Budget,
		Excluded:        excluded,
	}
	taken := make(map[string]bool, cons.SquadSize)

	// Greedy pass: best-ranked candidates per position. A candidate is
	// skipped, not the position, when taking it would either exceed the
	// remaining budget or leave too little to complete the other
	// outstanding slots at their cheapest.
	for _, pos := range supercoach.Positions {
		quota := cons.Quotas[pos]
		for _, c := range byPosition[pos] {
			if roster.PositionCounts[pos] >= quota {
				break
			}
			if taken[c.ID] || c.Cost > roster.RemainingBudget {
				continue
			}
			reserve := completionFloor(cheapest, taken, roster.PositionCounts, cons.Quotas, c)
			if c.Cost+reserve > roster.RemainingBudget {
				continue
			}
			selectCandidate(roster, taken, c)
		}
	}

	// Backfill pass: fill remaining slots globally cheapest-first across
	// every still-short position. Spending on the cheapest outstanding slot
	// first maximizes how many slots the leftover budget covers, so a larger
	// budget can never fill fewer slots. Filled positions are never
	// revisited.
	for _, c := range backfillOrder(cheapest, taken, roster.PositionCounts, cons.Quotas) {
		if c.Cost > roster.RemainingBudget {
			break
		}
		if roster.PositionCounts[c.Position] >= cons.Quotas[c.Position] {
			continue
		}
		selectCandidate(roster, taken, c)
	}

	roster.Filled = true
	for _, pos := range supercoach.Positions {
		if short := cons.Quotas[pos] - roster.PositionCounts[pos]; short > 0 {
			if roster.Unfilled == nil {
				roster.Unfilled = make(map[supercoach.Position]int)
			}
			roster.Unfilled[pos] = short
			roster.Filled = false
		}
	}

	return roster, nil
}

func selectCandidate(roster *Roster, taken map[string]bool, c Candidate) {
	roster.Selected = append(roster.Selected, c)
	roster.PositionCounts[c.Position]++
	roster.TotalCost += c.Cost
	roster.RemainingBudget -= c.Cost
	taken[c.ID] = true
}

// sanitizePool drops candidates the allocator cannot rank: non-positive
// costs (SuperCoach has no free players), non-finite scores, unknown
// positions and duplicate IDs. Each exclusion is recorded for the caller.
func sanitizePool(pool []Candidate, cons Constraints) ([]Candidate, []ExcludedCandidate) {
	valid := make([]Candidate, 0, len(pool))
	var excluded []ExcludedCandidate
	seen := make(map[string]bool, len(pool))

	for _, c := range pool {
		switch {
		case seen[c.ID]:
			excluded = append(excluded, ExcludedCandidate{Candidate: c, Reason: "duplicate candidate id"})
		case c.Cost <= 0:
			excluded = append(excluded, ExcludedCandidate{Candidate: c, Reason: fmt.Sprintf("non-positive cost %d", c.Cost)})
		case math.IsNaN(c.Score) || math.IsInf(c.Score, 0):
			excluded = append(excluded, ExcludedCandidate{Candidate: c, Reason: "score is not a finite number"})
		default:
			if _, ok := cons.Quotas[c.Position]; !ok {
				excluded = append(excluded, ExcludedCandidate{Candidate: c, Reason: fmt.Sprintf("unknown position %q", c.Position)})
				continue
			}
			seen[c.ID] = true
			valid = append(valid, c)
		}
	}

	return valid, excluded
}

func partitionByPosition(pool []Candidate) map[supercoach.Position][]Candidate {
	byPosition := make(map[supercoach.Position][]Candidate, len(supercoach.Positions))
	for _, c := range pool {
		byPosition[c.Position] = append(byPosition[c.Position], c)
	}
	return byPosition
}

// rankCandidates orders a position's candidates by score descending, value
// density descending, then ID ascending. The ID break makes the ordering
// total, so allocation is deterministic across runs.
func rankCandidates(candidates []Candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		di, dj := candidates[i].ValueDensity(), candidates[j].ValueDensity()
		if di != dj {
			return di > dj
		}
		return candidates[i].ID < candidates[j].ID
	})
}

// sortedByCost returns a copy ordered by cost ascending, ID ascending.
func sortedByCost(candidates []Candidate) []Candidate {
	byCost := make([]Candidate, len(candidates))
	copy(byCost, candidates)
	sort.Slice(byCost, func(i, j int) bool {
		if byCost[i].Cost != byCost[j].Cost {
			return byCost[i].Cost < byCost[j].Cost
		}
		return byCost[i].ID < byCost[j].ID
	})
	return byCost
}

// backfillOrder merges the unselected candidates of every still-short
// position into one list ordered by cost ascending, ID ascending.
func backfillOrder(
	cheapest map[supercoach.Position][]Candidate,
	taken map[string]bool,
	counts map[supercoach.Position]int,
	quotas map[supercoach.Position]int,
) []Candidate {
	var merged []Candidate
	for _, pos := range supercoach.Positions {
		if quotas[pos]-counts[pos] <= 0 {
			continue
		}
		for _, c := range cheapest[pos] {
			if !taken[c.ID] {
				merged = append(merged, c)
			}
		}
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Cost != merged[j].Cost {
			return merged[i].Cost < merged[j].Cost
		}
		return merged[i].ID < merged[j].ID
	})
	return merged
}

// completionFloor computes the cheapest possible cost of filling every
// outstanding quota slot, assuming next is about to be selected. Slots a
// position's pool cannot cover contribute nothing: they are lost regardless
// of how the budget is spent.
func completionFloor(
	cheapest map[supercoach.Position][]Candidate,
	taken map[string]bool,
	counts map[supercoach.Position]int,
	quotas map[supercoach.Position]int,
	next Candidate,
) int64 {
	var floor int64
	for _, pos := range supercoach.Positions {
		need := quotas[pos] - counts[pos]
		if pos == next.Position {
			need--
		}
		for _, c := range cheapest[pos] {
			if need <= 0 {
				break
			}
			if taken[c.ID] || c.ID == next.ID {
				continue
			}
			floor += c.Cost
			need--
		}
	}
	return floor
}
