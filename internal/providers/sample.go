package providers

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/afltools/supercoach-optimizer/internal/supercoach"
)

// aflClubs lists every AFL club for synthetic assignment.
var aflClubs = []string{
	"Adelaide", "Brisbane", "Carlton", "Collingwood", "Essendon",
	"Fremantle", "Geelong", "Gold Coast", "GWS", "Hawthorn",
	"Melbourne", "North Melbourne", "Port Adelaide", "Richmond",
	"St Kilda", "Sydney", "West Coast", "Western Bulldogs",
}

var surnames = []string{"Smith", "Jones", "Brown", "Wilson", "Taylor", "Johnson", "Williams", "Davis", "Miller", "Anderson"}
var firstNames = []string{"Jack", "Tom", "Sam", "Luke", "Matt", "Josh", "Ben", "Dan", "Jake", "Alex"}

// SampleProvider generates a deterministic synthetic candidate pool with
// position-dependent stat distributions. It stands in for the live source in
// development and acts as the fallback when the live source is down; every
// record carries provenance "synthetic" so downstream reports can flag it.
type SampleProvider struct {
	numPlayers int
	seed       int64
	logger     *logrus.Logger
}

// NewSampleProvider creates a sample provider. The fixed seed keeps repeated
// runs reproducible.
func NewSampleProvider(numPlayers int, logger *logrus.Logger) *SampleProvider {
	if numPlayers <= 0 {
		numPlayers = 450
	}
	return &SampleProvider{numPlayers: numPlayers, seed: 42, logger: logger}
}

func (p *SampleProvider) Name() string {
	return "synthetic"
}

// GetPlayers generates the synthetic pool for a season.
func (p *SampleProvider) GetPlayers(season int) ([]supercoach.PlayerRecord, error) {
	rng := rand.New(rand.NewSource(p.seed))
	now := time.Now().UTC()

	records := make([]supercoach.PlayerRecord, 0, p.numPlayers)
	for i := 0; i < p.numPlayers; i++ {
		pos := supercoach.Positions[rng.Intn(len(supercoach.Positions))]
		rec := p.generate(rng, i, pos)
		rec.Source = p.Name()
		rec.LastUpdated = now
		records = append(records, rec)
	}

	p.logger.WithFields(logrus.Fields{
		"provider": p.Name(),
		"season":   season,
		"players":  len(records),
	}).Info("Generated synthetic player pool")

	return records, nil
}

func (p *SampleProvider) generate(rng *rand.Rand, i int, pos supercoach.Position) supercoach.PlayerRecord {
	age := clampInt(int(rng.NormFloat64()*4+25), 18, 35)
	games := clampInt(int(rng.ExpFloat64()*50*float64(age-17)/10), 0, 300)

	// First-year and fringe players produce less and are priced near the
	// basement, which is what makes a 30-player squad affordable at all.
	experience := clampFloat(float64(games)/50, 0.35, 1.0)

	var disposals, marks, tackles, goals, hitouts float64
	switch pos {
	case supercoach.PositionMID:
		disposals = rng.NormFloat64()*5 + 25
		marks = rng.NormFloat64()*2 + 5
		tackles = rng.NormFloat64()*2 + 5
		goals = rng.NormFloat64()*0.4 + 0.8
		hitouts = rng.NormFloat64()*0.3 + 0.5
	case supercoach.PositionDEF:
		disposals = rng.NormFloat64()*4 + 20
		marks = rng.NormFloat64()*2 + 6
		tackles = rng.NormFloat64()*2 + 4
		goals = rng.NormFloat64()*0.2 + 0.3
		hitouts = rng.NormFloat64()*0.2 + 0.2
	case supercoach.PositionFWD:
		disposals = rng.NormFloat64()*4 + 18
		marks = rng.NormFloat64()*2 + 5
		tackles = rng.NormFloat64()*1.5 + 3
		goals = rng.NormFloat64()*0.8 + 2
		hitouts = rng.NormFloat64()*0.2 + 0.3
	default: // RUC
		disposals = rng.NormFloat64()*3 + 15
		marks = rng.NormFloat64()*1.5 + 4
		tackles = rng.NormFloat64()*1.5 + 3
		goals = rng.NormFloat64()*0.3 + 0.5
		hitouts = rng.NormFloat64()*8 + 30
	}

	disposals *= experience
	marks *= experience
	tackles *= experience
	goals *= experience
	hitouts *= experience

	kicks := disposals * (0.5 + rng.Float64()*0.1)
	handballs := disposals - kicks
	behinds := (rng.NormFloat64()*0.3 + 0.5) * experience

	disposals = clampFloat(disposals, 0, 50)
	kicks = clampFloat(kicks, 0, 35)
	handballs = clampFloat(handballs, 0, 25)
	marks = clampFloat(marks, 0, 15)
	tackles = clampFloat(tackles, 0, 15)
	goals = clampFloat(goals, 0, 6)
	behinds = clampFloat(behinds, 0, 4)
	hitouts = clampFloat(hitouts, 0, 60)

	score := kicks*supercoach.ScoringWeights["kicks"] +
		handballs*supercoach.ScoringWeights["handballs"] +
		marks*supercoach.ScoringWeights["marks"] +
		tackles*supercoach.ScoringWeights["tackles"] +
		goals*supercoach.ScoringWeights["goals"] +
		behinds*supercoach.ScoringWeights["behinds"] +
		hitouts*supercoach.ScoringWeights["hitouts"]

	discount := clampFloat(float64(games)/30, 0.2, 1.0)
	price := int64(score*6000*discount + rng.NormFloat64()*20000 + 40000)
	if price < 102400 {
		price = 102400
	}
	if price > 800000 {
		price = 800000
	}

	return supercoach.PlayerRecord{
		ExternalID:    fmt.Sprintf("P%04d", i),
		Name:          fmt.Sprintf("%s %s", firstNames[rng.Intn(len(firstNames))], surnames[rng.Intn(len(surnames))]),
		Club:          aflClubs[rng.Intn(len(aflClubs))],
		Position:      string(pos),
		Price:         price,
		Age:           age,
		GamesPlayed:   games,
		AvgDisposals:  round2(disposals),
		AvgKicks:      round2(kicks),
		AvgHandballs:  round2(handballs),
		AvgMarks:      round2(marks),
		AvgTackles:    round2(tackles),
		AvgGoals:      round2(goals),
		AvgBehinds:    round2(behinds),
		AvgHitouts:    round2(hitouts),
		AvgScore:      round2(score),
		InjuryHistory: int(rng.ExpFloat64()),
		GamesLast3:    rng.Intn(4),
		FormLast5:     round2(score * (0.8 + rng.Float64()*0.4)),
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
