package main

import (
	"flag"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/afltools/supercoach-optimizer/internal/models"
	"github.com/afltools/supercoach-optimizer/internal/optimizer"
	"github.com/afltools/supercoach-optimizer/internal/predictor"
	"github.com/afltools/supercoach-optimizer/internal/providers"
	"github.com/afltools/supercoach-optimizer/internal/supercoach"
	"github.com/afltools/supercoach-optimizer/pkg/config"
)

// strategyRun holds one strategy's squad and its projected on-field score.
type strategyRun struct {
	strategy predictor.Strategy
	roster   *optimizer.Roster
	squad    *models.Squad
	score    float64
}

func main() {
	poolPath := flag.String("pool", "", "CSV pool file (empty uses the synthetic provider)")
	outPath := flag.String("out", "squad.csv", "output CSV path")
	strategyFlag := flag.String("strategy", "", "strategy: score, value or balanced (empty tries all)")
	season := flag.Int("season", 0, "season (defaults to config)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	logger := logrus.StandardLogger()
	if *season == 0 {
		*season = cfg.Season
	}

	players, err := loadPool(cfg, logger, *poolPath, *season)
	if err != nil {
		logrus.Fatalf("Failed to load pool: %v", err)
	}
	logger.Infof("Loaded %d players", len(players))

	model, err := predictor.Fit(players)
	if err != nil {
		logrus.Fatalf("Failed to fit model: %v", err)
	}
	model.ScorePool(players)
	logger.Infof("Scoring model: %s", model.Version)

	cons := optimizer.Constraints{
		Budget: cfg.SalaryCap,
		Quotas: map[supercoach.Position]int{
			supercoach.PositionDEF: cfg.DefenderSlots,
			supercoach.PositionMID: cfg.MidfielderSlots,
			supercoach.PositionRUC: cfg.RuckSlots,
			supercoach.PositionFWD: cfg.ForwardSlots,
		},
		SquadSize: cfg.SquadSize,
	}

	strategies := []predictor.Strategy{
		predictor.StrategyScore,
		predictor.StrategyValue,
		predictor.StrategyBalanced,
	}
	if *strategyFlag != "" {
		s, err := predictor.ParseStrategy(*strategyFlag)
		if err != nil {
			logrus.Fatalf("Invalid strategy: %v", err)
		}
		strategies = []predictor.Strategy{s}
	}

	best := runStrategies(players, cons, strategies, *season, logger)
	if best == nil {
		logrus.Fatal("No strategy produced a squad")
	}

	printBreakdown(best)

	if err := writeCSV(best.squad, *outPath); err != nil {
		logrus.Fatalf("Failed to write %s: %v", *outPath, err)
	}
	logger.Infof("Squad written to %s", *outPath)
}

func loadPool(cfg *config.Config, logger *logrus.Logger, poolPath string, season int) ([]models.Player, error) {
	var provider supercoach.Provider
	if poolPath != "" {
		provider = providers.NewCSVProvider(poolPath, logger)
	} else {
		provider = providers.NewSampleProvider(cfg.SyntheticPoolSize, logger)
	}

	records, err := provider.GetPlayers(season)
	if err != nil {
		return nil, err
	}

	players := make([]models.Player, 0, len(records))
	for _, rec := range records {
		player, err := models.PlayerFromRecord(rec)
		if err != nil {
			logger.Warnf("Skipping %s: %v", rec.ExternalID, err)
			continue
		}
		players = append(players, *player)
	}
	return players, nil
}

// runStrategies builds a squad per strategy and keeps the one whose starting
// lineup projects the highest total.
func runStrategies(
	players []models.Player,
	cons optimizer.Constraints,
	strategies []predictor.Strategy,
	season int,
	logger *logrus.Logger,
) *strategyRun {
	byID := make(map[string]*models.Player, len(players))
	for i := range players {
		byID[players[i].ExternalID] = &players[i]
	}

	var best *strategyRun
	for _, strategy := range strategies {
		roster, err := optimizer.Allocate(strategy.BuildCandidates(players), cons)
		if err != nil {
			logger.Errorf("Strategy %s failed: %v", strategy, err)
			continue
		}

		squad := &models.Squad{
			Season:   season,
			Strategy: string(strategy),
			Budget:   cons.Budget,
			Quotas:   models.PositionQuotas(cons.Quotas),
			Filled:   roster.Filled,
		}
		for _, c := range roster.Selected {
			if p, ok := byID[c.ID]; ok {
				squad.Players = append(squad.Players, *p)
			}
		}

		score := 0.0
		for _, p := range squad.StartingLineup() {
			score += p.PredictedScore
		}

		logger.WithFields(logrus.Fields{
			"strategy": strategy,
			"filled":   roster.Filled,
			"cost":     roster.TotalCost,
			"on_field": fmt.Sprintf("%.1f", score),
		}).Info("Strategy evaluated")

		run := &strategyRun{strategy: strategy, roster: roster, squad: squad, score: score}
		if best == nil || run.score > best.score {
			best = run
		}
	}
	return best
}

func printBreakdown(run *strategyRun) {
	fmt.Printf("\nBest strategy: %s (projected on-field score %.1f)\n", run.strategy, run.score)
	fmt.Printf("Total cost: $%d, remaining: $%d, filled: %t\n\n",
		run.roster.TotalCost, run.roster.RemainingBudget, run.roster.Filled)

	if len(run.roster.Unfilled) > 0 {
		fmt.Println("Unfilled slots:")
		for pos, n := range run.roster.Unfilled {
			fmt.Printf("  %s: %d\n", pos, n)
		}
		fmt.Println()
	}

	starters := run.squad.StartingLineup()
	starting := make(map[string]bool, len(starters))
	for _, p := range starters {
		starting[p.ExternalID] = true
	}

	for _, pos := range supercoach.Positions {
		fmt.Printf("%s:\n", pos)
		var group []models.Player
		for _, p := range run.squad.Players {
			if p.Position == string(pos) {
				group = append(group, p)
			}
		}
		sort.Slice(group, func(i, j int) bool {
			return group[i].PredictedScore > group[j].PredictedScore
		})
		for _, p := range group {
			role := " "
			if starting[p.ExternalID] {
				role = "*"
			}
			fmt.Printf("  %s %-28s %-4s $%-8d %6.1f pts\n",
				role, p.Name, p.Club, p.Price, p.PredictedScore)
		}
	}
	fmt.Println("\n* starting lineup")
}

func writeCSV(squad *models.Squad, path string) error {
	records := make([]supercoach.PlayerRecord, 0, len(squad.Players))
	for _, p := range squad.Players {
		records = append(records, p.ToRecord())
	}
	return providers.WritePool(path, records)
}
