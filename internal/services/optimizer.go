package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/afltools/supercoach-optimizer/internal/models"
	"github.com/afltools/supercoach-optimizer/internal/optimizer"
	"github.com/afltools/supercoach-optimizer/internal/predictor"
	"github.com/afltools/supercoach-optimizer/internal/supercoach"
	"github.com/afltools/supercoach-optimizer/pkg/database"
)

// OptimizeRequest captures one squad build. Zero-value budget, quotas and
// squad size fall back to the standard SuperCoach configuration.
type OptimizeRequest struct {
	Season    int                         `json:"season"`
	Strategy  string                      `json:"strategy"`
	Budget    int64                       `json:"budget"`
	SquadSize int                         `json:"squad_size"`
	Quotas    map[supercoach.Position]int `json:"quotas,omitempty"`
}

// OptimizeResult pairs the persisted squad with the allocator's full
// diagnostic output for the run.
type OptimizeResult struct {
	Squad    *models.Squad                 `json:"squad"`
	Roster   *optimizer.Roster             `json:"roster"`
	Warnings []DataQualityWarning          `json:"warnings,omitempty"`
	Model    string                        `json:"model_version"`
	Strategy predictor.Strategy            `json:"strategy"`
	Excluded []optimizer.ExcludedCandidate `json:"excluded,omitempty"`
}

// OptimizerService runs the full pipeline: collect pool, fit and apply the
// scoring model, allocate under constraints, persist the resulting squad.
type OptimizerService struct {
	aggregator *PoolAggregator
	cache      *CacheService
	db         *database.DB
	logger     *logrus.Logger
	budget     int64
	squadSize  int
}

// NewOptimizerService creates an optimizer service with the default budget
// and squad size applied to requests that leave them unset.
func NewOptimizerService(
	aggregator *PoolAggregator,
	cache *CacheService,
	db *database.DB,
	logger *logrus.Logger,
	budget int64,
	squadSize int,
) *OptimizerService {
	return &OptimizerService{
		aggregator: aggregator,
		cache:      cache,
		db:         db,
		logger:     logger,
		budget:     budget,
		squadSize:  squadSize,
	}
}

// BuildSquad runs one optimization. Constraint problems come back as
// *optimizer.ConfigError; a pool under the requested quotas still succeeds
// with Roster.Filled false and per-position shortfalls populated.
func (s *OptimizerService) BuildSquad(req OptimizeRequest) (*OptimizeResult, error) {
	strategy, err := predictor.ParseStrategy(req.Strategy)
	if err != nil {
		return nil, &optimizer.ConfigError{Reason: err.Error()}
	}

	cons := s.constraintsFor(req)
	if err := cons.Validate(); err != nil {
		return nil, err
	}

	pool, err := s.aggregator.CollectPool(req.Season)
	if err != nil {
		return nil, fmt.Errorf("collecting pool: %w", err)
	}

	model, err := predictor.Fit(pool.Players)
	if err != nil {
		return nil, fmt.Errorf("fitting model: %w", err)
	}
	model.ScorePool(pool.Players)

	candidates := strategy.BuildCandidates(pool.Players)

	roster, err := optimizer.Allocate(candidates, cons)
	if err != nil {
		return nil, err
	}

	squad := s.buildSquad(req, strategy, cons, roster, pool.Players)

	if s.db != nil {
		if err := s.persistSquad(squad, roster); err != nil {
			s.logger.Errorf("Failed to persist squad %s: %v", squad.RunID, err)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"run_id":    squad.RunID,
		"strategy":  strategy,
		"filled":    roster.Filled,
		"total":     roster.TotalCost,
		"remaining": roster.RemainingBudget,
	}).Info("Squad build complete")

	return &OptimizeResult{
		Squad:    squad,
		Roster:   roster,
		Warnings: pool.Warnings,
		Model:    model.Version,
		Strategy: strategy,
		Excluded: roster.Excluded,
	}, nil
}

// GetSquad loads a persisted squad by run ID, players included.
func (s *OptimizerService) GetSquad(runID uuid.UUID) (*models.Squad, error) {
	var squad models.Squad
	if err := s.db.DB.Where("run_id = ?", runID).First(&squad).Error; err != nil {
		return nil, err
	}
	if err := squad.LoadPlayers(s.db.DB); err != nil {
		return nil, err
	}
	return &squad, nil
}

// ListSquads returns recent squads for a season, newest first.
func (s *OptimizerService) ListSquads(season int, limit int) ([]models.Squad, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var squads []models.Squad
	query := s.db.DB.Order("created_at DESC").Limit(limit)
	if season > 0 {
		query = query.Where("season = ?", season)
	}
	if err := query.Find(&squads).Error; err != nil {
		return nil, err
	}
	return squads, nil
}

func (s *OptimizerService) constraintsFor(req OptimizeRequest) optimizer.Constraints {
	budget := req.Budget
	if budget == 0 {
		budget = s.budget
	}
	quotas := req.Quotas
	if len(quotas) == 0 {
		quotas = map[supercoach.Position]int(models.DefaultQuotas())
	}
	size := req.SquadSize
	if size == 0 {
		for _, n := range quotas {
			size += n
		}
	}
	return optimizer.Constraints{
		Budget:    budget,
		Quotas:    quotas,
		SquadSize: size,
	}
}

func (s *OptimizerService) buildSquad(
	req OptimizeRequest,
	strategy predictor.Strategy,
	cons optimizer.Constraints,
	roster *optimizer.Roster,
	players []models.Player,
) *models.Squad {
	byID := make(map[string]*models.Player, len(players))
	for i := range players {
		byID[players[i].ExternalID] = &players[i]
	}

	squad := &models.Squad{
		RunID:           uuid.New(),
		Season:          req.Season,
		Strategy:        string(strategy),
		Budget:          cons.Budget,
		TotalCost:       roster.TotalCost,
		RemainingBudget: roster.RemainingBudget,
		Filled:          roster.Filled,
		Quotas:          models.PositionQuotas(cons.Quotas),
		CreatedAt:       time.Now().UTC(),
	}
	if err := squad.SetUnfilled(roster.Unfilled); err != nil {
		s.logger.Warnf("Failed to encode shortfall map for squad %s: %v", squad.RunID, err)
	}

	var predictedTotal float64
	for _, c := range roster.Selected {
		if p, ok := byID[c.ID]; ok {
			squad.Players = append(squad.Players, *p)
			predictedTotal += p.PredictedScore
		}
	}
	squad.PredictedTotal = predictedTotal

	return squad
}

func (s *OptimizerService) persistSquad(squad *models.Squad, roster *optimizer.Roster) error {
	if err := s.db.DB.Create(squad).Error; err != nil {
		return err
	}

	for slot, c := range roster.Selected {
		var player models.Player
		if err := s.db.DB.Where("external_id = ?", c.ID).First(&player).Error; err != nil {
			continue
		}
		link := models.SquadPlayer{
			SquadID:  squad.ID,
			PlayerID: player.ID,
			Position: string(c.Position),
			Slot:     slot,
		}
		if err := s.db.DB.Create(&link).Error; err != nil {
			return err
		}
	}

	if s.cache != nil {
		s.cache.Delete(context.Background(), SquadCacheKey(squad.Season, squad.Strategy))
	}

	return nil
}
