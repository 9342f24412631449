package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/afltools/supercoach-optimizer/internal/models"
	"github.com/afltools/supercoach-optimizer/pkg/database"
)

// DataRefresher keeps the candidate pool fresh on a schedule. Prices and
// form shift every round, so a stale pool quietly degrades every squad
// built from it.
type DataRefresher struct {
	db         *database.DB
	cache      *CacheService
	aggregator *PoolAggregator
	logger     *logrus.Logger
	cron       *cron.Cron
	season     int
	interval   time.Duration
	mu         sync.Mutex
	isRunning  bool
}

// NewDataRefresher creates a refresher for the given season.
func NewDataRefresher(
	db *database.DB,
	cache *CacheService,
	aggregator *PoolAggregator,
	logger *logrus.Logger,
	season int,
	interval time.Duration,
) *DataRefresher {
	return &DataRefresher{
		db:         db,
		cache:      cache,
		aggregator: aggregator,
		logger:     logger,
		cron:       cron.New(),
		season:     season,
		interval:   interval,
	}
}

// Start schedules the periodic refresh and runs an initial fetch.
func (r *DataRefresher) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isRunning {
		return fmt.Errorf("data refresher is already running")
	}

	schedule := fmt.Sprintf("@every %s", r.interval.String())
	if _, err := r.cron.AddFunc(schedule, r.refreshPool); err != nil {
		return fmt.Errorf("failed to schedule pool refresh: %w", err)
	}

	// Price changes land overnight after each round.
	if _, err := r.cron.AddFunc("0 6 * * 2", r.refreshPool); err != nil {
		return fmt.Errorf("failed to schedule post-round refresh: %w", err)
	}

	if _, err := r.cron.AddFunc("0 3 * * *", r.cleanupStaleSquads); err != nil {
		return fmt.Errorf("failed to schedule cleanup: %w", err)
	}

	r.cron.Start()
	r.isRunning = true

	go r.refreshPool()

	r.logger.Info("Data refresher started")
	return nil
}

// Stop halts scheduling and waits for in-flight jobs.
func (r *DataRefresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isRunning {
		return
	}

	ctx := r.cron.Stop()
	<-ctx.Done()

	r.isRunning = false
	r.logger.Info("Data refresher stopped")
}

// RefreshNow forces an immediate pool refresh, bypassing the cache.
func (r *DataRefresher) RefreshNow() (*PoolResult, error) {
	r.cache.Delete(context.Background(), PoolCacheKey(r.season))
	return r.aggregator.CollectPool(r.season)
}

func (r *DataRefresher) refreshPool() {
	r.logger.Infof("Starting scheduled pool refresh for season %d", r.season)

	pool, err := r.RefreshNow()
	if err != nil {
		r.logger.Errorf("Pool refresh failed: %v", err)
		return
	}

	r.logger.WithFields(logrus.Fields{
		"players":  len(pool.Players),
		"warnings": len(pool.Warnings),
		"sources":  pool.Sources,
	}).Info("Pool refresh complete")
}

// cleanupStaleSquads drops squads older than 30 days along with their
// player links.
func (r *DataRefresher) cleanupStaleSquads() {
	r.logger.Info("Starting daily cleanup of stale squads")

	cutoff := time.Now().AddDate(0, 0, -30)

	var stale []models.Squad
	if err := r.db.DB.Where("created_at < ?", cutoff).Find(&stale).Error; err != nil {
		r.logger.Errorf("Failed to list stale squads: %v", err)
		return
	}

	for _, squad := range stale {
		if err := r.db.DB.Where("squad_id = ?", squad.ID).Delete(&models.SquadPlayer{}).Error; err != nil {
			r.logger.Errorf("Failed to delete links for squad %d: %v", squad.ID, err)
			continue
		}
		if err := r.db.DB.Delete(&squad).Error; err != nil {
			r.logger.Errorf("Failed to delete squad %d: %v", squad.ID, err)
		}
	}

	r.logger.Infof("Cleaned up %d stale squads", len(stale))
}
