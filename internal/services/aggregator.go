package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/afltools/supercoach-optimizer/internal/models"
	"github.com/afltools/supercoach-optimizer/internal/supercoach"
	"github.com/afltools/supercoach-optimizer/pkg/database"
)

// DataQualityWarning records a provider row excluded at the validation
// boundary. Warnings travel with the pool so callers can surface them; they
// never abort a run.
type DataQualityWarning struct {
	ExternalID string `json:"external_id"`
	Source     string `json:"source"`
	Reason     string `json:"reason"`
}

// PoolResult is a validated candidate pool plus its provenance breakdown.
type PoolResult struct {
	Players   []models.Player      `json:"players"`
	Warnings  []DataQualityWarning `json:"warnings,omitempty"`
	Sources   map[string]int       `json:"sources"`
	FetchedAt time.Time            `json:"fetched_at"`
}

// FetchResult represents the outcome of one provider fetch.
type FetchResult struct {
	Provider string
	Records  []supercoach.PlayerRecord
	Error    error
}

// PoolAggregator fetches candidate records from every configured provider,
// merges them by external ID and converts them into typed players.
type PoolAggregator struct {
	db        *database.DB
	cache     *CacheService
	logger    *logrus.Logger
	providers []supercoach.Provider
	fallback  supercoach.Provider
}

// NewPoolAggregator creates a pool aggregator. Providers are queried in
// parallel; when every one of them fails, fallback (usually the synthetic
// provider) supplies the pool so a run can still complete.
func NewPoolAggregator(
	db *database.DB,
	cache *CacheService,
	logger *logrus.Logger,
	providers []supercoach.Provider,
	fallback supercoach.Provider,
) *PoolAggregator {
	return &PoolAggregator{
		db:        db,
		cache:     cache,
		logger:    logger,
		providers: providers,
		fallback:  fallback,
	}
}

// CollectPool assembles the season's candidate pool: fetch, merge, validate,
// persist, cache.
func (a *PoolAggregator) CollectPool(season int) (*PoolResult, error) {
	cacheKey := PoolCacheKey(season)

	var cached PoolResult
	if err := a.cache.GetSimple(cacheKey, &cached); err == nil {
		return &cached, nil
	}

	results := a.fetchFromAllProviders(season)

	records := a.mergeRecords(results)
	if len(records) == 0 {
		if a.fallback == nil {
			return nil, fmt.Errorf("no provider returned players for season %d", season)
		}
		a.logger.Warnf("All providers failed for season %d, using %s fallback", season, a.fallback.Name())
		fallbackRecords, err := a.fallback.GetPlayers(season)
		if err != nil {
			return nil, fmt.Errorf("fallback provider failed: %w", err)
		}
		records = fallbackRecords
	}

	pool := a.validateRecords(records)

	if a.db != nil {
		if err := a.upsertPlayers(pool.Players); err != nil {
			a.logger.Errorf("Failed to persist player pool: %v", err)
		}
	}

	if len(pool.Players) > 0 {
		if err := a.cache.SetWithRetry(context.Background(), cacheKey, pool, 1*time.Hour, 3); err != nil {
			a.logger.Warnf("Failed to cache player pool: %v", err)
		}
	}

	return pool, nil
}

// fetchFromAllProviders queries every provider in parallel.
func (a *PoolAggregator) fetchFromAllProviders(season int) []FetchResult {
	var wg sync.WaitGroup
	results := make(chan FetchResult, len(a.providers))

	for _, provider := range a.providers {
		wg.Add(1)
		go func(p supercoach.Provider) {
			defer wg.Done()
			records, err := p.GetPlayers(season)
			results <- FetchResult{Provider: p.Name(), Records: records, Error: err}
		}(provider)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var allResults []FetchResult
	for result := range results {
		if result.Error != nil {
			a.logger.Warnf("Provider %s failed: %v", result.Provider, result.Error)
		}
		allResults = append(allResults, result)
	}

	return allResults
}

// mergeRecords combines provider outputs, first provider in config order
// winning on external-ID collisions.
func (a *PoolAggregator) mergeRecords(results []FetchResult) []supercoach.PlayerRecord {
	byProvider := make(map[string][]supercoach.PlayerRecord, len(results))
	for _, result := range results {
		if result.Error != nil {
			continue
		}
		byProvider[result.Provider] = result.Records
	}

	seen := make(map[string]bool)
	var merged []supercoach.PlayerRecord
	for _, provider := range a.providers {
		for _, rec := range byProvider[provider.Name()] {
			if seen[rec.ExternalID] {
				continue
			}
			seen[rec.ExternalID] = true
			merged = append(merged, rec)
		}
	}

	return merged
}

// validateRecords runs the typed boundary over raw records, converting the
// well-formed ones and recording a warning per rejected row.
func (a *PoolAggregator) validateRecords(records []supercoach.PlayerRecord) *PoolResult {
	pool := &PoolResult{
		Players:   make([]models.Player, 0, len(records)),
		Sources:   make(map[string]int),
		FetchedAt: time.Now().UTC(),
	}

	for _, rec := range records {
		player, err := models.PlayerFromRecord(rec)
		if err != nil {
			warning := DataQualityWarning{
				ExternalID: rec.ExternalID,
				Source:     rec.Source,
				Reason:     err.Error(),
			}
			pool.Warnings = append(pool.Warnings, warning)
			a.logger.WithFields(logrus.Fields{
				"external_id": rec.ExternalID,
				"source":      rec.Source,
			}).Warnf("Dropping malformed player record: %v", err)
			continue
		}
		pool.Players = append(pool.Players, *player)
		pool.Sources[player.Source]++
	}

	return pool
}

// upsertPlayers creates or refreshes pool players in the database.
func (a *PoolAggregator) upsertPlayers(players []models.Player) error {
	for i := range players {
		var existing models.Player
		err := a.db.DB.Where("external_id = ?", players[i].ExternalID).First(&existing).Error

		if err != nil {
			if err := a.db.DB.Create(&players[i]).Error; err != nil {
				a.logger.Errorf("Failed to create player %s: %v", players[i].Name, err)
			}
			continue
		}

		players[i].ID = existing.ID
		players[i].CreatedAt = existing.CreatedAt
		if err := a.db.DB.Save(&players[i]).Error; err != nil {
			a.logger.Errorf("Failed to update player %s: %v", players[i].Name, err)
		}
	}

	return nil
}
