package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/afltools/supercoach-optimizer/internal/api"
	"github.com/afltools/supercoach-optimizer/internal/models"
	"github.com/afltools/supercoach-optimizer/internal/providers"
	"github.com/afltools/supercoach-optimizer/internal/services"
	"github.com/afltools/supercoach-optimizer/internal/supercoach"
	"github.com/afltools/supercoach-optimizer/pkg/config"
	"github.com/afltools/supercoach-optimizer/pkg/database"
	"github.com/sirupsen/logrus"
)

type OptimizerIntegrationTestSuite struct {
	suite.Suite
	db     *database.DB
	router *gin.Engine
}

func (s *OptimizerIntegrationTestSuite) SetupSuite() {
	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	s.Require().NoError(err)

	s.db = &database.DB{DB: gormDB}

	err = s.db.AutoMigrate(
		&models.Player{},
		&models.Squad{},
		&models.SquadPlayer{},
	)
	s.Require().NoError(err)

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	cache := services.NewCacheService(nil)
	sample := providers.NewSampleProvider(200, logger)
	aggregator := services.NewPoolAggregator(s.db, cache, logger, []supercoach.Provider{sample}, nil)
	refresher := services.NewDataRefresher(s.db, cache, aggregator, logger, 2025, 0)

	optimizerService := services.NewOptimizerService(
		aggregator, cache, s.db, logger, 10000000, 30)

	cfg := &config.Config{Season: 2025}

	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	apiV1 := s.router.Group("/api/v1")
	api.SetupRoutes(apiV1, s.db, cfg, optimizerService, refresher)
}

func (s *OptimizerIntegrationTestSuite) SetupTest() {
	s.db.Exec("DELETE FROM squad_players")
	s.db.Exec("DELETE FROM squads")
	s.db.Exec("DELETE FROM players")
}

func (s *OptimizerIntegrationTestSuite) postOptimize(body gin.H) *httptest.ResponseRecorder {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/optimize", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *OptimizerIntegrationTestSuite) TestOptimize_BuildsFullSquad() {
	w := s.postOptimize(gin.H{"season": 2025, "strategy": "balanced"})
	s.Equal(http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Squad struct {
				RunID    string  `json:"run_id"`
				Filled   bool    `json:"filled"`
				Budget   int64   `json:"budget"`
				Strategy string  `json:"strategy"`
				Total    float64 `json:"predicted_total"`
			} `json:"squad"`
			Roster struct {
				Selected  []json.RawMessage            `json:"selected"`
				TotalCost int64                        `json:"total_cost"`
				Counts    map[supercoach.Position]int  `json:"position_counts"`
			} `json:"roster"`
		} `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.True(resp.Success)

	s.True(resp.Data.Squad.Filled)
	s.Equal("balanced", resp.Data.Squad.Strategy)
	s.Len(resp.Data.Roster.Selected, 30)
	s.LessOrEqual(resp.Data.Roster.TotalCost, resp.Data.Squad.Budget)
	s.Equal(8, resp.Data.Roster.Counts[supercoach.PositionDEF])
	s.Equal(11, resp.Data.Roster.Counts[supercoach.PositionMID])
	s.Equal(3, resp.Data.Roster.Counts[supercoach.PositionRUC])
	s.Equal(8, resp.Data.Roster.Counts[supercoach.PositionFWD])
	s.Greater(resp.Data.Squad.Total, 0.0)
}

func (s *OptimizerIntegrationTestSuite) TestOptimize_PersistsSquadAndPlayers() {
	w := s.postOptimize(gin.H{"season": 2025})
	s.Require().Equal(http.StatusOK, w.Code)

	var squads []models.Squad
	s.Require().NoError(s.db.Find(&squads).Error)
	s.Require().Len(squads, 1)

	var links []models.SquadPlayer
	s.Require().NoError(s.db.Where("squad_id = ?", squads[0].ID).Find(&links).Error)
	s.Len(links, 30)

	var playerCount int64
	s.Require().NoError(s.db.Model(&models.Player{}).Count(&playerCount).Error)
	s.Equal(int64(200), playerCount)
}

func (s *OptimizerIntegrationTestSuite) TestOptimize_TightBudgetStillReturnsSquad() {
	// Not enough money to fill 30 slots; the response is still a 200 with
	// the shortfall reported, never an error.
	w := s.postOptimize(gin.H{"season": 2025, "budget": 500000})
	s.Equal(http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Squad struct {
				Filled bool `json:"filled"`
			} `json:"squad"`
			Roster struct {
				Unfilled map[supercoach.Position]int `json:"unfilled"`
			} `json:"roster"`
		} `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.False(resp.Data.Squad.Filled)
	s.NotEmpty(resp.Data.Roster.Unfilled)

	// The shortfall map must survive persistence, not just the response.
	var squad models.Squad
	s.Require().NoError(s.db.DB.Order("created_at DESC").First(&squad).Error)
	shortfalls, err := squad.Shortfalls()
	s.Require().NoError(err)
	s.Equal(resp.Data.Roster.Unfilled, shortfalls)
}

func (s *OptimizerIntegrationTestSuite) TestOptimize_InvalidQuotasReturns400() {
	w := s.postOptimize(gin.H{
		"season":     2025,
		"squad_size": 30,
		"quotas":     gin.H{"DEF": 8, "MID": 11, "RUC": 3, "FWD": 9},
	})
	s.Equal(http.StatusBadRequest, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.False(resp.Success)
	s.Equal("CONFIGURATION_ERROR", resp.Error.Code)
}

func (s *OptimizerIntegrationTestSuite) TestOptimize_UnknownStrategyReturns400() {
	w := s.postOptimize(gin.H{"season": 2025, "strategy": "yolo"})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *OptimizerIntegrationTestSuite) TestSquadRoundTrip_GetAndExport() {
	w := s.postOptimize(gin.H{"season": 2025, "strategy": "score"})
	s.Require().Equal(http.StatusOK, w.Code)

	var created struct {
		Data struct {
			Squad struct {
				RunID string `json:"run_id"`
			} `json:"squad"`
		} `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &created))
	runID := created.Data.Squad.RunID
	s.Require().NotEmpty(runID)

	// Fetch it back
	getReq := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/squads/%s", runID), nil)
	getW := httptest.NewRecorder()
	s.router.ServeHTTP(getW, getReq)
	s.Equal(http.StatusOK, getW.Code)

	var fetched struct {
		Data struct {
			Players []models.Player `json:"players"`
		} `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(getW.Body.Bytes(), &fetched))
	s.Len(fetched.Data.Players, 30)

	// Export as CSV
	expReq := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/squads/%s/export", runID), nil)
	expW := httptest.NewRecorder()
	s.router.ServeHTTP(expW, expReq)
	s.Equal(http.StatusOK, expW.Code)
	s.Equal("text/csv", expW.Header().Get("Content-Type"))
	s.Contains(expW.Body.String(), "slot,position,name")
}

func (s *OptimizerIntegrationTestSuite) TestListSquads_NewestFirst() {
	s.Require().Equal(http.StatusOK, s.postOptimize(gin.H{"season": 2025, "strategy": "score"}).Code)
	s.Require().Equal(http.StatusOK, s.postOptimize(gin.H{"season": 2025, "strategy": "value"}).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/squads?season=2025", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code)

	var resp struct {
		Data []models.Squad `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Len(resp.Data, 2)
}

func (s *OptimizerIntegrationTestSuite) TestGetExportFormats() {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/export/formats", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code)

	var resp struct {
		Data []services.ExportFormat `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Require().Len(resp.Data, 2)
	s.Equal("squad", resp.Data[0].ID)
	s.Equal("lineup", resp.Data[1].ID)
}

func (s *OptimizerIntegrationTestSuite) TestGetPlayers_FiltersByPosition() {
	// Seed the pool through an optimize run first.
	s.Require().Equal(http.StatusOK, s.postOptimize(gin.H{"season": 2025}).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/players?position=RUC", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code)

	var resp struct {
		Data []models.Player `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.NotEmpty(resp.Data)
	for _, p := range resp.Data {
		s.Equal("RUC", p.Position)
	}
}

func TestOptimizerIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(OptimizerIntegrationTestSuite))
}
