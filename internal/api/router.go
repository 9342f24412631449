package api

import (
	"github.com/gin-gonic/gin"

	"github.com/afltools/supercoach-optimizer/internal/api/handlers"
	"github.com/afltools/supercoach-optimizer/internal/services"
	"github.com/afltools/supercoach-optimizer/pkg/config"
	"github.com/afltools/supercoach-optimizer/pkg/database"
)

// SetupRoutes configures all API routes on the given router group
func SetupRoutes(
	group *gin.RouterGroup,
	db *database.DB,
	cfg *config.Config,
	optimizerService *services.OptimizerService,
	refresher *services.DataRefresher,
) {
	playerHandler := handlers.NewPlayerHandler(db, refresher)
	optimizerHandler := handlers.NewOptimizerHandler(optimizerService, cfg.Season)

	// Player endpoints
	group.GET("/players", playerHandler.GetPlayers)
	group.GET("/players/:id", playerHandler.GetPlayer)
	group.POST("/players/refresh", playerHandler.RefreshPlayers)

	// Optimization endpoints
	group.POST("/optimize", optimizerHandler.Optimize)
	group.GET("/squads", optimizerHandler.ListSquads)
	group.GET("/squads/:id", optimizerHandler.GetSquad)
	group.GET("/squads/:id/export", optimizerHandler.ExportSquad)
	group.GET("/export/formats", optimizerHandler.GetExportFormats)
}
