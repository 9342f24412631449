package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/afltools/supercoach-optimizer/internal/models"
	"github.com/afltools/supercoach-optimizer/internal/services"
	"github.com/afltools/supercoach-optimizer/internal/supercoach"
	"github.com/afltools/supercoach-optimizer/pkg/database"
	"github.com/afltools/supercoach-optimizer/pkg/utils"
)

type PlayerHandler struct {
	db        *database.DB
	refresher *services.DataRefresher
}

func NewPlayerHandler(db *database.DB, refresher *services.DataRefresher) *PlayerHandler {
	return &PlayerHandler{
		db:        db,
		refresher: refresher,
	}
}

// GetPlayers returns the candidate pool, filterable by position, club and
// price range.
func (h *PlayerHandler) GetPlayers(c *gin.Context) {
	position := c.Query("position")
	club := c.Query("club")
	minPrice := c.DefaultQuery("minPrice", "0")
	maxPrice := c.DefaultQuery("maxPrice", "0")
	sortBy := c.DefaultQuery("sortBy", "predicted_score")
	sortOrder := c.DefaultQuery("sortOrder", "desc")
	search := c.Query("search")

	if position != "" {
		if _, err := supercoach.ParsePosition(position); err != nil {
			utils.SendValidationError(c, "Invalid position", err.Error())
			return
		}
	}

	query := h.db.DB.Model(&models.Player{})

	if position != "" {
		query = query.Where("position = ?", position)
	}
	if club != "" {
		query = query.Where("club = ?", club)
	}

	minP, _ := strconv.ParseInt(minPrice, 10, 64)
	if minP > 0 {
		query = query.Where("price >= ?", minP)
	}
	maxP, _ := strconv.ParseInt(maxPrice, 10, 64)
	if maxP > 0 {
		query = query.Where("price <= ?", maxP)
	}

	if search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}

	switch sortBy {
	case "predicted_score", "value_score", "adjusted_value", "price", "avg_score", "name":
	default:
		sortBy = "predicted_score"
	}
	if sortOrder != "asc" {
		sortOrder = "desc"
	}
	query = query.Order(sortBy + " " + sortOrder)

	var players []models.Player
	if err := query.Find(&players).Error; err != nil {
		utils.SendInternalError(c, "Failed to fetch players")
		return
	}

	utils.SendSuccess(c, players)
}

// GetPlayer returns a single player by external ID.
func (h *PlayerHandler) GetPlayer(c *gin.Context) {
	externalID := c.Param("id")

	var player models.Player
	if err := h.db.DB.Where("external_id = ?", externalID).First(&player).Error; err != nil {
		utils.SendNotFound(c, "Player not found")
		return
	}

	utils.SendSuccess(c, player)
}

// RefreshPlayers forces an immediate pool refresh from the providers.
func (h *PlayerHandler) RefreshPlayers(c *gin.Context) {
	pool, err := h.refresher.RefreshNow()
	if err != nil {
		utils.SendInternalError(c, "Pool refresh failed")
		return
	}

	utils.SendSuccess(c, gin.H{
		"players":  len(pool.Players),
		"warnings": pool.Warnings,
		"sources":  pool.Sources,
	})
}
