package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/afltools/supercoach-optimizer/internal/optimizer"
	"github.com/afltools/supercoach-optimizer/internal/services"
	"github.com/afltools/supercoach-optimizer/pkg/utils"
)

type OptimizerHandler struct {
	optimizer     *services.OptimizerService
	exportService *services.ExportService
	season        int
}

func NewOptimizerHandler(optimizerService *services.OptimizerService, season int) *OptimizerHandler {
	return &OptimizerHandler{
		optimizer:     optimizerService,
		exportService: services.NewExportService(),
		season:        season,
	}
}

// Optimize builds a squad under the requested constraints. A pool that
// cannot fill every quota is still a 200; the response carries the
// per-position shortfalls so the caller can see exactly what is missing.
func (h *OptimizerHandler) Optimize(c *gin.Context) {
	var req services.OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}
	if req.Season == 0 {
		req.Season = h.season
	}

	result, err := h.optimizer.BuildSquad(req)
	if err != nil {
		var cfgErr *optimizer.ConfigError
		if errors.As(err, &cfgErr) {
			utils.SendConfigurationError(c, cfgErr.Reason)
			return
		}
		utils.SendInternalError(c, "Optimization failed")
		return
	}

	utils.SendSuccess(c, result)
}

// ListSquads returns recent squads, newest first.
func (h *OptimizerHandler) ListSquads(c *gin.Context) {
	season, _ := strconv.Atoi(c.DefaultQuery("season", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	squads, err := h.optimizer.ListSquads(season, limit)
	if err != nil {
		utils.SendInternalError(c, "Failed to list squads")
		return
	}

	utils.SendSuccess(c, squads)
}

// GetSquad returns a persisted squad by run ID, players included.
func (h *OptimizerHandler) GetSquad(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "Invalid squad ID", err.Error())
		return
	}

	squad, err := h.optimizer.GetSquad(runID)
	if err != nil {
		utils.SendNotFound(c, "Squad not found")
		return
	}

	utils.SendSuccess(c, squad)
}

// ExportSquad streams a squad as CSV.
func (h *OptimizerHandler) ExportSquad(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.SendValidationError(c, "Invalid squad ID", err.Error())
		return
	}
	format := c.DefaultQuery("format", "squad")

	squad, err := h.optimizer.GetSquad(runID)
	if err != nil {
		utils.SendNotFound(c, "Squad not found")
		return
	}

	csvData, err := h.exportService.ExportSquad(squad, format)
	if err != nil {
		utils.SendError(c, http.StatusBadRequest,
			utils.NewAppError(utils.ErrCodeExportFailed, "Failed to export squad", err.Error()))
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", h.exportService.FileName(squad, format)))
	c.Data(http.StatusOK, "text/csv", csvData)
}

// GetExportFormats returns the supported export layouts.
func (h *OptimizerHandler) GetExportFormats(c *gin.Context) {
	utils.SendSuccess(c, h.exportService.GetAvailableFormats())
}
