package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gblms/roadmap-service/internal/models"
	"github.com/gblms/roadmap-service/internal/repositories"
	"github.com/gblms/roadmap-service/internal/services"
	"github.com/gblms/roadmap-service/internal/utils"
	"github.com/gblms/roadmap-service/internal/validator"
)

type RoadmapHandler struct {
	BaseHandler
	service   services.RoadmapService
	validator *validator.Validator
}

func NewRoadmapHandler(service services.RoadmapService, validator *validator.Validator, logger utils.Logger) *RoadmapHandler {
	return &RoadmapHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		validator:   validator,
	}
}

// Generate builds and persists a new roadmap for the acting user.
func (h *RoadmapHandler) Generate(c *gin.Context) {
	var req models.GenerateRoadmapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err)
		return
	}

	username := UsernameFromContext(c)
	h.LogRequest(c, "Generating roadmap", "username", username, "career_goal", req.CareerGoal)

	resp, err := h.service.Generate(c.Request.Context(), &req, username)
	if err != nil {
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to generate roadmap", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Get returns one roadmap by id.
func (h *RoadmapHandler) Get(c *gin.Context) {
	id := c.Param("id")

	h.LogRequest(c, "Getting roadmap", "roadmap_id", id)

	roadmap, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			h.RespondWithError(c, http.StatusNotFound, fmt.Sprintf("Roadmap %s not found", id), nil)
			return
		}
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve roadmap", err)
		return
	}

	c.JSON(http.StatusOK, models.RoadmapResponse{Roadmap: roadmap})
}

// Update applies a partial update to an existing roadmap.
func (h *RoadmapHandler) Update(c *gin.Context) {
	id := c.Param("id")

	var req models.UpdateRoadmapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err)
		return
	}

	h.LogRequest(c, "Updating roadmap", "roadmap_id", id)

	resp, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			h.RespondWithError(c, http.StatusNotFound, fmt.Sprintf("Roadmap %s not found", id), nil)
			return
		}
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to update roadmap", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListByUser returns all roadmaps owned by the given username.
func (h *RoadmapHandler) ListByUser(c *gin.Context) {
	username := c.Param("username")

	h.LogRequest(c, "Listing user roadmaps", "username", username)

	resp, err := h.service.ListByUser(c.Request.Context(), username)
	if err != nil {
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve roadmaps", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Export streams the roadmap as an .xlsx workbook.
func (h *RoadmapHandler) Export(c *gin.Context) {
	id := c.Param("id")

	h.LogRequest(c, "Exporting roadmap", "roadmap_id", id)

	data, filename, err := h.service.Export(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			h.RespondWithError(c, http.StatusNotFound, fmt.Sprintf("Roadmap %s not found", id), nil)
			return
		}
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to export roadmap", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
