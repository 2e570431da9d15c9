package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tesseract-hub/tour-service/internal/health"
	"github.com/tesseract-hub/tour-service/internal/models"
	"github.com/tesseract-hub/tour-service/internal/services"
)

// HotspotHandler handles hotspot-related HTTP requests
type HotspotHandler struct {
	hotspotService services.HotspotService
}

// NewHotspotHandler creates a new hotspot handler
func NewHotspotHandler(hotspotService services.HotspotService) *HotspotHandler {
	return &HotspotHandler{hotspotService: hotspotService}
}

// Create handles hotspot creation requests
// @Summary Add a hotspot to a scene
// @Description Creates an interactive marker; the type must be allowed by the active tier
// @Tags hotspots
// @Accept json
// @Produce json
// @Param id path string true "Scene ID"
// @Param request body models.CreateHotspotRequest true "Hotspot creation request"
// @Success 201 {object} models.Response
// @Failure 400 {object} models.Response
// @Failure 404 {object} models.Response
// @Failure 409 {object} models.Response
// @Router /api/v1/scenes/{id}/hotspots [post]
func (h *HotspotHandler) Create(c *gin.Context) {
	sceneID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "Invalid scene ID format")
		return
	}

	var req models.CreateHotspotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	hotspot, err := h.hotspotService.CreateHotspot(c.Request.Context(), principalFrom(c), sceneID, &req)
	health.RecordHotspotOperation("create", err == nil)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, hotspot)
}

// List handles hotspot listing for one scene
// @Summary List hotspots
// @Description Lists a scene's hotspots ordered by sortOrder
// @Tags hotspots
// @Produce json
// @Param id path string true "Scene ID"
// @Success 200 {object} models.Response
// @Failure 404 {object} models.Response
// @Router /api/v1/scenes/{id}/hotspots [get]
func (h *HotspotHandler) List(c *gin.Context) {
	sceneID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "Invalid scene ID format")
		return
	}

	hotspots, err := h.hotspotService.ListHotspots(c.Request.Context(), principalFrom(c), sceneID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, hotspots)
}

// Get handles single hotspot retrieval
// @Summary Get a hotspot
// @Tags hotspots
// @Produce json
// @Param id path string true "Hotspot ID"
// @Success 200 {object} models.Response
// @Failure 404 {object} models.Response
// @Router /api/v1/hotspots/{id} [get]
func (h *HotspotHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "Invalid hotspot ID format")
		return
	}

	hotspot, err := h.hotspotService.GetHotspot(c.Request.Context(), principalFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, hotspot)
}

// Update handles partial hotspot updates
// @Summary Update a hotspot
// @Description Applies the supplied fields; type changes are re-checked against the tier
// @Tags hotspots
// @Accept json
// @Produce json
// @Param id path string true "Hotspot ID"
// @Param request body models.UpdateHotspotRequest true "Hotspot update request"
// @Success 200 {object} models.Response
// @Failure 400 {object} models.Response
// @Failure 404 {object} models.Response
// @Router /api/v1/hotspots/{id} [put]
func (h *HotspotHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "Invalid hotspot ID format")
		return
	}

	var req models.UpdateHotspotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	hotspot, err := h.hotspotService.UpdateHotspot(c.Request.Context(), principalFrom(c), id, &req)
	health.RecordHotspotOperation("update", err == nil)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, hotspot)
}

// Delete handles hotspot deletion
// @Summary Delete a hotspot
// @Tags hotspots
// @Produce json
// @Param id path string true "Hotspot ID"
// @Success 200 {object} models.Response
// @Failure 404 {object} models.Response
// @Router /api/v1/hotspots/{id} [delete]
func (h *HotspotHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "Invalid hotspot ID format")
		return
	}

	err = h.hotspotService.DeleteHotspot(c.Request.Context(), principalFrom(c), id)
	health.RecordHotspotOperation("delete", err == nil)
	if err != nil {
		respondError(c, err)
		return
	}

	respondMessage(c, http.StatusOK, "Hotspot deleted successfully")
}

// Reorder handles full reordering of a scene's hotspots
// @Summary Reorder hotspots
// @Description Assigns sortOrder positions from the supplied id list
// @Tags hotspots
// @Accept json
// @Produce json
// @Param id path string true "Scene ID"
// @Param request body models.ReorderRequest true "Ordered hotspot ids"
// @Success 200 {object} models.Response
// @Failure 400 {object} models.Response
// @Failure 404 {object} models.Response
// @Router /api/v1/scenes/{id}/hotspots/reorder [put]
func (h *HotspotHandler) Reorder(c *gin.Context) {
	sceneID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "Invalid scene ID format")
		return
	}

	var req models.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	err = h.hotspotService.ReorderHotspots(c.Request.Context(), principalFrom(c), sceneID, req.IDs)
	health.RecordHotspotOperation("reorder", err == nil)
	if err != nil {
		respondError(c, err)
		return
	}

	respondMessage(c, http.StatusOK, "Hotspots reordered successfully")
}
