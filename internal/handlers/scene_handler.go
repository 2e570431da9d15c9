package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tesseract-hub/tour-service/internal/health"
	"github.com/tesseract-hub/tour-service/internal/models"
	"github.com/tesseract-hub/tour-service/internal/services"
)

// SceneHandler handles scene-related HTTP requests
type SceneHandler struct {
	sceneService services.SceneService
}

// NewSceneHandler creates a new scene handler
func NewSceneHandler(sceneService services.SceneService) *SceneHandler {
	return &SceneHandler{sceneService: sceneService}
}

// Create handles scene creation requests
// @Summary Add a scene to a tour
// @Description Creates a scene; the first scene of a tour becomes the default
// @Tags scenes
// @Accept json
// @Produce json
// @Param id path string true "Tour ID"
// @Param request body models.CreateSceneRequest true "Scene creation request"
// @Success 201 {object} models.Response
// @Failure 400 {object} models.Response
// @Failure 404 {object} models.Response
// @Failure 409 {object} models.Response
// @Router /api/v1/tours/{id}/scenes [post]
func (h *SceneHandler) Create(c *gin.Context) {
	tourID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "Invalid tour ID format")
		return
	}

	var req models.CreateSceneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	scene, err := h.sceneService.CreateScene(c.Request.Context(), principalFrom(c), tourID, &req)
	health.RecordSceneOperation("create", err == nil)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, scene)
}

// List handles scene listing for one tour
// @Summary List scenes
// @Description Lists a tour's scenes ordered by sortOrder
// @Tags scenes
// @Produce json
// @Param id path string true "Tour ID"
// @Success 200 {object} models.Response
// @Failure 404 {object} models.Response
// @Router /api/v1/tours/{id}/scenes [get]
func (h *SceneHandler) List(c *gin.Context) {
	tourID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "Invalid tour ID format")
		return
	}

	scenes, err := h.sceneService.ListScenes(c.Request.Context(), principalFrom(c), tourID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, scenes)
}

// Get handles single scene retrieval
// @Summary Get a scene
// @Tags scenes
// @Produce json
// @Param id path string true "Scene ID"
// @Success 200 {object} models.Response
// @Failure 404 {object} models.Response
// @Router /api/v1/scenes/{id} [get]
func (h *SceneHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "Invalid scene ID format")
		return
	}

	scene, err := h.sceneService.GetScene(c.Request.Context(), principalFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, scene)
}

// Update handles partial scene updates
// @Summary Update a scene
// @Description Applies the supplied fields; out-of-range view angles are clamped
// @Tags scenes
// @Accept json
// @Produce json
// @Param id path string true "Scene ID"
// @Param request body models.UpdateSceneRequest true "Scene update request"
// @Success 200 {object} models.Response
// @Failure 400 {object} models.Response
// @Failure 404 {object} models.Response
// @Router /api/v1/scenes/{id} [put]
func (h *SceneHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "Invalid scene ID format")
		return
	}

	var req models.UpdateSceneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	scene, err := h.sceneService.UpdateScene(c.Request.Context(), principalFrom(c), id, &req)
	health.RecordSceneOperation("update", err == nil)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, scene)
}

// Delete handles scene deletion
// @Summary Delete a scene
// @Description Deletes a scene and its hotspots; the last scene of a tour cannot be deleted
// @Tags scenes
// @Produce json
// @Param id path string true "Scene ID"
// @Success 200 {object} models.Response
// @Failure 404 {object} models.Response
// @Failure 409 {object} models.Response
// @Router /api/v1/scenes/{id} [delete]
func (h *SceneHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "Invalid scene ID format")
		return
	}

	err = h.sceneService.DeleteScene(c.Request.Context(), principalFrom(c), id)
	health.RecordSceneOperation("delete", err == nil)
	if err != nil {
		respondError(c, err)
		return
	}

	respondMessage(c, http.StatusOK, "Scene deleted successfully")
}

// Reorder handles full reordering of a tour's scenes
// @Summary Reorder scenes
// @Description Assigns sortOrder positions from the supplied id list
// @Tags scenes
// @Accept json
// @Produce json
// @Param id path string true "Tour ID"
// @Param request body models.ReorderRequest true "Ordered scene ids"
// @Success 200 {object} models.Response
// @Failure 400 {object} models.Response
// @Failure 404 {object} models.Response
// @Router /api/v1/tours/{id}/scenes/reorder [put]
func (h *SceneHandler) Reorder(c *gin.Context) {
	tourID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "Invalid tour ID format")
		return
	}

	var req models.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	err = h.sceneService.ReorderScenes(c.Request.Context(), principalFrom(c), tourID, req.IDs)
	health.RecordSceneOperation("reorder", err == nil)
	if err != nil {
		respondError(c, err)
		return
	}

	respondMessage(c, http.StatusOK, "Scenes reordered successfully")
}

// SetDefault handles switching a tour's default scene
// @Summary Set the default scene
// @Description Marks one scene as the tour's entry point
// @Tags scenes
// @Accept json
// @Produce json
// @Param id path string true "Tour ID"
// @Param request body models.SetDefaultSceneRequest true "Scene to make default"
// @Success 200 {object} models.Response
// @Failure 400 {object} models.Response
// @Failure 404 {object} models.Response
// @Router /api/v1/tours/{id}/default-scene [put]
func (h *SceneHandler) SetDefault(c *gin.Context) {
	tourID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "Invalid tour ID format")
		return
	}

	var req models.SetDefaultSceneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	err = h.sceneService.SetDefaultScene(c.Request.Context(), principalFrom(c), tourID, req.SceneID)
	health.RecordSceneOperation("set_default", err == nil)
	if err != nil {
		respondError(c, err)
		return
	}

	respondMessage(c, http.StatusOK, "Default scene updated successfully")
}
