package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tesseract-hub/tour-service/internal/health"
	"github.com/tesseract-hub/tour-service/internal/models"
	"github.com/tesseract-hub/tour-service/internal/services"
)

// TourHandler handles tour-related HTTP requests
type TourHandler struct {
	tourService services.TourService
}

// NewTourHandler creates a new tour handler
func NewTourHandler(tourService services.TourService) *TourHandler {
	return &TourHandler{tourService: tourService}
}

// Create handles tour creation requests
// @Summary Create a tour
// @Description Creates a new tour in draft status for the authenticated user
// @Tags tours
// @Accept json
// @Produce json
// @Param request body models.CreateTourRequest true "Tour creation request"
// @Success 201 {object} models.Response
// @Failure 400 {object} models.Response
// @Failure 409 {object} models.Response
// @Router /api/v1/tours [post]
func (h *TourHandler) Create(c *gin.Context) {
	var req models.CreateTourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	tour, err := h.tourService.CreateTour(c.Request.Context(), principalFrom(c), &req)
	health.RecordTourOperation("create", err == nil)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, tour)
}

// List handles paginated tour listing for the authenticated owner
// @Summary List tours
// @Description Lists the caller's tours, newest first
// @Tags tours
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} models.ListResponse
// @Router /api/v1/tours [get]
func (h *TourHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	tours, total, err := h.tourService.ListTours(c.Request.Context(), principalFrom(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	c.JSON(http.StatusOK, models.ListResponse{
		Success: true,
		Data:    tours,
		Pagination: &models.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	})
}

// Get handles single tour retrieval
// @Summary Get a tour
// @Description Returns one tour owned by the caller
// @Tags tours
// @Produce json
// @Param id path string true "Tour ID"
// @Success 200 {object} models.Response
// @Failure 404 {object} models.Response
// @Router /api/v1/tours/{id} [get]
func (h *TourHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "Invalid tour ID format")
		return
	}

	tour, err := h.tourService.GetTour(c.Request.Context(), principalFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, tour)
}

// Update handles partial tour updates
// @Summary Update a tour
// @Description Applies the supplied fields; omitted fields are left unchanged
// @Tags tours
// @Accept json
// @Produce json
// @Param id path string true "Tour ID"
// @Param request body models.UpdateTourRequest true "Tour update request"
// @Success 200 {object} models.Response
// @Failure 400 {object} models.Response
// @Failure 404 {object} models.Response
// @Router /api/v1/tours/{id} [put]
func (h *TourHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "Invalid tour ID format")
		return
	}

	var req models.UpdateTourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	tour, err := h.tourService.UpdateTour(c.Request.Context(), principalFrom(c), id, &req)
	health.RecordTourOperation("update", err == nil)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, tour)
}

// Delete handles tour deletion with full cascade
// @Summary Delete a tour
// @Description Deletes the tour and all of its scenes and hotspots
// @Tags tours
// @Produce json
// @Param id path string true "Tour ID"
// @Success 200 {object} models.Response
// @Failure 404 {object} models.Response
// @Router /api/v1/tours/{id} [delete]
func (h *TourHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "Invalid tour ID format")
		return
	}

	err = h.tourService.DeleteTour(c.Request.Context(), principalFrom(c), id)
	health.RecordTourOperation("delete", err == nil)
	if err != nil {
		respondError(c, err)
		return
	}

	respondMessage(c, http.StatusOK, "Tour deleted successfully")
}
