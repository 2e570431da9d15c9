package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tesseract-hub/tour-service/internal/health"
	"github.com/tesseract-hub/tour-service/internal/models"
	"github.com/tesseract-hub/tour-service/internal/services"
)

// ExportHandler handles tour export, import and document validation requests
type ExportHandler struct {
	exportService services.ExportService
}

// NewExportHandler creates a new export handler
func NewExportHandler(exportService services.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

// ImportRequest accepts either a single exported tour or a batch. Exactly one
// of Tour and Tours should be set; Tours wins when both are present.
type ImportRequest struct {
	FormatVersion string                 `json:"formatVersion"`
	Tour          *models.TourExportRec  `json:"tour,omitempty"`
	Tours         []models.TourExportRec `json:"tours,omitempty"`
}

// Export handles tour export requests
// @Summary Export a tour
// @Description Returns a self-contained versioned JSON document of the tour graph
// @Tags export
// @Produce json
// @Param id path string true "Tour ID"
// @Success 200 {object} models.TourExport
// @Failure 404 {object} models.Response
// @Router /api/v1/tours/{id}/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "Invalid tour ID format")
		return
	}

	doc, err := h.exportService.Export(c.Request.Context(), principalFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

// Import handles tour import requests
// @Summary Import tours
// @Description Recreates tours from exported documents; quota overruns are clamped with warnings
// @Tags export
// @Accept json
// @Produce json
// @Param request body ImportRequest true "Exported tour document or batch"
// @Success 201 {object} models.Response
// @Failure 400 {object} models.Response
// @Failure 409 {object} models.Response
// @Router /api/v1/tours/import [post]
func (h *ExportHandler) Import(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	principal := principalFrom(c)

	if len(req.Tours) > 0 {
		result := h.exportService.ImportBatch(c.Request.Context(), principal, req.Tours)
		status := http.StatusCreated
		if result.Imported == 0 {
			status = http.StatusConflict
		}
		c.JSON(status, models.Response{Success: result.Imported > 0, Data: result})
		return
	}

	if req.Tour == nil {
		respondBadRequest(c, "Request must contain a tour or a tours array")
		return
	}

	result, err := h.exportService.Import(c.Request.Context(), principal, req.Tour)
	health.RecordTourOperation("import", err == nil)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.Response{
		Success:  true,
		Data:     result,
		Warnings: result.Warnings,
	})
}

// Validate handles strict pre-import validation requests
// @Summary Validate a tour document
// @Description Checks a document without persisting it; out-of-range values are reported, not clamped
// @Tags export
// @Accept json
// @Produce json
// @Param request body ImportRequest true "Tour document to validate"
// @Success 200 {object} models.Response
// @Failure 400 {object} models.Response
// @Router /api/v1/tours/validate [post]
func (h *ExportHandler) Validate(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if req.Tour == nil {
		respondBadRequest(c, "Request must contain a tour")
		return
	}

	if verrs := h.exportService.ValidateDocument(req.Tour); verrs != nil {
		c.JSON(http.StatusOK, models.Response{
			Success: false,
			Error: &models.APIError{
				Code:    verrs.Fields[0].Code,
				Message: "validation failed",
				Fields:  verrs.Fields,
			},
		})
		return
	}

	respondMessage(c, http.StatusOK, "Document is valid")
}
