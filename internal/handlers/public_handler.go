package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tesseract-hub/tour-service/internal/services"
)

// PublicHandler serves the read-only viewer endpoint
type PublicHandler struct {
	publicService services.PublicService
}

// NewPublicHandler creates a new public handler
func NewPublicHandler(publicService services.PublicService) *PublicHandler {
	return &PublicHandler{publicService: publicService}
}

// Get handles public tour document requests
// @Summary Get a public tour document
// @Description Returns the viewer document for a published tour, addressed by id or slug
// @Tags public
// @Produce json
// @Param idOrSlug path string true "Tour ID or slug"
// @Success 200 {object} models.Response
// @Failure 404 {object} models.Response
// @Router /api/v1/public/tours/{idOrSlug} [get]
func (h *PublicHandler) Get(c *gin.Context) {
	doc, err := h.publicService.GetPublicTour(c.Request.Context(), principalFrom(c), c.Param("idOrSlug"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, doc)
}
