package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tesseract-hub/tour-service/internal/middleware"
	"github.com/tesseract-hub/tour-service/internal/models"
	"github.com/tesseract-hub/tour-service/internal/services"
	"github.com/tesseract-hub/tour-service/internal/validators"
)

// statusForCode maps service error codes to HTTP statuses.
func statusForCode(code string) int {
	switch code {
	case services.CodeNotFound:
		return http.StatusNotFound
	case services.CodePermissionDenied:
		return http.StatusForbidden
	case services.CodeLimitReached, services.CodeLastScene:
		return http.StatusConflict
	case services.CodeMissingRequiredField, services.CodeInvalidType,
		services.CodeInvalidCoordinates, validators.CodeInvalidURL:
		return http.StatusBadRequest
	case services.CodeStoreError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// respondError translates a service error into the uniform envelope. Internal
// causes are never surfaced to the client.
func respondError(c *gin.Context, err error) {
	if svcErr, ok := services.AsServiceError(err); ok {
		c.JSON(statusForCode(svcErr.Code), models.Response{
			Success: false,
			Error: &models.APIError{
				Code:    svcErr.Code,
				Message: svcErr.Message,
				Fields:  svcErr.Fields,
			},
		})
		return
	}
	c.JSON(http.StatusInternalServerError, models.Response{
		Success: false,
		Error: &models.APIError{
			Code:    services.CodeStoreError,
			Message: "internal error",
		},
	})
}

// respondBadRequest reports a malformed request body or parameter.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.Response{
		Success: false,
		Error: &models.APIError{
			Code:    "INVALID_REQUEST",
			Message: message,
		},
	})
}

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, models.Response{Success: true, Data: data})
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, models.Response{Success: true, Message: message})
}

// principalFrom reads the authenticated principal injected by the auth
// middleware. Unauthenticated requests yield the anonymous principal.
func principalFrom(c *gin.Context) services.Principal {
	return middleware.PrincipalFrom(c)
}
