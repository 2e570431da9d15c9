package services

import (
	"errors"
	"fmt"

	"github.com/tesseract-hub/tour-service/internal/models"
	"github.com/tesseract-hub/tour-service/internal/validators"
)

// Error codes surfaced across the API boundary.
const (
	CodeMissingRequiredField = validators.CodeMissingRequiredField
	CodeInvalidType          = validators.CodeInvalidType
	CodeInvalidCoordinates   = validators.CodeInvalidCoordinates
	CodeNotFound             = "NOT_FOUND"
	CodePermissionDenied     = "PERMISSION_DENIED"
	CodeLimitReached         = "LIMIT_REACHED"
	CodeLastScene            = "LAST_SCENE_UNDELETABLE"
	CodeStoreError           = "STORE_ERROR"
)

// ServiceError is the error type crossing the service boundary. Cause, when
// set, is for logging only and never exposed to untrusted callers.
type ServiceError struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  []models.FieldError `json:"fields,omitempty"`
	Cause   error               `json:"-"`
}

func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// AsServiceError extracts a ServiceError from an error chain.
func AsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr, true
	}
	return nil, false
}

// ErrNotFound reports a missing (or deliberately hidden) resource.
func ErrNotFound(resource string) *ServiceError {
	return &ServiceError{Code: CodeNotFound, Message: resource + " not found"}
}

// ErrPermissionDenied reports a mutation attempted by a caller who is
// neither the owner nor an administrator.
func ErrPermissionDenied() *ServiceError {
	return &ServiceError{Code: CodePermissionDenied, Message: "you do not have permission to perform this action"}
}

// ErrLimitReached reports a tier quota violation on a single-item create.
func ErrLimitReached(message string) *ServiceError {
	return &ServiceError{Code: CodeLimitReached, Message: message}
}

// ErrLastScene reports an attempt to delete the only scene of a tour.
func ErrLastScene() *ServiceError {
	return &ServiceError{Code: CodeLastScene, Message: "the last scene of a tour cannot be deleted"}
}

// ErrStore wraps a persistence failure. The underlying error is kept for
// logging but callers only see the generic message.
func ErrStore(cause error) *ServiceError {
	return &ServiceError{Code: CodeStoreError, Message: "storage operation failed", Cause: cause}
}

// ErrValidation converts accumulated field errors into a ServiceError. The
// envelope code is taken from the first field failure.
func ErrValidation(verrs *validators.ValidationErrors) *ServiceError {
	code := CodeMissingRequiredField
	if len(verrs.Fields) > 0 {
		code = verrs.Fields[0].Code
	}
	return &ServiceError{
		Code:    code,
		Message: "validation failed: " + verrs.Error(),
		Fields:  verrs.Fields,
	}
}

// ErrInvalidType reports a hotspot type outside the tier's allowed subset.
func ErrInvalidType(message string) *ServiceError {
	return &ServiceError{Code: CodeInvalidType, Message: message}
}
