package validators

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tesseract-hub/tour-service/internal/models"
)

// Policy selects how out-of-range coordinate values are treated.
// Clamp is the write-path default: values are coerced to the nearest bound
// during sanitization. Reject is used by strict pre-check endpoints and
// fails validation instead.
type Policy int

const (
	PolicyClamp Policy = iota
	PolicyReject
)

// Field error codes surfaced across the API boundary.
const (
	CodeMissingRequiredField = "MISSING_REQUIRED_FIELD"
	CodeInvalidType          = "INVALID_TYPE"
	CodeInvalidCoordinates   = "INVALID_COORDINATES"
	CodeInvalidURL           = "INVALID_URL"
)

// ValidationErrors accumulates field-level failures; a single operation can
// report several at once.
type ValidationErrors struct {
	Fields []models.FieldError
}

func (e *ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return strings.Join(msgs, "; ")
}

// Add appends one field error.
func (e *ValidationErrors) Add(field, code, message string) {
	e.Fields = append(e.Fields, models.FieldError{Field: field, Code: code, Message: message})
}

// HasErrors reports whether any field failed.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Fields) > 0
}

// ErrOrNil returns the collected errors, or nil if everything passed.
func (e *ValidationErrors) ErrOrNil() *ValidationErrors {
	if e.HasErrors() {
		return e
	}
	return nil
}

// ==========================================
// TOUR
// ==========================================

// ValidateTour checks a tour creation payload. Title is the only hard
// requirement; slug format is checked when a slug is supplied explicitly.
func ValidateTour(req *models.CreateTourRequest) *ValidationErrors {
	errs := &ValidationErrors{}
	// Check the title as it will be stored; markup-only input sanitizes to
	// the empty string.
	if SanitizeText(req.Title) == "" {
		errs.Add("title", CodeMissingRequiredField, "title is required")
	}
	if req.Slug != "" && !IsValidSlug(req.Slug) {
		errs.Add("slug", CodeInvalidType, "slug must contain only lowercase letters, numbers, and hyphens")
	}
	return errs.ErrOrNil()
}

// ValidateTourUpdate checks a tour update payload.
func ValidateTourUpdate(req *models.UpdateTourRequest) *ValidationErrors {
	errs := &ValidationErrors{}
	if req.Title != nil && SanitizeText(*req.Title) == "" {
		errs.Add("title", CodeMissingRequiredField, "title must not be empty")
	}
	if req.Status != nil && !req.Status.IsValid() {
		errs.Add("status", CodeInvalidType, fmt.Sprintf("unknown status %q", *req.Status))
	}
	return errs.ErrOrNil()
}

// ==========================================
// SCENE
// ==========================================

func checkRange(errs *ValidationErrors, field string, v, min, max float64) {
	if v < min || v > max {
		errs.Add(field, CodeInvalidCoordinates,
			fmt.Sprintf("%s must be between %.0f and %.0f", field, min, max))
	}
}

// ValidateScene checks a scene creation payload. Under PolicyReject,
// out-of-range yaw/pitch/fov fail validation; under PolicyClamp they pass
// and are coerced by SanitizeScene.
func ValidateScene(req *models.CreateSceneRequest, policy Policy) *ValidationErrors {
	errs := &ValidationErrors{}
	if SanitizeText(req.Title) == "" {
		errs.Add("title", CodeMissingRequiredField, "title is required")
	}
	if req.ImageID == nil && (req.ImageURL == nil || strings.TrimSpace(*req.ImageURL) == "") {
		errs.Add("image", CodeMissingRequiredField, "an image id or image url is required")
	}
	if req.ImageURL != nil && strings.TrimSpace(*req.ImageURL) != "" && !IsValidURL(*req.ImageURL) {
		errs.Add("imageUrl", CodeInvalidURL, "image url is not a valid http(s) url")
	}
	if policy == PolicyReject {
		if req.Yaw != nil {
			checkRange(errs, "yaw", *req.Yaw, models.YawMin, models.YawMax)
		}
		if req.Pitch != nil {
			checkRange(errs, "pitch", *req.Pitch, models.PitchMin, models.PitchMax)
		}
		if req.Fov != nil {
			checkRange(errs, "fov", *req.Fov, models.FovMin, models.FovMax)
		}
	}
	return errs.ErrOrNil()
}

// ValidateSceneUpdate checks a scene update payload.
func ValidateSceneUpdate(req *models.UpdateSceneRequest, policy Policy) *ValidationErrors {
	errs := &ValidationErrors{}
	if req.Title != nil && SanitizeText(*req.Title) == "" {
		errs.Add("title", CodeMissingRequiredField, "title must not be empty")
	}
	if req.ImageURL != nil && strings.TrimSpace(*req.ImageURL) != "" && !IsValidURL(*req.ImageURL) {
		errs.Add("imageUrl", CodeInvalidURL, "image url is not a valid http(s) url")
	}
	if policy == PolicyReject {
		if req.Yaw != nil {
			checkRange(errs, "yaw", *req.Yaw, models.YawMin, models.YawMax)
		}
		if req.Pitch != nil {
			checkRange(errs, "pitch", *req.Pitch, models.PitchMin, models.PitchMax)
		}
		if req.Fov != nil {
			checkRange(errs, "fov", *req.Fov, models.FovMin, models.FovMax)
		}
	}
	return errs.ErrOrNil()
}

// ==========================================
// HOTSPOT
// ==========================================

// ValidateHotspot checks a hotspot creation payload, including the
// type-specific required fields: link needs a well-formed url, scene needs a
// target scene id, image and video need a media url. Referential existence
// of the target scene is checked by the service layer, not here.
func ValidateHotspot(req *models.CreateHotspotRequest, policy Policy) *ValidationErrors {
	errs := &ValidationErrors{}

	// Unknown types fall back to the default during sanitization, so the
	// type-specific checks below use the effective type.
	effective := SanitizeHotspotType(req.Type)

	switch effective {
	case models.HotspotTypeLink, models.HotspotTypeImage, models.HotspotTypeVideo:
		if req.URL == nil || strings.TrimSpace(*req.URL) == "" {
			errs.Add("url", CodeMissingRequiredField,
				fmt.Sprintf("url is required for %s hotspots", effective))
		} else if !IsValidURL(*req.URL) {
			errs.Add("url", CodeInvalidURL, "url is not a valid http(s) url")
		}
	case models.HotspotTypeScene:
		if req.TargetSceneID == nil {
			errs.Add("targetSceneId", CodeMissingRequiredField,
				"target scene id is required for scene hotspots")
		}
	}

	if policy == PolicyReject {
		checkRange(errs, "yaw", req.Yaw, models.YawMin, models.YawMax)
		checkRange(errs, "pitch", req.Pitch, models.PitchMin, models.PitchMax)
	}

	return errs.ErrOrNil()
}

// ValidateHotspotUpdate checks a hotspot update payload.
func ValidateHotspotUpdate(req *models.UpdateHotspotRequest, policy Policy) *ValidationErrors {
	errs := &ValidationErrors{}
	if req.URL != nil && strings.TrimSpace(*req.URL) != "" && !IsValidURL(*req.URL) {
		errs.Add("url", CodeInvalidURL, "url is not a valid http(s) url")
	}
	if policy == PolicyReject {
		if req.Yaw != nil {
			checkRange(errs, "yaw", *req.Yaw, models.YawMin, models.YawMax)
		}
		if req.Pitch != nil {
			checkRange(errs, "pitch", *req.Pitch, models.PitchMin, models.PitchMax)
		}
	}
	return errs.ErrOrNil()
}

// IsValidURL reports whether s parses as an absolute http or https URL.
func IsValidURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
