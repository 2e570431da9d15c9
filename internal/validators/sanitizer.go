package validators

import (
	"regexp"
	"strings"

	"github.com/tesseract-hub/tour-service/internal/models"
)

// Sanitization never fails; it coerces. Plain-text fields lose all markup,
// rich-text fields keep a constrained safe subset, coordinates are clamped,
// unknown enum values fall back to documented defaults.

var (
	tagRe     = regexp.MustCompile(`(?s)<[^>]*>`)
	scriptRe  = regexp.MustCompile(`(?is)<(script|style)\b[^>]*>.*?</(script|style)>`)
	commentRe = regexp.MustCompile(`(?s)<!--.*?-->`)

	// Safe subset for rich-text fields: basic formatting plus anchors.
	allowedTagRe = regexp.MustCompile(`(?i)^</?(b|i|em|strong|u|p|br|ul|ol|li)\s*/?>$`)
	anchorOpenRe = regexp.MustCompile(`(?i)^<a\s+href="(https?://[^"<>]*)"\s*>$`)
	anchorEndRe  = regexp.MustCompile(`(?i)^</a\s*>$`)

	eventAttrRe = regexp.MustCompile(`(?i)\son\w+\s*=`)
)

// Clamp coerces v into [min, max].
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// ClampYaw coerces yaw into [-180, 180].
func ClampYaw(v float64) float64 { return Clamp(v, models.YawMin, models.YawMax) }

// ClampPitch coerces pitch into [-90, 90].
func ClampPitch(v float64) float64 { return Clamp(v, models.PitchMin, models.PitchMax) }

// ClampFov coerces field-of-view into [30, 120].
func ClampFov(v float64) float64 { return Clamp(v, models.FovMin, models.FovMax) }

// SanitizeText strips all markup from a plain-text field and trims whitespace.
func SanitizeText(s string) string {
	s = scriptRe.ReplaceAllString(s, "")
	s = commentRe.ReplaceAllString(s, "")
	s = tagRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// SanitizeRichText filters a rich-text field down to a safe HTML subset:
// basic formatting tags and http(s) anchors. Everything else, including
// event handler attributes and script/style blocks, is removed.
func SanitizeRichText(s string) string {
	s = scriptRe.ReplaceAllString(s, "")
	s = commentRe.ReplaceAllString(s, "")
	s = tagRe.ReplaceAllStringFunc(s, func(tag string) string {
		if eventAttrRe.MatchString(tag) {
			return ""
		}
		if allowedTagRe.MatchString(tag) {
			return tag
		}
		if m := anchorOpenRe.FindStringSubmatch(tag); m != nil {
			return `<a href="` + m[1] + `">`
		}
		if anchorEndRe.MatchString(tag) {
			return "</a>"
		}
		return ""
	})
	return strings.TrimSpace(s)
}

// SanitizeImageType coerces unknown projections to the default.
func SanitizeImageType(s string) models.SceneImageType {
	t := models.SceneImageType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return models.DefaultImageType
	}
	return t
}

// SanitizeHotspotType coerces unknown hotspot types to the default.
func SanitizeHotspotType(s string) models.HotspotType {
	t := models.HotspotType(strings.ToLower(strings.TrimSpace(s)))
	if t == "url" {
		// Accepted alias for link.
		return models.HotspotTypeLink
	}
	if !t.IsValid() {
		return models.DefaultHotspotType
	}
	return t
}

// SanitizeIcon coerces icon names outside the vocabulary to the default.
func SanitizeIcon(s string) string {
	icon := strings.ToLower(strings.TrimSpace(s))
	if !models.HotspotIcons[icon] {
		return models.DefaultHotspotIcon
	}
	return icon
}

// SanitizeURL trims and validates a URL field; invalid values become nil.
func SanitizeURL(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" || !IsValidURL(trimmed) {
		return nil
	}
	return &trimmed
}

// SanitizeOptionalText strips markup from an optional plain-text field;
// empty results become nil.
func SanitizeOptionalText(s *string) *string {
	if s == nil {
		return nil
	}
	clean := SanitizeText(*s)
	if clean == "" {
		return nil
	}
	return &clean
}

// SanitizeOptionalRichText filters an optional rich-text field; empty
// results become nil.
func SanitizeOptionalRichText(s *string) *string {
	if s == nil {
		return nil
	}
	clean := SanitizeRichText(*s)
	if clean == "" {
		return nil
	}
	return &clean
}
