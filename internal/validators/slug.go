package validators

import (
	"regexp"
	"strings"
)

var (
	slugRe        = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	nonSlugCharRe = regexp.MustCompile(`[^a-z0-9]+`)
)

// IsValidSlug reports whether s is a well-formed slug: lowercase letters,
// numbers, and single hyphens, not leading or trailing.
func IsValidSlug(s string) bool {
	return slugRe.MatchString(s)
}

// DeriveSlug builds a base slug from a title: lowercase, non-alphanumeric
// runs collapsed to single hyphens. Falls back to "tour" when nothing
// usable remains. Collision disambiguation is the repository's job.
func DeriveSlug(title string) string {
	s := strings.ToLower(SanitizeText(title))
	s = nonSlugCharRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "tour"
	}
	if len(s) > 200 {
		s = strings.Trim(s[:200], "-")
	}
	return s
}
