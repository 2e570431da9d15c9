// Package limits implements tier-based quota enforcement. Single-item
// creates use the reject policy (a specific "limit reached" error at the
// API); bulk saves and imports use the clamp policy (truncate to the quota,
// coerce disallowed hotspot types, and warn instead of failing).
package limits

import (
	"fmt"

	"github.com/tesseract-hub/tour-service/internal/config"
	"github.com/tesseract-hub/tour-service/internal/models"
)

// Tier is a named bundle of quotas and allowed feature subsets.
// A limit of zero or less means unlimited.
type Tier struct {
	Name                string
	MaxTours            int
	MaxScenesPerTour    int
	MaxHotspotsPerScene int
	AllowedHotspotTypes map[models.HotspotType]bool
	QuotaScope          string
}

// FromConfig builds the active tier from deployment configuration.
func FromConfig(cfg config.TierConfig) Tier {
	allowed := make(map[models.HotspotType]bool, len(cfg.AllowedHotspotTypes))
	for _, t := range cfg.AllowedHotspotTypes {
		ht := models.HotspotType(t)
		if ht.IsValid() {
			allowed[ht] = true
		}
	}
	if len(allowed) == 0 {
		allowed[models.DefaultHotspotType] = true
	}
	return Tier{
		Name:                cfg.Name,
		MaxTours:            cfg.MaxTours,
		MaxScenesPerTour:    cfg.MaxScenesPerTour,
		MaxHotspotsPerScene: cfg.MaxHotspotsPerScene,
		AllowedHotspotTypes: allowed,
		QuotaScope:          cfg.QuotaScope,
	}
}

// GlobalQuota reports whether the tour quota applies site-wide rather than
// per owner.
func (t Tier) GlobalQuota() bool {
	return t.QuotaScope == "global"
}

// CanAddTour reports whether one more tour fits the quota.
func (t Tier) CanAddTour(current int64) bool {
	return t.MaxTours <= 0 || current < int64(t.MaxTours)
}

// CanAddScene reports whether one more scene fits the per-tour quota.
func (t Tier) CanAddScene(current int64) bool {
	return t.MaxScenesPerTour <= 0 || current < int64(t.MaxScenesPerTour)
}

// CanAddHotspot reports whether one more hotspot fits the per-scene quota.
func (t Tier) CanAddHotspot(current int64) bool {
	return t.MaxHotspotsPerScene <= 0 || current < int64(t.MaxHotspotsPerScene)
}

// TypeAllowed reports whether the hotspot type is permitted by the tier.
func (t Tier) TypeAllowed(ht models.HotspotType) bool {
	return t.AllowedHotspotTypes[ht]
}

// DefaultAllowedType returns the fallback type used when coercing a
// disallowed hotspot type on bulk operations.
func (t Tier) DefaultAllowedType() models.HotspotType {
	if t.AllowedHotspotTypes[models.DefaultHotspotType] {
		return models.DefaultHotspotType
	}
	for _, candidate := range []models.HotspotType{
		models.HotspotTypeInfo, models.HotspotTypeLink, models.HotspotTypeScene,
		models.HotspotTypeImage, models.HotspotTypeVideo,
	} {
		if t.AllowedHotspotTypes[candidate] {
			return candidate
		}
	}
	return models.DefaultHotspotType
}

// EnforceTourGraph applies the clamp policy to a whole tour graph: excess
// scenes and hotspots are truncated (first N in existing order kept) and
// disallowed hotspot types are coerced, each with a human-readable warning.
// The graph is mutated in place and returned together with the warnings.
func (t Tier) EnforceTourGraph(tour *models.TourExportRec) []string {
	var warnings []string

	if t.MaxScenesPerTour > 0 && len(tour.Scenes) > t.MaxScenesPerTour {
		for _, dropped := range tour.Scenes[t.MaxScenesPerTour:] {
			warnings = append(warnings, fmt.Sprintf(
				"scene %q dropped: tour exceeds the %d-scene limit", dropped.Title, t.MaxScenesPerTour))
		}
		tour.Scenes = tour.Scenes[:t.MaxScenesPerTour]
	}

	for si := range tour.Scenes {
		scene := &tour.Scenes[si]

		if t.MaxHotspotsPerScene > 0 && len(scene.Hotspots) > t.MaxHotspotsPerScene {
			for range scene.Hotspots[t.MaxHotspotsPerScene:] {
				warnings = append(warnings, fmt.Sprintf(
					"hotspot dropped from scene %q: scene exceeds the %d-hotspot limit", scene.Title, t.MaxHotspotsPerScene))
			}
			scene.Hotspots = scene.Hotspots[:t.MaxHotspotsPerScene]
		}

		for hi := range scene.Hotspots {
			h := &scene.Hotspots[hi]
			ht := models.HotspotType(h.Type)
			if !ht.IsValid() {
				// Unknown types are the sanitizer's concern; the tier only
				// polices valid-but-disallowed types.
				continue
			}
			if !t.TypeAllowed(ht) {
				fallback := t.DefaultAllowedType()
				warnings = append(warnings, fmt.Sprintf(
					"hotspot type %q in scene %q is not available on the %s tier, converted to %q",
					ht, scene.Title, t.Name, fallback))
				h.Type = string(fallback)
			}
		}
	}

	return warnings
}
