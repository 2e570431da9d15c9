package models

import (
	"time"

	"github.com/google/uuid"
)

// ==========================================
// PUBLIC READ DOCUMENT
// ==========================================
//
// TourDocument is the read-only shape consumed by the 360° viewer frontend.
// Scenes and hotspots are pre-ordered by sortOrder then id. Optional fields
// are always present, null when absent.

type TourDocument struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Description *string         `json:"description"`
	Slug        string          `json:"slug"`
	Settings    interface{}     `json:"settings"`
	Scenes      []SceneDocument `json:"scenes"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type SceneDocument struct {
	ID          uuid.UUID         `json:"id"`
	Title       string            `json:"title"`
	Description *string           `json:"description"`
	Image       *string           `json:"image"`
	ImageID     *uuid.UUID        `json:"imageId"`
	ImageType   SceneImageType    `json:"imageType"`
	InitView    InitView          `json:"initView"`
	IsDefault   bool              `json:"isDefault"`
	Settings    interface{}       `json:"settings"`
	Hotspots    []HotspotDocument `json:"hotspots"`
}

type InitView struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
	Fov   float64 `json:"fov"`
}

type HotspotDocument struct {
	ID            uuid.UUID   `json:"id"`
	Type          HotspotType `json:"type"`
	Yaw           float64     `json:"yaw"`
	Pitch         float64     `json:"pitch"`
	Title         *string     `json:"title"`
	Content       *string     `json:"content"`
	URL           *string     `json:"url"`
	TargetSceneID *uuid.UUID  `json:"targetSceneId"`
	Icon          string      `json:"icon"`
	Settings      interface{} `json:"settings"`
}

// ==========================================
// EXPORT / IMPORT DOCUMENTS
// ==========================================

// ExportFormatVersion tags exported documents so future readers can migrate.
const ExportFormatVersion = "1.0"

// TourExport is a self-contained snapshot of one tour graph, sufficient to
// reconstruct the tour elsewhere. Ids are informational; import generates
// fresh ones and remaps scene-navigation targets.
type TourExport struct {
	FormatVersion string        `json:"formatVersion"`
	ExportedAt    time.Time     `json:"exportedAt"`
	Tour          TourExportRec `json:"tour"`
}

// TourBatchExport bundles multiple tours in one document.
type TourBatchExport struct {
	FormatVersion string          `json:"formatVersion"`
	ExportedAt    time.Time       `json:"exportedAt"`
	Tours         []TourExportRec `json:"tours"`
}

type TourExportRec struct {
	ID          uuid.UUID              `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Slug        string                 `json:"slug"`
	Status      TourStatus             `json:"status"`
	Settings    map[string]interface{} `json:"settings"`
	Scenes      []SceneExportRec       `json:"scenes"`
}

type SceneExportRec struct {
	ID          uuid.UUID              `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	ImageID     *uuid.UUID             `json:"imageId"`
	ImageURL    *string                `json:"imageUrl"`
	ImageType   string                 `json:"imageType"`
	Yaw         float64                `json:"yaw"`
	Pitch       float64                `json:"pitch"`
	Fov         float64                `json:"fov"`
	IsDefault   bool                   `json:"isDefault"`
	SortOrder   int                    `json:"sortOrder"`
	Settings    map[string]interface{} `json:"settings"`
	Hotspots    []HotspotExportRec     `json:"hotspots"`
}

type HotspotExportRec struct {
	ID            uuid.UUID              `json:"id"`
	Type          string                 `json:"type"`
	Title         *string                `json:"title"`
	Content       *string                `json:"content"`
	URL           *string                `json:"url"`
	TargetSceneID *uuid.UUID             `json:"targetSceneId"`
	Icon          string                 `json:"icon"`
	Yaw           float64                `json:"yaw"`
	Pitch         float64                `json:"pitch"`
	SortOrder     int                    `json:"sortOrder"`
	Settings      map[string]interface{} `json:"settings"`
}

// ImportResult reports the outcome of importing one tour.
type ImportResult struct {
	TourID   uuid.UUID `json:"tourId"`
	Slug     string    `json:"slug"`
	Warnings []string  `json:"warnings"`
}

// BatchImportResult aggregates per-tour outcomes; one failed tour does not
// abort the batch.
type BatchImportResult struct {
	Imported int            `json:"imported"`
	Failed   int            `json:"failed"`
	Results  []ImportResult `json:"results"`
	Errors   []string       `json:"errors"`
}
