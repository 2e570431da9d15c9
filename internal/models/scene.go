package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SceneImageType identifies the projection of a scene's panoramic image.
type SceneImageType string

const (
	ImageTypeEquirectangular SceneImageType = "equirectangular"
	ImageTypeCubemap         SceneImageType = "cubemap"
	ImageTypeSphere          SceneImageType = "sphere"
	ImageTypeCube            SceneImageType = "cube"
	ImageTypeFlat            SceneImageType = "flat"
	ImageTypeLittlePlanet    SceneImageType = "little-planet"

	// DefaultImageType is used when an unknown projection is submitted.
	DefaultImageType = ImageTypeEquirectangular
)

// IsValid reports whether the image type is one of the known projections.
func (t SceneImageType) IsValid() bool {
	switch t {
	case ImageTypeEquirectangular, ImageTypeCubemap, ImageTypeSphere,
		ImageTypeCube, ImageTypeFlat, ImageTypeLittlePlanet:
		return true
	}
	return false
}

// Camera orientation bounds. Out-of-range values are clamped on write.
const (
	YawMin   = -180.0
	YawMax   = 180.0
	PitchMin = -90.0
	PitchMax = 90.0
	FovMin   = 30.0
	FovMax   = 120.0

	// DefaultFov is the initial field of view when none is supplied.
	DefaultFov = 90.0
)

// Scene is one panoramic viewpoint within a tour. TourID is immutable.
// Exactly one scene per tour is the default once the tour has any scenes.
type Scene struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TourID      uuid.UUID      `json:"tourId" gorm:"type:uuid;not null;index"`
	Title       string         `json:"title" gorm:"type:varchar(255);not null"`
	Description string         `json:"description" gorm:"type:text"`
	ImageID     *uuid.UUID     `json:"imageId,omitempty" gorm:"type:uuid"`
	ImageURL    *string        `json:"imageUrl,omitempty" gorm:"type:varchar(2048)"`
	ImageType   SceneImageType `json:"imageType" gorm:"type:varchar(30);not null;default:'equirectangular'"`
	Yaw         float64        `json:"yaw" gorm:"not null;default:0"`
	Pitch       float64        `json:"pitch" gorm:"not null;default:0"`
	Fov         float64        `json:"fov" gorm:"not null;default:90"`
	IsDefault   bool           `json:"isDefault" gorm:"not null;default:false;index"`
	SortOrder   int            `json:"sortOrder" gorm:"not null;default:0;index"`
	Settings    datatypes.JSON `json:"settings" gorm:"type:jsonb"`
	Hotspots    []Hotspot      `json:"hotspots,omitempty" gorm:"foreignKey:SceneID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time      `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `json:"updatedAt" gorm:"autoUpdateTime"`
}

// ==========================================
// REQUEST MODELS
// ==========================================

type CreateSceneRequest struct {
	Title       string                 `json:"title"`
	Description string                 `json:"description,omitempty"`
	ImageID     *uuid.UUID             `json:"imageId,omitempty"`
	ImageURL    *string                `json:"imageUrl,omitempty"`
	ImageType   string                 `json:"imageType,omitempty"`
	Yaw         *float64               `json:"yaw,omitempty"`
	Pitch       *float64               `json:"pitch,omitempty"`
	Fov         *float64               `json:"fov,omitempty"`
	SortOrder   *int                   `json:"sortOrder,omitempty"`
	Settings    map[string]interface{} `json:"settings,omitempty"`
}

type UpdateSceneRequest struct {
	Title       *string                `json:"title,omitempty"`
	Description *string                `json:"description,omitempty"`
	ImageID     *uuid.UUID             `json:"imageId,omitempty"`
	ImageURL    *string                `json:"imageUrl,omitempty"`
	ImageType   *string                `json:"imageType,omitempty"`
	Yaw         *float64               `json:"yaw,omitempty"`
	Pitch       *float64               `json:"pitch,omitempty"`
	Fov         *float64               `json:"fov,omitempty"`
	Settings    map[string]interface{} `json:"settings,omitempty"`
}

// ReorderRequest carries the full desired ordering of child ids.
// Positions are assigned 1-based; ids not belonging to the parent are ignored.
type ReorderRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

type SetDefaultSceneRequest struct {
	SceneID uuid.UUID `json:"sceneId"`
}
