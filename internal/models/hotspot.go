package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// HotspotType identifies what a hotspot does when activated.
type HotspotType string

const (
	HotspotTypeInfo  HotspotType = "info"
	HotspotTypeLink  HotspotType = "link"
	HotspotTypeScene HotspotType = "scene"
	HotspotTypeImage HotspotType = "image"
	HotspotTypeVideo HotspotType = "video"

	// DefaultHotspotType is used when an unknown type is submitted.
	DefaultHotspotType = HotspotTypeInfo
)

// IsValid reports whether the hotspot type is one of the known values.
func (t HotspotType) IsValid() bool {
	switch t {
	case HotspotTypeInfo, HotspotTypeLink, HotspotTypeScene,
		HotspotTypeImage, HotspotTypeVideo:
		return true
	}
	return false
}

// DefaultHotspotIcon is used when an unrecognized icon name is submitted.
const DefaultHotspotIcon = "info"

// HotspotIcons is the allowed icon vocabulary.
var HotspotIcons = map[string]bool{
	"info":     true,
	"link":     true,
	"arrow":    true,
	"eye":      true,
	"image":    true,
	"video":    true,
	"map-pin":  true,
	"question": true,
	"star":     true,
}

// Hotspot is an interactive marker placed at a yaw/pitch coordinate within a
// scene. SceneID is immutable. TargetSceneID is a weak reference to a sibling
// scene; it is validated by lookup, never dereferenced.
type Hotspot struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SceneID       uuid.UUID      `json:"sceneId" gorm:"type:uuid;not null;index"`
	Type          HotspotType    `json:"type" gorm:"type:varchar(20);not null;default:'info'"`
	Title         *string        `json:"title" gorm:"type:varchar(255)"`
	Content       *string        `json:"content" gorm:"type:text"`
	URL           *string        `json:"url" gorm:"type:varchar(2048)"`
	TargetSceneID *uuid.UUID     `json:"targetSceneId" gorm:"type:uuid"`
	Icon          string         `json:"icon" gorm:"type:varchar(50);not null;default:'info'"`
	Yaw           float64        `json:"yaw" gorm:"not null;default:0"`
	Pitch         float64        `json:"pitch" gorm:"not null;default:0"`
	SortOrder     int            `json:"sortOrder" gorm:"not null;default:0;index"`
	Settings      datatypes.JSON `json:"settings" gorm:"type:jsonb"`
	CreatedAt     time.Time      `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `json:"updatedAt" gorm:"autoUpdateTime"`
}

// ==========================================
// REQUEST MODELS
// ==========================================

type CreateHotspotRequest struct {
	Type          string                 `json:"type"`
	Title         *string                `json:"title,omitempty"`
	Content       *string                `json:"content,omitempty"`
	URL           *string                `json:"url,omitempty"`
	TargetSceneID *uuid.UUID             `json:"targetSceneId,omitempty"`
	Icon          string                 `json:"icon,omitempty"`
	Yaw           float64                `json:"yaw"`
	Pitch         float64                `json:"pitch"`
	SortOrder     *int                   `json:"sortOrder,omitempty"`
	Settings      map[string]interface{} `json:"settings,omitempty"`
}

type UpdateHotspotRequest struct {
	Type          *string                `json:"type,omitempty"`
	Title         *string                `json:"title,omitempty"`
	Content       *string                `json:"content,omitempty"`
	URL           *string                `json:"url,omitempty"`
	TargetSceneID *uuid.UUID             `json:"targetSceneId,omitempty"`
	Icon          *string                `json:"icon,omitempty"`
	Yaw           *float64               `json:"yaw,omitempty"`
	Pitch         *float64               `json:"pitch,omitempty"`
	Settings      map[string]interface{} `json:"settings,omitempty"`
}
