package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TourStatus controls public visibility of a tour.
type TourStatus string

const (
	TourStatusDraft     TourStatus = "draft"
	TourStatusPublished TourStatus = "published"
	TourStatusArchived  TourStatus = "archived"
)

// IsValid reports whether the status is one of the known values.
func (s TourStatus) IsValid() bool {
	switch s {
	case TourStatusDraft, TourStatusPublished, TourStatusArchived:
		return true
	}
	return false
}

// Tour is the top-level container for one virtual-tour experience.
// OwnerID is immutable after creation; Slug is unique across all tours.
type Tour struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Title       string         `json:"title" gorm:"type:varchar(255);not null"`
	Description string         `json:"description" gorm:"type:text"`
	Slug        string         `json:"slug" gorm:"type:varchar(255);not null;uniqueIndex"`
	Status      TourStatus     `json:"status" gorm:"type:varchar(20);not null;default:'draft';index"`
	OwnerID     uuid.UUID      `json:"ownerId" gorm:"type:uuid;not null;index"`
	Settings    datatypes.JSON `json:"settings" gorm:"type:jsonb"`
	Scenes      []Scene        `json:"scenes,omitempty" gorm:"foreignKey:TourID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time      `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `json:"updatedAt" gorm:"autoUpdateTime"`
}

// ==========================================
// REQUEST MODELS
// ==========================================

type CreateTourRequest struct {
	Title       string                 `json:"title"`
	Description string                 `json:"description,omitempty"`
	Slug        string                 `json:"slug,omitempty"`
	Settings    map[string]interface{} `json:"settings,omitempty"`
}

// UpdateTourRequest carries optional fields; nil means "leave unchanged".
type UpdateTourRequest struct {
	Title       *string                `json:"title,omitempty"`
	Description *string                `json:"description,omitempty"`
	Status      *TourStatus            `json:"status,omitempty"`
	Settings    map[string]interface{} `json:"settings,omitempty"`
}
