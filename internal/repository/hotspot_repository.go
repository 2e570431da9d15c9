package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tesseract-hub/tour-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HotspotRepository handles hotspot persistence.
type HotspotRepository interface {
	Create(ctx context.Context, hotspot *models.Hotspot) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Hotspot, error)
	Update(ctx context.Context, hotspot *models.Hotspot) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByScene(ctx context.Context, sceneID uuid.UUID) ([]models.Hotspot, error)
	CountByScene(ctx context.Context, sceneID uuid.UUID) (int64, error)
	Reorder(ctx context.Context, sceneID uuid.UUID, ids []uuid.UUID) error
}

type hotspotRepository struct {
	db *gorm.DB
}

// NewHotspotRepository creates a new hotspot repository
func NewHotspotRepository(db *gorm.DB) HotspotRepository {
	return &hotspotRepository{db: db}
}

// Create persists the hotspot; a non-positive sort order is replaced with
// max+1 within the scene.
func (r *hotspotRepository) Create(ctx context.Context, hotspot *models.Hotspot) error {
	if hotspot.ID == uuid.Nil {
		hotspot.ID = uuid.New()
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if hotspot.SortOrder <= 0 {
			var maxOrder int
			row := tx.Model(&models.Hotspot{}).
				Where("scene_id = ?", hotspot.SceneID).
				Select("COALESCE(MAX(sort_order), 0)").Row()
			if err := row.Scan(&maxOrder); err != nil {
				return fmt.Errorf("failed to determine hotspot sort order: %w", err)
			}
			hotspot.SortOrder = maxOrder + 1
		}
		if err := tx.Create(hotspot).Error; err != nil {
			return fmt.Errorf("failed to create hotspot: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a hotspot by id.
func (r *hotspotRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Hotspot, error) {
	var hotspot models.Hotspot
	if err := r.db.WithContext(ctx).First(&hotspot, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &hotspot, nil
}

// Update saves the full hotspot record.
func (r *hotspotRepository) Update(ctx context.Context, hotspot *models.Hotspot) error {
	if err := r.db.WithContext(ctx).Save(hotspot).Error; err != nil {
		return fmt.Errorf("failed to update hotspot: %w", err)
	}
	return nil
}

// Delete removes the hotspot.
func (r *hotspotRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Hotspot{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete hotspot: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByScene retrieves the scene's hotspots ordered by sort_order then id.
func (r *hotspotRepository) ListByScene(ctx context.Context, sceneID uuid.UUID) ([]models.Hotspot, error) {
	var hotspots []models.Hotspot
	err := r.db.WithContext(ctx).
		Where("scene_id = ?", sceneID).
		Order("sort_order ASC, id ASC").
		Find(&hotspots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list hotspots: %w", err)
	}
	return hotspots, nil
}

// CountByScene returns the number of hotspots in a scene.
func (r *hotspotRepository) CountByScene(ctx context.Context, sceneID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Hotspot{}).
		Where("scene_id = ?", sceneID).Count(&count).Error
	return count, err
}

// Reorder assigns sort_order by 1-based position in ids, all-or-nothing.
// Ids not belonging to the scene are ignored.
func (r *hotspotRepository) Reorder(ctx context.Context, sceneID uuid.UUID, ids []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var hotspots []models.Hotspot
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("scene_id = ?", sceneID).
			Find(&hotspots).Error
		if err != nil {
			return fmt.Errorf("failed to lock scene hotspots: %w", err)
		}

		belongs := make(map[uuid.UUID]bool, len(hotspots))
		for _, h := range hotspots {
			belongs[h.ID] = true
		}

		position := 0
		for _, id := range ids {
			if !belongs[id] {
				continue
			}
			position++
			if err := tx.Model(&models.Hotspot{}).Where("id = ?", id).
				Update("sort_order", position).Error; err != nil {
				return fmt.Errorf("failed to reorder hotspot: %w", err)
			}
		}
		return nil
	})
}
