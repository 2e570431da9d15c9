package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tesseract-hub/tour-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrLastScene is returned when a delete would remove the only remaining
// scene of a tour.
var ErrLastScene = errors.New("cannot delete the only scene of a tour")

// SceneRepository handles scene persistence. Operations touching the
// default-scene invariant run inside a transaction holding a row lock on the
// parent tour plus row locks on the tour's scene set, so concurrent requests
// never observe zero or two defaults.
type SceneRepository interface {
	Create(ctx context.Context, scene *models.Scene) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Scene, error)
	Update(ctx context.Context, scene *models.Scene) error
	// Delete removes the scene and its hotspots. When the default scene is
	// deleted, the surviving scene with the lowest sort_order is promoted;
	// its id is returned. Deleting the last scene fails with ErrLastScene.
	Delete(ctx context.Context, id uuid.UUID) (promoted *uuid.UUID, err error)
	ListByTour(ctx context.Context, tourID uuid.UUID) ([]models.Scene, error)
	CountByTour(ctx context.Context, tourID uuid.UUID) (int64, error)
	Reorder(ctx context.Context, tourID uuid.UUID, ids []uuid.UUID) error
	SetDefault(ctx context.Context, tourID, sceneID uuid.UUID) error
}

type sceneRepository struct {
	db *gorm.DB
}

// NewSceneRepository creates a new scene repository
func NewSceneRepository(db *gorm.DB) SceneRepository {
	return &sceneRepository{db: db}
}

// lockTour takes a row lock on the parent tour. Scene-row locks alone cannot
// serialize mutations on an empty scene set (there are no rows to lock), so
// every scene-set mutation locks the tour first. This keeps two concurrent
// first-scene creates from both becoming the default.
func lockTour(tx *gorm.DB, tourID uuid.UUID) error {
	var tour models.Tour
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&tour, "id = ?", tourID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return fmt.Errorf("failed to lock tour: %w", err)
	}
	return nil
}

// lockTourScenes takes row locks on all scenes of the tour, serializing
// default-scene and ordering mutations per tour.
func lockTourScenes(tx *gorm.DB, tourID uuid.UUID) ([]models.Scene, error) {
	var scenes []models.Scene
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tour_id = ?", tourID).
		Order("sort_order ASC, id ASC").
		Find(&scenes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock tour scenes: %w", err)
	}
	return scenes, nil
}

// Create persists the scene. The first scene of a tour is forced to be the
// default; a non-positive sort order is replaced with max+1.
func (r *sceneRepository) Create(ctx context.Context, scene *models.Scene) error {
	if scene.ID == uuid.Nil {
		scene.ID = uuid.New()
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTour(tx, scene.TourID); err != nil {
			return err
		}
		siblings, err := lockTourScenes(tx, scene.TourID)
		if err != nil {
			return err
		}

		if len(siblings) == 0 {
			scene.IsDefault = true
		} else if scene.IsDefault {
			// A later scene may only become default via SetDefault.
			scene.IsDefault = false
		}

		if scene.SortOrder <= 0 {
			maxOrder := 0
			for _, s := range siblings {
				if s.SortOrder > maxOrder {
					maxOrder = s.SortOrder
				}
			}
			scene.SortOrder = maxOrder + 1
		}

		if err := tx.Create(scene).Error; err != nil {
			return fmt.Errorf("failed to create scene: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a scene by id.
func (r *sceneRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Scene, error) {
	var scene models.Scene
	if err := r.db.WithContext(ctx).First(&scene, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &scene, nil
}

// Update saves the full scene record.
func (r *sceneRepository) Update(ctx context.Context, scene *models.Scene) error {
	if err := r.db.WithContext(ctx).Save(scene).Error; err != nil {
		return fmt.Errorf("failed to update scene: %w", err)
	}
	return nil
}

// Delete removes the scene, cascading to its hotspots and promoting a new
// default scene when needed.
func (r *sceneRepository) Delete(ctx context.Context, id uuid.UUID) (*uuid.UUID, error) {
	var promoted *uuid.UUID

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var scene models.Scene
		if err := tx.First(&scene, "id = ?", id).Error; err != nil {
			return err
		}

		// Lock the tour before its scene rows, matching the order every
		// other scene-set mutation takes.
		if err := lockTour(tx, scene.TourID); err != nil {
			return err
		}
		siblings, err := lockTourScenes(tx, scene.TourID)
		if err != nil {
			return err
		}
		// Re-check under the lock; the unlocked read above may be stale.
		found := false
		for _, s := range siblings {
			if s.ID == id {
				scene = s
				found = true
				break
			}
		}
		if !found {
			return gorm.ErrRecordNotFound
		}
		if len(siblings) <= 1 {
			return ErrLastScene
		}

		if err := tx.Where("scene_id = ?", id).Delete(&models.Hotspot{}).Error; err != nil {
			return fmt.Errorf("failed to delete scene hotspots: %w", err)
		}
		if err := tx.Delete(&models.Scene{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete scene: %w", err)
		}

		if scene.IsDefault {
			// Promote the survivor with the lowest sort order. siblings is
			// already ordered by sort_order, id.
			for _, s := range siblings {
				if s.ID == id {
					continue
				}
				if err := tx.Model(&models.Scene{}).Where("id = ?", s.ID).
					Update("is_default", true).Error; err != nil {
					return fmt.Errorf("failed to promote default scene: %w", err)
				}
				promotedID := s.ID
				promoted = &promotedID
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return promoted, nil
}

// ListByTour retrieves the tour's scenes ordered by sort_order then id.
func (r *sceneRepository) ListByTour(ctx context.Context, tourID uuid.UUID) ([]models.Scene, error) {
	var scenes []models.Scene
	err := r.db.WithContext(ctx).
		Where("tour_id = ?", tourID).
		Order("sort_order ASC, id ASC").
		Find(&scenes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list scenes: %w", err)
	}
	return scenes, nil
}

// CountByTour returns the number of scenes in a tour.
func (r *sceneRepository) CountByTour(ctx context.Context, tourID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Scene{}).
		Where("tour_id = ?", tourID).Count(&count).Error
	return count, err
}

// Reorder assigns sort_order by 1-based position in ids, all-or-nothing.
// Ids not belonging to the tour are ignored.
func (r *sceneRepository) Reorder(ctx context.Context, tourID uuid.UUID, ids []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTour(tx, tourID); err != nil {
			return err
		}
		scenes, err := lockTourScenes(tx, tourID)
		if err != nil {
			return err
		}

		belongs := make(map[uuid.UUID]bool, len(scenes))
		for _, s := range scenes {
			belongs[s.ID] = true
		}

		position := 0
		for _, id := range ids {
			if !belongs[id] {
				continue
			}
			position++
			if err := tx.Model(&models.Scene{}).Where("id = ?", id).
				Update("sort_order", position).Error; err != nil {
				return fmt.Errorf("failed to reorder scene: %w", err)
			}
		}
		return nil
	})
}

// SetDefault makes sceneID the tour's default scene, unsetting all siblings
// within the same transaction.
func (r *sceneRepository) SetDefault(ctx context.Context, tourID, sceneID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTour(tx, tourID); err != nil {
			return err
		}
		scenes, err := lockTourScenes(tx, tourID)
		if err != nil {
			return err
		}

		found := false
		for _, s := range scenes {
			if s.ID == sceneID {
				found = true
				break
			}
		}
		if !found {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Model(&models.Scene{}).Where("tour_id = ?", tourID).
			Update("is_default", false).Error; err != nil {
			return fmt.Errorf("failed to unset default scenes: %w", err)
		}
		if err := tx.Model(&models.Scene{}).Where("id = ?", sceneID).
			Update("is_default", true).Error; err != nil {
			return fmt.Errorf("failed to set default scene: %w", err)
		}
		return nil
	})
}
