package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tesseract-hub/tour-service/internal/models"
	"gorm.io/gorm"
)

// ErrSlugTaken is returned when slug disambiguation gives up. Callers
// normally never see it; CreateWithUniqueSlug retries with numeric suffixes.
var ErrSlugTaken = errors.New("slug already taken")

// slugRetryLimit bounds the disambiguation loop against pathological data.
const slugRetryLimit = 1000

// TourRepository handles tour persistence.
type TourRepository interface {
	CreateWithUniqueSlug(ctx context.Context, tour *models.Tour) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tour, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tour, error)
	GetGraph(ctx context.Context, id uuid.UUID) (*models.Tour, error)
	Update(ctx context.Context, tour *models.Tour) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]models.Tour, int64, error)
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
	CountAll(ctx context.Context) (int64, error)
}

type tourRepository struct {
	db *gorm.DB
}

// NewTourRepository creates a new tour repository
func NewTourRepository(db *gorm.DB) TourRepository {
	return &tourRepository{db: db}
}

// CreateWithUniqueSlug persists the tour, disambiguating the slug with a
// numeric suffix ("museum", "museum-1", "museum-2", ...) on collision. The
// unique index on slug is the backstop against concurrent creates.
func (r *tourRepository) CreateWithUniqueSlug(ctx context.Context, tour *models.Tour) error {
	if tour.ID == uuid.Nil {
		tour.ID = uuid.New()
	}

	base := tour.Slug
	for i := 0; i < slugRetryLimit; i++ {
		if i > 0 {
			tour.Slug = fmt.Sprintf("%s-%d", base, i)
		}

		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Tour{}).
			Where("slug = ?", tour.Slug).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check slug availability: %w", err)
		}
		if count > 0 {
			continue
		}

		err := r.db.WithContext(ctx).Create(tour).Error
		if err == nil {
			return nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race for the slug; try the next suffix.
			continue
		}
		return fmt.Errorf("failed to create tour: %w", err)
	}
	return ErrSlugTaken
}

// GetByID retrieves a tour by id.
func (r *tourRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tour, error) {
	var tour models.Tour
	if err := r.db.WithContext(ctx).First(&tour, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tour, nil
}

// GetBySlug retrieves a tour by slug.
func (r *tourRepository) GetBySlug(ctx context.Context, slug string) (*models.Tour, error) {
	var tour models.Tour
	if err := r.db.WithContext(ctx).First(&tour, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &tour, nil
}

// GetGraph retrieves a tour with its scenes and hotspots preloaded, both
// ordered by sort_order with id as the tie-breaker.
func (r *tourRepository) GetGraph(ctx context.Context, id uuid.UUID) (*models.Tour, error) {
	var tour models.Tour
	err := r.db.WithContext(ctx).
		Preload("Scenes", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Preload("Scenes.Hotspots", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		First(&tour, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &tour, nil
}

// Update saves the full tour record.
func (r *tourRepository) Update(ctx context.Context, tour *models.Tour) error {
	if err := r.db.WithContext(ctx).Save(tour).Error; err != nil {
		return fmt.Errorf("failed to update tour: %w", err)
	}
	return nil
}

// Delete removes the tour and cascades to its scenes and their hotspots in
// one transaction. The FK constraints also cascade; deleting explicitly
// keeps the behavior identical on stores without them.
func (r *tourRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("scene_id IN (?)",
			tx.Model(&models.Scene{}).Select("id").Where("tour_id = ?", id),
		).Delete(&models.Hotspot{}).Error; err != nil {
			return fmt.Errorf("failed to delete tour hotspots: %w", err)
		}
		if err := tx.Where("tour_id = ?", id).Delete(&models.Scene{}).Error; err != nil {
			return fmt.Errorf("failed to delete tour scenes: %w", err)
		}
		result := tx.Delete(&models.Tour{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete tour: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// ListByOwner retrieves the owner's tours, newest first, with pagination.
func (r *tourRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]models.Tour, int64, error) {
	var tours []models.Tour
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Tour{}).Where("owner_id = ?", ownerID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tours: %w", err)
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	offset := (page - 1) * limit

	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&tours).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tours: %w", err)
	}
	return tours, total, nil
}

// CountByOwner returns the number of tours owned by one principal.
func (r *tourRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Tour{}).
		Where("owner_id = ?", ownerID).Count(&count).Error
	return count, err
}

// CountAll returns the total number of tours, for site-wide quota scope.
func (r *tourRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Tour{}).Count(&count).Error
	return count, err
}
