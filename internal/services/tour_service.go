package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tesseract-hub/tour-service/internal/cache"
	"github.com/tesseract-hub/tour-service/internal/events"
	"github.com/tesseract-hub/tour-service/internal/limits"
	"github.com/tesseract-hub/tour-service/internal/models"
	"github.com/tesseract-hub/tour-service/internal/repository"
	"github.com/tesseract-hub/tour-service/internal/validators"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TourService implements the tour lifecycle: quota-checked creation with
// unique slug derivation, owner-gated mutation, and cascading deletion.
type TourService interface {
	CreateTour(ctx context.Context, principal Principal, req *models.CreateTourRequest) (*models.Tour, error)
	GetTour(ctx context.Context, principal Principal, id uuid.UUID) (*models.Tour, error)
	ListTours(ctx context.Context, principal Principal, page, limit int) ([]models.Tour, int64, error)
	UpdateTour(ctx context.Context, principal Principal, id uuid.UUID, req *models.UpdateTourRequest) (*models.Tour, error)
	DeleteTour(ctx context.Context, principal Principal, id uuid.UUID) error
}

type tourService struct {
	tours     repository.TourRepository
	tier      limits.Tier
	publisher *events.Publisher
	docCache  *cache.TourCache
	logger    *logrus.Entry
}

// NewTourService creates a new tour service
func NewTourService(tours repository.TourRepository, tier limits.Tier, publisher *events.Publisher, docCache *cache.TourCache, logger *logrus.Logger) TourService {
	return &tourService{
		tours:     tours,
		tier:      tier,
		publisher: publisher,
		docCache:  docCache,
		logger:    logger.WithField("component", "tour_service"),
	}
}

// settingsToJSON serializes an opaque settings map for storage. A nil map
// becomes an empty JSON object so readers never see missing settings.
func settingsToJSON(settings map[string]interface{}) datatypes.JSON {
	if settings == nil {
		return datatypes.JSON([]byte("{}"))
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(data)
}

func (s *tourService) CreateTour(ctx context.Context, principal Principal, req *models.CreateTourRequest) (*models.Tour, error) {
	if principal.IsAnonymous() {
		return nil, ErrPermissionDenied()
	}

	// Reject policy at the single-item API: interactive creates get an
	// immediate, specific error when the quota is full.
	var current int64
	var err error
	if s.tier.GlobalQuota() {
		current, err = s.tours.CountAll(ctx)
	} else {
		current, err = s.tours.CountByOwner(ctx, principal.ID)
	}
	if err != nil {
		return nil, ErrStore(err)
	}
	if !s.tier.CanAddTour(current) {
		return nil, ErrLimitReached(fmt.Sprintf(
			"tour limit reached: the %s tier allows %d tour(s)", s.tier.Name, s.tier.MaxTours))
	}

	if verrs := validators.ValidateTour(req); verrs != nil {
		return nil, ErrValidation(verrs)
	}

	slug := req.Slug
	if slug == "" {
		slug = validators.DeriveSlug(req.Title)
	}

	tour := &models.Tour{
		Title:       validators.SanitizeText(req.Title),
		Description: validators.SanitizeRichText(req.Description),
		Slug:        slug,
		Status:      models.TourStatusDraft,
		OwnerID:     principal.ID,
		Settings:    settingsToJSON(req.Settings),
	}

	if err := s.tours.CreateWithUniqueSlug(ctx, tour); err != nil {
		return nil, ErrStore(err)
	}

	s.logger.WithFields(logrus.Fields{
		"tour_id": tour.ID,
		"slug":    tour.Slug,
		"owner":   tour.OwnerID,
	}).Info("tour created")

	s.publisher.Publish(ctx, events.TourEvent{
		EventType: events.EventTourCreated,
		TourID:    tour.ID.String(),
		Slug:      tour.Slug,
		OwnerID:   tour.OwnerID.String(),
	})

	return tour, nil
}

func (s *tourService) GetTour(ctx context.Context, principal Principal, id uuid.UUID) (*models.Tour, error) {
	tour, err := s.tours.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("tour")
		}
		return nil, ErrStore(err)
	}
	// Management reads are owner/admin only. Non-owners get NOT_FOUND so
	// the existence of a private tour is never leaked.
	if !principal.CanMutate(tour.OwnerID) {
		return nil, ErrNotFound("tour")
	}
	return tour, nil
}

func (s *tourService) ListTours(ctx context.Context, principal Principal, page, limit int) ([]models.Tour, int64, error) {
	if principal.IsAnonymous() {
		return nil, 0, ErrPermissionDenied()
	}
	tours, total, err := s.tours.ListByOwner(ctx, principal.ID, page, limit)
	if err != nil {
		return nil, 0, ErrStore(err)
	}
	return tours, total, nil
}

func (s *tourService) UpdateTour(ctx context.Context, principal Principal, id uuid.UUID, req *models.UpdateTourRequest) (*models.Tour, error) {
	tour, err := s.GetTour(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	if verrs := validators.ValidateTourUpdate(req); verrs != nil {
		return nil, ErrValidation(verrs)
	}

	if req.Title != nil {
		tour.Title = validators.SanitizeText(*req.Title)
	}
	if req.Description != nil {
		tour.Description = validators.SanitizeRichText(*req.Description)
	}
	if req.Status != nil {
		tour.Status = *req.Status
	}
	if req.Settings != nil {
		tour.Settings = settingsToJSON(req.Settings)
	}

	if err := s.tours.Update(ctx, tour); err != nil {
		return nil, ErrStore(err)
	}

	s.docCache.Invalidate(ctx, tour.ID, tour.Slug)
	s.publisher.Publish(ctx, events.TourEvent{
		EventType: events.EventTourUpdated,
		TourID:    tour.ID.String(),
		Slug:      tour.Slug,
		OwnerID:   tour.OwnerID.String(),
	})

	return tour, nil
}

func (s *tourService) DeleteTour(ctx context.Context, principal Principal, id uuid.UUID) error {
	tour, err := s.GetTour(ctx, principal, id)
	if err != nil {
		return err
	}

	if err := s.tours.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound("tour")
		}
		return ErrStore(err)
	}

	s.logger.WithFields(logrus.Fields{
		"tour_id": id,
		"slug":    tour.Slug,
	}).Info("tour deleted")

	s.docCache.Invalidate(ctx, id, tour.Slug)
	s.publisher.Publish(ctx, events.TourEvent{
		EventType: events.EventTourDeleted,
		TourID:    id.String(),
		Slug:      tour.Slug,
		OwnerID:   tour.OwnerID.String(),
	})

	return nil
}
