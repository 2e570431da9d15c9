package services

import (
	"context"
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
	"gorm.io/gorm"
)

// SceneService implements the scene lifecycle within a tour: quota-checked
// creation, the default-scene invariant, last-scene protection, and
// ordering.
type SceneService interface {
	CreateScene(ctx context.Context, principal Principal, tourID uuid.UUID, req *models.CreateSceneRequest) (*models.Scene, error)
	GetScene(ctx context.Context, principal Principal, id uuid.UUID) (*models.Scene, error)
	ListScenes(ctx context.Context, principal Principal, tourID uuid.UUID) ([]models.Scene, error)
	UpdateScene(ctx context.Context, principal Principal, id uuid.UUID, req *models.UpdateSceneRequest) (*models.Scene, error)
	DeleteScene(ctx context.Context, principal Principal, id uuid.UUID) error
	ReorderScenes(ctx context.Context, principal Principal, tourID uuid.UUID, ids []uuid.UUID) error
	SetDefaultScene(ctx context.Context, principal Principal, tourID, sceneID uuid.UUID) error
}

type sceneService struct {
	tours     repository.TourRepository
	scenes    repository.SceneRepository
	tier      limits.Tier
	publisher *events.Publisher
	docCache  *cache.TourCache
	logger    *logrus.Entry
}

// NewSceneService creates a new scene service
func NewSceneService(tours repository.TourRepository, scenes repository.SceneRepository, tier limits.Tier, publisher *events.Publisher, docCache *cache.TourCache, logger *logrus.Logger) SceneService {
	return &sceneService{
		tours:     tours,
		scenes:    scenes,
		tier:      tier,
		publisher: publisher,
		docCache:  docCache,
		logger:    logger.WithField("component", "scene_service"),
	}
}

// loadOwnedTour fetches a tour and enforces owner-or-admin access, hiding
// existence from everyone else.
func (s *sceneService) loadOwnedTour(ctx context.Context, principal Principal, tourID uuid.UUID) (*models.Tour, error) {
	tour, err := s.tours.GetByID(ctx, tourID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("tour")
		}
		return nil, ErrStore(err)
	}
	if !principal.CanMutate(tour.OwnerID) {
		return nil, ErrNotFound("tour")
	}
	return tour, nil
}

// loadOwnedScene fetches a scene and its owning tour with the same access
// rule.
func (s *sceneService) loadOwnedScene(ctx context.Context, principal Principal, sceneID uuid.UUID) (*models.Scene, *models.Tour, error) {
	scene, err := s.scenes.GetByID(ctx, sceneID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound("scene")
		}
		return nil, nil, ErrStore(err)
	}
	tour, err := s.loadOwnedTour(ctx, principal, scene.TourID)
	if err != nil {
		// Report the scene, not its tour, as missing.
		if svcErr, ok := AsServiceError(err); ok && svcErr.Code == CodeNotFound {
			return nil, nil, ErrNotFound("scene")
		}
		return nil, nil, err
	}
	return scene, tour, nil
}

func (s *sceneService) CreateScene(ctx context.Context, principal Principal, tourID uuid.UUID, req *models.CreateSceneRequest) (*models.Scene, error) {
	tour, err := s.loadOwnedTour(ctx, principal, tourID)
	if err != nil {
		return nil, err
	}

	count, err := s.scenes.CountByTour(ctx, tourID)
	if err != nil {
		return nil, ErrStore(err)
	}
	if !s.tier.CanAddScene(count) {
		return nil, ErrLimitReached(fmt.Sprintf(
			"scene limit reached: the %s tier allows %d scene(s) per tour", s.tier.Name, s.tier.MaxScenesPerTour))
	}

	if verrs := validators.ValidateScene(req, validators.PolicyClamp); verrs != nil {
		return nil, ErrValidation(verrs)
	}

	scene := &models.Scene{
		TourID:      tourID,
		Title:       validators.SanitizeText(req.Title),
		Description: validators.SanitizeText(req.Description),
		ImageID:     req.ImageID,
		ImageURL:    validators.SanitizeURL(req.ImageURL),
		ImageType:   validators.SanitizeImageType(req.ImageType),
		Yaw:         0,
		Pitch:       0,
		Fov:         models.DefaultFov,
		Settings:    settingsToJSON(req.Settings),
	}
	if req.Yaw != nil {
		scene.Yaw = validators.ClampYaw(*req.Yaw)
	}
	if req.Pitch != nil {
		scene.Pitch = validators.ClampPitch(*req.Pitch)
	}
	if req.Fov != nil {
		scene.Fov = validators.ClampFov(*req.Fov)
	}
	if req.SortOrder != nil {
		scene.SortOrder = *req.SortOrder
	}

	if err := s.scenes.Create(ctx, scene); err != nil {
		return nil, ErrStore(err)
	}

	s.logger.WithFields(logrus.Fields{
		"scene_id": scene.ID,
		"tour_id":  tourID,
		"default":  scene.IsDefault,
	}).Info("scene created")

	s.docCache.Invalidate(ctx, tour.ID, tour.Slug)
	s.publisher.Publish(ctx, events.TourEvent{
		EventType: events.EventSceneCreated,
		TourID:    tourID.String(),
		SceneID:   scene.ID.String(),
		OwnerID:   tour.OwnerID.String(),
	})

	return scene, nil
}

func (s *sceneService) GetScene(ctx context.Context, principal Principal, id uuid.UUID) (*models.Scene, error) {
	scene, _, err := s.loadOwnedScene(ctx, principal, id)
	return scene, err
}

func (s *sceneService) ListScenes(ctx context.Context, principal Principal, tourID uuid.UUID) ([]models.Scene, error) {
	if _, err := s.loadOwnedTour(ctx, principal, tourID); err != nil {
		return nil, err
	}
	scenes, err := s.scenes.ListByTour(ctx, tourID)
	if err != nil {
		return nil, ErrStore(err)
	}
	return scenes, nil
}

func (s *sceneService) UpdateScene(ctx context.Context, principal Principal, id uuid.UUID, req *models.UpdateSceneRequest) (*models.Scene, error) {
	scene, tour, err := s.loadOwnedScene(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	if verrs := validators.ValidateSceneUpdate(req, validators.PolicyClamp); verrs != nil {
		return nil, ErrValidation(verrs)
	}

	if req.Title != nil {
		scene.Title = validators.SanitizeText(*req.Title)
	}
	if req.Description != nil {
		scene.Description = validators.SanitizeText(*req.Description)
	}
	if req.ImageID != nil {
		scene.ImageID = req.ImageID
	}
	if req.ImageURL != nil {
		scene.ImageURL = validators.SanitizeURL(req.ImageURL)
	}
	if req.ImageType != nil {
		scene.ImageType = validators.SanitizeImageType(*req.ImageType)
	}
	if req.Yaw != nil {
		scene.Yaw = validators.ClampYaw(*req.Yaw)
	}
	if req.Pitch != nil {
		scene.Pitch = validators.ClampPitch(*req.Pitch)
	}
	if req.Fov != nil {
		scene.Fov = validators.ClampFov(*req.Fov)
	}
	if req.Settings != nil {
		scene.Settings = settingsToJSON(req.Settings)
	}

	// A scene must keep at least one image reference.
	if scene.ImageID == nil && scene.ImageURL == nil {
		verrs := &validators.ValidationErrors{}
		verrs.Add("image", validators.CodeMissingRequiredField, "an image id or image url is required")
		return nil, ErrValidation(verrs)
	}

	if err := s.scenes.Update(ctx, scene); err != nil {
		return nil, ErrStore(err)
	}

	s.docCache.Invalidate(ctx, tour.ID, tour.Slug)
	s.publisher.Publish(ctx, events.TourEvent{
		EventType: events.EventSceneUpdated,
		TourID:    tour.ID.String(),
		SceneID:   scene.ID.String(),
		OwnerID:   tour.OwnerID.String(),
	})

	return scene, nil
}

func (s *sceneService) DeleteScene(ctx context.Context, principal Principal, id uuid.UUID) error {
	scene, tour, err := s.loadOwnedScene(ctx, principal, id)
	if err != nil {
		return err
	}

	promoted, err := s.scenes.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrLastScene) {
			return ErrLastScene()
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound("scene")
		}
		return ErrStore(err)
	}

	entry := s.logger.WithFields(logrus.Fields{
		"scene_id": scene.ID,
		"tour_id":  tour.ID,
	})
	if promoted != nil {
		entry = entry.WithField("promoted_default", *promoted)
	}
	entry.Info("scene deleted")

	s.docCache.Invalidate(ctx, tour.ID, tour.Slug)
	s.publisher.Publish(ctx, events.TourEvent{
		EventType: events.EventSceneDeleted,
		TourID:    tour.ID.String(),
		SceneID:   id.String(),
		OwnerID:   tour.OwnerID.String(),
	})

	return nil
}

func (s *sceneService) ReorderScenes(ctx context.Context, principal Principal, tourID uuid.UUID, ids []uuid.UUID) error {
	tour, err := s.loadOwnedTour(ctx, principal, tourID)
	if err != nil {
		return err
	}

	if err := s.scenes.Reorder(ctx, tourID, ids); err != nil {
		return ErrStore(err)
	}

	s.docCache.Invalidate(ctx, tour.ID, tour.Slug)
	s.publisher.Publish(ctx, events.TourEvent{
		EventType: events.EventSceneReordered,
		TourID:    tourID.String(),
		OwnerID:   tour.OwnerID.String(),
	})

	return nil
}

func (s *sceneService) SetDefaultScene(ctx context.Context, principal Principal, tourID, sceneID uuid.UUID) error {
	tour, err := s.loadOwnedTour(ctx, principal, tourID)
	if err != nil {
		return err
	}

	if err := s.scenes.SetDefault(ctx, tourID, sceneID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound("scene")
		}
		return ErrStore(err)
	}

	s.docCache.Invalidate(ctx, tour.ID, tour.Slug)
	s.publisher.Publish(ctx, events.TourEvent{
		EventType: events.EventSceneUpdated,
		TourID:    tourID.String(),
		SceneID:   sceneID.String(),
		OwnerID:   tour.OwnerID.String(),
	})

	return nil
}
