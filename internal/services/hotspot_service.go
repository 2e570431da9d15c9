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

// HotspotService implements the hotspot lifecycle within a scene:
// quota-checked creation, tier type whitelisting, and validation of the
// weak target-scene reference.
type HotspotService interface {
	CreateHotspot(ctx context.Context, principal Principal, sceneID uuid.UUID, req *models.CreateHotspotRequest) (*models.Hotspot, error)
	GetHotspot(ctx context.Context, principal Principal, id uuid.UUID) (*models.Hotspot, error)
	ListHotspots(ctx context.Context, principal Principal, sceneID uuid.UUID) ([]models.Hotspot, error)
	UpdateHotspot(ctx context.Context, principal Principal, id uuid.UUID, req *models.UpdateHotspotRequest) (*models.Hotspot, error)
	DeleteHotspot(ctx context.Context, principal Principal, id uuid.UUID) error
	ReorderHotspots(ctx context.Context, principal Principal, sceneID uuid.UUID, ids []uuid.UUID) error
}

type hotspotService struct {
	tours     repository.TourRepository
	scenes    repository.SceneRepository
	hotspots  repository.HotspotRepository
	tier      limits.Tier
	publisher *events.Publisher
	docCache  *cache.TourCache
	logger    *logrus.Entry
}

// NewHotspotService creates a new hotspot service
func NewHotspotService(tours repository.TourRepository, scenes repository.SceneRepository, hotspots repository.HotspotRepository, tier limits.Tier, publisher *events.Publisher, docCache *cache.TourCache, logger *logrus.Logger) HotspotService {
	return &hotspotService{
		tours:     tours,
		scenes:    scenes,
		hotspots:  hotspots,
		tier:      tier,
		publisher: publisher,
		docCache:  docCache,
		logger:    logger.WithField("component", "hotspot_service"),
	}
}

// loadOwnedScene fetches a scene and its owning tour, enforcing
// owner-or-admin access without leaking existence.
func (s *hotspotService) loadOwnedScene(ctx context.Context, principal Principal, sceneID uuid.UUID) (*models.Scene, *models.Tour, error) {
	scene, err := s.scenes.GetByID(ctx, sceneID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound("scene")
		}
		return nil, nil, ErrStore(err)
	}
	tour, err := s.tours.GetByID(ctx, scene.TourID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound("scene")
		}
		return nil, nil, ErrStore(err)
	}
	if !principal.CanMutate(tour.OwnerID) {
		return nil, nil, ErrNotFound("scene")
	}
	return scene, tour, nil
}

// checkTargetScene verifies a scene-navigation target exists within the
// same tour. The reference is weak: stored as an id and revalidated here,
// never dereferenced.
func (s *hotspotService) checkTargetScene(ctx context.Context, tourID uuid.UUID, targetID uuid.UUID) error {
	target, err := s.scenes.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			verrs := &validators.ValidationErrors{}
			verrs.Add("targetSceneId", validators.CodeInvalidType, "target scene does not exist")
			return ErrValidation(verrs)
		}
		return ErrStore(err)
	}
	if target.TourID != tourID {
		verrs := &validators.ValidationErrors{}
		verrs.Add("targetSceneId", validators.CodeInvalidType, "target scene belongs to a different tour")
		return ErrValidation(verrs)
	}
	return nil
}

func (s *hotspotService) CreateHotspot(ctx context.Context, principal Principal, sceneID uuid.UUID, req *models.CreateHotspotRequest) (*models.Hotspot, error) {
	scene, tour, err := s.loadOwnedScene(ctx, principal, sceneID)
	if err != nil {
		return nil, err
	}

	count, err := s.hotspots.CountByScene(ctx, sceneID)
	if err != nil {
		return nil, ErrStore(err)
	}
	if !s.tier.CanAddHotspot(count) {
		return nil, ErrLimitReached(fmt.Sprintf(
			"hotspot limit reached: the %s tier allows %d hotspot(s) per scene", s.tier.Name, s.tier.MaxHotspotsPerScene))
	}

	if verrs := validators.ValidateHotspot(req, validators.PolicyClamp); verrs != nil {
		return nil, ErrValidation(verrs)
	}

	hotspotType := validators.SanitizeHotspotType(req.Type)
	if !s.tier.TypeAllowed(hotspotType) {
		return nil, ErrInvalidType(fmt.Sprintf(
			"hotspot type %q is not available on the %s tier", hotspotType, s.tier.Name))
	}

	if hotspotType == models.HotspotTypeScene && req.TargetSceneID != nil {
		if err := s.checkTargetScene(ctx, scene.TourID, *req.TargetSceneID); err != nil {
			return nil, err
		}
	}

	hotspot := &models.Hotspot{
		SceneID:       sceneID,
		Type:          hotspotType,
		Title:         validators.SanitizeOptionalText(req.Title),
		Content:       validators.SanitizeOptionalRichText(req.Content),
		URL:           validators.SanitizeURL(req.URL),
		TargetSceneID: req.TargetSceneID,
		Icon:          validators.SanitizeIcon(req.Icon),
		Yaw:           validators.ClampYaw(req.Yaw),
		Pitch:         validators.ClampPitch(req.Pitch),
		Settings:      settingsToJSON(req.Settings),
	}
	if req.SortOrder != nil {
		hotspot.SortOrder = *req.SortOrder
	}

	if err := s.hotspots.Create(ctx, hotspot); err != nil {
		return nil, ErrStore(err)
	}

	s.logger.WithFields(logrus.Fields{
		"hotspot_id": hotspot.ID,
		"scene_id":   sceneID,
		"type":       hotspot.Type,
	}).Info("hotspot created")

	s.docCache.Invalidate(ctx, tour.ID, tour.Slug)
	s.publisher.Publish(ctx, events.TourEvent{
		EventType: events.EventHotspotCreated,
		TourID:    tour.ID.String(),
		SceneID:   sceneID.String(),
		HotspotID: hotspot.ID.String(),
		OwnerID:   tour.OwnerID.String(),
	})

	return hotspot, nil
}

func (s *hotspotService) GetHotspot(ctx context.Context, principal Principal, id uuid.UUID) (*models.Hotspot, error) {
	hotspot, err := s.hotspots.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("hotspot")
		}
		return nil, ErrStore(err)
	}
	if _, _, err := s.loadOwnedScene(ctx, principal, hotspot.SceneID); err != nil {
		// Report the hotspot, not its scene, as missing. Store failures
		// pass through untouched.
		if svcErr, ok := AsServiceError(err); ok && svcErr.Code == CodeNotFound {
			return nil, ErrNotFound("hotspot")
		}
		return nil, err
	}
	return hotspot, nil
}

func (s *hotspotService) ListHotspots(ctx context.Context, principal Principal, sceneID uuid.UUID) ([]models.Hotspot, error) {
	if _, _, err := s.loadOwnedScene(ctx, principal, sceneID); err != nil {
		return nil, err
	}
	hotspots, err := s.hotspots.ListByScene(ctx, sceneID)
	if err != nil {
		return nil, ErrStore(err)
	}
	return hotspots, nil
}

func (s *hotspotService) UpdateHotspot(ctx context.Context, principal Principal, id uuid.UUID, req *models.UpdateHotspotRequest) (*models.Hotspot, error) {
	hotspot, err := s.hotspots.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("hotspot")
		}
		return nil, ErrStore(err)
	}
	scene, tour, err := s.loadOwnedScene(ctx, principal, hotspot.SceneID)
	if err != nil {
		if svcErr, ok := AsServiceError(err); ok && svcErr.Code == CodeNotFound {
			return nil, ErrNotFound("hotspot")
		}
		return nil, err
	}

	if verrs := validators.ValidateHotspotUpdate(req, validators.PolicyClamp); verrs != nil {
		return nil, ErrValidation(verrs)
	}

	if req.Type != nil {
		hotspotType := validators.SanitizeHotspotType(*req.Type)
		if !s.tier.TypeAllowed(hotspotType) {
			return nil, ErrInvalidType(fmt.Sprintf(
				"hotspot type %q is not available on the %s tier", hotspotType, s.tier.Name))
		}
		hotspot.Type = hotspotType
	}
	if req.Title != nil {
		hotspot.Title = validators.SanitizeOptionalText(req.Title)
	}
	if req.Content != nil {
		hotspot.Content = validators.SanitizeOptionalRichText(req.Content)
	}
	if req.URL != nil {
		hotspot.URL = validators.SanitizeURL(req.URL)
	}
	if req.TargetSceneID != nil {
		if err := s.checkTargetScene(ctx, scene.TourID, *req.TargetSceneID); err != nil {
			return nil, err
		}
		hotspot.TargetSceneID = req.TargetSceneID
	}
	if req.Icon != nil {
		hotspot.Icon = validators.SanitizeIcon(*req.Icon)
	}
	if req.Yaw != nil {
		hotspot.Yaw = validators.ClampYaw(*req.Yaw)
	}
	if req.Pitch != nil {
		hotspot.Pitch = validators.ClampPitch(*req.Pitch)
	}
	if req.Settings != nil {
		hotspot.Settings = settingsToJSON(req.Settings)
	}

	// Type-specific requirements must still hold after a partial update.
	switch hotspot.Type {
	case models.HotspotTypeLink, models.HotspotTypeImage, models.HotspotTypeVideo:
		if hotspot.URL == nil {
			verrs := &validators.ValidationErrors{}
			verrs.Add("url", validators.CodeMissingRequiredField,
				fmt.Sprintf("url is required for %s hotspots", hotspot.Type))
			return nil, ErrValidation(verrs)
		}
	case models.HotspotTypeScene:
		if hotspot.TargetSceneID == nil {
			verrs := &validators.ValidationErrors{}
			verrs.Add("targetSceneId", validators.CodeMissingRequiredField,
				"target scene id is required for scene hotspots")
			return nil, ErrValidation(verrs)
		}
	}

	if err := s.hotspots.Update(ctx, hotspot); err != nil {
		return nil, ErrStore(err)
	}

	s.docCache.Invalidate(ctx, tour.ID, tour.Slug)
	s.publisher.Publish(ctx, events.TourEvent{
		EventType: events.EventHotspotUpdated,
		TourID:    tour.ID.String(),
		SceneID:   scene.ID.String(),
		HotspotID: hotspot.ID.String(),
		OwnerID:   tour.OwnerID.String(),
	})

	return hotspot, nil
}

func (s *hotspotService) DeleteHotspot(ctx context.Context, principal Principal, id uuid.UUID) error {
	hotspot, err := s.GetHotspot(ctx, principal, id)
	if err != nil {
		return err
	}
	scene, tour, err := s.loadOwnedScene(ctx, principal, hotspot.SceneID)
	if err != nil {
		if svcErr, ok := AsServiceError(err); ok && svcErr.Code == CodeNotFound {
			return ErrNotFound("hotspot")
		}
		return err
	}

	if err := s.hotspots.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound("hotspot")
		}
		return ErrStore(err)
	}

	s.docCache.Invalidate(ctx, tour.ID, tour.Slug)
	s.publisher.Publish(ctx, events.TourEvent{
		EventType: events.EventHotspotDeleted,
		TourID:    tour.ID.String(),
		SceneID:   scene.ID.String(),
		HotspotID: id.String(),
		OwnerID:   tour.OwnerID.String(),
	})

	return nil
}

func (s *hotspotService) ReorderHotspots(ctx context.Context, principal Principal, sceneID uuid.UUID, ids []uuid.UUID) error {
	scene, tour, err := s.loadOwnedScene(ctx, principal, sceneID)
	if err != nil {
		return err
	}

	if err := s.hotspots.Reorder(ctx, sceneID, ids); err != nil {
		return ErrStore(err)
	}

	s.docCache.Invalidate(ctx, tour.ID, tour.Slug)
	s.publisher.Publish(ctx, events.TourEvent{
		EventType: events.EventHotspotUpdated,
		TourID:    tour.ID.String(),
		SceneID:   scene.ID.String(),
		OwnerID:   tour.OwnerID.String(),
	})

	return nil
}
