package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tesseract-hub/tour-service/internal/cache"
	"github.com/tesseract-hub/tour-service/internal/health"
	"github.com/tesseract-hub/tour-service/internal/models"
	"github.com/tesseract-hub/tour-service/internal/repository"
	"gorm.io/gorm"
)

// PublicService serves the read-only tour document consumed by the viewer
// frontend. Published tours are visible to everyone and cached; drafts and
// archived tours are visible only to their owner and never cached.
type PublicService interface {
	GetPublicTour(ctx context.Context, principal Principal, idOrSlug string) (*models.TourDocument, error)
}

type publicService struct {
	tours    repository.TourRepository
	docCache *cache.TourCache
	logger   *logrus.Entry
}

// NewPublicService creates a new public read service
func NewPublicService(tours repository.TourRepository, docCache *cache.TourCache, logger *logrus.Logger) PublicService {
	return &publicService{
		tours:    tours,
		docCache: docCache,
		logger:   logger.WithField("component", "public_service"),
	}
}

func (s *publicService) GetPublicTour(ctx context.Context, principal Principal, idOrSlug string) (*models.TourDocument, error) {
	tourID, err := uuid.Parse(idOrSlug)
	byID := err == nil

	if !byID {
		if cached, ok := s.docCache.ResolveSlug(ctx, idOrSlug); ok {
			tourID = cached
			byID = true
		}
	}

	// Only published documents ever enter the cache, so a hit needs no
	// further visibility check.
	if byID {
		if doc, ok := s.docCache.GetDocument(ctx, tourID); ok {
			health.RecordPublicDocumentRequest("cache")
			return doc, nil
		}
	}

	var tour *models.Tour
	if byID {
		tour, err = s.tours.GetGraph(ctx, tourID)
	} else {
		tour, err = s.tours.GetBySlug(ctx, idOrSlug)
		if err == nil {
			tour, err = s.tours.GetGraph(ctx, tour.ID)
		}
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("tour")
		}
		return nil, ErrStore(err)
	}

	if tour.Status != models.TourStatusPublished && !principal.CanMutate(tour.OwnerID) {
		return nil, ErrNotFound("tour")
	}

	doc := assembleDocument(tour)
	health.RecordPublicDocumentRequest("database")

	if tour.Status == models.TourStatusPublished {
		s.docCache.SetDocument(ctx, doc)
	}

	return doc, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// assembleDocument flattens a preloaded tour graph into the viewer document.
// Scenes and hotspots arrive ordered from the repository; optional fields are
// emitted as explicit nulls rather than omitted.
func assembleDocument(tour *models.Tour) *models.TourDocument {
	doc := &models.TourDocument{
		ID:          tour.ID,
		Title:       tour.Title,
		Description: optional(tour.Description),
		Slug:        tour.Slug,
		Settings:    jsonToMap(tour.Settings),
		Scenes:      make([]models.SceneDocument, 0, len(tour.Scenes)),
		UpdatedAt:   tour.UpdatedAt,
	}

	for _, scene := range tour.Scenes {
		sceneDoc := models.SceneDocument{
			ID:          scene.ID,
			Title:       scene.Title,
			Description: optional(scene.Description),
			Image:       scene.ImageURL,
			ImageID:     scene.ImageID,
			ImageType:   scene.ImageType,
			InitView: models.InitView{
				Yaw:   scene.Yaw,
				Pitch: scene.Pitch,
				Fov:   scene.Fov,
			},
			IsDefault: scene.IsDefault,
			Settings:  jsonToMap(scene.Settings),
			Hotspots:  make([]models.HotspotDocument, 0, len(scene.Hotspots)),
		}
		for _, h := range scene.Hotspots {
			sceneDoc.Hotspots = append(sceneDoc.Hotspots, models.HotspotDocument{
				ID:            h.ID,
				Type:          h.Type,
				Yaw:           h.Yaw,
				Pitch:         h.Pitch,
				Title:         h.Title,
				Content:       h.Content,
				URL:           h.URL,
				TargetSceneID: h.TargetSceneID,
				Icon:          h.Icon,
				Settings:      jsonToMap(h.Settings),
			})
		}
		doc.Scenes = append(doc.Scenes, sceneDoc)
	}

	return doc
}
