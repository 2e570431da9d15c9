package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tesseract-hub/tour-service/internal/events"
	"github.com/tesseract-hub/tour-service/internal/limits"
	"github.com/tesseract-hub/tour-service/internal/models"
	"github.com/tesseract-hub/tour-service/internal/repository"
	"github.com/tesseract-hub/tour-service/internal/validators"
	"gorm.io/gorm"
)

// ExportService implements full-fidelity JSON round-trips of tour graphs.
// Export produces a self-contained versioned document; import re-validates
// and re-sanitizes everything as if freshly created, applying the clamp
// policy to quota overruns instead of rejecting the document.
type ExportService interface {
	Export(ctx context.Context, principal Principal, tourID uuid.UUID) (*models.TourExport, error)
	Import(ctx context.Context, principal Principal, doc *models.TourExportRec) (*models.ImportResult, error)
	ImportBatch(ctx context.Context, principal Principal, docs []models.TourExportRec) *models.BatchImportResult
	ValidateDocument(doc *models.TourExportRec) *validators.ValidationErrors
}

type exportService struct {
	tours     repository.TourRepository
	scenes    repository.SceneRepository
	hotspots  repository.HotspotRepository
	tourSvc   TourService
	tier      limits.Tier
	publisher *events.Publisher
	logger    *logrus.Entry
}

// NewExportService creates a new export service
func NewExportService(tours repository.TourRepository, scenes repository.SceneRepository, hotspots repository.HotspotRepository, tourSvc TourService, tier limits.Tier, publisher *events.Publisher, logger *logrus.Logger) ExportService {
	return &exportService{
		tours:     tours,
		scenes:    scenes,
		hotspots:  hotspots,
		tourSvc:   tourSvc,
		tier:      tier,
		publisher: publisher,
		logger:    logger.WithField("component", "export_service"),
	}
}

func jsonToMap(data []byte) map[string]interface{} {
	out := map[string]interface{}{}
	if len(data) > 0 {
		// Stored settings are always valid JSON; a decode failure just
		// yields an empty map.
		_ = json.Unmarshal(data, &out)
	}
	return out
}

func (s *exportService) Export(ctx context.Context, principal Principal, tourID uuid.UUID) (*models.TourExport, error) {
	tour, err := s.tours.GetGraph(ctx, tourID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound("tour")
		}
		return nil, ErrStore(err)
	}
	if !principal.CanMutate(tour.OwnerID) {
		return nil, ErrNotFound("tour")
	}

	rec := models.TourExportRec{
		ID:          tour.ID,
		Title:       tour.Title,
		Description: tour.Description,
		Slug:        tour.Slug,
		Status:      tour.Status,
		Settings:    jsonToMap(tour.Settings),
		Scenes:      make([]models.SceneExportRec, 0, len(tour.Scenes)),
	}

	for _, scene := range tour.Scenes {
		sceneRec := models.SceneExportRec{
			ID:          scene.ID,
			Title:       scene.Title,
			Description: scene.Description,
			ImageID:     scene.ImageID,
			ImageURL:    scene.ImageURL,
			ImageType:   string(scene.ImageType),
			Yaw:         scene.Yaw,
			Pitch:       scene.Pitch,
			Fov:         scene.Fov,
			IsDefault:   scene.IsDefault,
			SortOrder:   scene.SortOrder,
			Settings:    jsonToMap(scene.Settings),
			Hotspots:    make([]models.HotspotExportRec, 0, len(scene.Hotspots)),
		}
		for _, h := range scene.Hotspots {
			sceneRec.Hotspots = append(sceneRec.Hotspots, models.HotspotExportRec{
				ID:            h.ID,
				Type:          string(h.Type),
				Title:         h.Title,
				Content:       h.Content,
				URL:           h.URL,
				TargetSceneID: h.TargetSceneID,
				Icon:          h.Icon,
				Yaw:           h.Yaw,
				Pitch:         h.Pitch,
				SortOrder:     h.SortOrder,
				Settings:      jsonToMap(h.Settings),
			})
		}
		rec.Scenes = append(rec.Scenes, sceneRec)
	}

	return &models.TourExport{
		FormatVersion: models.ExportFormatVersion,
		ExportedAt:    time.Now().UTC(),
		Tour:          rec,
	}, nil
}

// Import reconstructs one tour from a document. Per-tour and per-scene
// quota overruns are clamped with warnings; the document's own sanitization
// state is never trusted.
func (s *exportService) Import(ctx context.Context, principal Principal, doc *models.TourExportRec) (*models.ImportResult, error) {
	// Work on a copy so clamping never mutates the caller's document.
	rec := *doc
	rec.Scenes = append([]models.SceneExportRec(nil), doc.Scenes...)
	for i := range rec.Scenes {
		rec.Scenes[i].Hotspots = append([]models.HotspotExportRec(nil), doc.Scenes[i].Hotspots...)
	}

	warnings := s.tier.EnforceTourGraph(&rec)

	slug := rec.Slug
	if !validators.IsValidSlug(slug) {
		slug = ""
	}
	tour, err := s.tourSvc.CreateTour(ctx, principal, &models.CreateTourRequest{
		Title:       rec.Title,
		Description: rec.Description,
		Slug:        slug,
		Settings:    rec.Settings,
	})
	if err != nil {
		return nil, err
	}

	// Map exported scene ids to the freshly generated ones so that
	// scene-navigation hotspots keep working after import.
	idMap := make(map[uuid.UUID]uuid.UUID, len(rec.Scenes))

	rollback := func() {
		if delErr := s.tours.Delete(ctx, tour.ID); delErr != nil {
			s.logger.WithError(delErr).WithField("tour_id", tour.ID).
				Error("failed to roll back partially imported tour")
		}
	}

	for position, sceneRec := range rec.Scenes {
		scene := &models.Scene{
			TourID:      tour.ID,
			Title:       validators.SanitizeText(sceneRec.Title),
			Description: validators.SanitizeText(sceneRec.Description),
			ImageID:     sceneRec.ImageID,
			ImageURL:    validators.SanitizeURL(sceneRec.ImageURL),
			ImageType:   validators.SanitizeImageType(sceneRec.ImageType),
			Yaw:         validators.ClampYaw(sceneRec.Yaw),
			Pitch:       validators.ClampPitch(sceneRec.Pitch),
			Fov:         validators.ClampFov(sceneRec.Fov),
			SortOrder:   position + 1,
			Settings:    settingsToJSON(sceneRec.Settings),
		}
		if scene.Title == "" {
			warnings = append(warnings, fmt.Sprintf("scene %d has no title, imported as \"Untitled scene\"", position+1))
			scene.Title = "Untitled scene"
		}
		if err := s.scenes.Create(ctx, scene); err != nil {
			rollback()
			return nil, ErrStore(err)
		}
		idMap[sceneRec.ID] = scene.ID
	}

	// The exported default wins over the repository's first-scene rule when
	// it survived clamping.
	for _, sceneRec := range rec.Scenes {
		if sceneRec.IsDefault {
			if newID, ok := idMap[sceneRec.ID]; ok {
				if err := s.scenes.SetDefault(ctx, tour.ID, newID); err != nil {
					rollback()
					return nil, ErrStore(err)
				}
			}
			break
		}
	}

	for _, sceneRec := range rec.Scenes {
		sceneID := idMap[sceneRec.ID]
		for position, hRec := range sceneRec.Hotspots {
			hotspotType := validators.SanitizeHotspotType(hRec.Type)
			targetID := hRec.TargetSceneID

			if hotspotType == models.HotspotTypeScene {
				remapped := uuid.Nil
				if targetID != nil {
					remapped = idMap[*targetID]
				}
				if remapped == uuid.Nil {
					warnings = append(warnings, fmt.Sprintf(
						"hotspot in scene %q pointed at a scene that was not imported, converted to %q",
						sceneRec.Title, s.tier.DefaultAllowedType()))
					hotspotType = s.tier.DefaultAllowedType()
					targetID = nil
				} else {
					targetID = &remapped
				}
			} else {
				targetID = nil
			}

			hotspot := &models.Hotspot{
				SceneID:       sceneID,
				Type:          hotspotType,
				Title:         validators.SanitizeOptionalText(hRec.Title),
				Content:       validators.SanitizeOptionalRichText(hRec.Content),
				URL:           validators.SanitizeURL(hRec.URL),
				TargetSceneID: targetID,
				Icon:          validators.SanitizeIcon(hRec.Icon),
				Yaw:           validators.ClampYaw(hRec.Yaw),
				Pitch:         validators.ClampPitch(hRec.Pitch),
				SortOrder:     position + 1,
				Settings:      settingsToJSON(hRec.Settings),
			}
			if err := s.hotspots.Create(ctx, hotspot); err != nil {
				rollback()
				return nil, ErrStore(err)
			}
		}
	}

	s.logger.WithFields(logrus.Fields{
		"tour_id":  tour.ID,
		"scenes":   len(rec.Scenes),
		"warnings": len(warnings),
	}).Info("tour imported")

	s.publisher.Publish(ctx, events.TourEvent{
		EventType: events.EventTourImported,
		TourID:    tour.ID.String(),
		Slug:      tour.Slug,
		OwnerID:   tour.OwnerID.String(),
	})

	return &models.ImportResult{
		TourID:   tour.ID,
		Slug:     tour.Slug,
		Warnings: warnings,
	}, nil
}

// ImportBatch processes each tour independently; a failure on one tour is
// recorded and does not abort the rest.
func (s *exportService) ImportBatch(ctx context.Context, principal Principal, docs []models.TourExportRec) *models.BatchImportResult {
	result := &models.BatchImportResult{}
	for i := range docs {
		imported, err := s.Import(ctx, principal, &docs[i])
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("tour %q: %s", docs[i].Title, publicMessage(err)))
			continue
		}
		result.Imported++
		result.Results = append(result.Results, *imported)
	}
	return result
}

// publicMessage returns the caller-safe message for an error.
func publicMessage(err error) string {
	if svcErr, ok := AsServiceError(err); ok {
		return svcErr.Message
	}
	return "internal error"
}

// ValidateDocument runs the strict pre-check over a whole document using
// the reject policy: out-of-range coordinates and malformed fields are
// reported instead of being silently coerced.
func (s *exportService) ValidateDocument(doc *models.TourExportRec) *validators.ValidationErrors {
	errs := &validators.ValidationErrors{}

	if tourErrs := validators.ValidateTour(&models.CreateTourRequest{Title: doc.Title, Slug: ""}); tourErrs != nil {
		errs.Fields = append(errs.Fields, tourErrs.Fields...)
	}

	for i, sceneRec := range doc.Scenes {
		prefix := fmt.Sprintf("scenes[%d].", i)
		yaw, pitch, fov := sceneRec.Yaw, sceneRec.Pitch, sceneRec.Fov
		sceneReq := &models.CreateSceneRequest{
			Title:    sceneRec.Title,
			ImageID:  sceneRec.ImageID,
			ImageURL: sceneRec.ImageURL,
			Yaw:      &yaw,
			Pitch:    &pitch,
			Fov:      &fov,
		}
		if sceneErrs := validators.ValidateScene(sceneReq, validators.PolicyReject); sceneErrs != nil {
			for _, f := range sceneErrs.Fields {
				errs.Add(prefix+f.Field, f.Code, f.Message)
			}
		}

		for j, hRec := range sceneRec.Hotspots {
			hPrefix := fmt.Sprintf("%shotspots[%d].", prefix, j)
			hReq := &models.CreateHotspotRequest{
				Type:          hRec.Type,
				Title:         hRec.Title,
				Content:       hRec.Content,
				URL:           hRec.URL,
				TargetSceneID: hRec.TargetSceneID,
				Yaw:           hRec.Yaw,
				Pitch:         hRec.Pitch,
			}
			if hErrs := validators.ValidateHotspot(hReq, validators.PolicyReject); hErrs != nil {
				for _, f := range hErrs.Fields {
					errs.Add(hPrefix+f.Field, f.Code, f.Message)
				}
			}
		}
	}

	return errs.ErrOrNil()
}
