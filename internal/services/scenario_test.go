package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tesseract-hub/tour-service/internal/cache"
	"github.com/tesseract-hub/tour-service/internal/models"
	"github.com/tesseract-hub/tour-service/internal/repository"
	"gorm.io/gorm"
)

// memStore is an in-memory stand-in for the three gorm repositories, kept
// faithful to their semantics: slug suffix disambiguation, first-scene
// default, last-scene protection, default promotion on delete, and
// sort-order assignment. It lets the scenario test below exercise the full
// service stack without a database.
type memStore struct {
	mu       sync.Mutex
	tours    []*models.Tour
	scenes   []*models.Scene
	hotspots []*models.Hotspot
}

func newMemStore() *memStore { return &memStore{} }

func (s *memStore) orderedScenes(tourID uuid.UUID) []*models.Scene {
	var out []*models.Scene
	for _, scene := range s.scenes {
		if scene.TourID == tourID {
			out = append(out, scene)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

func (s *memStore) orderedHotspots(sceneID uuid.UUID) []*models.Hotspot {
	var out []*models.Hotspot
	for _, h := range s.hotspots {
		if h.SceneID == sceneID {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

type memTours struct{ *memStore }

func (s memTours) CreateWithUniqueSlug(ctx context.Context, tour *models.Tour) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tour.ID == uuid.Nil {
		tour.ID = uuid.New()
	}
	base := tour.Slug
	for i := 0; ; i++ {
		if i > 0 {
			tour.Slug = fmt.Sprintf("%s-%d", base, i)
		}
		taken := false
		for _, t := range s.tours {
			if t.Slug == tour.Slug {
				taken = true
				break
			}
		}
		if !taken {
			break
		}
	}
	stored := *tour
	s.tours = append(s.tours, &stored)
	return nil
}

func (s memTours) GetByID(ctx context.Context, id uuid.UUID) (*models.Tour, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tours {
		if t.ID == id {
			out := *t
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s memTours) GetBySlug(ctx context.Context, slug string) (*models.Tour, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tours {
		if t.Slug == slug {
			out := *t
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s memTours) GetGraph(ctx context.Context, id uuid.UUID) (*models.Tour, error) {
	tour, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, scene := range s.orderedScenes(id) {
		sceneCopy := *scene
		for _, h := range s.orderedHotspots(scene.ID) {
			sceneCopy.Hotspots = append(sceneCopy.Hotspots, *h)
		}
		tour.Scenes = append(tour.Scenes, sceneCopy)
	}
	return tour, nil
}

func (s memTours) Update(ctx context.Context, tour *models.Tour) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tours {
		if t.ID == tour.ID {
			stored := *tour
			stored.Scenes = nil
			s.tours[i] = &stored
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s memTours) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	kept := s.tours[:0]
	for _, t := range s.tours {
		if t.ID == id {
			found = true
			continue
		}
		kept = append(kept, t)
	}
	s.tours = kept
	if !found {
		return gorm.ErrRecordNotFound
	}
	sceneIDs := map[uuid.UUID]bool{}
	keptScenes := s.scenes[:0]
	for _, scene := range s.scenes {
		if scene.TourID == id {
			sceneIDs[scene.ID] = true
			continue
		}
		keptScenes = append(keptScenes, scene)
	}
	s.scenes = keptScenes
	keptHotspots := s.hotspots[:0]
	for _, h := range s.hotspots {
		if !sceneIDs[h.SceneID] {
			keptHotspots = append(keptHotspots, h)
		}
	}
	s.hotspots = keptHotspots
	return nil
}

func (s memTours) ListByOwner(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]models.Tour, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var owned []models.Tour
	for i := len(s.tours) - 1; i >= 0; i-- {
		if s.tours[i].OwnerID == ownerID {
			owned = append(owned, *s.tours[i])
		}
	}
	total := int64(len(owned))
	offset := (page - 1) * limit
	if offset >= len(owned) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(owned) {
		end = len(owned)
	}
	return owned[offset:end], total, nil
}

func (s memTours) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, t := range s.tours {
		if t.OwnerID == ownerID {
			count++
		}
	}
	return count, nil
}

func (s memTours) CountAll(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.tours)), nil
}

type memScenes struct{ *memStore }

func (s memScenes) Create(ctx context.Context, scene *models.Scene) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if scene.ID == uuid.Nil {
		scene.ID = uuid.New()
	}
	siblings := s.orderedScenes(scene.TourID)
	if len(siblings) == 0 {
		scene.IsDefault = true
	} else if scene.IsDefault {
		scene.IsDefault = false
	}
	if scene.SortOrder <= 0 {
		maxOrder := 0
		for _, sibling := range siblings {
			if sibling.SortOrder > maxOrder {
				maxOrder = sibling.SortOrder
			}
		}
		scene.SortOrder = maxOrder + 1
	}
	stored := *scene
	s.scenes = append(s.scenes, &stored)
	return nil
}

func (s memScenes) GetByID(ctx context.Context, id uuid.UUID) (*models.Scene, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, scene := range s.scenes {
		if scene.ID == id {
			out := *scene
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s memScenes) Update(ctx context.Context, scene *models.Scene) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.scenes {
		if existing.ID == scene.ID {
			stored := *scene
			stored.Hotspots = nil
			s.scenes[i] = &stored
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s memScenes) Delete(ctx context.Context, id uuid.UUID) (*uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var target *models.Scene
	for _, scene := range s.scenes {
		if scene.ID == id {
			target = scene
			break
		}
	}
	if target == nil {
		return nil, gorm.ErrRecordNotFound
	}
	siblings := s.orderedScenes(target.TourID)
	if len(siblings) <= 1 {
		return nil, repository.ErrLastScene
	}

	kept := s.scenes[:0]
	for _, scene := range s.scenes {
		if scene.ID != id {
			kept = append(kept, scene)
		}
	}
	s.scenes = kept
	keptHotspots := s.hotspots[:0]
	for _, h := range s.hotspots {
		if h.SceneID != id {
			keptHotspots = append(keptHotspots, h)
		}
	}
	s.hotspots = keptHotspots

	var promoted *uuid.UUID
	if target.IsDefault {
		for _, sibling := range siblings {
			if sibling.ID == id {
				continue
			}
			sibling.IsDefault = true
			promotedID := sibling.ID
			promoted = &promotedID
			break
		}
	}
	return promoted, nil
}

func (s memScenes) ListByTour(ctx context.Context, tourID uuid.UUID) ([]models.Scene, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Scene
	for _, scene := range s.orderedScenes(tourID) {
		out = append(out, *scene)
	}
	return out, nil
}

func (s memScenes) CountByTour(ctx context.Context, tourID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.orderedScenes(tourID))), nil
}

func (s memScenes) Reorder(ctx context.Context, tourID uuid.UUID, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	belongs := map[uuid.UUID]*models.Scene{}
	for _, scene := range s.scenes {
		if scene.TourID == tourID {
			belongs[scene.ID] = scene
		}
	}
	position := 0
	for _, id := range ids {
		scene, ok := belongs[id]
		if !ok {
			continue
		}
		position++
		scene.SortOrder = position
	}
	return nil
}

func (s memScenes) SetDefault(ctx context.Context, tourID, sceneID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var target *models.Scene
	for _, scene := range s.scenes {
		if scene.TourID == tourID && scene.ID == sceneID {
			target = scene
			break
		}
	}
	if target == nil {
		return gorm.ErrRecordNotFound
	}
	for _, scene := range s.scenes {
		if scene.TourID == tourID {
			scene.IsDefault = false
		}
	}
	target.IsDefault = true
	return nil
}

type memHotspots struct{ *memStore }

func (s memHotspots) Create(ctx context.Context, hotspot *models.Hotspot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if hotspot.ID == uuid.Nil {
		hotspot.ID = uuid.New()
	}
	if hotspot.SortOrder <= 0 {
		maxOrder := 0
		for _, h := range s.orderedHotspots(hotspot.SceneID) {
			if h.SortOrder > maxOrder {
				maxOrder = h.SortOrder
			}
		}
		hotspot.SortOrder = maxOrder + 1
	}
	stored := *hotspot
	s.hotspots = append(s.hotspots, &stored)
	return nil
}

func (s memHotspots) GetByID(ctx context.Context, id uuid.UUID) (*models.Hotspot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.hotspots {
		if h.ID == id {
			out := *h
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s memHotspots) Update(ctx context.Context, hotspot *models.Hotspot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.hotspots {
		if existing.ID == hotspot.ID {
			stored := *hotspot
			s.hotspots[i] = &stored
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s memHotspots) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.hotspots[:0]
	found := false
	for _, h := range s.hotspots {
		if h.ID == id {
			found = true
			continue
		}
		kept = append(kept, h)
	}
	s.hotspots = kept
	if !found {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s memHotspots) ListByScene(ctx context.Context, sceneID uuid.UUID) ([]models.Hotspot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Hotspot
	for _, h := range s.orderedHotspots(sceneID) {
		out = append(out, *h)
	}
	return out, nil
}

func (s memHotspots) CountByScene(ctx context.Context, sceneID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.orderedHotspots(sceneID))), nil
}

func (s memHotspots) Reorder(ctx context.Context, sceneID uuid.UUID, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	belongs := map[uuid.UUID]*models.Hotspot{}
	for _, h := range s.hotspots {
		if h.SceneID == sceneID {
			belongs[h.ID] = h
		}
	}
	position := 0
	for _, id := range ids {
		h, ok := belongs[id]
		if !ok {
			continue
		}
		position++
		h.SortOrder = position
	}
	return nil
}

type scenarioStack struct {
	store    *memStore
	tours    TourService
	scenes   SceneService
	hotspots HotspotService
	export   ExportService
	public   PublicService
}

func newScenarioStack() *scenarioStack {
	store := newMemStore()
	tourRepo := memTours{store}
	sceneRepo := memScenes{store}
	hotspotRepo := memHotspots{store}
	docCache := cache.NewTourCache(nil)
	logger := testLogger()
	tier := liteTier()

	tourSvc := NewTourService(tourRepo, tier, nil, docCache, logger)
	return &scenarioStack{
		store:    store,
		tours:    tourSvc,
		scenes:   NewSceneService(tourRepo, sceneRepo, tier, nil, docCache, logger),
		hotspots: NewHotspotService(tourRepo, sceneRepo, hotspotRepo, tier, nil, docCache, logger),
		export:   NewExportService(tourRepo, sceneRepo, hotspotRepo, tourSvc, tier, nil, logger),
		public:   NewPublicService(tourRepo, docCache, logger),
	}
}

// TestConcurrentSceneCreatesKeepOneDefault races several first-scene creates
// against each other. Scene-set mutations serialize on the parent tour (the
// store's lock here, a tour row lock in the gorm repository), so exactly one
// of the racers may observe the empty scene set and become the default.
func TestConcurrentSceneCreatesKeepOneDefault(t *testing.T) {
	ctx := context.Background()
	stack := newScenarioStack()
	curator := owner()

	tour, err := stack.tours.CreateTour(ctx, curator, &models.CreateTourRequest{Title: "Museum Tour"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 1; i <= 5; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, createErr := stack.scenes.CreateScene(ctx, curator, tour.ID, &models.CreateSceneRequest{
				Title:    fmt.Sprintf("Hall %d", n),
				ImageURL: strPtr(fmt.Sprintf("https://cdn.example.com/hall-%d.jpg", n)),
			})
			assert.NoError(t, createErr)
		}(i)
	}
	wg.Wait()

	listed, err := stack.scenes.ListScenes(ctx, curator, tour.ID)
	require.NoError(t, err)
	require.Len(t, listed, 5)
	defaults := 0
	for _, scene := range listed {
		if scene.IsDefault {
			defaults++
		}
	}
	assert.Equal(t, 1, defaults)
}

// TestMuseumScenario walks one tour through its whole life: creation, quota
// limits, scenes and hotspots, reordering, default promotion, publishing,
// export, and re-import by another account.
func TestMuseumScenario(t *testing.T) {
	ctx := context.Background()
	stack := newScenarioStack()
	curator := owner()

	tour, err := stack.tours.CreateTour(ctx, curator, &models.CreateTourRequest{
		Title:       "Museum Tour",
		Description: "<p>Our permanent collection</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, "museum-tour", tour.Slug)
	assert.Equal(t, models.TourStatusDraft, tour.Status)

	// The lite tier allows a single tour per owner.
	_, err = stack.tours.CreateTour(ctx, curator, &models.CreateTourRequest{Title: "Annex"})
	svcErr, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, CodeLimitReached, svcErr.Code)

	// Five scenes fit, the sixth does not.
	var scenes []*models.Scene
	for i := 1; i <= 5; i++ {
		scene, err := stack.scenes.CreateScene(ctx, curator, tour.ID, &models.CreateSceneRequest{
			Title:    fmt.Sprintf("Hall %d", i),
			ImageURL: strPtr(fmt.Sprintf("https://cdn.example.com/hall-%d.jpg", i)),
		})
		require.NoError(t, err)
		scenes = append(scenes, scene)
	}
	assert.True(t, scenes[0].IsDefault)
	assert.False(t, scenes[1].IsDefault)

	_, err = stack.scenes.CreateScene(ctx, curator, tour.ID, &models.CreateSceneRequest{
		Title:    "Hall 6",
		ImageURL: strPtr("https://cdn.example.com/hall-6.jpg"),
	})
	svcErr, ok = AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, CodeLimitReached, svcErr.Code)

	// An info hotspot and a navigation hotspot on Hall 2, pointing into
	// Hall 3.
	welcome, err := stack.hotspots.CreateHotspot(ctx, curator, scenes[1].ID, &models.CreateHotspotRequest{
		Type:  "info",
		Title: strPtr("Welcome"),
		Yaw:   200,
	})
	require.NoError(t, err)
	assert.Equal(t, float64(180), welcome.Yaw)
	nav, err := stack.hotspots.CreateHotspot(ctx, curator, scenes[1].ID, &models.CreateHotspotRequest{
		Type:          "scene",
		TargetSceneID: &scenes[2].ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, nav.SortOrder)

	// Reordering is idempotent: applying the same order twice yields the
	// same listing.
	reversed := []uuid.UUID{scenes[4].ID, scenes[3].ID, scenes[2].ID, scenes[1].ID, scenes[0].ID}
	require.NoError(t, stack.scenes.ReorderScenes(ctx, curator, tour.ID, reversed))
	require.NoError(t, stack.scenes.ReorderScenes(ctx, curator, tour.ID, reversed))
	listed, err := stack.scenes.ListScenes(ctx, curator, tour.ID)
	require.NoError(t, err)
	require.Len(t, listed, 5)
	assert.Equal(t, "Hall 5", listed[0].Title)
	assert.Equal(t, "Hall 1", listed[4].Title)

	// Deleting the default scene promotes the survivor with the lowest sort
	// order, now Hall 5.
	require.NoError(t, stack.scenes.DeleteScene(ctx, curator, scenes[0].ID))
	listed, err = stack.scenes.ListScenes(ctx, curator, tour.ID)
	require.NoError(t, err)
	require.Len(t, listed, 4)
	assert.Equal(t, "Hall 5", listed[0].Title)
	assert.True(t, listed[0].IsDefault)

	// The public path hides the draft but serves it once published.
	_, err = stack.public.GetPublicTour(ctx, Principal{}, "museum-tour")
	svcErr, ok = AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, CodeNotFound, svcErr.Code)

	published := models.TourStatusPublished
	_, err = stack.tours.UpdateTour(ctx, curator, tour.ID, &models.UpdateTourRequest{Status: &published})
	require.NoError(t, err)
	doc, err := stack.public.GetPublicTour(ctx, Principal{}, "museum-tour")
	require.NoError(t, err)
	require.Len(t, doc.Scenes, 4)
	assert.Equal(t, "Hall 5", doc.Scenes[0].Title)

	// Export and re-import under another account. The slug collides and is
	// disambiguated; the navigation hotspot is remapped to the new scene id.
	export, err := stack.export.Export(ctx, curator, tour.ID)
	require.NoError(t, err)
	require.Len(t, export.Tour.Scenes, 4)

	visitor := owner()
	result, err := stack.export.Import(ctx, visitor, &export.Tour)
	require.NoError(t, err)
	assert.Equal(t, "museum-tour-1", result.Slug)
	assert.Empty(t, result.Warnings)

	imported, err := stack.tours.GetTour(ctx, visitor, result.TourID)
	require.NoError(t, err)
	assert.Equal(t, models.TourStatusDraft, imported.Status)

	importedScenes, err := stack.scenes.ListScenes(ctx, visitor, result.TourID)
	require.NoError(t, err)
	require.Len(t, importedScenes, 4)
	importedHotspots, err := stack.hotspots.ListHotspots(ctx, visitor, importedScenes[3].ID)
	require.NoError(t, err)
	require.Len(t, importedHotspots, 2)
	var navCopy *models.Hotspot
	for i := range importedHotspots {
		if importedHotspots[i].Type == models.HotspotTypeScene {
			navCopy = &importedHotspots[i]
		}
	}
	require.NotNil(t, navCopy)
	require.NotNil(t, navCopy.TargetSceneID)
	assert.NotEqual(t, scenes[2].ID, *navCopy.TargetSceneID)
	found := false
	for _, scene := range importedScenes {
		if scene.ID == *navCopy.TargetSceneID {
			found = true
		}
	}
	assert.True(t, found, "navigation target should be one of the imported scenes")

	// Deleting the imported tour cascades to all of its scenes and hotspots.
	require.NoError(t, stack.tours.DeleteTour(ctx, visitor, result.TourID))
	_, err = stack.scenes.ListScenes(ctx, visitor, result.TourID)
	svcErr, ok = AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, CodeNotFound, svcErr.Code)
	count, err := memScenes{stack.store}.CountByTour(ctx, result.TourID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
