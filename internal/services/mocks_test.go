package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/tesseract-hub/tour-service/internal/cache"
	"github.com/tesseract-hub/tour-service/internal/config"
	"github.com/tesseract-hub/tour-service/internal/limits"
	"github.com/tesseract-hub/tour-service/internal/models"
)

// MockTourRepository is a mock implementation of repository.TourRepository
type MockTourRepository struct {
	mock.Mock
}

func (m *MockTourRepository) CreateWithUniqueSlug(ctx context.Context, tour *models.Tour) error {
	args := m.Called(ctx, tour)
	return args.Error(0)
}

func (m *MockTourRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tour, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tour), args.Error(1)
}

func (m *MockTourRepository) GetBySlug(ctx context.Context, slug string) (*models.Tour, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tour), args.Error(1)
}

func (m *MockTourRepository) GetGraph(ctx context.Context, id uuid.UUID) (*models.Tour, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tour), args.Error(1)
}

func (m *MockTourRepository) Update(ctx context.Context, tour *models.Tour) error {
	args := m.Called(ctx, tour)
	return args.Error(0)
}

func (m *MockTourRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTourRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]models.Tour, int64, error) {
	args := m.Called(ctx, ownerID, page, limit)
	return args.Get(0).([]models.Tour), args.Get(1).(int64), args.Error(2)
}

func (m *MockTourRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTourRepository) CountAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockSceneRepository is a mock implementation of repository.SceneRepository
type MockSceneRepository struct {
	mock.Mock
}

func (m *MockSceneRepository) Create(ctx context.Context, scene *models.Scene) error {
	args := m.Called(ctx, scene)
	return args.Error(0)
}

func (m *MockSceneRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Scene, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Scene), args.Error(1)
}

func (m *MockSceneRepository) Update(ctx context.Context, scene *models.Scene) error {
	args := m.Called(ctx, scene)
	return args.Error(0)
}

func (m *MockSceneRepository) Delete(ctx context.Context, id uuid.UUID) (*uuid.UUID, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*uuid.UUID), args.Error(1)
}

func (m *MockSceneRepository) ListByTour(ctx context.Context, tourID uuid.UUID) ([]models.Scene, error) {
	args := m.Called(ctx, tourID)
	return args.Get(0).([]models.Scene), args.Error(1)
}

func (m *MockSceneRepository) CountByTour(ctx context.Context, tourID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tourID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSceneRepository) Reorder(ctx context.Context, tourID uuid.UUID, ids []uuid.UUID) error {
	args := m.Called(ctx, tourID, ids)
	return args.Error(0)
}

func (m *MockSceneRepository) SetDefault(ctx context.Context, tourID, sceneID uuid.UUID) error {
	args := m.Called(ctx, tourID, sceneID)
	return args.Error(0)
}

// MockHotspotRepository is a mock implementation of repository.HotspotRepository
type MockHotspotRepository struct {
	mock.Mock
}

func (m *MockHotspotRepository) Create(ctx context.Context, hotspot *models.Hotspot) error {
	args := m.Called(ctx, hotspot)
	return args.Error(0)
}

func (m *MockHotspotRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Hotspot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Hotspot), args.Error(1)
}

func (m *MockHotspotRepository) Update(ctx context.Context, hotspot *models.Hotspot) error {
	args := m.Called(ctx, hotspot)
	return args.Error(0)
}

func (m *MockHotspotRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockHotspotRepository) ListByScene(ctx context.Context, sceneID uuid.UUID) ([]models.Hotspot, error) {
	args := m.Called(ctx, sceneID)
	return args.Get(0).([]models.Hotspot), args.Error(1)
}

func (m *MockHotspotRepository) CountByScene(ctx context.Context, sceneID uuid.UUID) (int64, error) {
	args := m.Called(ctx, sceneID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockHotspotRepository) Reorder(ctx context.Context, sceneID uuid.UUID, ids []uuid.UUID) error {
	args := m.Called(ctx, sceneID, ids)
	return args.Error(0)
}

// Shared test fixtures

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testCache() *cache.TourCache {
	return cache.NewTourCache(nil)
}

func liteTier() limits.Tier {
	return limits.FromConfig(config.TierConfig{
		Name:                "lite",
		MaxTours:            1,
		MaxScenesPerTour:    5,
		MaxHotspotsPerScene: 5,
		AllowedHotspotTypes: []string{"info", "link", "scene"},
		QuotaScope:          "owner",
	})
}

func proTier() limits.Tier {
	return limits.FromConfig(config.TierConfig{
		Name:                "pro",
		AllowedHotspotTypes: []string{"info", "link", "scene", "image", "video"},
		QuotaScope:          "owner",
	})
}

func owner() Principal {
	return Principal{ID: uuid.New()}
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }
