package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tesseract-hub/tour-service/internal/models"
	"gorm.io/gorm"
)

func newTourService(tours *MockTourRepository) TourService {
	return NewTourService(tours, liteTier(), nil, testCache(), testLogger())
}

func TestCreateTour(t *testing.T) {
	principal := owner()

	t.Run("creates draft with derived slug", func(t *testing.T) {
		tours := new(MockTourRepository)
		tours.On("CountByOwner", mock.Anything, principal.ID).Return(int64(0), nil)
		tours.On("CreateWithUniqueSlug", mock.Anything, mock.AnythingOfType("*models.Tour")).Return(nil)

		tour, err := newTourService(tours).CreateTour(context.Background(), principal, &models.CreateTourRequest{
			Title: "Museum Tour",
		})

		require.NoError(t, err)
		assert.Equal(t, "Museum Tour", tour.Title)
		assert.Equal(t, "museum-tour", tour.Slug)
		assert.Equal(t, models.TourStatusDraft, tour.Status)
		assert.Equal(t, principal.ID, tour.OwnerID)
		assert.JSONEq(t, "{}", string(tour.Settings))
		tours.AssertExpectations(t)
	})

	t.Run("strips markup from title", func(t *testing.T) {
		tours := new(MockTourRepository)
		tours.On("CountByOwner", mock.Anything, principal.ID).Return(int64(0), nil)
		tours.On("CreateWithUniqueSlug", mock.Anything, mock.AnythingOfType("*models.Tour")).Return(nil)

		tour, err := newTourService(tours).CreateTour(context.Background(), principal, &models.CreateTourRequest{
			Title:       `<script>alert(1)</script>Museum`,
			Description: `<p>Nice</p><iframe src="https://evil"></iframe>`,
		})

		require.NoError(t, err)
		assert.Equal(t, "Museum", tour.Title)
		assert.Equal(t, "<p>Nice</p>", tour.Description)
	})

	t.Run("anonymous caller denied", func(t *testing.T) {
		tours := new(MockTourRepository)

		_, err := newTourService(tours).CreateTour(context.Background(), Principal{}, &models.CreateTourRequest{
			Title: "Museum",
		})

		svcErr, ok := AsServiceError(err)
		require.True(t, ok)
		assert.Equal(t, CodePermissionDenied, svcErr.Code)
		tours.AssertNotCalled(t, "CreateWithUniqueSlug", mock.Anything, mock.Anything)
	})

	t.Run("quota rejected on lite tier", func(t *testing.T) {
		tours := new(MockTourRepository)
		tours.On("CountByOwner", mock.Anything, principal.ID).Return(int64(1), nil)

		_, err := newTourService(tours).CreateTour(context.Background(), principal, &models.CreateTourRequest{
			Title: "Second Tour",
		})

		svcErr, ok := AsServiceError(err)
		require.True(t, ok)
		assert.Equal(t, CodeLimitReached, svcErr.Code)
		tours.AssertNotCalled(t, "CreateWithUniqueSlug", mock.Anything, mock.Anything)
	})

	t.Run("pro tier has no ceiling", func(t *testing.T) {
		tours := new(MockTourRepository)
		tours.On("CountByOwner", mock.Anything, principal.ID).Return(int64(100000), nil)
		tours.On("CreateWithUniqueSlug", mock.Anything, mock.AnythingOfType("*models.Tour")).Return(nil)

		svc := NewTourService(tours, proTier(), nil, testCache(), testLogger())
		_, err := svc.CreateTour(context.Background(), principal, &models.CreateTourRequest{
			Title: "Yet Another Tour",
		})

		assert.NoError(t, err)
	})

	t.Run("missing title rejected", func(t *testing.T) {
		tours := new(MockTourRepository)
		tours.On("CountByOwner", mock.Anything, principal.ID).Return(int64(0), nil)

		_, err := newTourService(tours).CreateTour(context.Background(), principal, &models.CreateTourRequest{})

		svcErr, ok := AsServiceError(err)
		require.True(t, ok)
		assert.Equal(t, CodeMissingRequiredField, svcErr.Code)
		require.Len(t, svcErr.Fields, 1)
		assert.Equal(t, "title", svcErr.Fields[0].Field)
	})

	t.Run("markup-only title rejected", func(t *testing.T) {
		tours := new(MockTourRepository)
		tours.On("CountByOwner", mock.Anything, principal.ID).Return(int64(0), nil)

		// Sanitization would reduce this to the empty string, so it never
		// reaches the store.
		_, err := newTourService(tours).CreateTour(context.Background(), principal, &models.CreateTourRequest{
			Title: "<b></b>",
		})

		svcErr, ok := AsServiceError(err)
		require.True(t, ok)
		assert.Equal(t, CodeMissingRequiredField, svcErr.Code)
		tours.AssertNotCalled(t, "CreateWithUniqueSlug", mock.Anything, mock.Anything)
	})
}

func TestGetTourHidesOtherOwners(t *testing.T) {
	principal := owner()
	stranger := owner()
	tourID := uuid.New()

	tours := new(MockTourRepository)
	tours.On("GetByID", mock.Anything, tourID).Return(&models.Tour{
		ID:      tourID,
		OwnerID: principal.ID,
		Status:  models.TourStatusPublished,
	}, nil)

	svc := newTourService(tours)

	// Owner sees the tour.
	tour, err := svc.GetTour(context.Background(), principal, tourID)
	require.NoError(t, err)
	assert.Equal(t, tourID, tour.ID)

	// A different authenticated user gets NOT_FOUND, not PERMISSION_DENIED,
	// even for a published tour: management reads never leak existence.
	_, err = svc.GetTour(context.Background(), stranger, tourID)
	svcErr, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, CodeNotFound, svcErr.Code)

	// Admins see everything.
	_, err = svc.GetTour(context.Background(), Principal{ID: uuid.New(), Role: RoleAdmin}, tourID)
	assert.NoError(t, err)
}

func TestUpdateTour(t *testing.T) {
	principal := owner()
	tourID := uuid.New()

	existing := func() *models.Tour {
		return &models.Tour{
			ID:      tourID,
			Title:   "Old Title",
			Slug:    "old-title",
			Status:  models.TourStatusDraft,
			OwnerID: principal.ID,
		}
	}

	t.Run("partial update keeps omitted fields", func(t *testing.T) {
		tours := new(MockTourRepository)
		tours.On("GetByID", mock.Anything, tourID).Return(existing(), nil)
		tours.On("Update", mock.Anything, mock.AnythingOfType("*models.Tour")).Return(nil)

		status := models.TourStatusPublished
		tour, err := newTourService(tours).UpdateTour(context.Background(), principal, tourID, &models.UpdateTourRequest{
			Status: &status,
		})

		require.NoError(t, err)
		assert.Equal(t, "Old Title", tour.Title)
		assert.Equal(t, models.TourStatusPublished, tour.Status)
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		tours := new(MockTourRepository)
		tours.On("GetByID", mock.Anything, tourID).Return(existing(), nil)

		bad := models.TourStatus("vaporized")
		_, err := newTourService(tours).UpdateTour(context.Background(), principal, tourID, &models.UpdateTourRequest{
			Status: &bad,
		})

		svcErr, ok := AsServiceError(err)
		require.True(t, ok)
		assert.Equal(t, CodeInvalidType, svcErr.Code)
	})

	t.Run("empty title rejected", func(t *testing.T) {
		tours := new(MockTourRepository)
		tours.On("GetByID", mock.Anything, tourID).Return(existing(), nil)

		_, err := newTourService(tours).UpdateTour(context.Background(), principal, tourID, &models.UpdateTourRequest{
			Title: strPtr("   "),
		})

		svcErr, ok := AsServiceError(err)
		require.True(t, ok)
		assert.Equal(t, CodeMissingRequiredField, svcErr.Code)
	})
}

func TestDeleteTour(t *testing.T) {
	principal := owner()
	tourID := uuid.New()

	t.Run("owner deletes", func(t *testing.T) {
		tours := new(MockTourRepository)
		tours.On("GetByID", mock.Anything, tourID).Return(&models.Tour{
			ID: tourID, OwnerID: principal.ID, Slug: "museum",
		}, nil)
		tours.On("Delete", mock.Anything, tourID).Return(nil)

		err := newTourService(tours).DeleteTour(context.Background(), principal, tourID)
		assert.NoError(t, err)
		tours.AssertExpectations(t)
	})

	t.Run("missing tour", func(t *testing.T) {
		tours := new(MockTourRepository)
		tours.On("GetByID", mock.Anything, tourID).Return(nil, gorm.ErrRecordNotFound)

		err := newTourService(tours).DeleteTour(context.Background(), principal, tourID)
		svcErr, ok := AsServiceError(err)
		require.True(t, ok)
		assert.Equal(t, CodeNotFound, svcErr.Code)
	})
}

func TestListToursRequiresIdentity(t *testing.T) {
	tours := new(MockTourRepository)

	_, _, err := newTourService(tours).ListTours(context.Background(), Principal{}, 1, 20)

	svcErr, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, CodePermissionDenied, svcErr.Code)
}
