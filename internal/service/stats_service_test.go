package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/stroyhub-backend/internal/models"
	"github.com/ignatzorin/stroyhub-backend/internal/pkg/apperror"
)

type mockStatsRequestCounter struct {
	mock.Mock
}

func (m *mockStatsRequestCounter) CountByProviderAndStatuses(ctx context.Context, providerID uuid.UUID, statuses []string) (int, error) {
	args := m.Called(ctx, providerID, statuses)
	return args.Int(0), args.Error(1)
}

type mockStatsRatingReader struct {
	mock.Mock
}

func (m *mockStatsRatingReader) GetAverageRating(ctx context.Context, targetID uuid.UUID) (float64, int, error) {
	args := m.Called(ctx, targetID)
	return args.Get(0).(float64), args.Int(1), args.Error(2)
}

func TestStatsService_ProviderStats(t *testing.T) {
	requests := new(mockStatsRequestCounter)
	reviews := new(mockStatsRatingReader)
	svc := NewStatsService(requests, reviews)
	ctx := context.Background()

	providerID := uuid.New()
	requests.On("CountByProviderAndStatuses", ctx, providerID,
		[]string{models.RequestStatusAccepted, models.RequestStatusInProgress}).Return(3, nil)
	requests.On("CountByProviderAndStatuses", ctx, providerID,
		[]string{models.RequestStatusCompleted}).Return(12, nil)
	reviews.On("GetAverageRating", ctx, providerID).Return(4.7, 9, nil)

	stats, err := svc.ProviderStats(ctx, providerID)

	assert.NoError(t, err)
	assert.Equal(t, 3, stats.ActiveRequests)
	assert.Equal(t, 12, stats.CompletedRequests)
	assert.Equal(t, 4.7, stats.AverageRating)
	assert.Equal(t, 9, stats.TotalReviews)
}

func TestStatsService_ProviderStats_CounterError(t *testing.T) {
	requests := new(mockStatsRequestCounter)
	reviews := new(mockStatsRatingReader)
	svc := NewStatsService(requests, reviews)
	ctx := context.Background()

	providerID := uuid.New()
	requests.On("CountByProviderAndStatuses", ctx, providerID, mock.Anything).
		Return(0, apperror.New(apperror.ErrCodeTransient, "хранилище недоступно"))

	_, err := svc.ProviderStats(ctx, providerID)

	assert.Error(t, err)
	assert.True(t, apperror.IsTransient(err))
}
