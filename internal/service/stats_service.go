package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/stroyhub-backend/internal/models"
)

// StatsRequestCounter считает заявки исполнителя по статусам.
type StatsRequestCounter interface {
	CountByProviderAndStatuses(ctx context.Context, providerID uuid.UUID, statuses []string) (int, error)
}

// StatsRatingReader возвращает сводку рейтинга пользователя.
type StatsRatingReader interface {
	GetAverageRating(ctx context.Context, targetID uuid.UUID) (float64, int, error)
}

// StatsService собирает сводку для личного кабинета исполнителя.
type StatsService struct {
	requests StatsRequestCounter
	reviews  StatsRatingReader
}

// NewStatsService создаёт сервис статистики.
func NewStatsService(requests StatsRequestCounter, reviews StatsRatingReader) *StatsService {
	return &StatsService{requests: requests, reviews: reviews}
}

// ProviderStats возвращает счётчики заявок и рейтинг исполнителя.
func (s *StatsService) ProviderStats(ctx context.Context, providerID uuid.UUID) (*models.ProviderStats, error) {
	active, err := s.requests.CountByProviderAndStatuses(ctx, providerID,
		[]string{models.RequestStatusAccepted, models.RequestStatusInProgress})
	if err != nil {
		return nil, err
	}

	completed, err := s.requests.CountByProviderAndStatuses(ctx, providerID,
		[]string{models.RequestStatusCompleted})
	if err != nil {
		return nil, err
	}

	rating, total, err := s.reviews.GetAverageRating(ctx, providerID)
	if err != nil {
		return nil, err
	}

	return &models.ProviderStats{
		ActiveRequests:    active,
		CompletedRequests: completed,
		AverageRating:     rating,
		TotalReviews:      total,
	}, nil
}
