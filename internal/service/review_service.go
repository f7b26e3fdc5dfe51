package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/stroyhub-backend/internal/models"
	"github.com/ignatzorin/stroyhub-backend/internal/pkg/apperror"
)

// ReviewRepository описывает взаимодействие сервиса с хранилищем отзывов.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByRequestAndAuthor(ctx context.Context, requestID, authorID uuid.UUID) (*models.Review, error)
	ListByTarget(ctx context.Context, targetID uuid.UUID, limit, offset int) ([]models.Review, error)
	GetAverageRating(ctx context.Context, targetID uuid.UUID) (float64, int, error)
}

// RequestRepoForReview описывает минимальный контракт для чтения заявок.
type RequestRepoForReview interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error)
}

// ReviewService — отзывы сторон по завершённым заявкам.
type ReviewService struct {
	repo     ReviewRepository
	requests RequestRepoForReview
}

// NewReviewService создаёт сервис отзывов.
func NewReviewService(repo ReviewRepository, requests RequestRepoForReview) *ReviewService {
	return &ReviewService{repo: repo, requests: requests}
}

// CreateReview создаёт отзыв после завершения заявки.
func (s *ReviewService) CreateReview(ctx context.Context, requestID, authorID uuid.UUID, rating int, comment *string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, apperror.New(apperror.ErrCodeValidation, "рейтинг должен быть от 1 до 5")
	}

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if req.Status != models.RequestStatusCompleted {
		return nil, apperror.New(apperror.ErrCodeValidation, "отзыв можно оставить только после завершения работ")
	}

	// Определяем, кому оставляется отзыв
	var targetID uuid.UUID
	if authorID == req.ClientID {
		if req.ProviderID == nil {
			return nil, apperror.New(apperror.ErrCodeValidation, "исполнитель не назначен на заявку")
		}
		targetID = *req.ProviderID
	} else if req.ProviderID != nil && authorID == *req.ProviderID {
		targetID = req.ClientID
	} else {
		return nil, apperror.New(apperror.ErrCodePermissionDenied, "вы не участник этой заявки")
	}

	existing, err := s.repo.GetByRequestAndAuthor(ctx, requestID, authorID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "вы уже оставили отзыв по этой заявке")
	}

	review := &models.Review{
		RequestID: requestID,
		AuthorID:  authorID,
		TargetID:  targetID,
		Rating:    rating,
		Comment:   comment,
	}

	if err := s.repo.Create(ctx, review); err != nil {
		return nil, err
	}

	return review, nil
}

// ListUserReviews возвращает отзывы о пользователе.
func (s *ReviewService) ListUserReviews(ctx context.Context, targetID uuid.UUID, limit, offset int) ([]models.Review, error) {
	limit, offset = normalizePagination(limit, offset)
	return s.repo.ListByTarget(ctx, targetID, limit, offset)
}

// GetUserRating возвращает средний рейтинг (1 знак после запятой) и
// количество отзывов; без отзывов — (0, 0).
func (s *ReviewService) GetUserRating(ctx context.Context, targetID uuid.UUID) (float64, int, error) {
	return s.repo.GetAverageRating(ctx, targetID)
}

// CanLeaveReview проверяет, может ли пользователь оставить отзыв.
func (s *ReviewService) CanLeaveReview(ctx context.Context, requestID, userID uuid.UUID) (bool, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return false, nil
	}
	if req.Status != models.RequestStatusCompleted {
		return false, nil
	}
	if userID != req.ClientID && (req.ProviderID == nil || userID != *req.ProviderID) {
		return false, nil
	}
	existing, err := s.repo.GetByRequestAndAuthor(ctx, requestID, userID)
	if err != nil {
		return false, err
	}
	return existing == nil, nil
}
