package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/stroyhub-backend/internal/models"
	"github.com/ignatzorin/stroyhub-backend/internal/pkg/apperror"
)

// ReviewRepository отвечает за отзывы о сторонах завершённых заявок.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository создаёт экземпляр репозитория.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create сохраняет отзыв. Уникальный индекс (request_id, author_id)
// не допускает повторный отзыв одного автора по одной заявке.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	query := `
		INSERT INTO reviews (request_id, author_id, target_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		review.RequestID, review.AuthorID, review.TargetID, review.Rating, review.Comment,
	).Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return apperror.New(apperror.ErrCodeConflict, "вы уже оставили отзыв по этой заявке")
		}
		return fmt.Errorf("review repository: create %w", err)
	}
	return nil
}

// GetByRequestAndAuthor возвращает отзыв автора по заявке, nil если его нет.
func (r *ReviewRepository) GetByRequestAndAuthor(ctx context.Context, requestID, authorID uuid.UUID) (*models.Review, error) {
	var review models.Review
	query := `SELECT * FROM reviews WHERE request_id = $1 AND author_id = $2`
	if err := r.db.GetContext(ctx, &review, query, requestID, authorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("review repository: get by request and author %w", err)
	}
	return &review, nil
}

// ListByTarget возвращает отзывы о пользователе.
func (r *ReviewRepository) ListByTarget(ctx context.Context, targetID uuid.UUID, limit, offset int) ([]models.Review, error) {
	query := `
		SELECT * FROM reviews
		WHERE target_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	var reviews []models.Review
	if err := r.db.SelectContext(ctx, &reviews, query, targetID, limit, offset); err != nil {
		return nil, fmt.Errorf("review repository: list by target %w", err)
	}
	return reviews, nil
}

// GetAverageRating возвращает средний рейтинг (округлён до одного знака)
// и число отзывов. Без отзывов — (0, 0).
func (r *ReviewRepository) GetAverageRating(ctx context.Context, targetID uuid.UUID) (float64, int, error) {
	var result struct {
		Average float64 `db:"average"`
		Count   int     `db:"count"`
	}
	query := `
		SELECT COALESCE(ROUND(AVG(rating)::numeric, 1), 0) AS average, COUNT(*) AS count
		FROM reviews
		WHERE target_id = $1
	`
	if err := r.db.GetContext(ctx, &result, query, targetID); err != nil {
		return 0, 0, fmt.Errorf("review repository: average rating %w", err)
	}
	return result.Average, result.Count, nil
}
