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

// PropertyRepository отвечает за объявления о недвижимости.
type PropertyRepository struct {
	db *sqlx.DB
}

// NewPropertyRepository создаёт экземпляр репозитория.
func NewPropertyRepository(db *sqlx.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

// Create создаёт объявление.
func (r *PropertyRepository) Create(ctx context.Context, property *models.Property) error {
	query := `
		INSERT INTO properties (owner_id, title, description, kind, price, currency, city, address, rooms, area_sqm, images, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		property.OwnerID, property.Title, property.Description, property.Kind,
		property.Price, property.Currency, property.City, property.Address,
		property.Rooms, property.AreaSqm, pq.Array(property.Images), models.PropertyStatusActive,
	).Scan(&property.ID, &property.CreatedAt, &property.UpdatedAt)
	if err != nil {
		return fmt.Errorf("property repository: create %w", err)
	}
	property.Status = models.PropertyStatusActive
	return nil
}

// GetByID возвращает объявление по идентификатору.
func (r *PropertyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	var property models.Property
	if err := r.db.GetContext(ctx, &property, `SELECT * FROM properties WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrPropertyNotFound
		}
		return nil, fmt.Errorf("property repository: get by id %w", err)
	}
	return &property, nil
}

// List возвращает объявления по фильтру.
func (r *PropertyRepository) List(ctx context.Context, filter models.PropertyFilter) ([]models.Property, error) {
	query := `SELECT * FROM properties WHERE status = $1`
	args := []interface{}{models.PropertyStatusActive}
	argIndex := 2

	if filter.Kind != "" {
		query += fmt.Sprintf(" AND kind = $%d", argIndex)
		args = append(args, filter.Kind)
		argIndex++
	}
	if filter.City != "" {
		query += fmt.Sprintf(" AND city = $%d", argIndex)
		args = append(args, filter.City)
		argIndex++
	}
	if filter.PriceMin != nil {
		query += fmt.Sprintf(" AND price >= $%d", argIndex)
		args = append(args, *filter.PriceMin)
		argIndex++
	}
	if filter.PriceMax != nil {
		query += fmt.Sprintf(" AND price <= $%d", argIndex)
		args = append(args, *filter.PriceMax)
		argIndex++
	}
	if filter.RoomsMin != nil {
		query += fmt.Sprintf(" AND rooms >= $%d", argIndex)
		args = append(args, *filter.RoomsMin)
		argIndex++
	}
	if filter.OwnerID != nil {
		query += fmt.Sprintf(" AND owner_id = $%d", argIndex)
		args = append(args, *filter.OwnerID)
		argIndex++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, filter.Limit, filter.Offset)

	var properties []models.Property
	if err := r.db.SelectContext(ctx, &properties, query, args...); err != nil {
		return nil, fmt.Errorf("property repository: list %w", err)
	}
	return properties, nil
}

// Update обновляет объявление владельца.
func (r *PropertyRepository) Update(ctx context.Context, property *models.Property) error {
	query := `
		UPDATE properties
		SET title = $3, description = $4, kind = $5, price = $6, currency = $7,
		    city = $8, address = $9, rooms = $10, area_sqm = $11, images = $12,
		    status = $13, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
	`
	result, err := r.db.ExecContext(ctx, query,
		property.ID, property.OwnerID, property.Title, property.Description,
		property.Kind, property.Price, property.Currency, property.City,
		property.Address, property.Rooms, property.AreaSqm, pq.Array(property.Images),
		property.Status,
	)
	if err != nil {
		return fmt.Errorf("property repository: update %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("property repository: update rows affected %w", err)
	}
	if rowsAffected == 0 {
		return apperror.ErrPropertyNotFound
	}
	return nil
}

// Archive переводит объявление в архив.
func (r *PropertyRepository) Archive(ctx context.Context, id, ownerID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE properties SET status = $3, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
	`, id, ownerID, models.PropertyStatusArchived)
	if err != nil {
		return fmt.Errorf("property repository: archive %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("property repository: archive rows affected %w", err)
	}
	if rowsAffected == 0 {
		return apperror.ErrPropertyNotFound
	}
	return nil
}

// AddImage добавляет путь к фотографии объявления.
func (r *PropertyRepository) AddImage(ctx context.Context, id, ownerID uuid.UUID, imagePath string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE properties SET images = array_append(images, $3), updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
	`, id, ownerID, imagePath)
	if err != nil {
		return fmt.Errorf("property repository: add image %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("property repository: add image rows affected %w", err)
	}
	if rowsAffected == 0 {
		return apperror.ErrPropertyNotFound
	}
	return nil
}
