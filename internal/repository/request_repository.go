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

// RequestRepository отвечает за работу с заявками на услуги.
// Назначение исполнителя и смена статуса выполняются условными записями:
// UPDATE с предикатом на текущее состояние, ноль затронутых строк — конфликт.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository создаёт новый экземпляр.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

const requestColumns = `
	id, request_type, client_id, provider_id, status, budget, quote,
	quote_provider_id, details, created_at, updated_at
`

// Create создаёт новую заявку в статусе pending.
func (r *RequestRepository) Create(ctx context.Context, req *models.ServiceRequest) error {
	query := `
		INSERT INTO service_requests (request_type, client_id, status, budget, details)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx,
		query,
		req.RequestType,
		req.ClientID,
		models.RequestStatusPending,
		req.Budget,
		req.Details,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt); err != nil {
		return fmt.Errorf("request repository: create %w", err)
	}

	req.Status = models.RequestStatusPending
	return nil
}

// GetByID возвращает заявку по идентификатору.
func (r *RequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error) {
	var req models.ServiceRequest
	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE id = $1`
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrRequestNotFound
		}
		return nil, fmt.Errorf("request repository: get by id %w", err)
	}
	return &req, nil
}

// ListByClient возвращает заявки клиента.
func (r *RequestRepository) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.ServiceRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM service_requests
		WHERE client_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	var requests []models.ServiceRequest
	if err := r.db.SelectContext(ctx, &requests, query, clientID, limit, offset); err != nil {
		return nil, fmt.Errorf("request repository: list by client %w", err)
	}
	return requests, nil
}

// ListByProvider возвращает заявки, назначенные исполнителю.
func (r *RequestRepository) ListByProvider(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]models.ServiceRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM service_requests
		WHERE provider_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	var requests []models.ServiceRequest
	if err := r.db.SelectContext(ctx, &requests, query, providerID, limit, offset); err != nil {
		return nil, fmt.Errorf("request repository: list by provider %w", err)
	}
	return requests, nil
}

// ListAvailable возвращает свободные pending заявки для исполнителей.
// Отклонённые заявки в выдачу не попадают и к другим исполнителям не возвращаются.
func (r *RequestRepository) ListAvailable(ctx context.Context, requestType string, limit, offset int) ([]models.ServiceRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM service_requests
		WHERE status = $1 AND provider_id IS NULL
	`
	args := []interface{}{models.RequestStatusPending}
	argIndex := 2

	if requestType != "" {
		query += fmt.Sprintf(" AND request_type = $%d", argIndex)
		args = append(args, requestType)
		argIndex++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	var requests []models.ServiceRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, fmt.Errorf("request repository: list available %w", err)
	}
	return requests, nil
}

// Claim назначает исполнителя на pending заявку одной условной записью.
// provider_id выставляется ровно один раз: предикат status='pending' AND
// provider_id IS NULL гарантирует, что из двух конкурирующих вызовов
// выигрывает ровно один, второй получает конфликт. Запись в журнал идёт
// в той же транзакции.
func (r *RequestRepository) Claim(ctx context.Context, requestID, providerID uuid.UUID, eventKey string) (*models.ServiceRequest, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("request repository: claim begin tx %w", err)
	}
	defer tx.Rollback()

	var req models.ServiceRequest
	query := `
		UPDATE service_requests
		SET provider_id = $2, status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4 AND provider_id IS NULL
		RETURNING ` + requestColumns + `
	`
	err = tx.QueryRowxContext(ctx, query, requestID, providerID,
		models.RequestStatusAccepted, models.RequestStatusPending).StructScan(&req)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.classifyClaimFailure(ctx, requestID)
		}
		return nil, fmt.Errorf("request repository: claim %w", err)
	}

	update := &models.ProjectUpdate{
		RequestID: requestID,
		Status:    models.RequestStatusAccepted,
		ActorID:   providerID,
		EventKey:  &eventKey,
	}
	if err := insertProjectUpdate(ctx, tx, update); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("request repository: claim commit %w", err)
	}

	return &req, nil
}

// classifyClaimFailure различает отсутствующую заявку и проигранную гонку.
func (r *RequestRepository) classifyClaimFailure(ctx context.Context, requestID uuid.UUID) error {
	var exists bool
	if err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM service_requests WHERE id = $1)`, requestID); err != nil {
		return fmt.Errorf("request repository: claim classify %w", err)
	}
	if !exists {
		return apperror.ErrRequestNotFound
	}
	return apperror.ErrAlreadyAssigned
}

// UpdateStatus переводит заявку в новый статус при условии, что текущий
// статус входит в from. Журнальная запись добавляется в той же транзакции
// и дедуплицируется по event_key, поэтому повтор вызова безопасен.
func (r *RequestRepository) UpdateStatus(ctx context.Context, requestID uuid.UUID, from []string, to string, actorID uuid.UUID, note *string, eventKey string) (*models.ServiceRequest, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("request repository: update status begin tx %w", err)
	}
	defer tx.Rollback()

	var req models.ServiceRequest
	query := `
		UPDATE service_requests
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = ANY($3)
		RETURNING ` + requestColumns + `
	`
	err = tx.QueryRowxContext(ctx, query, requestID, to, pq.Array(from)).StructScan(&req)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.classifyStatusFailure(ctx, requestID, from)
		}
		return nil, fmt.Errorf("request repository: update status %w", err)
	}

	update := &models.ProjectUpdate{
		RequestID: requestID,
		Status:    to,
		ActorID:   actorID,
		Note:      note,
		EventKey:  &eventKey,
	}
	if err := insertProjectUpdate(ctx, tx, update); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("request repository: update status commit %w", err)
	}

	return &req, nil
}

// classifyStatusFailure различает отсутствующую заявку и устаревшее состояние.
func (r *RequestRepository) classifyStatusFailure(ctx context.Context, requestID uuid.UUID, from []string) error {
	var status string
	err := r.db.GetContext(ctx, &status,
		`SELECT status FROM service_requests WHERE id = $1`, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.ErrRequestNotFound
		}
		return fmt.Errorf("request repository: status classify %w", err)
	}
	return apperror.New(apperror.ErrCodeConflict,
		fmt.Sprintf("статус заявки уже изменился (текущий: %s, ожидался один из %v)", status, from))
}

// SetQuote выставляет смету исполнителя. Смета не меняет статус и
// допустима в любом нетерминальном состоянии.
func (r *RequestRepository) SetQuote(ctx context.Context, requestID, providerID uuid.UUID, amount float64) (*models.ServiceRequest, error) {
	var req models.ServiceRequest
	query := `
		UPDATE service_requests
		SET quote = $2, quote_provider_id = $3, updated_at = NOW()
		WHERE id = $1 AND status NOT IN ($4, $5, $6)
		RETURNING ` + requestColumns + `
	`
	err := r.db.QueryRowxContext(ctx, query, requestID, amount, providerID,
		models.RequestStatusRejected, models.RequestStatusCompleted, models.RequestStatusCancelled).StructScan(&req)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.classifyStatusFailure(ctx, requestID, []string{
				models.RequestStatusPending, models.RequestStatusAccepted, models.RequestStatusInProgress,
			})
		}
		return nil, fmt.Errorf("request repository: set quote %w", err)
	}
	return &req, nil
}

// RecordProgress добавляет заметку о ходе работ. Первая заметка по
// принятой заявке переводит её в in_progress той же записью.
func (r *RequestRepository) RecordProgress(ctx context.Context, requestID, actorID uuid.UUID, note string, eventKey string) (*models.ServiceRequest, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("request repository: record progress begin tx %w", err)
	}
	defer tx.Rollback()

	var req models.ServiceRequest
	query := `
		UPDATE service_requests
		SET status = CASE WHEN status = $2 THEN $3 ELSE status END,
		    updated_at = NOW()
		WHERE id = $1 AND status IN ($2, $3)
		RETURNING ` + requestColumns + `
	`
	err = tx.QueryRowxContext(ctx, query, requestID,
		models.RequestStatusAccepted, models.RequestStatusInProgress).StructScan(&req)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.classifyStatusFailure(ctx, requestID, []string{
				models.RequestStatusAccepted, models.RequestStatusInProgress,
			})
		}
		return nil, fmt.Errorf("request repository: record progress %w", err)
	}

	update := &models.ProjectUpdate{
		RequestID: requestID,
		Status:    req.Status,
		ActorID:   actorID,
		Note:      &note,
		EventKey:  &eventKey,
	}
	if err := insertProjectUpdate(ctx, tx, update); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("request repository: record progress commit %w", err)
	}

	return &req, nil
}

// CountByProviderAndStatuses возвращает количество заявок исполнителя в указанных статусах.
func (r *RequestRepository) CountByProviderAndStatuses(ctx context.Context, providerID uuid.UUID, statuses []string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM service_requests WHERE provider_id = $1 AND status = ANY($2)`
	if err := r.db.GetContext(ctx, &count, query, providerID, pq.Array(statuses)); err != nil {
		return 0, fmt.Errorf("request repository: count by provider %w", err)
	}
	return count, nil
}
