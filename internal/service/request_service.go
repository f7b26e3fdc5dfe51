package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/ignatzorin/stroyhub-backend/internal/events"
	"github.com/ignatzorin/stroyhub-backend/internal/models"
	"github.com/ignatzorin/stroyhub-backend/internal/pkg/apperror"
	"github.com/ignatzorin/stroyhub-backend/internal/validation"
)

// RequestRepository описывает взаимодействие сервиса с хранилищем заявок.
type RequestRepository interface {
	Create(ctx context.Context, req *models.ServiceRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error)
	ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.ServiceRequest, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]models.ServiceRequest, error)
	ListAvailable(ctx context.Context, requestType string, limit, offset int) ([]models.ServiceRequest, error)
}

// CreateRequestInput описывает входные данные новой заявки.
type CreateRequestInput struct {
	ClientID    uuid.UUID
	RequestType string
	Budget      float64
	Details     json.RawMessage
}

// RequestService содержит бизнес-логику создания и выборки заявок.
// Переходами статусов занимается LifecycleService.
type RequestService struct {
	repo RequestRepository
	bus  ChangePublisher
}

// NewRequestService создаёт новый сервис заявок.
func NewRequestService(repo RequestRepository, bus ChangePublisher) *RequestService {
	return &RequestService{repo: repo, bus: bus}
}

// CreateRequest создаёт pending заявку с типизированными деталями.
func (s *RequestService) CreateRequest(ctx context.Context, in CreateRequestInput) (*models.ServiceRequest, error) {
	if _, ok := models.ValidRequestTypes[in.RequestType]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный тип заявки")
	}
	if err := validation.ValidateBudget(in.Budget); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	req := &models.ServiceRequest{
		RequestType: in.RequestType,
		ClientID:    in.ClientID,
		Budget:      in.Budget,
		Details:     in.Details,
	}

	// Детали должны разбираться в типизированную структуру своего типа.
	if _, err := req.DecodeDetails(); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, "некорректные детали заявки")
	}

	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}

	if s.bus != nil {
		s.bus.Publish(events.Change{
			Kind:       events.KindRequest,
			Action:     "created",
			EntityID:   req.ID,
			Recipients: []uuid.UUID{req.ClientID},
			Payload:    req,
		})
	}

	return req, nil
}

// GetRequest возвращает заявку с проверкой доступа: её видят клиент,
// назначенный исполнитель и — пока заявка свободна — любой исполнитель.
func (s *RequestService) GetRequest(ctx context.Context, id, userID uuid.UUID, role string) (*models.ServiceRequest, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ClientID == userID {
		return req, nil
	}
	if req.ProviderID != nil && *req.ProviderID == userID {
		return req, nil
	}
	if role == models.RoleAdmin {
		return req, nil
	}
	if role == models.RoleProvider && req.Status == models.RequestStatusPending && req.ProviderID == nil {
		return req, nil
	}

	return nil, apperror.New(apperror.ErrCodePermissionDenied, "у вас нет доступа к этой заявке")
}

// ListMyRequests возвращает заявки пользователя в его роли.
func (s *RequestService) ListMyRequests(ctx context.Context, userID uuid.UUID, role string, limit, offset int) ([]models.ServiceRequest, error) {
	limit, offset = normalizePagination(limit, offset)

	if role == models.RoleProvider {
		return s.repo.ListByProvider(ctx, userID, limit, offset)
	}
	return s.repo.ListByClient(ctx, userID, limit, offset)
}

// ListAvailable возвращает свободные pending заявки для исполнителей.
func (s *RequestService) ListAvailable(ctx context.Context, requestType string, limit, offset int) ([]models.ServiceRequest, error) {
	if requestType != "" {
		if _, ok := models.ValidRequestTypes[requestType]; !ok {
			return nil, apperror.New(apperror.ErrCodeValidation, "некорректный тип заявки")
		}
	}

	limit, offset = normalizePagination(limit, offset)
	return s.repo.ListAvailable(ctx, requestType, limit, offset)
}

// normalizePagination приводит параметры пагинации к допустимым значениям.
func normalizePagination(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
