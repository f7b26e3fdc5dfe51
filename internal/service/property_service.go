package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/stroyhub-backend/internal/events"
	"github.com/ignatzorin/stroyhub-backend/internal/models"
	"github.com/ignatzorin/stroyhub-backend/internal/pkg/apperror"
	"github.com/ignatzorin/stroyhub-backend/internal/validation"
)

// PropertyRepositoryInterface описывает доступ к объявлениям.
type PropertyRepositoryInterface interface {
	Create(ctx context.Context, property *models.Property) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error)
	List(ctx context.Context, filter models.PropertyFilter) ([]models.Property, error)
	Update(ctx context.Context, property *models.Property) error
	Archive(ctx context.Context, id, ownerID uuid.UUID) error
	AddImage(ctx context.Context, id, ownerID uuid.UUID, imagePath string) error
}

// PropertyService реализует работу с объявлениями о недвижимости.
type PropertyService struct {
	repo PropertyRepositoryInterface
	bus  ChangePublisher
}

// NewPropertyService создаёт сервис объявлений.
func NewPropertyService(repo PropertyRepositoryInterface, bus ChangePublisher) *PropertyService {
	return &PropertyService{repo: repo, bus: bus}
}

// CreatePropertyInput содержит данные нового объявления.
type CreatePropertyInput struct {
	OwnerID     uuid.UUID
	Title       string
	Description string
	Kind        string
	Price       float64
	Currency    string
	City        string
	Address     string
	Rooms       *int
	AreaSqm     *float64
}

// Create публикует новое объявление.
func (s *PropertyService) Create(ctx context.Context, in CreatePropertyInput) (*models.Property, error) {
	if _, ok := models.ValidPropertyKinds[in.Kind]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный тип объявления")
	}
	if err := validation.ValidateLength("заголовок", in.Title, 3, 200); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateAddress(in.Address); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if in.Price <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "цена должна быть положительной")
	}

	currency := in.Currency
	if currency == "" {
		currency = "RUB"
	}

	property := &models.Property{
		OwnerID:     in.OwnerID,
		Title:       in.Title,
		Description: in.Description,
		Kind:        in.Kind,
		Price:       in.Price,
		Currency:    currency,
		City:        in.City,
		Address:     in.Address,
		Rooms:       in.Rooms,
		AreaSqm:     in.AreaSqm,
		Images:      []string{},
	}
	if err := s.repo.Create(ctx, property); err != nil {
		return nil, err
	}

	s.bus.Publish(events.Change{
		Kind:       events.KindProperty,
		Action:     "created",
		EntityID:   property.ID,
		Recipients: []uuid.UUID{property.OwnerID},
		Payload:    property,
	})

	return property, nil
}

// Get возвращает объявление по идентификатору.
func (s *PropertyService) Get(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	return s.repo.GetByID(ctx, id)
}

// List возвращает объявления по фильтру.
func (s *PropertyService) List(ctx context.Context, filter models.PropertyFilter) ([]models.Property, error) {
	filter.Limit, filter.Offset = normalizePagination(filter.Limit, filter.Offset)
	return s.repo.List(ctx, filter)
}

// UpdatePropertyInput содержит изменяемые поля объявления.
type UpdatePropertyInput struct {
	Title       *string
	Description *string
	Price       *float64
	City        *string
	Address     *string
	Rooms       *int
	AreaSqm     *float64
}

// Update изменяет объявление владельца.
func (s *PropertyService) Update(ctx context.Context, id, ownerID uuid.UUID, in UpdatePropertyInput) (*models.Property, error) {
	property, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if property.OwnerID != ownerID {
		return nil, apperror.New(apperror.ErrCodePermissionDenied, "объявление принадлежит другому пользователю")
	}

	if in.Title != nil {
		if err := validation.ValidateLength("заголовок", *in.Title, 3, 200); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
		property.Title = *in.Title
	}
	if in.Description != nil {
		property.Description = *in.Description
	}
	if in.Price != nil {
		if *in.Price <= 0 {
			return nil, apperror.New(apperror.ErrCodeValidation, "цена должна быть положительной")
		}
		property.Price = *in.Price
	}
	if in.City != nil {
		property.City = *in.City
	}
	if in.Address != nil {
		if err := validation.ValidateAddress(*in.Address); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
		property.Address = *in.Address
	}
	if in.Rooms != nil {
		property.Rooms = in.Rooms
	}
	if in.AreaSqm != nil {
		property.AreaSqm = in.AreaSqm
	}

	if err := s.repo.Update(ctx, property); err != nil {
		return nil, err
	}
	return property, nil
}

// Archive снимает объявление с публикации.
func (s *PropertyService) Archive(ctx context.Context, id, ownerID uuid.UUID) error {
	return s.repo.Archive(ctx, id, ownerID)
}

// AttachImage добавляет загруженную фотографию к объявлению.
func (s *PropertyService) AttachImage(ctx context.Context, id, ownerID uuid.UUID, imagePath string) error {
	return s.repo.AddImage(ctx, id, ownerID, imagePath)
}
