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

type mockPropertyRepo struct {
	mock.Mock
}

func (m *mockPropertyRepo) Create(ctx context.Context, property *models.Property) error {
	args := m.Called(ctx, property)
	if args.Error(0) == nil {
		property.ID = uuid.New()
		property.Status = models.PropertyStatusActive
	}
	return args.Error(0)
}

func (m *mockPropertyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *mockPropertyRepo) List(ctx context.Context, filter models.PropertyFilter) ([]models.Property, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Property), args.Error(1)
}

func (m *mockPropertyRepo) Update(ctx context.Context, property *models.Property) error {
	args := m.Called(ctx, property)
	return args.Error(0)
}

func (m *mockPropertyRepo) Archive(ctx context.Context, id, ownerID uuid.UUID) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

func (m *mockPropertyRepo) AddImage(ctx context.Context, id, ownerID uuid.UUID, imagePath string) error {
	args := m.Called(ctx, id, ownerID, imagePath)
	return args.Error(0)
}

func TestPropertyService_Create_Success(t *testing.T) {
	repo := new(mockPropertyRepo)
	svc := NewPropertyService(repo, new(capturingPublisher))
	ctx := context.Background()

	ownerID := uuid.New()
	repo.On("Create", ctx, mock.AnythingOfType("*models.Property")).Return(nil)

	property, err := svc.Create(ctx, CreatePropertyInput{
		OwnerID: ownerID,
		Title:   "Двухкомнатная квартира у метро",
		Kind:    models.PropertyKindRent,
		Price:   85000,
		City:    "Москва",
		Address: "ул. Новый Арбат, д. 10",
	})

	assert.NoError(t, err)
	assert.Equal(t, ownerID, property.OwnerID)
	assert.Equal(t, "RUB", property.Currency)
	assert.Equal(t, models.PropertyStatusActive, property.Status)
}

func TestPropertyService_Create_InvalidKind(t *testing.T) {
	svc := NewPropertyService(new(mockPropertyRepo), new(capturingPublisher))

	_, err := svc.Create(context.Background(), CreatePropertyInput{
		OwnerID: uuid.New(),
		Title:   "Гараж",
		Kind:    "garage",
		Price:   100000,
		Address: "ул. Ленина, д. 5",
	})

	assert.Error(t, err)
	assert.Equal(t, apperror.ErrCodeValidation, apperror.CodeOf(err))
}

func TestPropertyService_Create_NonPositivePrice(t *testing.T) {
	svc := NewPropertyService(new(mockPropertyRepo), new(capturingPublisher))

	_, err := svc.Create(context.Background(), CreatePropertyInput{
		OwnerID: uuid.New(),
		Title:   "Квартира",
		Kind:    models.PropertyKindSale,
		Price:   0,
		Address: "ул. Ленина, д. 5",
	})

	assert.Error(t, err)
}

func TestPropertyService_Update_ForeignOwner(t *testing.T) {
	repo := new(mockPropertyRepo)
	svc := NewPropertyService(repo, new(capturingPublisher))
	ctx := context.Background()

	propertyID := uuid.New()
	repo.On("GetByID", ctx, propertyID).Return(&models.Property{
		ID:      propertyID,
		OwnerID: uuid.New(),
	}, nil)

	_, err := svc.Update(ctx, propertyID, uuid.New(), UpdatePropertyInput{})

	assert.Error(t, err)
	assert.True(t, apperror.IsPermissionDenied(err))
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestPropertyService_Update_PartialFields(t *testing.T) {
	repo := new(mockPropertyRepo)
	svc := NewPropertyService(repo, new(capturingPublisher))
	ctx := context.Background()

	ownerID := uuid.New()
	propertyID := uuid.New()
	repo.On("GetByID", ctx, propertyID).Return(&models.Property{
		ID:      propertyID,
		OwnerID: ownerID,
		Title:   "Старый заголовок",
		Price:   50000,
		City:    "Казань",
	}, nil)
	repo.On("Update", ctx, mock.AnythingOfType("*models.Property")).Return(nil)

	newPrice := 60000.0
	property, err := svc.Update(ctx, propertyID, ownerID, UpdatePropertyInput{Price: &newPrice})

	assert.NoError(t, err)
	assert.Equal(t, 60000.0, property.Price)
	assert.Equal(t, "Старый заголовок", property.Title)
	assert.Equal(t, "Казань", property.City)
}

func TestPropertyService_Get_NotFound(t *testing.T) {
	repo := new(mockPropertyRepo)
	svc := NewPropertyService(repo, new(capturingPublisher))
	ctx := context.Background()

	propertyID := uuid.New()
	repo.On("GetByID", ctx, propertyID).Return(nil, apperror.ErrPropertyNotFound)

	_, err := svc.Get(ctx, propertyID)

	assert.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}
