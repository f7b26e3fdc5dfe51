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

type mockNotificationRepo struct {
	mock.Mock
}

func (m *mockNotificationRepo) Create(ctx context.Context, notification *models.Notification) (bool, error) {
	args := m.Called(ctx, notification)
	if args.Bool(0) {
		notification.ID = uuid.New()
	}
	return args.Bool(0), args.Error(1)
}

func (m *mockNotificationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Notification), args.Error(1)
}

func (m *mockNotificationRepo) List(ctx context.Context, recipientID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error) {
	args := m.Called(ctx, recipientID, limit, offset, unreadOnly)
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *mockNotificationRepo) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockNotificationRepo) MarkAllAsRead(ctx context.Context, recipientID uuid.UUID) error {
	args := m.Called(ctx, recipientID)
	return args.Error(0)
}

func (m *mockNotificationRepo) CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error) {
	args := m.Called(ctx, recipientID)
	return args.Int(0), args.Error(1)
}

func TestNotificationService_Notify_Success(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, nil)
	ctx := context.Background()

	recipientID := uuid.New()
	repo.On("Create", ctx, mock.AnythingOfType("*models.Notification")).Return(true, nil)

	created, err := svc.Notify(ctx, NotifyInput{
		RecipientID: recipientID,
		Title:       "Заявка принята",
		Body:        "Исполнитель принял вашу заявку.",
	})

	assert.NoError(t, err)
	assert.True(t, created)
}

func TestNotificationService_Notify_EmptyTitle(t *testing.T) {
	svc := NewNotificationService(new(mockNotificationRepo), nil)

	_, err := svc.Notify(context.Background(), NotifyInput{RecipientID: uuid.New()})

	assert.Error(t, err)
	assert.Equal(t, apperror.ErrCodeValidation, apperror.CodeOf(err))
}

func TestNotificationService_Notify_Deduplicated(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, nil)
	ctx := context.Background()

	key := "req:accepted:provider"
	repo.On("Create", ctx, mock.MatchedBy(func(n *models.Notification) bool {
		return n.EventKey != nil && *n.EventKey == key
	})).Return(false, nil)

	created, err := svc.Notify(ctx, NotifyInput{
		RecipientID: uuid.New(),
		Title:       "Заявка принята",
		EventKey:    &key,
	})

	assert.NoError(t, err)
	assert.False(t, created)
}

func TestNotificationService_NotifyMany_AllDelivered(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, nil)
	ctx := context.Background()

	recipients := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	repo.On("Create", ctx, mock.AnythingOfType("*models.Notification")).Return(true, nil)

	report := svc.NotifyMany(ctx, recipients, "Новая заявка", "Появилась заявка по вашему профилю.", models.NotificationKindInfo, nil, nil)

	assert.Len(t, report.Delivered, 3)
	assert.Empty(t, report.Failures)
	assert.Empty(t, report.Deduplicated)
	assert.False(t, report.Partial())
	assert.False(t, report.AllFailed())
}

func TestNotificationService_NotifyMany_PartialFailure(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, nil)
	ctx := context.Background()

	ok1 := uuid.New()
	failed := uuid.New()
	ok2 := uuid.New()

	storeErr := apperror.New(apperror.ErrCodeTransient, "хранилище недоступно")
	repo.On("Create", ctx, mock.MatchedBy(func(n *models.Notification) bool {
		return n.RecipientID == failed
	})).Return(false, storeErr)
	repo.On("Create", ctx, mock.MatchedBy(func(n *models.Notification) bool {
		return n.RecipientID != failed
	})).Return(true, nil)

	report := svc.NotifyMany(ctx, []uuid.UUID{ok1, failed, ok2}, "Статус изменён", "", models.NotificationKindInfo, nil, nil)

	assert.Equal(t, []uuid.UUID{ok1, ok2}, report.Delivered)
	assert.Len(t, report.Failures, 1)
	assert.Equal(t, failed, report.Failures[0].RecipientID)
	assert.True(t, report.Partial())
	assert.False(t, report.AllFailed())
}

func TestNotificationService_NotifyMany_AllFailed(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, nil)
	ctx := context.Background()

	storeErr := apperror.New(apperror.ErrCodeTransient, "хранилище недоступно")
	repo.On("Create", ctx, mock.AnythingOfType("*models.Notification")).Return(false, storeErr)

	report := svc.NotifyMany(ctx, []uuid.UUID{uuid.New(), uuid.New()}, "Статус изменён", "", models.NotificationKindInfo, nil, nil)

	assert.Empty(t, report.Delivered)
	assert.Len(t, report.Failures, 2)
	assert.False(t, report.Partial())
	assert.True(t, report.AllFailed())
}

func TestNotificationService_NotifyMany_DeduplicatedRecipients(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, nil)
	ctx := context.Background()

	fresh := uuid.New()
	seen := uuid.New()
	key := "req:completed:actor"

	repo.On("Create", ctx, mock.MatchedBy(func(n *models.Notification) bool {
		return n.RecipientID == seen
	})).Return(false, nil)
	repo.On("Create", ctx, mock.MatchedBy(func(n *models.Notification) bool {
		return n.RecipientID == fresh
	})).Return(true, nil)

	report := svc.NotifyMany(ctx, []uuid.UUID{fresh, seen}, "Работы завершены", "", models.NotificationKindSuccess, nil, &key)

	assert.Equal(t, []uuid.UUID{fresh}, report.Delivered)
	assert.Equal(t, []uuid.UUID{seen}, report.Deduplicated)
	assert.Empty(t, report.Failures)
}

func TestNotificationService_MarkAsRead_ForeignRecipient(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, nil)
	ctx := context.Background()

	notificationID := uuid.New()
	repo.On("GetByID", ctx, notificationID).Return(&models.Notification{
		ID:          notificationID,
		RecipientID: uuid.New(),
	}, nil)

	err := svc.MarkAsRead(ctx, notificationID, uuid.New())

	assert.Error(t, err)
	assert.True(t, apperror.IsPermissionDenied(err))
	repo.AssertNotCalled(t, "MarkAsRead", mock.Anything, mock.Anything)
}

func TestNotificationService_MarkAsRead_Success(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, nil)
	ctx := context.Background()

	notificationID := uuid.New()
	recipientID := uuid.New()
	repo.On("GetByID", ctx, notificationID).Return(&models.Notification{
		ID:          notificationID,
		RecipientID: recipientID,
	}, nil)
	repo.On("MarkAsRead", ctx, notificationID).Return(nil)

	err := svc.MarkAsRead(ctx, notificationID, recipientID)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestNotificationService_CountUnread(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, nil)
	ctx := context.Background()

	recipientID := uuid.New()
	repo.On("CountUnread", ctx, recipientID).Return(7, nil)

	count, err := svc.CountUnread(ctx, recipientID)

	assert.NoError(t, err)
	assert.Equal(t, 7, count)
}
