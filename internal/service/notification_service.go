package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/stroyhub-backend/internal/events"
	"github.com/ignatzorin/stroyhub-backend/internal/logger"
	"github.com/ignatzorin/stroyhub-backend/internal/models"
	"github.com/ignatzorin/stroyhub-backend/internal/pkg/apperror"
)

// NotificationRepository описывает взаимодействие сервиса с хранилищем уведомлений.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	List(ctx context.Context, recipientID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, recipientID uuid.UUID) error
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error)
}

// NotifyInput описывает одно уведомление для доставки.
type NotifyInput struct {
	RecipientID uuid.UUID
	Title       string
	Body        string
	Kind        string
	Link        *string
	EventKey    *string
}

// FanoutFailure описывает сбой доставки одному получателю.
type FanoutFailure struct {
	RecipientID uuid.UUID
	Err         error
}

// FanoutReport — итог рассылки нескольким получателям. Доставленные
// уведомления при частичном сбое не откатываются.
type FanoutReport struct {
	Delivered    []uuid.UUID
	Deduplicated []uuid.UUID
	Failures     []FanoutFailure
}

// Partial сообщает, была ли рассылка выполнена не полностью.
func (r *FanoutReport) Partial() bool {
	return len(r.Failures) > 0 && (len(r.Delivered) > 0 || len(r.Deduplicated) > 0)
}

// AllFailed сообщает, что не доставлено ни одно уведомление.
func (r *FanoutReport) AllFailed() bool {
	return len(r.Failures) > 0 && len(r.Delivered) == 0 && len(r.Deduplicated) == 0
}

// NotificationService содержит бизнес-логику уведомлений.
type NotificationService struct {
	repo NotificationRepository
	bus  ChangePublisher
}

// NewNotificationService создаёт новый сервис уведомлений.
func NewNotificationService(repo NotificationRepository, bus ChangePublisher) *NotificationService {
	return &NotificationService{repo: repo, bus: bus}
}

// Notify доставляет одно уведомление. Запись best-effort: сбой возвращается
// вызывающему, автоматических ретраев нет. Возвращает false, если
// уведомление с таким event_key уже было доставлено ранее.
func (s *NotificationService) Notify(ctx context.Context, in NotifyInput) (bool, error) {
	if in.Title == "" {
		return false, apperror.New(apperror.ErrCodeValidation, "заголовок уведомления обязателен")
	}
	if in.Kind == "" {
		in.Kind = models.NotificationKindInfo
	}

	notification := &models.Notification{
		RecipientID: in.RecipientID,
		Title:       in.Title,
		Body:        in.Body,
		Kind:        in.Kind,
		Link:        in.Link,
		EventKey:    in.EventKey,
	}

	created, err := s.repo.Create(ctx, notification)
	if err != nil {
		return false, err
	}

	if created && s.bus != nil {
		s.bus.Publish(events.Change{
			Kind:       events.KindNotification,
			Action:     "created",
			EntityID:   notification.ID,
			Recipients: []uuid.UUID{in.RecipientID},
			Payload:    notification,
		})
	}

	return created, nil
}

// NotifyMany рассылает одно и то же уведомление списку получателей
// независимыми записями. Сбой на одном получателе не останавливает
// рассылку остальным и не откатывает уже доставленное: семантика
// best-effort, не более одной доставки на получателя за вызов.
func (s *NotificationService) NotifyMany(ctx context.Context, recipientIDs []uuid.UUID, title, body, kind string, link *string, eventKey *string) *FanoutReport {
	report := &FanoutReport{}

	for _, recipientID := range recipientIDs {
		created, err := s.Notify(ctx, NotifyInput{
			RecipientID: recipientID,
			Title:       title,
			Body:        body,
			Kind:        kind,
			Link:        link,
			EventKey:    eventKey,
		})
		if err != nil {
			if logger.Log != nil {
				logger.Log.WithFields(logrus.Fields{
					"recipient_id": recipientID,
					"error":        err.Error(),
				}).Warn("notification service: сбой доставки получателю")
			}
			report.Failures = append(report.Failures, FanoutFailure{RecipientID: recipientID, Err: err})
			continue
		}
		if created {
			report.Delivered = append(report.Delivered, recipientID)
		} else {
			report.Deduplicated = append(report.Deduplicated, recipientID)
		}
	}

	return report
}

// GetNotification возвращает уведомление по идентификатору.
func (s *NotificationService) GetNotification(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	return s.repo.GetByID(ctx, id)
}

// ListNotifications возвращает список уведомлений пользователя.
func (s *NotificationService) ListNotifications(ctx context.Context, recipientID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	return s.repo.List(ctx, recipientID, limit, offset, unreadOnly)
}

// MarkAsRead отмечает уведомление как прочитанное. Изменять уведомление
// может только его получатель.
func (s *NotificationService) MarkAsRead(ctx context.Context, id uuid.UUID, recipientID uuid.UUID) error {
	notification, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if notification.RecipientID != recipientID {
		return apperror.New(apperror.ErrCodePermissionDenied, "у вас нет прав на это уведомление")
	}

	return s.repo.MarkAsRead(ctx, id)
}

// MarkAllAsRead отмечает все уведомления пользователя как прочитанные.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, recipientID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, recipientID)
}

// CountUnread возвращает количество непрочитанных уведомлений.
func (s *NotificationService) CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, recipientID)
}
