package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/stroyhub-backend/internal/events"
	"github.com/ignatzorin/stroyhub-backend/internal/logger"
	"github.com/ignatzorin/stroyhub-backend/internal/models"
	"github.com/ignatzorin/stroyhub-backend/internal/pkg/apperror"
)

// LifecycleRequestRepository описывает зависимости машины состояний от хранилища заявок.
type LifecycleRequestRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error)
	Claim(ctx context.Context, requestID, providerID uuid.UUID, eventKey string) (*models.ServiceRequest, error)
	UpdateStatus(ctx context.Context, requestID uuid.UUID, from []string, to string, actorID uuid.UUID, note *string, eventKey string) (*models.ServiceRequest, error)
	SetQuote(ctx context.Context, requestID, providerID uuid.UUID, amount float64) (*models.ServiceRequest, error)
	RecordProgress(ctx context.Context, requestID, actorID uuid.UUID, note string, eventKey string) (*models.ServiceRequest, error)
}

// ProjectUpdateReader описывает чтение журнала заявки.
type ProjectUpdateReader interface {
	List(ctx context.Context, requestID uuid.UUID) ([]models.ProjectUpdate, error)
}

// LifecycleNotifier описывает рассылку уведомлений об изменениях статуса.
type LifecycleNotifier interface {
	Notify(ctx context.Context, in NotifyInput) (bool, error)
}

// ChangePublisher публикует изменения в ленту подписок.
type ChangePublisher interface {
	Publish(change events.Change)
}

// LifecycleService — машина состояний заявки. Статус и журнальная запись
// пишутся атомарно (внутри репозитория), уведомление — best-effort.
// Для одноразовых переходов (accept/reject/complete/cancel) ключ события
// постоянен и повтор вызова после сбоя не задваивает эффекты; повторяемые
// операции (смета, заметка) получают ключ, различающий новый вызов и ретрай.
type LifecycleService struct {
	requests LifecycleRequestRepository
	updates  ProjectUpdateReader
	notifier LifecycleNotifier
	bus      ChangePublisher
}

// NewLifecycleService создаёт машину состояний заявок.
func NewLifecycleService(requests LifecycleRequestRepository, updates ProjectUpdateReader, notifier LifecycleNotifier, bus ChangePublisher) *LifecycleService {
	return &LifecycleService{
		requests: requests,
		updates:  updates,
		notifier: notifier,
		bus:      bus,
	}
}

// validSources перечисляет допустимые исходные статусы для каждой операции.
// Операция из статуса вне списка — InvalidTransition.
var validSources = map[string][]string{
	"accept":   {models.RequestStatusPending},
	"reject":   {models.RequestStatusPending},
	"progress": {models.RequestStatusAccepted, models.RequestStatusInProgress},
	"complete": {models.RequestStatusAccepted, models.RequestStatusInProgress},
	"cancel":   {models.RequestStatusPending, models.RequestStatusAccepted, models.RequestStatusInProgress},
}

// validateSource проверяет, допустима ли операция из текущего статуса.
func validateSource(op, current string) error {
	for _, s := range validSources[op] {
		if s == current {
			return nil
		}
	}
	return apperror.New(apperror.ErrCodeInvalidTransition,
		fmt.Sprintf("операция %q недопустима из статуса %q", op, current))
}

// eventKey строит идемпотентный ключ события жизненного цикла.
func eventKey(requestID uuid.UUID, action string, actorID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:%s", requestID, action, actorID)
}

// Accept назначает исполнителя на pending заявку. Ровно один из
// конкурирующих вызовов выигрывает, остальные получают Conflict;
// назначенный provider_id никогда не перезаписывается.
func (s *LifecycleService) Accept(ctx context.Context, requestID, providerID uuid.UUID) (*models.ServiceRequest, error) {
	key := eventKey(requestID, "accepted", providerID)

	req, err := s.requests.Claim(ctx, requestID, providerID, key)
	if err != nil {
		return nil, err
	}

	s.notifyStatus(ctx, req.ClientID, key,
		"Заявка принята",
		"Исполнитель принял вашу заявку и свяжется с вами в чате.",
		models.NotificationKindSuccess, req)

	s.publishStatus(req, providerID)
	return req, nil
}

// Reject отклоняет pending заявку. provider_id остаётся пустым, заявка
// становится терминальной и из очередей исполнителей исчезает.
func (s *LifecycleService) Reject(ctx context.Context, requestID, providerID uuid.UUID) (*models.ServiceRequest, error) {
	current, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := validateSource("reject", current.Status); err != nil {
		return nil, err
	}

	key := eventKey(requestID, "rejected", providerID)
	req, err := s.requests.UpdateStatus(ctx, requestID,
		validSources["reject"], models.RequestStatusRejected, providerID, nil, key)
	if err != nil {
		return nil, err
	}

	s.notifyStatus(ctx, req.ClientID, key,
		"Заявка отклонена",
		"Исполнитель отклонил вашу заявку.",
		models.NotificationKindInfo, req)

	s.publishStatus(req, providerID)
	return req, nil
}

// SubmitQuote выставляет смету. Операция ортогональна статусу: допустима
// в любом нетерминальном состоянии и сама по себе статус не меняет.
func (s *LifecycleService) SubmitQuote(ctx context.Context, requestID, providerID uuid.UUID, amount float64) (*models.ServiceRequest, error) {
	if amount <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма сметы должна быть положительной")
	}

	current, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if models.IsTerminalStatus(current.Status) {
		return nil, apperror.New(apperror.ErrCodeInvalidTransition,
			fmt.Sprintf("смета недоступна для заявки в статусе %q", current.Status))
	}
	if current.ProviderID != nil && *current.ProviderID != providerID {
		return nil, apperror.New(apperror.ErrCodePermissionDenied, "заявка назначена другому исполнителю")
	}

	req, err := s.requests.SetQuote(ctx, requestID, providerID, amount)
	if err != nil {
		return nil, err
	}

	// Сумма входит в ключ: новая смета уведомляет клиента заново,
	// ретрай той же суммы схлопывается.
	key := eventKey(requestID, fmt.Sprintf("quoted:%.2f", amount), providerID)
	s.notifyStatus(ctx, req.ClientID, key,
		"Получена смета",
		fmt.Sprintf("Исполнитель оценил работы в %.2f.", amount),
		models.NotificationKindInfo, req)

	s.publishStatus(req, providerID)
	return req, nil
}

// RecordProgress добавляет заметку о ходе работ от назначенного исполнителя.
// Первая заметка по принятой заявке переводит её в in_progress. Журнал
// только пополняется: две заметки с одинаковым текстом — две записи.
// Клиент может передать idemKey, чтобы ретрай после сбоя не продублировал
// заметку; без него каждый вызов считается новым.
func (s *LifecycleService) RecordProgress(ctx context.Context, requestID, actorID uuid.UUID, note string, idemKey *string) (*models.ServiceRequest, error) {
	if note == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "заметка о ходе работ не может быть пустой")
	}

	current, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := validateSource("progress", current.Status); err != nil {
		return nil, err
	}
	if current.ProviderID == nil || *current.ProviderID != actorID {
		return nil, apperror.New(apperror.ErrCodePermissionDenied, "заметки может оставлять только назначенный исполнитель")
	}

	token := uuid.NewString()
	if idemKey != nil && *idemKey != "" {
		token = *idemKey
	}
	key := eventKey(requestID, "progress:"+token, actorID)
	req, err := s.requests.RecordProgress(ctx, requestID, actorID, note, key)
	if err != nil {
		return nil, err
	}

	s.notifyStatus(ctx, req.ClientID, key,
		"Новая заметка по заявке",
		note,
		models.NotificationKindInfo, req)

	s.publishStatus(req, actorID)
	return req, nil
}

// Complete завершает работы по заявке.
func (s *LifecycleService) Complete(ctx context.Context, requestID, actorID uuid.UUID) (*models.ServiceRequest, error) {
	current, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := validateSource("complete", current.Status); err != nil {
		return nil, err
	}
	if !s.isParticipant(current, actorID) {
		return nil, apperror.New(apperror.ErrCodePermissionDenied, "вы не участник этой заявки")
	}

	key := eventKey(requestID, "completed", actorID)
	req, err := s.requests.UpdateStatus(ctx, requestID,
		validSources["complete"], models.RequestStatusCompleted, actorID, nil, key)
	if err != nil {
		return nil, err
	}

	s.notifyStatus(ctx, req.ClientID, key,
		"Работы завершены",
		"Заявка переведена в статус «завершена». Вы можете оставить отзыв.",
		models.NotificationKindSuccess, req)

	s.publishStatus(req, actorID)
	return req, nil
}

// Cancel отменяет заявку из любого нетерминального статуса.
func (s *LifecycleService) Cancel(ctx context.Context, requestID, actorID uuid.UUID) (*models.ServiceRequest, error) {
	current, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := validateSource("cancel", current.Status); err != nil {
		return nil, err
	}
	if !s.isParticipant(current, actorID) {
		return nil, apperror.New(apperror.ErrCodePermissionDenied, "вы не участник этой заявки")
	}

	key := eventKey(requestID, "cancelled", actorID)
	req, err := s.requests.UpdateStatus(ctx, requestID,
		validSources["cancel"], models.RequestStatusCancelled, actorID, nil, key)
	if err != nil {
		return nil, err
	}

	// Уведомляем вторую сторону, а не инициатора отмены.
	recipient := req.ClientID
	if actorID == req.ClientID && req.ProviderID != nil {
		recipient = *req.ProviderID
	}
	if recipient != actorID {
		s.notifyStatus(ctx, recipient, key,
			"Заявка отменена",
			"Заявка была отменена второй стороной.",
			models.NotificationKindWarning, req)
	}

	s.publishStatus(req, actorID)
	return req, nil
}

// History возвращает журнал заявки, новые записи первыми.
func (s *LifecycleService) History(ctx context.Context, requestID uuid.UUID) ([]models.ProjectUpdate, error) {
	if _, err := s.requests.GetByID(ctx, requestID); err != nil {
		return nil, err
	}
	return s.updates.List(ctx, requestID)
}

// isParticipant проверяет, что актор — клиент или назначенный исполнитель.
func (s *LifecycleService) isParticipant(req *models.ServiceRequest, actorID uuid.UUID) bool {
	if req.ClientID == actorID {
		return true
	}
	return req.ProviderID != nil && *req.ProviderID == actorID
}

// notifyStatus отправляет уведомление о смене статуса. Доставка best-effort:
// сбой логируется, но операцию жизненного цикла не откатывает.
func (s *LifecycleService) notifyStatus(ctx context.Context, recipientID uuid.UUID, key, title, body, kind string, req *models.ServiceRequest) {
	if s.notifier == nil {
		return
	}

	link := "/requests/" + req.ID.String()
	_, err := s.notifier.Notify(ctx, NotifyInput{
		RecipientID: recipientID,
		Title:       title,
		Body:        body,
		Kind:        kind,
		Link:        &link,
		EventKey:    &key,
	})
	if err != nil && logger.Log != nil {
		logger.Log.WithFields(logrus.Fields{
			"request_id":   req.ID,
			"recipient_id": recipientID,
			"error":        err.Error(),
		}).Warn("lifecycle: не удалось доставить уведомление о смене статуса")
	}
}

// publishStatus отправляет изменение заявки в ленту подписок.
func (s *LifecycleService) publishStatus(req *models.ServiceRequest, actorID uuid.UUID) {
	if s.bus == nil {
		return
	}

	recipients := []uuid.UUID{req.ClientID}
	if req.ProviderID != nil {
		recipients = append(recipients, *req.ProviderID)
	}
	if actorID != uuid.Nil {
		recipients = append(recipients, actorID)
	}

	s.bus.Publish(events.Change{
		Kind:       events.KindRequest,
		Action:     "status_changed",
		EntityID:   req.ID,
		Recipients: recipients,
		Payload:    req,
	})
}
