package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/stroyhub-backend/internal/events"
	"github.com/ignatzorin/stroyhub-backend/internal/models"
	"github.com/ignatzorin/stroyhub-backend/internal/pkg/apperror"
	"github.com/ignatzorin/stroyhub-backend/internal/validation"
)

// ConversationRepository описывает взаимодействие сервиса с хранилищем диалогов.
type ConversationRepository interface {
	FindOrCreate(ctx context.Context, a, b uuid.UUID) (*models.Conversation, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Conversation, error)
	AppendMessage(ctx context.Context, conversationID, senderID uuid.UUID, text string) (*models.Message, error)
	MarkRead(ctx context.Context, conversationID, participantID uuid.UUID) error
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]models.Message, error)
}

// ConversationService содержит бизнес-логику диалогов и сообщений.
type ConversationService struct {
	repo ConversationRepository
	bus  ChangePublisher
}

// NewConversationService создаёт новый сервис диалогов.
func NewConversationService(repo ConversationRepository, bus ChangePublisher) *ConversationService {
	return &ConversationService{repo: repo, bus: bus}
}

// FindOrCreate возвращает единственный диалог пары участников. Результат
// не зависит от порядка аргументов и от числа конкурирующих вызовов:
// для любой пары существует не более одного диалога.
func (s *ConversationService) FindOrCreate(ctx context.Context, a, b uuid.UUID) (*models.Conversation, error) {
	if a == uuid.Nil || b == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "участники диалога обязательны")
	}

	conv, err := s.repo.FindOrCreate(ctx, a, b)
	if err != nil {
		return nil, err
	}

	if s.bus != nil {
		s.bus.Publish(events.Change{
			Kind:       events.KindConversation,
			Action:     "matched",
			EntityID:   conv.ID,
			Recipients: []uuid.UUID{conv.ParticipantA, conv.ParticipantB},
			Payload:    conv,
		})
	}

	return conv, nil
}

// GetConversation возвращает диалог участнику.
func (s *ConversationService) GetConversation(ctx context.Context, id, userID uuid.UUID) (*models.Conversation, error) {
	conv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, apperror.New(apperror.ErrCodePermissionDenied, "вы не участник этого диалога")
	}
	return conv, nil
}

// ListMyConversations возвращает диалоги пользователя.
func (s *ConversationService) ListMyConversations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Conversation, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// SendMessage добавляет сообщение в диалог. Счётчик непрочитанных
// увеличивается только у получателя.
func (s *ConversationService) SendMessage(ctx context.Context, conversationID, senderID uuid.UUID, text string) (*models.Message, error) {
	if err := validation.ValidateLength("сообщение", text, validation.MinMessageLength, validation.MaxMessageLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	msg, err := s.repo.AppendMessage(ctx, conversationID, senderID, text)
	if err != nil {
		return nil, err
	}

	if s.bus != nil {
		if conv, convErr := s.repo.GetByID(ctx, conversationID); convErr == nil {
			s.bus.Publish(events.Change{
				Kind:       events.KindMessage,
				Action:     "created",
				EntityID:   msg.ID,
				Recipients: []uuid.UUID{conv.OtherParticipant(senderID), senderID},
				Payload:    msg,
			})
		}
	}

	return msg, nil
}

// MarkRead обнуляет счётчик непрочитанных вызывающего участника.
// Счётчик второго участника не затрагивается.
func (s *ConversationService) MarkRead(ctx context.Context, conversationID, userID uuid.UUID) error {
	conv, err := s.repo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(userID) {
		return apperror.New(apperror.ErrCodePermissionDenied, "вы не участник этого диалога")
	}
	return s.repo.MarkRead(ctx, conversationID, userID)
}

// ListMessages возвращает сообщения диалога участнику.
func (s *ConversationService) ListMessages(ctx context.Context, conversationID, userID uuid.UUID, limit, offset int) ([]models.Message, error) {
	conv, err := s.repo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, apperror.New(apperror.ErrCodePermissionDenied, "вы не участник этого диалога")
	}

	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListMessages(ctx, conversationID, limit, offset)
}
