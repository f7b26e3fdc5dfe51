package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/stroyhub-backend/internal/models"
	"github.com/ignatzorin/stroyhub-backend/internal/pkg/apperror"
)

// Максимальная длина сниппета последнего сообщения в списке диалогов.
const snippetMaxLen = 120

// ConversationRepository отвечает за диалоги и сообщения.
type ConversationRepository struct {
	db *sqlx.DB
}

// NewConversationRepository создаёт экземпляр репозитория.
func NewConversationRepository(db *sqlx.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

const conversationColumns = `
	id, pair_key, participant_a, participant_b, last_message_snippet,
	unread_a, unread_b, created_at, updated_at
`

// FindOrCreate возвращает единственный диалог пары участников, создавая его
// при необходимости. Идентичность пары задаёт pair_key (отсортированные id),
// уникальный индекс по нему делает создание идемпотентным: при гонке двух
// вызовов вставится ровно одна строка, оба вызова прочитают её же.
func (r *ConversationRepository) FindOrCreate(ctx context.Context, a, b uuid.UUID) (*models.Conversation, error) {
	if a == b {
		return nil, apperror.New(apperror.ErrCodeValidation, "диалог с самим собой невозможен")
	}

	first, second := models.SortParticipants(a, b)
	pairKey := models.PairKey(a, b)

	insert := `
		INSERT INTO conversations (pair_key, participant_a, participant_b)
		VALUES ($1, $2, $3)
		ON CONFLICT (pair_key) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, insert, pairKey, first, second); err != nil {
		return nil, fmt.Errorf("conversation repository: find or create insert %w", err)
	}

	var conv models.Conversation
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE pair_key = $1`
	if err := r.db.GetContext(ctx, &conv, query, pairKey); err != nil {
		return nil, fmt.Errorf("conversation repository: find or create select %w", err)
	}
	return &conv, nil
}

// GetByID возвращает диалог по идентификатору.
func (r *ConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1`
	if err := r.db.GetContext(ctx, &conv, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrConversationNotFound
		}
		return nil, fmt.Errorf("conversation repository: get by id %w", err)
	}
	return &conv, nil
}

// ListByUser возвращает диалоги пользователя, недавние первыми.
func (r *ConversationRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE participant_a = $1 OR participant_b = $1
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3
	`
	var convs []models.Conversation
	if err := r.db.SelectContext(ctx, &convs, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("conversation repository: list by user %w", err)
	}
	return convs, nil
}

// AppendMessage добавляет сообщение и в той же транзакции обновляет сниппет
// и счётчик непрочитанных получателя. Счётчик отправителя не трогается:
// собственная отправка не сбрасывает и не уменьшает чужие непрочитанные.
func (r *ConversationRepository) AppendMessage(ctx context.Context, conversationID, senderID uuid.UUID, text string) (*models.Message, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("conversation repository: append message begin tx %w", err)
	}
	defer tx.Rollback()

	var conv models.Conversation
	lockQuery := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &conv, lockQuery, conversationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrConversationNotFound
		}
		return nil, fmt.Errorf("conversation repository: append message lock %w", err)
	}

	if !conv.HasParticipant(senderID) {
		return nil, apperror.New(apperror.ErrCodePermissionDenied, "вы не участник этого диалога")
	}

	var msg models.Message
	insert := `
		INSERT INTO messages (conversation_id, sender_id, text)
		VALUES ($1, $2, $3)
		RETURNING id, conversation_id, sender_id, text, is_read, created_at
	`
	if err := tx.QueryRowxContext(ctx, insert, conversationID, senderID, text).StructScan(&msg); err != nil {
		return nil, fmt.Errorf("conversation repository: append message insert %w", err)
	}

	unreadColumn := "unread_b"
	if conv.OtherParticipant(senderID) == conv.ParticipantA {
		unreadColumn = "unread_a"
	}

	update := fmt.Sprintf(`
		UPDATE conversations
		SET last_message_snippet = $2, %s = %s + 1, updated_at = NOW()
		WHERE id = $1
	`, unreadColumn, unreadColumn)
	if _, err := tx.ExecContext(ctx, update, conversationID, snippet(text)); err != nil {
		return nil, fmt.Errorf("conversation repository: append message update %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("conversation repository: append message commit %w", err)
	}

	return &msg, nil
}

// MarkRead обнуляет счётчик непрочитанных участника и помечает адресованные
// ему сообщения прочитанными. Счётчик второго участника не меняется.
func (r *ConversationRepository) MarkRead(ctx context.Context, conversationID, participantID uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("conversation repository: mark read begin tx %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE conversations
		SET unread_a = CASE WHEN participant_a = $2 THEN 0 ELSE unread_a END,
		    unread_b = CASE WHEN participant_b = $2 THEN 0 ELSE unread_b END
		WHERE id = $1 AND (participant_a = $2 OR participant_b = $2)
	`, conversationID, participantID)
	if err != nil {
		return fmt.Errorf("conversation repository: mark read %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("conversation repository: mark read rows affected %w", err)
	}
	if rowsAffected == 0 {
		return apperror.ErrConversationNotFound
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE messages
		SET is_read = TRUE
		WHERE conversation_id = $1 AND sender_id <> $2 AND is_read = FALSE
	`, conversationID, participantID); err != nil {
		return fmt.Errorf("conversation repository: mark messages read %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("conversation repository: mark read commit %w", err)
	}
	return nil
}

// ListMessages возвращает сообщения диалога, старые первыми.
func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]models.Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, text, is_read, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`
	var messages []models.Message
	if err := r.db.SelectContext(ctx, &messages, query, conversationID, limit, offset); err != nil {
		return nil, fmt.Errorf("conversation repository: list messages %w", err)
	}
	return messages, nil
}

// snippet усекает текст для превью в списке диалогов.
func snippet(text string) string {
	if utf8.RuneCountInString(text) <= snippetMaxLen {
		return text
	}
	runes := []rune(text)
	return string(runes[:snippetMaxLen]) + "…"
}
