package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Conversation описывает диалог ровно двух участников.
// PairKey — детерминированный ключ пары (отсортированные идентификаторы),
// уникальный индекс по нему гарантирует не более одного диалога на пару.
type Conversation struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	PairKey            string    `db:"pair_key" json:"-"`
	ParticipantA       uuid.UUID `db:"participant_a" json:"participant_a"`
	ParticipantB       uuid.UUID `db:"participant_b" json:"participant_b"`
	LastMessageSnippet *string   `db:"last_message_snippet" json:"last_message_snippet,omitempty"`
	UnreadA            int       `db:"unread_a" json:"-"`
	UnreadB            int       `db:"unread_b" json:"-"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// Message описывает сообщение в диалоге. Сообщения не редактируются.
type Message struct {
	ID             uuid.UUID `db:"id" json:"id"`
	ConversationID uuid.UUID `db:"conversation_id" json:"conversation_id"`
	SenderID       uuid.UUID `db:"sender_id" json:"sender_id"`
	Text           string    `db:"text" json:"text"`
	IsRead         bool      `db:"is_read" json:"is_read"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// PairKey возвращает канонический ключ неупорядоченной пары участников.
// Результат не зависит от порядка аргументов.
func PairKey(a, b uuid.UUID) string {
	first, second := SortParticipants(a, b)
	return first.String() + ":" + second.String()
}

// SortParticipants возвращает пару в каноническом порядке.
func SortParticipants(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if strings.Compare(a.String(), b.String()) <= 0 {
		return a, b
	}
	return b, a
}

// HasParticipant проверяет, состоит ли пользователь в диалоге.
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.ParticipantA == userID || c.ParticipantB == userID
}

// OtherParticipant возвращает собеседника для указанного участника.
func (c *Conversation) OtherParticipant(userID uuid.UUID) uuid.UUID {
	if c.ParticipantA == userID {
		return c.ParticipantB
	}
	return c.ParticipantA
}

// UnreadFor возвращает счётчик непрочитанных для участника.
func (c *Conversation) UnreadFor(userID uuid.UUID) int {
	if c.ParticipantA == userID {
		return c.UnreadA
	}
	return c.UnreadB
}
