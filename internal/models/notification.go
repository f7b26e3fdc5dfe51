package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification описывает событие, доставленное пользователю.
// EventKey (если задан) защищает от повторной доставки при ретраях.
type Notification struct {
	ID          uuid.UUID `db:"id" json:"id"`
	RecipientID uuid.UUID `db:"recipient_id" json:"recipient_id"`
	Title       string    `db:"title" json:"title"`
	Body        string    `db:"body" json:"body"`
	Kind        string    `db:"kind" json:"kind"`
	Link        *string   `db:"link" json:"link,omitempty"`
	EventKey    *string   `db:"event_key" json:"-"`
	IsRead      bool      `db:"is_read" json:"is_read"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
