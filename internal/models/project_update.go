package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectUpdate — запись журнала изменений заявки. Записи только добавляются,
// существующие никогда не изменяются и не удаляются.
type ProjectUpdate struct {
	ID        uuid.UUID `db:"id" json:"id"`
	RequestID uuid.UUID `db:"request_id" json:"request_id"`
	Status    string    `db:"status" json:"status"`
	ActorID   uuid.UUID `db:"actor_id" json:"actor_id"`
	Note      *string   `db:"note" json:"note,omitempty"`
	EventKey  *string   `db:"event_key" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
