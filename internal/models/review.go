package models

import (
	"time"

	"github.com/google/uuid"
)

// Review описывает отзыв участника заявки о второй стороне после завершения работ.
type Review struct {
	ID        uuid.UUID `db:"id" json:"id"`
	RequestID uuid.UUID `db:"request_id" json:"request_id"`
	AuthorID  uuid.UUID `db:"author_id" json:"author_id"`
	TargetID  uuid.UUID `db:"target_id" json:"target_id"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   *string   `db:"comment" json:"comment,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
