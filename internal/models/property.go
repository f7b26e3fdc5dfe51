package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Property описывает объявление о продаже или аренде недвижимости.
type Property struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	OwnerID     uuid.UUID      `db:"owner_id" json:"owner_id"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description"`
	Kind        string         `db:"kind" json:"kind"`
	Price       float64        `db:"price" json:"price"`
	Currency    string         `db:"currency" json:"currency"`
	City        string         `db:"city" json:"city"`
	Address     string         `db:"address" json:"address"`
	Rooms       *int           `db:"rooms" json:"rooms,omitempty"`
	AreaSqm     *float64       `db:"area_sqm" json:"area_sqm,omitempty"`
	Images      pq.StringArray `db:"images" json:"images"`
	Status      string         `db:"status" json:"status"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// PropertyFilter задаёт параметры выборки объявлений.
type PropertyFilter struct {
	Kind     string
	City     string
	PriceMin *float64
	PriceMax *float64
	RoomsMin *int
	OwnerID  *uuid.UUID
	Limit    int
	Offset   int
}
