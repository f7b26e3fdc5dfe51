package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ServiceRequest описывает заявку клиента на строительные или риэлторские услуги.
// Общие поля одинаковы для всех типов, специфичные лежат в Details
// и различаются по RequestType.
type ServiceRequest struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	RequestType     string          `db:"request_type" json:"request_type"`
	ClientID        uuid.UUID       `db:"client_id" json:"client_id"`
	ProviderID      *uuid.UUID      `db:"provider_id" json:"provider_id,omitempty"`
	Status          string          `db:"status" json:"status"`
	Budget          float64         `db:"budget" json:"budget"`
	Quote           *float64        `db:"quote" json:"quote,omitempty"`
	QuoteProviderID *uuid.UUID      `db:"quote_provider_id" json:"quote_provider_id,omitempty"`
	Details         json.RawMessage `db:"details" json:"details,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// ConstructionDetails хранит параметры заявки на строительство.
type ConstructionDetails struct {
	ObjectType string     `json:"object_type"`
	AreaSqm    float64    `json:"area_sqm"`
	Deadline   *time.Time `json:"deadline,omitempty"`
}

// RenovationDetails хранит параметры заявки на ремонт.
type RenovationDetails struct {
	PropertyKind string `json:"property_kind"`
	Rooms        int    `json:"rooms"`
	FinishClass  string `json:"finish_class"`
}

// RentalDetails хранит параметры заявки на аренду.
type RentalDetails struct {
	District   string  `json:"district"`
	MaxRent    float64 `json:"max_rent"`
	TermMonths int     `json:"term_months"`
}

// BuySellDetails хранит параметры заявки на покупку или продажу.
type BuySellDetails struct {
	PropertyKind string  `json:"property_kind"`
	DealSide     string  `json:"deal_side"`
	PriceLimit   float64 `json:"price_limit"`
}

// DecodeDetails разбирает Details в типизированную структуру по RequestType.
func (r *ServiceRequest) DecodeDetails() (interface{}, error) {
	if len(r.Details) == 0 {
		return nil, nil
	}

	switch r.RequestType {
	case RequestTypeConstruction:
		var d ConstructionDetails
		if err := json.Unmarshal(r.Details, &d); err != nil {
			return nil, fmt.Errorf("request: некорректные детали строительства: %w", err)
		}
		return &d, nil
	case RequestTypeRenovation:
		var d RenovationDetails
		if err := json.Unmarshal(r.Details, &d); err != nil {
			return nil, fmt.Errorf("request: некорректные детали ремонта: %w", err)
		}
		return &d, nil
	case RequestTypeRental:
		var d RentalDetails
		if err := json.Unmarshal(r.Details, &d); err != nil {
			return nil, fmt.Errorf("request: некорректные детали аренды: %w", err)
		}
		return &d, nil
	case RequestTypeBuySell:
		var d BuySellDetails
		if err := json.Unmarshal(r.Details, &d); err != nil {
			return nil, fmt.Errorf("request: некорректные детали сделки: %w", err)
		}
		return &d, nil
	default:
		return nil, fmt.Errorf("request: неизвестный тип заявки %q", r.RequestType)
	}
}

// EncodeDetails сериализует типизированные детали для сохранения.
func EncodeDetails(details interface{}) (json.RawMessage, error) {
	if details == nil {
		return nil, nil
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("request: не удалось сериализовать детали: %w", err)
	}
	return raw, nil
}
