package dto

import "encoding/json"

// RegisterRequest тело запроса регистрации.
type RegisterRequest struct {
	Email       string  `json:"email" binding:"required"`
	Password    string  `json:"password" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	Phone       *string `json:"phone"`
	Role        string  `json:"role"`
	CompanyName *string `json:"company_name"`
}

// LoginRequest тело запроса входа.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest тело запроса обновления токенов.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// CreateServiceRequestRequest тело запроса создания заявки.
type CreateServiceRequestRequest struct {
	RequestType string          `json:"request_type" binding:"required"`
	Budget      float64         `json:"budget" binding:"required"`
	Details     json.RawMessage `json:"details"`
}

// SubmitQuoteRequest тело запроса с предложением цены.
type SubmitQuoteRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

// ProgressNoteRequest тело запроса с отметкой о ходе работ.
// IdempotencyKey позволяет безопасно повторить запрос после сетевого сбоя.
type ProgressNoteRequest struct {
	Note           string  `json:"note" binding:"required"`
	IdempotencyKey *string `json:"idempotency_key,omitempty"`
}

// StatusNoteRequest тело запроса с необязательным комментарием к смене статуса.
type StatusNoteRequest struct {
	Note *string `json:"note"`
}

// StartConversationRequest тело запроса открытия диалога.
type StartConversationRequest struct {
	ParticipantID string `json:"participant_id" binding:"required"`
}

// SendMessageRequest тело запроса отправки сообщения.
type SendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// CreateReviewRequest тело запроса создания отзыва.
type CreateReviewRequest struct {
	Rating  int     `json:"rating" binding:"required"`
	Comment *string `json:"comment"`
}

// CreatePropertyRequest тело запроса создания объявления.
type CreatePropertyRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Kind        string   `json:"kind" binding:"required"`
	Price       float64  `json:"price" binding:"required"`
	Currency    string   `json:"currency"`
	City        string   `json:"city" binding:"required"`
	Address     string   `json:"address" binding:"required"`
	Rooms       *int     `json:"rooms"`
	AreaSqm     *float64 `json:"area_sqm"`
}

// UpdatePropertyRequest тело запроса изменения объявления.
type UpdatePropertyRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	City        *string  `json:"city"`
	Address     *string  `json:"address"`
	Rooms       *int     `json:"rooms"`
	AreaSqm     *float64 `json:"area_sqm"`
}

// SeedRequest тело запроса генерации демонстрационных данных.
type SeedRequest struct {
	NumUsers      int `json:"num_users"`
	NumRequests   int `json:"num_requests"`
	NumProperties int `json:"num_properties"`
}
