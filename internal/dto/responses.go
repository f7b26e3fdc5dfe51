package dto

import (
	"github.com/google/uuid"

	"github.com/ignatzorin/stroyhub-backend/internal/models"
)

// ErrorResponse стандартный ответ с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse стандартный успешный ответ.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// RequestResponse заявка вместе с историей событий.
type RequestResponse struct {
	*models.ServiceRequest
	History []models.ProjectUpdate `json:"history,omitempty"`
}

// ConversationResponse диалог с данными собеседника.
type ConversationResponse struct {
	*models.Conversation
	OtherParticipant *ParticipantInfo `json:"other_participant,omitempty"`
	UnreadCount      int              `json:"unread_count"`
}

// ParticipantInfo краткая информация об участнике диалога.
type ParticipantInfo struct {
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	CompanyName *string   `json:"company_name,omitempty"`
}

// UserRatingResponse сводка рейтинга пользователя.
type UserRatingResponse struct {
	UserID  uuid.UUID `json:"user_id"`
	Average float64   `json:"average"`
	Count   int       `json:"count"`
}

// FanoutResponse итог массовой рассылки уведомлений.
type FanoutResponse struct {
	Delivered    int `json:"delivered"`
	Deduplicated int `json:"deduplicated"`
	Failed       int `json:"failed"`
}
