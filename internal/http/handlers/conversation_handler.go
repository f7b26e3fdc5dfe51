package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/stroyhub-backend/internal/dto"
	"github.com/ignatzorin/stroyhub-backend/internal/http/handlers/common"
	"github.com/ignatzorin/stroyhub-backend/internal/service"
)

// ConversationHandler предоставляет HTTP слой для диалогов и сообщений.
type ConversationHandler struct {
	conversations *service.ConversationService
}

// NewConversationHandler создаёт хэндлер.
func NewConversationHandler(conversations *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

// Start обрабатывает POST /conversations — открывает (или возвращает
// существующий) диалог с собеседником.
func (h *ConversationHandler) Start(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.StartConversationRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	participantID, err := uuid.Parse(req.ParticipantID)
	if err != nil {
		common.RespondBadRequest(c, "неверный идентификатор собеседника")
		return
	}

	conv, err := h.conversations.FindOrCreate(c.Request.Context(), userID, participantID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.ConversationResponse{
		Conversation: conv,
		UnreadCount:  conv.UnreadFor(userID),
	})
}

// List обрабатывает GET /conversations.
func (h *ConversationHandler) List(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	limit, offset := common.GetPagination(c)

	convs, err := h.conversations.ListMyConversations(c.Request.Context(), userID, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	responses := make([]dto.ConversationResponse, 0, len(convs))
	for i := range convs {
		responses = append(responses, dto.ConversationResponse{
			Conversation: &convs[i],
			UnreadCount:  convs[i].UnreadFor(userID),
		})
	}

	c.JSON(http.StatusOK, responses)
}

// Get обрабатывает GET /conversations/:id.
func (h *ConversationHandler) Get(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	conversationID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	conv, err := h.conversations.GetConversation(c.Request.Context(), conversationID, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.ConversationResponse{
		Conversation: conv,
		UnreadCount:  conv.UnreadFor(userID),
	})
}

// ListMessages обрабатывает GET /conversations/:id/messages.
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	conversationID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	limit, offset := common.GetPagination(c)

	messages, err := h.conversations.ListMessages(c.Request.Context(), conversationID, userID, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

// SendMessage обрабатывает POST /conversations/:id/messages.
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	conversationID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.SendMessageRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	msg, err := h.conversations.SendMessage(c.Request.Context(), conversationID, userID, req.Text)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// MarkRead обрабатывает POST /conversations/:id/read.
func (h *ConversationHandler) MarkRead(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	conversationID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.conversations.MarkRead(c.Request.Context(), conversationID, userID); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "диалог отмечен прочитанным"})
}
