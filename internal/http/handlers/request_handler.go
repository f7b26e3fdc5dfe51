package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/stroyhub-backend/internal/dto"
	"github.com/ignatzorin/stroyhub-backend/internal/http/handlers/common"
	"github.com/ignatzorin/stroyhub-backend/internal/service"
)

// RequestHandler предоставляет HTTP слой для заявок и их жизненного цикла.
type RequestHandler struct {
	requests  *service.RequestService
	lifecycle *service.LifecycleService
}

// NewRequestHandler создаёт хэндлер.
func NewRequestHandler(requests *service.RequestService, lifecycle *service.LifecycleService) *RequestHandler {
	return &RequestHandler{requests: requests, lifecycle: lifecycle}
}

// Create обрабатывает POST /requests.
func (h *RequestHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.CreateServiceRequestRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	created, err := h.requests.CreateRequest(c.Request.Context(), service.CreateRequestInput{
		ClientID:    userID,
		RequestType: req.RequestType,
		Budget:      req.Budget,
		Details:     req.Details,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// ListMy обрабатывает GET /requests/my.
func (h *RequestHandler) ListMy(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	role, _ := common.CurrentUserRole(c)
	limit, offset := common.GetPagination(c)

	requests, err := h.requests.ListMyRequests(c.Request.Context(), userID, role, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, requests)
}

// ListAvailable обрабатывает GET /requests/available — очередь свободных
// заявок для исполнителей.
func (h *RequestHandler) ListAvailable(c *gin.Context) {
	limit, offset := common.GetPagination(c)
	requestType := c.Query("type")

	requests, err := h.requests.ListAvailable(c.Request.Context(), requestType, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, requests)
}

// Get обрабатывает GET /requests/:id.
func (h *RequestHandler) Get(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	role, _ := common.CurrentUserRole(c)

	requestID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	req, err := h.requests.GetRequest(c.Request.Context(), requestID, userID, role)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// History обрабатывает GET /requests/:id/history — журнал заявки,
// новые записи первыми.
func (h *RequestHandler) History(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	role, _ := common.CurrentUserRole(c)

	requestID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	// Доступ к журналу определяется теми же правилами, что и к заявке.
	if _, err := h.requests.GetRequest(c.Request.Context(), requestID, userID, role); err != nil {
		_ = c.Error(err)
		return
	}

	history, err := h.lifecycle.History(c.Request.Context(), requestID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, history)
}

// Accept обрабатывает POST /requests/:id/accept.
func (h *RequestHandler) Accept(c *gin.Context) {
	providerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	requestID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	req, err := h.lifecycle.Accept(c.Request.Context(), requestID, providerID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// Reject обрабатывает POST /requests/:id/reject.
func (h *RequestHandler) Reject(c *gin.Context) {
	providerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	requestID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	req, err := h.lifecycle.Reject(c.Request.Context(), requestID, providerID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// SubmitQuote обрабатывает POST /requests/:id/quote.
func (h *RequestHandler) SubmitQuote(c *gin.Context) {
	providerID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	requestID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.SubmitQuoteRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	updated, err := h.lifecycle.SubmitQuote(c.Request.Context(), requestID, providerID, req.Amount)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// RecordProgress обрабатывает POST /requests/:id/progress.
func (h *RequestHandler) RecordProgress(c *gin.Context) {
	actorID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	requestID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.ProgressNoteRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	updated, err := h.lifecycle.RecordProgress(c.Request.Context(), requestID, actorID, req.Note, req.IdempotencyKey)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Complete обрабатывает POST /requests/:id/complete.
func (h *RequestHandler) Complete(c *gin.Context) {
	actorID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	requestID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	updated, err := h.lifecycle.Complete(c.Request.Context(), requestID, actorID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Cancel обрабатывает POST /requests/:id/cancel.
func (h *RequestHandler) Cancel(c *gin.Context) {
	actorID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	requestID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	updated, err := h.lifecycle.Cancel(c.Request.Context(), requestID, actorID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, updated)
}
