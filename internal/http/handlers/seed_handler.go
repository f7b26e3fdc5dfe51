package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/stroyhub-backend/internal/dto"
	"github.com/ignatzorin/stroyhub-backend/internal/http/handlers/common"
	"github.com/ignatzorin/stroyhub-backend/internal/service"
)

// SeedHandler обрабатывает запросы генерации демонстрационных данных.
// Маршрут включается только вне production окружения.
type SeedHandler struct {
	seed *service.SeedService
}

// NewSeedHandler создаёт новый seed handler.
func NewSeedHandler(seed *service.SeedService) *SeedHandler {
	return &SeedHandler{seed: seed}
}

// Seed генерирует демонстрационные данные.
// POST /api/seed
func (h *SeedHandler) Seed(c *gin.Context) {
	var req dto.SeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "некорректное тело запроса")
		return
	}

	if req.NumUsers < 1 {
		req.NumUsers = 20
	}
	if req.NumRequests < 1 {
		req.NumRequests = 50
	}
	if req.NumProperties < 1 {
		req.NumProperties = 30
	}
	if req.NumUsers > 500 {
		req.NumUsers = 500
	}
	if req.NumRequests > 2000 {
		req.NumRequests = 2000
	}
	if req.NumProperties > 1000 {
		req.NumProperties = 1000
	}

	if err := h.seed.SeedData(c.Request.Context(), req.NumUsers, req.NumRequests, req.NumProperties); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "демонстрационные данные сгенерированы",
		"num_users":      req.NumUsers,
		"num_requests":   req.NumRequests,
		"num_properties": req.NumProperties,
		"password":       "Password123",
	})
}
