package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"

	"github.com/ignatzorin/stroyhub-backend/internal/dto"
	"github.com/ignatzorin/stroyhub-backend/internal/http/handlers/common"
	"github.com/ignatzorin/stroyhub-backend/internal/models"
	"github.com/ignatzorin/stroyhub-backend/internal/service"
	"github.com/ignatzorin/stroyhub-backend/internal/storage"
)

// Разрешённые типы файлов для фотографий объявлений
var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// Разрешённые расширения файлов
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// PropertyHandler предоставляет HTTP слой для объявлений о недвижимости.
type PropertyHandler struct {
	properties *service.PropertyService
	storage    *storage.PhotoStorage
}

// NewPropertyHandler создаёт хэндлер.
func NewPropertyHandler(properties *service.PropertyService, storage *storage.PhotoStorage) *PropertyHandler {
	return &PropertyHandler{properties: properties, storage: storage}
}

// Create обрабатывает POST /properties.
func (h *PropertyHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.CreatePropertyRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	property, err := h.properties.Create(c.Request.Context(), service.CreatePropertyInput{
		OwnerID:     userID,
		Title:       req.Title,
		Description: req.Description,
		Kind:        req.Kind,
		Price:       req.Price,
		Currency:    req.Currency,
		City:        req.City,
		Address:     req.Address,
		Rooms:       req.Rooms,
		AreaSqm:     req.AreaSqm,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, property)
}

// List обрабатывает GET /properties.
func (h *PropertyHandler) List(c *gin.Context) {
	limit, offset := common.GetPagination(c)

	filter := models.PropertyFilter{
		Kind:     c.Query("kind"),
		City:     c.Query("city"),
		PriceMin: common.ParseFloatQuery(c, "price_min"),
		PriceMax: common.ParseFloatQuery(c, "price_max"),
		Limit:    limit,
		Offset:   offset,
	}
	if rooms := common.ParseIntQuery(c, "rooms_min", 0); rooms > 0 {
		filter.RoomsMin = &rooms
	}

	properties, err := h.properties.List(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, properties)
}

// ListMy обрабатывает GET /properties/my.
func (h *PropertyHandler) ListMy(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	limit, offset := common.GetPagination(c)

	properties, err := h.properties.List(c.Request.Context(), models.PropertyFilter{
		OwnerID: &userID,
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, properties)
}

// Get обрабатывает GET /properties/:id.
func (h *PropertyHandler) Get(c *gin.Context) {
	propertyID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	property, err := h.properties.Get(c.Request.Context(), propertyID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, property)
}

// Update обрабатывает PUT /properties/:id.
func (h *PropertyHandler) Update(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	propertyID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.UpdatePropertyRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	property, err := h.properties.Update(c.Request.Context(), propertyID, userID, service.UpdatePropertyInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		City:        req.City,
		Address:     req.Address,
		Rooms:       req.Rooms,
		AreaSqm:     req.AreaSqm,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, property)
}

// Archive обрабатывает DELETE /properties/:id.
func (h *PropertyHandler) Archive(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	propertyID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.properties.Archive(c.Request.Context(), propertyID, userID); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "объявление отправлено в архив"})
}

// UploadPhoto обрабатывает POST /properties/:id/photos.
func (h *PropertyHandler) UploadPhoto(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	propertyID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		common.RespondBadRequest(c, "поле file обязательно")
		return
	}
	if file.Size == 0 {
		common.RespondBadRequest(c, "файл не может быть пустым")
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		common.RespondBadRequest(c, fmt.Sprintf("неподдерживаемый формат файла %s", ext))
		return
	}

	src, err := file.Open()
	if err != nil {
		common.RespondInternalError(c, "")
		return
	}
	defer src.Close()

	// Проверяем магические байты, расширению доверять нельзя.
	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && n == 0 {
		common.RespondBadRequest(c, "не удалось прочитать файл")
		return
	}

	kind, err := filetype.Match(buffer[:n])
	if err != nil || kind == filetype.Unknown || !allowedMimeTypes[kind.MIME.Value] {
		common.RespondBadRequest(c, "содержимое файла не является поддерживаемым изображением")
		return
	}

	if _, err := src.Seek(0, 0); err != nil {
		common.RespondInternalError(c, "")
		return
	}

	path, size, err := h.storage.Save(c.Request.Context(), userID, file.Filename, src)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.properties.AttachImage(c.Request.Context(), propertyID, userID, path); err != nil {
		// Объявление не найдено или чужое: подчищаем осиротевший файл.
		_ = h.storage.Delete(c.Request.Context(), path)
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"path": path, "size": size})
}
