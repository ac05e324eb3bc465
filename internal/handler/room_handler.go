package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/smart-classroom-api/internal/dto"
	"github.com/noah-isme/smart-classroom-api/internal/models"
	appErrors "github.com/noah-isme/smart-classroom-api/pkg/errors"
	"github.com/noah-isme/smart-classroom-api/pkg/response"
)

type roomService interface {
	List(ctx context.Context, filter models.RoomFilter) ([]models.Room, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Room, error)
	Create(ctx context.Context, req dto.CreateRoomRequest) (*models.Room, error)
	Update(ctx context.Context, id string, req dto.UpdateRoomRequest) (*models.Room, error)
	Delete(ctx context.Context, id string) error
}

// RoomHandler exposes room reference data endpoints.
type RoomHandler struct {
	service roomService
}

// NewRoomHandler constructs a room handler.
func NewRoomHandler(svc roomService) *RoomHandler {
	return &RoomHandler{service: svc}
}

// List godoc
// @Summary List rooms
// @Tags Rooms
// @Produce json
// @Param type query string false "Classroom or Lab"
// @Param minCapacity query int false "Minimum capacity"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /rooms [get]
func (h *RoomHandler) List(c *gin.Context) {
	var filter models.RoomFilter
	if roomType := c.Query("type"); roomType != "" {
		filter.Type = models.RoomType(roomType)
	}
	if capacity := c.Query("minCapacity"); capacity != "" {
		value, err := strconv.Atoi(capacity)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "minCapacity must be an integer"))
			return
		}
		filter.MinCapacity = value
	}
	filter.Page, filter.PageSize = pageParams(c)

	rooms, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, rooms, pagination)
}

// Get godoc
// @Summary Get room
// @Tags Rooms
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} response.Envelope
// @Router /rooms/{id} [get]
func (h *RoomHandler) Get(c *gin.Context) {
	room, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, room, nil)
}

// Create godoc
// @Summary Create room
// @Tags Rooms
// @Accept json
// @Produce json
// @Param payload body dto.CreateRoomRequest true "Room payload"
// @Success 201 {object} response.Envelope
// @Router /rooms [post]
func (h *RoomHandler) Create(c *gin.Context) {
	var req dto.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	room, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, room)
}

// Update godoc
// @Summary Update room
// @Tags Rooms
// @Accept json
// @Produce json
// @Param id path string true "Room ID"
// @Param payload body dto.UpdateRoomRequest true "Room payload"
// @Success 200 {object} response.Envelope
// @Router /rooms/{id} [put]
func (h *RoomHandler) Update(c *gin.Context) {
	var req dto.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	room, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, room, nil)
}

// Delete godoc
// @Summary Delete room
// @Tags Rooms
// @Produce json
// @Param id path string true "Room ID"
// @Success 204
// @Router /rooms/{id} [delete]
func (h *RoomHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
