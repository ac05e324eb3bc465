package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/smart-classroom-api/internal/dto"
	"github.com/noah-isme/smart-classroom-api/internal/models"
	"github.com/noah-isme/smart-classroom-api/pkg/response"
)

type availabilityService interface {
	FindRooms(ctx context.Context, q dto.AvailableRoomsQuery) ([]models.Room, error)
	FacultyStatus(ctx context.Context, facultyID string, q dto.FacultyAvailabilityQuery) (*dto.FacultyAvailabilityResponse, error)
}

// AvailabilityHandler serves the classroom finder and the faculty checker.
type AvailabilityHandler struct {
	service availabilityService
}

// NewAvailabilityHandler constructs an availability handler.
func NewAvailabilityHandler(svc availabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: svc}
}

// Rooms godoc
// @Summary Find free rooms
// @Tags Availability
// @Produce json
// @Param day query string true "Day of week"
// @Param slot query string true "Time slot, e.g. 9:00-10:30"
// @Param capacity query int false "Minimum capacity"
// @Param type query string false "Classroom or Lab"
// @Param equipment query []string false "Required equipment" collectionFormat(multi)
// @Success 200 {object} response.Envelope
// @Router /availability/rooms [get]
func (h *AvailabilityHandler) Rooms(c *gin.Context) {
	var q dto.AvailableRoomsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	q.Equipment = splitList(q.Equipment)

	rooms, err := h.service.FindRooms(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, nil, map[string]interface{}{"count": len(rooms)})
}

// Faculty godoc
// @Summary Check whether a faculty member is free
// @Tags Availability
// @Produce json
// @Param id path string true "Faculty ID"
// @Param day query string true "Day of week"
// @Param slot query string true "Time slot, e.g. 9:00-10:30"
// @Success 200 {object} response.Envelope
// @Router /availability/faculty/{id} [get]
func (h *AvailabilityHandler) Faculty(c *gin.Context) {
	var q dto.FacultyAvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	status, err := h.service.FacultyStatus(c.Request.Context(), c.Param("id"), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// splitList accepts both repeated parameters and comma separated values.
func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}
