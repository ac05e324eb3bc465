package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/smart-classroom-api/internal/dto"
	"github.com/noah-isme/smart-classroom-api/internal/models"
	"github.com/noah-isme/smart-classroom-api/pkg/response"
)

type scheduleService interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.ScheduleEntry, error)
	Evaluate(ctx context.Context, req dto.ScheduleRequest) (*dto.EvaluationResponse, error)
	Create(ctx context.Context, req dto.ScheduleRequest, strict bool) (*dto.EvaluationResponse, error)
	Update(ctx context.Context, id string, req dto.ScheduleRequest, strict bool) (*dto.EvaluationResponse, error)
	Delete(ctx context.Context, id string) error
	BulkCreate(ctx context.Context, req dto.BulkScheduleRequest, strict bool) (*dto.BulkScheduleResult, error)
}

type reconcileRunner interface {
	Run(ctx context.Context, req dto.ReconcileRequest) (*dto.ReconcileResponse, error)
}

// ScheduleHandler exposes the booking workflow.
type ScheduleHandler struct {
	service    scheduleService
	reconciler reconcileRunner
}

// NewScheduleHandler constructs a schedule handler.
func NewScheduleHandler(svc scheduleService, reconciler reconcileRunner) *ScheduleHandler {
	return &ScheduleHandler{service: svc, reconciler: reconciler}
}

// List godoc
// @Summary List schedule entries
// @Tags Schedules
// @Produce json
// @Param day query string false "Day of week"
// @Param roomId query string false "Room ID"
// @Param facultyId query string false "Faculty ID"
// @Param status query string false "Pending, Scheduled, Conflict or No Room"
// @Param programme query string false "Programme"
// @Param semester query string false "Semester"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param sort query string false "day, start, room_id, faculty_id, course_code, status or created_at"
// @Param order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	filter := models.ScheduleFilter{
		Day:       c.Query("day"),
		RoomID:    c.Query("roomId"),
		FacultyID: c.Query("facultyId"),
		Status:    models.ScheduleStatus(c.Query("status")),
		Programme: c.Query("programme"),
		Semester:  c.Query("semester"),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	filter.Page, filter.PageSize = pageParams(c)

	entries, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, entries, pagination)
}

// Get godoc
// @Summary Get schedule entry
// @Tags Schedules
// @Produce json
// @Param id path string true "Entry ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	entry, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Evaluate godoc
// @Summary Evaluate a booking without storing it
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body dto.ScheduleRequest true "Booking request"
// @Success 200 {object} response.Envelope
// @Router /schedules/evaluate [post]
func (h *ScheduleHandler) Evaluate(c *gin.Context) {
	var req dto.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	result, err := h.service.Evaluate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Create godoc
// @Summary Evaluate and store a booking
// @Description Conflicting bookings are stored with status Conflict unless strict is set, in which case 409 is returned.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param strict query bool false "Reject conflicts instead of storing them"
// @Param payload body dto.ScheduleRequest true "Booking request"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedules [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	strict, err := boolQuery(c, "strict")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	result, err := h.service.Create(c.Request.Context(), req, strict)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Update godoc
// @Summary Re-evaluate and store an existing booking
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param strict query bool false "Reject conflicts instead of storing them"
// @Param payload body dto.ScheduleRequest true "Booking request"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [put]
func (h *ScheduleHandler) Update(c *gin.Context) {
	strict, err := boolQuery(c, "strict")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	result, err := h.service.Update(c.Request.Context(), c.Param("id"), req, strict)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Delete godoc
// @Summary Delete a booking
// @Description Removing a scheduled booking queues a reconcile of its day.
// @Tags Schedules
// @Produce json
// @Param id path string true "Entry ID"
// @Success 204
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Bulk godoc
// @Summary Evaluate and store bookings in order
// @Tags Schedules
// @Accept json
// @Produce json
// @Param strict query bool false "Reject conflicts instead of storing them"
// @Param payload body dto.BulkScheduleRequest true "Bookings"
// @Success 201 {object} response.Envelope
// @Router /schedules/bulk [post]
func (h *ScheduleHandler) Bulk(c *gin.Context) {
	strict, err := boolQuery(c, "strict")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.BulkScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	result, err := h.service.BulkCreate(c.Request.Context(), req, strict)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Reconcile godoc
// @Summary Re-evaluate stored bookings
// @Description Replays one day, or the whole week when day is omitted, and updates statuses and rooms unless dry_run is set.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body dto.ReconcileRequest false "Reconcile options"
// @Success 200 {object} response.Envelope
// @Router /schedules/reconcile [post]
func (h *ScheduleHandler) Reconcile(c *gin.Context) {
	var req dto.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, invalidPayload(err))
		return
	}
	result, err := h.reconciler.Run(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
