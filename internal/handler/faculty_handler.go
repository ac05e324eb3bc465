package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/smart-classroom-api/internal/dto"
	"github.com/noah-isme/smart-classroom-api/internal/models"
	"github.com/noah-isme/smart-classroom-api/pkg/response"
)

type facultyService interface {
	List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Faculty, error)
	Create(ctx context.Context, req dto.CreateFacultyRequest) (*models.Faculty, error)
	Update(ctx context.Context, id string, req dto.UpdateFacultyRequest) (*models.Faculty, error)
	Delete(ctx context.Context, id string) error
}

// FacultyHandler exposes faculty reference data endpoints.
type FacultyHandler struct {
	service facultyService
}

// NewFacultyHandler constructs a faculty handler.
func NewFacultyHandler(svc facultyService) *FacultyHandler {
	return &FacultyHandler{service: svc}
}

// List godoc
// @Summary List faculty
// @Tags Faculty
// @Produce json
// @Param department query string false "Department"
// @Param q query string false "Search by name or id"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /faculty [get]
func (h *FacultyHandler) List(c *gin.Context) {
	filter := models.FacultyFilter{
		Department: c.Query("department"),
		Search:     c.Query("q"),
	}
	filter.Page, filter.PageSize = pageParams(c)

	members, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, members, pagination)
}

// Get godoc
// @Summary Get faculty member
// @Tags Faculty
// @Produce json
// @Param id path string true "Faculty ID"
// @Success 200 {object} response.Envelope
// @Router /faculty/{id} [get]
func (h *FacultyHandler) Get(c *gin.Context) {
	member, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member, nil)
}

// Create godoc
// @Summary Create faculty member
// @Tags Faculty
// @Accept json
// @Produce json
// @Param payload body dto.CreateFacultyRequest true "Faculty payload"
// @Success 201 {object} response.Envelope
// @Router /faculty [post]
func (h *FacultyHandler) Create(c *gin.Context) {
	var req dto.CreateFacultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	member, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, member)
}

// Update godoc
// @Summary Update faculty member
// @Tags Faculty
// @Accept json
// @Produce json
// @Param id path string true "Faculty ID"
// @Param payload body dto.UpdateFacultyRequest true "Faculty payload"
// @Success 200 {object} response.Envelope
// @Router /faculty/{id} [put]
func (h *FacultyHandler) Update(c *gin.Context) {
	var req dto.UpdateFacultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	member, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member, nil)
}

// Delete godoc
// @Summary Delete faculty member
// @Tags Faculty
// @Produce json
// @Param id path string true "Faculty ID"
// @Success 204
// @Router /faculty/{id} [delete]
func (h *FacultyHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
