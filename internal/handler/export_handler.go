package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/smart-classroom-api/internal/dto"
	"github.com/noah-isme/smart-classroom-api/internal/models"
	"github.com/noah-isme/smart-classroom-api/internal/service"
	appErrors "github.com/noah-isme/smart-classroom-api/pkg/errors"
	"github.com/noah-isme/smart-classroom-api/pkg/response"
)

type exportService interface {
	Export(ctx context.Context, req dto.ExportRequest) (*models.ExportResult, error)
	Open(token string) (*service.Download, error)
}

// ExportHandler renders timetables and serves signed downloads.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs an export handler.
func NewExportHandler(svc exportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Schedules godoc
// @Summary Export the timetable
// @Description Renders scheduled bookings to CSV or PDF and returns a signed download link.
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body dto.ExportRequest true "Export options"
// @Success 201 {object} response.Envelope
// @Router /exports/schedules [post]
func (h *ExportHandler) Schedules(c *gin.Context) {
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	result, err := h.service.Export(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Download godoc
// @Summary Download an export via signed token
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Router /exports/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	download, err := h.service.Open(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", download.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, download.Size, download.ContentType, download.File, nil)
}
