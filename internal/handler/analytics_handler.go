package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/smart-classroom-api/internal/middleware"
	"github.com/noah-isme/smart-classroom-api/internal/models"
	appErrors "github.com/noah-isme/smart-classroom-api/pkg/errors"
	"github.com/noah-isme/smart-classroom-api/pkg/response"
)

type analyticsService interface {
	Dashboard(ctx context.Context) (*models.ScheduleDashboard, bool, error)
	SystemMetrics() models.SystemMetrics
}

// AnalyticsHandler exposes schedule analytics.
type AnalyticsHandler struct {
	service analyticsService
}

// NewAnalyticsHandler constructs an analytics handler.
func NewAnalyticsHandler(svc analyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: svc}
}

// Dashboard godoc
// @Summary Schedule dashboard
// @Description Status summary, room utilization, faculty workload and weekly class count.
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/dashboard [get]
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	dashboard, cacheHit, err := h.service.Dashboard(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, dashboard, nil, middleware.Meta(c))
}

// System godoc
// @Summary Service metrics snapshot
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/system [get]
func (h *AnalyticsHandler) System(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	response.JSON(c, http.StatusOK, h.service.SystemMetrics(), nil)
}
