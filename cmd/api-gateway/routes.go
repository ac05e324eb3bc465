package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/smart-classroom-api/internal/handler"
	"github.com/noah-isme/smart-classroom-api/internal/middleware"
	"github.com/noah-isme/smart-classroom-api/internal/models"
	"github.com/noah-isme/smart-classroom-api/pkg/config"
	"github.com/noah-isme/smart-classroom-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/smart-classroom-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/smart-classroom-api/pkg/middleware/requestid"
)

type routeDeps struct {
	rooms         *handler.RoomHandler
	faculty       *handler.FacultyHandler
	schedules     *handler.ScheduleHandler
	availability  *handler.AvailabilityHandler
	analytics     *handler.AnalyticsHandler
	exports       *handler.ExportHandler
	observability *handler.MetricsHandler
	metrics       middleware.RequestObserver
	tokens        middleware.TokenVerifier
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))
	r.Use(middleware.ResponseMeta())

	r.GET("/health", deps.observability.Health)
	r.GET("/ready", deps.observability.Ready)
	r.GET("/metrics", deps.observability.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	// Downloads authenticate through the signed token itself.
	api.GET("/exports/:token", deps.exports.Download)

	read := api.Group("")
	write := api.Group("")
	if cfg.JWT.Enabled {
		read.Use(middleware.JWT(deps.tokens))
		write.Use(middleware.JWT(deps.tokens), middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleScheduler))
	}
	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(logr, action, resource)
	}

	read.GET("/rooms", deps.rooms.List)
	read.GET("/rooms/:id", deps.rooms.Get)
	write.POST("/rooms", audit("create", "room"), deps.rooms.Create)
	write.PUT("/rooms/:id", audit("update", "room"), deps.rooms.Update)
	write.DELETE("/rooms/:id", audit("delete", "room"), deps.rooms.Delete)

	read.GET("/faculty", deps.faculty.List)
	read.GET("/faculty/:id", deps.faculty.Get)
	write.POST("/faculty", audit("create", "faculty"), deps.faculty.Create)
	write.PUT("/faculty/:id", audit("update", "faculty"), deps.faculty.Update)
	write.DELETE("/faculty/:id", audit("delete", "faculty"), deps.faculty.Delete)

	read.GET("/schedules", deps.schedules.List)
	read.GET("/schedules/:id", deps.schedules.Get)
	read.POST("/schedules/evaluate", deps.schedules.Evaluate)
	write.POST("/schedules", audit("create", "schedule"), deps.schedules.Create)
	write.POST("/schedules/bulk", audit("bulk_create", "schedule"), deps.schedules.Bulk)
	write.POST("/schedules/reconcile", audit("reconcile", "schedule"), deps.schedules.Reconcile)
	write.PUT("/schedules/:id", audit("update", "schedule"), deps.schedules.Update)
	write.DELETE("/schedules/:id", audit("delete", "schedule"), deps.schedules.Delete)

	read.GET("/availability/rooms", deps.availability.Rooms)
	read.GET("/availability/faculty/:id", deps.availability.Faculty)

	read.GET("/analytics/dashboard", deps.analytics.Dashboard)
	read.GET("/analytics/system", deps.analytics.System)

	read.POST("/exports/schedules", deps.exports.Schedules)

	return r
}
