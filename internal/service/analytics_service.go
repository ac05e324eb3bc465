package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/smart-classroom-api/internal/models"
	"github.com/noah-isme/smart-classroom-api/internal/scheduling"
	appErrors "github.com/noah-isme/smart-classroom-api/pkg/errors"
)

// dashboardTopN bounds the utilisation and workload charts.
const dashboardTopN = 10

type facultyRoster interface {
	All(ctx context.Context) ([]models.Faculty, error)
}

// AnalyticsService derives dashboard figures from the stored timetable with cache integration.
type AnalyticsService struct {
	entries snapshotReader
	rooms   roomCatalog
	faculty facultyRoster
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAnalyticsService constructs an analytics service.
func NewAnalyticsService(entries snapshotReader, rooms roomCatalog, faculty facultyRoster, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{entries: entries, rooms: rooms, faculty: faculty, cache: cache, metrics: metrics, logger: logger}
}

// Dashboard returns status totals, room utilisation, faculty workload and the weekly class
// count. The boolean indicates whether data originated from cache.
func (s *AnalyticsService) Dashboard(ctx context.Context) (*models.ScheduleDashboard, bool, error) {
	var cached models.ScheduleDashboard
	if hit, err := s.cache.Get(ctx, cacheKeyDashboard, &cached); err == nil && hit {
		return &cached, true, nil
	}

	entries, err := s.entries.ListByDay(ctx, nil, "")
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	rooms, err := s.rooms.All(ctx)
	if err != nil {
		return nil, false, err
	}
	faculty, err := s.faculty.All(ctx)
	if err != nil {
		return nil, false, err
	}

	dashboard := scheduling.Dashboard(entries, rooms, faculty, dashboardTopN)
	if err := s.cache.Set(ctx, cacheKeyDashboard, dashboard, 0); err != nil {
		s.logger.Warn("cache dashboard", zap.Error(err))
	}
	return &dashboard, false, nil
}

// SystemMetrics returns the in-process instrumentation snapshot.
func (s *AnalyticsService) SystemMetrics() models.SystemMetrics {
	return s.metrics.Snapshot()
}

