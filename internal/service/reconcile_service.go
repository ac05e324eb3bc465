package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/smart-classroom-api/internal/dto"
	"github.com/noah-isme/smart-classroom-api/internal/models"
	"github.com/noah-isme/smart-classroom-api/internal/scheduling"
	appErrors "github.com/noah-isme/smart-classroom-api/pkg/errors"
	"github.com/noah-isme/smart-classroom-api/pkg/jobs"
	"github.com/noah-isme/smart-classroom-api/pkg/timeslot"
)

// JobTypeReconcile identifies queued reconcile passes.
const JobTypeReconcile = "schedule.reconcile"

type reconcileRepository interface {
	LockDay(ctx context.Context, exec sqlx.ExtContext, day string) error
	ListByDay(ctx context.Context, exec sqlx.ExtContext, day string) ([]models.ScheduleEntry, error)
	UpdatePlacement(ctx context.Context, exec sqlx.ExtContext, id string, status models.ScheduleStatus, roomID string) error
}

type jobQueue interface {
	Enqueue(job jobs.Job) error
}

// ReconcileService re-evaluates stored entries so freed rooms and faculty slots get reused and
// overlapping Scheduled entries are demoted.
type ReconcileService struct {
	repo    reconcileRepository
	tx      txProvider
	rooms   roomCatalog
	engine  *scheduling.Engine
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	queue   jobQueue
}

// NewReconcileService constructs a ReconcileService. Attach a queue to enable Enqueue.
func NewReconcileService(repo reconcileRepository, tx txProvider, rooms roomCatalog, engine *scheduling.Engine, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *ReconcileService {
	if engine == nil {
		engine = scheduling.NewEngine(scheduling.DefaultPolicy())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconcileService{repo: repo, tx: tx, rooms: rooms, engine: engine, cache: cache, metrics: metrics, logger: logger}
}

// AttachQueue sets the queue used by Enqueue.
func (s *ReconcileService) AttachQueue(queue jobQueue) {
	s.queue = queue
}

// Enqueue schedules a background pass for day. Requests for a day that is already waiting are
// coalesced.
func (s *ReconcileService) Enqueue(day string) {
	if s.queue == nil {
		return
	}
	err := s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: JobTypeReconcile, Key: day, Payload: day})
	switch {
	case errors.Is(err, jobs.ErrDuplicate):
		s.logger.Debug("reconcile already queued", zap.String("day", day))
	case err != nil:
		s.logger.Warn("enqueue reconcile failed", zap.String("day", day), zap.Error(err))
	}
}

// Handle runs a queued reconcile job.
func (s *ReconcileService) Handle(ctx context.Context, job jobs.Job) error {
	day, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("reconcile job %s: unexpected payload %T", job.ID, job.Payload)
	}
	_, err := s.Run(ctx, dto.ReconcileRequest{Day: day})
	return err
}

// Run reconciles one day, or the whole week when req.Day is empty, and stores the resulting
// placements unless req.DryRun is set.
func (s *ReconcileService) Run(ctx context.Context, req dto.ReconcileRequest) (resp *dto.ReconcileResponse, err error) {
	start := time.Now()
	defer func() {
		changes := 0
		if resp != nil {
			changes = len(resp.Changes)
		}
		s.metrics.RecordReconcile(changes, time.Since(start), err)
	}()

	days := timeslot.Days
	if req.Day != "" {
		day, dayErr := timeslot.NormalizeDay(req.Day)
		if dayErr != nil {
			return nil, appErrors.Wrap(dayErr, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("unknown day %q", req.Day))
		}
		req.Day = day
		days = []string{day}
	}
	rooms, err := s.rooms.All(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, day := range days {
		if err = s.repo.LockDay(ctx, tx, day); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock schedule day")
		}
	}
	entries, err := s.repo.ListByDay(ctx, tx, req.Day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	result := s.engine.Reconcile(entries, rooms)
	if !req.DryRun {
		for _, change := range result.Changes {
			if err = s.repo.UpdatePlacement(ctx, tx, change.EntryID, change.To, change.ToRoom); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store reconcile placement")
			}
		}
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit reconcile")
	}

	if !req.DryRun && len(result.Changes) > 0 {
		_ = s.cache.Invalidate(ctx, cachePatternBoard)
	}
	changes := result.Changes
	if changes == nil {
		changes = []scheduling.StatusChange{}
	}
	s.logger.Info("schedule reconciled",
		zap.String("day", req.Day),
		zap.Int("entries", len(entries)),
		zap.Int("changes", len(changes)),
		zap.Bool("dry_run", req.DryRun),
	)
	return &dto.ReconcileResponse{
		Day:     req.Day,
		Applied: !req.DryRun,
		Summary: scheduling.Summarize(result.Schedule),
		Changes: changes,
		Logs:    result.Logs,
	}, nil
}
