package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/smart-classroom-api/internal/dto"
	"github.com/noah-isme/smart-classroom-api/internal/models"
	"github.com/noah-isme/smart-classroom-api/internal/scheduling"
	appErrors "github.com/noah-isme/smart-classroom-api/pkg/errors"
	"github.com/noah-isme/smart-classroom-api/pkg/timeslot"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type scheduleRepository interface {
	LockDay(ctx context.Context, exec sqlx.ExtContext, day string) error
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, int, error)
	ListByDay(ctx context.Context, exec sqlx.ExtContext, day string) ([]models.ScheduleEntry, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ScheduleEntry, error)
	Create(ctx context.Context, exec sqlx.ExtContext, entry *models.ScheduleEntry) error
	Update(ctx context.Context, exec sqlx.ExtContext, entry *models.ScheduleEntry) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type roomCatalog interface {
	All(ctx context.Context) ([]models.Room, error)
}

type facultyDirectory interface {
	Ensure(ctx context.Context, id string) error
}

type reconcileEnqueuer interface {
	Enqueue(day string)
}

// ScheduleServiceConfig governs side effects of schedule writes.
type ScheduleServiceConfig struct {
	// ReconcileOnDelete queues a reconcile pass for the day whenever a Scheduled entry is removed
	// or moved, so entries waiting on the freed room or faculty can be placed.
	ReconcileOnDelete bool
}

// ScheduleService runs evaluate-then-commit over the stored timetable. Every write loads the day
// snapshot inside a transaction holding that day's advisory lock, so two concurrent requests can
// never both be Scheduled into the same room or faculty slot.
type ScheduleService struct {
	repo       scheduleRepository
	tx         txProvider
	rooms      roomCatalog
	faculty    facultyDirectory
	engine     *scheduling.Engine
	reconciler reconcileEnqueuer
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        ScheduleServiceConfig
}

// NewScheduleService wires the schedule workflow.
func NewScheduleService(
	repo scheduleRepository,
	tx txProvider,
	rooms roomCatalog,
	faculty facultyDirectory,
	engine *scheduling.Engine,
	reconciler reconcileEnqueuer,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ScheduleServiceConfig,
) *ScheduleService {
	if engine == nil {
		engine = scheduling.NewEngine(scheduling.DefaultPolicy())
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		repo:       repo,
		tx:         tx,
		rooms:      rooms,
		faculty:    faculty,
		engine:     engine,
		reconciler: reconciler,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
	}
}

// List returns a filtered page of entries.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, *models.Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", filter.Status))
	}
	if filter.Day != "" {
		day, err := timeslot.NormalizeDay(filter.Day)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("unknown day %q", filter.Day))
		}
		filter.Day = day
	}
	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule entries")
	}
	return entries, newPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns an entry by identifier.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	return s.find(ctx, nil, id)
}

// Evaluate classifies a request against the current timetable without storing it.
func (s *ScheduleService) Evaluate(ctx context.Context, req dto.ScheduleRequest) (*dto.EvaluationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	rooms, err := s.rooms.All(ctx)
	if err != nil {
		return nil, err
	}
	booking := req.Booking()
	existing, err := s.snapshot(ctx, nil, booking.Day)
	if err != nil {
		return nil, err
	}
	result, err := s.evaluate(ctx, booking, existing, rooms)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordEvaluation(result.Entry.Status, false)
	return dto.NewEvaluationResponse(result, false), nil
}

// Create evaluates a request and stores it with its status. With strict set, a Conflict result
// is rejected with CONFLICT and nothing is stored.
func (s *ScheduleService) Create(ctx context.Context, req dto.ScheduleRequest, strict bool) (resp *dto.EvaluationResponse, err error) {
	if err = s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	rooms, err := s.rooms.All(ctx)
	if err != nil {
		return nil, err
	}
	booking := req.Booking()

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.lockDays(ctx, tx, booking.Day); err != nil {
		return nil, err
	}
	existing, err := s.snapshot(ctx, tx, booking.Day)
	if err != nil {
		return nil, err
	}
	result, err := s.evaluate(ctx, booking, existing, rooms)
	if err != nil {
		return nil, err
	}
	if strict && result.Entry.Status == models.StatusConflict {
		s.metrics.RecordEvaluation(result.Entry.Status, false)
		return nil, conflictError(result)
	}

	entry := result.Entry
	if err = s.repo.Create(ctx, tx, &entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store schedule entry")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit schedule entry")
	}
	result.Entry = entry

	s.metrics.RecordEvaluation(entry.Status, true)
	_ = s.cache.Invalidate(ctx, cachePatternBoard)
	s.logger.Info("schedule entry stored",
		zap.String("entry_id", entry.ID),
		zap.String("day", entry.Day),
		zap.String("slot", entry.TimeSlot),
		zap.String("room_id", entry.RoomID),
		zap.String("status", string(entry.Status)),
	)
	return dto.NewEvaluationResponse(result, true), nil
}

// Update re-evaluates an entry with new details, ignoring its own previous booking.
func (s *ScheduleService) Update(ctx context.Context, id string, req dto.ScheduleRequest, strict bool) (resp *dto.EvaluationResponse, err error) {
	if err = s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	rooms, err := s.rooms.All(ctx)
	if err != nil {
		return nil, err
	}
	booking := req.Booking()
	booking.ID = id

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	current, err := s.lockEntry(ctx, tx, id, booking.Day)
	if err != nil {
		return nil, err
	}
	existing, err := s.snapshot(ctx, tx, booking.Day)
	if err != nil {
		return nil, err
	}
	result, err := s.evaluate(ctx, booking, existing, rooms)
	if err != nil {
		return nil, err
	}
	if strict && result.Entry.Status == models.StatusConflict {
		s.metrics.RecordEvaluation(result.Entry.Status, false)
		return nil, conflictError(result)
	}

	entry := result.Entry
	entry.ID = id
	entry.CreatedAt = current.CreatedAt
	if err = s.repo.Update(ctx, tx, &entry); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule entry")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit schedule entry")
	}
	result.Entry = entry

	s.metrics.RecordEvaluation(entry.Status, true)
	_ = s.cache.Invalidate(ctx, cachePatternBoard)
	if current.Status == models.StatusScheduled && released(*current, entry) {
		s.queueReconcile(current.Day)
	}
	return dto.NewEvaluationResponse(result, true), nil
}

// Delete removes an entry. Removing a Scheduled entry queues a reconcile pass for its day.
func (s *ScheduleService) Delete(ctx context.Context, id string) (err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	current, err := s.lockEntry(ctx, tx, id)
	if err != nil {
		return err
	}
	if err = s.repo.Delete(ctx, tx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule entry")
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit deletion")
	}

	_ = s.cache.Invalidate(ctx, cachePatternBoard)
	if current.Status == models.StatusScheduled {
		s.queueReconcile(current.Day)
	}
	return nil
}

// BulkCreate evaluates and stores items in request order inside one transaction. Each item sees
// the entries stored before it. Without PartialOnError the first failing item aborts the batch.
func (s *ScheduleService) BulkCreate(ctx context.Context, req dto.BulkScheduleRequest, strict bool) (out *dto.BulkScheduleResult, err error) {
	if err = s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk schedule payload")
	}
	rooms, err := s.rooms.All(ctx)
	if err != nil {
		return nil, err
	}

	days := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		days = append(days, item.Day)
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

	if err = s.lockDays(ctx, tx, days...); err != nil {
		return nil, err
	}

	snapshots := make(map[string][]models.ScheduleEntry)
	knownFaculty := make(map[string]error)
	out = &dto.BulkScheduleResult{Results: make([]dto.EvaluationResponse, 0, len(req.Items))}
	var statuses []models.ScheduleStatus

	for i, item := range req.Items {
		booking := item.Booking()
		day, dayErr := timeslot.NormalizeDay(booking.Day)
		if dayErr == nil {
			if _, loaded := snapshots[day]; !loaded {
				entries, loadErr := s.snapshot(ctx, tx, day)
				if loadErr != nil {
					err = loadErr
					return nil, err
				}
				snapshots[day] = entries
			}
		}

		result, itemErr := s.engine.Evaluate(booking, snapshots[day], rooms)
		if itemErr == nil {
			ensureErr, seen := knownFaculty[booking.FacultyID]
			if !seen {
				ensureErr = s.faculty.Ensure(ctx, booking.FacultyID)
				knownFaculty[booking.FacultyID] = ensureErr
			}
			itemErr = ensureErr
		}
		if itemErr == nil && strict && result.Entry.Status == models.StatusConflict {
			itemErr = conflictError(result)
		}
		if itemErr == nil {
			entry := result.Entry
			if createErr := s.repo.Create(ctx, tx, &entry); createErr != nil {
				err = appErrors.Wrap(createErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to store bulk item %d", i))
				return nil, err
			}
			result.Entry = entry
			snapshots[day] = append(snapshots[day], entry)
			statuses = append(statuses, entry.Status)
			out.Results = append(out.Results, *dto.NewEvaluationResponse(result, true))
			continue
		}

		appErr := appErrors.FromError(itemErr)
		if !req.PartialOnError || appErr.Code == appErrors.ErrInternal.Code {
			err = appErrors.Clone(appErr, fmt.Sprintf("bulk item %d: %s", i, appErr.Message))
			return nil, err
		}
		out.Failed = append(out.Failed, dto.BulkItemError{Index: i, Error: appErr})
	}

	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit bulk schedule")
	}
	for _, status := range statuses {
		s.metrics.RecordEvaluation(status, true)
	}
	_ = s.cache.Invalidate(ctx, cachePatternBoard)
	s.logger.Info("bulk schedule stored", zap.Int("stored", len(out.Results)), zap.Int("failed", len(out.Failed)))
	return out, nil
}

func (s *ScheduleService) evaluate(ctx context.Context, booking models.BookingRequest, existing []models.ScheduleEntry, rooms []models.Room) (*scheduling.Result, error) {
	result, err := s.engine.Evaluate(booking, existing, rooms)
	if err != nil {
		return nil, err
	}
	if err := s.faculty.Ensure(ctx, booking.FacultyID); err != nil {
		return nil, err
	}
	return result, nil
}

// snapshot loads the entries of day. Unknown days load nothing and are rejected by the engine.
func (s *ScheduleService) snapshot(ctx context.Context, exec sqlx.ExtContext, day string) ([]models.ScheduleEntry, error) {
	canonical, err := timeslot.NormalizeDay(day)
	if err != nil {
		return nil, nil
	}
	entries, err := s.repo.ListByDay(ctx, exec, canonical)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule snapshot")
	}
	return entries, nil
}

// lockDays takes the advisory lock of every known day in week order.
func (s *ScheduleService) lockDays(ctx context.Context, exec sqlx.ExtContext, days ...string) error {
	for _, day := range orderedDays(days) {
		if err := s.repo.LockDay(ctx, exec, day); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock schedule day")
		}
	}
	return nil
}

// lockEntry locks the stored day of id together with days and returns the entry as read under
// those locks. A row moved to another day before the locks were granted is re-read after its new
// day is locked as well.
func (s *ScheduleService) lockEntry(ctx context.Context, exec sqlx.ExtContext, id string, days ...string) (*models.ScheduleEntry, error) {
	current, err := s.find(ctx, exec, id)
	if err != nil {
		return nil, err
	}
	locked := append([]string{current.Day}, days...)
	if err := s.lockDays(ctx, exec, locked...); err != nil {
		return nil, err
	}
	for {
		current, err = s.find(ctx, exec, id)
		if err != nil {
			return nil, err
		}
		if containsDay(locked, current.Day) {
			return current, nil
		}
		if err := s.lockDays(ctx, exec, current.Day); err != nil {
			return nil, err
		}
		locked = append(locked, current.Day)
	}
}

func containsDay(days []string, day string) bool {
	for _, d := range days {
		if timeslot.SameDay(d, day) {
			return true
		}
	}
	return false
}

func (s *ScheduleService) find(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ScheduleEntry, error) {
	entry, err := s.repo.FindByID(ctx, exec, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule entry")
	}
	return entry, nil
}

func (s *ScheduleService) queueReconcile(day string) {
	if !s.cfg.ReconcileOnDelete || s.reconciler == nil {
		return
	}
	s.reconciler.Enqueue(day)
}

// orderedDays canonicalises, de-duplicates and sorts days Monday first. Unknown days are dropped.
func orderedDays(days []string) []string {
	seen := make(map[string]struct{}, len(days))
	out := make([]string, 0, len(days))
	for _, raw := range days {
		day, err := timeslot.NormalizeDay(raw)
		if err != nil {
			continue
		}
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		out = append(out, day)
	}
	sort.Slice(out, func(i, j int) bool { return timeslot.DayIndex(out[i]) < timeslot.DayIndex(out[j]) })
	return out
}

// released reports whether an update gave up the room or time the entry previously held.
func released(before, after models.ScheduleEntry) bool {
	return after.Status != models.StatusScheduled ||
		before.Day != after.Day ||
		before.TimeSlot != after.TimeSlot ||
		before.RoomID != after.RoomID ||
		before.FacultyID != after.FacultyID
}

func conflictError(result *scheduling.Result) error {
	detail := &models.ScheduleConflictError{Type: models.ConflictRoom, Message: result.Reason, Errors: result.Conflicts}
	if len(result.Conflicts) > 0 {
		detail.Type = result.Conflicts[0].Dimension
	}
	return appErrors.WithDetails(
		appErrors.Wrap(detail, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, result.Reason),
		detail,
	)
}
