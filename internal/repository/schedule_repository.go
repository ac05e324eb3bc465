package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/smart-classroom-api/internal/models"
)

var scheduleColumns = []string{
	"id", "day", "time_slot", "start_minutes", "end_minutes", "room_id", "faculty_id",
	"course_code", "programme", "semester", "expected_size", "required_type",
	"required_equipment", "status", "created_at", "updated_at",
}

// weekOrder sorts canonical day names Monday first.
const weekOrder = "array_position(ARRAY['Monday','Tuesday','Wednesday','Thursday','Friday','Saturday','Sunday'], day)"

var scheduleSorts = map[string]string{
	"day":         weekOrder,
	"start":       "start_minutes",
	"room_id":     "room_id",
	"faculty_id":  "faculty_id",
	"course_code": "course_code",
	"status":      "status",
	"created_at":  "created_at",
}

// ScheduleRepository persists schedule entries. Methods taking an exec run on the given
// transaction, or on the pool when exec is nil.
type ScheduleRepository struct {
	db *sqlx.DB
	sb sq.StatementBuilderType
}

// NewScheduleRepository constructs a ScheduleRepository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db, sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}
}

func (r *ScheduleRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// LockDay takes a transaction-scoped advisory lock for one day. Writers for the same day queue
// behind each other until commit or rollback.
func (r *ScheduleRepository) LockDay(ctx context.Context, exec sqlx.ExtContext, day string) error {
	if _, err := r.exec(exec).ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "schedule:"+day); err != nil {
		return fmt.Errorf("lock schedule day %s: %w", day, err)
	}
	return nil
}

// List returns a filtered page of entries.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, int, error) {
	where := sq.And{}
	if filter.Day != "" {
		where = append(where, sq.Eq{"day": filter.Day})
	}
	if filter.RoomID != "" {
		where = append(where, sq.Eq{"room_id": filter.RoomID})
	}
	if filter.FacultyID != "" {
		where = append(where, sq.Eq{"faculty_id": filter.FacultyID})
	}
	if filter.Status != "" {
		where = append(where, sq.Eq{"status": filter.Status})
	}
	if filter.Programme != "" {
		where = append(where, sq.Eq{"programme": filter.Programme})
	}
	if filter.Semester != "" {
		where = append(where, sq.Eq{"semester": filter.Semester})
	}

	page, size := normalizePage(filter.Page, filter.PageSize)
	order := strings.ToUpper(filter.SortOrder)
	if order != "DESC" {
		order = "ASC"
	}
	orderBy := []string{weekOrder + " ASC", "start_minutes ASC", "room_id ASC"}
	if column, ok := scheduleSorts[filter.SortBy]; ok {
		orderBy = append([]string{column + " " + order}, orderBy...)
	}

	selectBuilder := r.sb.Select(scheduleColumns...).
		From("schedule_entries").
		OrderBy(orderBy...).
		Limit(uint64(size)).
		Offset(uint64((page - 1) * size))
	countBuilder := r.sb.Select("COUNT(*)").From("schedule_entries")
	if len(where) > 0 {
		selectBuilder = selectBuilder.Where(where)
		countBuilder = countBuilder.Where(where)
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list schedule query: %w", err)
	}
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedule entries: %w", err)
	}

	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count schedule query: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count schedule entries: %w", err)
	}
	return entries, total, nil
}

// ListByDay loads the snapshot for one day in insertion order. An empty day loads everything.
func (r *ScheduleRepository) ListByDay(ctx context.Context, exec sqlx.ExtContext, day string) ([]models.ScheduleEntry, error) {
	builder := r.sb.Select(scheduleColumns...).From("schedule_entries").OrderBy("created_at ASC", "id ASC")
	if day != "" {
		builder = builder.Where(sq.Eq{"day": day})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build day schedule query: %w", err)
	}
	var entries []models.ScheduleEntry
	if err := sqlx.SelectContext(ctx, r.exec(exec), &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list schedule entries for %q: %w", day, err)
	}
	return entries, nil
}

// FindByID returns sql.ErrNoRows when the entry does not exist.
func (r *ScheduleRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ScheduleEntry, error) {
	query, args, err := r.sb.Select(scheduleColumns...).From("schedule_entries").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find schedule query: %w", err)
	}
	var entry models.ScheduleEntry
	if err := sqlx.GetContext(ctx, r.exec(exec), &entry, query, args...); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Create inserts an evaluated entry, assigning an id when missing.
func (r *ScheduleRepository) Create(ctx context.Context, exec sqlx.ExtContext, entry *models.ScheduleEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	if entry.RequiredEquipment == nil {
		entry.RequiredEquipment = []string{}
	}

	query, args, err := r.sb.Insert("schedule_entries").
		Columns(scheduleColumns...).
		Values(
			entry.ID, entry.Day, entry.TimeSlot, entry.StartMinutes, entry.EndMinutes, entry.RoomID, entry.FacultyID,
			entry.CourseCode, entry.Programme, entry.Semester, entry.ExpectedSize, entry.RequiredType,
			entry.RequiredEquipment, entry.Status, entry.CreatedAt, entry.UpdatedAt,
		).ToSql()
	if err != nil {
		return fmt.Errorf("build insert schedule query: %w", err)
	}
	if _, err := r.exec(exec).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create schedule entry: %w", err)
	}
	return nil
}

// Update overwrites every mutable column of an entry.
func (r *ScheduleRepository) Update(ctx context.Context, exec sqlx.ExtContext, entry *models.ScheduleEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	if entry.RequiredEquipment == nil {
		entry.RequiredEquipment = []string{}
	}
	query, args, err := r.sb.Update("schedule_entries").
		SetMap(map[string]interface{}{
			"day":                entry.Day,
			"time_slot":          entry.TimeSlot,
			"start_minutes":      entry.StartMinutes,
			"end_minutes":        entry.EndMinutes,
			"room_id":            entry.RoomID,
			"faculty_id":         entry.FacultyID,
			"course_code":        entry.CourseCode,
			"programme":          entry.Programme,
			"semester":           entry.Semester,
			"expected_size":      entry.ExpectedSize,
			"required_type":      entry.RequiredType,
			"required_equipment": entry.RequiredEquipment,
			"status":             entry.Status,
			"updated_at":         entry.UpdatedAt,
		}).
		Where(sq.Eq{"id": entry.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update schedule query: %w", err)
	}
	res, err := r.exec(exec).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update schedule entry: %w", err)
	}
	return expectAffected(res, "update schedule entry")
}

// UpdatePlacement records a reconcile decision: new status and, possibly, a new room.
func (r *ScheduleRepository) UpdatePlacement(ctx context.Context, exec sqlx.ExtContext, id string, status models.ScheduleStatus, roomID string) error {
	query, args, err := r.sb.Update("schedule_entries").
		Set("status", status).
		Set("room_id", roomID).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build placement query: %w", err)
	}
	res, err := r.exec(exec).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update schedule placement: %w", err)
	}
	return expectAffected(res, "update schedule placement")
}

func (r *ScheduleRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	query, args, err := r.sb.Delete("schedule_entries").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete schedule query: %w", err)
	}
	res, err := r.exec(exec).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete schedule entry: %w", err)
	}
	return expectAffected(res, "delete schedule entry")
}
