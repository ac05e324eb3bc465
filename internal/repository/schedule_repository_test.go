package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smart-classroom-api/internal/models"
)

func scheduleRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "day", "time_slot", "start_minutes", "end_minutes", "room_id", "faculty_id",
		"course_code", "programme", "semester", "expected_size", "required_type",
		"required_equipment", "status", "created_at", "updated_at",
	})
}

func TestScheduleRepositoryListBuildsFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	now := time.Now()
	rows := scheduleRows().AddRow("e1", "Monday", "9:00-10:00", 540, 600, "FF8", "F1", "CS101", "BSc CS", "1", 40, "", "{}", "Scheduled", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM schedule_entries WHERE (day = $1 AND status = $2) ORDER BY room_id DESC,")).
		WithArgs("Monday", models.StatusScheduled).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schedule_entries WHERE (day = $1 AND status = $2)")).
		WithArgs("Monday", models.StatusScheduled).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	entries, total, err := repo.List(context.Background(), models.ScheduleFilter{
		Day: "Monday", Status: models.StatusScheduled, SortBy: "room_id", SortOrder: "desc",
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, 540, entries[0].StartMinutes)
	assert.Equal(t, models.StatusScheduled, entries[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryListWithoutFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(`FROM schedule_entries ORDER BY array_position\(.*\) ASC, start_minutes ASC, room_id ASC LIMIT 20 OFFSET 0`).
		WillReturnRows(scheduleRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schedule_entries")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	entries, total, err := repo.List(context.Background(), models.ScheduleFilter{SortBy: "unknown"})
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryTransactionalWrite(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("schedule:Monday").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM schedule_entries WHERE day = $1 ORDER BY created_at ASC, id ASC")).
		WithArgs("Monday").
		WillReturnRows(scheduleRows())
	mock.ExpectExec("INSERT INTO schedule_entries").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, repo.LockDay(ctx, tx, "Monday"))
	snapshot, err := repo.ListByDay(ctx, tx, "Monday")
	require.NoError(t, err)
	assert.Empty(t, snapshot)

	entry := &models.ScheduleEntry{Day: "Monday", TimeSlot: "9:00-10:00", StartMinutes: 540, EndMinutes: 600, RoomID: "FF8", FacultyID: "F1", CourseCode: "CS101", ExpectedSize: 40, Status: models.StatusScheduled}
	require.NoError(t, repo.Create(ctx, tx, entry))
	require.NoError(t, tx.Commit())

	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryUpdatePlacementAndDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedule_entries SET status = $1, room_id = $2, updated_at = $3 WHERE id = $4")).
		WithArgs(models.StatusConflict, "GF3", sqlmock.AnyArg(), "e1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdatePlacement(ctx, nil, "e1", models.StatusConflict, "GF3"))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedule_entries WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(ctx, nil, "missing"), sql.ErrNoRows)

	mock.ExpectExec("UPDATE schedule_entries SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Update(ctx, nil, &models.ScheduleEntry{ID: "e1", Day: "Monday", Status: models.StatusScheduled}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM schedule_entries WHERE id = $1")).
		WithArgs("e9").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), nil, "e9")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
