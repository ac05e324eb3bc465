package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smart-classroom-api/internal/models"
	appErrors "github.com/noah-isme/smart-classroom-api/pkg/errors"
	"github.com/noah-isme/smart-classroom-api/pkg/timeslot"
)

type txProviderMock struct {
	db   *sqlx.DB
	mock sqlmock.Sqlmock
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb, mock: mock}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

// scheduleStoreStub keeps entries in memory and records the locks taken.
type scheduleStoreStub struct {
	mu         sync.Mutex
	entries    []models.ScheduleEntry
	locks      []string
	placements []string
	seq        int
	createErr  error
	listErr    error
	// onLock runs after a lock is recorded, standing in for a writer that got there first.
	onLock func(day string)
}

func (s *scheduleStoreStub) LockDay(ctx context.Context, exec sqlx.ExtContext, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locks = append(s.locks, day)
	if s.onLock != nil {
		hook := s.onLock
		s.onLock = nil
		hook(day)
	}
	return nil
}

func (s *scheduleStoreStub) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleEntry, int, error) {
	var out []models.ScheduleEntry
	for _, entry := range s.entries {
		if filter.Day != "" && entry.Day != filter.Day {
			continue
		}
		if filter.Status != "" && entry.Status != filter.Status {
			continue
		}
		out = append(out, entry)
	}
	return out, len(out), nil
}

func (s *scheduleStoreStub) ListByDay(ctx context.Context, exec sqlx.ExtContext, day string) ([]models.ScheduleEntry, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.ScheduleEntry
	for _, entry := range s.entries {
		if day == "" || entry.Day == day {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *scheduleStoreStub) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.ScheduleEntry, error) {
	for _, entry := range s.entries {
		if entry.ID == id {
			found := entry
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *scheduleStoreStub) Create(ctx context.Context, exec sqlx.ExtContext, entry *models.ScheduleEntry) error {
	if s.createErr != nil {
		return s.createErr
	}
	if entry.ID == "" {
		s.seq++
		entry.ID = fmt.Sprintf("new-%d", s.seq)
	}
	entry.CreatedAt = time.Now()
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *scheduleStoreStub) Update(ctx context.Context, exec sqlx.ExtContext, entry *models.ScheduleEntry) error {
	for i := range s.entries {
		if s.entries[i].ID == entry.ID {
			s.entries[i] = *entry
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *scheduleStoreStub) UpdatePlacement(ctx context.Context, exec sqlx.ExtContext, id string, status models.ScheduleStatus, roomID string) error {
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries[i].Status = status
			s.entries[i].RoomID = roomID
			s.placements = append(s.placements, fmt.Sprintf("%s=%s@%s", id, status, roomID))
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *scheduleStoreStub) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *scheduleStoreStub) find(id string) *models.ScheduleEntry {
	for i := range s.entries {
		if s.entries[i].ID == id {
			return &s.entries[i]
		}
	}
	return nil
}

type roomCatalogStub struct {
	rooms []models.Room
	err   error
	calls int
}

func (r *roomCatalogStub) All(ctx context.Context) ([]models.Room, error) {
	r.calls++
	return r.rooms, r.err
}

type facultyStub struct {
	members []models.Faculty
}

func (f *facultyStub) Ensure(ctx context.Context, id string) error {
	for _, member := range f.members {
		if member.ID == id {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrUnknownFaculty, "faculty "+id+" not found")
}

func (f *facultyStub) All(ctx context.Context) ([]models.Faculty, error) {
	return f.members, nil
}

type reconcilerStub struct {
	days []string
}

func (r *reconcilerStub) Enqueue(day string) {
	r.days = append(r.days, day)
}

func fixtureRooms() []models.Room {
	return []models.Room{
		{ID: "FF8", Capacity: 100, Type: models.RoomTypeClassroom},
		{ID: "GF3", Capacity: 30, Type: models.RoomTypeClassroom},
		{ID: "CF9", Capacity: 20, Type: models.RoomTypeLab, Equipment: []string{"Computers"}},
	}
}

func fixtureFaculty() *facultyStub {
	return &facultyStub{members: []models.Faculty{
		{ID: "F1", Name: "Dr. Ada"},
		{ID: "F2", Name: "Dr. Grace"},
		{ID: "F3", Name: "Dr. Alan"},
	}}
}

func storedEntry(id, day, slot, room, faculty string, status models.ScheduleStatus) models.ScheduleEntry {
	rng := timeslot.MustParse(slot)
	return models.ScheduleEntry{
		ID:           id,
		Day:          day,
		TimeSlot:     rng.String(),
		StartMinutes: rng.Start,
		EndMinutes:   rng.End,
		RoomID:       room,
		FacultyID:    faculty,
		CourseCode:   "C-" + id,
		ExpectedSize: 10,
		Status:       status,
	}
}
