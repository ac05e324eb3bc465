package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/smart-classroom-api/internal/dto"
	"github.com/noah-isme/smart-classroom-api/internal/models"
	"github.com/noah-isme/smart-classroom-api/internal/scheduling"
	appErrors "github.com/noah-isme/smart-classroom-api/pkg/errors"
	"github.com/noah-isme/smart-classroom-api/pkg/timeslot"
)

type snapshotReader interface {
	ListByDay(ctx context.Context, exec sqlx.ExtContext, day string) ([]models.ScheduleEntry, error)
}

// AvailabilityService answers classroom finder and faculty checker lookups against the stored
// timetable.
type AvailabilityService struct {
	entries   snapshotReader
	rooms     roomCatalog
	faculty   facultyDirectory
	engine    *scheduling.Engine
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAvailabilityService constructs an AvailabilityService.
func NewAvailabilityService(entries snapshotReader, rooms roomCatalog, faculty facultyDirectory, engine *scheduling.Engine, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if engine == nil {
		engine = scheduling.NewEngine(scheduling.DefaultPolicy())
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{entries: entries, rooms: rooms, faculty: faculty, engine: engine, validator: validate, logger: logger}
}

// FindRooms lists rooms free during the slot that satisfy the size, type and equipment filters.
// A missing capacity means any room with at least one seat.
func (s *AvailabilityService) FindRooms(ctx context.Context, q dto.AvailableRoomsQuery) ([]models.Room, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability query")
	}
	if q.Capacity == 0 {
		q.Capacity = 1
	}
	rooms, err := s.rooms.All(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := s.load(ctx, q.Day)
	if err != nil {
		return nil, err
	}
	free, err := s.engine.FindAvailableRooms(scheduling.RoomQuery{
		Day:         q.Day,
		Slot:        q.Slot,
		MinCapacity: q.Capacity,
		Type:        q.Type,
		Equipment:   q.Equipment,
	}, existing, rooms)
	if err != nil {
		return nil, err
	}
	if free == nil {
		free = []models.Room{}
	}
	return free, nil
}

// FacultyStatus reports whether a faculty member is free during the slot, naming the blocking
// class when not.
func (s *AvailabilityService) FacultyStatus(ctx context.Context, facultyID string, q dto.FacultyAvailabilityQuery) (*dto.FacultyAvailabilityResponse, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability query")
	}
	existing, err := s.load(ctx, q.Day)
	if err != nil {
		return nil, err
	}
	free, blocking, err := s.engine.IsFacultyFree(facultyID, q.Day, q.Slot, existing)
	if err != nil {
		return nil, err
	}
	if err := s.faculty.Ensure(ctx, facultyID); err != nil {
		return nil, err
	}

	day, _ := timeslot.NormalizeDay(q.Day)
	slot, _ := timeslot.Parse(q.Slot)
	resp := &dto.FacultyAvailabilityResponse{FacultyID: facultyID, Day: day, Slot: slot.String()}
	if free {
		resp.Status = dto.FacultyFree
		resp.Reason = fmt.Sprintf("%s has no class on %s during %s", facultyID, day, slot)
		return resp, nil
	}
	resp.Status = dto.FacultyBusy
	resp.Reason = fmt.Sprintf("%s teaches %s in %s on %s %s", facultyID, blocking.CourseCode, blocking.RoomID, blocking.Day, blocking.TimeSlot)
	resp.Blocking = blocking
	return resp, nil
}

func (s *AvailabilityService) load(ctx context.Context, day string) ([]models.ScheduleEntry, error) {
	canonical, err := timeslot.NormalizeDay(day)
	if err != nil {
		return nil, nil
	}
	entries, err := s.entries.ListByDay(ctx, nil, canonical)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule snapshot")
	}
	return entries, nil
}
