package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/smart-classroom-api/internal/dto"
	"github.com/noah-isme/smart-classroom-api/internal/models"
	"github.com/noah-isme/smart-classroom-api/internal/repository"
	appErrors "github.com/noah-isme/smart-classroom-api/pkg/errors"
)

type roomRepository interface {
	List(ctx context.Context, filter models.RoomFilter) ([]models.Room, int, error)
	ListAll(ctx context.Context) ([]models.Room, error)
	FindByID(ctx context.Context, id string) (*models.Room, error)
	Create(ctx context.Context, room *models.Room) error
	Update(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, id string) error
}

// RoomService manages the room catalogue the engine books against.
type RoomService struct {
	repo      roomRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRoomService creates a room service.
func NewRoomService(repo roomRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *RoomService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns a page of rooms.
func (s *RoomService) List(ctx context.Context, filter models.RoomFilter) ([]models.Room, *models.Pagination, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "room type must be Classroom or Lab")
	}
	rooms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	return rooms, newPagination(filter.Page, filter.PageSize, total), nil
}

// All returns every room, served from cache when possible. It is the room set handed to the engine.
func (s *RoomService) All(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	if hit, err := s.cache.Get(ctx, cacheKeyRooms, &rooms); err == nil && hit {
		return rooms, nil
	}
	rooms, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	_ = s.cache.Set(ctx, cacheKeyRooms, rooms, 0)
	return rooms, nil
}

// Get returns a room by identifier.
func (s *RoomService) Get(ctx context.Context, id string) (*models.Room, error) {
	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnknownRoom, "room "+id+" not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	return room, nil
}

// Create registers a new room.
func (s *RoomService) Create(ctx context.Context, req dto.CreateRoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}
	room := &models.Room{
		ID:        strings.TrimSpace(req.ID),
		Capacity:  req.Capacity,
		Type:      req.Type,
		Equipment: cleanList(req.Equipment),
	}
	if err := s.repo.Create(ctx, room); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "room "+room.ID+" already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create room")
	}
	s.invalidate(ctx)
	s.logger.Info("room created", zap.String("room_id", room.ID), zap.Int("capacity", room.Capacity))
	return room, nil
}

// Update replaces the mutable attributes of a room. Existing entries are not re-evaluated;
// callers run a reconcile pass when capacity shrinks.
func (s *RoomService) Update(ctx context.Context, id string, req dto.UpdateRoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}
	room, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	room.Capacity = req.Capacity
	room.Type = req.Type
	room.Equipment = cleanList(req.Equipment)
	if err := s.repo.Update(ctx, room); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnknownRoom, "room "+id+" not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update room")
	}
	s.invalidate(ctx)
	return room, nil
}

// Delete removes a room that no schedule entry references.
func (s *RoomService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return appErrors.Clone(appErrors.ErrUnknownRoom, "room "+id+" not found")
		case repository.IsForeignKeyViolation(err):
			return appErrors.Clone(appErrors.ErrConflict, "room "+id+" is referenced by schedule entries")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete room")
	}
	s.invalidate(ctx)
	return nil
}

func (s *RoomService) invalidate(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, cachePatternRooms, cachePatternBoard)
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		key := strings.ToLower(item)
		if item == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}
