package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	gocache "github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smart-classroom-api/internal/dto"
	"github.com/noah-isme/smart-classroom-api/internal/models"
	"github.com/noah-isme/smart-classroom-api/internal/repository"
	appErrors "github.com/noah-isme/smart-classroom-api/pkg/errors"
)

type mockRoomRepo struct {
	rooms     map[string]models.Room
	listCalls int
	createErr error
	deleteErr error
}

func newMockRoomRepo(rooms ...models.Room) *mockRoomRepo {
	repo := &mockRoomRepo{rooms: map[string]models.Room{}}
	for _, room := range rooms {
		repo.rooms[room.ID] = room
	}
	return repo
}

func (m *mockRoomRepo) List(ctx context.Context, filter models.RoomFilter) ([]models.Room, int, error) {
	all, _ := m.ListAll(ctx)
	return all, len(all), nil
}

func (m *mockRoomRepo) ListAll(ctx context.Context) ([]models.Room, error) {
	m.listCalls++
	out := make([]models.Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		out = append(out, room)
	}
	return out, nil
}

func (m *mockRoomRepo) FindByID(ctx context.Context, id string) (*models.Room, error) {
	room, ok := m.rooms[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &room, nil
}

func (m *mockRoomRepo) Create(ctx context.Context, room *models.Room) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.rooms[room.ID] = *room
	return nil
}

func (m *mockRoomRepo) Update(ctx context.Context, room *models.Room) error {
	if _, ok := m.rooms[room.ID]; !ok {
		return fmt.Errorf("update room: %w", sql.ErrNoRows)
	}
	m.rooms[room.ID] = *room
	return nil
}

func (m *mockRoomRepo) Delete(ctx context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.rooms[id]; !ok {
		return fmt.Errorf("delete room: %w", sql.ErrNoRows)
	}
	delete(m.rooms, id)
	return nil
}

func newTestCache() *CacheService {
	return NewCacheService(repository.NewMemoryCacheRepository(gocache.New(time.Minute, time.Minute)), nil, time.Minute, nil, true)
}

func TestRoomServiceCreateCleansEquipmentAndInvalidatesCache(t *testing.T) {
	repo := newMockRoomRepo(models.Room{ID: "FF8", Capacity: 100, Type: models.RoomTypeClassroom})
	svc := NewRoomService(repo, newTestCache(), nil, nil)

	all, err := svc.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
	_, err = svc.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls)

	room, err := svc.Create(context.Background(), dto.CreateRoomRequest{
		ID: " CF9 ", Capacity: 20, Type: models.RoomTypeLab, Equipment: []string{"Computers", " computers", "Projector"},
	})
	require.NoError(t, err)
	assert.Equal(t, "CF9", room.ID)
	assert.Equal(t, pq.StringArray{"Computers", "Projector"}, room.Equipment)

	all, err = svc.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, 2, repo.listCalls)
}

func TestRoomServiceErrors(t *testing.T) {
	repo := newMockRoomRepo(models.Room{ID: "FF8", Capacity: 100, Type: models.RoomTypeClassroom})
	svc := NewRoomService(repo, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, dto.CreateRoomRequest{ID: "X", Capacity: 0, Type: models.RoomTypeLab})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	repo.createErr = &pq.Error{Code: "23505"}
	_, err = svc.Create(ctx, dto.CreateRoomRequest{ID: "FF8", Capacity: 10, Type: models.RoomTypeClassroom})
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	_, err = svc.Get(ctx, "ZZ1")
	assert.Equal(t, appErrors.ErrUnknownRoom.Code, appErrors.FromError(err).Code)

	_, err = svc.Update(ctx, "ZZ1", dto.UpdateRoomRequest{Capacity: 10, Type: models.RoomTypeClassroom})
	assert.Equal(t, appErrors.ErrUnknownRoom.Code, appErrors.FromError(err).Code)

	repo.deleteErr = fmt.Errorf("delete room: %w", &pq.Error{Code: "23503"})
	err = svc.Delete(ctx, "FF8")
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	_, _, err = svc.List(ctx, models.RoomFilter{Type: "Hall"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRoomServiceUpdateAndDelete(t *testing.T) {
	repo := newMockRoomRepo(models.Room{ID: "GF3", Capacity: 30, Type: models.RoomTypeClassroom})
	svc := NewRoomService(repo, nil, nil, nil)
	ctx := context.Background()

	room, err := svc.Update(ctx, "GF3", dto.UpdateRoomRequest{Capacity: 45, Type: models.RoomTypeClassroom, Equipment: []string{"Whiteboard"}})
	require.NoError(t, err)
	assert.Equal(t, 45, room.Capacity)
	assert.Equal(t, 45, repo.rooms["GF3"].Capacity)

	require.NoError(t, svc.Delete(ctx, "GF3"))
	err = svc.Delete(ctx, "GF3")
	assert.Equal(t, appErrors.ErrUnknownRoom.Code, appErrors.FromError(err).Code)
}
