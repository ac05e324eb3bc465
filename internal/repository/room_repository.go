package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/smart-classroom-api/internal/models"
)

const roomColumns = "id, capacity, type, equipment, created_at, updated_at"

// RoomRepository persists room reference data.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository constructs a RoomRepository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// List returns a page of rooms ordered by id.
func (r *RoomRepository) List(ctx context.Context, filter models.RoomFilter) ([]models.Room, int, error) {
	base := "FROM rooms WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.MinCapacity > 0 {
		conditions = append(conditions, fmt.Sprintf("capacity >= $%d", len(args)+1))
		args = append(args, filter.MinCapacity)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page, size := normalizePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s %s ORDER BY id ASC LIMIT %d OFFSET %d", roomColumns, base, size, (page-1)*size)

	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list rooms: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count rooms: %w", err)
	}
	return rooms, total, nil
}

// ListAll loads every room; the engine needs the full inventory.
func (r *RoomRepository) ListAll(ctx context.Context) ([]models.Room, error) {
	query := "SELECT " + roomColumns + " FROM rooms ORDER BY id ASC"
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list all rooms: %w", err)
	}
	return rooms, nil
}

// FindByID returns sql.ErrNoRows when the room does not exist.
func (r *RoomRepository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	query := "SELECT " + roomColumns + " FROM rooms WHERE id = $1"
	var room models.Room
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		return nil, err
	}
	return &room, nil
}

// Create inserts a room. Room ids are natural keys chosen by the caller.
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	now := time.Now().UTC()
	room.CreatedAt = now
	room.UpdatedAt = now
	if room.Equipment == nil {
		room.Equipment = []string{}
	}
	const query = `INSERT INTO rooms (id, capacity, type, equipment, created_at, updated_at) VALUES (:id, :capacity, :type, :equipment, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, room); err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

// Update overwrites capacity, type and equipment.
func (r *RoomRepository) Update(ctx context.Context, room *models.Room) error {
	room.UpdatedAt = time.Now().UTC()
	if room.Equipment == nil {
		room.Equipment = []string{}
	}
	const query = `UPDATE rooms SET capacity = :capacity, type = :type, equipment = :equipment, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, room)
	if err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	return expectAffected(res, "update room")
}

// Delete removes a room. Rooms still referenced by schedule entries fail with a foreign key violation.
func (r *RoomRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	return expectAffected(res, "delete room")
}
