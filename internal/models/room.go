package models

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

// RoomType distinguishes lecture rooms from equipped labs.
type RoomType string

const (
	RoomTypeClassroom RoomType = "Classroom"
	RoomTypeLab       RoomType = "Lab"
)

// Valid reports whether the type is one of the known room kinds.
func (t RoomType) Valid() bool {
	return t == RoomTypeClassroom || t == RoomTypeLab
}

// Room is immutable reference data describing a bookable space.
type Room struct {
	ID        string         `db:"id" json:"id"`
	Capacity  int            `db:"capacity" json:"capacity"`
	Type      RoomType       `db:"type" json:"type"`
	Equipment pq.StringArray `db:"equipment" json:"equipment"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// HasEquipment reports whether the room carries every requested item (case-insensitive).
func (r Room) HasEquipment(items []string) bool {
	for _, want := range items {
		want = strings.TrimSpace(want)
		if want == "" {
			continue
		}
		found := false
		for _, have := range r.Equipment {
			if strings.EqualFold(strings.TrimSpace(have), want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// RoomFilter captures list filters for rooms.
type RoomFilter struct {
	Type        RoomType
	MinCapacity int
	Page        int
	PageSize    int
}
