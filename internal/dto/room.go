package dto

import "github.com/noah-isme/smart-classroom-api/internal/models"

// CreateRoomRequest registers a bookable room.
type CreateRoomRequest struct {
	ID        string          `json:"id" validate:"required,max=32"`
	Capacity  int             `json:"capacity" validate:"required,min=1"`
	Type      models.RoomType `json:"type" validate:"required,oneof=Classroom Lab"`
	Equipment []string        `json:"equipment" validate:"omitempty,dive,required,max=64"`
}

// UpdateRoomRequest replaces the mutable attributes of a room.
type UpdateRoomRequest struct {
	Capacity  int             `json:"capacity" validate:"required,min=1"`
	Type      models.RoomType `json:"type" validate:"required,oneof=Classroom Lab"`
	Equipment []string        `json:"equipment" validate:"omitempty,dive,required,max=64"`
}

// CreateFacultyRequest registers a faculty member.
type CreateFacultyRequest struct {
	ID         string `json:"id" validate:"required,max=32"`
	Name       string `json:"name" validate:"required,max=128"`
	Department string `json:"department" validate:"omitempty,max=128"`
}

// UpdateFacultyRequest replaces the mutable attributes of a faculty member.
type UpdateFacultyRequest struct {
	Name       string `json:"name" validate:"required,max=128"`
	Department string `json:"department" validate:"omitempty,max=128"`
}
