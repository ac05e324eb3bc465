package models

import (
	"time"

	"github.com/lib/pq"
)

// ScheduleStatus is the classification assigned to a schedule entry.
type ScheduleStatus string

const (
	StatusPending   ScheduleStatus = "Pending"
	StatusScheduled ScheduleStatus = "Scheduled"
	StatusConflict  ScheduleStatus = "Conflict"
	StatusNoRoom    ScheduleStatus = "No Room"
)

// Valid reports whether s is a known status.
func (s ScheduleStatus) Valid() bool {
	switch s {
	case StatusPending, StatusScheduled, StatusConflict, StatusNoRoom:
		return true
	}
	return false
}

// Conflict dimensions reported as evidence.
const (
	ConflictRoom    = "ROOM"
	ConflictFaculty = "FACULTY"
)

// BookingRequest proposes a course for a room, faculty member and time slot.
type BookingRequest struct {
	ID                string   `json:"id,omitempty"`
	Day               string   `json:"day"`
	Slot              string   `json:"slot"`
	RoomID            string   `json:"room_id"`
	FacultyID         string   `json:"faculty_id"`
	CourseCode        string   `json:"course_code"`
	Programme         string   `json:"programme"`
	Semester          string   `json:"semester"`
	ExpectedSize      int      `json:"expected_size"`
	RequiredType      RoomType `json:"required_type,omitempty"`
	RequiredEquipment []string `json:"required_equipment,omitempty"`
}

// ScheduleEntry is a booking request together with its evaluated status.
type ScheduleEntry struct {
	ID                string         `db:"id" json:"id"`
	Day               string         `db:"day" json:"day"`
	TimeSlot          string         `db:"time_slot" json:"time_slot"`
	StartMinutes      int            `db:"start_minutes" json:"start_minutes"`
	EndMinutes        int            `db:"end_minutes" json:"end_minutes"`
	RoomID            string         `db:"room_id" json:"room_id"`
	FacultyID         string         `db:"faculty_id" json:"faculty_id"`
	CourseCode        string         `db:"course_code" json:"course_code"`
	Programme         string         `db:"programme" json:"programme"`
	Semester          string         `db:"semester" json:"semester"`
	ExpectedSize      int            `db:"expected_size" json:"expected_size"`
	RequiredType      RoomType       `db:"required_type" json:"required_type,omitempty"`
	RequiredEquipment pq.StringArray `db:"required_equipment" json:"required_equipment,omitempty"`
	Status            ScheduleStatus `db:"status" json:"status"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// Request returns the booking request that produced the entry.
func (e ScheduleEntry) Request() BookingRequest {
	return BookingRequest{
		ID:                e.ID,
		Day:               e.Day,
		Slot:              e.TimeSlot,
		RoomID:            e.RoomID,
		FacultyID:         e.FacultyID,
		CourseCode:        e.CourseCode,
		Programme:         e.Programme,
		Semester:          e.Semester,
		ExpectedSize:      e.ExpectedSize,
		RequiredType:      e.RequiredType,
		RequiredEquipment: append([]string(nil), e.RequiredEquipment...),
	}
}

// NewPendingEntry builds an unevaluated entry from a request.
func NewPendingEntry(req BookingRequest) ScheduleEntry {
	return ScheduleEntry{
		ID:                req.ID,
		Day:               req.Day,
		TimeSlot:          req.Slot,
		RoomID:            req.RoomID,
		FacultyID:         req.FacultyID,
		CourseCode:        req.CourseCode,
		Programme:         req.Programme,
		Semester:          req.Semester,
		ExpectedSize:      req.ExpectedSize,
		RequiredType:      req.RequiredType,
		RequiredEquipment: pq.StringArray(append([]string(nil), req.RequiredEquipment...)),
		Status:            StatusPending,
	}
}

// ScheduleFilter describes query params for listing schedule entries.
type ScheduleFilter struct {
	Day       string
	RoomID    string
	FacultyID string
	Status    ScheduleStatus
	Programme string
	Semester  string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ScheduleConflict describes an existing entry that blocks a candidate.
type ScheduleConflict struct {
	EntryID    string `json:"entry_id"`
	Day        string `json:"day"`
	TimeSlot   string `json:"time_slot"`
	RoomID     string `json:"room_id"`
	FacultyID  string `json:"faculty_id"`
	CourseCode string `json:"course_code"`
	Dimension  string `json:"dimension"`
}

// ConflictFromEntry converts an entry into conflict evidence for the given dimension.
func ConflictFromEntry(entry ScheduleEntry, dimension string) ScheduleConflict {
	return ScheduleConflict{
		EntryID:    entry.ID,
		Day:        entry.Day,
		TimeSlot:   entry.TimeSlot,
		RoomID:     entry.RoomID,
		FacultyID:  entry.FacultyID,
		CourseCode: entry.CourseCode,
		Dimension:  dimension,
	}
}

// ScheduleConflictError is returned when a strict booking collides with existing ones.
type ScheduleConflictError struct {
	Type    string             `json:"type"`
	Message string             `json:"message"`
	Errors  []ScheduleConflict `json:"errors,omitempty"`
}

// Error implements the error interface for conflict errors.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
