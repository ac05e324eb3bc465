package dto

import (
	"github.com/noah-isme/smart-classroom-api/internal/models"
	"github.com/noah-isme/smart-classroom-api/internal/scheduling"
	appErrors "github.com/noah-isme/smart-classroom-api/pkg/errors"
)

// ScheduleRequest proposes a course booking. Slot format and day names are checked by the
// engine so clients receive INVALID_TIME_FORMAT rather than a generic validation error.
type ScheduleRequest struct {
	Day               string          `json:"day" validate:"required"`
	Slot              string          `json:"slot" validate:"required"`
	RoomID            string          `json:"room_id" validate:"required"`
	FacultyID         string          `json:"faculty_id" validate:"required"`
	CourseCode        string          `json:"course_code" validate:"required,max=32"`
	Programme         string          `json:"programme" validate:"omitempty,max=128"`
	Semester          string          `json:"semester" validate:"omitempty,max=32"`
	ExpectedSize      int             `json:"expected_size"`
	RequiredType      models.RoomType `json:"required_type" validate:"omitempty,oneof=Classroom Lab"`
	RequiredEquipment []string        `json:"required_equipment" validate:"omitempty,dive,required"`
}

// Booking converts the payload into an engine request.
func (r ScheduleRequest) Booking() models.BookingRequest {
	return models.BookingRequest{
		Day:               r.Day,
		Slot:              r.Slot,
		RoomID:            r.RoomID,
		FacultyID:         r.FacultyID,
		CourseCode:        r.CourseCode,
		Programme:         r.Programme,
		Semester:          r.Semester,
		ExpectedSize:      r.ExpectedSize,
		RequiredType:      r.RequiredType,
		RequiredEquipment: r.RequiredEquipment,
	}
}

// EvaluationResponse reports the engine decision for one request and whether it was stored.
type EvaluationResponse struct {
	Entry        models.ScheduleEntry      `json:"entry"`
	Conflicts    []models.ScheduleConflict `json:"conflicts,omitempty"`
	Alternatives []models.Room             `json:"alternatives,omitempty"`
	Reason       string                    `json:"reason"`
	Committed    bool                      `json:"committed"`
}

// NewEvaluationResponse copies an engine result into a response.
func NewEvaluationResponse(result *scheduling.Result, committed bool) *EvaluationResponse {
	return &EvaluationResponse{
		Entry:        result.Entry,
		Conflicts:    result.Conflicts,
		Alternatives: result.Alternatives,
		Reason:       result.Reason,
		Committed:    committed,
	}
}

// BulkScheduleRequest evaluates and stores several bookings in order, each one seeing the
// entries stored before it.
type BulkScheduleRequest struct {
	Items          []ScheduleRequest `json:"items" validate:"required,min=1,max=500,dive"`
	PartialOnError bool              `json:"partial_on_error"`
}

// BulkItemError pairs a failed bulk item with its position in the request.
type BulkItemError struct {
	Index int              `json:"index"`
	Error *appErrors.Error `json:"error"`
}

// BulkScheduleResult lists stored entries and failed items.
type BulkScheduleResult struct {
	Results []EvaluationResponse `json:"results"`
	Failed  []BulkItemError      `json:"failed,omitempty"`
}

// ReconcileRequest triggers a reconcile pass. An empty day covers the whole week.
type ReconcileRequest struct {
	Day    string `json:"day"`
	DryRun bool   `json:"dry_run"`
}

// ReconcileResponse summarises a reconcile pass.
type ReconcileResponse struct {
	Day     string                    `json:"day,omitempty"`
	Applied bool                      `json:"applied"`
	Summary models.ScheduleSummary    `json:"summary"`
	Changes []scheduling.StatusChange `json:"changes"`
	Logs    []string                  `json:"logs"`
}

// AvailableRoomsQuery drives the classroom finder.
type AvailableRoomsQuery struct {
	Day       string          `form:"day" validate:"required"`
	Slot      string          `form:"slot" validate:"required"`
	Capacity  int             `form:"capacity"`
	Type      models.RoomType `form:"type" validate:"omitempty,oneof=Classroom Lab"`
	Equipment []string        `form:"equipment"`
}

// FacultyAvailabilityQuery drives the faculty checker.
type FacultyAvailabilityQuery struct {
	Day  string `form:"day" validate:"required"`
	Slot string `form:"slot" validate:"required"`
}

// Faculty availability outcomes.
const (
	FacultyFree = "Free"
	FacultyBusy = "Busy"
)

// FacultyAvailabilityResponse answers the faculty checker.
type FacultyAvailabilityResponse struct {
	FacultyID string                `json:"faculty_id"`
	Day       string                `json:"day"`
	Slot      string                `json:"slot"`
	Status    string                `json:"status"`
	Reason    string                `json:"reason"`
	Blocking  *models.ScheduleEntry `json:"blocking,omitempty"`
}

// ExportRequest selects the timetable rows to export.
type ExportRequest struct {
	Format    models.ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
	Day       string              `json:"day"`
	Programme string              `json:"programme"`
	Semester  string              `json:"semester"`
}
