package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smart-classroom-api/internal/models"
	appErrors "github.com/noah-isme/smart-classroom-api/pkg/errors"
)

func testRooms() []models.Room {
	return []models.Room{
		{ID: "FF8", Capacity: 100, Type: models.RoomTypeClassroom, Equipment: []string{"Whiteboard", "Projector/Screen"}},
		{ID: "GF3", Capacity: 30, Type: models.RoomTypeClassroom, Equipment: []string{"Whiteboard", "Projector/Screen"}},
		{ID: "GF4", Capacity: 30, Type: models.RoomTypeClassroom, Equipment: []string{"Whiteboard"}},
		{ID: "CF9", Capacity: 20, Type: models.RoomTypeLab, Equipment: []string{"Whiteboard", "Projector/Screen", "Computers"}},
		{ID: "FF5", Capacity: 4, Type: models.RoomTypeClassroom},
	}
}

func scheduled(id, day, slot, room, faculty string) models.ScheduleEntry {
	return models.ScheduleEntry{ID: id, Day: day, TimeSlot: slot, RoomID: room, FacultyID: faculty, CourseCode: "C-" + id, ExpectedSize: 10, Status: models.StatusScheduled}
}

func request(day, slot, room, faculty string, size int) models.BookingRequest {
	return models.BookingRequest{Day: day, Slot: slot, RoomID: room, FacultyID: faculty, CourseCode: "CS101", ExpectedSize: size}
}

func TestEvaluateRoomConflictEvenWhenFacultyDiffers(t *testing.T) {
	engine := NewEngine(DefaultPolicy())
	existing := []models.ScheduleEntry{scheduled("e1", "Monday", "9:00-10:00", "FF8", "F1")}

	res, err := engine.Evaluate(request("Monday", "9:30-10:30", "FF8", "F2", 40), existing, testRooms())
	require.NoError(t, err)
	assert.Equal(t, models.StatusConflict, res.Entry.Status)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, "e1", res.Conflicts[0].EntryID)
	assert.Equal(t, models.ConflictRoom, res.Conflicts[0].Dimension)
}

func TestEvaluateExactMatchIsConflict(t *testing.T) {
	engine := NewEngine(DefaultPolicy())
	existing := []models.ScheduleEntry{scheduled("e1", "Tuesday", "9:30-11:30", "GF3", "F1")}

	res, err := engine.Evaluate(request("tuesday", "9:30-11:30", "GF3", "F9", 10), existing, testRooms())
	require.NoError(t, err)
	assert.Equal(t, models.StatusConflict, res.Entry.Status)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, "e1", res.Conflicts[0].EntryID)
}

func TestEvaluateReturnsAllRoomConflicts(t *testing.T) {
	engine := NewEngine(DefaultPolicy())
	existing := []models.ScheduleEntry{
		scheduled("e1", "Monday", "9:00-10:00", "FF8", "F1"),
		scheduled("e2", "Monday", "10:00-11:00", "FF8", "F3"),
		scheduled("e3", "Monday", "11:00-12:00", "FF8", "F4"),
		// faculty clash is not reported when a room clash exists
		scheduled("e4", "Monday", "9:00-10:00", "GF3", "F2"),
	}

	res, err := engine.Evaluate(request("Monday", "9:30-10:30", "FF8", "F2", 40), existing, testRooms())
	require.NoError(t, err)
	assert.Equal(t, models.StatusConflict, res.Entry.Status)
	ids := []string{}
	for _, c := range res.Conflicts {
		ids = append(ids, c.EntryID)
		assert.Equal(t, models.ConflictRoom, c.Dimension)
	}
	assert.ElementsMatch(t, []string{"e1", "e2"}, ids)
}

func TestEvaluateFacultyConflict(t *testing.T) {
	engine := NewEngine(DefaultPolicy())
	existing := []models.ScheduleEntry{
		scheduled("e1", "Monday", "9:00-10:00", "GF3", "F1"),
		scheduled("e2", "Monday", "9:45-10:15", "GF4", "F1"),
	}

	res, err := engine.Evaluate(request("Monday", "9:30-10:30", "FF8", "F1", 40), existing, testRooms())
	require.NoError(t, err)
	assert.Equal(t, models.StatusConflict, res.Entry.Status)
	require.Len(t, res.Conflicts, 2)
	for _, c := range res.Conflicts {
		assert.Equal(t, models.ConflictFaculty, c.Dimension)
	}
}

func TestEvaluateIgnoresNonScheduledOtherDaysTouchingAndSelf(t *testing.T) {
	engine := NewEngine(DefaultPolicy())
	pending := scheduled("p1", "Monday", "9:00-10:00", "FF8", "F1")
	pending.Status = models.StatusPending
	conflict := scheduled("c1", "Monday", "9:00-10:00", "FF8", "F1")
	conflict.Status = models.StatusConflict
	existing := []models.ScheduleEntry{
		pending,
		conflict,
		scheduled("e1", "Tuesday", "9:00-10:00", "FF8", "F1"),
		scheduled("e2", "Monday", "8:00-9:00", "FF8", "F1"),
		scheduled("e3", "Monday", "10:00-11:00", "FF8", "F1"),
		scheduled("self", "Monday", "9:00-10:00", "FF8", "F1"),
	}

	req := request("Monday", "9:00-10:00", "FF8", "F1", 40)
	req.ID = "self"
	res, err := engine.Evaluate(req, existing, testRooms())
	require.NoError(t, err)
	assert.Equal(t, models.StatusScheduled, res.Entry.Status)
	assert.Empty(t, res.Conflicts)
	assert.Equal(t, "Monday", res.Entry.Day)
	assert.Equal(t, 540, res.Entry.StartMinutes)
	assert.Equal(t, 600, res.Entry.EndMinutes)
}

func TestEvaluateFreeSlotScheduled(t *testing.T) {
	engine := NewEngine(DefaultPolicy())
	res, err := engine.Evaluate(request("Wednesday", "13:00-14:30", "GF3", "F1", 30), nil, testRooms())
	require.NoError(t, err)
	assert.Equal(t, models.StatusScheduled, res.Entry.Status)
	assert.Equal(t, "GF3", res.Entry.RoomID)
	assert.Equal(t, "13:00-14:30", res.Entry.TimeSlot)
}

func TestEvaluateCapacityBeyondLargestRoomIsNoRoom(t *testing.T) {
	engine := NewEngine(DefaultPolicy())
	res, err := engine.Evaluate(request("Monday", "9:00-10:00", "FF8", "F1", 200), nil, testRooms())
	require.NoError(t, err)
	assert.Equal(t, models.StatusNoRoom, res.Entry.Status)
	assert.Empty(t, res.Alternatives)
}

func TestEvaluateNoRoomSuggestsAlternatives(t *testing.T) {
	engine := NewEngine(DefaultPolicy())
	existing := []models.ScheduleEntry{scheduled("e1", "Monday", "9:00-10:00", "GF3", "F7")}

	res, err := engine.Evaluate(request("Monday", "9:00-10:00", "FF5", "F1", 25), existing, testRooms())
	require.NoError(t, err)
	assert.Equal(t, models.StatusNoRoom, res.Entry.Status)
	require.Len(t, res.Alternatives, 2)
	assert.Equal(t, "GF4", res.Alternatives[0].ID)
	assert.Equal(t, "FF8", res.Alternatives[1].ID)
}

func TestEvaluateReassignPolicy(t *testing.T) {
	engine := NewEngine(Policy{RequireTypeMatch: true, ReassignRoom: true})
	res, err := engine.Evaluate(request("Monday", "9:00-10:00", "FF5", "F1", 25), nil, testRooms())
	require.NoError(t, err)
	assert.Equal(t, models.StatusScheduled, res.Entry.Status)
	assert.Equal(t, "GF3", res.Entry.RoomID)
}

func TestEvaluateTypeAndEquipmentRequirements(t *testing.T) {
	strict := NewEngine(DefaultPolicy())
	req := request("Monday", "9:00-10:00", "GF3", "F1", 15)
	req.RequiredType = models.RoomTypeLab
	res, err := strict.Evaluate(req, nil, testRooms())
	require.NoError(t, err)
	assert.Equal(t, models.StatusNoRoom, res.Entry.Status)
	require.Len(t, res.Alternatives, 1)
	assert.Equal(t, "CF9", res.Alternatives[0].ID)

	lenient := NewEngine(Policy{})
	res, err = lenient.Evaluate(req, nil, testRooms())
	require.NoError(t, err)
	assert.Equal(t, models.StatusScheduled, res.Entry.Status)

	req = request("Monday", "9:00-10:00", "GF4", "F1", 15)
	req.RequiredEquipment = []string{"projector/screen"}
	res, err = strict.Evaluate(req, nil, testRooms())
	require.NoError(t, err)
	assert.Equal(t, models.StatusNoRoom, res.Entry.Status)
}

func TestEvaluateErrors(t *testing.T) {
	engine := NewEngine(DefaultPolicy())

	_, err := engine.Evaluate(request("Monday", "9:00", "FF8", "F1", 10), nil, testRooms())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidTimeFormat))

	_, err = engine.Evaluate(request("Monday", "9:00-10:00", "XX1", "F1", 10), nil, testRooms())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnknownRoom))

	_, err = engine.Evaluate(request("Monday", "9:00-10:00", "FF8", "F1", 0), nil, testRooms())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidCapacityRequirement))

	_, err = engine.Evaluate(request("Someday", "9:00-10:00", "FF8", "F1", 10), nil, testRooms())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	broken := scheduled("bad", "Monday", "nine-ten", "FF8", "F1")
	_, err = engine.Evaluate(request("Monday", "9:00-10:00", "FF8", "F1", 10), []models.ScheduleEntry{broken}, testRooms())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidTimeFormat))
}

func TestEvaluateConflictWinsOverCapacityValidation(t *testing.T) {
	engine := NewEngine(DefaultPolicy())
	existing := []models.ScheduleEntry{scheduled("e1", "Monday", "9:00-10:00", "FF8", "F1")}

	res, err := engine.Evaluate(request("Monday", "9:00-10:00", "FF8", "F2", 0), existing, testRooms())
	require.NoError(t, err)
	assert.Equal(t, models.StatusConflict, res.Entry.Status)
}
