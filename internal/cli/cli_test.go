package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smart-classroom-api/internal/models"
	"github.com/noah-isme/smart-classroom-api/internal/scheduling"
	appErrors "github.com/noah-isme/smart-classroom-api/pkg/errors"
)

type fixture struct {
	dir      string
	rooms    string
	schedule string
}

func newFixture(t *testing.T, entries []models.ScheduleEntry) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{dir: dir, rooms: filepath.Join(dir, "rooms.json"), schedule: filepath.Join(dir, "schedule.json")}
	writeFile(t, f.rooms, []models.Room{
		{ID: "FF8", Capacity: 100, Type: models.RoomTypeClassroom},
		{ID: "GF3", Capacity: 30, Type: models.RoomTypeClassroom},
		{ID: "CF9", Capacity: 20, Type: models.RoomTypeLab, Equipment: []string{"Computers"}},
	})
	if entries != nil {
		writeFile(t, f.schedule, entries)
	}
	return f
}

func writeFile(t *testing.T, path string, v interface{}) {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o600))
}

func (f fixture) entries(t *testing.T) []models.ScheduleEntry {
	t.Helper()
	raw, err := os.ReadFile(f.schedule)
	require.NoError(t, err)
	var out []models.ScheduleEntry
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, f fixture, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(&App{Engine: scheduling.NewEngine(scheduling.DefaultPolicy())})
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(append([]string{"--rooms", f.rooms, "--schedule", f.schedule}, args...))
	err := root.Execute()
	return buf.String(), err
}

func booked(id, day, slot, room, faculty string, status models.ScheduleStatus) models.ScheduleEntry {
	return models.ScheduleEntry{ID: id, Day: day, TimeSlot: slot, RoomID: room, FacultyID: faculty, CourseCode: "C-" + id, ExpectedSize: 10, Status: status}
}

func TestEvaluateReportsRoomConflict(t *testing.T) {
	f := newFixture(t, []models.ScheduleEntry{booked("e1", "Monday", "9:00-10:00", "FF8", "F1", models.StatusScheduled)})

	out, err := executeCmd(t, f, "evaluate", "--day", "Monday", "--slot", "9:30-10:30", "--room", "FF8", "--faculty", "F2", "--size", "40")
	require.NoError(t, err)
	assert.Contains(t, out, "Conflict:")
	assert.Contains(t, out, "ROOM conflict with e1")
}

func TestEvaluateStrictFails(t *testing.T) {
	f := newFixture(t, []models.ScheduleEntry{booked("e1", "Monday", "9:00-10:00", "FF8", "F1", models.StatusScheduled)})

	_, err := executeCmd(t, f, "evaluate", "--day", "Mon", "--slot", "9:00-10:00", "--room", "FF8", "--faculty", "F2", "--strict")
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestEvaluateCommitAppendsEntry(t *testing.T) {
	f := newFixture(t, nil)

	out, err := executeCmd(t, f, "--json", "evaluate", "--day", "Tuesday", "--slot", "14:00-16:00", "--room", "CF9", "--faculty", "F2",
		"--course", "CS210", "--size", "18", "--type", "Lab", "--equipment", "computers", "--commit")
	require.NoError(t, err)

	var result scheduling.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, models.StatusScheduled, result.Entry.Status)

	stored := f.entries(t)
	require.Len(t, stored, 1)
	assert.NotEmpty(t, stored[0].ID)
	assert.Equal(t, "CS210", stored[0].CourseCode)
}

func TestEvaluateRejectsFacultyMissingFromRoster(t *testing.T) {
	f := newFixture(t, []models.ScheduleEntry{booked("e1", "Monday", "9:00-10:00", "FF8", "F1", models.StatusScheduled)})
	roster := filepath.Join(f.dir, "faculty.json")
	writeFile(t, roster, []models.Faculty{{ID: "F1", Name: "Dr. Ada", Department: "CS"}})

	_, err := executeCmd(t, f, "--roster", roster, "evaluate", "--day", "Tuesday", "--slot", "9:00-10:00", "--room", "GF3",
		"--faculty", "NOPE", "--size", "10", "--commit")
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrUnknownFaculty.Code, appErr.Code)
	require.Len(t, f.entries(t), 1)

	_, err = executeCmd(t, f, "--roster", roster, "faculty", "NOPE", "--day", "Monday", "--slot", "9:00-10:00")
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrUnknownFaculty.Code, appErr.Code)

	_, err = executeCmd(t, f, "--roster", roster, "evaluate", "--day", "Tuesday", "--slot", "9:00-10:00", "--room", "GF3",
		"--faculty", "F1", "--size", "10", "--commit")
	require.NoError(t, err)
	assert.Len(t, f.entries(t), 2)
}

func TestEvaluateRequiresFlags(t *testing.T) {
	_, err := executeCmd(t, newFixture(t, nil), "evaluate", "--day", "Monday")
	assert.Error(t, err)
}

func TestRoomsListsFreeRooms(t *testing.T) {
	f := newFixture(t, []models.ScheduleEntry{booked("e1", "Monday", "9:00-10:00", "GF3", "F1", models.StatusScheduled)})

	out, err := executeCmd(t, f, "--json", "rooms", "--day", "Monday", "--slot", "9:00-10:00", "--capacity", "15")
	require.NoError(t, err)
	var rooms []models.Room
	require.NoError(t, json.Unmarshal([]byte(out), &rooms))
	ids := make([]string, 0, len(rooms))
	for _, room := range rooms {
		ids = append(ids, room.ID)
	}
	assert.ElementsMatch(t, []string{"FF8", "CF9"}, ids)
}

func TestFacultyReportsBusy(t *testing.T) {
	f := newFixture(t, []models.ScheduleEntry{booked("e1", "Monday", "9:00-10:00", "GF3", "F1", models.StatusScheduled)})

	out, err := executeCmd(t, f, "faculty", "F1", "--day", "Monday", "--slot", "9:30-9:45")
	require.NoError(t, err)
	assert.Contains(t, out, "Busy: F1 teaches C-e1 in GF3")

	out, err = executeCmd(t, f, "faculty", "F1", "--day", "Monday", "--slot", "10:00-11:00")
	require.NoError(t, err)
	assert.Contains(t, out, "Free:")
}

func TestReconcileWritesPlacements(t *testing.T) {
	f := newFixture(t, []models.ScheduleEntry{
		booked("e1", "Monday", "9:00-10:00", "FF8", "F1", models.StatusConflict),
		booked("e2", "Tuesday", "9:00-10:00", "FF8", "F1", models.StatusPending),
	})

	_, err := executeCmd(t, f, "reconcile", "--day", "mon")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConflict, f.entries(t)[0].Status)

	out, err := executeCmd(t, f, "reconcile", "--day", "monday", "--write")
	require.NoError(t, err)
	assert.Contains(t, out, "1 changed")

	stored := f.entries(t)
	assert.Equal(t, models.StatusScheduled, stored[0].Status)
	assert.Equal(t, models.StatusPending, stored[1].Status)
}

func TestSummaryCountsStatuses(t *testing.T) {
	f := newFixture(t, []models.ScheduleEntry{
		booked("e1", "Monday", "9:00-10:00", "FF8", "F1", models.StatusScheduled),
		booked("e2", "Monday", "9:00-10:00", "FF8", "F2", models.StatusConflict),
	})

	out, err := executeCmd(t, f, "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "total 2: scheduled 1, conflict 1, no room 0, pending 0")
}
