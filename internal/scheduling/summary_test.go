package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smart-classroom-api/internal/models"
)

func TestSummarize(t *testing.T) {
	a := scheduled("a", "Monday", "9:00-10:00", "FF8", "F1")
	b := scheduled("b", "Monday", "9:00-10:00", "FF8", "F2")
	b.Status = models.StatusConflict
	c := scheduled("c", "Tuesday", "9:00-10:00", "FF5", "F2")
	c.Status = models.StatusNoRoom
	d := scheduled("d", "Tuesday", "9:00-10:00", "GF3", "F3")
	d.Status = models.StatusPending

	summary := Summarize([]models.ScheduleEntry{a, b, c, d})
	assert.Equal(t, models.ScheduleSummary{Total: 4, Pending: 1, Scheduled: 1, Conflicts: 1, NoRoom: 1}, summary)
}

func TestRoomUtilizationIncludesIdleRooms(t *testing.T) {
	entries := []models.ScheduleEntry{
		scheduled("a", "Monday", "9:00-10:00", "GF3", "F1"),
		scheduled("b", "Monday", "10:00-11:00", "GF3", "F1"),
		scheduled("c", "Monday", "9:00-10:00", "FF8", "F2"),
	}

	rows := RoomUtilization(entries, testRooms(), 0)
	require.Len(t, rows, 5)
	assert.Equal(t, "GF3", rows[0].Key)
	assert.Equal(t, 2, rows[0].Count)
	assert.Equal(t, "FF8", rows[1].Key)
	assert.Equal(t, 0, rows[4].Count)

	assert.Len(t, RoomUtilization(entries, testRooms(), 2), 2)
}

func TestFacultyWorkloadUsesNames(t *testing.T) {
	entries := []models.ScheduleEntry{
		scheduled("a", "Monday", "9:00-10:00", "GF3", "F1"),
		scheduled("b", "Tuesday", "9:00-10:00", "GF3", "F1"),
		scheduled("c", "Monday", "9:00-10:00", "FF8", "F2"),
	}
	faculty := []models.Faculty{{ID: "F1", Name: "Dr. Ada"}}

	rows := FacultyWorkload(entries, faculty, 0)
	require.Len(t, rows, 2)
	assert.Equal(t, models.UsageCount{Key: "F1", Label: "Dr. Ada", Count: 2}, rows[0])
	assert.Equal(t, models.UsageCount{Key: "F2", Label: "F2", Count: 1}, rows[1])
}

func TestWeeklyClassCountOrdersByWeekday(t *testing.T) {
	entries := []models.ScheduleEntry{
		scheduled("a", "friday", "9:00-10:00", "GF3", "F1"),
		scheduled("b", "Mon", "9:00-10:00", "GF3", "F1"),
		scheduled("c", "Monday", "10:00-11:00", "FF8", "F2"),
		scheduled("d", "Funday", "10:00-11:00", "FF8", "F2"),
	}

	rows := WeeklyClassCount(entries)
	require.Len(t, rows, 3)
	assert.Equal(t, "Monday", rows[0].Key)
	assert.Equal(t, 2, rows[0].Count)
	assert.Equal(t, "Friday", rows[1].Key)
	assert.Equal(t, "Funday", rows[2].Key)
}

func TestDashboardCountsOnlyScheduledUsage(t *testing.T) {
	a := scheduled("a", "Monday", "9:00-10:00", "GF3", "F1")
	b := scheduled("b", "Monday", "9:00-10:00", "GF3", "F2")
	b.Status = models.StatusConflict

	board := Dashboard([]models.ScheduleEntry{a, b}, testRooms(), nil, 1)
	assert.Equal(t, 2, board.Summary.Total)
	require.Len(t, board.RoomUtilization, 1)
	assert.Equal(t, models.UsageCount{Key: "GF3", Label: "GF3", Count: 1}, board.RoomUtilization[0])
	require.Len(t, board.FacultyWorkload, 1)
	assert.Equal(t, "F1", board.FacultyWorkload[0].Key)
	assert.Equal(t, []models.UsageCount{{Key: "Monday", Label: "Monday", Count: 1}}, board.WeeklyClassCount)
	assert.False(t, board.GeneratedAt.IsZero())
}
