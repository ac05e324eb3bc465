package scheduling

import (
	"sort"
	"time"

	"github.com/noah-isme/smart-classroom-api/internal/models"
	"github.com/noah-isme/smart-classroom-api/pkg/timeslot"
)

// Summarize counts entries per status.
func Summarize(entries []models.ScheduleEntry) models.ScheduleSummary {
	summary := models.ScheduleSummary{Total: len(entries)}
	for _, entry := range entries {
		switch entry.Status {
		case models.StatusPending:
			summary.Pending++
		case models.StatusScheduled:
			summary.Scheduled++
		case models.StatusConflict:
			summary.Conflicts++
		case models.StatusNoRoom:
			summary.NoRoom++
		}
	}
	return summary
}

// RoomUtilization counts bookings per room. Every known room is present, so idle rooms show
// up with zero. limit <= 0 returns all rows.
func RoomUtilization(entries []models.ScheduleEntry, rooms []models.Room, limit int) []models.UsageCount {
	counts := make(map[string]int, len(rooms))
	for _, room := range rooms {
		counts[room.ID] = 0
	}
	for _, entry := range entries {
		if entry.RoomID != "" {
			counts[entry.RoomID]++
		}
	}
	out := make([]models.UsageCount, 0, len(counts))
	for id, count := range counts {
		out = append(out, models.UsageCount{Key: id, Label: id, Count: count})
	}
	return topN(out, limit)
}

// FacultyWorkload counts bookings per faculty member, labelled with their name when known.
func FacultyWorkload(entries []models.ScheduleEntry, faculty []models.Faculty, limit int) []models.UsageCount {
	names := make(map[string]string, len(faculty))
	for _, f := range faculty {
		names[f.ID] = f.Name
	}
	counts := make(map[string]int)
	for _, entry := range entries {
		if entry.FacultyID != "" {
			counts[entry.FacultyID]++
		}
	}
	out := make([]models.UsageCount, 0, len(counts))
	for id, count := range counts {
		label := names[id]
		if label == "" {
			label = id
		}
		out = append(out, models.UsageCount{Key: id, Label: label, Count: count})
	}
	return topN(out, limit)
}

// WeeklyClassCount counts bookings per weekday in calendar order. Unknown day names sort last.
func WeeklyClassCount(entries []models.ScheduleEntry) []models.UsageCount {
	counts := make(map[string]int)
	for _, entry := range entries {
		day, err := timeslot.NormalizeDay(entry.Day)
		if err != nil {
			day = entry.Day
		}
		counts[day]++
	}
	out := make([]models.UsageCount, 0, len(counts))
	for day, count := range counts {
		out = append(out, models.UsageCount{Key: day, Label: day, Count: count})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := timeslot.DayIndex(out[i].Key), timeslot.DayIndex(out[j].Key)
		if a < 0 {
			a = len(timeslot.Days)
		}
		if b < 0 {
			b = len(timeslot.Days)
		}
		if a != b {
			return a < b
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Dashboard bundles the status summary over every entry with utilization, workload and weekly
// counts over Scheduled entries only. Rankings are cut to limit rows.
func Dashboard(entries []models.ScheduleEntry, rooms []models.Room, faculty []models.Faculty, limit int) models.ScheduleDashboard {
	scheduled := make([]models.ScheduleEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Status == models.StatusScheduled {
			scheduled = append(scheduled, entry)
		}
	}
	return models.ScheduleDashboard{
		Summary:          Summarize(entries),
		RoomUtilization:  RoomUtilization(scheduled, rooms, limit),
		FacultyWorkload:  FacultyWorkload(scheduled, faculty, limit),
		WeeklyClassCount: WeeklyClassCount(scheduled),
		GeneratedAt:      time.Now().UTC(),
	}
}

func topN(rows []models.UsageCount, limit int) []models.UsageCount {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Key < rows[j].Key
	})
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}
