package scheduling

import (
	"fmt"

	"github.com/noah-isme/smart-classroom-api/internal/models"
	"github.com/noah-isme/smart-classroom-api/pkg/timeslot"
)

// StatusChange records how a reconcile pass reclassified one entry.
type StatusChange struct {
	EntryID    string                `json:"entry_id"`
	CourseCode string                `json:"course_code"`
	From       models.ScheduleStatus `json:"from"`
	To         models.ScheduleStatus `json:"to"`
	FromRoom   string                `json:"from_room"`
	ToRoom     string                `json:"to_room"`
}

// ReconcileResult is the full updated schedule plus an action log.
type ReconcileResult struct {
	Schedule []models.ScheduleEntry `json:"schedule"`
	Changes  []StatusChange         `json:"changes"`
	Logs     []string               `json:"logs"`
}

// Reconcile re-evaluates a whole schedule in a deterministic greedy pass.
//
// Entries already Scheduled are re-validated first, in input order, then every other entry is
// evaluated in input order. Each entry that ends Scheduled is visible to the ones after it, so
// the returned schedule never holds two overlapping Scheduled entries for a room or faculty
// member. Entries that fail validation keep their status and are reported in Logs, except that
// an invalid Scheduled entry overlapping an accepted one is demoted to Conflict.
func (e *Engine) Reconcile(entries []models.ScheduleEntry, rooms []models.Room) *ReconcileResult {
	result := &ReconcileResult{Schedule: make([]models.ScheduleEntry, len(entries))}
	copy(result.Schedule, entries)

	order := make([]int, 0, len(entries))
	for i, entry := range entries {
		if entry.Status == models.StatusScheduled {
			order = append(order, i)
		}
	}
	for i, entry := range entries {
		if entry.Status != models.StatusScheduled {
			order = append(order, i)
		}
	}

	var accepted []models.ScheduleEntry
	for _, idx := range order {
		current := result.Schedule[idx]
		evaluated, err := e.Evaluate(current.Request(), accepted, rooms)
		if err != nil {
			result.Logs = append(result.Logs, fmt.Sprintf("%s: skipped, %v", describe(current), err))
			if current.Status != models.StatusScheduled {
				continue
			}
			slot, parseErr := timeslot.Parse(current.TimeSlot)
			if parseErr != nil {
				continue
			}
			blocking := firstClash(current, slot, accepted)
			if blocking == nil {
				accepted = append(accepted, current)
				continue
			}
			demoted := current
			demoted.Status = models.StatusConflict
			result.Schedule[idx] = demoted
			result.Changes = append(result.Changes, StatusChange{
				EntryID:    current.ID,
				CourseCode: current.CourseCode,
				From:       current.Status,
				To:         demoted.Status,
				FromRoom:   current.RoomID,
				ToRoom:     demoted.RoomID,
			})
			result.Logs = append(result.Logs, fmt.Sprintf("%s: %s -> %s (overlaps %s)", describe(current), current.Status, demoted.Status, describe(*blocking)))
			continue
		}

		updated := evaluated.Entry
		updated.CreatedAt = current.CreatedAt
		updated.UpdatedAt = current.UpdatedAt
		result.Schedule[idx] = updated

		if updated.Status == models.StatusScheduled {
			accepted = append(accepted, updated)
		}
		if updated.Status == current.Status && updated.RoomID == current.RoomID {
			continue
		}
		result.Changes = append(result.Changes, StatusChange{
			EntryID:    current.ID,
			CourseCode: current.CourseCode,
			From:       current.Status,
			To:         updated.Status,
			FromRoom:   current.RoomID,
			ToRoom:     updated.RoomID,
		})
		result.Logs = append(result.Logs, fmt.Sprintf("%s: %s -> %s (%s)", describe(current), current.Status, updated.Status, evaluated.Reason))
	}

	result.Logs = append(result.Logs, fmt.Sprintf("reconciled %d entries, %d changed", len(entries), len(result.Changes)))
	return result
}

// firstClash returns the first accepted entry sharing a room or faculty member with entry on the
// same day during slot. Accepted entries always carry a parseable slot.
func firstClash(entry models.ScheduleEntry, slot timeslot.TimeRange, accepted []models.ScheduleEntry) *models.ScheduleEntry {
	for i := range accepted {
		other := accepted[i]
		if other.RoomID != entry.RoomID && other.FacultyID != entry.FacultyID {
			continue
		}
		if !timeslot.SameDay(other.Day, entry.Day) {
			continue
		}
		otherSlot, err := timeslot.Parse(other.TimeSlot)
		if err != nil || !otherSlot.Overlaps(slot) {
			continue
		}
		return &accepted[i]
	}
	return nil
}

func describe(entry models.ScheduleEntry) string {
	return fmt.Sprintf("%s %s %s in %s", entry.CourseCode, entry.Day, entry.TimeSlot, entry.RoomID)
}
