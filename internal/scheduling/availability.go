package scheduling

import (
	"fmt"
	"sort"

	"github.com/noah-isme/smart-classroom-api/internal/models"
	appErrors "github.com/noah-isme/smart-classroom-api/pkg/errors"
)

// RoomQuery describes a classroom finder lookup.
type RoomQuery struct {
	Day         string
	Slot        string
	MinCapacity int
	Type        models.RoomType
	Equipment   []string
}

// FindAvailableRooms returns rooms with no overlapping Scheduled entry that seat at least
// MinCapacity students, smallest sufficient room first.
func (e *Engine) FindAvailableRooms(query RoomQuery, existing []models.ScheduleEntry, rooms []models.Room) ([]models.Room, error) {
	slot, err := parseSlot(query.Slot)
	if err != nil {
		return nil, err
	}
	day, err := normalizeDay(query.Day)
	if err != nil {
		return nil, err
	}
	if query.MinCapacity <= 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidCapacityRequirement, fmt.Sprintf("minimum capacity %d must be positive", query.MinCapacity))
	}
	booked, err := scheduledOn(day, "", existing)
	if err != nil {
		return nil, err
	}
	need := requirement{size: query.MinCapacity, roomType: query.Type, equipment: query.Equipment}
	// A finder query names the type explicitly, so it always filters on it.
	finder := Engine{policy: Policy{RequireTypeMatch: true}}
	return finder.freeRooms(rooms, booked, slot, need), nil
}

// IsFacultyFree reports whether facultyID has no Scheduled class overlapping slot on day.
// When busy, the earliest blocking entry is returned.
func (e *Engine) IsFacultyFree(facultyID, day, slot string, existing []models.ScheduleEntry) (bool, *models.ScheduleEntry, error) {
	rng, err := parseSlot(slot)
	if err != nil {
		return false, nil, err
	}
	normalized, err := normalizeDay(day)
	if err != nil {
		return false, nil, err
	}
	booked, err := scheduledOn(normalized, "", existing)
	if err != nil {
		return false, nil, err
	}
	var blocking []bookedEntry
	for _, b := range booked {
		if b.entry.FacultyID == facultyID && b.slot.Overlaps(rng) {
			blocking = append(blocking, b)
		}
	}
	if len(blocking) == 0 {
		return true, nil, nil
	}
	sort.SliceStable(blocking, func(i, j int) bool {
		return blocking[i].slot.Start < blocking[j].slot.Start
	})
	entry := blocking[0].entry
	return false, &entry, nil
}
