// Package scheduling classifies booking requests against a caller-owned schedule snapshot.
//
// Every function here is pure: callers load the snapshot, call the engine, and persist the
// result themselves. Concurrent evaluate-then-commit sequences must be serialised by the caller.
package scheduling

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/smart-classroom-api/internal/models"
	appErrors "github.com/noah-isme/smart-classroom-api/pkg/errors"
	"github.com/noah-isme/smart-classroom-api/pkg/timeslot"
)

// Policy tunes how room fit is decided once a request is conflict free.
type Policy struct {
	// RequireTypeMatch rejects rooms whose type differs from a request's RequiredType.
	RequireTypeMatch bool
	// ReassignRoom moves a request that does not fit its room into the best free room instead of NoRoom.
	ReassignRoom bool
}

// DefaultPolicy matches room types exactly and never reassigns.
func DefaultPolicy() Policy {
	return Policy{RequireTypeMatch: true}
}

// Engine evaluates booking requests. The zero value uses a permissive policy; prefer NewEngine.
type Engine struct {
	policy Policy
}

// NewEngine builds an engine with the given policy.
func NewEngine(policy Policy) *Engine {
	return &Engine{policy: policy}
}

// Policy returns the engine configuration.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Result is the outcome of a single evaluation.
type Result struct {
	Entry        models.ScheduleEntry      `json:"entry"`
	Conflicts    []models.ScheduleConflict `json:"conflicts,omitempty"`
	Alternatives []models.Room             `json:"alternatives,omitempty"`
	Reason       string                    `json:"reason"`
}

// Evaluate classifies candidate against the Scheduled entries in existing.
//
// Room clashes are reported in preference to faculty clashes and every clashing entry is
// returned as evidence. Pending is never produced.
func (e *Engine) Evaluate(candidate models.BookingRequest, existing []models.ScheduleEntry, rooms []models.Room) (*Result, error) {
	slot, err := parseSlot(candidate.Slot)
	if err != nil {
		return nil, err
	}
	day, err := normalizeDay(candidate.Day)
	if err != nil {
		return nil, err
	}
	roomIndex := indexRooms(rooms)
	room, ok := roomIndex[candidate.RoomID]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnknownRoom, fmt.Sprintf("room %q not found", candidate.RoomID))
	}

	entry := models.NewPendingEntry(candidate)
	entry.Day = day
	entry.TimeSlot = slot.String()
	entry.StartMinutes = slot.Start
	entry.EndMinutes = slot.End

	booked, err := scheduledOn(day, candidate.ID, existing)
	if err != nil {
		return nil, err
	}

	if clashes := overlapping(booked, slot, func(b bookedEntry) bool { return b.entry.RoomID == candidate.RoomID }); len(clashes) > 0 {
		entry.Status = models.StatusConflict
		return &Result{
			Entry:     entry,
			Conflicts: evidence(clashes, models.ConflictRoom),
			Reason:    fmt.Sprintf("room %s is already booked on %s during %s", candidate.RoomID, day, slot),
		}, nil
	}
	if clashes := overlapping(booked, slot, func(b bookedEntry) bool { return b.entry.FacultyID == candidate.FacultyID }); len(clashes) > 0 {
		entry.Status = models.StatusConflict
		return &Result{
			Entry:     entry,
			Conflicts: evidence(clashes, models.ConflictFaculty),
			Reason:    fmt.Sprintf("faculty %s already teaches on %s during %s", candidate.FacultyID, day, slot),
		}, nil
	}

	if candidate.ExpectedSize <= 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidCapacityRequirement, fmt.Sprintf("expected size %d must be positive", candidate.ExpectedSize))
	}
	need := requirement{size: candidate.ExpectedSize, roomType: candidate.RequiredType, equipment: candidate.RequiredEquipment}
	if e.fits(room, need) {
		entry.Status = models.StatusScheduled
		return &Result{Entry: entry, Reason: fmt.Sprintf("room %s is free and seats %d", room.ID, room.Capacity)}, nil
	}

	alternatives := e.freeRooms(rooms, booked, slot, need)
	if e.policy.ReassignRoom && len(alternatives) > 0 {
		entry.RoomID = alternatives[0].ID
		entry.Status = models.StatusScheduled
		return &Result{
			Entry:        entry,
			Alternatives: alternatives[1:],
			Reason:       fmt.Sprintf("room %s cannot host %d students, reassigned to %s", room.ID, candidate.ExpectedSize, entry.RoomID),
		}, nil
	}

	entry.Status = models.StatusNoRoom
	reason := fmt.Sprintf("room %s cannot host the class (capacity %d, requested %d)", room.ID, room.Capacity, candidate.ExpectedSize)
	if len(alternatives) == 0 {
		reason += "; no other room satisfies the requirement in this slot"
	}
	return &Result{Entry: entry, Alternatives: alternatives, Reason: reason}, nil
}

type requirement struct {
	size      int
	roomType  models.RoomType
	equipment []string
}

func (e *Engine) fits(room models.Room, need requirement) bool {
	if room.Capacity < need.size {
		return false
	}
	if e.policy.RequireTypeMatch && need.roomType != "" && room.Type != need.roomType {
		return false
	}
	return room.HasEquipment(need.equipment)
}

// freeRooms returns fitting rooms with no overlapping booking, smallest sufficient room first.
func (e *Engine) freeRooms(rooms []models.Room, booked []bookedEntry, slot timeslot.TimeRange, need requirement) []models.Room {
	busy := make(map[string]struct{})
	for _, b := range booked {
		if b.slot.Overlaps(slot) {
			busy[b.entry.RoomID] = struct{}{}
		}
	}
	var free []models.Room
	for _, room := range rooms {
		if _, taken := busy[room.ID]; taken {
			continue
		}
		if e.fits(room, need) {
			free = append(free, room)
		}
	}
	sort.SliceStable(free, func(i, j int) bool {
		if free[i].Capacity != free[j].Capacity {
			return free[i].Capacity < free[j].Capacity
		}
		return free[i].ID < free[j].ID
	})
	return free
}

type bookedEntry struct {
	entry models.ScheduleEntry
	slot  timeslot.TimeRange
}

// scheduledOn keeps Scheduled entries on day, skipping the entry identified by ignoreID.
func scheduledOn(day, ignoreID string, existing []models.ScheduleEntry) ([]bookedEntry, error) {
	var booked []bookedEntry
	for _, item := range existing {
		if item.Status != models.StatusScheduled {
			continue
		}
		if ignoreID != "" && item.ID == ignoreID {
			continue
		}
		if !timeslot.SameDay(item.Day, day) {
			continue
		}
		slot, err := timeslot.Parse(item.TimeSlot)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInvalidTimeFormat.Code, appErrors.ErrInvalidTimeFormat.Status,
				fmt.Sprintf("existing entry %s has malformed slot %q", item.ID, item.TimeSlot))
		}
		booked = append(booked, bookedEntry{entry: item, slot: slot})
	}
	return booked, nil
}

func overlapping(booked []bookedEntry, slot timeslot.TimeRange, match func(bookedEntry) bool) []models.ScheduleEntry {
	var clashes []models.ScheduleEntry
	for _, b := range booked {
		if match(b) && b.slot.Overlaps(slot) {
			clashes = append(clashes, b.entry)
		}
	}
	return clashes
}

func evidence(entries []models.ScheduleEntry, dimension string) []models.ScheduleConflict {
	out := make([]models.ScheduleConflict, 0, len(entries))
	for _, entry := range entries {
		out = append(out, models.ConflictFromEntry(entry, dimension))
	}
	return out
}

func indexRooms(rooms []models.Room) map[string]models.Room {
	index := make(map[string]models.Room, len(rooms))
	for _, room := range rooms {
		index[room.ID] = room
	}
	return index
}

func parseSlot(text string) (timeslot.TimeRange, error) {
	slot, err := timeslot.Parse(text)
	if err != nil {
		return timeslot.TimeRange{}, appErrors.Wrap(err, appErrors.ErrInvalidTimeFormat.Code, appErrors.ErrInvalidTimeFormat.Status,
			fmt.Sprintf("invalid time slot %q", strings.TrimSpace(text)))
	}
	return slot, nil
}

func normalizeDay(text string) (string, error) {
	day, err := timeslot.NormalizeDay(text)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("unknown day %q", text))
	}
	return day, nil
}
