package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/noah-isme/smart-classroom-api/internal/models"
	appErrors "github.com/noah-isme/smart-classroom-api/pkg/errors"
)

func readJSONFile(path string, dest interface{}, optional bool) error {
	if path == "" && optional {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (a *App) loadRooms() ([]models.Room, error) {
	var rooms []models.Room
	if err := readJSONFile(a.roomsPath, &rooms, false); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (a *App) loadFaculty() ([]models.Faculty, error) {
	var faculty []models.Faculty
	if err := readJSONFile(a.facultyPath, &faculty, true); err != nil {
		return nil, err
	}
	return faculty, nil
}

// ensureFaculty fails with UNKNOWN_FACULTY when a roster is configured and id is not on it.
// Without a roster file every id is accepted.
func (a *App) ensureFaculty(id string) error {
	faculty, err := a.loadFaculty()
	if err != nil {
		return err
	}
	if faculty == nil {
		return nil
	}
	for _, member := range faculty {
		if member.ID == id {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrUnknownFaculty, fmt.Sprintf("faculty %q not found in %s", id, a.facultyPath))
}

// loadSchedule treats a missing schedule file as an empty timetable.
func (a *App) loadSchedule() ([]models.ScheduleEntry, error) {
	var entries []models.ScheduleEntry
	if err := readJSONFile(a.schedulePath, &entries, true); err != nil {
		return nil, err
	}
	return entries, nil
}

func (a *App) saveSchedule(entries []models.ScheduleEntry) error {
	if entries == nil {
		entries = []models.ScheduleEntry{}
	}
	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}
	tmp := a.schedulePath + ".tmp"
	if err := os.WriteFile(tmp, append(raw, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, a.schedulePath); err != nil {
		return fmt.Errorf("replace %s: %w", a.schedulePath, err)
	}
	return nil
}
