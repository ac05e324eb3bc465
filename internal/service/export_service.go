package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/smart-classroom-api/internal/dto"
	"github.com/noah-isme/smart-classroom-api/internal/models"
	appErrors "github.com/noah-isme/smart-classroom-api/pkg/errors"
	"github.com/noah-isme/smart-classroom-api/pkg/export"
	"github.com/noah-isme/smart-classroom-api/pkg/storage"
	"github.com/noah-isme/smart-classroom-api/pkg/timeslot"
)

var timetableHeaders = []string{"Day", "Time", "Room", "Course", "Faculty", "Programme", "Semester", "Size", "Status"}

type fileStorage interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	Retention time.Duration
}

// Download is an opened export ready to stream.
type Download struct {
	File        *os.File
	Filename    string
	ContentType string
	Size        int64
}

// ExportService renders the timetable to CSV or PDF, stores the file and issues a signed link.
type ExportService struct {
	entries   snapshotReader
	faculty   facultyRoster
	storage   fileStorage
	signer    *storage.SignedURLSigner
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(entries snapshotReader, faculty facultyRoster, store fileStorage, signer *storage.SignedURLSigner, validate *validator.Validate, logger *zap.Logger, cfg ExportConfig) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	return &ExportService{entries: entries, faculty: faculty, storage: store, signer: signer, validator: validate, logger: logger, cfg: cfg}
}

// Export renders Scheduled entries matching req and returns a signed download link.
func (s *ExportService) Export(ctx context.Context, req dto.ExportRequest) (*models.ExportResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload")
	}
	day := ""
	if req.Day != "" {
		canonical, err := timeslot.NormalizeDay(req.Day)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("unknown day %q", req.Day))
		}
		day = canonical
	}
	renderer, err := export.ForFormat(string(req.Format))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unsupported export format")
	}

	entries, err := s.entries.ListByDay(ctx, nil, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	faculty, err := s.faculty.All(ctx)
	if err != nil {
		return nil, err
	}
	dataset := buildTimetable(entries, faculty, req)

	payload, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	id := uuid.NewString()
	relPath, err := s.storage.Save(path.Join("timetables", id+"."+renderer.Extension()), payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}
	token, expiresAt, err := s.signer.Generate(id, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export link")
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.logger.Info("timetable exported", zap.String("export_id", id), zap.String("format", string(req.Format)), zap.Int("rows", len(dataset.Rows)))
	return &models.ExportResult{
		ID:           id,
		Format:       req.Format,
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/%s", prefix, token),
		Rows:         len(dataset.Rows),
		ExpiresAt:    expiresAt,
	}, nil
}

// Open verifies a download token and opens the file it grants.
func (s *ExportService) Open(token string) (*Download, error) {
	grant, err := s.signer.Parse(token, false)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download link")
	}
	file, err := s.storage.Open(grant.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export no longer available")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export")
	}
	info, err := file.Stat()
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export")
	}
	ext := strings.TrimPrefix(path.Ext(grant.Path), ".")
	contentType := "application/octet-stream"
	if renderer, err := export.ForFormat(ext); err == nil {
		contentType = renderer.ContentType()
	}
	return &Download{File: file, Filename: "timetable-" + grant.ID + "." + ext, ContentType: contentType, Size: info.Size()}, nil
}

// Cleanup removes exports older than the retention window.
func (s *ExportService) Cleanup() ([]string, error) {
	removed, err := s.storage.CleanupOlderThan(s.cfg.Retention)
	if err != nil {
		return removed, err
	}
	if len(removed) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
	}
	return removed, nil
}

// buildTimetable keeps Scheduled entries, applies the filters and sorts by day, start and room.
func buildTimetable(entries []models.ScheduleEntry, faculty []models.Faculty, req dto.ExportRequest) export.Dataset {
	names := make(map[string]string, len(faculty))
	for _, member := range faculty {
		names[member.ID] = member.Name
	}
	rows := make([]models.ScheduleEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Status != models.StatusScheduled {
			continue
		}
		if req.Programme != "" && !strings.EqualFold(entry.Programme, req.Programme) {
			continue
		}
		if req.Semester != "" && entry.Semester != req.Semester {
			continue
		}
		rows = append(rows, entry)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		di, dj := timeslot.DayIndex(rows[i].Day), timeslot.DayIndex(rows[j].Day)
		if di != dj {
			return di < dj
		}
		if rows[i].StartMinutes != rows[j].StartMinutes {
			return rows[i].StartMinutes < rows[j].StartMinutes
		}
		return rows[i].RoomID < rows[j].RoomID
	})

	title := "Timetable"
	if req.Programme != "" {
		title += " - " + req.Programme
	}
	if req.Semester != "" {
		title += " semester " + req.Semester
	}
	dataset := export.Dataset{Title: title, Headers: timetableHeaders, GroupBy: "Day"}
	for _, entry := range rows {
		name := names[entry.FacultyID]
		if name == "" {
			name = entry.FacultyID
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Day":       entry.Day,
			"Time":      entry.TimeSlot,
			"Room":      entry.RoomID,
			"Course":    entry.CourseCode,
			"Faculty":   name,
			"Programme": entry.Programme,
			"Semester":  entry.Semester,
			"Size":      strconv.Itoa(entry.ExpectedSize),
			"Status":    string(entry.Status),
		})
	}
	return dataset
}
