package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/smart-classroom-api/internal/dto"
	"github.com/noah-isme/smart-classroom-api/internal/models"
	"github.com/noah-isme/smart-classroom-api/internal/repository"
	appErrors "github.com/noah-isme/smart-classroom-api/pkg/errors"
)

type facultyRepository interface {
	List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, int, error)
	ListAll(ctx context.Context) ([]models.Faculty, error)
	FindByID(ctx context.Context, id string) (*models.Faculty, error)
	Create(ctx context.Context, member *models.Faculty) error
	Update(ctx context.Context, member *models.Faculty) error
	Delete(ctx context.Context, id string) error
}

// FacultyService manages faculty reference data.
type FacultyService struct {
	repo      facultyRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFacultyService creates a faculty service.
func NewFacultyService(repo facultyRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *FacultyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FacultyService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns a page of faculty members.
func (s *FacultyService) List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, *models.Pagination, error) {
	members, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faculty")
	}
	return members, newPagination(filter.Page, filter.PageSize, total), nil
}

// All returns every faculty member, served from cache when possible.
func (s *FacultyService) All(ctx context.Context) ([]models.Faculty, error) {
	var members []models.Faculty
	if hit, err := s.cache.Get(ctx, cacheKeyFaculty, &members); err == nil && hit {
		return members, nil
	}
	members, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
	}
	_ = s.cache.Set(ctx, cacheKeyFaculty, members, 0)
	return members, nil
}

// Get returns a faculty member or UNKNOWN_FACULTY.
func (s *FacultyService) Get(ctx context.Context, id string) (*models.Faculty, error) {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnknownFaculty, "faculty "+id+" not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
	}
	return member, nil
}

// Ensure fails with UNKNOWN_FACULTY when id is not registered.
func (s *FacultyService) Ensure(ctx context.Context, id string) error {
	_, err := s.Get(ctx, id)
	return err
}

// Create registers a faculty member.
func (s *FacultyService) Create(ctx context.Context, req dto.CreateFacultyRequest) (*models.Faculty, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid faculty payload")
	}
	member := &models.Faculty{
		ID:         strings.TrimSpace(req.ID),
		Name:       strings.TrimSpace(req.Name),
		Department: strings.TrimSpace(req.Department),
	}
	if err := s.repo.Create(ctx, member); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "faculty "+member.ID+" already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create faculty")
	}
	_ = s.cache.Invalidate(ctx, cachePatternStaff, cachePatternBoard)
	return member, nil
}

// Update renames or moves a faculty member.
func (s *FacultyService) Update(ctx context.Context, id string, req dto.UpdateFacultyRequest) (*models.Faculty, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid faculty payload")
	}
	member, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	member.Name = strings.TrimSpace(req.Name)
	member.Department = strings.TrimSpace(req.Department)
	if err := s.repo.Update(ctx, member); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnknownFaculty, "faculty "+id+" not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update faculty")
	}
	_ = s.cache.Invalidate(ctx, cachePatternStaff, cachePatternBoard)
	return member, nil
}

// Delete removes a faculty member with no schedule entries.
func (s *FacultyService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return appErrors.Clone(appErrors.ErrUnknownFaculty, "faculty "+id+" not found")
		case repository.IsForeignKeyViolation(err):
			return appErrors.Clone(appErrors.ErrConflict, "faculty "+id+" is referenced by schedule entries")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete faculty")
	}
	_ = s.cache.Invalidate(ctx, cachePatternStaff, cachePatternBoard)
	return nil
}
