package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/smart-classroom-api/internal/models"
)

const facultyColumns = "id, name, department, created_at, updated_at"

// FacultyRepository persists faculty reference data.
type FacultyRepository struct {
	db *sqlx.DB
}

// NewFacultyRepository constructs a FacultyRepository.
func NewFacultyRepository(db *sqlx.DB) *FacultyRepository {
	return &FacultyRepository{db: db}
}

// List returns a page of faculty members ordered by name.
func (r *FacultyRepository) List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, int, error) {
	base := "FROM faculty WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR id ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+search+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page, size := normalizePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf("SELECT %s %s ORDER BY name ASC, id ASC LIMIT %d OFFSET %d", facultyColumns, base, size, (page-1)*size)

	var faculty []models.Faculty
	if err := r.db.SelectContext(ctx, &faculty, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list faculty: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count faculty: %w", err)
	}
	return faculty, total, nil
}

// ListAll loads every faculty member ordered by id.
func (r *FacultyRepository) ListAll(ctx context.Context) ([]models.Faculty, error) {
	query := "SELECT " + facultyColumns + " FROM faculty ORDER BY id ASC"
	var faculty []models.Faculty
	if err := r.db.SelectContext(ctx, &faculty, query); err != nil {
		return nil, fmt.Errorf("list all faculty: %w", err)
	}
	return faculty, nil
}

// FindByID returns sql.ErrNoRows when the member does not exist.
func (r *FacultyRepository) FindByID(ctx context.Context, id string) (*models.Faculty, error) {
	query := "SELECT " + facultyColumns + " FROM faculty WHERE id = $1"
	var member models.Faculty
	if err := r.db.GetContext(ctx, &member, query, id); err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *FacultyRepository) Create(ctx context.Context, member *models.Faculty) error {
	now := time.Now().UTC()
	member.CreatedAt = now
	member.UpdatedAt = now
	const query = `INSERT INTO faculty (id, name, department, created_at, updated_at) VALUES (:id, :name, :department, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, member); err != nil {
		return fmt.Errorf("create faculty: %w", err)
	}
	return nil
}

func (r *FacultyRepository) Update(ctx context.Context, member *models.Faculty) error {
	member.UpdatedAt = time.Now().UTC()
	const query = `UPDATE faculty SET name = :name, department = :department, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, member)
	if err != nil {
		return fmt.Errorf("update faculty: %w", err)
	}
	return expectAffected(res, "update faculty")
}

func (r *FacultyRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM faculty WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete faculty: %w", err)
	}
	return expectAffected(res, "delete faculty")
}
