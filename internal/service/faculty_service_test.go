package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smart-classroom-api/internal/dto"
	"github.com/noah-isme/smart-classroom-api/internal/models"
	appErrors "github.com/noah-isme/smart-classroom-api/pkg/errors"
)

type mockFacultyRepo struct {
	members   map[string]models.Faculty
	createErr error
}

func (m *mockFacultyRepo) List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, int, error) {
	out, _ := m.ListAll(ctx)
	return out, len(out), nil
}

func (m *mockFacultyRepo) ListAll(ctx context.Context) ([]models.Faculty, error) {
	out := make([]models.Faculty, 0, len(m.members))
	for _, member := range m.members {
		out = append(out, member)
	}
	return out, nil
}

func (m *mockFacultyRepo) FindByID(ctx context.Context, id string) (*models.Faculty, error) {
	member, ok := m.members[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &member, nil
}

func (m *mockFacultyRepo) Create(ctx context.Context, member *models.Faculty) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.members[member.ID] = *member
	return nil
}

func (m *mockFacultyRepo) Update(ctx context.Context, member *models.Faculty) error {
	m.members[member.ID] = *member
	return nil
}

func (m *mockFacultyRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.members[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.members, id)
	return nil
}

func TestFacultyServiceEnsure(t *testing.T) {
	repo := &mockFacultyRepo{members: map[string]models.Faculty{"F1": {ID: "F1", Name: "Dr. Ada"}}}
	svc := NewFacultyService(repo, nil, nil, nil)

	assert.NoError(t, svc.Ensure(context.Background(), "F1"))
	err := svc.Ensure(context.Background(), "F2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnknownFaculty.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}

func TestFacultyServiceLifecycle(t *testing.T) {
	repo := &mockFacultyRepo{members: map[string]models.Faculty{}}
	svc := NewFacultyService(repo, newTestCache(), nil, nil)
	ctx := context.Background()

	member, err := svc.Create(ctx, dto.CreateFacultyRequest{ID: "F7", Name: "  Dr. Hopper ", Department: "CS"})
	require.NoError(t, err)
	assert.Equal(t, "Dr. Hopper", member.Name)

	updated, err := svc.Update(ctx, "F7", dto.UpdateFacultyRequest{Name: "Prof. Hopper", Department: "Maths"})
	require.NoError(t, err)
	assert.Equal(t, "Maths", updated.Department)

	all, err := svc.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Prof. Hopper", all[0].Name)

	repo.createErr = &pq.Error{Code: "23505"}
	_, err = svc.Create(ctx, dto.CreateFacultyRequest{ID: "F7", Name: "Dup"})
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(ctx, dto.CreateFacultyRequest{ID: "F8"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(ctx, "F7"))
	err = svc.Delete(ctx, "F7")
	assert.Equal(t, appErrors.ErrUnknownFaculty.Code, appErrors.FromError(err).Code)
}
