package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smart-classroom-api/internal/dto"
	"github.com/noah-isme/smart-classroom-api/internal/models"
	appErrors "github.com/noah-isme/smart-classroom-api/pkg/errors"
	"github.com/noah-isme/smart-classroom-api/pkg/storage"
)

func newExportFixture(t *testing.T) *ExportService {
	t.Helper()
	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	cse := storedEntry("e1", "Tuesday", "9:00-10:00", "FF8", "F1", models.StatusScheduled)
	cse.Programme = "BSc CS"
	math := storedEntry("e2", "Monday", "11:00-12:00", "GF3", "F2", models.StatusScheduled)
	math.Programme = "BSc Maths"
	clash := storedEntry("e3", "Monday", "11:00-12:00", "GF3", "F3", models.StatusConflict)
	clash.Programme = "BSc CS"
	store := &scheduleStoreStub{entries: []models.ScheduleEntry{cse, math, clash}}
	signer := storage.NewSignedURLSigner("export-secret", time.Hour)
	return NewExportService(store, fixtureFaculty(), local, signer, nil, nil, ExportConfig{APIPrefix: "/api/v1"})
}

func TestExportServiceCSVRoundTrip(t *testing.T) {
	svc := newExportFixture(t)

	result, err := svc.Export(context.Background(), dto.ExportRequest{Format: models.ExportFormatCSV})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Rows)
	assert.True(t, strings.HasPrefix(result.URL, "/api/v1/exports/"))
	assert.True(t, strings.HasSuffix(result.RelativePath, ".csv"))

	download, err := svc.Open(result.Token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, "text/csv", download.ContentType)
	body, err := io.ReadAll(download.File)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, "Dr. Ada")
	assert.NotContains(t, text, "C-e3")
	assert.Less(t, strings.Index(text, "Monday"), strings.Index(text, "Tuesday"))
}

func TestExportServiceFiltersByProgramme(t *testing.T) {
	svc := newExportFixture(t)

	result, err := svc.Export(context.Background(), dto.ExportRequest{Format: models.ExportFormatPDF, Programme: "bsc cs"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rows)

	download, err := svc.Open(result.Token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, "application/pdf", download.ContentType)
	assert.True(t, strings.HasSuffix(download.Filename, ".pdf"))
}

func TestExportServiceRejectsBadInput(t *testing.T) {
	svc := newExportFixture(t)

	_, err := svc.Export(context.Background(), dto.ExportRequest{Format: "xlsx"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Export(context.Background(), dto.ExportRequest{Format: models.ExportFormatCSV, Day: "Caturday"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Open("not-a-token")
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestExportServiceCleanupKeepsFreshFiles(t *testing.T) {
	svc := newExportFixture(t)
	_, err := svc.Export(context.Background(), dto.ExportRequest{Format: models.ExportFormatCSV})
	require.NoError(t, err)

	removed, err := svc.Cleanup()
	require.NoError(t, err)
	assert.Empty(t, removed)
}
