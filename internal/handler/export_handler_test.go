package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smart-classroom-api/internal/dto"
	"github.com/noah-isme/smart-classroom-api/internal/models"
	"github.com/noah-isme/smart-classroom-api/internal/service"
	appErrors "github.com/noah-isme/smart-classroom-api/pkg/errors"
)

type fakeExportSrv struct {
	path    string
	lastReq dto.ExportRequest
}

func (f *fakeExportSrv) Export(_ context.Context, req dto.ExportRequest) (*models.ExportResult, error) {
	f.lastReq = req
	return &models.ExportResult{ID: "x1", Format: req.Format, Token: "tok", URL: "/api/v1/exports/tok", Rows: 4}, nil
}

func (f *fakeExportSrv) Open(token string) (*service.Download, error) {
	if token != "tok" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
	}
	file, err := os.Open(f.path)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		return nil, errors.Join(err, file.Close())
	}
	return &service.Download{File: file, Filename: "timetable-x1.csv", ContentType: "text/csv", Size: info.Size()}, nil
}

func exportRouter(t *testing.T) (*fakeExportSrv, http.Handler) {
	path := filepath.Join(t.TempDir(), "x1.csv")
	require.NoError(t, os.WriteFile(path, []byte("Day,Time\nMonday,9:00-10:00\n"), 0o600))
	srv := &fakeExportSrv{path: path}
	h := NewExportHandler(srv)
	r := newTestRouter()
	r.POST("/exports/schedules", h.Schedules)
	r.GET("/exports/:token", h.Download)
	return srv, r
}

func TestExportHandlerSchedules(t *testing.T) {
	srv, router := exportRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, jsonRequest(t, http.MethodPost, "/exports/schedules", dto.ExportRequest{Format: models.ExportFormatPDF, Programme: "BSc CS"}))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "BSc CS", srv.lastReq.Programme)
	var body models.ExportResult
	decodeData(t, decodeEnvelope(t, rec), &body)
	assert.Equal(t, "/api/v1/exports/tok", body.URL)
}

func TestExportHandlerDownloadStreamsFile(t *testing.T) {
	_, router := exportRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/exports/tok", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "timetable-x1.csv")
	assert.Contains(t, rec.Body.String(), "Monday,9:00-10:00")
}

func TestExportHandlerDownloadRejectsExpired(t *testing.T) {
	_, router := exportRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/exports/old", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
