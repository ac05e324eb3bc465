package models

import "time"

// ExportFormat enumerates the supported timetable export encodings.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult describes a rendered timetable ready for download.
type ExportResult struct {
	ID           string       `json:"id"`
	Format       ExportFormat `json:"format"`
	RelativePath string       `json:"-"`
	Token        string       `json:"token"`
	URL          string       `json:"url"`
	Rows         int          `json:"rows"`
	ExpiresAt    time.Time    `json:"expires_at"`
}
