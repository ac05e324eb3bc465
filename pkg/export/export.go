// Package export renders tabular timetables into downloadable documents.
package export

import "fmt"

// Dataset is a titled table. Rows are keyed by header name; missing cells render empty.
// When GroupBy names a header, renderers that support sections start a new block each time
// that column's value changes.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []map[string]string
	GroupBy string
}

// Renderer turns a dataset into a file body.
type Renderer interface {
	Render(data Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// ForFormat returns the renderer for "csv" or "pdf".
func ForFormat(format string) (Renderer, error) {
	switch format {
	case "csv":
		return NewCSVExporter(), nil
	case "pdf":
		return NewPDFExporter(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func (d Dataset) validate() error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("dataset requires at least one header")
	}
	return nil
}

func (d Dataset) record(row map[string]string) []string {
	out := make([]string, len(d.Headers))
	for i, header := range d.Headers {
		out[i] = row[header]
	}
	return out
}
