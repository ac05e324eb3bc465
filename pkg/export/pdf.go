package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageWidth   = 277.0 // A4 landscape minus margins
	headerRowH  = 8.0
	bodyRowH    = 7.0
	sectionRowH = 9.0
)

// PDFExporter lays the dataset out as a landscape timetable, one section per GroupBy value.
type PDFExporter struct{}

func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

func (e *PDFExporter) ContentType() string { return "application/pdf" }

func (e *PDFExporter) Extension() string { return "pdf" }

func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	if data.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, data.Title, "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	columns := data.Headers
	if data.GroupBy != "" {
		columns = without(data.Headers, data.GroupBy)
	}
	colWidth := pageWidth / float64(len(columns))

	writeHeader := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, header := range columns {
			pdf.CellFormat(colWidth, headerRowH, header, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}

	current := ""
	first := true
	for _, row := range data.Rows {
		if data.GroupBy != "" && (first || row[data.GroupBy] != current) {
			current = row[data.GroupBy]
			if !first {
				pdf.Ln(3)
			}
			pdf.SetFont("Arial", "B", 11)
			pdf.CellFormat(0, sectionRowH, current, "", 1, "L", false, 0, "")
			writeHeader()
		} else if first {
			writeHeader()
		}
		first = false

		pdf.SetFont("Arial", "", 9)
		for _, header := range columns {
			pdf.CellFormat(colWidth, bodyRowH, row[header], "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
	if first {
		writeHeader()
		pdf.SetFont("Arial", "I", 9)
		pdf.CellFormat(0, bodyRowH, "No entries", "", 1, "C", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func without(headers []string, drop string) []string {
	out := make([]string, 0, len(headers))
	for _, h := range headers {
		if h != drop {
			out = append(out, h)
		}
	}
	if len(out) == 0 {
		return headers
	}
	return out
}
