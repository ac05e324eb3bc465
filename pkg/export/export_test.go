package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timetable() Dataset {
	return Dataset{
		Title:   "Timetable",
		Headers: []string{"Day", "Time", "Room", "Course"},
		GroupBy: "Day",
		Rows: []map[string]string{
			{"Day": "Monday", "Time": "9:00-10:00", "Room": "FF8", "Course": "CS101"},
			{"Day": "Monday", "Time": "10:00-11:00", "Room": "GF3"},
			{"Day": "Tuesday", "Time": "9:30-11:30", "Room": "GF3", "Course": "MA201, Calculus"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(timetable())
	require.NoError(t, err)
	expected := "Day,Time,Room,Course\n" +
		"Monday,9:00-10:00,FF8,CS101\n" +
		"Monday,10:00-11:00,GF3,\n" +
		"Tuesday,9:30-11:30,GF3,\"MA201, Calculus\"\n"
	assert.Equal(t, expected, string(out))
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(timetable())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	empty := timetable()
	empty.Rows = nil
	out, err = NewPDFExporter().Render(empty)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestRenderRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestForFormat(t *testing.T) {
	r, err := ForFormat("pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", r.ContentType())

	r, err = ForFormat("csv")
	require.NoError(t, err)
	assert.Equal(t, "csv", r.Extension())

	_, err = ForFormat("xlsx")
	assert.Error(t, err)
}
