// Package cli implements schedctl, an offline front end to the scheduling engine that works on
// JSON room, faculty and schedule files.
package cli

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/noah-isme/smart-classroom-api/internal/scheduling"
)

// App holds what every command needs.
type App struct {
	Engine *scheduling.Engine

	roomsPath    string
	facultyPath  string
	schedulePath string
	asJSON       bool
}

// NewRootCmd creates the top-level "schedctl" command and registers all subcommands.
func NewRootCmd(app *App) *cobra.Command {
	if app.Engine == nil {
		app.Engine = scheduling.NewEngine(scheduling.DefaultPolicy())
	}
	root := &cobra.Command{
		Use:           "schedctl",
		Short:         "Check classroom bookings against a timetable",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&app.roomsPath, "rooms", "rooms.json", "Room catalogue (JSON array)")
	flags.StringVar(&app.facultyPath, "roster", "", "Faculty roster (JSON array, optional)")
	flags.StringVar(&app.schedulePath, "schedule", "schedule.json", "Stored schedule entries (JSON array)")
	flags.BoolVar(&app.asJSON, "json", false, "Print machine readable JSON")

	root.AddCommand(
		newEvaluateCmd(app),
		newRoomsCmd(app),
		newFacultyCmd(app),
		newReconcileCmd(app),
		newSummaryCmd(app),
	)
	return root
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
