package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/noah-isme/smart-classroom-api/internal/models"
	"github.com/noah-isme/smart-classroom-api/internal/scheduling"
	"github.com/noah-isme/smart-classroom-api/pkg/timeslot"
)

// ErrConflict is returned by evaluate --strict when the booking is not Scheduled.
var ErrConflict = errors.New("booking was not scheduled")

func newEvaluateCmd(app *App) *cobra.Command {
	var req models.BookingRequest
	var requiredType string
	var commit, strict bool

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Classify a booking against the stored schedule",
		Example: "  schedctl evaluate --day Monday --slot 9:00-10:00 --room FF8 --faculty F1 --course CS101 --size 40\n" +
			"  schedctl evaluate --day Tue --slot 14:00-16:00 --room CF9 --faculty F2 --course CS210 --size 18 --type Lab --equipment Computers --commit",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.RequiredType = models.RoomType(requiredType)
			return runEvaluate(app, cmd.OutOrStdout(), req, commit, strict)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&req.Day, "day", "", "Day of week")
	flags.StringVar(&req.Slot, "slot", "", "Time slot, e.g. 9:00-10:30")
	flags.StringVar(&req.RoomID, "room", "", "Requested room")
	flags.StringVar(&req.FacultyID, "faculty", "", "Teaching faculty member")
	flags.StringVar(&req.CourseCode, "course", "", "Course code")
	flags.StringVar(&req.Programme, "programme", "", "Programme")
	flags.StringVar(&req.Semester, "semester", "", "Semester")
	flags.IntVar(&req.ExpectedSize, "size", 1, "Expected class size")
	flags.StringVar(&requiredType, "type", "", "Required room type (Classroom or Lab)")
	flags.StringSliceVar(&req.RequiredEquipment, "equipment", nil, "Required equipment")
	flags.BoolVar(&commit, "commit", false, "Append the evaluated entry to the schedule file")
	flags.BoolVar(&strict, "strict", false, "Fail when the booking is not scheduled")
	for _, name := range []string{"day", "slot", "room", "faculty"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func runEvaluate(app *App, out io.Writer, req models.BookingRequest, commit, strict bool) error {
	rooms, err := app.loadRooms()
	if err != nil {
		return err
	}
	entries, err := app.loadSchedule()
	if err != nil {
		return err
	}

	result, err := app.Engine.Evaluate(req, entries, rooms)
	if err != nil {
		return err
	}
	if err := app.ensureFaculty(req.FacultyID); err != nil {
		return err
	}
	if strict && result.Entry.Status != models.StatusScheduled {
		if err := printResult(app, out, result); err != nil {
			return err
		}
		return fmt.Errorf("%w: %s", ErrConflict, result.Reason)
	}
	if commit {
		result.Entry.ID = uuid.NewString()
		if err := app.saveSchedule(append(entries, result.Entry)); err != nil {
			return err
		}
	}
	return printResult(app, out, result)
}

func printResult(app *App, out io.Writer, result *scheduling.Result) error {
	if app.asJSON {
		return writeJSON(out, result)
	}
	fmt.Fprintf(out, "%s: %s\n", result.Entry.Status, result.Reason)
	for _, conflict := range result.Conflicts {
		fmt.Fprintf(out, "  %s conflict with %s (%s %s %s, room %s, faculty %s)\n",
			conflict.Dimension, conflict.EntryID, conflict.CourseCode, conflict.Day, conflict.TimeSlot, conflict.RoomID, conflict.FacultyID)
	}
	if len(result.Alternatives) > 0 {
		ids := make([]string, 0, len(result.Alternatives))
		for _, room := range result.Alternatives {
			ids = append(ids, room.ID)
		}
		fmt.Fprintf(out, "  free alternatives: %s\n", strings.Join(ids, ", "))
	}
	return nil
}

func newRoomsCmd(app *App) *cobra.Command {
	var query scheduling.RoomQuery
	var roomType string

	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "List rooms free for a slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			query.Type = models.RoomType(roomType)
			rooms, err := app.loadRooms()
			if err != nil {
				return err
			}
			entries, err := app.loadSchedule()
			if err != nil {
				return err
			}
			free, err := app.Engine.FindAvailableRooms(query, entries, rooms)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if app.asJSON {
				return writeJSON(out, free)
			}
			if len(free) == 0 {
				fmt.Fprintln(out, "no free room matches")
				return nil
			}
			for _, room := range free {
				fmt.Fprintf(out, "%s\t%s\t%d seats\t%s\n", room.ID, room.Type, room.Capacity, strings.Join(room.Equipment, ", "))
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&query.Day, "day", "", "Day of week")
	flags.StringVar(&query.Slot, "slot", "", "Time slot")
	flags.IntVar(&query.MinCapacity, "capacity", 1, "Minimum seats")
	flags.StringVar(&roomType, "type", "", "Room type (Classroom or Lab)")
	flags.StringSliceVar(&query.Equipment, "equipment", nil, "Required equipment")
	_ = cmd.MarkFlagRequired("day")
	_ = cmd.MarkFlagRequired("slot")
	return cmd
}

func newFacultyCmd(app *App) *cobra.Command {
	var day, slot string

	cmd := &cobra.Command{
		Use:   "faculty <faculty-id>",
		Short: "Check whether a faculty member is free",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.ensureFaculty(args[0]); err != nil {
				return err
			}
			entries, err := app.loadSchedule()
			if err != nil {
				return err
			}
			free, blocking, err := app.Engine.IsFacultyFree(args[0], day, slot, entries)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if app.asJSON {
				return writeJSON(out, map[string]interface{}{"faculty_id": args[0], "free": free, "blocking": blocking})
			}
			if free {
				fmt.Fprintf(out, "Free: %s has no class on %s during %s\n", args[0], day, slot)
				return nil
			}
			fmt.Fprintf(out, "Busy: %s teaches %s in %s on %s %s\n", args[0], blocking.CourseCode, blocking.RoomID, blocking.Day, blocking.TimeSlot)
			return nil
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "Day of week")
	cmd.Flags().StringVar(&slot, "slot", "", "Time slot")
	_ = cmd.MarkFlagRequired("day")
	_ = cmd.MarkFlagRequired("slot")
	return cmd
}

func newReconcileCmd(app *App) *cobra.Command {
	var day string
	var write bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Re-evaluate stored entries and place waiting bookings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(app, cmd.OutOrStdout(), day, write)
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "Only reconcile this day")
	cmd.Flags().BoolVar(&write, "write", false, "Rewrite the schedule file with the result")
	return cmd
}

func runReconcile(app *App, out io.Writer, day string, write bool) error {
	if day != "" {
		canonical, err := timeslot.NormalizeDay(day)
		if err != nil {
			return err
		}
		day = canonical
	}
	rooms, err := app.loadRooms()
	if err != nil {
		return err
	}
	entries, err := app.loadSchedule()
	if err != nil {
		return err
	}

	// Reconcile the selected day in isolation and splice the result back in place.
	var positions []int
	var selected []models.ScheduleEntry
	for i, entry := range entries {
		if day == "" || timeslot.SameDay(entry.Day, day) {
			positions = append(positions, i)
			selected = append(selected, entry)
		}
	}
	result := app.Engine.Reconcile(selected, rooms)
	for i, pos := range positions {
		entries[pos] = result.Schedule[i]
	}

	if write && len(result.Changes) > 0 {
		if err := app.saveSchedule(entries); err != nil {
			return err
		}
	}
	if app.asJSON {
		return writeJSON(out, map[string]interface{}{"changes": result.Changes, "logs": result.Logs, "applied": write})
	}
	for _, line := range result.Logs {
		fmt.Fprintln(out, line)
	}
	return nil
}

func newSummaryCmd(app *App) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print status totals, room utilization and faculty workload",
		RunE: func(cmd *cobra.Command, args []string) error {
			rooms, err := app.loadRooms()
			if err != nil {
				return err
			}
			faculty, err := app.loadFaculty()
			if err != nil {
				return err
			}
			entries, err := app.loadSchedule()
			if err != nil {
				return err
			}
			board := scheduling.Dashboard(entries, rooms, faculty, top)
			out := cmd.OutOrStdout()
			if app.asJSON {
				return writeJSON(out, board)
			}
			s := board.Summary
			fmt.Fprintf(out, "total %d: scheduled %d, conflict %d, no room %d, pending %d\n", s.Total, s.Scheduled, s.Conflicts, s.NoRoom, s.Pending)
			printUsage(out, "rooms", board.RoomUtilization)
			printUsage(out, "faculty", board.FacultyWorkload)
			printUsage(out, "week", board.WeeklyClassCount)
			return nil
		},
	}
	cmd.Flags().IntVar(&top, "top", 10, "Rows per ranking, 0 for all")
	return cmd
}

func printUsage(out io.Writer, title string, rows []models.UsageCount) {
	fmt.Fprintf(out, "%s:\n", title)
	for _, row := range rows {
		fmt.Fprintf(out, "  %-20s %d\n", row.Label, row.Count)
	}
}
