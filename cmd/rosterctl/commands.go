package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"rostering_backend/internal/database"
	"rostering_backend/internal/models"
	"rostering_backend/internal/reports"
	"rostering_backend/internal/services"
	"rostering_backend/pkg/utils"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "rosterctl",
		Short:         "Administer staff rosters, attendance and shift reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newInitDBCommand(),
		newCreateStaffCommand(),
		newScheduleShiftCommand(),
		newScheduleWeekCommand(),
		newViewRosterCommand(),
		newPunchCommand("time-in", "Record a staff member's time-in for a shift", punchIn),
		newPunchCommand("time-out", "Record a staff member's time-out for a shift", punchOut),
		newViewShiftReportCommand(),
		newExportAttendanceCommand(),
	)
	return root
}

func newInitDBCommand() *cobra.Command {
	var reset, seed bool
	cmd := &cobra.Command{
		Use:   "init-db",
		Short: "Create the database schema",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			ctx := cmd.Context()
			if reset {
				if err := database.ResetSchema(ctx, a.db); err != nil {
					return err
				}
			} else if err := database.ApplySchema(ctx, a.db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database initialized.")

			if !seed {
				return nil
			}
			res, err := a.seeder.Seed(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d admins, %d staff, %d rosters, %d shifts, %d attendance records.\n",
				res.Admins, res.Staff, res.Rosters, res.Shifts, res.Attendance)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "drop all tables before creating them")
	cmd.Flags().BoolVar(&seed, "seed", false, "insert demo accounts, rosters and attendance")
	return cmd
}

func newCreateStaffCommand() *cobra.Command {
	var jobRole string
	cmd := &cobra.Command{
		Use:   "create-staff USERNAME EMAIL PASSWORD ROLE",
		Short: "Create an admin or staff account",
		Args:  cobra.ExactArgs(4),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			user, err := a.auth.CreateUser(cmd.Context(), services.CreateUserRequest{
				Username: args[0],
				Email:    args[1],
				Password: args[2],
				Role:     args[3],
				JobRole:  utils.NewNullString(jobRole),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %q with id %d.\n", user.Role, user.Username, user.ID)
			return nil
		}),
	}
	cmd.Flags().StringVar(&jobRole, "job-role", "", "job title for staff accounts")
	return cmd
}

func newScheduleShiftCommand() *cobra.Command {
	var weekStart string
	cmd := &cobra.Command{
		Use:   "schedule-shift STAFF_ID START END",
		Short: "Schedule one shift, e.g. schedule-shift 3 2024-01-01T09:00 2024-01-01T17:00",
		Args:  cobra.ExactArgs(3),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			staffID, err := utils.ParseID(args[0])
			if err != nil {
				return fmt.Errorf("invalid staff id %q", args[0])
			}
			shift, err := a.rosters.ScheduleShift(cmd.Context(), services.ScheduleShiftRequest{
				StaffID:   staffID,
				StartTime: args[1],
				EndTime:   args[2],
				WeekStart: utils.NewNullString(weekStart),
			})
			if err != nil {
				return err
			}
			printShifts(cmd.OutOrStdout(), []models.Shift{*shift})
			return nil
		}),
	}
	cmd.Flags().StringVar(&weekStart, "week-start", "", "roster week (YYYY-MM-DD); defaults to the week of START")
	return cmd
}

func newScheduleWeekCommand() *cobra.Command {
	var (
		weekStart string
		pairs     []string
	)
	cmd := &cobra.Command{
		Use:   "schedule-week STAFF_ID --shift START,END [--shift START,END ...]",
		Short: "Schedule several shifts for one staff member in a single transaction",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			staffID, err := utils.ParseID(args[0])
			if err != nil {
				return fmt.Errorf("invalid staff id %q", args[0])
			}
			intervals, err := parseShiftFlags(pairs)
			if err != nil {
				return err
			}
			shifts, err := a.rosters.ScheduleWeek(cmd.Context(), services.ScheduleWeekRequest{
				StaffID:   staffID,
				WeekStart: utils.NewNullString(weekStart),
				Shifts:    intervals,
			})
			if err != nil {
				return err
			}
			printShifts(cmd.OutOrStdout(), shifts)
			return nil
		}),
	}
	cmd.Flags().StringVar(&weekStart, "week-start", "", "roster week (YYYY-MM-DD); defaults to the week of the first shift")
	cmd.Flags().StringArrayVar(&pairs, "shift", nil, "START,END pair; repeat for each shift")
	_ = cmd.MarkFlagRequired("shift")
	return cmd
}

func parseShiftFlags(pairs []string) ([]services.ShiftInterval, error) {
	intervals := make([]services.ShiftInterval, 0, len(pairs))
	for _, p := range pairs {
		start, end, ok := strings.Cut(p, ",")
		if !ok || strings.TrimSpace(start) == "" || strings.TrimSpace(end) == "" {
			return nil, fmt.Errorf("invalid --shift %q: want START,END", p)
		}
		intervals = append(intervals, services.ShiftInterval{
			StartTime: strings.TrimSpace(start),
			EndTime:   strings.TrimSpace(end),
		})
	}
	return intervals, nil
}

func newViewRosterCommand() *cobra.Command {
	var weekStart string
	cmd := &cobra.Command{
		Use:   "view-roster",
		Short: "Show the roster for a week (default: the current week)",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			week, err := optionalDate(weekStart)
			if err != nil {
				return err
			}
			view, err := a.rosters.GetRoster(cmd.Context(), week)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Roster %d: %s to %s\n", view.ID,
				view.WeekStart.Format(utils.DateLayout), view.WeekEnd.Format(utils.DateLayout))
			if len(view.Shifts) == 0 {
				fmt.Fprintln(out, "No shifts scheduled.")
				return nil
			}
			printShifts(out, view.Shifts)
			return nil
		}),
	}
	cmd.Flags().StringVar(&weekStart, "week-start", "", "any date in the week (YYYY-MM-DD)")
	return cmd
}

type punchFunc func(a *app) func(*cobra.Command, int64, services.PunchRequest) (*models.AttendanceRecord, error)

func punchIn(a *app) func(*cobra.Command, int64, services.PunchRequest) (*models.AttendanceRecord, error) {
	return func(cmd *cobra.Command, staffID int64, req services.PunchRequest) (*models.AttendanceRecord, error) {
		return a.attendance.MarkTimeIn(cmd.Context(), staffID, req)
	}
}

func punchOut(a *app) func(*cobra.Command, int64, services.PunchRequest) (*models.AttendanceRecord, error) {
	return func(cmd *cobra.Command, staffID int64, req services.PunchRequest) (*models.AttendanceRecord, error) {
		return a.attendance.MarkTimeOut(cmd.Context(), staffID, req)
	}
}

func newPunchCommand(use, short string, punch punchFunc) *cobra.Command {
	var timestamp string
	cmd := &cobra.Command{
		Use:   use + " STAFF_ID SHIFT_ID",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			staffID, err := utils.ParseID(args[0])
			if err != nil {
				return fmt.Errorf("invalid staff id %q", args[0])
			}
			shiftID, err := utils.ParseID(args[1])
			if err != nil {
				return fmt.Errorf("invalid shift id %q", args[1])
			}
			rec, err := punch(a)(cmd, staffID, services.PunchRequest{
				ShiftID:   shiftID,
				Timestamp: utils.NewNullString(timestamp),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Attendance %d: time in %s, time out %s\n",
				rec.ID, formatPunch(rec.TimeIn), formatPunch(rec.TimeOut))
			return nil
		}),
	}
	cmd.Flags().StringVar(&timestamp, "timestamp", "", "punch time (YYYY-MM-DDTHH:MM); defaults to now")
	return cmd
}

func newViewShiftReportCommand() *cobra.Command {
	var weekStart string
	cmd := &cobra.Command{
		Use:   "view-shift-report",
		Short: "Generate, store and print the shift report for a week",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			week, err := utils.ParseDate(weekStart)
			if err != nil {
				return fmt.Errorf("invalid --week-start %q: want YYYY-MM-DD", weekStart)
			}
			report, err := a.reports.GenerateReportForWeek(cmd.Context(), week)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.Summary)
			return nil
		}),
	}
	cmd.Flags().StringVar(&weekStart, "week-start", "", "any date in the week (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("week-start")
	return cmd
}

func newExportAttendanceCommand() *cobra.Command {
	var weekStart, out string
	cmd := &cobra.Command{
		Use:   "export-attendance",
		Short: "Write a week's attendance to an xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			week, err := utils.ParseDate(weekStart)
			if err != nil {
				return fmt.Errorf("invalid --week-start %q: want YYYY-MM-DD", weekStart)
			}
			view, err := a.rosters.GetRoster(cmd.Context(), &week)
			if err != nil {
				return err
			}
			summary, err := a.reports.BuildSummary(cmd.Context(), view.ID)
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := reports.WriteWorkbook(f, *summary); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d attendance rows to %s.\n", len(summary.Entries), out)
			return nil
		}),
	}
	cmd.Flags().StringVar(&weekStart, "week-start", "", "any date in the week (YYYY-MM-DD)")
	cmd.Flags().StringVar(&out, "out", "attendance.xlsx", "output file")
	_ = cmd.MarkFlagRequired("week-start")
	return cmd
}

func printShifts(w io.Writer, shifts []models.Shift) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTAFF\tSTART\tEND\tHOURS")
	for _, s := range shifts {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.2f\n", s.ID, shiftStaff(s),
			s.StartTime.Format(utils.DisplayLayout), s.EndTime.Format(utils.DisplayLayout), s.Duration().Hours())
	}
	tw.Flush()
}

func shiftStaff(s models.Shift) string {
	switch {
	case s.StaffName != nil:
		return *s.StaffName
	case s.StaffID != nil:
		return utils.Int64ToStr(*s.StaffID)
	default:
		return "unassigned"
	}
}

func formatPunch(t *time.Time) string {
	if t == nil {
		return reports.MissingPunch
	}
	return t.Format(utils.DisplayLayout)
}

func optionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := utils.ParseDate(s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return &d, nil
}
