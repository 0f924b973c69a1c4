package reports

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"rostering_backend/pkg/utils"
)

const (
	boxRule       = "+--------------------------------------+"
	entryRule     = "----------------------------------------"
	totalHoursTag = " Total Hours Worked: "
)

// ErrNoTotal is returned by ParseTotalHours when the text has no overall total line.
var ErrNoTotal = errors.New("report text has no total hours line")

// Render produces the report text. Output depends only on s.
func Render(s Summary) string {
	var b strings.Builder

	b.WriteString("Shift Report\n")
	b.WriteString(boxRule + "\n")
	fmt.Fprintf(&b, " Week: %s → %s\n", s.WeekStart.Format(utils.DateLayout), s.WeekEnd.Format(utils.DateLayout))
	b.WriteString(boxRule + "\n")

	for _, e := range s.Entries {
		b.WriteString("\n")
		fmt.Fprintf(&b, "Staff: %s\n", e.StaffName)
		if e.ShiftStart != nil && e.ShiftEnd != nil {
			fmt.Fprintf(&b, " Shift: %s → %s\n", e.ShiftStart.Format(utils.DisplayLayout), e.ShiftEnd.Format(utils.DisplayLayout))
		} else {
			fmt.Fprintf(&b, " Shift: %s\n", NoShiftInfo)
		}
		fmt.Fprintf(&b, " Time In: %s | Time Out: %s\n", punch(e.TimeIn), punch(e.TimeOut))
		if e.Complete {
			fmt.Fprintf(&b, " Hours Worked: %.2f\n", e.Hours)
		} else {
			fmt.Fprintf(&b, " Hours Worked: %s\n", IncompleteMarker)
		}
		b.WriteString(entryRule + "\n")
	}

	b.WriteString("\nSummary of Hours Worked (per staff):\n")
	for _, t := range s.StaffTotals {
		fmt.Fprintf(&b, " %s: %.2f hrs\n", t.Name, t.Hours)
	}

	b.WriteString("\nOverall Summary:\n")
	fmt.Fprintf(&b, " Total Shifts: %d\n", s.TotalShifts)
	fmt.Fprintf(&b, " Total Staff: %d\n", s.TotalStaff())
	fmt.Fprintf(&b, "%s%.2f hrs", totalHoursTag, s.TotalHours)

	return b.String()
}

func punch(t *time.Time) string {
	if t == nil {
		return MissingPunch
	}
	return t.Format(utils.DisplayLayout)
}

// ParseTotalHours reads the overall total back out of rendered report text.
func ParseTotalHours(text string) (float64, error) {
	for _, line := range strings.Split(text, "\n") {
		if !strings.HasPrefix(line, totalHoursTag) {
			continue
		}
		value := strings.TrimSuffix(strings.TrimPrefix(line, totalHoursTag), " hrs")
		hours, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0, fmt.Errorf("parsing total hours %q: %w", value, err)
		}
		return hours, nil
	}
	return 0, ErrNoTotal
}
