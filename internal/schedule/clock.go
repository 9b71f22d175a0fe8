package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Working hours of the shared calendar, in minutes since midnight.
// 09:00 through 20:30; the 20:30 start is itself bookable.
const (
	HoursStartMinutes = 9 * 60
	HoursEndMinutes   = 20*60 + 30
	SlotStepMinutes   = 15
)

const dateLayout = "2006-01-02"

// ParseClock converts "HH:MM" to minutes since midnight.
func ParseClock(s string) (int, error) {
	h, m, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	hours, err := strconv.Atoi(h)
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	mins, err := strconv.Atoi(m)
	if err != nil || mins < 0 || mins > 59 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	return hours*60 + mins, nil
}

// FormatClock is the inverse of ParseClock, zero-padded.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseDate validates a YYYY-MM-DD calendar date and returns it normalized.
func ParseDate(s string) (string, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q", s)
	}
	return t.Format(dateLayout), nil
}

// FormatDate renders t's calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Touching boundaries do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return max(aStart, bStart) < min(aEnd, bEnd)
}

// minutesOfDay returns t's offset into its day, in minutes.
func minutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
