package schedule

import (
	"fmt"

	"github.com/google/uuid"
)

type ConflictKind string

const (
	ConflictBlockedByAdmin      ConflictKind = "blocked_by_admin"
	ConflictOverlapsExisting    ConflictKind = "overlaps_existing"
	ConflictOutsideWorkingHours ConflictKind = "outside_working_hours"
)

// ConflictError is the typed rejection returned by ValidateBooking. For
// overlap conflicts it names the slot already holding the interval.
type ConflictError struct {
	Kind              ConflictKind
	ConflictingSlotID uuid.UUID
}

func (e *ConflictError) Error() string {
	switch e.Kind {
	case ConflictBlockedByAdmin:
		return "requested interval falls inside an admin blackout window"
	case ConflictOverlapsExisting:
		return fmt.Sprintf("requested interval overlaps existing interview %s", e.ConflictingSlotID)
	case ConflictOutsideWorkingHours:
		return "requested start is outside working hours"
	}
	return string(e.Kind)
}

// ValidateBooking re-checks a chosen start against the current authoritative
// state. The grid a student picked from may have been stale, so this runs
// immediately before the write, inside the per-date lock. excludeSlotID
// skips the slot being filled or rescheduled (uuid.Nil to skip nothing).
//
// A nil return means the interval is bookable.
func ValidateBooking(date string, startMinutes, durationMinutes int, excludeSlotID uuid.UUID, slotsOnDate []InterviewSlot, blocksOnDate []BlockedSlot) *ConflictError {
	if startMinutes < HoursStartMinutes || startMinutes > HoursEndMinutes {
		return &ConflictError{Kind: ConflictOutsideWorkingHours}
	}

	end := startMinutes + durationMinutes

	for _, b := range blocksOnDate {
		if b.Date == date && Overlaps(startMinutes, end, b.StartMinutes, b.EndMinutes) {
			return &ConflictError{Kind: ConflictBlockedByAdmin}
		}
	}

	for i := range slotsOnDate {
		s := &slotsOnDate[i]
		if s.ID == excludeSlotID || !s.BlocksCalendar() || s.Booking.Date != date {
			continue
		}
		if Overlaps(startMinutes, end, s.Booking.StartMinutes, s.Booking.End()) {
			return &ConflictError{Kind: ConflictOverlapsExisting, ConflictingSlotID: s.ID}
		}
	}

	return nil
}
