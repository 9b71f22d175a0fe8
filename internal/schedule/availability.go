package schedule

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SlotStatus labels a candidate start time on the availability grid.
type SlotStatus string

const (
	StatusAvailable SlotStatus = "available"
	StatusBooked    SlotStatus = "booked"  // taken by another student
	StatusMine      SlotStatus = "mine"    // taken by the requesting student
	StatusBlocked   SlotStatus = "blocked" // inside an admin blackout
)

type GridSlot struct {
	StartMinutes int
	Status       SlotStatus
}

// Clock renders the slot's start as HH:MM.
func (g GridSlot) Clock() string {
	return FormatClock(g.StartMinutes)
}

var ErrInvalidDuration = errors.New("duration must be a positive number of minutes")

// ComputeGrid renders the availability grid for one calendar date.
//
// Candidate starts run from 09:00 through 20:30 inclusive in fixed
// 15-minute steps regardless of the requested duration; duration only
// widens the conflict window, so the 20:30 start of a long interview runs
// past closing. That matches long-standing behavior and callers rely on it.
//
// The result is display-quality only. It may be computed from a stale
// snapshot; ValidateBooking is the authoritative check at commit time.
func ComputeGrid(date string, durationMinutes int, studentID uuid.UUID, slotsOnDate []InterviewSlot, blocksOnDate []BlockedSlot, now time.Time) ([]GridSlot, error) {
	if durationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	today := date == FormatDate(now)
	nowMinutes := minutesOfDay(now)

	grid := make([]GridSlot, 0, (HoursEndMinutes-HoursStartMinutes)/SlotStepMinutes+1)
	for start := HoursStartMinutes; start <= HoursEndMinutes; start += SlotStepMinutes {
		if today && start < nowMinutes {
			// Past starts are omitted entirely, not shown disabled.
			continue
		}
		grid = append(grid, GridSlot{
			StartMinutes: start,
			Status:       classifyStart(date, start, start+durationMinutes, studentID, slotsOnDate, blocksOnDate),
		})
	}
	return grid, nil
}

// classifyStart applies the status priority order: blackout beats booked,
// booked beats available.
func classifyStart(date string, start, end int, studentID uuid.UUID, slots []InterviewSlot, blocks []BlockedSlot) SlotStatus {
	for _, b := range blocks {
		if b.Date == date && Overlaps(start, end, b.StartMinutes, b.EndMinutes) {
			return StatusBlocked
		}
	}

	status := StatusAvailable
	for i := range slots {
		s := &slots[i]
		if !s.BlocksCalendar() || s.Booking.Date != date {
			continue
		}
		if !Overlaps(start, end, s.Booking.StartMinutes, s.Booking.End()) {
			continue
		}
		if s.StudentID == studentID {
			return StatusMine
		}
		status = StatusBooked
	}
	return status
}
