package schedule

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleInterviewer Role = "INTERVIEWER"
	RoleStudent     Role = "STUDENT"
)

// Stage is the pipeline tag on an interview slot. It is independent of
// whether the slot is scheduled yet.
type Stage string

const (
	StageClasses      Stage = "Classes"
	StageInterviews   Stage = "Interviews"
	StageSuccessful   Stage = "Successful"
	StageUnsuccessful Stage = "Unsuccessful"
)

// Active reports whether slots in this stage participate in overlap
// conflict checks. Successful/Unsuccessful are terminal and release their
// calendar time.
func (s Stage) Active() bool {
	return s == StageClasses || s == StageInterviews
}

// Terminal reports whether the stage is an end state of the pipeline.
func (s Stage) Terminal() bool {
	return s == StageSuccessful || s == StageUnsuccessful
}

func (s Stage) Valid() bool {
	switch s {
	case StageClasses, StageInterviews, StageSuccessful, StageUnsuccessful:
		return true
	}
	return false
}

type User struct {
	ID        uuid.UUID
	Name      string
	Phone     string // doubles as the login username for interviewers
	Email     *string
	Role      Role
	Password  *string // opaque to the core; auth lives outside
	Approved  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Booking holds the scheduled half of an interview slot. A slot without a
// Booking is a placeholder: the student is registered but has not picked a
// time yet, and the slot takes no calendar space.
type Booking struct {
	Date            string // YYYY-MM-DD, naive local date
	StartMinutes    int    // minutes since midnight
	DurationMinutes int    // always > 0
	CompanyName     string
}

// End returns the exclusive end of the booked interval in minutes.
func (b Booking) End() int {
	return b.StartMinutes + b.DurationMinutes
}

type InterviewSlot struct {
	ID            uuid.UUID
	StudentID     uuid.UUID
	InterviewerID *uuid.UUID // nil while pooled/unassigned
	Stage         Stage
	Booking       *Booking // nil for placeholders
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Scheduled reports whether the slot carries a real booking.
func (s *InterviewSlot) Scheduled() bool {
	return s.Booking != nil
}

// BlocksCalendar reports whether the slot occupies calendar time for
// conflict purposes: scheduled and still in an active pipeline stage.
func (s *InterviewSlot) BlocksCalendar() bool {
	return s.Scheduled() && s.Stage.Active()
}

// BlockedSlot is an admin-declared blackout window. EndMinutes is exclusive.
type BlockedSlot struct {
	ID           uuid.UUID
	Date         string
	StartMinutes int
	EndMinutes   int
	Reason       *string
	CreatedAt    time.Time
}

type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Message   string
	Read      bool
	CreatedAt time.Time
}

// Snapshot is the wholesale fetch-state result. Calculators run against a
// snapshot, which may be arbitrarily stale; the booking path re-reads
// authoritative state before committing.
type Snapshot struct {
	Users         []User
	Slots         []InterviewSlot
	Blocks        []BlockedSlot
	Notifications []Notification
}
