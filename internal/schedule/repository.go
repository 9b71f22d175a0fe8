package schedule

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrSlotNotFound = errors.New("interview slot not found")
	ErrPhoneTaken   = errors.New("phone number already registered")
)

// Repository contains all store interactions needed by the service.
//
// DeleteSlot, DeleteBlock and DeleteNotification are idempotent: deleting a
// row that is already gone succeeds with no effect.
//
// The Postgres implementation backs the overlap check with an exclusion
// constraint on (date, interval) over active scheduled slots, so a
// conflicting write fails at the store even if the application-level check
// was raced.
type Repository interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByPhone(ctx context.Context, phone string) (*User, error)
	// ListInterviewers returns interviewers in creation order; default
	// assignment depends on this order being stable.
	ListInterviewers(ctx context.Context) ([]User, error)
	CreateUser(ctx context.Context, u *User) error
	SetUserApproved(ctx context.Context, id uuid.UUID, approved bool) error

	GetSlotByID(ctx context.Context, id uuid.UUID) (*InterviewSlot, error)
	ListSlotsOnDate(ctx context.Context, date string) ([]InterviewSlot, error)
	ListSlotsForStudent(ctx context.Context, studentID uuid.UUID) ([]InterviewSlot, error)
	// FindPlaceholderForStudent returns the student's unscheduled slot, or
	// ErrSlotNotFound if every slot they own carries a booking.
	FindPlaceholderForStudent(ctx context.Context, studentID uuid.UUID) (*InterviewSlot, error)
	CreateSlot(ctx context.Context, s *InterviewSlot) error
	// FillSlotBooking writes a booking and interviewer onto an existing slot
	// in place, keeping its id.
	FillSlotBooking(ctx context.Context, id uuid.UUID, b Booking, interviewerID *uuid.UUID) (*InterviewSlot, error)
	UpdateSlotStage(ctx context.Context, id uuid.UUID, stage Stage) (*InterviewSlot, error)
	UpdateSlotInterviewer(ctx context.Context, id uuid.UUID, interviewerID uuid.UUID) (*InterviewSlot, error)
	DeleteSlot(ctx context.Context, id uuid.UUID) error

	ListBlocksOnDate(ctx context.Context, date string) ([]BlockedSlot, error)
	CreateBlock(ctx context.Context, b *BlockedSlot) error
	DeleteBlock(ctx context.Context, id uuid.UUID) error

	CreateNotification(ctx context.Context, n *Notification) error
	ListNotificationsForUser(ctx context.Context, userID uuid.UUID) ([]Notification, error)
	DeleteNotification(ctx context.Context, id uuid.UUID) error

	// FetchState loads the entire store in one shot for optimistic reads.
	FetchState(ctx context.Context) (*Snapshot, error)
}
