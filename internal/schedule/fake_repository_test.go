package schedule

import (
	"context"

	"github.com/google/uuid"
)

// memRepo is an in-memory Repository for service tests. Slices keep
// insertion order, which the default-assignment policy depends on.
type memRepo struct {
	users  []User
	slots  []InterviewSlot
	blocks []BlockedSlot
	notifs []Notification
}

// memLocker runs the critical section directly; the tests are
// single-threaded so there is nothing to serialize.
type memLocker struct{}

func (memLocker) WithDateLock(ctx context.Context, date string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func cloneSlot(s InterviewSlot) *InterviewSlot {
	out := s
	if s.Booking != nil {
		b := *s.Booking
		out.Booking = &b
	}
	return &out
}

func (r *memRepo) GetUserByID(_ context.Context, id uuid.UUID) (*User, error) {
	for i := range r.users {
		if r.users[i].ID == id {
			u := r.users[i]
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memRepo) GetUserByPhone(_ context.Context, phone string) (*User, error) {
	for i := range r.users {
		if r.users[i].Phone == phone {
			u := r.users[i]
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memRepo) ListInterviewers(_ context.Context) ([]User, error) {
	var out []User
	for _, u := range r.users {
		if u.Role == RoleInterviewer {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *memRepo) CreateUser(_ context.Context, u *User) error {
	r.users = append(r.users, *u)
	return nil
}

func (r *memRepo) SetUserApproved(_ context.Context, id uuid.UUID, approved bool) error {
	for i := range r.users {
		if r.users[i].ID == id {
			r.users[i].Approved = approved
			return nil
		}
	}
	return ErrUserNotFound
}

func (r *memRepo) GetSlotByID(_ context.Context, id uuid.UUID) (*InterviewSlot, error) {
	for i := range r.slots {
		if r.slots[i].ID == id {
			return cloneSlot(r.slots[i]), nil
		}
	}
	return nil, ErrSlotNotFound
}

func (r *memRepo) ListSlotsOnDate(_ context.Context, date string) ([]InterviewSlot, error) {
	var out []InterviewSlot
	for i := range r.slots {
		if r.slots[i].Booking != nil && r.slots[i].Booking.Date == date {
			out = append(out, *cloneSlot(r.slots[i]))
		}
	}
	return out, nil
}

func (r *memRepo) ListSlotsForStudent(_ context.Context, studentID uuid.UUID) ([]InterviewSlot, error) {
	var out []InterviewSlot
	for i := range r.slots {
		if r.slots[i].StudentID == studentID {
			out = append(out, *cloneSlot(r.slots[i]))
		}
	}
	return out, nil
}

func (r *memRepo) FindPlaceholderForStudent(_ context.Context, studentID uuid.UUID) (*InterviewSlot, error) {
	for i := range r.slots {
		if r.slots[i].StudentID == studentID && r.slots[i].Booking == nil {
			return cloneSlot(r.slots[i]), nil
		}
	}
	return nil, ErrSlotNotFound
}

func (r *memRepo) CreateSlot(_ context.Context, s *InterviewSlot) error {
	r.slots = append(r.slots, *cloneSlot(*s))
	return nil
}

func (r *memRepo) FillSlotBooking(_ context.Context, id uuid.UUID, b Booking, interviewerID *uuid.UUID) (*InterviewSlot, error) {
	for i := range r.slots {
		if r.slots[i].ID == id {
			booking := b
			r.slots[i].Booking = &booking
			r.slots[i].InterviewerID = interviewerID
			return cloneSlot(r.slots[i]), nil
		}
	}
	return nil, ErrSlotNotFound
}

func (r *memRepo) UpdateSlotStage(_ context.Context, id uuid.UUID, stage Stage) (*InterviewSlot, error) {
	for i := range r.slots {
		if r.slots[i].ID == id {
			r.slots[i].Stage = stage
			return cloneSlot(r.slots[i]), nil
		}
	}
	return nil, ErrSlotNotFound
}

func (r *memRepo) UpdateSlotInterviewer(_ context.Context, id uuid.UUID, interviewerID uuid.UUID) (*InterviewSlot, error) {
	for i := range r.slots {
		if r.slots[i].ID == id {
			r.slots[i].InterviewerID = &interviewerID
			return cloneSlot(r.slots[i]), nil
		}
	}
	return nil, ErrSlotNotFound
}

func (r *memRepo) DeleteSlot(_ context.Context, id uuid.UUID) error {
	for i := range r.slots {
		if r.slots[i].ID == id {
			r.slots = append(r.slots[:i], r.slots[i+1:]...)
			return nil
		}
	}
	return nil // idempotent
}

func (r *memRepo) ListBlocksOnDate(_ context.Context, date string) ([]BlockedSlot, error) {
	var out []BlockedSlot
	for _, b := range r.blocks {
		if b.Date == date {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memRepo) CreateBlock(_ context.Context, b *BlockedSlot) error {
	r.blocks = append(r.blocks, *b)
	return nil
}

func (r *memRepo) DeleteBlock(_ context.Context, id uuid.UUID) error {
	for i := range r.blocks {
		if r.blocks[i].ID == id {
			r.blocks = append(r.blocks[:i], r.blocks[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *memRepo) CreateNotification(_ context.Context, n *Notification) error {
	r.notifs = append(r.notifs, *n)
	return nil
}

func (r *memRepo) ListNotificationsForUser(_ context.Context, userID uuid.UUID) ([]Notification, error) {
	var out []Notification
	for _, n := range r.notifs {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *memRepo) DeleteNotification(_ context.Context, id uuid.UUID) error {
	for i := range r.notifs {
		if r.notifs[i].ID == id {
			r.notifs = append(r.notifs[:i], r.notifs[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *memRepo) FetchState(_ context.Context) (*Snapshot, error) {
	snap := &Snapshot{
		Users:         append([]User(nil), r.users...),
		Blocks:        append([]BlockedSlot(nil), r.blocks...),
		Notifications: append([]Notification(nil), r.notifs...),
	}
	for i := range r.slots {
		snap.Slots = append(snap.Slots, *cloneSlot(r.slots[i]))
	}
	return snap, nil
}
