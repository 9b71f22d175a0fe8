package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/interviewflow/interviewflow/internal/config"
	redisclient "github.com/interviewflow/interviewflow/internal/redis"
)

var (
	ErrStudentNotApproved  = errors.New("student is not approved for booking")
	ErrNotAStudent         = errors.New("user is not a student")
	ErrNotAnInterviewer    = errors.New("user is not an interviewer")
	ErrCompanyNameRequired = errors.New("company name is required to confirm a booking")
	ErrSlotFinalized       = errors.New("slot is in a terminal stage")
	ErrInvalidStage        = errors.New("unknown stage")
	ErrInvalidBlockWindow  = errors.New("block window end must be after start")
	ErrDateBeingBooked     = errors.New("calendar date is currently being booked, please retry")
)

type Service struct {
	repo   Repository
	locker redisclient.Locker
	cfg    config.Config
	log    *zap.Logger
}

func NewService(repo Repository, locker redisclient.Locker, cfg config.Config, log *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		cfg:    cfg,
		log:    log,
	}
}

// RegisterStudent creates an unapproved student account. Booking stays
// unavailable until an admin approves them.
func (s *Service) RegisterStudent(ctx context.Context, name, phone string) (*User, error) {
	if _, err := s.repo.GetUserByPhone(ctx, phone); err == nil {
		return nil, ErrPhoneTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("check phone: %w", err)
	}

	u := &User{
		ID:       uuid.New(),
		Name:     name,
		Phone:    phone,
		Role:     RoleStudent,
		Approved: false,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create student: %w", err)
	}

	s.log.Info("student registered", zap.String("student_id", u.ID.String()))
	return u, nil
}

// ApproveStudent marks a student approved and ensures they own exactly one
// placeholder slot. Re-approving never creates a second placeholder.
func (s *Service) ApproveStudent(ctx context.Context, studentID uuid.UUID) (*InterviewSlot, error) {
	u, err := s.repo.GetUserByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load student: %w", err)
	}
	if u.Role != RoleStudent {
		return nil, ErrNotAStudent
	}

	if err := s.repo.SetUserApproved(ctx, studentID, true); err != nil {
		return nil, fmt.Errorf("approve student: %w", err)
	}

	placeholder, err := s.repo.FindPlaceholderForStudent(ctx, studentID)
	if err == nil {
		return placeholder, nil
	}
	if !errors.Is(err, ErrSlotNotFound) {
		return nil, fmt.Errorf("find placeholder: %w", err)
	}

	placeholder = &InterviewSlot{
		ID:        uuid.New(),
		StudentID: studentID,
		Stage:     StageClasses,
	}
	if err := s.repo.CreateSlot(ctx, placeholder); err != nil {
		return nil, fmt.Errorf("create placeholder: %w", err)
	}

	s.log.Info("student approved",
		zap.String("student_id", studentID.String()),
		zap.String("placeholder_id", placeholder.ID.String()))
	return placeholder, nil
}

// AddCandidate is the admin shortcut: a pre-approved student with a
// placeholder, skipping self-registration.
func (s *Service) AddCandidate(ctx context.Context, name, phone string) (*User, error) {
	if _, err := s.repo.GetUserByPhone(ctx, phone); err == nil {
		return nil, ErrPhoneTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("check phone: %w", err)
	}

	u := &User{
		ID:       uuid.New(),
		Name:     name,
		Phone:    phone,
		Role:     RoleStudent,
		Approved: true,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create candidate: %w", err)
	}

	placeholder := &InterviewSlot{
		ID:        uuid.New(),
		StudentID: u.ID,
		Stage:     StageClasses,
	}
	if err := s.repo.CreateSlot(ctx, placeholder); err != nil {
		return nil, fmt.Errorf("create placeholder: %w", err)
	}

	return u, nil
}

func (s *Service) CreateInterviewer(ctx context.Context, name, username, password, email string) (*User, error) {
	if _, err := s.repo.GetUserByPhone(ctx, username); err == nil {
		return nil, ErrPhoneTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("check username: %w", err)
	}

	u := &User{
		ID:       uuid.New(),
		Name:     name,
		Phone:    username,
		Email:    &email,
		Role:     RoleInterviewer,
		Password: &password,
		Approved: true,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create interviewer: %w", err)
	}
	return u, nil
}

// Availability renders the slot grid for a student, date and duration. The
// read is optimistic: the grid may go stale the moment it is returned, and
// Schedule re-validates before committing.
func (s *Service) Availability(ctx context.Context, studentID uuid.UUID, date string, durationMinutes int, now time.Time) ([]GridSlot, error) {
	slots, err := s.repo.ListSlotsOnDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list slots on date: %w", err)
	}
	blocks, err := s.repo.ListBlocksOnDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list blocks on date: %w", err)
	}
	return ComputeGrid(date, durationMinutes, studentID, slots, blocks, now)
}

// Schedule books an interval for a student. It re-validates against
// authoritative state inside the per-date lock and issues exactly one write:
// the student's placeholder is filled in place when one exists, otherwise a
// new scheduled slot is inserted. The Postgres exclusion constraint backs
// this up, so a racing writer that slips past the lock still fails.
func (s *Service) Schedule(ctx context.Context, studentID uuid.UUID, date string, startMinutes, durationMinutes int, companyName string) (*InterviewSlot, error) {
	if durationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}
	if s.cfg.RequireCompanyName && companyName == "" {
		return nil, ErrCompanyNameRequired
	}

	student, err := s.repo.GetUserByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load student: %w", err)
	}
	if student.Role != RoleStudent {
		return nil, ErrNotAStudent
	}
	if !student.Approved {
		return nil, ErrStudentNotApproved
	}

	var booked *InterviewSlot

	err = s.locker.WithDateLock(ctx, date, func(lockCtx context.Context) error {
		slotsOnDate, err := s.repo.ListSlotsOnDate(lockCtx, date)
		if err != nil {
			return fmt.Errorf("list slots on date: %w", err)
		}
		blocksOnDate, err := s.repo.ListBlocksOnDate(lockCtx, date)
		if err != nil {
			return fmt.Errorf("list blocks on date: %w", err)
		}

		placeholder, err := s.repo.FindPlaceholderForStudent(lockCtx, studentID)
		if err != nil && !errors.Is(err, ErrSlotNotFound) {
			return fmt.Errorf("find placeholder: %w", err)
		}

		excludeID := uuid.Nil
		if placeholder != nil {
			excludeID = placeholder.ID
		}
		if conflict := ValidateBooking(date, startMinutes, durationMinutes, excludeID, slotsOnDate, blocksOnDate); conflict != nil {
			return conflict
		}

		interviewerID, err := s.defaultInterviewer(lockCtx)
		if err != nil {
			return err
		}

		booking := Booking{
			Date:            date,
			StartMinutes:    startMinutes,
			DurationMinutes: durationMinutes,
			CompanyName:     companyName,
		}

		if placeholder != nil {
			booked, err = s.repo.FillSlotBooking(lockCtx, placeholder.ID, booking, interviewerID)
			if err != nil {
				return fmt.Errorf("fill placeholder: %w", err)
			}
			return nil
		}

		slot := &InterviewSlot{
			ID:            uuid.New(),
			StudentID:     studentID,
			InterviewerID: interviewerID,
			Stage:         StageClasses,
			Booking:       &booking,
		}
		if err := s.repo.CreateSlot(lockCtx, slot); err != nil {
			return fmt.Errorf("create slot: %w", err)
		}
		booked = slot
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrDateBeingBooked
		}
		return nil, err
	}

	s.log.Info("interview booked",
		zap.String("slot_id", booked.ID.String()),
		zap.String("student_id", studentID.String()),
		zap.String("date", date),
		zap.String("start", FormatClock(startMinutes)),
		zap.Int("duration_minutes", durationMinutes))
	return booked, nil
}

// defaultInterviewer resolves the pooled assignment: first interviewer in
// stable creation order, or nil when none exist yet.
func (s *Service) defaultInterviewer(ctx context.Context) (*uuid.UUID, error) {
	interviewers, err := s.repo.ListInterviewers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list interviewers: %w", err)
	}
	if len(interviewers) == 0 {
		return nil, nil
	}
	id := interviewers[0].ID
	return &id, nil
}

// UpdateStage moves a slot between pipeline stages. Any of the four stages
// may follow any other; admins use this to walk candidates both ways.
func (s *Service) UpdateStage(ctx context.Context, slotID uuid.UUID, stage Stage) (*InterviewSlot, error) {
	if !stage.Valid() {
		return nil, ErrInvalidStage
	}
	slot, err := s.repo.UpdateSlotStage(ctx, slotID, stage)
	if err != nil {
		return nil, fmt.Errorf("update stage: %w", err)
	}
	return slot, nil
}

// Assign reattaches a slot to an interviewer. Terminal-stage slots are
// frozen; the target must actually be an interviewer.
func (s *Service) Assign(ctx context.Context, slotID, interviewerID uuid.UUID) (*InterviewSlot, error) {
	interviewer, err := s.repo.GetUserByID(ctx, interviewerID)
	if err != nil {
		return nil, fmt.Errorf("load interviewer: %w", err)
	}
	if interviewer.Role != RoleInterviewer {
		return nil, ErrNotAnInterviewer
	}

	slot, err := s.repo.GetSlotByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("load slot: %w", err)
	}
	if slot.Stage.Terminal() {
		return nil, ErrSlotFinalized
	}

	updated, err := s.repo.UpdateSlotInterviewer(ctx, slotID, interviewerID)
	if err != nil {
		return nil, fmt.Errorf("assign interviewer: %w", err)
	}
	return updated, nil
}

// Cancel removes a slot. Cancelling an id that no longer exists is a no-op:
// the other session already got there first and the outcome is the same.
func (s *Service) Cancel(ctx context.Context, slotID uuid.UUID) error {
	if err := s.repo.DeleteSlot(ctx, slotID); err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	s.log.Info("interview cancelled", zap.String("slot_id", slotID.String()))
	return nil
}

// AdminCancel removes a slot on behalf of an admin and notifies the owning
// student. Idempotent like Cancel; no notification when the slot is already
// gone.
func (s *Service) AdminCancel(ctx context.Context, slotID uuid.UUID) error {
	slot, err := s.repo.GetSlotByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			return nil
		}
		return fmt.Errorf("load slot: %w", err)
	}

	if slot.Scheduled() {
		n := &Notification{
			ID:     uuid.New(),
			UserID: slot.StudentID,
			Message: fmt.Sprintf(
				"Admin cancelled your interview on %s at %s. Please contact them and reschedule.",
				slot.Booking.Date, FormatClock(slot.Booking.StartMinutes)),
			CreatedAt: time.Now(),
		}
		if err := s.repo.CreateNotification(ctx, n); err != nil {
			return fmt.Errorf("create notification: %w", err)
		}
	}

	if err := s.repo.DeleteSlot(ctx, slotID); err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}

	s.log.Info("interview cancelled by admin",
		zap.String("slot_id", slotID.String()),
		zap.String("student_id", slot.StudentID.String()))
	return nil
}

// BlockWindow declares an admin blackout. Existing bookings inside the
// window stay put; the block only stops new ones.
func (s *Service) BlockWindow(ctx context.Context, date string, startMinutes, endMinutes int, reason string) (*BlockedSlot, error) {
	if endMinutes <= startMinutes {
		return nil, ErrInvalidBlockWindow
	}

	b := &BlockedSlot{
		ID:           uuid.New(),
		Date:         date,
		StartMinutes: startMinutes,
		EndMinutes:   endMinutes,
	}
	if reason != "" {
		b.Reason = &reason
	}
	if err := s.repo.CreateBlock(ctx, b); err != nil {
		return nil, fmt.Errorf("create block: %w", err)
	}

	s.log.Info("blackout window created",
		zap.String("block_id", b.ID.String()),
		zap.String("date", date),
		zap.String("start", FormatClock(startMinutes)),
		zap.String("end", FormatClock(endMinutes)))
	return b, nil
}

// Unblock removes a blackout window. Idempotent.
func (s *Service) Unblock(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteBlock(ctx, id); err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	return nil
}

func (s *Service) Notifications(ctx context.Context, userID uuid.UUID) ([]Notification, error) {
	ns, err := s.repo.ListNotificationsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return ns, nil
}

// ClearNotification dismisses a notification. Idempotent.
func (s *Service) ClearNotification(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteNotification(ctx, id); err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}

// State returns the wholesale authoritative snapshot. Clients refetch it on
// any change signal instead of patching their local copy.
func (s *Service) State(ctx context.Context) (*Snapshot, error) {
	snap, err := s.repo.FetchState(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch state: %w", err)
	}
	return snap, nil
}
