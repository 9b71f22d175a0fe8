package schedule

import (
	"context"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/interviewflow/interviewflow/internal/config"
)

func newTestService(repo *memRepo, requireCompany bool) *Service {
	cfg := config.Config{RequireCompanyName: requireCompany}
	return NewService(repo, memLocker{}, cfg, zap.NewNop())
}

func addStudent(repo *memRepo, approved, withPlaceholder bool) uuid.UUID {
	id := uuid.New()
	repo.users = append(repo.users, User{
		ID:       id,
		Name:     "Student",
		Phone:    "phone-" + id.String()[:8],
		Role:     RoleStudent,
		Approved: approved,
	})
	if withPlaceholder {
		repo.slots = append(repo.slots, InterviewSlot{
			ID:        uuid.New(),
			StudentID: id,
			Stage:     StageClasses,
		})
	}
	return id
}

func addInterviewer(repo *memRepo, name string) uuid.UUID {
	id := uuid.New()
	repo.users = append(repo.users, User{
		ID:       id,
		Name:     name,
		Phone:    "user-" + id.String()[:8],
		Role:     RoleInterviewer,
		Approved: true,
	})
	return id
}

func TestSchedulePlaceholderFilledInPlace(t *testing.T) {
	repo := &memRepo{}
	svc := newTestService(repo, true)
	studentID := addStudent(repo, true, true)
	interviewerID := addInterviewer(repo, "First")
	placeholderID := repo.slots[0].ID

	booked, err := svc.Schedule(context.Background(), studentID, gridDate, 10*60, 60, "Acme")
	require.NoError(t, err)

	assert.Equal(t, placeholderID, booked.ID, "placeholder must be filled in place, not replaced")
	require.NotNil(t, booked.Booking)
	assert.Equal(t, gridDate, booked.Booking.Date)
	assert.Equal(t, 10*60, booked.Booking.StartMinutes)
	assert.Equal(t, 60, booked.Booking.DurationMinutes)
	assert.Equal(t, "Acme", booked.Booking.CompanyName)
	require.NotNil(t, booked.InterviewerID)
	assert.Equal(t, interviewerID, *booked.InterviewerID)

	owned, err := repo.ListSlotsForStudent(context.Background(), studentID)
	require.NoError(t, err)
	assert.Len(t, owned, 1, "booking must not leave a second row behind")
}

func TestScheduleCreatesSlotWithoutPlaceholder(t *testing.T) {
	repo := &memRepo{}
	svc := newTestService(repo, true)
	studentID := addStudent(repo, true, false)

	booked, err := svc.Schedule(context.Background(), studentID, gridDate, 9*60, 30, "Acme")
	require.NoError(t, err)
	assert.Equal(t, StageClasses, booked.Stage)
	assert.Nil(t, booked.InterviewerID, "no interviewers exist, slot stays pooled")

	owned, _ := repo.ListSlotsForStudent(context.Background(), studentID)
	assert.Len(t, owned, 1)
}

func TestDefaultAssignmentIsDeterministic(t *testing.T) {
	repo := &memRepo{}
	svc := newTestService(repo, true)
	first := addInterviewer(repo, "First")
	addInterviewer(repo, "Second")
	addInterviewer(repo, "Third")

	// Repeated unassigned bookings all land on the first interviewer.
	for i := 0; i < 5; i++ {
		studentID := addStudent(repo, true, false)
		start := 9*60 + i*120
		booked, err := svc.Schedule(context.Background(), studentID, gridDate, start, 60, "Acme")
		require.NoError(t, err)
		require.NotNil(t, booked.InterviewerID)
		assert.Equal(t, first, *booked.InterviewerID)
	}
}

func TestScheduleRejectsOverlap(t *testing.T) {
	repo := &memRepo{}
	svc := newTestService(repo, true)
	alice := addStudent(repo, true, false)
	bob := addStudent(repo, true, true)
	bobPlaceholder := repo.slots[0].ID

	booked, err := svc.Schedule(context.Background(), alice, gridDate, 14*60, 60, "Acme")
	require.NoError(t, err)

	_, err = svc.Schedule(context.Background(), bob, gridDate, 14*60+30, 60, "Globex")
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, ConflictOverlapsExisting, conflict.Kind)
	assert.Equal(t, booked.ID, conflict.ConflictingSlotID)

	// No partial writes: bob's placeholder is still unscheduled.
	slot, err := repo.GetSlotByID(context.Background(), bobPlaceholder)
	require.NoError(t, err)
	assert.Nil(t, slot.Booking)
}

func TestScheduleAllowsTouchingIntervals(t *testing.T) {
	repo := &memRepo{}
	svc := newTestService(repo, true)
	alice := addStudent(repo, true, false)
	bob := addStudent(repo, true, false)

	_, err := svc.Schedule(context.Background(), alice, gridDate, 14*60, 60, "Acme")
	require.NoError(t, err)

	// Back-to-back is legal: [14:00,15:00) then [15:00,16:00).
	_, err = svc.Schedule(context.Background(), bob, gridDate, 15*60, 60, "Globex")
	require.NoError(t, err)
}

func TestScheduleRejectsBlackout(t *testing.T) {
	repo := &memRepo{}
	svc := newTestService(repo, true)
	studentID := addStudent(repo, true, false)

	_, err := svc.BlockWindow(context.Background(), gridDate, 10*60, 11*60, "maintenance")
	require.NoError(t, err)

	_, err = svc.Schedule(context.Background(), studentID, gridDate, 10*60+15, 30, "Acme")
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, ConflictBlockedByAdmin, conflict.Kind)
}

func TestScheduleRequiresApproval(t *testing.T) {
	repo := &memRepo{}
	svc := newTestService(repo, true)
	studentID := addStudent(repo, false, false)

	_, err := svc.Schedule(context.Background(), studentID, gridDate, 10*60, 30, "Acme")
	assert.ErrorIs(t, err, ErrStudentNotApproved)
}

func TestScheduleCompanyNameFlag(t *testing.T) {
	repo := &memRepo{}
	strict := newTestService(repo, true)
	studentID := addStudent(repo, true, false)

	_, err := strict.Schedule(context.Background(), studentID, gridDate, 10*60, 30, "")
	assert.ErrorIs(t, err, ErrCompanyNameRequired)

	lenient := newTestService(repo, false)
	_, err = lenient.Schedule(context.Background(), studentID, gridDate, 10*60, 30, "")
	assert.NoError(t, err)
}

func TestScheduleRejectsNonPositiveDuration(t *testing.T) {
	repo := &memRepo{}
	svc := newTestService(repo, true)
	studentID := addStudent(repo, true, false)

	_, err := svc.Schedule(context.Background(), studentID, gridDate, 10*60, 0, "Acme")
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

// TestSequentialBookingsPreserveInvariants drives randomized bookings
// through the full validation path and audits the calendar after each
// accepted one: no two active bookings overlap and none sits inside a
// blackout. Every rejection must correspond to a real conflict.
func TestSequentialBookingsPreserveInvariants(t *testing.T) {
	repo := &memRepo{}
	svc := newTestService(repo, true)
	rng := rand.New(rand.NewSource(1))

	_, err := svc.BlockWindow(context.Background(), gridDate, 12*60, 13*60, "lunch")
	require.NoError(t, err)

	durations := []int{15, 30, 60, 90, 120}

	for i := 0; i < 200; i++ {
		studentID := addStudent(repo, true, false)
		start := HoursStartMinutes + rng.Intn(47)*SlotStepMinutes
		duration := durations[rng.Intn(len(durations))]

		_, err := svc.Schedule(context.Background(), studentID, gridDate, start, duration, "Acme")

		if err != nil {
			var conflict *ConflictError
			require.ErrorAs(t, err, &conflict, "rejection must be a typed conflict")
			assert.NotEqual(t, ConflictOutsideWorkingHours, conflict.Kind, "generated starts are inside working hours")
			continue
		}

		auditCalendar(t, repo, gridDate)
	}
}

func auditCalendar(t *testing.T, repo *memRepo, date string) {
	t.Helper()
	slots, err := repo.ListSlotsOnDate(context.Background(), date)
	require.NoError(t, err)
	blocks, err := repo.ListBlocksOnDate(context.Background(), date)
	require.NoError(t, err)

	var active []InterviewSlot
	for _, s := range slots {
		if s.BlocksCalendar() {
			active = append(active, s)
		}
	}

	for i := 0; i < len(active); i++ {
		a := active[i].Booking
		for j := i + 1; j < len(active); j++ {
			b := active[j].Booking
			assert.False(t, Overlaps(a.StartMinutes, a.End(), b.StartMinutes, b.End()),
				"slots %s and %s overlap", active[i].ID, active[j].ID)
		}
		for _, bl := range blocks {
			assert.False(t, Overlaps(a.StartMinutes, a.End(), bl.StartMinutes, bl.EndMinutes),
				"slot %s sits inside blackout %s", active[i].ID, bl.ID)
		}
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	repo := &memRepo{}
	svc := newTestService(repo, true)
	studentID := addStudent(repo, true, false)

	booked, err := svc.Schedule(context.Background(), studentID, gridDate, 10*60, 30, "Acme")
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(context.Background(), booked.ID))
	assert.Empty(t, repo.slots)

	// Cancelling again, and cancelling an id that never existed, is a no-op.
	require.NoError(t, svc.Cancel(context.Background(), booked.ID))
	require.NoError(t, svc.Cancel(context.Background(), uuid.New()))
	assert.Empty(t, repo.slots)
	assert.Empty(t, repo.notifs, "self-service cancel sends no notification")
}

func TestAdminCancelNotifiesStudent(t *testing.T) {
	repo := &memRepo{}
	svc := newTestService(repo, true)
	studentID := addStudent(repo, true, false)

	booked, err := svc.Schedule(context.Background(), studentID, gridDate, 14*60, 60, "Acme")
	require.NoError(t, err)

	require.NoError(t, svc.AdminCancel(context.Background(), booked.ID))
	assert.Empty(t, repo.slots)

	ns, err := svc.Notifications(context.Background(), studentID)
	require.NoError(t, err)
	require.Len(t, ns, 1)
	assert.Contains(t, ns[0].Message, gridDate)
	assert.Contains(t, ns[0].Message, "14:00")

	// Second admin cancel of the same id: no second notification.
	require.NoError(t, svc.AdminCancel(context.Background(), booked.ID))
	ns, _ = svc.Notifications(context.Background(), studentID)
	assert.Len(t, ns, 1)
}

func TestAdminCancelPlaceholderSkipsNotification(t *testing.T) {
	repo := &memRepo{}
	svc := newTestService(repo, true)
	addStudent(repo, true, true)
	placeholderID := repo.slots[0].ID

	require.NoError(t, svc.AdminCancel(context.Background(), placeholderID))
	assert.Empty(t, repo.slots)
	assert.Empty(t, repo.notifs, "placeholder has no date or time to report")
}

func TestAssignValidatesInterviewer(t *testing.T) {
	repo := &memRepo{}
	svc := newTestService(repo, true)
	studentID := addStudent(repo, true, false)
	interviewerID := addInterviewer(repo, "First")

	booked, err := svc.Schedule(context.Background(), studentID, gridDate, 10*60, 30, "Acme")
	require.NoError(t, err)

	_, err = svc.Assign(context.Background(), booked.ID, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.Assign(context.Background(), booked.ID, studentID)
	assert.ErrorIs(t, err, ErrNotAnInterviewer)

	updated, err := svc.Assign(context.Background(), booked.ID, interviewerID)
	require.NoError(t, err)
	require.NotNil(t, updated.InterviewerID)
	assert.Equal(t, interviewerID, *updated.InterviewerID)
}

func TestAssignRejectsTerminalSlot(t *testing.T) {
	repo := &memRepo{}
	svc := newTestService(repo, true)
	studentID := addStudent(repo, true, false)
	interviewerID := addInterviewer(repo, "First")

	booked, err := svc.Schedule(context.Background(), studentID, gridDate, 10*60, 30, "Acme")
	require.NoError(t, err)
	_, err = svc.UpdateStage(context.Background(), booked.ID, StageSuccessful)
	require.NoError(t, err)

	_, err = svc.Assign(context.Background(), booked.ID, interviewerID)
	assert.ErrorIs(t, err, ErrSlotFinalized)
}

func TestUpdateStageFullyConnected(t *testing.T) {
	repo := &memRepo{}
	svc := newTestService(repo, true)
	studentID := addStudent(repo, true, false)

	booked, err := svc.Schedule(context.Background(), studentID, gridDate, 10*60, 30, "Acme")
	require.NoError(t, err)

	stages := []Stage{StageClasses, StageInterviews, StageSuccessful, StageUnsuccessful}
	for _, from := range stages {
		_, err := svc.UpdateStage(context.Background(), booked.ID, from)
		require.NoError(t, err)
		for _, to := range stages {
			_, err := svc.UpdateStage(context.Background(), booked.ID, to)
			require.NoError(t, err, "stage transition %s -> %s", from, to)
			_, err = svc.UpdateStage(context.Background(), booked.ID, from)
			require.NoError(t, err)
		}
	}

	_, err = svc.UpdateStage(context.Background(), booked.ID, Stage("Hired"))
	assert.ErrorIs(t, err, ErrInvalidStage)
}

func TestTerminalStageReleasesInterval(t *testing.T) {
	repo := &memRepo{}
	svc := newTestService(repo, true)
	alice := addStudent(repo, true, false)
	bob := addStudent(repo, true, false)

	booked, err := svc.Schedule(context.Background(), alice, gridDate, 14*60, 60, "Acme")
	require.NoError(t, err)
	_, err = svc.UpdateStage(context.Background(), booked.ID, StageSuccessful)
	require.NoError(t, err)

	// The finished interview no longer holds its calendar time.
	_, err = svc.Schedule(context.Background(), bob, gridDate, 14*60, 60, "Globex")
	assert.NoError(t, err)
}

func TestApproveStudentCreatesSinglePlaceholder(t *testing.T) {
	repo := &memRepo{}
	svc := newTestService(repo, true)
	studentID := addStudent(repo, false, false)

	first, err := svc.ApproveStudent(context.Background(), studentID)
	require.NoError(t, err)
	assert.Nil(t, first.Booking)

	second, err := svc.ApproveStudent(context.Background(), studentID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "re-approval must not create a second placeholder")

	owned, _ := repo.ListSlotsForStudent(context.Background(), studentID)
	assert.Len(t, owned, 1)

	u, err := repo.GetUserByID(context.Background(), studentID)
	require.NoError(t, err)
	assert.True(t, u.Approved)
}

func TestRegisterStudentRejectsDuplicatePhone(t *testing.T) {
	repo := &memRepo{}
	svc := newTestService(repo, true)

	_, err := svc.RegisterStudent(context.Background(), "Alice", "555-0100")
	require.NoError(t, err)

	_, err = svc.RegisterStudent(context.Background(), "Imposter", "555-0100")
	assert.ErrorIs(t, err, ErrPhoneTaken)
}

func TestBlockWindowValidation(t *testing.T) {
	repo := &memRepo{}
	svc := newTestService(repo, true)

	_, err := svc.BlockWindow(context.Background(), gridDate, 11*60, 10*60, "")
	assert.ErrorIs(t, err, ErrInvalidBlockWindow)
	_, err = svc.BlockWindow(context.Background(), gridDate, 10*60, 10*60, "")
	assert.ErrorIs(t, err, ErrInvalidBlockWindow)

	b, err := svc.BlockWindow(context.Background(), gridDate, 10*60, 11*60, "maintenance")
	require.NoError(t, err)
	require.NotNil(t, b.Reason)
	assert.Equal(t, "maintenance", *b.Reason)

	require.NoError(t, svc.Unblock(context.Background(), b.ID))
	require.NoError(t, svc.Unblock(context.Background(), b.ID)) // idempotent
	assert.Empty(t, repo.blocks)
}

func TestStateSnapshot(t *testing.T) {
	repo := &memRepo{}
	svc := newTestService(repo, true)
	studentID := addStudent(repo, true, true)
	addInterviewer(repo, "First")

	_, err := svc.Schedule(context.Background(), studentID, gridDate, 10*60, 30, "Acme")
	require.NoError(t, err)
	_, err = svc.BlockWindow(context.Background(), gridDate, 12*60, 13*60, "lunch")
	require.NoError(t, err)

	snap, err := svc.State(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Users, 2)
	assert.Len(t, snap.Slots, 1)
	assert.Len(t, snap.Blocks, 1)
}
