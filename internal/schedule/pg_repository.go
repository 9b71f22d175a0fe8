package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var email, password *string

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Phone,
		&email,
		&u.Role,
		&password,
		&u.Approved,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	u.Email = email
	u.Password = password
	return &u, nil
}

func scanSlot(row pgx.Row) (*InterviewSlot, error) {
	var s InterviewSlot
	var interviewerID *uuid.UUID
	var date *time.Time
	var startMinutes *int
	var durationMinutes int
	var companyName *string

	err := row.Scan(
		&s.ID,
		&s.StudentID,
		&interviewerID,
		&s.Stage,
		&date,
		&startMinutes,
		&durationMinutes,
		&companyName,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	s.InterviewerID = interviewerID

	// duration 0 rows are placeholders: registered, not yet scheduled.
	if durationMinutes > 0 && date != nil && startMinutes != nil {
		b := Booking{
			Date:            FormatDate(*date),
			StartMinutes:    *startMinutes,
			DurationMinutes: durationMinutes,
		}
		if companyName != nil {
			b.CompanyName = *companyName
		}
		s.Booking = &b
	}

	return &s, nil
}

func scanBlock(row pgx.Row) (*BlockedSlot, error) {
	var b BlockedSlot
	var date time.Time
	var reason *string

	err := row.Scan(
		&b.ID,
		&date,
		&b.StartMinutes,
		&b.EndMinutes,
		&reason,
		&b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.New("blocked slot not found")
		}
		return nil, err
	}

	b.Date = FormatDate(date)
	b.Reason = reason
	return &b, nil
}

func scanNotification(row pgx.Row) (*Notification, error) {
	var n Notification

	err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.Message,
		&n.Read,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

const slotColumns = `id, student_id, interviewer_id, stage, date, start_minutes, duration_minutes, company_name, created_at, updated_at`

// Interface methods

func (r *PgRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, phone, email, role, password, approved, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

func (r *PgRepository) GetUserByPhone(ctx context.Context, phone string) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, phone, email, role, password, approved, created_at, updated_at
		FROM users
		WHERE phone = $1
	`, phone)
	return scanUser(row)
}

func (r *PgRepository) ListInterviewers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, phone, email, role, password, approved, created_at, updated_at
		FROM users
		WHERE role = 'INTERVIEWER'
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *u)
	}
	return result, rows.Err()
}

func (r *PgRepository) CreateUser(ctx context.Context, u *User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, name, phone, email, role, password, approved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
	`, u.ID, u.Name, u.Phone, u.Email, u.Role, u.Password, u.Approved)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *PgRepository) SetUserApproved(ctx context.Context, id uuid.UUID, approved bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET approved = $2,
		    updated_at = now()
		WHERE id = $1
	`, id, approved)
	if err != nil {
		return fmt.Errorf("update approval: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *PgRepository) GetSlotByID(ctx context.Context, id uuid.UUID) (*InterviewSlot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+slotColumns+`
		FROM interview_slots
		WHERE id = $1
	`, id)
	return scanSlot(row)
}

func (r *PgRepository) ListSlotsOnDate(ctx context.Context, date string) ([]InterviewSlot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM interview_slots
		WHERE date = $1::date
		ORDER BY start_minutes
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSlots(rows)
}

func (r *PgRepository) ListSlotsForStudent(ctx context.Context, studentID uuid.UUID) ([]InterviewSlot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM interview_slots
		WHERE student_id = $1
		ORDER BY created_at
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSlots(rows)
}

func (r *PgRepository) FindPlaceholderForStudent(ctx context.Context, studentID uuid.UUID) (*InterviewSlot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+slotColumns+`
		FROM interview_slots
		WHERE student_id = $1 AND duration_minutes = 0
		ORDER BY created_at
		LIMIT 1
	`, studentID)
	return scanSlot(row)
}

func (r *PgRepository) CreateSlot(ctx context.Context, s *InterviewSlot) error {
	var date *string
	var startMinutes *int
	durationMinutes := 0
	var companyName *string

	if s.Booking != nil {
		date = &s.Booking.Date
		startMinutes = &s.Booking.StartMinutes
		durationMinutes = s.Booking.DurationMinutes
		if s.Booking.CompanyName != "" {
			companyName = &s.Booking.CompanyName
		}
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO interview_slots (id, student_id, interviewer_id, stage, date, start_minutes, duration_minutes, company_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::date, $6, $7, $8, now(), now())
	`, s.ID, s.StudentID, s.InterviewerID, s.Stage, date, startMinutes, durationMinutes, companyName)
	if err != nil {
		return fmt.Errorf("insert slot: %w", err)
	}
	return nil
}

func (r *PgRepository) FillSlotBooking(ctx context.Context, id uuid.UUID, b Booking, interviewerID *uuid.UUID) (*InterviewSlot, error) {
	var companyName *string
	if b.CompanyName != "" {
		companyName = &b.CompanyName
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE interview_slots
		SET date = $2::date,
		    start_minutes = $3,
		    duration_minutes = $4,
		    company_name = $5,
		    interviewer_id = $6,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+slotColumns+`
	`, id, b.Date, b.StartMinutes, b.DurationMinutes, companyName, interviewerID)
	return scanSlot(row)
}

func (r *PgRepository) UpdateSlotStage(ctx context.Context, id uuid.UUID, stage Stage) (*InterviewSlot, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE interview_slots
		SET stage = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+slotColumns+`
	`, id, stage)
	return scanSlot(row)
}

func (r *PgRepository) UpdateSlotInterviewer(ctx context.Context, id uuid.UUID, interviewerID uuid.UUID) (*InterviewSlot, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE interview_slots
		SET interviewer_id = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+slotColumns+`
	`, id, interviewerID)
	return scanSlot(row)
}

func (r *PgRepository) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	// No rows-affected check: deleting an already-deleted slot is a no-op.
	_, err := r.pool.Exec(ctx, `
		DELETE FROM interview_slots
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	return nil
}

func (r *PgRepository) ListBlocksOnDate(ctx context.Context, date string) ([]BlockedSlot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, date, start_minutes, end_minutes, reason, created_at
		FROM blocked_slots
		WHERE date = $1::date
		ORDER BY start_minutes
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []BlockedSlot
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}
	return result, rows.Err()
}

func (r *PgRepository) CreateBlock(ctx context.Context, b *BlockedSlot) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO blocked_slots (id, date, start_minutes, end_minutes, reason, created_at)
		VALUES ($1, $2::date, $3, $4, $5, now())
	`, b.ID, b.Date, b.StartMinutes, b.EndMinutes, b.Reason)
	if err != nil {
		return fmt.Errorf("insert block: %w", err)
	}
	return nil
}

func (r *PgRepository) DeleteBlock(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM blocked_slots
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	return nil
}

func (r *PgRepository) CreateNotification(ctx context.Context, n *Notification) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (id, user_id, message, read, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()))
	`, n.ID, n.UserID, n.Message, n.Read, nullableTime(n.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *PgRepository) ListNotificationsForUser(ctx context.Context, userID uuid.UUID) ([]Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, message, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *n)
	}
	return result, rows.Err()
}

func (r *PgRepository) DeleteNotification(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM notifications
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}

func (r *PgRepository) FetchState(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, phone, email, role, password, approved, created_at, updated_at
		FROM users
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		snap.Users = append(snap.Users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM interview_slots
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	snap.Slots, err = collectSlots(rows)
	if err != nil {
		return nil, err
	}

	rows, err = r.pool.Query(ctx, `
		SELECT id, date, start_minutes, end_minutes, reason, created_at
		FROM blocked_slots
		ORDER BY date, start_minutes
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		snap.Blocks = append(snap.Blocks, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.pool.Query(ctx, `
		SELECT id, user_id, message, read, created_at
		FROM notifications
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		snap.Notifications = append(snap.Notifications, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return snap, nil
}

func collectSlots(rows pgx.Rows) ([]InterviewSlot, error) {
	var result []InterviewSlot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
