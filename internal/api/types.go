package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/interviewflow/interviewflow/internal/schedule"
)

type RegisterStudentRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type CreateInterviewerRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type ScheduleRequest struct {
	StudentID       string `json:"student_id"`
	Date            string `json:"date"`       // YYYY-MM-DD
	StartTime       string `json:"start_time"` // HH:MM
	DurationMinutes int    `json:"duration_minutes"`
	CompanyName     string `json:"company_name"`
}

type UpdateStageRequest struct {
	Stage string `json:"stage"`
}

type AssignRequest struct {
	InterviewerID string `json:"interviewer_id"`
}

type BlockRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Reason    string `json:"reason,omitempty"`
}

type UserResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Phone    string    `json:"phone"`
	Email    *string   `json:"email,omitempty"`
	Role     string    `json:"role"`
	Approved bool      `json:"approved"`
}

type SlotResponse struct {
	ID            uuid.UUID  `json:"id"`
	StudentID     uuid.UUID  `json:"student_id"`
	InterviewerID *uuid.UUID `json:"interviewer_id,omitempty"`
	Stage         string     `json:"stage"`
	// Booking fields are omitted for placeholders.
	Date            string `json:"date,omitempty"`
	StartTime       string `json:"start_time,omitempty"`
	DurationMinutes int    `json:"duration_minutes"`
	CompanyName     string `json:"company_name,omitempty"`
}

type GridSlotResponse struct {
	Time   string `json:"time"`
	Status string `json:"status"`
}

type BlockResponse struct {
	ID        uuid.UUID `json:"id"`
	Date      string    `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Reason    *string   `json:"reason,omitempty"`
}

type NotificationResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type StateResponse struct {
	Users         []UserResponse         `json:"users"`
	Slots         []SlotResponse         `json:"interview_slots"`
	Blocks        []BlockResponse        `json:"blocked_slots"`
	Notifications []NotificationResponse `json:"notifications"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toUserResponse(u *schedule.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Name:     u.Name,
		Phone:    u.Phone,
		Email:    u.Email,
		Role:     string(u.Role),
		Approved: u.Approved,
	}
}

func toSlotResponse(s *schedule.InterviewSlot) SlotResponse {
	resp := SlotResponse{
		ID:            s.ID,
		StudentID:     s.StudentID,
		InterviewerID: s.InterviewerID,
		Stage:         string(s.Stage),
	}
	if s.Booking != nil {
		resp.Date = s.Booking.Date
		resp.StartTime = schedule.FormatClock(s.Booking.StartMinutes)
		resp.DurationMinutes = s.Booking.DurationMinutes
		resp.CompanyName = s.Booking.CompanyName
	}
	return resp
}

func toBlockResponse(b *schedule.BlockedSlot) BlockResponse {
	return BlockResponse{
		ID:        b.ID,
		Date:      b.Date,
		StartTime: schedule.FormatClock(b.StartMinutes),
		EndTime:   schedule.FormatClock(b.EndMinutes),
		Reason:    b.Reason,
	}
}

func toNotificationResponse(n *schedule.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		UserID:    n.UserID,
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}
