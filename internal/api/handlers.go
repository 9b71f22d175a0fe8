package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	redisclient "github.com/interviewflow/interviewflow/internal/redis"
	"github.com/interviewflow/interviewflow/internal/schedule"
)

func registerStudentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterStudentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Name == "" || req.Phone == "" {
			writeError(w, http.StatusBadRequest, "missing_fields", "name and phone are required")
			return
		}

		u, err := svc.RegisterStudent(r.Context(), req.Name, req.Phone)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toUserResponse(u))
	}
}

func approveStudentHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}

		placeholder, err := svc.ApproveStudent(r.Context(), id)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSlotResponse(placeholder))
	}
}

func addCandidateHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterStudentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Name == "" || req.Phone == "" {
			writeError(w, http.StatusBadRequest, "missing_fields", "name and phone are required")
			return
		}

		u, err := svc.AddCandidate(r.Context(), req.Name, req.Phone)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toUserResponse(u))
	}
}

func createInterviewerHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateInterviewerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Name == "" || req.Username == "" {
			writeError(w, http.StatusBadRequest, "missing_fields", "name and username are required")
			return
		}

		u, err := svc.CreateInterviewer(r.Context(), req.Name, req.Username, req.Password, req.Email)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toUserResponse(u))
	}
}

func availabilityHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		studentID, err := uuid.Parse(q.Get("student_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_student_id", "student_id must be a valid UUID")
			return
		}
		date, err := schedule.ParseDate(q.Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}
		duration, err := strconv.Atoi(q.Get("duration"))
		if err != nil || duration <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_duration", "duration must be a positive number of minutes")
			return
		}

		grid, err := svc.Availability(r.Context(), studentID, date, duration, time.Now())
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := make([]GridSlotResponse, 0, len(grid))
		for _, g := range grid {
			resp = append(resp, GridSlotResponse{Time: g.Clock(), Status: string(g.Status)})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func scheduleHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		studentID, err := uuid.Parse(req.StudentID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_student_id", "student_id must be a valid UUID")
			return
		}
		date, err := schedule.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}
		start, err := schedule.ParseClock(req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_time", "start_time must be HH:MM")
			return
		}

		slot, err := svc.Schedule(r.Context(), studentID, date, start, req.DurationMinutes, req.CompanyName)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toSlotResponse(slot))
	}
}

func cancelHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}
		if err := svc.Cancel(r.Context(), id); err != nil {
			handleServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func adminCancelHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}
		if err := svc.AdminCancel(r.Context(), id); err != nil {
			handleServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func updateStageHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}

		var req UpdateStageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		slot, err := svc.UpdateStage(r.Context(), id, schedule.Stage(req.Stage))
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSlotResponse(slot))
	}
}

func assignHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}

		var req AssignRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		interviewerID, err := uuid.Parse(req.InterviewerID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_interviewer_id", "interviewer_id must be a valid UUID")
			return
		}

		slot, err := svc.Assign(r.Context(), id, interviewerID)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSlotResponse(slot))
	}
}

func createBlockHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BlockRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		date, err := schedule.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}
		start, err := schedule.ParseClock(req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_time", "start_time must be HH:MM")
			return
		}
		end, err := schedule.ParseClock(req.EndTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_end_time", "end_time must be HH:MM")
			return
		}

		block, err := svc.BlockWindow(r.Context(), date, start, end, req.Reason)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toBlockResponse(block))
	}
}

func deleteBlockHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}
		if err := svc.Unblock(r.Context(), id); err != nil {
			handleServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listNotificationsHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_user_id", "user_id must be a valid UUID")
			return
		}

		ns, err := svc.Notifications(r.Context(), userID)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := make([]NotificationResponse, 0, len(ns))
		for i := range ns {
			resp = append(resp, toNotificationResponse(&ns[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func clearNotificationHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "id")
		if !ok {
			return
		}
		if err := svc.ClearNotification(r.Context(), id); err != nil {
			handleServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func stateHandler(svc *schedule.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := svc.State(r.Context())
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := StateResponse{
			Users:         make([]UserResponse, 0, len(snap.Users)),
			Slots:         make([]SlotResponse, 0, len(snap.Slots)),
			Blocks:        make([]BlockResponse, 0, len(snap.Blocks)),
			Notifications: make([]NotificationResponse, 0, len(snap.Notifications)),
		}
		for i := range snap.Users {
			resp.Users = append(resp.Users, toUserResponse(&snap.Users[i]))
		}
		for i := range snap.Slots {
			resp.Slots = append(resp.Slots, toSlotResponse(&snap.Slots[i]))
		}
		for i := range snap.Blocks {
			resp.Blocks = append(resp.Blocks, toBlockResponse(&snap.Blocks[i]))
		}
		for i := range snap.Notifications {
			resp.Notifications = append(resp.Notifications, toNotificationResponse(&snap.Notifications[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func handleServiceError(w http.ResponseWriter, err error) {
	var conflict *schedule.ConflictError
	if errors.As(err, &conflict) {
		writeError(w, http.StatusConflict, string(conflict.Kind), conflict.Error())
		return
	}

	switch {
	case errors.Is(err, schedule.ErrUserNotFound),
		errors.Is(err, schedule.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, schedule.ErrPhoneTaken):
		writeError(w, http.StatusConflict, "phone_taken", err.Error())
	case errors.Is(err, schedule.ErrDateBeingBooked),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "date_being_booked", "this date is currently being booked, please retry shortly")
	case errors.Is(err, schedule.ErrSlotFinalized):
		writeError(w, http.StatusConflict, "slot_finalized", err.Error())
	case errors.Is(err, schedule.ErrStudentNotApproved):
		writeError(w, http.StatusForbidden, "student_not_approved", err.Error())
	case errors.Is(err, schedule.ErrCompanyNameRequired),
		errors.Is(err, schedule.ErrInvalidDuration),
		errors.Is(err, schedule.ErrInvalidStage),
		errors.Is(err, schedule.ErrInvalidBlockWindow),
		errors.Is(err, schedule.ErrNotAStudent),
		errors.Is(err, schedule.ErrNotAnInterviewer):
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
