package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tutoring-service/api"
	"tutoring-service/internal/lock"
	"tutoring-service/internal/models"
	"tutoring-service/pkg/response"
)

const bookingLockTTL = 10 * time.Second

func personLockKey(role models.Role, personID int64, date time.Time) string {
	return fmt.Sprintf("booking:%s:%d:%s", role, personID, date.Format(dateLayout))
}

// CheckBookingConflict classifies a proposed booking against existing
// non-cancelled rows. Checks run in a fixed order and stop at the first
// match: exact duplicate, then teacher overlap, then student overlap.
// Availability records are never consulted here; they are advisory input
// for discovery, not a write-time constraint.
func (s *Service) CheckBookingConflict(ctx context.Context, teacherID, studentID int64, date time.Time, start, end string) (*models.Conflict, error) {
	const op = "service.CheckBookingConflict"

	id, err := s.store.FindDuplicateBooking(ctx, teacherID, studentID, date, start, end)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if id != 0 {
		return &models.Conflict{Kind: models.ConflictDuplicate, BookingID: id}, nil
	}

	id, err = s.store.FindOverlappingBooking(ctx, models.RoleTeacher, teacherID, date, start, end)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if id != 0 {
		return &models.Conflict{Kind: models.ConflictTeacherOverlap, BookingID: id}, nil
	}

	id, err = s.store.FindOverlappingBooking(ctx, models.RoleStudent, studentID, date, start, end)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if id != 0 {
		return &models.Conflict{Kind: models.ConflictStudentOverlap, BookingID: id}, nil
	}

	return nil, nil
}

// checkParticipants verifies the referenced teacher and student are
// active. The participant tables are optional: when a table has no status
// column the store answers nil and the check is skipped.
func (s *Service) checkParticipants(ctx context.Context, teacherID, studentID int64) error {
	const op = "service.checkParticipants"

	status, err := s.store.PersonStatus(ctx, models.RoleTeacher, teacherID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if status != nil && *status != "active" {
		return fmt.Errorf("%s: %w", op, response.NewFieldError("teacher_id", "teacher is not active"))
	}

	status, err = s.store.PersonStatus(ctx, models.RoleStudent, studentID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if status != nil && *status != "active" {
		return fmt.Errorf("%s: %w", op, response.NewFieldError("student_id", "student is not active"))
	}

	return nil
}

func (s *Service) CreateBooking(ctx context.Context, req *api.BookingCreateRequest) (*api.BookingCreateResponse, error) {
	const op = "service.CreateBooking"

	if req.TeacherID <= 0 {
		return nil, fmt.Errorf("%s: %w", op, response.NewFieldError("teacher_id", "teacher_id is required"))
	}
	if len(req.StudentIDs) == 0 {
		return nil, fmt.Errorf("%s: %w", op, response.NewFieldError("student_ids", "at least one student is required"))
	}
	if req.TypeID <= 0 {
		return nil, fmt.Errorf("%s: %w", op, response.NewFieldError("type_id", "type_id is required"))
	}

	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	start, err := parseTimeOfDay("start_time", req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	end, err := parseTimeOfDay("end_time", req.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if end <= start {
		return nil, fmt.Errorf("%s: %w", op, response.NewFieldError("end_time", "must be after start_time"))
	}

	status := models.BookingPending
	if req.Status != "" {
		status = models.ParseBookingStatus(req.Status)
		if status != models.BookingPending && status != models.BookingConfirmed {
			return nil, fmt.Errorf("%s: %w", op, response.NewFieldError("status", "must be pending or confirmed"))
		}
	}

	// Only the first student is persisted; surplus ids are reported back
	// as a count, not an error.
	studentID := req.StudentIDs[0]
	skipped := len(req.StudentIDs) - 1

	if err := s.checkParticipants(ctx, req.TeacherID, studentID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.mode == ModeStrict {
		// Per-person locks close the gap between the conflict read and
		// the insert: two concurrent creations for the same person and
		// date cannot both pass the check.
		keys := []string{
			personLockKey(models.RoleTeacher, req.TeacherID, date),
			personLockKey(models.RoleStudent, studentID, date),
		}

		locked, err := lock.LockAll(ctx, s.locker, keys, bookingLockTTL)
		if err != nil {
			return nil, fmt.Errorf("%s: lock error: %w", op, err)
		}
		if !locked {
			return nil, fmt.Errorf("%s: %w", op, response.ErrLocked)
		}
		defer lock.UnlockAll(ctx, s.locker, keys)

		conflict, err := s.CheckBookingConflict(ctx, req.TeacherID, studentID, date, start, end)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if conflict != nil {
			return nil, fmt.Errorf("%s: %w", op, &response.ConflictError{
				Kind:      string(conflict.Kind),
				BookingID: conflict.BookingID,
			})
		}
	}

	booking := &models.Booking{
		TeacherID: req.TeacherID,
		StudentID: studentID,
		TypeID:    req.TypeID,
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Status:    status,
		Location:  req.Location,
		Fee:       req.Fee,
	}

	id, err := s.store.CreateBooking(ctx, booking)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &api.BookingCreateResponse{
		Booking:         *created,
		SkippedStudents: skipped,
	}, nil
}

func (s *Service) GetBooking(ctx context.Context, id int64) (*api.BookingResponse, error) {
	const op = "service.GetBooking"

	booking, err := s.store.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp := toBookingResponse(booking)
	return &resp, nil
}

// UpdateBooking merges the supplied fields over the current row and
// re-validates the effective values before issuing a partial update.
func (s *Service) UpdateBooking(ctx context.Context, id int64, req *api.BookingUpdateRequest) (*api.BookingResponse, error) {
	const op = "service.UpdateBooking"

	current, err := s.store.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	patch := &models.BookingPatch{
		TeacherID: req.TeacherID,
		StudentID: req.StudentID,
		TypeID:    req.TypeID,
		Location:  req.Location,
		Fee:       req.Fee,
	}

	effectiveTeacher := current.TeacherID
	if req.TeacherID != nil {
		effectiveTeacher = *req.TeacherID
	}
	effectiveStudent := current.StudentID
	if req.StudentID != nil {
		effectiveStudent = *req.StudentID
	}

	if req.Date != nil {
		date, err := parseDate("date", *req.Date)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		patch.Date = &date
	}

	effectiveStart := current.StartTime
	if req.StartTime != nil {
		start, err := parseTimeOfDay("start_time", *req.StartTime)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		patch.StartTime = &start
		effectiveStart = start
	}

	effectiveEnd := current.EndTime
	if req.EndTime != nil {
		end, err := parseTimeOfDay("end_time", *req.EndTime)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		patch.EndTime = &end
		effectiveEnd = end
	}

	if effectiveEnd <= effectiveStart {
		return nil, fmt.Errorf("%s: %w", op, response.NewFieldError("end_time", "must be after start_time"))
	}

	if req.Status != nil {
		next := models.ParseBookingStatus(*req.Status)
		if next == models.BookingInvalid {
			return nil, fmt.Errorf("%s: %w", op, response.NewFieldError("status", "unknown status value"))
		}
		if next != current.Status && !current.Status.CanTransition(next) {
			return nil, fmt.Errorf("%s: %w", op, response.NewFieldError("status",
				fmt.Sprintf("cannot move from %s to %s", current.Status, next)))
		}
		patch.Status = &next
	}

	if err := s.checkParticipants(ctx, effectiveTeacher, effectiveStudent); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.store.UpdateBooking(ctx, id, patch); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetBooking(ctx, id)
}

func (s *Service) CancelBooking(ctx context.Context, id int64) (*api.BookingResponse, error) {
	const op = "service.CancelBooking"

	current, err := s.store.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !current.Status.CanTransition(models.BookingCancelled) {
		return nil, fmt.Errorf("%s: %w", op, response.NewFieldError("status",
			fmt.Sprintf("cannot cancel a %s booking", current.Status)))
	}

	status := models.BookingCancelled
	if err := s.store.UpdateBooking(ctx, id, &models.BookingPatch{Status: &status}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetBooking(ctx, id)
}

func (s *Service) ConfirmBooking(ctx context.Context, id int64) (*api.BookingResponse, error) {
	const op = "service.ConfirmBooking"

	current, err := s.store.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !current.Status.CanTransition(models.BookingConfirmed) {
		return nil, fmt.Errorf("%s: %w", op, response.NewFieldError("status",
			fmt.Sprintf("cannot confirm a %s booking", current.Status)))
	}

	status := models.BookingConfirmed
	if err := s.store.UpdateBooking(ctx, id, &models.BookingPatch{Status: &status}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetBooking(ctx, id)
}
