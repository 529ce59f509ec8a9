package service

import (
	"context"
	"errors"
	"testing"

	"tutoring-service/api"
	"tutoring-service/internal/models"
	"tutoring-service/pkg/response"
)

func newTestService(mode Mode) (*Service, *mockStore, *mockLocker) {
	store := newMockStore()
	locker := newMockLocker()
	return NewService(store, locker, mode), store, locker
}

func validCreateRequest() *api.BookingCreateRequest {
	return &api.BookingCreateRequest{
		TeacherID:  1,
		StudentIDs: []int64{10},
		TypeID:     3,
		Date:       "2026-09-01",
		StartTime:  "09:00",
		EndTime:    "10:00",
	}
}

func mustCreate(t *testing.T, svc *Service, req *api.BookingCreateRequest) *api.BookingCreateResponse {
	t.Helper()

	resp, err := svc.CreateBooking(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}
	return resp
}

func TestCreateBooking(t *testing.T) {
	svc, _, _ := newTestService(ModeStrict)

	resp := mustCreate(t, svc, validCreateRequest())

	if resp.Booking.ID == 0 {
		t.Error("expected non-zero booking id")
	}
	if resp.Booking.Status != "pending" {
		t.Errorf("status = %q, want pending", resp.Booking.Status)
	}
	if resp.SkippedStudents != 0 {
		t.Errorf("skipped students = %d, want 0", resp.SkippedStudents)
	}
}

func TestCreateBookingKeepsFirstStudentOnly(t *testing.T) {
	svc, store, _ := newTestService(ModeStrict)

	req := validCreateRequest()
	req.StudentIDs = []int64{7, 8, 9}

	resp := mustCreate(t, svc, req)

	if resp.SkippedStudents != 2 {
		t.Errorf("skipped students = %d, want 2", resp.SkippedStudents)
	}
	if resp.Booking.StudentID != 7 {
		t.Errorf("student id = %d, want first id 7", resp.Booking.StudentID)
	}

	stored, err := store.GetBooking(context.Background(), resp.Booking.ID)
	if err != nil {
		t.Fatalf("GetBooking failed: %v", err)
	}
	if stored.StudentID != 7 {
		t.Errorf("stored student id = %d, want 7", stored.StudentID)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	cases := []struct {
		name      string
		mutate    func(*api.BookingCreateRequest)
		wantField string
	}{
		{"missing teacher", func(r *api.BookingCreateRequest) { r.TeacherID = 0 }, "teacher_id"},
		{"no students", func(r *api.BookingCreateRequest) { r.StudentIDs = nil }, "student_ids"},
		{"missing type", func(r *api.BookingCreateRequest) { r.TypeID = 0 }, "type_id"},
		{"bad date", func(r *api.BookingCreateRequest) { r.Date = "01/09/2026" }, "date"},
		{"bad start time", func(r *api.BookingCreateRequest) { r.StartTime = "9am" }, "start_time"},
		{"bad end time", func(r *api.BookingCreateRequest) { r.EndTime = "25:00" }, "end_time"},
		{"end before start", func(r *api.BookingCreateRequest) { r.StartTime = "10:00"; r.EndTime = "09:00" }, "end_time"},
		{"end equals start", func(r *api.BookingCreateRequest) { r.StartTime = "10:00"; r.EndTime = "10:00" }, "end_time"},
		{"completed status on create", func(r *api.BookingCreateRequest) { r.Status = "completed" }, "status"},
		{"unknown status", func(r *api.BookingCreateRequest) { r.Status = "archived" }, "status"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, _ := newTestService(ModeStrict)

			req := validCreateRequest()
			tc.mutate(req)

			_, err := svc.CreateBooking(context.Background(), req)

			var fieldErr *response.FieldError
			if !errors.As(err, &fieldErr) {
				t.Fatalf("expected FieldError, got %v", err)
			}
			if fieldErr.Field != tc.wantField {
				t.Errorf("field = %q, want %q", fieldErr.Field, tc.wantField)
			}
		})
	}
}

func TestCreateBookingDuplicateConflict(t *testing.T) {
	svc, _, _ := newTestService(ModeStrict)

	mustCreate(t, svc, validCreateRequest())

	_, err := svc.CreateBooking(context.Background(), validCreateRequest())

	var conflict *response.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.Kind != string(models.ConflictDuplicate) {
		t.Errorf("conflict kind = %q, want duplicate", conflict.Kind)
	}
	if conflict.BookingID == 0 {
		t.Error("expected conflicting booking id")
	}
}

func TestCreateBookingDuplicateBeatsOverlap(t *testing.T) {
	// An identical booking is both a duplicate and an overlap; the
	// duplicate classification must win.
	svc, _, _ := newTestService(ModeStrict)

	mustCreate(t, svc, validCreateRequest())

	_, err := svc.CreateBooking(context.Background(), validCreateRequest())

	var conflict *response.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.Kind != string(models.ConflictDuplicate) {
		t.Errorf("conflict kind = %q, want duplicate to take precedence", conflict.Kind)
	}
}

func TestCreateBookingTeacherOverlap(t *testing.T) {
	svc, _, _ := newTestService(ModeStrict)

	mustCreate(t, svc, validCreateRequest())

	req := validCreateRequest()
	req.StudentIDs = []int64{20}
	req.StartTime = "09:30"
	req.EndTime = "10:30"

	_, err := svc.CreateBooking(context.Background(), req)

	var conflict *response.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.Kind != string(models.ConflictTeacherOverlap) {
		t.Errorf("conflict kind = %q, want teacher_overlap", conflict.Kind)
	}
}

func TestCreateBookingStudentOverlap(t *testing.T) {
	svc, _, _ := newTestService(ModeStrict)

	mustCreate(t, svc, validCreateRequest())

	req := validCreateRequest()
	req.TeacherID = 2
	req.StartTime = "09:30"
	req.EndTime = "10:30"

	_, err := svc.CreateBooking(context.Background(), req)

	var conflict *response.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.Kind != string(models.ConflictStudentOverlap) {
		t.Errorf("conflict kind = %q, want student_overlap", conflict.Kind)
	}
}

func TestCreateBookingTouchingIntervalsDoNotConflict(t *testing.T) {
	svc, _, _ := newTestService(ModeStrict)

	mustCreate(t, svc, validCreateRequest())

	req := validCreateRequest()
	req.StudentIDs = []int64{20}
	req.StartTime = "10:00"
	req.EndTime = "11:00"

	if _, err := svc.CreateBooking(context.Background(), req); err != nil {
		t.Errorf("back-to-back booking rejected: %v", err)
	}
}

func TestCreateBookingDifferentTeacherNoConflict(t *testing.T) {
	svc, _, _ := newTestService(ModeStrict)

	mustCreate(t, svc, validCreateRequest())

	req := validCreateRequest()
	req.TeacherID = 2
	req.StudentIDs = []int64{20}
	req.StartTime = "09:30"
	req.EndTime = "10:30"

	if _, err := svc.CreateBooking(context.Background(), req); err != nil {
		t.Errorf("booking with distinct participants rejected: %v", err)
	}
}

func TestCreateBookingCancelledRowsDoNotBlock(t *testing.T) {
	svc, _, _ := newTestService(ModeStrict)

	created := mustCreate(t, svc, validCreateRequest())

	if _, err := svc.CancelBooking(context.Background(), created.Booking.ID); err != nil {
		t.Fatalf("CancelBooking failed: %v", err)
	}

	if _, err := svc.CreateBooking(context.Background(), validCreateRequest()); err != nil {
		t.Errorf("booking blocked by a cancelled row: %v", err)
	}
}

func TestCreateBookingPermissiveSkipsConflictCheck(t *testing.T) {
	svc, _, locker := newTestService(ModePermissive)

	mustCreate(t, svc, validCreateRequest())
	mustCreate(t, svc, validCreateRequest())

	if len(locker.locked) != 0 {
		t.Errorf("permissive mode acquired %d locks, want 0", len(locker.locked))
	}
}

func TestCreateBookingLockDenied(t *testing.T) {
	svc, _, locker := newTestService(ModeStrict)
	locker.deny = true

	_, err := svc.CreateBooking(context.Background(), validCreateRequest())
	if !errors.Is(err, response.ErrLocked) {
		t.Errorf("expected ErrLocked, got %v", err)
	}
}

func TestCreateBookingInactiveTeacher(t *testing.T) {
	svc, store, _ := newTestService(ModeStrict)
	store.statuses[models.RoleTeacher] = map[int64]string{1: "suspended"}

	_, err := svc.CreateBooking(context.Background(), validCreateRequest())

	var fieldErr *response.FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("expected FieldError, got %v", err)
	}
	if fieldErr.Field != "teacher_id" {
		t.Errorf("field = %q, want teacher_id", fieldErr.Field)
	}
}

func TestCreateBookingMissingStudentRow(t *testing.T) {
	svc, store, _ := newTestService(ModeStrict)
	store.statuses[models.RoleTeacher] = map[int64]string{1: "active"}
	store.statuses[models.RoleStudent] = map[int64]string{}

	_, err := svc.CreateBooking(context.Background(), validCreateRequest())
	if !errors.Is(err, response.ErrRefMissing) {
		t.Errorf("expected ErrRefMissing, got %v", err)
	}
}

func TestGetBookingNotFound(t *testing.T) {
	svc, _, _ := newTestService(ModeStrict)

	_, err := svc.GetBooking(context.Background(), 404)
	if !errors.Is(err, response.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateBookingPartialPatch(t *testing.T) {
	svc, _, _ := newTestService(ModeStrict)

	created := mustCreate(t, svc, validCreateRequest())

	location := "Room 4"
	updated, err := svc.UpdateBooking(context.Background(), created.Booking.ID, &api.BookingUpdateRequest{
		Location: &location,
	})
	if err != nil {
		t.Fatalf("UpdateBooking failed: %v", err)
	}

	if updated.Location == nil || *updated.Location != "Room 4" {
		t.Errorf("location not updated: %v", updated.Location)
	}
	if updated.StartTime != "09:00" || updated.EndTime != "10:00" {
		t.Errorf("untouched fields changed: %s-%s", updated.StartTime, updated.EndTime)
	}
}

func TestUpdateBookingValidatesMergedTimes(t *testing.T) {
	svc, _, _ := newTestService(ModeStrict)

	created := mustCreate(t, svc, validCreateRequest())

	// Only end_time is supplied; it must be checked against the stored
	// start_time.
	end := "08:30"
	_, err := svc.UpdateBooking(context.Background(), created.Booking.ID, &api.BookingUpdateRequest{
		EndTime: &end,
	})

	var fieldErr *response.FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("expected FieldError, got %v", err)
	}
	if fieldErr.Field != "end_time" {
		t.Errorf("field = %q, want end_time", fieldErr.Field)
	}
}

func TestUpdateBookingStatusTransition(t *testing.T) {
	svc, _, _ := newTestService(ModeStrict)

	created := mustCreate(t, svc, validCreateRequest())

	status := "confirmed"
	updated, err := svc.UpdateBooking(context.Background(), created.Booking.ID, &api.BookingUpdateRequest{
		Status: &status,
	})
	if err != nil {
		t.Fatalf("UpdateBooking failed: %v", err)
	}
	if updated.Status != "confirmed" {
		t.Errorf("status = %q, want confirmed", updated.Status)
	}

	// Going back to pending is not a legal move.
	back := "pending"
	_, err = svc.UpdateBooking(context.Background(), created.Booking.ID, &api.BookingUpdateRequest{
		Status: &back,
	})

	var fieldErr *response.FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("expected FieldError, got %v", err)
	}
}

func TestUpdateBookingNotFound(t *testing.T) {
	svc, _, _ := newTestService(ModeStrict)

	_, err := svc.UpdateBooking(context.Background(), 404, &api.BookingUpdateRequest{})
	if !errors.Is(err, response.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCancelBooking(t *testing.T) {
	svc, _, _ := newTestService(ModeStrict)

	created := mustCreate(t, svc, validCreateRequest())

	cancelled, err := svc.CancelBooking(context.Background(), created.Booking.ID)
	if err != nil {
		t.Fatalf("CancelBooking failed: %v", err)
	}
	if cancelled.Status != "cancelled" {
		t.Errorf("status = %q, want cancelled", cancelled.Status)
	}

	// A second cancel must be rejected: cancelled is terminal.
	_, err = svc.CancelBooking(context.Background(), created.Booking.ID)

	var fieldErr *response.FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("expected FieldError, got %v", err)
	}
}

func TestConfirmBooking(t *testing.T) {
	svc, _, _ := newTestService(ModeStrict)

	created := mustCreate(t, svc, validCreateRequest())

	confirmed, err := svc.ConfirmBooking(context.Background(), created.Booking.ID)
	if err != nil {
		t.Fatalf("ConfirmBooking failed: %v", err)
	}
	if confirmed.Status != "confirmed" {
		t.Errorf("status = %q, want confirmed", confirmed.Status)
	}

	// Confirming twice is rejected.
	if _, err := svc.ConfirmBooking(context.Background(), created.Booking.ID); err == nil {
		t.Error("expected second confirm to fail")
	}
}
