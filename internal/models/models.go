package models

import (
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
	BookingInvalid   BookingStatus = "invalid"
)

// ParseBookingStatus maps a caller-supplied string onto the closed status
// set. Anything outside the four legal values comes back as BookingInvalid.
func ParseBookingStatus(s string) BookingStatus {
	switch BookingStatus(strings.ToLower(strings.TrimSpace(s))) {
	case BookingPending:
		return BookingPending
	case BookingConfirmed:
		return BookingConfirmed
	case BookingCompleted:
		return BookingCompleted
	case BookingCancelled:
		return BookingCancelled
	default:
		return BookingInvalid
	}
}

// Active reports whether the booking still occupies its time interval.
// Cancelled and completed rows no longer block the calendar for new
// conflicts, but only cancelled ones are excluded from overlap checks.
func (s BookingStatus) Active() bool {
	return s == BookingPending || s == BookingConfirmed
}

// CanTransition reports whether a booking may move from s to next. The
// lifecycle only moves forward: pending -> confirmed -> completed, with
// cancellation allowed from pending or confirmed.
func (s BookingStatus) CanTransition(next BookingStatus) bool {
	switch next {
	case BookingConfirmed:
		return s == BookingPending
	case BookingCompleted:
		return s == BookingPending || s == BookingConfirmed
	case BookingCancelled:
		return s == BookingPending || s == BookingConfirmed
	default:
		return false
	}
}

type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "teacher", "teachers":
		return RoleTeacher, true
	case "student", "students":
		return RoleStudent, true
	default:
		return "", false
	}
}

type Slot string

const (
	SlotMorning   Slot = "morning"
	SlotAfternoon Slot = "afternoon"
	SlotEvening   Slot = "evening"
)

func ParseSlot(s string) (Slot, bool) {
	switch Slot(strings.ToLower(strings.TrimSpace(s))) {
	case SlotMorning:
		return SlotMorning, true
	case SlotAfternoon:
		return SlotAfternoon, true
	case SlotEvening:
		return SlotEvening, true
	default:
		return "", false
	}
}

// Booking is one scheduled session between a teacher and a student.
// Date is the logical session date; the physical column behind it varies
// across migrations and is resolved by the schema adapter.
type Booking struct {
	ID             int64         `db:"id"`
	TeacherID      int64         `db:"teacher_id"`
	StudentID      int64         `db:"student_id"`
	TypeID         int64         `db:"type_id"`
	Date           time.Time     `db:"session_date"`
	StartTime      string        `db:"start_time"`
	EndTime        string        `db:"end_time"`
	Status         BookingStatus `db:"status"`
	LastAutoUpdate *time.Time    `db:"last_auto_update"`
	Location       *string       `db:"location"`
	Fee            *float64      `db:"fee"`
}

// BookingPatch holds only the columns a partial update supplies.
// Nil means "keep the current value".
type BookingPatch struct {
	TeacherID *int64
	StudentID *int64
	TypeID    *int64
	Date      *time.Time
	StartTime *string
	EndTime   *string
	Status    *BookingStatus
	Location  *string
	Fee       *float64
}

type ConflictKind string

const (
	ConflictDuplicate      ConflictKind = "duplicate"
	ConflictTeacherOverlap ConflictKind = "teacher_overlap"
	ConflictStudentOverlap ConflictKind = "student_overlap"
)

type Conflict struct {
	Kind      ConflictKind
	BookingID int64
}

type AvailabilityDay struct {
	PersonID  int64     `db:"person_id"`
	Date      time.Time `db:"date"`
	Morning   bool      `db:"morning"`
	Afternoon bool      `db:"afternoon"`
	Evening   bool      `db:"evening"`
}

// AutoUpdateLog is one append-only audit row written for each booking the
// status sync job transitions.
type AutoUpdateLog struct {
	ScheduleID     int64         `db:"schedule_id"`
	PreviousStatus BookingStatus `db:"previous_status"`
	NewStatus      BookingStatus `db:"new_status"`
	RunID          string        `db:"run_id"`
	Note           string        `db:"note"`
	CreatedAt      time.Time     `db:"created_at"`
}

type StatusRunResult struct {
	Success      bool
	UpdatedCount int
	RunID        string
	Error        string
}
