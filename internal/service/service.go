package service

import (
	"context"
	"fmt"
	"time"

	"tutoring-service/api"
	"tutoring-service/internal/lock"
	"tutoring-service/internal/models"
	"tutoring-service/pkg/response"
)

// Mode selects conflict enforcement for booking creation. The
// administrative deployment historically allowed duplicates and overlaps
// on purpose, so the behavior is an explicit setting rather than a code
// path difference.
type Mode string

const (
	ModeStrict     Mode = "strict"
	ModePermissive Mode = "permissive"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeStrict, "":
		return ModeStrict, nil
	case ModePermissive:
		return ModePermissive, nil
	default:
		return "", fmt.Errorf("unknown booking mode %q", s)
	}
}

type Service struct {
	store  Store
	locker lock.Locker
	mode   Mode
}

func NewService(store Store, locker lock.Locker, mode Mode) *Service {
	return &Service{store: store, locker: locker, mode: mode}
}

type Store interface {
	// Bookings
	CreateBooking(ctx context.Context, b *models.Booking) (int64, error)
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	UpdateBooking(ctx context.Context, id int64, patch *models.BookingPatch) error
	FindDuplicateBooking(ctx context.Context, teacherID, studentID int64, date time.Time, start, end string) (int64, error)
	FindOverlappingBooking(ctx context.Context, role models.Role, personID int64, date time.Time, start, end string) (int64, error)
	PersonStatus(ctx context.Context, role models.Role, personID int64) (*string, error)

	// Availability
	GetAvailability(ctx context.Context, role models.Role, personID int64, from, to time.Time) ([]models.AvailabilityDay, error)
	UpsertAvailability(ctx context.Context, role models.Role, day models.AvailabilityDay) error
	DeleteAvailabilityRow(ctx context.Context, role models.Role, personID int64, date time.Time) error
	ListAvailablePersons(ctx context.Context, role models.Role, date time.Time, slot models.Slot) ([]int64, error)
}

const dateLayout = "2006-01-02"

func parseDate(field, s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, response.NewFieldError(field, "must be a date in YYYY-MM-DD form")
	}
	return t, nil
}

// parseTimeOfDay validates an HH:MM string and normalizes it to
// zero-padded form, so string comparison orders times correctly.
func parseTimeOfDay(field, s string) (string, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return "", response.NewFieldError(field, "must be a time in HH:MM form")
	}
	return t.Format("15:04"), nil
}

func toBookingResponse(b *models.Booking) api.BookingResponse {
	resp := api.BookingResponse{
		ID:        b.ID,
		TeacherID: b.TeacherID,
		StudentID: b.StudentID,
		TypeID:    b.TypeID,
		Date:      b.Date.Format(dateLayout),
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Status:    string(b.Status),
		Location:  b.Location,
		Fee:       b.Fee,
	}

	if b.LastAutoUpdate != nil {
		s := b.LastAutoUpdate.UTC().Format(time.RFC3339)
		resp.LastAutoUpdate = &s
	}

	return resp
}
