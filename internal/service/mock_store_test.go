package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"tutoring-service/internal/models"
	"tutoring-service/pkg/response"
)

// mockStore is an in-memory Store used across the service tests. It
// keeps bookings in insertion order so conflict lookups return the
// lowest matching id, the same way the SQL queries order their results.
type mockStore struct {
	mu           sync.Mutex
	nextID       int64
	bookings     map[int64]*models.Booking
	order        []int64
	availability map[models.Role]map[string]*models.AvailabilityDay // key: "personID/date"
	statuses     map[models.Role]map[int64]string                   // nil role map = no status column
}

func newMockStore() *mockStore {
	return &mockStore{
		nextID:   1,
		bookings: map[int64]*models.Booking{},
		availability: map[models.Role]map[string]*models.AvailabilityDay{
			models.RoleTeacher: {},
			models.RoleStudent: {},
		},
		statuses: map[models.Role]map[int64]string{},
	}
}

func availKey(personID int64, date time.Time) string {
	return strconv.FormatInt(personID, 10) + "/" + date.Format("2006-01-02")
}

func (m *mockStore) CreateBooking(ctx context.Context, b *models.Booking) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++

	stored := *b
	stored.ID = id
	m.bookings[id] = &stored
	m.order = append(m.order, id)

	return id, nil
}

func (m *mockStore) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[id]
	if !ok {
		return nil, response.ErrNotFound
	}

	copied := *b
	return &copied, nil
}

func (m *mockStore) UpdateBooking(ctx context.Context, id int64, patch *models.BookingPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookings[id]
	if !ok {
		return response.ErrNotFound
	}

	if patch.TeacherID != nil {
		b.TeacherID = *patch.TeacherID
	}
	if patch.StudentID != nil {
		b.StudentID = *patch.StudentID
	}
	if patch.TypeID != nil {
		b.TypeID = *patch.TypeID
	}
	if patch.Date != nil {
		b.Date = *patch.Date
	}
	if patch.StartTime != nil {
		b.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		b.EndTime = *patch.EndTime
	}
	if patch.Status != nil {
		b.Status = *patch.Status
	}
	if patch.Location != nil {
		b.Location = patch.Location
	}
	if patch.Fee != nil {
		b.Fee = patch.Fee
	}

	return nil
}

func (m *mockStore) FindDuplicateBooking(ctx context.Context, teacherID, studentID int64, date time.Time, start, end string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.order {
		b := m.bookings[id]
		if b.Status == models.BookingCancelled {
			continue
		}
		if b.TeacherID == teacherID && b.StudentID == studentID &&
			b.Date.Equal(date) && b.StartTime == start && b.EndTime == end {
			return id, nil
		}
	}

	return 0, nil
}

func (m *mockStore) FindOverlappingBooking(ctx context.Context, role models.Role, personID int64, date time.Time, start, end string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.order {
		b := m.bookings[id]
		if b.Status == models.BookingCancelled || !b.Date.Equal(date) {
			continue
		}

		switch role {
		case models.RoleTeacher:
			if b.TeacherID != personID {
				continue
			}
		case models.RoleStudent:
			if b.StudentID != personID {
				continue
			}
		}

		// Half-open intervals: touching endpoints do not overlap.
		if b.StartTime < end && b.EndTime > start {
			return id, nil
		}
	}

	return 0, nil
}

func (m *mockStore) PersonStatus(ctx context.Context, role models.Role, personID int64) (*string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	table, ok := m.statuses[role]
	if !ok {
		return nil, nil
	}

	status, ok := table[personID]
	if !ok {
		return nil, response.ErrRefMissing
	}

	return &status, nil
}

func (m *mockStore) GetAvailability(ctx context.Context, role models.Role, personID int64, from, to time.Time) ([]models.AvailabilityDay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var days []models.AvailabilityDay
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if day, ok := m.availability[role][availKey(personID, d)]; ok {
			days = append(days, *day)
		}
	}

	return days, nil
}

func (m *mockStore) UpsertAvailability(ctx context.Context, role models.Role, day models.AvailabilityDay) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := day
	m.availability[role][availKey(day.PersonID, day.Date)] = &stored
	return nil
}

func (m *mockStore) DeleteAvailabilityRow(ctx context.Context, role models.Role, personID int64, date time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.availability[role], availKey(personID, date))
	return nil
}

func (m *mockStore) ListAvailablePersons(ctx context.Context, role models.Role, date time.Time, slot models.Slot) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []int64
	for _, day := range m.availability[role] {
		if !day.Date.Equal(date) {
			continue
		}
		switch slot {
		case models.SlotMorning:
			if day.Morning {
				ids = append(ids, day.PersonID)
			}
		case models.SlotAfternoon:
			if day.Afternoon {
				ids = append(ids, day.PersonID)
			}
		case models.SlotEvening:
			if day.Evening {
				ids = append(ids, day.PersonID)
			}
		}
	}

	return ids, nil
}

// mockLocker grants every lock and records the keys it saw.
type mockLocker struct {
	mu     sync.Mutex
	held   map[string]bool
	deny   bool
	locked []string
}

func newMockLocker() *mockLocker {
	return &mockLocker{held: map[string]bool{}}
}

func (l *mockLocker) Lock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.deny || l.held[key] {
		return false, nil
	}

	l.held[key] = true
	l.locked = append(l.locked, key)
	return true, nil
}

func (l *mockLocker) Unlock(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.held, key)
	return nil
}
