package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"tutoring-service/internal/models"
	"tutoring-service/pkg/response"
)

func (s *Storage) CreateBooking(ctx context.Context, b *models.Booking) (int64, error) {
	const op = "storage.postgres.CreateBooking"

	query := fmt.Sprintf(`
		INSERT INTO bookings
		(teacher_id, student_id, type_id, %s, start_time, end_time, status, location, fee)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		pq.QuoteIdentifier(s.schema.DateColumn(ctx)),
	)

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		b.TeacherID,
		b.StudentID,
		b.TypeID,
		b.Date,
		b.StartTime,
		b.EndTime,
		string(b.Status),
		b.Location,
		b.Fee,
	).Scan(&id)
	if err != nil {
		return 0, mapError(op, err)
	}

	return id, nil
}

func (s *Storage) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	const op = "storage.postgres.GetBooking"

	query := fmt.Sprintf(`
		SELECT id, teacher_id, student_id, type_id,
			%s AS session_date,
			to_char(start_time, 'HH24:MI') AS start_time,
			to_char(end_time, 'HH24:MI') AS end_time,
			status, last_auto_update, location, fee
		FROM bookings
		WHERE id = $1`,
		s.schema.ResolveDateExpr(ctx, ""),
	)

	var b models.Booking
	if err := s.db.GetContext(ctx, &b, query, id); err != nil {
		return nil, mapError(op, err)
	}

	return &b, nil
}

// UpdateBooking issues one dynamic UPDATE containing only the columns the
// patch actually supplies.
func (s *Storage) UpdateBooking(ctx context.Context, id int64, patch *models.BookingPatch) error {
	const op = "storage.postgres.UpdateBooking"

	set := make([]string, 0, 9)
	args := make([]any, 0, 10)

	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.TeacherID != nil {
		add("teacher_id", *patch.TeacherID)
	}
	if patch.StudentID != nil {
		add("student_id", *patch.StudentID)
	}
	if patch.TypeID != nil {
		add("type_id", *patch.TypeID)
	}
	if patch.Date != nil {
		add(pq.QuoteIdentifier(s.schema.DateColumn(ctx)), *patch.Date)
	}
	if patch.StartTime != nil {
		add("start_time", *patch.StartTime)
	}
	if patch.EndTime != nil {
		add("end_time", *patch.EndTime)
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.Location != nil {
		add("location", *patch.Location)
	}
	if patch.Fee != nil {
		add("fee", *patch.Fee)
	}

	if len(set) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE bookings SET %s WHERE id = $%d`,
		strings.Join(set, ", "), len(args))

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

// FindDuplicateBooking returns the id of a non-cancelled booking for the
// same teacher, student, date and identical interval, or 0.
func (s *Storage) FindDuplicateBooking(ctx context.Context, teacherID, studentID int64, date time.Time, start, end string) (int64, error) {
	const op = "storage.postgres.FindDuplicateBooking"

	query := fmt.Sprintf(`
		SELECT id FROM bookings
		WHERE teacher_id = $1 AND student_id = $2 AND %s = $3
		  AND start_time = $4 AND end_time = $5
		  AND status <> 'cancelled'
		ORDER BY id
		LIMIT 1`,
		s.schema.ResolveDateExpr(ctx, ""),
	)

	var id int64
	err := s.db.GetContext(ctx, &id, query, teacherID, studentID, date, start, end)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, mapError(op, err)
	}

	return id, nil
}

// FindOverlappingBooking returns the id of a non-cancelled booking for
// the person on the date whose half-open interval intersects [start,end),
// or 0. Intersection test: existing.start < end AND existing.end > start.
func (s *Storage) FindOverlappingBooking(ctx context.Context, role models.Role, personID int64, date time.Time, start, end string) (int64, error) {
	const op = "storage.postgres.FindOverlappingBooking"

	column := "teacher_id"
	if role == models.RoleStudent {
		column = "student_id"
	}

	query := fmt.Sprintf(`
		SELECT id FROM bookings
		WHERE %s = $1 AND %s = $2
		  AND status <> 'cancelled'
		  AND start_time < $4 AND end_time > $3
		ORDER BY id
		LIMIT 1`,
		column,
		s.schema.ResolveDateExpr(ctx, ""),
	)

	var id int64
	err := s.db.GetContext(ctx, &id, query, personID, date, start, end)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, mapError(op, err)
	}

	return id, nil
}

// PersonStatus returns the participant's status string, or nil when the
// participant table does not expose a status column at all.
func (s *Storage) PersonStatus(ctx context.Context, role models.Role, personID int64) (*string, error) {
	const op = "storage.postgres.PersonStatus"

	table := "teachers"
	if role == models.RoleStudent {
		table = "students"
	}

	if !s.schema.HasStatusColumn(ctx, table) {
		return nil, nil
	}

	var status string
	err := s.db.GetContext(ctx, &status,
		fmt.Sprintf(`SELECT status FROM %s WHERE id = $1`, table), personID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, response.ErrRefMissing)
	}
	if err != nil {
		return nil, mapError(op, err)
	}

	return &status, nil
}
