package postgres

import (
	"context"
	"fmt"
	"time"

	"tutoring-service/internal/models"
)

// availabilityTable maps a validated role onto its per-role table. Roles
// are a closed set, so interpolating the name is safe.
func availabilityTable(role models.Role) string {
	if role == models.RoleStudent {
		return "student_availability"
	}
	return "teacher_availability"
}

func (s *Storage) GetAvailability(ctx context.Context, role models.Role, personID int64, from, to time.Time) ([]models.AvailabilityDay, error) {
	const op = "storage.postgres.GetAvailability"

	query := fmt.Sprintf(`
		SELECT person_id, date, morning, afternoon, evening
		FROM %s
		WHERE person_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date`,
		availabilityTable(role),
	)

	var days []models.AvailabilityDay
	if err := s.db.SelectContext(ctx, &days, query, personID, from, to); err != nil {
		return nil, mapError(op, err)
	}

	return days, nil
}

func (s *Storage) UpsertAvailability(ctx context.Context, role models.Role, day models.AvailabilityDay) error {
	const op = "storage.postgres.UpsertAvailability"

	query := fmt.Sprintf(`
		INSERT INTO %s (person_id, date, morning, afternoon, evening)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (person_id, date)
		DO UPDATE
		SET morning = EXCLUDED.morning,
			afternoon = EXCLUDED.afternoon,
			evening = EXCLUDED.evening`,
		availabilityTable(role),
	)

	_, err := s.db.ExecContext(ctx, query,
		day.PersonID, day.Date, day.Morning, day.Afternoon, day.Evening)
	if err != nil {
		return mapError(op, err)
	}

	return nil
}

// DeleteAvailabilityRow drops the row entirely; used when all three slots
// of a date end up false.
func (s *Storage) DeleteAvailabilityRow(ctx context.Context, role models.Role, personID int64, date time.Time) error {
	const op = "storage.postgres.DeleteAvailabilityRow"

	query := fmt.Sprintf(`DELETE FROM %s WHERE person_id = $1 AND date = $2`,
		availabilityTable(role))

	if _, err := s.db.ExecContext(ctx, query, personID, date); err != nil {
		return mapError(op, err)
	}

	return nil
}

func (s *Storage) ListAvailablePersons(ctx context.Context, role models.Role, date time.Time, slot models.Slot) ([]int64, error) {
	const op = "storage.postgres.ListAvailablePersons"

	query := fmt.Sprintf(`
		SELECT person_id FROM %s
		WHERE date = $1 AND %s = TRUE
		ORDER BY person_id`,
		availabilityTable(role),
		string(slot),
	)

	var ids []int64
	if err := s.db.SelectContext(ctx, &ids, query, date); err != nil {
		return nil, mapError(op, err)
	}

	return ids, nil
}
