package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tutoring-service/internal/models"
)

const autoUpdateNote = "auto-completed: session time elapsed"

// CompleteElapsedBatch advances one bounded batch of elapsed bookings to
// completed and writes the audit rows in the same transaction. The
// selection predicate is re-checked inside the UPDATE itself, so rows a
// concurrent run already claimed (last_auto_update set) stay untouched
// and the whole operation is safe to repeat.
func (s *Storage) CompleteElapsedBatch(ctx context.Context, runID string, day time.Time, now string, limit int) (int, error) {
	const op = "storage.postgres.CompleteElapsedBatch"

	dateExpr := s.schema.ResolveDateExpr(ctx, "")

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, mapError(op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := fmt.Sprintf(`
		WITH candidates AS (
			SELECT id, status FROM bookings
			WHERE status IN ('pending', 'confirmed')
			  AND last_auto_update IS NULL
			  AND (%[1]s < $1 OR (%[1]s = $1 AND end_time < $2))
			ORDER BY %[1]s ASC, id ASC
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		UPDATE bookings b
		SET status = 'completed', last_auto_update = NOW()
		FROM candidates c
		WHERE b.id = c.id
		  AND b.status IN ('pending', 'confirmed')
		  AND b.last_auto_update IS NULL
		RETURNING b.id, c.status`,
		dateExpr,
	)

	rows, err := tx.QueryContext(ctx, query, day, now, limit)
	if err != nil {
		return 0, mapError(op, err)
	}

	var ids []int64
	var previous []string
	for rows.Next() {
		var id int64
		var status string
		if err := rows.Scan(&id, &status); err != nil {
			rows.Close()
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		ids = append(ids, id)
		previous = append(previous, status)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, mapError(op, err)
	}
	rows.Close()

	if len(ids) == 0 {
		if err := tx.Commit(); err != nil {
			return 0, mapError(op, err)
		}
		return 0, nil
	}

	placeholders := make([]string, 0, len(ids))
	args := make([]any, 0, len(ids)*5)
	for i, id := range ids {
		base := i * 5
		placeholders = append(placeholders,
			fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)",
				base+1, base+2, base+3, base+4, base+5))
		args = append(args, id, previous[i], string(models.BookingCompleted), runID, autoUpdateNote)
	}

	insert := fmt.Sprintf(`
		INSERT INTO schedule_auto_update_logs
		(schedule_id, previous_status, new_status, run_id, note)
		VALUES %s`,
		strings.Join(placeholders, ","),
	)

	if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
		return 0, mapError(op, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, mapError(op, err)
	}

	return len(ids), nil
}
