package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"tutoring-service/internal/schema"
	"tutoring-service/pkg/response"
)

type Storage struct {
	db     *sqlx.DB
	schema *schema.Adapter
}

func New(log *slog.Logger, storagePath string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sqlx.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &Storage{db: db}
	s.schema = schema.New(log, schema.ProberFunc(s.TableColumns))

	return s, nil
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

// TableColumns lists the live columns of a table for the schema adapter.
func (s *Storage) TableColumns(ctx context.Context, table string) ([]string, error) {
	const op = "storage.postgres.TableColumns"

	var cols []string
	err := s.db.SelectContext(ctx, &cols,
		`SELECT column_name FROM information_schema.columns
		 WHERE table_schema = current_schema() AND table_name = $1`,
		table,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return cols, nil
}

// mapError translates driver errors into the stable categories callers
// act on, instead of leaking raw SQLSTATE codes.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return fmt.Errorf("%s: %w", op, response.ErrConflict)
		case "23503":
			return fmt.Errorf("%s: %w", op, response.ErrRefMissing)
		case "23514":
			return fmt.Errorf("%s: %w", op, response.ErrInvariant)
		}
		// class 08: connection exceptions, worth a retry in the job
		if pqErr.Code.Class() == "08" {
			return fmt.Errorf("%s: %w", op, response.ErrUnavailable)
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}
