package schema

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/lib/pq"

	"tutoring-service/pkg/sl"
)

// Historical migrations left the booking date behind three possible
// column names. The adapter probes the live schema once at first use and
// every query goes through the resolved expression afterwards; the schema
// does not change at runtime, so the result is cached for the process
// lifetime.
var legacyDateColumns = []string{"arr_date", "class_date", "date"}

const (
	bookingsTable       = "bookings"
	defaultDateColumn   = "arr_date"
	fallbackDateLiteral = "DATE '2000-01-01'"
)

// ColumnProber lists the live column names of a table. The postgres
// storage implements it against information_schema; tests stub it.
type ColumnProber interface {
	TableColumns(ctx context.Context, table string) ([]string, error)
}

type ProberFunc func(ctx context.Context, table string) ([]string, error)

func (f ProberFunc) TableColumns(ctx context.Context, table string) ([]string, error) {
	return f(ctx, table)
}

type Adapter struct {
	log   *slog.Logger
	probe ColumnProber

	dateOnce sync.Once
	dateCols []string

	mu         sync.Mutex
	statusCols map[string]bool
}

func New(log *slog.Logger, probe ColumnProber) *Adapter {
	return &Adapter{
		log:        log,
		probe:      probe,
		statusCols: make(map[string]bool),
	}
}

func (a *Adapter) resolveDateCols(ctx context.Context) {
	a.dateOnce.Do(func() {
		const op = "schema.Adapter.resolveDateCols"

		cols, err := a.probe.TableColumns(ctx, bookingsTable)
		if err != nil {
			// Booking operations must not be blocked by a metadata query
			// outage, so a failed probe falls back to the default column.
			a.log.Warn("Schema probe failed, using default date column",
				slog.String("op", op), sl.Err(err))
			a.dateCols = []string{defaultDateColumn}
			return
		}

		present := make(map[string]bool, len(cols))
		for _, c := range cols {
			present[c] = true
		}

		for _, c := range legacyDateColumns {
			if present[c] {
				a.dateCols = append(a.dateCols, c)
			}
		}

		a.log.Info("Resolved booking date columns",
			slog.String("op", op), slog.Any("columns", a.dateCols))
	})
}

// ResolveDateExpr returns the SQL expression for the logical session
// date, qualified with tableAlias when one is given. With several legacy
// columns present it is a COALESCE across all of them; with none it is a
// fixed literal so queries still parse.
func (a *Adapter) ResolveDateExpr(ctx context.Context, tableAlias string) string {
	a.resolveDateCols(ctx)

	if len(a.dateCols) == 0 {
		return fallbackDateLiteral
	}

	qualified := make([]string, 0, len(a.dateCols))
	for _, c := range a.dateCols {
		q := pq.QuoteIdentifier(c)
		if tableAlias != "" {
			q = tableAlias + "." + q
		}
		qualified = append(qualified, q)
	}

	if len(qualified) == 1 {
		return qualified[0]
	}

	return fmt.Sprintf("COALESCE(%s)", strings.Join(qualified, ", "))
}

// DateColumn returns the physical column INSERT and UPDATE statements
// should write the session date to.
func (a *Adapter) DateColumn(ctx context.Context) string {
	a.resolveDateCols(ctx)

	if len(a.dateCols) == 0 {
		return defaultDateColumn
	}

	return a.dateCols[0]
}

// HasStatusColumn reports whether table carries a status column. The
// participant tables are optional and still evolving: a probe failure
// reads as "no column" so booking writes keep working, and the answer is
// cached like the date resolution.
func (a *Adapter) HasStatusColumn(ctx context.Context, table string) bool {
	const op = "schema.Adapter.HasStatusColumn"

	a.mu.Lock()
	defer a.mu.Unlock()

	if has, ok := a.statusCols[table]; ok {
		return has
	}

	cols, err := a.probe.TableColumns(ctx, table)
	if err != nil {
		a.log.Warn("Schema probe failed, skipping status checks",
			slog.String("op", op), slog.String("table", table), sl.Err(err))
		a.statusCols[table] = false
		return false
	}

	has := false
	for _, c := range cols {
		if c == "status" {
			has = true
			break
		}
	}

	a.statusCols[table] = has
	return has
}
