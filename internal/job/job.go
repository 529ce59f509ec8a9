package job

import (
	"context"
	"database/sql/driver"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"

	"tutoring-service/internal/models"
	"tutoring-service/pkg/response"
	"tutoring-service/pkg/sl"
)

type Config struct {
	BatchSize    int
	MaxRetries   int
	RetryBackoff time.Duration
}

const maxBatchSize = 500

type Store interface {
	CompleteElapsedBatch(ctx context.Context, runID string, day time.Time, now string, limit int) (int, error)
}

type Notifier interface {
	NotifyFailure(ctx context.Context, runID string, err error)
}

// Job advances bookings whose scheduled time has elapsed from pending or
// confirmed to completed. Each transitioned row is tombstoned via
// last_auto_update, so re-running the job is always safe.
type Job struct {
	log      *slog.Logger
	store    Store
	notifier Notifier
	cfg      Config
	now      func() time.Time
}

func New(log *slog.Logger, store Store, notifier Notifier, cfg Config) *Job {
	if cfg.BatchSize <= 0 || cfg.BatchSize > maxBatchSize {
		cfg.BatchSize = maxBatchSize
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return &Job{
		log:      log,
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Run processes elapsed bookings in bounded batches until a batch comes
// back empty, which bounds transaction size and lock duration on large
// backlogs. Every audit row of one invocation carries the same run id.
func (j *Job) Run(ctx context.Context) models.StatusRunResult {
	const op = "job.Run"

	runID := uuid.NewString()
	log := j.log.With(slog.String("op", op), slog.String("run_id", runID))

	now := j.now()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	timeOfDay := now.Format("15:04")

	total := 0
	for {
		n, err := j.runBatch(ctx, runID, day, timeOfDay)
		if err != nil {
			log.Error("Status sync run failed", sl.Err(err), slog.Int("updated", total))
			if j.notifier != nil {
				j.notifier.NotifyFailure(ctx, runID, err)
			}
			return models.StatusRunResult{
				RunID:        runID,
				UpdatedCount: total,
				Error:        err.Error(),
			}
		}

		total += n
		if n == 0 {
			break
		}

		log.Debug("Batch completed", slog.Int("count", n))
	}

	log.Info("Status sync run finished", slog.Int("updated", total))

	return models.StatusRunResult{
		Success:      true,
		RunID:        runID,
		UpdatedCount: total,
	}
}

// runBatch executes one batch, retrying transient storage errors with
// linear backoff up to the configured count. Validation of the predicate
// happens in SQL; there is nothing to retry for non-transient failures.
func (j *Job) runBatch(ctx context.Context, runID string, day time.Time, timeOfDay string) (int, error) {
	var lastErr error

	for attempt := 0; attempt <= j.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(time.Duration(attempt) * j.cfg.RetryBackoff):
			}
		}

		n, err := j.store.CompleteElapsedBatch(ctx, runID, day, timeOfDay, j.cfg.BatchSize)
		if err == nil {
			return n, nil
		}

		lastErr = err
		if !isTransient(err) {
			return 0, err
		}

		j.log.Warn("Transient storage error, retrying",
			sl.Err(err), slog.Int("attempt", attempt+1))
	}

	return 0, lastErr
}

// isTransient reports whether the error looks like a connection-level
// failure worth retrying.
func isTransient(err error) bool {
	if errors.Is(err, response.ErrUnavailable) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
