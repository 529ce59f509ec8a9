package job

import (
	"context"
	"log/slog"
	"time"
)

// Runner owns the supervisory loop around the job: one run right away at
// startup, a run at the configured wall-clock time each day, and a more
// frequent poll so transitions never lag by more than one interval.
type Runner struct {
	log     *slog.Logger
	job     *Job
	dailyAt string
	poll    time.Duration
	done    chan struct{}
}

func NewRunner(log *slog.Logger, job *Job, dailyAt string, poll time.Duration) *Runner {
	return &Runner{
		log:     log,
		job:     job,
		dailyAt: dailyAt,
		poll:    poll,
		done:    make(chan struct{}),
	}
}

func (r *Runner) Start(ctx context.Context) {
	go r.loop(ctx)
}

// Wait blocks until the loop has observed cancellation and exited.
func (r *Runner) Wait() {
	<-r.done
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)

	r.job.Run(ctx)

	daily := time.NewTimer(nextDailyDelay(time.Now(), r.dailyAt))
	defer daily.Stop()

	var pollC <-chan time.Time
	if r.poll > 0 {
		ticker := time.NewTicker(r.poll)
		defer ticker.Stop()
		pollC = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			r.log.Info("Status sync runner stopped")
			return
		case <-daily.C:
			r.job.Run(ctx)
			daily.Reset(nextDailyDelay(time.Now(), r.dailyAt))
		case <-pollC:
			r.job.Run(ctx)
		}
	}
}

// nextDailyDelay returns the duration until the next wall-clock
// occurrence of at ("HH:MM"). A malformed value falls back to a plain
// 24h period.
func nextDailyDelay(now time.Time, at string) time.Duration {
	t, err := time.Parse("15:04", at)
	if err != nil {
		return 24 * time.Hour
	}

	next := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}

	return next.Sub(now)
}
