package main

import (
	"tutoring-service/internal/config"
	availDelete "tutoring-service/internal/http-server/handlers/availability/delete"
	availGet "tutoring-service/internal/http-server/handlers/availability/get"
	availSet "tutoring-service/internal/http-server/handlers/availability/set"
	bookingCancel "tutoring-service/internal/http-server/handlers/bookings/cancel"
	bookingConfirm "tutoring-service/internal/http-server/handlers/bookings/confirm"
	bookingCreate "tutoring-service/internal/http-server/handlers/bookings/create"
	bookingGet "tutoring-service/internal/http-server/handlers/bookings/get"
	bookingUpdate "tutoring-service/internal/http-server/handlers/bookings/update"
	discoveryGet "tutoring-service/internal/http-server/handlers/discovery/get"
	jobRun "tutoring-service/internal/http-server/handlers/jobs/run"
	"tutoring-service/internal/job"
	"tutoring-service/internal/lock"
	"tutoring-service/internal/notify"
	svc "tutoring-service/internal/service"
	"tutoring-service/internal/storage/postgres"
	slogpretty "tutoring-service/pkg/handlers/slogPretty"
	"tutoring-service/pkg/middleware/mwLogger"
	"tutoring-service/pkg/sl"
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Idempotency-Key")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting API", slog.String("env", cfg.Env))
	log.Debug("Debug messages are enabled")

	storage, err := postgres.New(log, cfg.StoragePath)
	if err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	locker, err := lock.NewRedisLock(cfg.RedisAddr)
	if err != nil {
		log.Error("Failed to init redis lock", sl.Err(err))
		os.Exit(1)
	}

	mode, err := svc.ParseMode(cfg.BookingMode)
	if err != nil {
		log.Error("Bad booking mode in config", sl.Err(err))
		os.Exit(1)
	}

	service := svc.NewService(storage, locker, mode)

	var notifier job.Notifier
	if cfg.StatusSync.WebhookURL != "" {
		notifier = notify.NewWebhook(log, cfg.StatusSync.WebhookURL)
	}

	syncJob := job.New(log, storage, notifier, job.Config{
		BatchSize:    cfg.StatusSync.BatchSize,
		MaxRetries:   cfg.StatusSync.MaxRetries,
		RetryBackoff: cfg.StatusSync.RetryBackoff,
	})

	runnerCtx, stopRunner := context.WithCancel(context.Background())
	runner := job.NewRunner(log, syncJob, cfg.StatusSync.DailyAt, cfg.StatusSync.PollInterval)
	runner.Start(runnerCtx)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwLogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(CORS)

	// Bookings
	router.Post("/bookings", bookingCreate.New(log, service))
	router.Get("/bookings/{id}", bookingGet.New(log, service))
	router.Patch("/bookings/{id}", bookingUpdate.New(log, service))
	router.Put("/bookings/{id}/cancel", bookingCancel.New(log, service))
	router.Put("/bookings/{id}/confirm", bookingConfirm.New(log, service))

	// Availability
	router.Get("/availability/{role}/{person_id}", availGet.New(log, service))
	router.Put("/availability/{role}/{person_id}", availSet.New(log, service))
	router.Delete("/availability/{role}/{person_id}", availDelete.New(log, service))

	// Discovery
	router.Get("/discovery/teachers", discoveryGet.New(log, service, "teacher"))
	router.Get("/discovery/students", discoveryGet.New(log, service, "student"))

	// Jobs
	router.Post("/jobs/status-sync", jobRun.New(log, syncJob))

	serv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serverErrCh := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", slog.String("addr", cfg.Address))
		if err := serv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErrCh:
		if err != nil {
			log.Error("HTTP server stopped unexpectedly", sl.Err(err))
		} else {
			log.Info("HTTP server stopped gracefully")
		}
	}

	stopRunner()
	runner.Wait()
	log.Info("Status sync runner stopped")

	shutdownTimeout := cfg.HTTPServer.ShutdownTimeout

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("Shutting down HTTP server", slog.String("timeout", shutdownTimeout.String()))

	if err := serv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", sl.Err(err))
	} else {
		log.Info("Server shutdown complete")
	}

	if storage != nil {
		if err := storage.Close(); err != nil {
			log.Error("Failed to close storage", sl.Err(err))
		} else {
			log.Info("Storage closed")
		}
	} else {
		log.Debug("Storage is nil, nothing to close")
	}

	if locker != nil {
		if err := locker.Close(); err != nil {
			log.Error("Failed to close locker", sl.Err(err))
		} else {
			log.Info("Locker closed")
		}
	}

	log.Info("Shutdown finished, server stopped")

}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
