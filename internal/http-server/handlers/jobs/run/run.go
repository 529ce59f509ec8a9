package run

import (
	"context"
	"log/slog"
	"net/http"

	"tutoring-service/api"
	"tutoring-service/internal/models"
	"tutoring-service/pkg/response"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type JobRunner interface {
	Run(ctx context.Context) models.StatusRunResult
}

type Response struct {
	response.Response
	Run api.StatusRunResponse `json:"run"`
}

// New triggers one synchronous status sync run. The run is idempotent,
// so firing it while the scheduled runner is also active is harmless.
func New(log *slog.Logger, runner JobRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.jobs.run.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		result := runner.Run(r.Context())

		if !result.Success {
			log.Error("Manual status sync run failed", slog.String("run_id", result.RunID))
			w.WriteHeader(http.StatusInternalServerError)
		} else {
			log.Info("Manual status sync run finished",
				slog.String("run_id", result.RunID),
				slog.Int("updated", result.UpdatedCount),
			)
		}

		render.JSON(w, r, Response{
			Run: api.StatusRunResponse{
				Success:      result.Success,
				UpdatedCount: result.UpdatedCount,
				RunID:        result.RunID,
				Error:        result.Error,
			},
		})
	}
}
