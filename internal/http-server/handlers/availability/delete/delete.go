package delete

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"tutoring-service/api"
	"tutoring-service/pkg/response"
	"tutoring-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type AvailabilityDeleter interface {
	DeleteAvailability(ctx context.Context, role string, personID int64, req *api.AvailabilityDeleteRequest) (int, error)
}

type Request struct {
	api.AvailabilityDeleteRequest
}

type Response struct {
	response.Response
	Cleared int `json:"cleared"`
}

func New(log *slog.Logger, deleter AvailabilityDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.delete.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		personID, err := strconv.ParseInt(chi.URLParam(r, "person_id"), 10, 64)
		if err != nil {
			log.Error("invalid person id")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "person_id must be an integer"))
			return
		}

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		log.Info("Request body decoded", slog.Any("request", req))

		cleared, err := deleter.DeleteAvailability(r.Context(), chi.URLParam(r, "role"), personID, &req.AvailabilityDeleteRequest)

		var fieldErr *response.FieldError
		if errors.As(err, &fieldErr) {
			log.Error("Validation failed", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.FieldErrorResponse(string(response.VALIDATION_FAILED), fieldErr.Message, fieldErr.Field))
			return
		}

		if err != nil {
			log.Error("Failed to delete availability", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to delete availability"))
			return
		}

		log.Info("Availability cleared",
			slog.Int64("person_id", personID),
			slog.Int("cleared", cleared),
		)

		render.JSON(w, r, Response{Cleared: cleared})
	}
}
