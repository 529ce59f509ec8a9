package set

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

type AvailabilitySetter interface {
	SetAvailability(ctx context.Context, role string, personID int64, req *api.AvailabilitySetRequest) ([]api.AvailabilityDayResponse, error)
}

type Request struct {
	api.AvailabilitySetRequest
}

type Response struct {
	response.Response
	Days []api.AvailabilityDayResponse `json:"days"`
}

func New(log *slog.Logger, setter AvailabilitySetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.set.New"

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

		days, err := setter.SetAvailability(r.Context(), chi.URLParam(r, "role"), personID, &req.AvailabilitySetRequest)

		var fieldErr *response.FieldError
		if errors.As(err, &fieldErr) {
			log.Error("Validation failed", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.FieldErrorResponse(string(response.VALIDATION_FAILED), fieldErr.Message, fieldErr.Field))
			return
		}

		if errors.Is(err, response.ErrUnavailable) {
			log.Error("storage unavailable", sl.Err(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error(string(response.UNAVAILABLE), "storage temporarily unavailable"))
			return
		}

		if err != nil {
			log.Error("Failed to set availability", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to set availability"))
			return
		}

		log.Info("Availability updated",
			slog.Int64("person_id", personID),
			slog.Int("days", len(days)),
		)

		render.JSON(w, r, Response{Days: days})
	}
}
