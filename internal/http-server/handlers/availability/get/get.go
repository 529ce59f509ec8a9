package get

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

type AvailabilityGetter interface {
	GetAvailability(ctx context.Context, role string, personID int64, from, to string) ([]api.AvailabilityDayResponse, error)
}

type Response struct {
	response.Response
	Days []api.AvailabilityDayResponse `json:"days"`
}

func New(log *slog.Logger, getter AvailabilityGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.get.New"

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

		days, err := getter.GetAvailability(r.Context(),
			chi.URLParam(r, "role"),
			personID,
			r.URL.Query().Get("from"),
			r.URL.Query().Get("to"),
		)

		var fieldErr *response.FieldError
		if errors.As(err, &fieldErr) {
			log.Error("Validation failed", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.FieldErrorResponse(string(response.VALIDATION_FAILED), fieldErr.Message, fieldErr.Field))
			return
		}

		if err != nil {
			log.Error("Failed to get availability", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get availability"))
			return
		}

		log.Info("Availability retrieved",
			slog.Int64("person_id", personID),
			slog.Int("days", len(days)),
		)

		render.JSON(w, r, Response{Days: days})
	}
}
