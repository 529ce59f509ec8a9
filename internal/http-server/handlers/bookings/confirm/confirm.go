package confirm

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

type BookingConfirmer interface {
	ConfirmBooking(ctx context.Context, id int64) (*api.BookingResponse, error)
}

type Response struct {
	response.Response
	Booking *api.BookingResponse `json:"booking,omitempty"`
}

func New(log *slog.Logger, confirmer BookingConfirmer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.confirm.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			log.Error("invalid booking id")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "id must be an integer"))
			return
		}

		booking, err := confirmer.ConfirmBooking(r.Context(), id)

		var fieldErr *response.FieldError
		if errors.As(err, &fieldErr) {
			log.Error("Transition rejected", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.FieldErrorResponse(string(response.VALIDATION_FAILED), fieldErr.Message, fieldErr.Field))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("resource not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
			return
		}

		if err != nil {
			log.Error("Failed to confirm booking", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to confirm booking"))
			return
		}

		log.Info("Booking confirmed", slog.Int64("id", booking.ID))
		render.JSON(w, r, Response{Booking: booking})
	}
}
