package create

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"tutoring-service/api"
	"tutoring-service/pkg/response"
	"tutoring-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type BookingCreator interface {
	CreateBooking(ctx context.Context, req *api.BookingCreateRequest) (*api.BookingCreateResponse, error)
}

type Request struct {
	api.BookingCreateRequest
}

type Response struct {
	response.Response
	Booking         *api.BookingResponse `json:"booking,omitempty"`
	SkippedStudents int                  `json:"skipped_students"`
	Conflict        *api.ConflictInfo    `json:"conflict,omitempty"`
}

func New(log *slog.Logger, creator BookingCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.create.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		log.Info("Request body decoded", slog.Any("request", req))

		result, err := creator.CreateBooking(r.Context(), &req.BookingCreateRequest)

		var fieldErr *response.FieldError
		if errors.As(err, &fieldErr) {
			log.Error("Validation failed", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.FieldErrorResponse(string(response.VALIDATION_FAILED), fieldErr.Message, fieldErr.Field))
			return
		}

		var conflictErr *response.ConflictError
		if errors.As(err, &conflictErr) {
			log.Error("Booking conflict", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, Response{
				Response: response.Error(string(response.CONFLICT), "booking conflicts with an existing one"),
				Conflict: &api.ConflictInfo{
					Kind:      conflictErr.Kind,
					BookingID: conflictErr.BookingID,
				},
			})
			return
		}

		if errors.Is(err, response.ErrLocked) {
			log.Error("resource is locked")
			w.WriteHeader(http.StatusLocked)
			render.JSON(w, r, response.Error(string(response.LOCKED), "resource is locked"))
			return
		}

		if errors.Is(err, response.ErrRefMissing) {
			log.Error("referenced entity missing", sl.Err(err))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(string(response.REFERENCE_MISSING), "referenced entity missing or deleted"))
			return
		}

		if errors.Is(err, response.ErrInvariant) {
			log.Error("database invariant violated", sl.Err(err))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(string(response.INVARIANT_VIOLATION), "violates database invariant"))
			return
		}

		if errors.Is(err, response.ErrUnavailable) {
			log.Error("storage unavailable", sl.Err(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error(string(response.UNAVAILABLE), "storage temporarily unavailable"))
			return
		}

		if err != nil {
			log.Error("Failed to create booking", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to create booking"))
			return
		}

		log.Info("Booking created",
			slog.Int64("id", result.Booking.ID),
			slog.Int("skipped_students", result.SkippedStudents),
		)

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, Response{
			Booking:         &result.Booking,
			SkippedStudents: result.SkippedStudents,
		})
	}
}
