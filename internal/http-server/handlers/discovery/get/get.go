package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"tutoring-service/pkg/response"
	"tutoring-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type PersonLister interface {
	GetAvailablePersons(ctx context.Context, role, date, slot string) ([]int64, error)
}

type Response struct {
	response.Response
	PersonIDs []int64 `json:"person_ids"`
}

// New lists persons of the fixed role with the requested slot marked
// available on the requested date.
func New(log *slog.Logger, lister PersonLister, role string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.discovery.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		ids, err := lister.GetAvailablePersons(r.Context(),
			role,
			r.URL.Query().Get("date"),
			r.URL.Query().Get("slot"),
		)

		var fieldErr *response.FieldError
		if errors.As(err, &fieldErr) {
			log.Error("Validation failed", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.FieldErrorResponse(string(response.VALIDATION_FAILED), fieldErr.Message, fieldErr.Field))
			return
		}

		if err != nil {
			log.Error("Failed to list available persons", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list available persons"))
			return
		}

		log.Info("Available persons listed",
			slog.String("role", role),
			slog.Int("count", len(ids)),
		)

		render.JSON(w, r, Response{PersonIDs: ids})
	}
}
