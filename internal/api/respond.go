package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/xid"

	"meditrack/internal/appointments"
	"meditrack/internal/auth"
	"meditrack/internal/medicines"
	"meditrack/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

// writeServiceError maps domain errors to statuses. Anything unknown is a 500
// whose details are logged under an id that is also returned to the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, models.ErrForbidden):
		writeError(w, http.StatusForbidden, "unauthorized")
	case errors.Is(err, models.ErrAppointmentConflict):
		writeJSON(w, http.StatusConflict, map[string]any{"error": "Conflict: You have an overlapping appointment", "code": http.StatusConflict})
	case errors.Is(err, models.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrInvalidInput),
		errors.Is(err, medicines.ErrInvalidInput),
		errors.Is(err, appointments.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		guid := xid.New().String()
		log.Error().Err(err).
			Str("error_id", guid).
			Str("request_id", chimw.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error", "error_id": guid})
	}
}

func decode(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}
