package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/studentaffairs/portal/internal/api/problem"
	"github.com/studentaffairs/portal/internal/domain/events"
	"github.com/studentaffairs/portal/internal/storage/blob"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func pathID(r *http.Request) (int64, error) {
	return events.ParseID(r.PathValue("id"))
}

// writeError maps domain and storage errors onto problem responses.
func writeError(w http.ResponseWriter, r *http.Request, err error, env string) {
	var (
		verrs    events.ValidationErrors
		filter   events.FilterError
		tooLarge *http.MaxBytesError
	)
	switch {
	case errors.As(err, &verrs):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid event", err, env,
			problem.WithErrors(verrs.Fields()), problem.WithDetail("One or more fields are invalid."))
	case errors.As(err, &filter):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, env,
			problem.WithErrors(map[string]string{filter.Field: filter.Message}), problem.WithDetail(filter.Error()))
	case errors.Is(err, events.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Event not found", err, env)
	case errors.Is(err, events.ErrCategoryNotFound):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid event", err, env,
			problem.WithErrors(map[string]string{"category": "Category is not recognised."}))
	case errors.As(err, &tooLarge), errors.Is(err, blob.ErrTooLarge):
		problem.Write(w, r, http.StatusRequestEntityTooLarge, problem.TypeTooLarge, "Payload too large", err, env,
			problem.WithDetail("Images must be 5 MB or smaller."))
	case errors.Is(err, blob.ErrUnsupportedType), errors.Is(err, blob.ErrEmpty):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid image", err, env,
			problem.WithErrors(map[string]string{"file": "Upload a JPEG, PNG, GIF or WebP image."}))
	case errors.Is(err, blob.ErrNotConfigured):
		problem.Write(w, r, http.StatusServiceUnavailable, problem.TypeUpstream, "Image storage unavailable", err, env)
	default:
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServer, "Server error", err, env)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
