package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/florahq/trellis/internal/garden"
	"github.com/florahq/trellis/internal/plant"
	"github.com/florahq/trellis/internal/user"
)

// maxBodySize is the maximum allowed request body size (1 MB).
const maxBodySize = 1 << 20

// errorEnvelope is the standard error response shape.
type errorEnvelope struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  []garden.FieldError `json:"fields,omitempty"`
}

// writeError writes a JSON error response with the given status code.
func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// writeFieldErrors writes a 400 validation response listing every failed field.
func writeFieldErrors(w http.ResponseWriter, fields []garden.FieldError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		Error: errorDetail{
			Code:    "validation_error",
			Message: "one or more fields are invalid",
			Fields:  fields,
		},
	})
}

// writeJSON writes a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// readJSON decodes the request body into v, enforcing a size limit.
func readJSON(r *http.Request, v interface{}) error {
	lr := io.LimitReader(r.Body, maxBodySize)
	return json.NewDecoder(lr).Decode(v)
}

// writeServiceError maps service-layer errors onto the HTTP error taxonomy.
// Role-absent lookups come back as not-found so garden existence never leaks
// to users without access; explicit capability failures are forbidden.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs garden.ValidationErrors
	if errors.As(err, &verrs) {
		writeFieldErrors(w, verrs)
		return
	}

	switch {
	case errors.Is(err, garden.ErrNotFound),
		errors.Is(err, garden.ErrUserNotFound),
		errors.Is(err, garden.ErrMemberNotFound),
		errors.Is(err, garden.ErrPlantNotOwned),
		errors.Is(err, garden.ErrPlantNotInGarden),
		errors.Is(err, plant.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, garden.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, garden.ErrAlreadyOwner),
		errors.Is(err, garden.ErrAlreadyMember),
		errors.Is(err, garden.ErrOwnerCannotLeave):
		writeError(w, http.StatusBadRequest, "conflict", err.Error())
	case errors.Is(err, garden.ErrInvalidRole),
		errors.Is(err, plant.ErrNameRequired),
		errors.Is(err, plant.ErrInvalidLocation),
		errors.Is(err, plant.ErrInvalidCareType),
		errors.Is(err, plant.ErrIntervalOutOfRange):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, user.ErrEmailTaken):
		writeError(w, http.StatusBadRequest, "conflict", err.Error())
	default:
		slog.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestIDFromContext(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "something went wrong")
	}
}
