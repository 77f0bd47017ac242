// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler in this application sends JSON back to the client.
// Error and acknowledgement bodies always have the same shape:
//
//	{ "message": "Student not found." }
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/students-roster/internal/types"
)

// Messages shared by several handlers.
const (
	MsgIDRequired    = "Student ID is required."
	MsgNotFound      = "Student not found."
	MsgInvalidJSON   = "Request body must be valid JSON."
	MsgInternalError = "Internal server error."
)

// Response is the envelope for errors and plain acknowledgements.
type Response struct {
	Message string `json:"message"`
}

// Message wraps a human-readable message.
func Message(msg string) Response {
	return Response{Message: msg}
}

// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteError maps err onto the error taxonomy and writes the matching body.
//
//	*types.ValidationError → 400, its own message
//	types.ErrNotFound      → 404, "Student not found."
//	anything else          → 500, generic (never the driver error)
//
// Only the 500 case is logged at error level; the other two are ordinary
// client mistakes.
func WriteError(w http.ResponseWriter, log *slog.Logger, err error, generic string) {
	var validationErr *types.ValidationError
	switch {
	case errors.As(err, &validationErr):
		WriteJSON(w, http.StatusBadRequest, Message(validationErr.Message)) //nolint:errcheck // best-effort write
	case errors.Is(err, types.ErrNotFound):
		WriteJSON(w, http.StatusNotFound, Message(MsgNotFound)) //nolint:errcheck // best-effort write
	default:
		log.Error(generic, slog.String("error", err.Error()))
		WriteJSON(w, http.StatusInternalServerError, Message(generic)) //nolint:errcheck // best-effort write
	}
}
