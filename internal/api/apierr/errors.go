package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/spacetime-relay/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeLobbyNotFound    = "LOBBY_NOT_FOUND"
	CodeLobbyFull        = "LOBBY_FULL"
	CodeNotHost          = "NOT_HOST"
	CodeAlreadyInLobby   = "ALREADY_IN_LOBBY"
	CodeInvalidCode      = "INVALID_CODE"
	CodeGameInProgress   = "GAME_IN_PROGRESS"
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeInternalError    = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// clientErrors is the taxonomy reported back to the originating client.
// Anything not listed here is never surfaced over the socket.
var clientErrors = []struct {
	err    error
	status int
	api    APIError
}{
	{model.ErrLobbyNotFound, http.StatusNotFound, APIError{CodeLobbyNotFound, "Lobby not found"}},
	{model.ErrLobbyFull, http.StatusConflict, APIError{CodeLobbyFull, "Lobby is full"}},
	{model.ErrNotHost, http.StatusForbidden, APIError{CodeNotHost, "Only the host can perform this action"}},
	{model.ErrAlreadyInLobby, http.StatusConflict, APIError{CodeAlreadyInLobby, "Already in a lobby"}},
	{model.ErrInvalidCode, http.StatusBadRequest, APIError{CodeInvalidCode, "Invalid lobby code"}},
	{model.ErrGameInProgress, http.StatusConflict, APIError{CodeGameInProgress, "Game is in progress"}},
}

// ForClient maps an error onto the wire error sent to the originating
// connection. It reports false for errors that should be dropped silently.
func ForClient(err error) (APIError, bool) {
	for _, ce := range clientErrors {
		if errors.Is(err, ce.err) {
			return ce.api, true
		}
	}
	return APIError{}, false
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	for _, ce := range clientErrors {
		if errors.Is(err, ce.err) {
			return &httpError{ce.status, ce.api}
		}
	}
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}

// NewNotFoundError creates a not found error for unknown routes
func NewNotFoundError() error {
	return &httpError{http.StatusNotFound, APIError{CodeNotFound, "Not found"}}
}

// NewMethodNotAllowedError creates an error for a known route hit with the wrong method
func NewMethodNotAllowedError() error {
	return &httpError{http.StatusMethodNotAllowed, APIError{CodeMethodNotAllowed, "Method not allowed"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
