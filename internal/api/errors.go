package api

import (
	"encoding/json"
	"net/http"
)

// Error is the JSON body of every non-2xx response.
type Error struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeNotFound    = "not_found"
	ErrCodeConflict    = "conflict"
	ErrCodeForbidden   = "forbidden"
	ErrCodeInternal    = "internal_error"
	ErrCodeValidation  = "validation_error"
	ErrCodeUnavailable = "service_unavailable"
	ErrCodeUnreachable = "unreachable"
)

// codeStatus is the status used by the shorthand writers below.
var codeStatus = map[string]int{
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeNotFound:    http.StatusNotFound,
	ErrCodeInternal:    http.StatusInternalServerError,
	ErrCodeUnavailable: http.StatusServiceUnavailable,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}

// writeError echoes the request ID set by requestIDMiddleware so a client
// can quote it when reporting a failure.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: w.Header().Get(headerRequestID),
	})
}

func writeCode(w http.ResponseWriter, code, message string) {
	writeError(w, codeStatus[code], code, message)
}

func writeBadRequest(w http.ResponseWriter, message string) { writeCode(w, ErrCodeBadRequest, message) }
func writeNotFound(w http.ResponseWriter, message string)   { writeCode(w, ErrCodeNotFound, message) }

func writeUnavailable(w http.ResponseWriter, message string) {
	writeCode(w, ErrCodeUnavailable, message)
}

func writeInternalError(w http.ResponseWriter, message string) {
	writeCode(w, ErrCodeInternal, message)
}
