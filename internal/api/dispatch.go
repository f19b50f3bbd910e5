package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/nerrad567/homenet/internal/device"
	"github.com/nerrad567/homenet/internal/dispatch"
)

type dispatchRequest struct {
	Request string `json:"request"`
}

type dispatchResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// handleDispatch runs one protocol request line, e.g. "GET /light/1/on",
// and returns the same reply the line transport would send. Failures keep
// the "ERROR: ..." reply and add an error code with a matching status.
func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var req dispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	line := strings.TrimRight(req.Request, "\r\n")
	if line == "" {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "request is required")
		return
	}

	ctx := dispatch.WithSource(r.Context(), device.SourceAPI)
	resp, err := s.dispatcher.Execute(ctx, line)
	if err != nil {
		status, code := dispatchStatus(err)
		writeJSON(w, status, dispatchResponse{Response: err.Error(), Error: code})
		return
	}
	writeJSON(w, http.StatusOK, dispatchResponse{Response: resp})
}

// dispatchStatus maps a dispatch failure kind to an HTTP status and code.
func dispatchStatus(err error) (int, string) {
	switch {
	case errors.Is(err, device.ErrDeviceNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, device.ErrDeviceOffline):
		return http.StatusConflict, ErrCodeConflict
	case errors.Is(err, dispatch.ErrUnreachable):
		return http.StatusBadGateway, ErrCodeUnreachable
	case errors.Is(err, dispatch.ErrValidation), errors.Is(err, device.ErrInvalidCommand):
		return http.StatusUnprocessableEntity, ErrCodeValidation
	default:
		return http.StatusBadRequest, ErrCodeBadRequest
	}
}
