package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/homenet/internal/device"
	"github.com/nerrad567/homenet/internal/network"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// handleListDevices returns every device snapshot, optionally filtered by
// ?kind=light|thermostat|camera.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	kind := device.Kind(r.URL.Query().Get("kind"))
	switch kind {
	case "", device.KindLight, device.KindThermostat, device.KindCamera:
	default:
		writeBadRequest(w, "invalid kind: must be light, thermostat or camera")
		return
	}

	snapshots := s.registry.Snapshots()
	devices := make([]device.Snapshot, 0, len(snapshots))
	for _, snap := range snapshots {
		if kind != "" && snap.Kind != kind {
			continue
		}
		devices = append(devices, snap)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"devices": devices,
		"count":   len(devices),
	})
}

// deviceIP validates the {ip} path parameter, writing a 400 on failure.
func deviceIP(w http.ResponseWriter, r *http.Request) (string, bool) {
	ip := chi.URLParam(r, "ip")
	if !validDeviceIP(ip) {
		writeBadRequest(w, "invalid device address")
		return "", false
	}
	return ip, true
}

func validDeviceIP(ip string) bool {
	_, err := network.ParseAddress(ip)
	return err == nil
}

// handleGetDevice returns one device snapshot.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	ip, ok := deviceIP(w, r)
	if !ok {
		return
	}

	snap, err := s.registry.Snapshot(ip)
	if err != nil {
		writeNotFound(w, "device not found")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type setOnlineRequest struct {
	Online *bool `json:"online"`
}

// handleSetOnline marks a device online or offline.
func (s *Server) handleSetOnline(w http.ResponseWriter, r *http.Request) {
	ip, ok := deviceIP(w, r)
	if !ok {
		return
	}

	var req setOnlineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Online == nil {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "online is required")
		return
	}

	change, err := s.registry.SetOnline(ip, *req.Online)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to update device")
		return
	}

	change.Source = device.SourceAPI
	if s.notifier != nil {
		s.notifier.Notify(change)
	}
	s.requestLogger(r).Info("device availability set via API", "ip", ip, "online", *req.Online)

	snap, err := s.registry.Snapshot(ip)
	if err != nil {
		writeNotFound(w, "device not found")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleDeviceHistory returns recorded commands for a device, newest first.
func (s *Server) handleDeviceHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeUnavailable(w, "command history is disabled")
		return
	}

	ip, ok := deviceIP(w, r)
	if !ok {
		return
	}
	if _, known := s.registry.Kind(ip); !known {
		writeNotFound(w, "device not found")
		return
	}

	limit, err := parseHistoryLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	entries, err := s.history.GetHistory(r.Context(), ip, limit)
	if err != nil {
		s.requestLogger(r).Error("failed to read command history", "ip", ip, "error", err)
		writeInternalError(w, "failed to read command history")
		return
	}
	if entries == nil {
		entries = []device.HistoryEntry{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device_ip": ip,
		"entries":   entries,
		"count":     len(entries),
	})
}

// parseHistoryLimit parses ?limit with bounds enforcement.
func parseHistoryLimit(raw string) (int, error) {
	if raw == "" {
		return defaultHistoryLimit, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("invalid limit")
	}
	if limit > maxHistoryLimit {
		return 0, fmt.Errorf("limit exceeds maximum of %d", maxHistoryLimit)
	}
	return limit, nil
}
