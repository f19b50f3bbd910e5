package api

import (
	"errors"
	"net/http"

	"github.com/nerrad567/homenet/internal/network"
)

// handleListRoutes returns the routing table in lookup order.
func (s *Server) handleListRoutes(w http.ResponseWriter, _ *http.Request) {
	if s.router == nil {
		writeUnavailable(w, "router not configured")
		return
	}
	routes := s.router.Routes()
	writeJSON(w, http.StatusOK, map[string]any{
		"interface": s.router.Interface(),
		"routes":    routes,
		"count":     len(routes),
	})
}

// handleListARP returns the address table sorted by IP.
func (s *Server) handleListARP(w http.ResponseWriter, _ *http.Request) {
	if s.router == nil {
		writeUnavailable(w, "router not configured")
		return
	}
	entries := s.router.AddressTable().Entries()
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

type routeProbe struct {
	Source      string `json:"src"`
	Destination string `json:"dst"`
	NextHop     string `json:"next_hop"`
	Direct      bool   `json:"direct"`
	Deliverable bool   `json:"deliverable"`
	Reason      string `json:"reason,omitempty"`
}

// handleProbeRoute reports how a packet from src to dst would be routed.
// src defaults to the configured gateway.
func (s *Server) handleProbeRoute(w http.ResponseWriter, r *http.Request) {
	if s.router == nil {
		writeUnavailable(w, "router not configured")
		return
	}

	src := r.URL.Query().Get("src")
	if src == "" {
		src = s.gateway
	}
	dst := r.URL.Query().Get("dst")
	if dst == "" {
		writeBadRequest(w, "dst is required")
		return
	}

	hop, err := s.router.FindNextHop(dst)
	if err != nil {
		writeBadRequest(w, "invalid destination address")
		return
	}

	probe := routeProbe{
		Source:      src,
		Destination: dst,
		NextHop:     hop,
		Direct:      hop == network.DirectConnection,
	}
	if err := s.router.RoutePacket(src, dst); err != nil {
		// dst already parsed, so an address error is about src.
		if errors.Is(err, network.ErrInvalidAddress) {
			writeBadRequest(w, "invalid source address")
			return
		}
		probe.Reason = err.Error()
	} else {
		probe.Deliverable = true
	}

	writeJSON(w, http.StatusOK, probe)
}
