// Package api implements the optional HTTP admin API and WebSocket stream
// for HomeNet.
//
// It exposes:
//   - Read access to the device registry (snapshots, status, history)
//   - POST /api/v1/dispatch, which runs a protocol request line through the
//     same dispatcher the line transport uses
//   - Availability control (PUT /api/v1/devices/{ip}/online)
//   - The simulated network: routing table, address table and a route probe
//   - A WebSocket state stream. Clients send watch frames naming events
//     and optionally device addresses, and receive matching event frames
//     such as device.state_changed. A snapshot frame returns every device.
//
// # Lifecycle
//
//	srv, err := api.New(deps)
//	if err := srv.Start(ctx); err != nil { ... }
//	defer srv.Close()
//
// The server has no authentication and is disabled by default; bind it to
// loopback unless the network is trusted.
package api
