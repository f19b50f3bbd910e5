package api

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/homenet/internal/device"
	"github.com/nerrad567/homenet/internal/infrastructure/config"
	"github.com/nerrad567/homenet/internal/infrastructure/logging"
	"github.com/nerrad567/homenet/internal/telemetry"
)

// Stream frame types. The first group is sent by clients, the second by
// the server.
const (
	FrameWatch    = "watch"
	FrameUnwatch  = "unwatch"
	FrameSnapshot = "snapshot"
	FramePing     = "ping"

	FrameAck   = "ack"
	FrameEvent = "event"
	FramePong  = "pong"
	FrameError = "error"
)

const (
	// clientQueueSize is the per-client outbound frame queue. A client
	// whose queue is full is disconnected.
	clientQueueSize = 64

	// hubQueueSize bounds events waiting for the hub loop.
	hubQueueSize = 256
)

// Frame is the envelope of every message on the state stream.
type Frame struct {
	Type  string          `json:"type"`
	ID    string          `json:"id,omitempty"`
	Event string          `json:"event,omitempty"`
	Time  string          `json:"time,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// WatchRequest is the data of watch and unwatch frames. Devices narrows
// device events to the listed addresses; no devices means all of them.
type WatchRequest struct {
	Events  []string `json:"events"`
	Devices []string `json:"devices,omitempty"`
}

// SnapshotRequest is the optional data of a snapshot frame.
type SnapshotRequest struct {
	Devices []string `json:"devices,omitempty"`
}

func encodeFrame(typ, id, event string, data any) ([]byte, error) {
	f := Frame{
		Type:  typ,
		ID:    id,
		Event: event,
		Time:  time.Now().UTC().Format(time.RFC3339Nano),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		f.Data = raw
	}
	return json.Marshal(f)
}

type hubEvent struct {
	event string
	ip    string
	frame []byte
}

// Hub fans events out to stream clients. The client set is owned by Run;
// other goroutines reach it through channels. Hub satisfies
// telemetry.Broadcaster.
type Hub struct {
	cfg    config.WebSocketConfig
	logger *logging.Logger

	register   chan *streamClient
	unregister chan *streamClient
	events     chan hubEvent
	done       chan struct{}
	started    atomic.Bool

	clients map[*streamClient]struct{}
	count   atomic.Int64
	dropped atomic.Uint64
	evicted atomic.Uint64
}

// NewHub creates a hub. Nothing is delivered until Run is called.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:        cfg,
		logger:     logger,
		register:   make(chan *streamClient),
		unregister: make(chan *streamClient),
		events:     make(chan hubEvent, hubQueueSize),
		done:       make(chan struct{}),
		clients:    make(map[*streamClient]struct{}),
	}
}

// Run delivers events until ctx is cancelled, then disconnects every
// client. Only the first call runs; later calls return immediately.
func (h *Hub) Run(ctx context.Context) {
	if !h.started.CompareAndSwap(false, true) {
		return
	}
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.remove(c)
			}
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.count.Add(1)
			h.logger.Debug("stream client connected", "clients", h.count.Load())

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.remove(c)
				h.logger.Debug("stream client disconnected", "clients", h.count.Load())
			}

		case ev := <-h.events:
			h.deliver(ev)
		}
	}
}

func (h *Hub) deliver(ev hubEvent) {
	for c := range h.clients {
		if !c.wants(ev.event, ev.ip) {
			continue
		}
		select {
		case c.send <- ev.frame:
		default:
			h.remove(c)
			h.evicted.Add(1)
			h.logger.Warn("stream client too slow, disconnecting", "remote", c.remote)
		}
	}
}

// remove must only be called from Run.
func (h *Hub) remove(c *streamClient) {
	delete(h.clients, c)
	close(c.send)
	h.count.Add(-1)
}

// Broadcast queues payload for clients watching event. It never blocks:
// when the hub queue is full the event is dropped and counted.
func (h *Hub) Broadcast(event string, payload any) {
	frame, err := encodeFrame(FrameEvent, "", event, payload)
	if err != nil {
		h.logger.Error("encoding stream event", "event", event, "error", err)
		return
	}

	ev := hubEvent{event: event, frame: frame}
	switch m := payload.(type) {
	case telemetry.StateMessage:
		ev.ip = m.IP
	case *telemetry.StateMessage:
		ev.ip = m.IP
	}

	select {
	case <-h.done:
	case h.events <- ev:
	default:
		h.dropped.Add(1)
		h.logger.Warn("stream queue full, event dropped", "event", event)
	}
}

// join hands c to the hub loop. It reports false once the hub has stopped.
func (h *Hub) join(c *streamClient) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *streamClient) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// Dropped returns the number of events discarded because the hub queue
// was full.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Evicted returns the number of clients disconnected for falling behind.
func (h *Hub) Evicted() uint64 {
	return h.evicted.Load()
}

// streamClient is one WebSocket connection. send is closed by the hub.
type streamClient struct {
	hub       *Hub
	conn      *websocket.Conn
	remote    string
	send      chan []byte
	snapshots func() []device.Snapshot

	mu      sync.RWMutex
	events  map[string]struct{}
	devices map[string]struct{}
}

func newStreamClient(h *Hub, conn *websocket.Conn, remote string, snapshots func() []device.Snapshot) *streamClient {
	return &streamClient{
		hub:       h,
		conn:      conn,
		remote:    remote,
		send:      make(chan []byte, clientQueueSize),
		snapshots: snapshots,
		events:    make(map[string]struct{}),
		devices:   make(map[string]struct{}),
	}
}

func (c *streamClient) wants(event, ip string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.events[event]; !ok {
		return false
	}
	if ip == "" || len(c.devices) == 0 {
		return true
	}
	_, ok := c.devices[ip]
	return ok
}

func (c *streamClient) watch(req WatchRequest) WatchRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range req.Events {
		c.events[e] = struct{}{}
	}
	for _, ip := range req.Devices {
		c.devices[ip] = struct{}{}
	}
	return c.filterLocked()
}

func (c *streamClient) unwatch(req WatchRequest) WatchRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range req.Events {
		delete(c.events, e)
	}
	for _, ip := range req.Devices {
		delete(c.devices, ip)
	}
	return c.filterLocked()
}

func (c *streamClient) filterLocked() WatchRequest {
	f := WatchRequest{Events: make([]string, 0, len(c.events))}
	for e := range c.events {
		f.Events = append(f.Events, e)
	}
	for ip := range c.devices {
		f.Devices = append(f.Devices, ip)
	}
	slices.Sort(f.Events)
	slices.Sort(f.Devices)
	return f
}

// enqueue is used for replies from the read goroutine. It may race with
// the hub closing send, so a send on a closed channel is absorbed.
func (c *streamClient) enqueue(frame []byte) {
	defer func() {
		recover() //nolint:errcheck // send on closed channel after hub removal
	}()
	select {
	case c.send <- frame:
	default:
	}
}

func (c *streamClient) reply(typ, id string, data any) {
	frame, err := encodeFrame(typ, id, "", data)
	if err != nil {
		c.hub.logger.Error("encoding stream reply", "type", typ, "error", err)
		return
	}
	c.enqueue(frame)
}

func (c *streamClient) replyError(id, message string) {
	c.reply(FrameError, id, map[string]string{"message": message})
}

func (c *streamClient) handle(data []byte) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		c.replyError("", "invalid JSON frame")
		return
	}

	switch f.Type {
	case FramePing:
		c.reply(FramePong, f.ID, nil)

	case FrameWatch, FrameUnwatch:
		var req WatchRequest
		if len(f.Data) == 0 || json.Unmarshal(f.Data, &req) != nil {
			c.replyError(f.ID, "invalid "+f.Type+" data")
			return
		}
		for _, ip := range req.Devices {
			if !validDeviceIP(ip) {
				c.replyError(f.ID, "invalid device address: "+ip)
				return
			}
		}
		if f.Type == FrameWatch {
			c.reply(FrameAck, f.ID, c.watch(req))
		} else {
			c.reply(FrameAck, f.ID, c.unwatch(req))
		}

	case FrameSnapshot:
		var req SnapshotRequest
		if len(f.Data) > 0 && json.Unmarshal(f.Data, &req) != nil {
			c.replyError(f.ID, "invalid snapshot data")
			return
		}
		c.reply(FrameSnapshot, f.ID, filterSnapshots(c.snapshots(), req.Devices))

	default:
		c.replyError(f.ID, "unknown frame type: "+f.Type)
	}
}

func filterSnapshots(all []device.Snapshot, ips []string) []device.Snapshot {
	if len(ips) == 0 {
		return all
	}
	out := make([]device.Snapshot, 0, len(ips))
	for _, s := range all {
		if slices.Contains(ips, s.IP) {
			out = append(out, s)
		}
	}
	return out
}

func (c *streamClient) keepalive() (ping, wait time.Duration) {
	return time.Duration(c.hub.cfg.PingInterval) * time.Second,
		time.Duration(c.hub.cfg.PongTimeout) * time.Second
}

func (c *streamClient) readLoop() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	ping, wait := c.keepalive()
	extend := func() error { return c.conn.SetReadDeadline(time.Now().Add(ping + wait)) }

	c.conn.SetReadLimit(int64(c.hub.cfg.MaxMessageSize))
	_ = extend()
	c.conn.SetPongHandler(func(string) error { return extend() })

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("stream read error", "remote", c.remote, "error", err)
			}
			return
		}
		_ = extend()
		c.handle(data)
	}
}

func (c *streamClient) writeLoop() {
	ping, wait := c.keepalive()
	ticker := time.NewTicker(ping)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are checked in handleWebSocket before upgrading.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleWebSocket upgrades to the state stream. A new client receives
// nothing until it sends a watch frame.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if origin := r.Header.Get("Origin"); origin != "" && !s.isAllowedOrigin(origin) {
		writeError(w, http.StatusForbidden, ErrCodeForbidden, "origin not allowed")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.requestLogger(r).Warn("websocket upgrade failed", "error", err)
		return
	}

	c := newStreamClient(s.hub, conn, r.RemoteAddr, s.registry.Snapshots)
	if !s.hub.join(c) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "stream unavailable"))
		conn.Close()
		return
	}

	go c.writeLoop()
	go c.readLoop()
}
