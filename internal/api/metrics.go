package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/nerrad567/homenet/internal/device"
)

// SystemMetrics is the /metrics response.
type SystemMetrics struct {
	Timestamp     string           `json:"timestamp"`
	Version       string           `json:"version"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	Runtime       RuntimeMetrics   `json:"runtime"`
	WebSocket     WSMetrics        `json:"websocket"`
	MQTT          MQTTMetrics      `json:"mqtt"`
	InfluxDB      InfluxMetrics    `json:"influxdb"`
	Telemetry     TelemetryMetrics `json:"telemetry"`
	Devices       DeviceMetrics    `json:"devices"`
	Network       NetworkMetrics   `json:"network"`
	Database      *DatabaseMetrics `json:"database,omitempty"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int    `json:"connected_clients"`
	DroppedEvents    uint64 `json:"dropped_events"`
	EvictedClients   uint64 `json:"evicted_clients"`
}

// MQTTMetrics contains MQTT client statistics.
type MQTTMetrics struct {
	Connected     bool `json:"connected"`
	Subscriptions int  `json:"subscriptions"`
}

// InfluxMetrics contains time-series writer counters.
type InfluxMetrics struct {
	Connected    bool   `json:"connected"`
	PointsQueued uint64 `json:"points_queued"`
	WriteErrors  uint64 `json:"write_errors"`
}

// TelemetryMetrics contains state fan-out counters.
type TelemetryMetrics struct {
	Delivered uint64 `json:"delivered"`
	Dropped   uint64 `json:"dropped"`
}

// DeviceMetrics contains device registry statistics.
type DeviceMetrics struct {
	Total    int            `json:"total"`
	Online   int            `json:"online"`
	ByKind   map[string]int `json:"by_kind"`
	BySubnet map[string]int `json:"by_subnet"`
}

// NetworkMetrics contains routing and address table sizes.
type NetworkMetrics struct {
	Routes     int `json:"routes"`
	ARPEntries int `json:"arp_entries"`
}

// DatabaseMetrics contains database connection pool statistics.
type DatabaseMetrics struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// handleMetrics returns runtime, registry and integration metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		WebSocket: WSMetrics{
			ConnectedClients: s.hub.ClientCount(),
			DroppedEvents:    s.hub.Dropped(),
			EvictedClients:   s.hub.Evicted(),
		},
		Devices: deviceMetrics(s.registry.Snapshots()),
	}

	if s.mqtt != nil {
		metrics.MQTT = MQTTMetrics{
			Connected:     s.mqtt.IsConnected(),
			Subscriptions: s.mqtt.SubscriptionCount(),
		}
	}

	queued, writeErrs := s.influx.Stats()
	metrics.InfluxDB = InfluxMetrics{
		Connected:    s.influx.IsConnected(),
		PointsQueued: queued,
		WriteErrors:  writeErrs,
	}

	if s.telemetry != nil {
		metrics.Telemetry = TelemetryMetrics{
			Delivered: s.telemetry.Delivered(),
			Dropped:   s.telemetry.Dropped(),
		}
	}

	if s.router != nil {
		metrics.Network = NetworkMetrics{
			Routes:     len(s.router.Routes()),
			ARPEntries: s.router.AddressTable().Len(),
		}
	}

	if s.db != nil {
		dbStats := s.db.Stats()
		metrics.Database = &DatabaseMetrics{
			OpenConnections: dbStats.OpenConnections,
			InUse:           dbStats.InUse,
			Idle:            dbStats.Idle,
			WaitCount:       dbStats.WaitCount,
		}
	}

	writeJSON(w, http.StatusOK, metrics)
}

func deviceMetrics(snapshots []device.Snapshot) DeviceMetrics {
	m := DeviceMetrics{
		Total:    len(snapshots),
		ByKind:   make(map[string]int),
		BySubnet: make(map[string]int),
	}
	for _, snap := range snapshots {
		if snap.Online {
			m.Online++
		}
		m.ByKind[string(snap.Kind)]++
		m.BySubnet[snap.Subnet]++
	}
	return m
}
