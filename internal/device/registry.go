package device

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry owns every device, keyed by IP address.
//
// A single mutex guards the map and the devices themselves. Every public
// method holds it for its whole duration, so Apply is linearizable per
// device and StatusLines is a consistent snapshot. Callers must not do I/O
// while the lock is held; nothing here does.
type Registry struct {
	mu      sync.Mutex
	devices map[string]Device
	logger  Logger
	now     func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		devices: make(map[string]Device),
		logger:  noopLogger{},
		now:     time.Now,
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Register adds d. Addresses are unique; a second device with the same IP
// is refused with ErrDeviceExists.
func (r *Registry) Register(d Device) error {
	info := d.Info()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[info.IP]; ok {
		return fmt.Errorf("%w: %s", ErrDeviceExists, info.IP)
	}
	r.devices[info.IP] = d
	r.logger.Info("device registered", "ip", info.IP, "kind", info.Kind, "subnet", info.Subnet)
	return nil
}

// Apply finds the device at ip, checks it is online, executes cmd and
// reads back its status, all under the registry lock.
//
// Errors are ErrDeviceNotFound, ErrDeviceOffline or ErrInvalidCommand. On
// error no state has changed.
func (r *Registry) Apply(ip, cmd string) (Change, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[ip]
	if !ok {
		return Change{}, ErrDeviceNotFound
	}
	if !d.Online() {
		return Change{}, ErrDeviceOffline
	}
	if !d.Execute(cmd) {
		r.logger.Debug("command rejected", "ip", ip, "command", cmd)
		return Change{}, ErrInvalidCommand
	}

	return r.changeLocked(d, cmd), nil
}

// SetOnline sets the online flag of the device at ip. The returned Change
// carries CmdMarkOnline or CmdMarkOffline as its command.
func (r *Registry) SetOnline(ip string, online bool) (Change, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[ip]
	if !ok {
		return Change{}, ErrDeviceNotFound
	}
	d.SetOnline(online)

	cmd := CmdMarkOffline
	if online {
		cmd = CmdMarkOnline
	}
	r.logger.Info("device availability changed", "ip", ip, "online", online)
	return r.changeLocked(d, cmd), nil
}

func (r *Registry) changeLocked(d Device, cmd string) Change {
	return Change{
		Info:    d.Info(),
		Command: cmd,
		Online:  d.Online(),
		Status:  d.Status(),
		State:   d.State(),
		At:      r.now().UTC(),
	}
}

// Status returns the status line of the device at ip. It does not check
// the online flag.
func (r *Registry) Status(ip string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[ip]
	if !ok {
		return "", ErrDeviceNotFound
	}
	return d.Status(), nil
}

// StatusLines returns every device's status line, ordered by IP string,
// taken as one atomic snapshot.
func (r *Registry) StatusLines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	lines := make([]string, 0, len(r.devices))
	for _, ip := range r.sortedIPsLocked() {
		lines = append(lines, r.devices[ip].Status())
	}
	return lines
}

// Snapshot returns a copy of the device at ip.
func (r *Registry) Snapshot(ip string) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[ip]
	if !ok {
		return Snapshot{}, ErrDeviceNotFound
	}
	return snapshotOf(d), nil
}

// Snapshots returns copies of all devices ordered by IP string.
func (r *Registry) Snapshots() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Snapshot, 0, len(r.devices))
	for _, ip := range r.sortedIPsLocked() {
		out = append(out, snapshotOf(r.devices[ip]))
	}
	return out
}

// Kind returns the kind of the device at ip.
func (r *Registry) Kind(ip string) (Kind, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[ip]
	if !ok {
		return "", false
	}
	return d.Info().Kind, true
}

// Len returns the number of registered devices.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.devices)
}

func (r *Registry) sortedIPsLocked() []string {
	ips := make([]string, 0, len(r.devices))
	for ip := range r.devices {
		ips = append(ips, ip)
	}
	sort.Strings(ips)
	return ips
}
