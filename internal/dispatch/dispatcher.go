package dispatch

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nerrad567/homenet/internal/device"
)

// RequestPrefix must start every request.
const RequestPrefix = "GET /"

// Thermostat target bounds accepted at the protocol boundary.
const (
	MinTargetTemperature = 10.0
	MaxTargetTemperature = 30.0
)

// Logger defines the logging interface used by the Dispatcher.
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

// Router reports whether a packet from src can reach dst.
type Router interface {
	RoutePacket(src, dst string) error
}

// Notifier receives every successful state change. It is called after the
// registry lock is released and must not block for long.
type Notifier interface {
	Notify(c device.Change)
}

// Options configures a Dispatcher. All fields are optional.
type Options struct {
	// Router is consulted before each command. Without one no routing
	// check happens.
	Router Router

	// Gateway is the source address used for routing checks.
	Gateway string

	// EnforceRouting rejects commands the Router cannot deliver. When
	// false routing failures are only logged.
	EnforceRouting bool

	Notifier Notifier
}

// Dispatcher parses requests and applies them to a Registry. It is safe
// for concurrent use; all shared state lives in the Registry.
type Dispatcher struct {
	registry *device.Registry
	opts     Options
	logger   Logger
}

// New creates a Dispatcher over reg.
func New(reg *device.Registry, opts Options) *Dispatcher {
	return &Dispatcher{
		registry: reg,
		opts:     opts,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.logger = logger
}

// Handle processes one request line and returns the reply. Failures are
// rendered as "ERROR: ..." strings.
func (d *Dispatcher) Handle(ctx context.Context, request string) string {
	resp, err := d.Execute(ctx, request)
	if err != nil {
		return err.Error()
	}
	return resp
}

// Execute processes one request line. On failure the error is a *Error
// whose Error() is the reply to send.
func (d *Dispatcher) Execute(ctx context.Context, request string) (string, error) {
	path, ok := strings.CutPrefix(request, RequestPrefix)
	if !ok {
		return "", newError(ErrFormat, msgFormat)
	}

	if path == "devices/list" {
		return d.listDevices(), nil
	}
	if rest, ok := strings.CutPrefix(path, "light/"); ok {
		return d.light(ctx, rest)
	}
	if rest, ok := strings.CutPrefix(path, "thermostat/"); ok {
		return d.thermostat(ctx, rest)
	}
	if rest, ok := strings.CutPrefix(path, "camera/"); ok {
		return d.camera(ctx, rest)
	}
	return "", newError(ErrUnknownCommand, globalUsage)
}

func (d *Dispatcher) listDevices() string {
	var b strings.Builder
	b.WriteString("Connected devices:\n")
	for _, line := range d.registry.StatusLines() {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// LightAddress maps a light index from the request path to its address.
func LightAddress(index string) string {
	if index == "2" {
		return device.Light2IP
	}
	return device.Light1IP
}

func (d *Dispatcher) light(ctx context.Context, rest string) (string, error) {
	index, action, _ := strings.Cut(rest, "/")
	ip := LightAddress(index)

	switch action {
	case "on":
		return d.apply(ctx, ip, device.CmdOn)
	case "off":
		return d.apply(ctx, ip, device.CmdOff)
	case "status":
		return d.status(ip, msgLightNotFound)
	}

	if raw, ok := strings.CutPrefix(action, "brightness/"); ok {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return "", newError(ErrValidation, msgBrightnessValue)
		}
		return d.apply(ctx, ip, device.PrefixBrightness+strconv.Itoa(v))
	}
	return "", newError(ErrUnknownCommand, lightUsage)
}

func (d *Dispatcher) thermostat(ctx context.Context, rest string) (string, error) {
	if rest == "status" {
		return d.status(device.ThermostatIP, msgThermostatMissing)
	}

	raw, ok := strings.CutPrefix(rest, "set/")
	if !ok {
		return "", newError(ErrUnknownCommand, thermostatUsage)
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) {
		return "", newError(ErrValidation, msgTemperatureValue)
	}
	if v < MinTargetTemperature || v > MaxTargetTemperature {
		return "", newError(ErrValidation, msgTemperatureRange)
	}
	return d.apply(ctx, device.ThermostatIP, device.PrefixSetTarget+raw)
}

func (d *Dispatcher) camera(ctx context.Context, rest string) (string, error) {
	switch rest {
	case "status":
		return d.status(device.CameraIP, msgCameraNotFound)
	case "record/start":
		return d.apply(ctx, device.CameraIP, device.CmdStartRecording)
	case "record/stop":
		return d.apply(ctx, device.CameraIP, device.CmdStopRecording)
	}
	return "", newError(ErrUnknownCommand, cameraUsage)
}

// status is a read-only lookup; it does not check the online flag.
func (d *Dispatcher) status(ip, notFound string) (string, error) {
	s, err := d.registry.Status(ip)
	if err != nil {
		return "", newError(device.ErrDeviceNotFound, notFound)
	}
	return s, nil
}

// apply runs the routing check, applies cmd under the registry lock and
// notifies listeners once the lock is released.
func (d *Dispatcher) apply(ctx context.Context, ip, cmd string) (string, error) {
	if err := d.checkRoute(ip); err != nil {
		return "", err
	}

	change, err := d.registry.Apply(ip, cmd)
	if err != nil {
		d.logger.Debug("command failed", "ip", ip, "command", cmd, "error", err)
		return "", fromDeviceError(err)
	}

	change.Source = SourceFrom(ctx)
	if d.opts.Notifier != nil {
		d.opts.Notifier.Notify(change)
	}
	return change.Status, nil
}

func (d *Dispatcher) checkRoute(ip string) error {
	if d.opts.Router == nil {
		return nil
	}

	err := d.opts.Router.RoutePacket(d.opts.Gateway, ip)
	if err == nil {
		return nil
	}
	if !d.opts.EnforceRouting {
		d.logger.Warn("routing check failed, delivering anyway", "ip", ip, "error", err)
		return nil
	}
	return newError(ErrUnreachable, fmt.Sprintf("Device unreachable (%v)", err))
}
