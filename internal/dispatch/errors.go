package dispatch

import (
	"errors"

	"github.com/nerrad567/homenet/internal/device"
)

// Error kinds produced by the dispatcher in addition to the device
// package's ErrDeviceNotFound, ErrDeviceOffline and ErrInvalidCommand.
var (
	// ErrFormat is returned when a request does not start with "GET /".
	ErrFormat = errors.New("dispatch: invalid request format")

	// ErrUnknownCommand is returned when no grammar rule matches.
	ErrUnknownCommand = errors.New("dispatch: unknown command")

	// ErrValidation is returned when a value is malformed or out of range.
	ErrValidation = errors.New("dispatch: validation failed")

	// ErrUnreachable is returned when routing is enforced and the target
	// cannot be routed or resolved.
	ErrUnreachable = errors.New("dispatch: device unreachable")
)

// Error is a request failure that is reported to the client.
type Error struct {
	// Kind is one of the sentinel errors above or a device package error.
	Kind error

	// Message is the human-readable text after "ERROR: ".
	Message string
}

// Error renders the wire form, "ERROR: <message>".
func (e *Error) Error() string {
	return "ERROR: " + e.Message
}

// Unwrap exposes Kind to errors.Is.
func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Fixed messages.
const (
	msgFormat            = "Invalid request format. Commands must start with 'GET /'"
	msgDeviceNotFound    = "Device not found"
	msgDeviceOffline     = "Device is offline"
	msgInvalidCommand    = "Invalid command"
	msgTemperatureRange  = "Temperature must be between 10°C and 30°C"
	msgTemperatureValue  = "Invalid temperature value. Must be a number between 10 and 30"
	msgBrightnessValue   = "Invalid brightness value. Must be an integer between 0 and 100"
	msgLightNotFound     = "Light not found"
	msgThermostatMissing = "Thermostat not found"
	msgCameraNotFound    = "Camera not found"
)

// Usage hints returned for unrecognised sub-paths.
const (
	lightUsage = "Invalid light command. Available commands:\n" +
		"  GET /light/1/on\n" +
		"  GET /light/1/off\n" +
		"  GET /light/1/status\n" +
		"  GET /light/1/brightness/<0-100>\n" +
		"  GET /light/2/on\n" +
		"  GET /light/2/off\n" +
		"  GET /light/2/status\n" +
		"  GET /light/2/brightness/<0-100>"

	thermostatUsage = "Invalid thermostat command. Available commands:\n" +
		"  GET /thermostat/status\n" +
		"  GET /thermostat/set/<temperature>"

	cameraUsage = "Invalid camera command. Available commands:\n" +
		"  GET /camera/status\n" +
		"  GET /camera/record/start\n" +
		"  GET /camera/record/stop"

	globalUsage = "Unknown command. Available commands:\n" +
		"  GET /devices/list\n" +
		"  GET /light/1/[on|off|status]\n" +
		"  GET /light/2/[on|off|status]\n" +
		"  GET /light/<n>/brightness/<0-100>\n" +
		"  GET /thermostat/status\n" +
		"  GET /thermostat/set/<temperature>\n" +
		"  GET /camera/status\n" +
		"  GET /camera/record/[start|stop]"
)

// fromDeviceError maps a registry error to its reply.
func fromDeviceError(err error) *Error {
	switch {
	case errors.Is(err, device.ErrDeviceNotFound):
		return newError(device.ErrDeviceNotFound, msgDeviceNotFound)
	case errors.Is(err, device.ErrDeviceOffline):
		return newError(device.ErrDeviceOffline, msgDeviceOffline)
	default:
		return newError(device.ErrInvalidCommand, msgInvalidCommand)
	}
}
