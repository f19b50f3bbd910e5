package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, device.ErrDeviceOffline) {
//	    // device exists but is not accepting commands
//	}
var (
	// ErrDeviceNotFound is returned when no device has the given address.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrDeviceOffline is returned when a command targets an offline device.
	ErrDeviceOffline = errors.New("device: offline")

	// ErrInvalidCommand is returned when a device rejects a command token.
	ErrInvalidCommand = errors.New("device: invalid command")

	// ErrDeviceExists is returned when registering a duplicate address.
	ErrDeviceExists = errors.New("device: already exists")
)
