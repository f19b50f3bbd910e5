// Package device implements the simulated home devices and the registry
// that owns them.
//
// Three device kinds exist: Light, Thermostat and SecurityCamera. Each is
// a small state machine driven by command tokens:
//
//	Light:          ON | OFF | BRIGHTNESS=<int>
//	Thermostat:     SET=<float>
//	SecurityCamera: START_RECORDING | STOP_RECORDING | MOTION_DETECTED=<label>
//
// Unrecognised or malformed tokens fail and leave state untouched.
//
// Devices are not safe for concurrent use on their own. The Registry
// serialises every access behind one mutex, so a lookup, online check,
// command and status read form a single atomic step:
//
//	reg := device.NewRegistry()
//	if err := device.Provision(reg, arpTable); err != nil {
//	    return err
//	}
//	change, err := reg.Apply("192.168.1.10", device.CmdOn)
//
// The package also provides an optional SQLite command history used as a
// write-only audit trail.
package device
