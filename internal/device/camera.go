package device

import (
	"fmt"
	"strings"
)

// NeverObserved is the last-motion label before any motion event.
const NeverObserved = "Never"

// SecurityCamera records on demand and remembers the last motion label.
type SecurityCamera struct {
	base
	recording  bool
	lastMotion string
}

// NewSecurityCamera creates a camera in standby with no motion seen.
func NewSecurityCamera(ip, mac, subnet string) *SecurityCamera {
	return &SecurityCamera{
		base:       newBase(KindCamera, ip, mac, subnet),
		lastMotion: NeverObserved,
	}
}

// Status returns e.g. "Camera [192.168.1.97]: Recording, Last motion: Never".
func (c *SecurityCamera) Status() string {
	mode := "Standby"
	if c.recording {
		mode = "Recording"
	}
	return fmt.Sprintf("Camera [%s]: %s, Last motion: %s", c.info.IP, mode, c.lastMotion)
}

// Execute handles START_RECORDING, STOP_RECORDING and
// MOTION_DETECTED=<label>. The label is stored verbatim; it must be
// non-empty and must not contain CR or LF, since it ends up in a status line.
func (c *SecurityCamera) Execute(cmd string) bool {
	switch cmd {
	case CmdStartRecording:
		c.recording = true
		return true
	case CmdStopRecording:
		c.recording = false
		return true
	}

	label, ok := strings.CutPrefix(cmd, PrefixMotion)
	if !ok || label == "" || strings.ContainsAny(label, "\r\n") {
		return false
	}
	c.lastMotion = label
	return true
}

// State returns the recording flag and last motion label.
func (c *SecurityCamera) State() State {
	return State{"recording": c.recording, "last_motion": c.lastMotion}
}

// Recording reports whether the camera is recording.
func (c *SecurityCamera) Recording() bool { return c.recording }

// LastMotion returns the last motion label.
func (c *SecurityCamera) LastMotion() string { return c.lastMotion }
