package device

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	minBrightness     = 0
	maxBrightness     = 100
	defaultBrightness = 100
)

// Light is a dimmable light. It starts off at full brightness.
type Light struct {
	base
	on         bool
	brightness int
}

// NewLight creates a light in its power-on default state.
func NewLight(ip, mac, subnet string) *Light {
	return &Light{
		base:       newBase(KindLight, ip, mac, subnet),
		brightness: defaultBrightness,
	}
}

// Status returns e.g. "Light [192.168.1.10]: ON (Brightness: 80%)".
func (l *Light) Status() string {
	power := "OFF"
	if l.on {
		power = "ON"
	}
	return fmt.Sprintf("Light [%s]: %s (Brightness: %d%%)", l.info.IP, power, l.brightness)
}

// Execute handles ON, OFF and BRIGHTNESS=<int>. Brightness is clamped to
// [0,100]; a value that is not an integer fails.
func (l *Light) Execute(cmd string) bool {
	switch cmd {
	case CmdOn:
		l.on = true
		return true
	case CmdOff:
		l.on = false
		return true
	}

	raw, ok := strings.CutPrefix(cmd, PrefixBrightness)
	if !ok {
		return false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return false
	}
	l.brightness = max(minBrightness, min(maxBrightness, v))
	return true
}

// State returns power and brightness.
func (l *Light) State() State {
	return State{"power": l.on, "brightness": l.brightness}
}

// IsOn reports the power state.
func (l *Light) IsOn() bool { return l.on }

// Brightness returns the brightness percentage.
func (l *Light) Brightness() int { return l.brightness }
