package device

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// defaultTemperature is both the simulated ambient and the initial target.
const defaultTemperature = 22.0

// Thermostat holds a fixed ambient reading and a settable target. It is
// heating whenever the ambient is below the target.
type Thermostat struct {
	base
	current float64
	target  float64
	heating bool
}

// NewThermostat creates a thermostat at 22°C ambient and target.
func NewThermostat(ip, mac, subnet string) *Thermostat {
	return &Thermostat{
		base:    newBase(KindThermostat, ip, mac, subnet),
		current: defaultTemperature,
		target:  defaultTemperature,
	}
}

// Status returns e.g.
// "Thermostat [192.168.1.65]: Current: 22°C, Target: 25.5°C, Heating".
func (t *Thermostat) Status() string {
	mode := "Idle"
	if t.heating {
		mode = "Heating"
	}
	return fmt.Sprintf("Thermostat [%s]: Current: %s°C, Target: %s°C, %s",
		t.info.IP, FormatTemperature(t.current), FormatTemperature(t.target), mode)
}

// Execute handles SET=<float>. Range checks happen at the dispatch layer;
// here only NaN and infinities are refused.
func (t *Thermostat) Execute(cmd string) bool {
	raw, ok := strings.CutPrefix(cmd, PrefixSetTarget)
	if !ok {
		return false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	t.target = v
	t.heating = t.current < t.target
	return true
}

// State returns the temperatures and heating flag.
func (t *Thermostat) State() State {
	return State{
		"current_temp": t.current,
		"target_temp":  t.target,
		"heating":      t.heating,
	}
}

// Current returns the ambient temperature.
func (t *Thermostat) Current() float64 { return t.current }

// Target returns the target temperature.
func (t *Thermostat) Target() float64 { return t.target }

// Heating reports whether the thermostat is calling for heat.
func (t *Thermostat) Heating() bool { return t.heating }

// FormatTemperature renders a temperature with up to six significant
// digits and no trailing zeros (22, 22.5, 18.25).
func FormatTemperature(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
