package device

import "testing"

func TestThermostat_Defaults(t *testing.T) {
	th := NewThermostat(ThermostatIP, ThermostatMAC, "Thermostat")

	if th.Current() != 22.0 || th.Target() != 22.0 || th.Heating() {
		t.Errorf("defaults = (%v, %v, %v)", th.Current(), th.Target(), th.Heating())
	}
	if got, want := th.Status(), "Thermostat [192.168.1.65]: Current: 22°C, Target: 22°C, Idle"; got != want {
		t.Errorf("Status() = %q, want %q", got, want)
	}
}

func TestThermostat_Execute(t *testing.T) {
	tests := []struct {
		name        string
		cmd         string
		wantOK      bool
		wantTarget  float64
		wantHeating bool
	}{
		{name: "raise target", cmd: "SET=25", wantOK: true, wantTarget: 25, wantHeating: true},
		{name: "lower target", cmd: "SET=18.5", wantOK: true, wantTarget: 18.5},
		{name: "equal target", cmd: "SET=22", wantOK: true, wantTarget: 22},
		{name: "device accepts out of dispatch range", cmd: "SET=5", wantOK: true, wantTarget: 5},
		{name: "not a number", cmd: "SET=warm", wantTarget: 22},
		{name: "empty", cmd: "SET=", wantTarget: 22},
		{name: "nan", cmd: "SET=NaN", wantTarget: 22},
		{name: "inf", cmd: "SET=+Inf", wantTarget: 22},
		{name: "unknown token", cmd: "ON", wantTarget: 22},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := NewThermostat(ThermostatIP, ThermostatMAC, "Thermostat")
			if ok := th.Execute(tt.cmd); ok != tt.wantOK {
				t.Fatalf("Execute(%q) = %v, want %v", tt.cmd, ok, tt.wantOK)
			}
			if th.Target() != tt.wantTarget {
				t.Errorf("Target() = %v, want %v", th.Target(), tt.wantTarget)
			}
			if th.Heating() != tt.wantHeating {
				t.Errorf("Heating() = %v, want %v", th.Heating(), tt.wantHeating)
			}
			if th.Current() != 22.0 {
				t.Errorf("Current() changed to %v", th.Current())
			}
		})
	}
}

func TestThermostat_StatusHeating(t *testing.T) {
	th := NewThermostat(ThermostatIP, ThermostatMAC, "Thermostat")
	th.Execute("SET=25.5")

	if got, want := th.Status(), "Thermostat [192.168.1.65]: Current: 22°C, Target: 25.5°C, Heating"; got != want {
		t.Errorf("Status() = %q, want %q", got, want)
	}
}

func TestFormatTemperature(t *testing.T) {
	tests := map[float64]string{
		22:        "22",
		22.5:      "22.5",
		18.25:     "18.25",
		10:        "10",
		29.75:     "29.75",
		29.999999: "30",
		21.1:      "21.1",
	}
	for in, want := range tests {
		if got := FormatTemperature(in); got != want {
			t.Errorf("FormatTemperature(%v) = %q, want %q", in, got, want)
		}
	}
}
