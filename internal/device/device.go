package device

import "time"

// Kind identifies a device variant.
type Kind string

// Device kinds.
const (
	KindLight      Kind = "light"
	KindThermostat Kind = "thermostat"
	KindCamera     Kind = "camera"
)

// Command tokens understood by the devices.
const (
	CmdOn             = "ON"
	CmdOff            = "OFF"
	CmdStartRecording = "START_RECORDING"
	CmdStopRecording  = "STOP_RECORDING"

	PrefixBrightness = "BRIGHTNESS="
	PrefixSetTarget  = "SET="
	PrefixMotion     = "MOTION_DETECTED="
)

// Pseudo-commands recorded when the online flag changes. Devices never
// receive these tokens.
const (
	CmdMarkOnline  = "ONLINE"
	CmdMarkOffline = "OFFLINE"
)

// Info is the fixed identity of a device.
type Info struct {
	IP     string `json:"ip"`
	MAC    string `json:"mac"`
	Subnet string `json:"subnet"`
	Kind   Kind   `json:"kind"`
}

// State is a machine-readable view of a device's variant fields.
type State map[string]any

// Device is the capability set every variant implements.
type Device interface {
	Info() Info

	// Status renders the human-readable status line.
	Status() string

	// Execute applies a command token. It reports false, with state
	// unchanged, when the token is unknown or malformed.
	Execute(cmd string) bool

	State() State
	Online() bool
	SetOnline(online bool)
}

// Snapshot is a point-in-time copy of one device.
type Snapshot struct {
	Info
	Online bool   `json:"online"`
	Status string `json:"status"`
	State  State  `json:"state"`
}

// Change describes a successful state mutation.
type Change struct {
	Info
	Command string    `json:"command"`
	Source  string    `json:"source"`
	Online  bool      `json:"online"`
	Status  string    `json:"status"`
	State   State     `json:"state"`
	At      time.Time `json:"at"`
}

// Change sources.
const (
	SourceLine = "line"
	SourceAPI  = "api"
	SourceMQTT = "mqtt"
)

// base carries the fields shared by every variant.
type base struct {
	info   Info
	online bool
}

func newBase(kind Kind, ip, mac, subnet string) base {
	return base{
		info:   Info{IP: ip, MAC: mac, Subnet: subnet, Kind: kind},
		online: true,
	}
}

func (b *base) Info() Info            { return b.info }
func (b *base) Online() bool          { return b.online }
func (b *base) SetOnline(online bool) { b.online = online }

func snapshotOf(d Device) Snapshot {
	return Snapshot{
		Info:   d.Info(),
		Online: d.Online(),
		Status: d.Status(),
		State:  d.State(),
	}
}
