// Package dispatch turns protocol request lines into device commands.
//
// A request looks like "GET /light/2/on". The Dispatcher parses the path
// into a target device and a command token, applies it through the
// device.Registry, and renders the reply. Every failure is rendered as an
// "ERROR: ..." string; nothing escapes Handle as a Go error.
//
// Grammar:
//
//	GET /devices/list
//	GET /light/<n>/(on|off|status)
//	GET /light/<n>/brightness/<int>
//	GET /thermostat/status
//	GET /thermostat/set/<float>
//	GET /camera/(status|record/start|record/stop)
//
// Light index 2 selects the second light; any other index selects the
// first.
package dispatch
