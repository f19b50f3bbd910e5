// Package network models the simulated home network that sits between
// the command transport and the devices.
//
// It provides:
//   - The fixed subnet catalog (Lighting, Thermostat, Security)
//   - AddressTable, an ARP-like cache mapping IP addresses to hardware addresses
//   - RoutingTable, an ordered first-match route list
//   - Router, which combines both to decide whether a packet is deliverable
//
// Addresses are dotted-decimal IPv4 strings. They are converted to uint32
// (most significant octet first) for mask arithmetic; malformed strings
// are reported as ErrInvalidAddress rather than silently mismatching.
//
// There is no real link layer here. Nothing is sent on the wire.
package network
