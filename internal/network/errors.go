package network

import "errors"

var (
	// ErrInvalidAddress is returned when a string is not a dotted-decimal IPv4 address.
	ErrInvalidAddress = errors.New("network: invalid address")

	// ErrNoRoute is returned when no route covers a destination.
	ErrNoRoute = errors.New("network: no route to host")

	// ErrUnresolved is returned when the next hop has no hardware address.
	ErrUnresolved = errors.New("network: address not resolved")
)
