package network

import (
	"encoding/binary"
	"fmt"
	"net/netip"
)

// ParseAddress converts a dotted-decimal IPv4 address to its 32-bit value,
// most significant octet first.
func ParseAddress(s string) (uint32, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	b := addr.As4()
	return binary.BigEndian.Uint32(b[:]), nil
}

// FormatAddress is the inverse of ParseAddress.
func FormatAddress(v uint32) string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return netip.AddrFrom4(b).String()
}

// Contains reports whether addr lies in the network described by
// network/mask, i.e. (addr & mask) == (network & mask).
func Contains(network, mask, addr string) (bool, error) {
	n, err := ParseAddress(network)
	if err != nil {
		return false, err
	}
	m, err := ParseAddress(mask)
	if err != nil {
		return false, err
	}
	a, err := ParseAddress(addr)
	if err != nil {
		return false, err
	}
	return a&m == n&m, nil
}
