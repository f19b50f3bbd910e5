package network

import (
	"sort"
	"sync"
)

// ARPEntry is one IP to hardware address binding.
type ARPEntry struct {
	IP  string `json:"ip"`
	MAC string `json:"mac"`
}

// AddressTable is an ARP-like cache from IP address to hardware address.
//
// Every method takes the same mutex, so each call is atomic. Sequences of
// calls (Exists then Resolve) are not.
type AddressTable struct {
	mu      sync.Mutex
	entries map[string]string
}

// NewAddressTable returns an empty table.
func NewAddressTable() *AddressTable {
	return &AddressTable{entries: make(map[string]string)}
}

// Resolve returns the hardware address bound to ip.
func (t *AddressTable) Resolve(ip string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	mac, ok := t.entries[ip]
	return mac, ok
}

// Add binds ip to mac, replacing any previous binding.
func (t *AddressTable) Add(ip, mac string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[ip] = mac
}

// Remove deletes the binding for ip, if any.
func (t *AddressTable) Remove(ip string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, ip)
}

// Clear deletes every binding.
func (t *AddressTable) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.entries)
}

// Exists reports whether ip has a binding.
func (t *AddressTable) Exists(ip string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[ip]
	return ok
}

// Len returns the number of bindings.
func (t *AddressTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Entries returns a snapshot of all bindings ordered by IP string.
func (t *AddressTable) Entries() []ARPEntry {
	t.mu.Lock()
	out := make([]ARPEntry, 0, len(t.entries))
	for ip, mac := range t.entries {
		out = append(out, ARPEntry{IP: ip, MAC: mac})
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].IP < out[j].IP })
	return out
}
