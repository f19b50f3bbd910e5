package network

import (
	"fmt"
	"sync"
)

// Next hop sentinels.
const (
	// DirectConnection means the destination is on a local subnet.
	DirectConnection = "0.0.0.0"

	// NoRoute is returned by FindNextHop when nothing matches.
	NoRoute = ""
)

// Route is one routing table entry.
type Route struct {
	Destination string `json:"destination"`
	NextHop     string `json:"next_hop"`
	Mask        string `json:"mask"`
	Interface   string `json:"interface"`
}

// RoutingTable is an ordered list of routes. Lookups scan in insertion
// order and the first containing route wins; there is no longest-prefix
// sorting.
type RoutingTable struct {
	mu     sync.RWMutex
	routes []Route
}

// NewRoutingTable returns an empty table.
func NewRoutingTable() *RoutingTable {
	return &RoutingTable{}
}

// AddRoute appends r. Duplicates are kept.
func (t *RoutingTable) AddRoute(r Route) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.routes = append(t.routes, r)
}

// FindNextHop returns the next hop of the first route containing dest, or
// NoRoute. Routes whose own fields fail to parse are skipped; a malformed
// dest is an error.
func (t *RoutingTable) FindNextHop(dest string) (string, error) {
	d, err := ParseAddress(dest)
	if err != nil {
		return NoRoute, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, r := range t.routes {
		network, err := ParseAddress(r.Destination)
		if err != nil {
			continue
		}
		mask, err := ParseAddress(r.Mask)
		if err != nil {
			continue
		}
		if d&mask == network&mask {
			return r.NextHop, nil
		}
	}
	return NoRoute, nil
}

// Routes returns a copy of the table in lookup order.
func (t *RoutingTable) Routes() []Route {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

func (r Route) String() string {
	return fmt.Sprintf("%s/%s via %s dev %s", r.Destination, r.Mask, r.NextHop, r.Interface)
}
