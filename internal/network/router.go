package network

import "fmt"

// Router decides whether a packet between two addresses can be delivered,
// using its routing table and the shared AddressTable.
type Router struct {
	table *RoutingTable
	arp   *AddressTable
	iface string
}

// NewRouter returns a router with one direct route per subnet, all on
// egress interface iface. arp is shared with whoever provisions devices.
func NewRouter(subnets []Subnet, iface string, arp *AddressTable) *Router {
	r := &Router{
		table: NewRoutingTable(),
		arp:   arp,
		iface: iface,
	}
	for _, s := range subnets {
		r.table.AddRoute(Route{
			Destination: s.Network,
			NextHop:     DirectConnection,
			Mask:        s.Mask,
			Interface:   iface,
		})
	}
	return r
}

// RoutePacket checks that dst is reachable from src. For a direct route
// dst itself must resolve in the address table, otherwise the next hop
// must. src is only validated; the simulated network has no per-source
// policy.
func (r *Router) RoutePacket(src, dst string) error {
	if _, err := ParseAddress(src); err != nil {
		return err
	}

	hop, err := r.table.FindNextHop(dst)
	if err != nil {
		return err
	}
	if hop == NoRoute {
		return fmt.Errorf("%w: %s", ErrNoRoute, dst)
	}

	target := hop
	if hop == DirectConnection {
		target = dst
	}
	if _, ok := r.arp.Resolve(target); !ok {
		return fmt.Errorf("%w: %s", ErrUnresolved, target)
	}
	return nil
}

// UpdateARP binds ip to mac in the router's address table.
func (r *Router) UpdateARP(ip, mac string) {
	r.arp.Add(ip, mac)
}

// AddRoute appends a route to the router's table.
func (r *Router) AddRoute(route Route) {
	r.table.AddRoute(route)
}

// Routes returns the router's routes in lookup order.
func (r *Router) Routes() []Route {
	return r.table.Routes()
}

// FindNextHop delegates to the routing table.
func (r *Router) FindNextHop(dst string) (string, error) {
	return r.table.FindNextHop(dst)
}

// AddressTable returns the router's ARP cache.
func (r *Router) AddressTable() *AddressTable {
	return r.arp
}

// Interface returns the egress label used on default routes.
func (r *Router) Interface() string {
	return r.iface
}
