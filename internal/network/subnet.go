package network

// Subnet is an immutable entry of the subnet catalog.
type Subnet struct {
	Name    string `json:"name"`
	Network string `json:"network"`
	Mask    string `json:"mask"`
	Prefix  int    `json:"prefix"`
}

// Catalog subnet names.
const (
	SubnetLighting   = "Lighting"
	SubnetThermostat = "Thermostat"
	SubnetSecurity   = "Security"
)

// Catalog returns the fixed subnets of the home network. The slice is a
// fresh copy on every call.
func Catalog() []Subnet {
	return []Subnet{
		{Name: SubnetLighting, Network: "192.168.1.0", Mask: "255.255.255.192", Prefix: 26},
		{Name: SubnetThermostat, Network: "192.168.1.64", Mask: "255.255.255.224", Prefix: 27},
		{Name: SubnetSecurity, Network: "192.168.1.96", Mask: "255.255.255.240", Prefix: 28},
	}
}

// Contains reports whether addr belongs to s. Malformed addresses are
// never contained.
func (s Subnet) Contains(addr string) bool {
	ok, err := Contains(s.Network, s.Mask, addr)
	return err == nil && ok
}

// Lookup returns the catalog subnet with the given name.
func Lookup(name string) (Subnet, bool) {
	for _, s := range Catalog() {
		if s.Name == name {
			return s, true
		}
	}
	return Subnet{}, false
}
