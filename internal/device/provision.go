package device

import (
	"fmt"

	"github.com/nerrad567/homenet/internal/network"
)

// Fixed addresses of the pre-provisioned devices.
const (
	Light1IP      = "192.168.1.10"
	Light1MAC     = "00:1A:2B:3C:4D:5E"
	Light2IP      = "192.168.1.11"
	Light2MAC     = "00:1A:2B:3C:4D:5F"
	ThermostatIP  = "192.168.1.65"
	ThermostatMAC = "00:1A:2B:3C:4D:6A"
	CameraIP      = "192.168.1.97"
	CameraMAC     = "00:1A:2B:3C:4D:7B"
)

// AddressBinder records IP to hardware address bindings.
// *network.AddressTable satisfies it.
type AddressBinder interface {
	Add(ip, mac string)
}

// DefaultDevices builds the four devices of the home network in their
// initial state.
func DefaultDevices() []Device {
	return []Device{
		NewLight(Light1IP, Light1MAC, network.SubnetLighting),
		NewLight(Light2IP, Light2MAC, network.SubnetLighting),
		NewThermostat(ThermostatIP, ThermostatMAC, network.SubnetThermostat),
		NewSecurityCamera(CameraIP, CameraMAC, network.SubnetSecurity),
	}
}

// Provision registers the default devices and binds each one in arp, so
// every address in the table also exists in the registry.
func Provision(reg *Registry, arp AddressBinder) error {
	for _, d := range DefaultDevices() {
		if err := reg.Register(d); err != nil {
			return fmt.Errorf("provisioning %s: %w", d.Info().IP, err)
		}
		info := d.Info()
		arp.Add(info.IP, info.MAC)
	}
	return nil
}
