package hypervisor

import (
	"fmt"
	"net"
)

// DeviceType identifies the kind of device handed to the hypervisor.
type DeviceType int

const (
	DeviceTypeNetwork DeviceType = iota
)

func (t DeviceType) String() string {
	switch t {
	case DeviceTypeNetwork:
		return "network"
	default:
		return fmt.Sprintf("DeviceType(%d)", int(t))
	}
}

// Device is a hot-pluggable guest device.
type Device interface {
	DeviceType() DeviceType
}

// NetworkConfig is the host side of a guest NIC.
type NetworkConfig struct {
	// HostDevName is the tap (or veth) device backing the NIC.
	HostDevName string
	// GuestMAC is the hardware address the guest sees. Nil if the device
	// type lets the hypervisor pick one.
	GuestMAC net.HardwareAddr
}

// NetworkDevice is a guest NIC. ID is the guest-visible interface name and is
// how the hypervisor finds the device again on removal.
type NetworkDevice struct {
	ID     string
	Config NetworkConfig
}

var _ Device = &NetworkDevice{}

func (*NetworkDevice) DeviceType() DeviceType {
	return DeviceTypeNetwork
}
