//go:build linux

package endpoint

import (
	"net"
	"strings"

	"github.com/sandbox-runtime/vmnet/internal/hypervisor"
	"github.com/sandbox-runtime/vmnet/internal/network/pair"
)

// ConfigError is returned when a hypervisor network config cannot be built
// from a network pair.
type ConfigError struct {
	HardAddr string
}

func (e *ConfigError) Error() string {
	return "hard_addr " + e.HardAddr
}

// BuildNetworkConfig returns the hypervisor config for the tap side of p. The
// guest is given the tap interface's recorded hardware address, which must be
// six octets separated by ':' or '-'.
func BuildNetworkConfig(p *pair.NetworkInterfacePair) (hypervisor.NetworkConfig, error) {
	iface := p.Tap.TapIface
	mac, ok := parseMAC(iface.HardAddr)
	if !ok {
		return hypervisor.NetworkConfig{}, &ConfigError{HardAddr: iface.HardAddr}
	}
	return hypervisor.NetworkConfig{
		HostDevName: iface.Name,
		GuestMAC:    mac,
	}, nil
}

// parseMAC accepts only the 48-bit colon or hyphen notation. net.ParseMAC
// also takes dotted and longer EUI-64/InfiniBand forms, which are rejected.
func parseMAC(s string) (net.HardwareAddr, bool) {
	if len(s) != 17 || strings.ContainsRune(s, '.') {
		return nil, false
	}
	mac, err := net.ParseMAC(s)
	if err != nil || len(mac) != 6 {
		return nil, false
	}
	return mac, true
}
