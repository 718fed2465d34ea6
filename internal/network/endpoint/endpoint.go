// Package endpoint implements the sandbox network endpoints that are attached
// to, and detached from, a VM through its hypervisor.
package endpoint

import (
	"context"

	"github.com/sandbox-runtime/vmnet/internal/hypervisor"
)

// VlanEndpointType is the type of an endpoint backed by a VLAN interface.
const VlanEndpointType = "vlan"

// Endpoint is a host network interface that can be plugged into a sandbox VM.
//
// Attach and Detach on the same endpoint must not overlap; the caller owns the
// endpoint for the duration of each call.
type Endpoint interface {
	Type() string
	// Name is the interface name the guest sees.
	Name() string
	// HardwareAddr is the hardware address of the host tap interface.
	HardwareAddr() string

	Attach(ctx context.Context, h hypervisor.Hypervisor) error
	Detach(ctx context.Context, h hypervisor.Hypervisor) error

	// Save returns a snapshot of the persistable state, or nil if the
	// endpoint has none.
	Save() *State
}

// State is the persisted form of an endpoint. Exactly one variant is set.
type State struct {
	VlanEndpoint *VlanEndpointState `json:"vlan_endpoint,omitempty"`
}

// IfName returns the interface name of the populated variant, or "" if none
// is set.
func (s *State) IfName() string {
	if s == nil {
		return ""
	}
	if s.VlanEndpoint != nil {
		return s.VlanEndpoint.IfName
	}
	return ""
}

// VlanEndpointState is the saved state of a [VlanEndpoint].
type VlanEndpointState struct {
	IfName     string `json:"if_name"`
	NetworkQoS bool   `json:"network_qos"`
}
