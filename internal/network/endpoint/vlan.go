//go:build linux

package endpoint

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sandbox-runtime/vmnet/internal/hypervisor"
	"github.com/sandbox-runtime/vmnet/internal/log"
	"github.com/sandbox-runtime/vmnet/internal/logfields"
	"github.com/sandbox-runtime/vmnet/internal/network/link"
	"github.com/sandbox-runtime/vmnet/internal/network/model"
	"github.com/sandbox-runtime/vmnet/internal/network/pair"
	"github.com/sandbox-runtime/vmnet/internal/otelutil"
)

// VlanEndpoint is a VLAN interface passed to the VM through a tap device,
// with traffic redirected between the two by tc filters.
type VlanEndpoint struct {
	pair *pair.NetworkInterfacePair
}

var _ Endpoint = &VlanEndpoint{}

// NewVlanEndpoint creates the tap device for the VLAN interface name (or
// eth<idx>) and pairs the two. h is borrowed for the lifetime of the endpoint.
func NewVlanEndpoint(ctx context.Context, h link.Handle, name string, idx uint32, queues int, opts ...pair.Option) (*VlanEndpoint, error) {
	p, err := pair.New(ctx, h, idx, name, model.TCFilterModel, queues, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "error creating networkInterfacePair")
	}
	return &VlanEndpoint{pair: p}, nil
}

// NetworkPair returns the underlying network pair.
func (e *VlanEndpoint) NetworkPair() *pair.NetworkInterfacePair {
	return e.pair
}

// Type returns [VlanEndpointType].
func (*VlanEndpoint) Type() string {
	return VlanEndpointType
}

// Name returns the name of the virtual interface, which the guest keeps.
func (e *VlanEndpoint) Name() string {
	return e.pair.VirtIface.Name
}

// HardwareAddr returns the hardware address recorded for the tap interface.
func (e *VlanEndpoint) HardwareAddr() string {
	return e.pair.Tap.TapIface.HardAddr
}

// Attach installs the network model and hot-adds the tap to the VM.
func (e *VlanEndpoint) Attach(ctx context.Context, h hypervisor.Hypervisor) (err error) {
	ctx, span := e.startSpan(ctx, "VlanEndpoint::Attach")
	defer span.End()
	defer func() { otelutil.SetSpanStatus(span, err) }()

	if err := e.pair.AddNetworkModel(ctx); err != nil {
		return errors.Wrap(err, "error adding network model")
	}
	config, err := BuildNetworkConfig(e.pair)
	if err != nil {
		return errors.Wrap(err, "get network config")
	}
	span.SetAttributes(attribute.String("config", log.Format(ctx, config)))
	if err := h.AddDevice(ctx, e.device(config)); err != nil {
		return errors.Wrap(err, "error adding device by hypervisor")
	}

	e.logEntry(ctx, config).Debug("attached endpoint")
	return nil
}

// Detach removes the network model and hot-removes the tap from the VM.
func (e *VlanEndpoint) Detach(ctx context.Context, h hypervisor.Hypervisor) (err error) {
	ctx, span := e.startSpan(ctx, "VlanEndpoint::Detach")
	defer span.End()
	defer func() { otelutil.SetSpanStatus(span, err) }()

	if err := e.pair.DelNetworkModel(ctx); err != nil {
		return errors.Wrap(err, "error deleting network model")
	}
	config, err := BuildNetworkConfig(e.pair)
	if err != nil {
		return errors.Wrap(err, "error getting network config")
	}
	span.SetAttributes(attribute.String("config", log.Format(ctx, config)))
	if err := h.RemoveDevice(ctx, e.device(config)); err != nil {
		return errors.Wrap(err, "error removing device by hypervisor")
	}

	e.logEntry(ctx, config).Debug("detached endpoint")
	return nil
}

// Save returns a snapshot of the endpoint state. It is never nil.
func (e *VlanEndpoint) Save() *State {
	return &State{
		VlanEndpoint: &VlanEndpointState{
			IfName:     e.pair.VirtIface.Name,
			NetworkQoS: e.pair.NetworkQoS,
		},
	}
}

func (e *VlanEndpoint) device(config hypervisor.NetworkConfig) *hypervisor.NetworkDevice {
	return &hypervisor.NetworkDevice{
		ID:     e.Name(),
		Config: config,
	}
}

func (e *VlanEndpoint) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return otelutil.StartSpan(ctx, name, trace.WithAttributes(
		attribute.String(logfields.Interface, e.Name()),
		attribute.String(logfields.TapName, e.pair.Tap.TapIface.Name)))
}

func (e *VlanEndpoint) logEntry(ctx context.Context, config hypervisor.NetworkConfig) *logrus.Entry {
	return log.G(ctx).WithFields(logrus.Fields{
		logfields.Interface:   e.Name(),
		logfields.HostDevName: config.HostDevName,
		logfields.GuestMAC:    config.GuestMAC,
	})
}
