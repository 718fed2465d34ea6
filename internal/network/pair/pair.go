//go:build linux

// Package pair builds the host side of a sandbox network interface: the
// CNI-provided virtual link, the tap device the VM is given in its place, and
// the interworking model connecting the two.
package pair

import (
	"context"
	"fmt"
	"net"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sandbox-runtime/vmnet/internal/log"
	"github.com/sandbox-runtime/vmnet/internal/logfields"
	"github.com/sandbox-runtime/vmnet/internal/network/address"
	"github.com/sandbox-runtime/vmnet/internal/network/link"
	"github.com/sandbox-runtime/vmnet/internal/network/model"
	"github.com/sandbox-runtime/vmnet/internal/otelutil"
)

const tapSuffix = "_kata"

// NetworkInterface describes one side of a pair as seen from the host.
type NetworkInterface struct {
	Name     string
	HardAddr string
	Addrs    []address.Address
}

// TapInterface is the tap device handed to the hypervisor.
type TapInterface struct {
	ID       string
	Name     string
	TapIface NetworkInterface
}

// NetworkInterfacePair joins a tap device with the virtual link it replaces
// inside the VM.
type NetworkInterfacePair struct {
	Tap        TapInterface
	VirtIface  NetworkInterface
	Model      model.Model
	NetworkQoS bool

	handle link.Handle
}

// AddressLister returns the addresses assigned to the link with the given index.
type AddressLister interface {
	List(ctx context.Context, index uint32) ([]address.Address, error)
}

type options struct {
	addrs AddressLister
}

// Option configures New.
type Option func(*options)

// WithAddressLister records the virtual link's addresses on the pair.
func WithAddressLister(l AddressLister) Option {
	return func(o *options) {
		o.addrs = l
	}
}

// New creates the tap device for interface idx and pairs it with the existing
// virtual link. The virtual link is named name, or eth<idx> when name is empty.
// h is borrowed and used again by AddNetworkModel and DelNetworkModel.
func New(ctx context.Context, h link.Handle, idx uint32, name, modelKind string, queues int, opts ...Option) (_ *NetworkInterfacePair, err error) {
	ctx, span := otelutil.StartSpan(ctx, "pair::New", trace.WithAttributes(
		attribute.Int64("index", int64(idx)),
		attribute.String(logfields.Interface, name),
		attribute.String(logfields.Model, modelKind)))
	defer span.End()
	defer func() { otelutil.SetSpanStatus(span, err) }()

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	m, err := model.New(modelKind)
	if err != nil {
		return nil, err
	}

	virtName := VirtName(idx, name)
	tapName := TapName(idx)

	virt, err := h.LinkByName(virtName)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to find virtual link %s", virtName)
	}
	tap, err := link.CreateTap(h, tapName, queues)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err == nil {
			return
		}
		if derr := h.LinkDel(tap); derr != nil {
			log.G(ctx).WithError(derr).WithField(logfields.TapName, tapName).Warn("failed to remove tap")
		}
	}()

	p := &NetworkInterfacePair{
		Tap: TapInterface{
			ID:   uuid.NewString(),
			Name: fmt.Sprintf("br%d%s", idx, tapSuffix),
			TapIface: NetworkInterface{
				Name:     tapName,
				HardAddr: hardAddr(virt.Attrs().HardwareAddr),
			},
		},
		VirtIface: NetworkInterface{
			Name:     virtName,
			HardAddr: hardAddr(tap.Attrs().HardwareAddr),
		},
		Model:  m,
		handle: h,
	}

	if o.addrs != nil {
		addrs, err := o.addrs.List(ctx, uint32(virt.Attrs().Index))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to list addresses of %s", virtName)
		}
		p.VirtIface.Addrs = addrs
	}

	log.G(ctx).WithFields(logrus.Fields{
		logfields.TapName:   tapName,
		logfields.Interface: virtName,
		logfields.HardAddr:  p.Tap.TapIface.HardAddr,
		logfields.Model:     modelKind,
		logfields.Queues:    queues,
	}).Debug("created network interface pair")
	return p, nil
}

// TapName returns the name of the tap device created for interface idx.
func TapName(idx uint32) string {
	return fmt.Sprintf("tap%d%s", idx, tapSuffix)
}

// VirtName returns name, or the default name of interface idx if name is empty.
func VirtName(idx uint32, name string) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("eth%d", idx)
}

// AddNetworkModel installs the interworking model between the tap and the
// virtual link.
func (p *NetworkInterfacePair) AddNetworkModel(ctx context.Context) error {
	return p.Model.Add(ctx, p.handle, p.Tap.TapIface.Name, p.VirtIface.Name)
}

// DelNetworkModel removes what AddNetworkModel installed.
func (p *NetworkInterfacePair) DelNetworkModel(ctx context.Context) error {
	return p.Model.Del(ctx, p.handle, p.Tap.TapIface.Name, p.VirtIface.Name)
}

func hardAddr(mac net.HardwareAddr) string {
	if len(mac) == 0 {
		return ""
	}
	return mac.String()
}
