//go:build linux

// Package link holds the host netlink operations the network pair and the
// interworking models depend on.
package link

import (
	"github.com/pkg/errors"
	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netns"
)

// Handle is the subset of [*netlink.Handle] used to plumb a sandbox
// interface on the host. It is borrowed by its users, never closed by them.
type Handle interface {
	LinkByName(name string) (netlink.Link, error)
	LinkAdd(link netlink.Link) error
	LinkDel(link netlink.Link) error
	LinkSetUp(link netlink.Link) error
	LinkSetMTU(link netlink.Link, mtu int) error
	QdiscAdd(qdisc netlink.Qdisc) error
	QdiscDel(qdisc netlink.Qdisc) error
	QdiscList(link netlink.Link) ([]netlink.Qdisc, error)
	FilterAdd(filter netlink.Filter) error
}

var _ Handle = &netlink.Handle{}

// NewHandleAt returns a netlink handle operating in the network namespace at
// nsPath, or in the current namespace if nsPath is empty.
func NewHandleAt(nsPath string) (*netlink.Handle, error) {
	if nsPath == "" {
		h, err := netlink.NewHandle()
		if err != nil {
			return nil, errors.Wrap(err, "failed to create netlink handle")
		}
		return h, nil
	}

	ns, err := netns.GetFromPath(nsPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open network namespace %s", nsPath)
	}
	defer ns.Close()

	h, err := netlink.NewHandleAt(ns)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create netlink handle in %s", nsPath)
	}
	return h, nil
}

// CreateTap creates a persistent multi-queue tap device named name and
// returns the resulting link. A queue count below 1 is treated as 1.
func CreateTap(h Handle, name string, queues int) (netlink.Link, error) {
	if queues < 1 {
		queues = 1
	}

	tap := &netlink.Tuntap{
		LinkAttrs: netlink.LinkAttrs{Name: name},
		Mode:      netlink.TUNTAP_MODE_TAP,
		Queues:    queues,
		Flags:     netlink.TUNTAP_MULTI_QUEUE_DEFAULTS | netlink.TUNTAP_VNET_HDR,
	}
	if err := h.LinkAdd(tap); err != nil {
		return nil, errors.Wrapf(err, "failed to create tap %s", name)
	}
	// the device is persistent, the hypervisor opens its own queues by name
	for _, f := range tap.Fds {
		_ = f.Close()
	}

	l, err := h.LinkByName(name)
	if err != nil {
		err = errors.Wrapf(err, "failed to find tap %s", name)
		if derr := h.LinkDel(tap); derr != nil {
			return nil, errors.Wrapf(err, "failed to remove tap: %v", derr)
		}
		return nil, err
	}
	return l, nil
}

// DeleteTap removes the tap device named name.
func DeleteTap(h Handle, name string) error {
	l, err := h.LinkByName(name)
	if err != nil {
		return errors.Wrapf(err, "failed to find tap %s", name)
	}
	if _, ok := l.(*netlink.Tuntap); !ok {
		return errors.Errorf("link %s is a %s, not a tap", name, l.Type())
	}
	if err := h.LinkDel(l); err != nil {
		return errors.Wrapf(err, "failed to delete tap %s", name)
	}
	return nil
}
