//go:build linux

package model

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"github.com/sandbox-runtime/vmnet/internal/log"
	"github.com/sandbox-runtime/vmnet/internal/logfields"
	"github.com/sandbox-runtime/vmnet/internal/network/link"
)

type tcFilter struct{}

var _ Model = tcFilter{}

func (tcFilter) Kind() string { return TCFilterModel }

// Add gives the tap the MTU of the virtual link and brings both links up,
// then installs an ingress qdisc on each and a match-all filter redirecting
// every frame received on one link to the egress of the other.
func (tcFilter) Add(ctx context.Context, h link.Handle, tapName, virtName string) error {
	tap, virt, err := lookupPair(h, tapName, virtName)
	if err != nil {
		return err
	}

	if mtu := virt.Attrs().MTU; mtu > 0 {
		if err := h.LinkSetMTU(tap, mtu); err != nil {
			return errors.Wrapf(err, "failed to set tap %s MTU %d", tapName, mtu)
		}
	}

	for _, l := range []netlink.Link{tap, virt} {
		if err := h.LinkSetUp(l); err != nil {
			return errors.Wrapf(err, "failed to set link %s up", l.Attrs().Name)
		}
	}

	tapIndex, virtIndex := tap.Attrs().Index, virt.Attrs().Index
	for _, index := range []int{tapIndex, virtIndex} {
		if err := addIngress(h, index); err != nil {
			return err
		}
	}
	if err := addRedirect(h, tapIndex, virtIndex); err != nil {
		return err
	}
	if err := addRedirect(h, virtIndex, tapIndex); err != nil {
		return err
	}

	log.G(ctx).WithFields(logrus.Fields{
		logfields.TapName:   tapName,
		logfields.Interface: virtName,
	}).Debug("installed tc filter redirection")
	return nil
}

// Del removes the ingress qdiscs, and with them the redirect filters, from
// both links. The tap itself is left in place.
func (tcFilter) Del(ctx context.Context, h link.Handle, tapName, virtName string) error {
	tap, virt, err := lookupPair(h, tapName, virtName)
	if err != nil {
		return err
	}

	for _, l := range []netlink.Link{virt, tap} {
		if err := removeIngress(h, l); err != nil {
			return err
		}
	}

	log.G(ctx).WithFields(logrus.Fields{
		logfields.TapName:   tapName,
		logfields.Interface: virtName,
	}).Debug("removed tc filter redirection")
	return nil
}

func lookupPair(h link.Handle, tapName, virtName string) (tap, virt netlink.Link, err error) {
	if tap, err = h.LinkByName(tapName); err != nil {
		return nil, nil, errors.Wrapf(err, "failed to find tap link %s", tapName)
	}
	if virt, err = h.LinkByName(virtName); err != nil {
		return nil, nil, errors.Wrapf(err, "failed to find virtual link %s", virtName)
	}
	return tap, virt, nil
}

func addIngress(h link.Handle, index int) error {
	qdisc := &netlink.Ingress{
		QdiscAttrs: netlink.QdiscAttrs{
			LinkIndex: index,
			Handle:    netlink.MakeHandle(0xffff, 0),
			Parent:    netlink.HANDLE_INGRESS,
		},
	}
	if err := h.QdiscAdd(qdisc); err != nil {
		return errors.Wrapf(err, "failed to add ingress qdisc on link %d", index)
	}
	return nil
}

func addRedirect(h link.Handle, from, to int) error {
	filter := &netlink.U32{
		FilterAttrs: netlink.FilterAttrs{
			LinkIndex: from,
			Parent:    netlink.MakeHandle(0xffff, 0),
			Priority:  1,
			Protocol:  unix.ETH_P_ALL,
		},
		Actions: []netlink.Action{
			&netlink.MirredAction{
				ActionAttrs: netlink.ActionAttrs{
					Action: netlink.TC_ACT_STOLEN,
				},
				MirredAction: netlink.TCA_EGRESS_REDIR,
				Ifindex:      to,
			},
		},
	}
	if err := h.FilterAdd(filter); err != nil {
		return errors.Wrapf(err, "failed to add redirect filter from link %d to %d", from, to)
	}
	return nil
}

func removeIngress(h link.Handle, l netlink.Link) error {
	qdiscs, err := h.QdiscList(l)
	if err != nil {
		return errors.Wrapf(err, "failed to list qdiscs of link %s", l.Attrs().Name)
	}
	for _, q := range qdiscs {
		ingress, ok := q.(*netlink.Ingress)
		if !ok {
			continue
		}
		if err := h.QdiscDel(ingress); err != nil {
			return errors.Wrapf(err, "failed to remove ingress qdisc of link %s", l.Attrs().Name)
		}
	}
	return nil
}
