//go:build linux

package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	cli "github.com/urfave/cli/v2"
	"github.com/vishvananda/netns"
	"golang.org/x/sys/unix"

	"github.com/sandbox-runtime/vmnet/internal/network/address"
	"github.com/sandbox-runtime/vmnet/internal/network/link"
)

const familyFlag = "family"

var addrsCommand = &cli.Command{
	Name:      "addrs",
	Usage:     "Dump the decoded addresses of all links, or of LINK",
	ArgsUsage: "[LINK]",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  familyFlag,
			Usage: "address family to dump: 4, 6 or 0 for both",
		},
	},
	Action: func(c *cli.Context) error {
		conf := configFromContext(c)

		family, err := familyFromFlag(c.Int(familyFlag))
		if err != nil {
			return err
		}

		var index uint32
		if name := c.Args().First(); name != "" {
			h, err := link.NewHandleAt(conf.NetNS)
			if err != nil {
				return err
			}
			defer h.Close()
			l, err := h.LinkByName(name)
			if err != nil {
				return errors.Wrapf(err, "failed to find link %s", name)
			}
			index = uint32(l.Attrs().Index)
		}

		addrs, err := listAddresses(c, conf.NetNS, family, index)
		if err != nil {
			return err
		}
		return writeJSON(c.App.Writer, lo.Map(addrs, func(a address.Address, _ int) addrView {
			return newAddrView(a)
		}))
	},
}

type addrView struct {
	Address   string   `json:"address"`
	Label     string   `json:"label,omitempty"`
	Scope     uint8    `json:"scope"`
	Flags     uint32   `json:"flags"`
	Peer      string   `json:"peer,omitempty"`
	Broadcast string   `json:"broadcast,omitempty"`
	Lifetimes []uint32 `json:"lifetimes,omitempty"`
}

func newAddrView(a address.Address) addrView {
	v := addrView{
		Address: fmt.Sprintf("%s/%d", a.Addr, a.PrefixLen),
		Label:   a.Label,
		Scope:   a.Scope,
		Flags:   a.Flags,
	}
	if !a.Peer.IsUnspecified() {
		v.Peer = a.Peer.String()
	}
	if !a.Broadcast.IsUnspecified() {
		v.Broadcast = a.Broadcast.String()
	}
	if a.PreferredLifetime != 0 || a.ValidLifetime != 0 {
		v.Lifetimes = []uint32{a.PreferredLifetime, a.ValidLifetime}
	}
	return v
}

func familyFromFlag(f int) (uint8, error) {
	switch f {
	case 0:
		return unix.AF_UNSPEC, nil
	case 4:
		return unix.AF_INET, nil
	case 6:
		return unix.AF_INET6, nil
	}
	return 0, errors.Errorf("invalid address family %d, expected 4, 6 or 0", f)
}

// listAddresses dumps addresses over an rtnetlink socket opened in nsPath.
func listAddresses(c *cli.Context, nsPath string, family uint8, index uint32) ([]address.Address, error) {
	lister, closer, err := newAddressLister(nsPath, family)
	if err != nil {
		return nil, err
	}
	defer closer()
	return lister.List(c.Context, index)
}

func newAddressLister(nsPath string, family uint8) (*address.Lister, func(), error) {
	nsFD := 0
	if nsPath != "" {
		ns, err := netns.GetFromPath(nsPath)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to open network namespace %s", nsPath)
		}
		defer ns.Close()
		nsFD = int(ns)
	}

	conn, err := address.Dial(nsFD)
	if err != nil {
		return nil, nil, err
	}
	return &address.Lister{Conn: conn, Family: family}, func() { _ = conn.Close() }, nil
}
