//go:build linux

package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v2"
	"golang.org/x/sys/unix"

	"github.com/sandbox-runtime/vmnet/internal/log"
	"github.com/sandbox-runtime/vmnet/internal/logfields"
	"github.com/sandbox-runtime/vmnet/internal/network/address"
	"github.com/sandbox-runtime/vmnet/internal/network/endpoint"
	"github.com/sandbox-runtime/vmnet/internal/network/link"
	"github.com/sandbox-runtime/vmnet/internal/network/model"
	"github.com/sandbox-runtime/vmnet/internal/network/pair"
)

const (
	nameFlag    = "name"
	indexFlag   = "index"
	queuesFlag  = "queues"
	sandboxFlag = "sandbox"
	plumbFlag   = "plumb"
)

var endpointCommand = &cli.Command{
	Name:  "endpoint",
	Usage: "Create and remove VLAN endpoints",
	Subcommands: []*cli.Command{
		endpointCreateCommand,
		endpointRemoveCommand,
	},
}

var endpointFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  nameFlag,
		Usage: "name of the CNI-provided interface, defaults to eth<index>",
	},
	&cli.UintFlag{
		Name:     indexFlag,
		Usage:    "index of the interface in the sandbox",
		Required: true,
	},
}

var endpointCreateCommand = &cli.Command{
	Name:  "create",
	Usage: "Create the tap device for a VLAN interface and print the resulting endpoint",
	Flags: append([]cli.Flag{
		&cli.IntFlag{
			Name:  queuesFlag,
			Usage: "number of tap queues, overrides the configuration",
		},
		&cli.StringFlag{
			Name:  sandboxFlag,
			Usage: "save the endpoint state under this sandbox id",
		},
		&cli.BoolFlag{
			Name:  plumbFlag,
			Usage: "also install the tc filter redirection between the interface and the tap",
		},
	}, endpointFlags...),
	Action: func(c *cli.Context) (err error) {
		conf := configFromContext(c)
		idx := uint32(c.Uint(indexFlag))
		ctx, _ := log.S(c.Context, logrus.Fields{
			logfields.Interface: pair.VirtName(idx, c.String(nameFlag)),
			logfields.SandboxID: c.String(sandboxFlag),
		})
		queues := conf.Queues
		if c.IsSet(queuesFlag) {
			queues = c.Int(queuesFlag)
		}

		h, err := link.NewHandleAt(conf.NetNS)
		if err != nil {
			return err
		}
		defer h.Close()

		lister, closeLister, err := newAddressLister(conf.NetNS, unix.AF_UNSPEC)
		if err != nil {
			return err
		}
		defer closeLister()

		e, err := endpoint.NewVlanEndpoint(ctx, h, c.String(nameFlag), idx, queues,
			pair.WithAddressLister(lister))
		if err != nil {
			return err
		}
		defer func() {
			if err == nil {
				return
			}
			// ctx may already be cancelled
			cleanupCtx := log.Copy(context.Background(), ctx)
			if rerr := removeEndpoint(cleanupCtx, h, e.NetworkPair().Tap.TapIface.Name, e.Name()); rerr != nil {
				log.G(cleanupCtx).WithError(rerr).Warn("failed to clean up endpoint")
			}
		}()

		if c.Bool(plumbFlag) {
			if err := e.NetworkPair().AddNetworkModel(ctx); err != nil {
				return errors.Wrap(err, "error adding network model")
			}
		}

		config, err := endpoint.BuildNetworkConfig(e.NetworkPair())
		if err != nil {
			return err
		}

		if sid := c.String(sandboxFlag); sid != "" {
			s, err := openStore(conf)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.Put(ctx, sid, e.Save()); err != nil {
				return err
			}
		}

		p := e.NetworkPair()
		return writeJSON(c.App.Writer, endpointView{
			Type:         e.Type(),
			Name:         e.Name(),
			HardwareAddr: e.HardwareAddr(),
			TapID:        p.Tap.ID,
			HostDevName:  config.HostDevName,
			GuestMAC:     config.GuestMAC.String(),
			Addresses: lo.Map(p.VirtIface.Addrs, func(a address.Address, _ int) addrView {
				return newAddrView(a)
			}),
		})
	},
}

type endpointView struct {
	Type         string     `json:"type"`
	Name         string     `json:"name"`
	HardwareAddr string     `json:"hardware_addr"`
	TapID        string     `json:"tap_id"`
	HostDevName  string     `json:"host_dev_name"`
	GuestMAC     string     `json:"guest_mac"`
	Addresses    []addrView `json:"addresses,omitempty"`
}

var endpointRemoveCommand = &cli.Command{
	Name:  "rm",
	Usage: "Remove the tc filter redirection and the tap device of a VLAN interface",
	Flags: endpointFlags,
	Action: func(c *cli.Context) error {
		conf := configFromContext(c)
		idx := uint32(c.Uint(indexFlag))
		virtName := pair.VirtName(idx, c.String(nameFlag))
		tapName := pair.TapName(idx)

		h, err := link.NewHandleAt(conf.NetNS)
		if err != nil {
			return err
		}
		defer h.Close()

		if err := removeEndpoint(c.Context, h, tapName, virtName); err != nil {
			return err
		}

		log.G(c.Context).WithFields(logrus.Fields{
			logfields.TapName:   tapName,
			logfields.Interface: virtName,
		}).Info("removed endpoint")
		return nil
	},
}

// removeEndpoint undoes the tc filter model and deletes the tap.
func removeEndpoint(ctx context.Context, h link.Handle, tapName, virtName string) error {
	m, err := model.New(model.TCFilterModel)
	if err != nil {
		return err
	}
	if err := m.Del(ctx, h, tapName, virtName); err != nil {
		return errors.Wrap(err, "error deleting network model")
	}
	return link.DeleteTap(h, tapName)
}
