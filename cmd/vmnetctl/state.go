//go:build linux

package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	cli "github.com/urfave/cli/v2"
	bolt "go.etcd.io/bbolt"

	"github.com/sandbox-runtime/vmnet/internal/network/endpoint"
	"github.com/sandbox-runtime/vmnet/internal/network/store"
)

var stateCommand = &cli.Command{
	Name:  "state",
	Usage: "Inspect saved endpoint states",
	Subcommands: []*cli.Command{
		{
			Name:  "list",
			Usage: "List the saved endpoint states of a sandbox, or all sandbox ids",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  sandboxFlag,
					Usage: "sandbox id",
				},
			},
			Action: func(c *cli.Context) error {
				s, err := openStore(configFromContext(c))
				if err != nil {
					return err
				}
				defer s.Close()

				sid := c.String(sandboxFlag)
				if sid == "" {
					ids, err := s.Sandboxes(c.Context)
					if err != nil {
						return err
					}
					return writeJSON(c.App.Writer, ids)
				}

				states, err := s.List(c.Context, sid)
				if err != nil {
					return err
				}
				return writeJSON(c.App.Writer, lo.SliceToMap(states, func(st *endpoint.State) (string, *endpoint.State) {
					return st.IfName(), st
				}))
			},
		},
		{
			Name:      "rm",
			Usage:     "Delete the saved state of IFNAME",
			ArgsUsage: "IFNAME",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     sandboxFlag,
					Usage:    "sandbox id",
					Required: true,
				},
			},
			Action: func(c *cli.Context) error {
				ifName := c.Args().First()
				if ifName == "" {
					return errors.New("an interface name is required")
				}
				s, err := openStore(configFromContext(c))
				if err != nil {
					return err
				}
				defer s.Close()
				return s.Delete(c.Context, c.String(sandboxFlag), ifName)
			},
		},
	},
}

func openStore(conf *config) (*store.StateStore, error) {
	if err := os.MkdirAll(filepath.Dir(conf.StateDB), 0700); err != nil {
		return nil, errors.Wrap(err, "failed to create state directory")
	}
	db, err := bolt.Open(conf.StateDB, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open state database %s", conf.StateDB)
	}
	return store.NewStateStore(db), nil
}
