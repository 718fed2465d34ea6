//go:build linux

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/containerd/log"
	"github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v2"

	vmlog "github.com/sandbox-runtime/vmnet/internal/log"
)

const (
	configFlag   = "config"
	logLevelFlag = "log-level"
	netnsFlag    = "netns"
)

type configKeyType struct{}

func main() {
	if err := app().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func app() *cli.App {
	return &cli.App{
		Name:  "vmnetctl",
		Usage: "Inspect and plumb the host side of VM sandbox network endpoints",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  configFlag,
				Usage: "path to the TOML configuration, defaults to " + defaultConfigName + " next to the executable",
			},
			&cli.StringFlag{
				Name:  logLevelFlag,
				Usage: "logrus level, overrides the configuration",
			},
			&cli.StringFlag{
				Name:  netnsFlag,
				Usage: "path of the network namespace to operate in, overrides the configuration",
			},
		},
		Commands: []*cli.Command{
			addrsCommand,
			endpointCommand,
			stateCommand,
		},
		Before: beforeApp,
	}
}

func beforeApp(c *cli.Context) error {
	conf, err := loadConfig(c.String(configFlag))
	if err != nil {
		return err
	}
	if c.IsSet(logLevelFlag) {
		conf.LogLevel = c.String(logLevelFlag)
	}
	if c.IsSet(netnsFlag) {
		conf.NetNS = c.String(netnsFlag)
	}

	if err := setupLogging(conf.LogLevel); err != nil {
		return err
	}
	if c.Context == nil {
		c.Context = context.Background()
	}
	c.Context = context.WithValue(c.Context, configKeyType{}, conf)
	return nil
}

func setupLogging(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logrus.SetLevel(lvl)
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: log.RFC3339NanoFixed,
		FullTimestamp:   true,
	})
	logrus.AddHook(vmlog.NewHook())
	return nil
}

func configFromContext(c *cli.Context) *config {
	if conf, ok := c.Context.Value(configKeyType{}).(*config); ok {
		return conf
	}
	return defaultConfig()
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
