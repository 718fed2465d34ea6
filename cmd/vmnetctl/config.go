//go:build linux

package main

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

const defaultConfigName = "vmnetctl.toml"

type config struct {
	// StateDB is the bolt database saved endpoint states are kept in.
	StateDB  string `toml:"state_db"`
	LogLevel string `toml:"log_level"`
	// NetNS is the path of the network namespace the sandbox interfaces live
	// in. Empty means the current namespace.
	NetNS  string `toml:"netns"`
	Queues int    `toml:"queues"`
}

func defaultConfig() *config {
	return &config{
		StateDB:  "/var/lib/vmnet/vmnet.db",
		LogLevel: "warning",
		Queues:   1,
	}
}

// Returns config. If path is "" will check the default location of the config
// which is /path/of/executable/vmnetctl.toml, and fall back to the defaults if
// there is none.
func loadConfig(path string) (*config, error) {
	if path != "" {
		return readConfig(path)
	}
	if path, exists := configPresent(); exists {
		return readConfig(path)
	}
	return defaultConfig(), nil
}

// Reads config from path on top of the defaults.
func readConfig(path string) (*config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	conf := defaultConfig()
	if err := toml.Unmarshal(data, conf); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal config %s", path)
	}
	return conf, nil
}

// Checks to see if there is a vmnetctl.toml in the directory of the executable.
func configPresent() (string, bool) {
	path, err := os.Executable()
	if err != nil {
		return "", false
	}
	path = filepath.Join(filepath.Dir(path), defaultConfigName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", false
	}
	return path, true
}
