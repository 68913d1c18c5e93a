// Package config ties the per-package configurations together and round-trips
// them through a single toml file.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"code.openwager.io/openwager/broker"
	"code.openwager.io/openwager/core/collateral"
	"code.openwager.io/openwager/core/execution"
	"code.openwager.io/openwager/core/markets"
	"code.openwager.io/openwager/core/products"
	"code.openwager.io/openwager/crank"
	"code.openwager.io/openwager/datastore"
	"code.openwager.io/openwager/metrics"
)

const configFileName = "config.toml"

// Config ties together all other application configuration types.
type Config struct {
	Execution  execution.Config  `group:"Execution" namespace:"execution"`
	Markets    markets.Config    `group:"Markets" namespace:"markets"`
	Collateral collateral.Config `group:"Collateral" namespace:"collateral"`
	Products   products.Config   `group:"Products" namespace:"products"`
	Broker     broker.Config     `group:"Broker" namespace:"broker"`
	Datastore  datastore.Config  `group:"Datastore" namespace:"datastore"`
	Crank      crank.Config      `group:"Crank" namespace:"crank"`
	Metrics    metrics.Config    `group:"Metrics" namespace:"metrics"`
}

// NewDefaultConfig returns the default configuration for every package.
func NewDefaultConfig() Config {
	return Config{
		Execution:  execution.NewDefaultConfig(),
		Markets:    markets.NewDefaultConfig(),
		Collateral: collateral.NewDefaultConfig(),
		Products:   products.NewDefaultConfig(),
		Broker:     broker.NewDefaultConfig(),
		Datastore:  datastore.NewDefaultConfig(),
		Crank:      crank.NewDefaultConfig(),
		Metrics:    metrics.NewDefaultConfig(),
	}
}

// Read loads the configuration file under rootPath on top of the defaults.
func Read(rootPath string) (*Config, error) {
	path := filepath.Join(rootPath, configFileName)
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read configuration file")
	}
	cfg := NewDefaultConfig()
	if err := toml.Unmarshal(buf, &cfg); err != nil {
		return nil, errors.Wrap(err, "unable to decode configuration file")
	}
	return &cfg, nil
}

// Write saves the configuration file under rootPath, creating the directory
// if needed.
func Write(rootPath string, cfg Config) error {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return errors.Wrap(err, "unable to create configuration directory")
	}
	f, err := os.Create(filepath.Join(rootPath, configFileName))
	if err != nil {
		return errors.Wrap(err, "unable to create configuration file")
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return errors.Wrap(err, "unable to encode configuration")
	}
	return nil
}
