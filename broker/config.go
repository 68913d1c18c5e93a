package broker

import (
	"code.openwager.io/openwager/config/encoding"
	"code.openwager.io/openwager/logging"
)

const namedLogger = "broker"

// Config is the configuration of the broker package.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level: encoding.LogLevel{Level: logging.InfoLevel},
	}
}
