package settlement

import (
	"code.openwager.io/openwager/config/encoding"
	"code.openwager.io/openwager/logging"
)

const namedLogger = "settlement"

// Config is the configuration of the settlement package.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`

	// QueueCapacity bounds the commission payment queue ring buffer.
	QueueCapacity int `long:"queue-capacity"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level:         encoding.LogLevel{Level: logging.InfoLevel},
		QueueCapacity: 100,
	}
}
