package matching

import (
	"code.openwager.io/openwager/config/encoding"
	"code.openwager.io/openwager/logging"
)

const namedLogger = "matching"

// Config is the configuration of the matching package.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`

	// PoolCapacity bounds the resting-order FIFO of each matching pool.
	PoolCapacity int `long:"pool-capacity"`
	// QueueCapacity bounds the matching queue ring buffer.
	QueueCapacity int `long:"queue-capacity"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level:         encoding.LogLevel{Level: logging.InfoLevel},
		PoolCapacity:  100,
		QueueCapacity: 100,
	}
}
