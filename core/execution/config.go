package execution

import (
	"code.openwager.io/openwager/config/encoding"
	"code.openwager.io/openwager/core/matching"
	"code.openwager.io/openwager/core/positions"
	"code.openwager.io/openwager/core/settlement"
	"code.openwager.io/openwager/core/voiding"
	"code.openwager.io/openwager/logging"
)

const namedLogger = "execution"

// Config is the configuration of the execution package and the per-market
// engines it instantiates.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`

	// RequestQueueCapacity bounds the order-request intake ring of each market.
	RequestQueueCapacity int `long:"request-queue-capacity"`

	Matching   matching.Config
	Positions  positions.Config
	Settlement settlement.Config
	Voiding    voiding.Config
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level:                encoding.LogLevel{Level: logging.InfoLevel},
		RequestQueueCapacity: 100,
		Matching:             matching.NewDefaultConfig(),
		Positions:            positions.NewDefaultConfig(),
		Settlement:           settlement.NewDefaultConfig(),
		Voiding:              voiding.NewDefaultConfig(),
	}
}
