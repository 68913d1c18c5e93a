package crank

import (
	"time"

	"code.openwager.io/openwager/config/encoding"
	"code.openwager.io/openwager/logging"
)

const namedLogger = "crank"

// Config is the configuration of the crank package.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`

	// InitialInterval is the first backoff delay after a stale-state error.
	InitialInterval encoding.Duration `long:"initial-interval"`
	// MaxInterval caps the backoff delay between attempts.
	MaxInterval encoding.Duration `long:"max-interval"`
	// MaxRetries bounds the number of retries before giving up.
	MaxRetries uint64 `long:"max-retries"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level:           encoding.LogLevel{Level: logging.InfoLevel},
		InitialInterval: encoding.Duration{Duration: 10 * time.Millisecond},
		MaxInterval:     encoding.Duration{Duration: time.Second},
		MaxRetries:      10,
	}
}
