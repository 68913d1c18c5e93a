// Package crank drives queue-draining operations from the caller side. The
// engines re-validate queue heads and liquidity snapshots on every apply, so a
// crank attempt can fail simply because state moved underneath it; those
// failures are retried with backoff, anything else is final.
package crank

import (
	"context"

	"github.com/cenkalti/backoff/v4"

	"code.openwager.io/openwager/core/types"
	"code.openwager.io/openwager/logging"
)

// Cranker retries stale-state failures with exponential backoff.
type Cranker struct {
	Config
	log *logging.Logger
}

// New instantiates a cranker.
func New(log *logging.Logger, config Config) *Cranker {
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	return &Cranker{
		Config: config,
		log:    log,
	}
}

// ReloadConf updates the internal configuration of the cranker.
func (c *Cranker) ReloadConf(cfg Config) {
	c.log.Info("reloading configuration")
	if c.log.GetLevel() != cfg.Level.Get() {
		c.log.Info("updating log level",
			logging.String("old", c.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		c.log.SetLevel(cfg.Level.Get())
	}
	c.Config = cfg
}

// Retry runs fn until it succeeds, fails with a non-stale error, or the retry
// budget is exhausted. Stale-state errors mean the caller's snapshot of a
// queue head or liquidity no longer matches engine state, fn is expected to
// re-read state on each attempt.
func (c *Cranker) Retry(ctx context.Context, fn func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.InitialInterval.Get()
	bo.MaxInterval = c.MaxInterval.Get()

	attempt := 0
	wrapped := func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if !types.IsStaleState(err) {
			return backoff.Permanent(err)
		}
		if c.log.IsDebug() {
			c.log.Debug("stale state, retrying",
				logging.Int("attempt", attempt),
				logging.Error(err),
			)
		}
		return err
	}
	return backoff.Retry(
		wrapped,
		backoff.WithContext(backoff.WithMaxRetries(bo, c.MaxRetries), ctx),
	)
}
