package voiding

import (
	"code.openwager.io/openwager/core/types"
	"code.openwager.io/openwager/logging"
)

// Engine drives the full-refund terminal path for one market. It owns the
// order-level transitions and the forced-void escape hatch; the caller moves
// balances and drops the matching queue.
type Engine struct {
	Config
	log *logging.Logger

	marketID string

	// set by a forced void, unlocks the administrative counter correction
	forced          bool
	countsCorrected bool
}

// New instantiates a new voiding engine.
func New(log *logging.Logger, config Config, marketID string) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	return &Engine{
		Config:   config,
		log:      log,
		marketID: marketID,
	}
}

// ReloadConf updates the internal configuration of the voiding engine.
func (e *Engine) ReloadConf(cfg Config) {
	e.log.Info("reloading configuration")
	if e.log.GetLevel() != cfg.Level.Get() {
		e.log.Info("updating log level",
			logging.String("old", e.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		e.log.SetLevel(cfg.Level.Get())
	}
	e.Config = cfg
}

// VoidMarket validates the transition to ReadyToVoid. An in-flight matching
// queue blocks a normal void, a forced void proceeds anyway and records that
// the unsettled-accounts counter may now be inconsistent.
func (e *Engine) VoidMarket(m *types.Market, matchingQueueLen int, force bool) error {
	switch m.Status {
	case types.MarketStatusInitializing, types.MarketStatusOpen, types.MarketStatusLocked:
	default:
		return types.ErrMarketInvalidStatus
	}
	if matchingQueueLen > 0 {
		if !force {
			return types.ErrVoidMarketMatchingQueueNotEmpty
		}
		e.forced = true
		e.log.Warn("forced void with in-flight matches, unsettled count may need correction",
			logging.MarketID(e.marketID),
			logging.Int("queued-matches", matchingQueueLen),
		)
	}
	m.Status = types.MarketStatusReadyToVoid
	return nil
}

// VoidOrder moves an order's remaining unmatched stake into its voided bucket
// and returns that stake for the caller to release from the position ledger.
// Terminal orders cannot be voided again.
func (e *Engine) VoidOrder(o *types.Order) (uint64, error) {
	switch o.Status {
	case types.OrderStatusSettled, types.OrderStatusVoided:
		return 0, types.ErrVoidOrderNotVoidable
	}
	stake := o.UnmatchedStake
	o.VoidedStake += stake
	o.UnmatchedStake = 0
	o.Status = types.OrderStatusVoided
	return stake, nil
}

// Forced reports whether this market was voided with an in-flight queue.
func (e *Engine) Forced() bool {
	return e.forced
}

// CountsCorrected reports whether the counter correction has been applied.
func (e *Engine) CountsCorrected() bool {
	return e.countsCorrected
}

// ForceUnsettledCount applies the administrative counter correction after a
// forced void. It is rejected on a normally-voided market, the counter there
// is trustworthy and must drain on its own.
func (e *Engine) ForceUnsettledCount(m *types.Market, count uint32) error {
	if m.Status != types.MarketStatusReadyToVoid {
		return types.ErrMarketInvalidStatus
	}
	if !e.forced {
		return types.ErrMarketInvalidStatus
	}
	e.log.Warn("unsettled accounts count forcibly corrected",
		logging.MarketID(e.marketID),
		logging.Uint32("old", m.UnsettledAccountsCount),
		logging.Uint32("new", count),
	)
	m.UnsettledAccountsCount = count
	e.countsCorrected = true
	return nil
}
