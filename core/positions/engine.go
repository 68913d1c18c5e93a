package positions

import (
	"sort"

	"golang.org/x/exp/maps"

	"code.openwager.io/openwager/core/types"
	"code.openwager.io/openwager/libs/num"
	"code.openwager.io/openwager/logging"
)

// Engine maintains the position ledger for one market. Every mutation returns
// the payment or refund implied by the change in worst-case exposure, so the
// escrow held for a purchaser always equals their outstanding liability.
type Engine struct {
	Config
	log *logging.Logger

	marketID string
	outcomes uint16

	// purchaser -> position
	positions map[string]*MarketPosition
}

// New instantiates a new positions engine.
func New(log *logging.Logger, config Config, marketID string, outcomes uint16) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	return &Engine{
		Config:    config,
		log:       log,
		marketID:  marketID,
		outcomes:  outcomes,
		positions: map[string]*MarketPosition{},
	}
}

// ReloadConf updates the internal configuration of the positions engine.
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

// GetOrCreate returns the purchaser's position, creating it on first use. The
// second return reports whether a new position was created so the caller can
// bump the market's outstanding-account counters.
func (e *Engine) GetOrCreate(purchaser string) (*MarketPosition, bool) {
	if pos, ok := e.positions[purchaser]; ok {
		return pos, false
	}
	pos := newMarketPosition(purchaser, e.marketID, e.outcomes)
	e.positions[purchaser] = pos
	return pos, true
}

// Get returns a read-only copy of the purchaser's position.
func (e *Engine) Get(purchaser string) (*MarketPosition, bool) {
	pos, ok := e.positions[purchaser]
	if !ok {
		return nil, false
	}
	return pos.Clone(), true
}

// Purchasers returns every purchaser holding a position, sorted.
func (e *Engine) Purchasers() []string {
	keys := maps.Keys(e.positions)
	sort.Strings(keys)
	return keys
}

// Remove drops a settled position so the account can be reclaimed on close.
func (e *Engine) Remove(purchaser string) {
	delete(e.positions, purchaser)
}

// RegisterOrder records the unmatched exposure of a newly created order and
// returns the payment needed to escrow the increase in worst-case liability.
// Exposure already funded by offsetting orders reduces the transfer to the
// delta, possibly to zero.
func (e *Engine) RegisterOrder(o *types.Order) (uint64, error) {
	pos, _ := e.GetOrCreate(o.Purchaser)
	before := pos.totalExposure()

	if err := e.addUnmatched(pos, o.Side, o.OutcomeIndex, o.UnmatchedStake, o.Price); err != nil {
		return 0, err
	}

	after := pos.totalExposure()
	var payment uint64
	if after > before {
		payment = after - before
	}
	paid, err := num.AddU64(pos.paid, payment)
	if err != nil {
		return 0, err
	}
	pos.paid = paid
	return payment, nil
}

// UnregisterStake removes unmatched exposure when stake is released by
// cancellation, settlement or voiding, and returns the refund now redundant.
// The refund depends on what else the position holds, which is why releasing
// offsetting orders in a different sequence shifts the per-order amounts
// while the total stays fixed.
func (e *Engine) UnregisterStake(purchaser string, side types.Side, outcome uint16, stake uint64, price num.Decimal) (uint64, error) {
	pos, ok := e.positions[purchaser]
	if !ok {
		return 0, types.ErrOrderNotFound
	}
	before := pos.totalExposure()

	if err := e.subUnmatched(pos, side, outcome, stake, price); err != nil {
		return 0, err
	}

	after := pos.totalExposure()
	var refund uint64
	if before > after {
		refund = before - after
	}
	paid, err := num.SubU64(pos.paid, refund)
	if err != nil {
		return 0, err
	}
	pos.paid = paid
	return refund, nil
}

// ApplyMatch moves stake from the unmatched exposure vector into the matched
// book for one leg of a match, records the trade against the commission
// regime in force, and returns any refund due or additional payment required
// by the exposure delta.
func (e *Engine) ApplyMatch(purchaser string, side types.Side, outcome uint16, stake uint64, price num.Decimal, product string, rate num.Decimal) (refund, payment uint64, err error) {
	pos, ok := e.positions[purchaser]
	if !ok {
		return 0, 0, types.ErrOrderNotFound
	}
	before := pos.totalExposure()

	if err := e.subUnmatched(pos, side, outcome, stake, price); err != nil {
		return 0, 0, err
	}
	if err := e.addMatched(pos, side, outcome, stake, price); err != nil {
		return 0, 0, err
	}
	pos.recordTrade(product, rate)

	after := pos.totalExposure()
	switch {
	case after < before:
		refund = before - after
		pos.paid, err = num.SubU64(pos.paid, refund)
	case after > before:
		payment = after - before
		pos.paid, err = num.AddU64(pos.paid, payment)
	}
	if err != nil {
		return 0, 0, err
	}

	if e.log.IsDebug() {
		e.log.Debug("position updated for match",
			logging.MarketID(e.marketID),
			logging.PurchaserID(purchaser),
			logging.Uint64("stake", stake),
			logging.Uint64("refund", refund),
			logging.Uint64("payment", payment),
		)
	}
	return refund, payment, nil
}

// Settle pays out the matched book against the winning outcome. Escrow still
// needed to cover unmatched orders stays behind, the remainder plus the net
// matched win (or less the net matched loss) comes back as payout. Profit is
// the commissionable slice of that payout.
func (e *Engine) Settle(purchaser string, winning uint16) (payout, profit uint64, regimes []CommissionRegime, err error) {
	pos, ok := e.positions[purchaser]
	if !ok {
		return 0, 0, nil, types.ErrOrderNotFound
	}
	if winning >= e.outcomes {
		return 0, 0, nil, types.ErrSettlementInvalidMarketOutcomeIndex
	}
	if pos.settled {
		return 0, 0, nil, nil
	}

	keep := pos.unmatchedOnlyExposure()
	gross, err := num.AddI64(int64(pos.paid), pos.matched[winning])
	if err != nil {
		return 0, 0, nil, err
	}
	gross, err = num.SubI64(gross, int64(keep))
	if err != nil {
		return 0, 0, nil, err
	}
	if gross < 0 {
		e.log.Panic("position payout exceeds escrowed liability",
			logging.MarketID(e.marketID),
			logging.PurchaserID(purchaser),
			logging.Int64("gross", gross),
		)
	}

	if pos.matched[winning] > 0 {
		profit = uint64(pos.matched[winning])
	}
	regimes = pos.Regimes()

	for i := range pos.matched {
		pos.matched[i] = 0
	}
	pos.paid = keep
	pos.settled = true
	return uint64(gross), profit, regimes, nil
}

// Void refunds everything escrowed against the position, no winner needed.
func (e *Engine) Void(purchaser string) (uint64, error) {
	pos, ok := e.positions[purchaser]
	if !ok {
		return 0, types.ErrOrderNotFound
	}
	refund := pos.paid
	for i := range pos.matched {
		pos.matched[i] = 0
		pos.unmatched[i] = 0
	}
	pos.paid = 0
	pos.settled = true
	return refund, nil
}

func (e *Engine) addUnmatched(pos *MarketPosition, side types.Side, outcome uint16, stake uint64, price num.Decimal) error {
	if outcome >= e.outcomes {
		return types.ErrInvalidOutcomeIndex
	}
	switch side {
	case types.SideFor:
		// a for-stake is lost on every other outcome
		for i := range pos.unmatched {
			if uint16(i) == outcome {
				continue
			}
			v, err := num.AddU64(pos.unmatched[i], stake)
			if err != nil {
				return err
			}
			pos.unmatched[i] = v
		}
	case types.SideAgainst:
		risk, err := num.Risk(stake, price)
		if err != nil {
			return err
		}
		v, err := num.AddU64(pos.unmatched[outcome], risk)
		if err != nil {
			return err
		}
		pos.unmatched[outcome] = v
	default:
		return types.ErrInvalidOutcomeIndex
	}
	return nil
}

func (e *Engine) subUnmatched(pos *MarketPosition, side types.Side, outcome uint16, stake uint64, price num.Decimal) error {
	if outcome >= e.outcomes {
		return types.ErrInvalidOutcomeIndex
	}
	switch side {
	case types.SideFor:
		for i := range pos.unmatched {
			if uint16(i) == outcome {
				continue
			}
			v, err := num.SubU64(pos.unmatched[i], stake)
			if err != nil {
				return err
			}
			pos.unmatched[i] = v
		}
	case types.SideAgainst:
		// the released portion's risk is truncated the same way it was at
		// registration, so a partial release at a fractional price can strand
		// a unit of dust in unmatched exposure but never underflow it; the
		// escrow surplus sweep reclaims the dust when the market closes
		risk, err := num.Risk(stake, price)
		if err != nil {
			return err
		}
		v, err := num.SubU64(pos.unmatched[outcome], risk)
		if err != nil {
			return err
		}
		pos.unmatched[outcome] = v
	default:
		return types.ErrInvalidOutcomeIndex
	}
	return nil
}

// addMatched folds one matched leg into the per-outcome payout vector. A for
// leg on outcome i wins the risk on i and loses the stake elsewhere, an
// against leg is the mirror image.
func (e *Engine) addMatched(pos *MarketPosition, side types.Side, outcome uint16, stake uint64, price num.Decimal) error {
	risk, err := num.Risk(stake, price)
	if err != nil {
		return err
	}
	for i := range pos.matched {
		var delta int64
		switch {
		case uint16(i) == outcome && side == types.SideFor:
			delta = int64(risk)
		case uint16(i) == outcome && side == types.SideAgainst:
			delta = -int64(risk)
		case side == types.SideFor:
			delta = -int64(stake)
		default:
			delta = int64(stake)
		}
		v, err := num.AddI64(pos.matched[i], delta)
		if err != nil {
			return err
		}
		pos.matched[i] = v
	}
	return nil
}
