package matching

import (
	"code.openwager.io/openwager/core/types"
	"code.openwager.io/openwager/libs/num"
)

// LiquiditySource identifies a (outcome, price) for-pool implicitly backing a
// derived cross-liquidity entry.
type LiquiditySource struct {
	OutcomeIndex uint16
	Price        num.Decimal
}

// CrossLiquidity is implied against-liquidity for one outcome, derived from
// resting for-liquidity on every other outcome at pricing-consistent prices.
// Entries are advisory until refreshed, any pool mutation makes them stale,
// and they are cleared once consumed.
type CrossLiquidity struct {
	OutcomeIndex uint16
	Price        num.Decimal
	Amount       uint64
	Sources      []LiquiditySource

	version uint64
}

// Liquidities holds the market-wide derived cross-liquidity entries, versioned
// against the pools they were computed from.
type Liquidities struct {
	entries []*CrossLiquidity
	// version increments on every pool mutation, entries computed against an
	// older version are stale and must be refreshed before matching
	version uint64
}

func newLiquidities() *Liquidities {
	return &Liquidities{}
}

func (l *Liquidities) touch() {
	l.version++
}

// get returns the fresh cross entry for (outcome, price), if any.
func (l *Liquidities) get(outcome uint16, price num.Decimal) (*CrossLiquidity, bool) {
	for _, e := range l.entries {
		if e.OutcomeIndex == outcome && e.Price.Equal(price) {
			return e, e.version == l.version
		}
	}
	return nil, false
}

func (l *Liquidities) put(entry *CrossLiquidity) {
	entry.version = l.version
	for i, e := range l.entries {
		if e.OutcomeIndex == entry.OutcomeIndex && e.Price.Equal(entry.Price) {
			l.entries[i] = entry
			return
		}
	}
	l.entries = append(l.entries, entry)
}

// clear removes the entry for (outcome, price), called once it is consumed.
func (l *Liquidities) clear(outcome uint16, price num.Decimal) {
	for i, e := range l.entries {
		if e.OutcomeIndex == outcome && e.Price.Equal(price) {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return
		}
	}
}

// crossPrice computes the implied against price for the outcome missing from
// sources: 1/(1 - Σ 1/priceᵢ). The source set must leave headroom for the
// remaining outcome, otherwise there is no valid implied price.
func crossPrice(sources []LiquiditySource) (num.Decimal, error) {
	sum := num.DecimalZero()
	for _, s := range sources {
		sum = sum.Add(num.DecimalOne().Div(s.Price))
	}
	rem := num.DecimalOne().Sub(sum)
	if !rem.IsPositive() {
		return num.DecimalZero(), types.ErrInvalidPrice
	}
	return num.DecimalOne().Div(rem), nil
}
