package positions

import (
	"code.openwager.io/openwager/libs/num"
)

// CommissionRegime is one (product, rate) span of matched trades. A rate
// change mid-market opens a new regime rather than rewriting history, so
// commission on eventual profit can be apportioned to the rate in force when
// each trade happened.
type CommissionRegime struct {
	Product string
	Rate    num.Decimal
	Trades  uint64
}

// MarketPosition is the per-purchaser, per-market ledger: net matched payout
// per outcome, worst-case liability per outcome from unmatched stake, and the
// amount currently escrowed for both.
type MarketPosition struct {
	purchaser string
	marketID  string

	// matched[i] is the net amount paid to the purchaser if outcome i wins,
	// negative when the purchaser is a net payer on that outcome
	matched []int64
	// unmatched[i] is the additional liability taken on if outcome i wins
	// and every unmatched order were to match first
	unmatched []uint64
	// paid is the net escrow held against this position, every payment and
	// refund is the delta of the worst-case exposure
	paid uint64

	regimes []CommissionRegime
	settled bool
}

func newMarketPosition(purchaser, marketID string, outcomes uint16) *MarketPosition {
	return &MarketPosition{
		purchaser: purchaser,
		marketID:  marketID,
		matched:   make([]int64, outcomes),
		unmatched: make([]uint64, outcomes),
	}
}

func (p *MarketPosition) Purchaser() string {
	return p.purchaser
}

func (p *MarketPosition) MarketID() string {
	return p.marketID
}

// MatchedExposure returns the net matched payout for one outcome.
func (p *MarketPosition) MatchedExposure(outcome uint16) int64 {
	return p.matched[outcome]
}

// UnmatchedExposure returns the worst-case unmatched liability for one outcome.
func (p *MarketPosition) UnmatchedExposure(outcome uint16) uint64 {
	return p.unmatched[outcome]
}

// Paid returns the escrow currently held against this position.
func (p *MarketPosition) Paid() uint64 {
	return p.paid
}

func (p *MarketPosition) Settled() bool {
	return p.settled
}

// Regimes returns the commission regimes accumulated by matched trades, in
// accrual order.
func (p *MarketPosition) Regimes() []CommissionRegime {
	out := make([]CommissionRegime, len(p.regimes))
	copy(out, p.regimes)
	return out
}

// totalExposure is the worst-case liability across outcomes: for each outcome
// the unmatched liability plus the matched shortfall, maximised.
func (p *MarketPosition) totalExposure() uint64 {
	var worst uint64
	for i := range p.unmatched {
		e := p.unmatched[i]
		if p.matched[i] < 0 {
			e += uint64(-p.matched[i])
		}
		if e > worst {
			worst = e
		}
	}
	return worst
}

// unmatchedOnlyExposure is the liability that remains once the matched book
// is settled, i.e. what still has to stay escrowed for live orders.
func (p *MarketPosition) unmatchedOnlyExposure() uint64 {
	var worst uint64
	for _, e := range p.unmatched {
		if e > worst {
			worst = e
		}
	}
	return worst
}

func (p *MarketPosition) recordTrade(product string, rate num.Decimal) {
	for i := range p.regimes {
		if p.regimes[i].Product == product && p.regimes[i].Rate.Equal(rate) {
			p.regimes[i].Trades++
			return
		}
	}
	p.regimes = append(p.regimes, CommissionRegime{Product: product, Rate: rate, Trades: 1})
}

// Clone returns a read-only copy for callers outside the engine.
func (p *MarketPosition) Clone() *MarketPosition {
	cpy := &MarketPosition{
		purchaser: p.purchaser,
		marketID:  p.marketID,
		matched:   make([]int64, len(p.matched)),
		unmatched: make([]uint64, len(p.unmatched)),
		paid:      p.paid,
		regimes:   make([]CommissionRegime, len(p.regimes)),
		settled:   p.settled,
	}
	copy(cpy.matched, p.matched)
	copy(cpy.unmatched, p.unmatched)
	copy(cpy.regimes, p.regimes)
	return cpy
}
