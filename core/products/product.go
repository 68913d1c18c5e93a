package products

import (
	"time"

	"code.openwager.io/openwager/libs/num"
)

// RateChange is one entry of a product's commission rate history.
type RateChange struct {
	Rate num.Decimal
	From time.Time
}

// Product is a commission product: trades referencing it accrue commission at
// the rate in force when the trade matched, paid into the product's escrow on
// settlement. Rate updates append to the history rather than rewriting it.
type Product struct {
	ID        string
	Title     string
	Authority string
	EscrowID  string

	history []RateChange
}

// CurrentRate returns the rate in force now.
func (p *Product) CurrentRate() num.Decimal {
	return p.history[len(p.history)-1].Rate
}

// RateAt returns the rate in force at the given time. Times before the first
// recorded change resolve to the initial rate.
func (p *Product) RateAt(t time.Time) num.Decimal {
	rate := p.history[0].Rate
	for _, rc := range p.history {
		if rc.From.After(t) {
			break
		}
		rate = rc.Rate
	}
	return rate
}

// History returns a copy of the rate history in chronological order.
func (p *Product) History() []RateChange {
	out := make([]RateChange, len(p.history))
	copy(out, p.history)
	return out
}
