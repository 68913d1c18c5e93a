package types

import (
	"errors"

	"github.com/google/btree"

	"code.openwager.io/openwager/libs/num"
)

var (
	ErrPriceLadderFull         = errors.New("price ladder is at capacity")
	ErrPriceLadderInvalidPrice = errors.New("price ladder entries must be greater than 1")
)

// PriceLadder is a reusable, resizable set of valid price points with a
// capacity ceiling. It is independent of any single market, outcomes copy
// the points they need at creation time.
type PriceLadder struct {
	ID       string
	Capacity int
	tree     *btree.BTreeG[num.Decimal]
}

// NewPriceLadder returns an empty ladder with the given capacity ceiling.
func NewPriceLadder(id string, capacity int) *PriceLadder {
	return &PriceLadder{
		ID:       id,
		Capacity: capacity,
		tree:     btree.NewG[num.Decimal](2, func(a, b num.Decimal) bool { return a.LessThan(b) }),
	}
}

// Add inserts price points, deduplicating as it goes. A price at or below 1
// has no against side and is rejected.
func (p *PriceLadder) Add(prices ...num.Decimal) error {
	for _, price := range prices {
		if price.LessThanOrEqual(num.DecimalOne()) {
			return ErrPriceLadderInvalidPrice
		}
		if _, ok := p.tree.Get(price); ok {
			continue
		}
		if p.tree.Len() >= p.Capacity {
			return ErrPriceLadderFull
		}
		p.tree.ReplaceOrInsert(price)
	}
	return nil
}

// Remove deletes price points, missing entries are ignored.
func (p *PriceLadder) Remove(prices ...num.Decimal) {
	for _, price := range prices {
		p.tree.Delete(price)
	}
}

// Contains reports whether the exact price point is on the ladder.
func (p *PriceLadder) Contains(price num.Decimal) bool {
	_, ok := p.tree.Get(price)
	return ok
}

// Len returns the number of price points on the ladder.
func (p *PriceLadder) Len() int {
	return p.tree.Len()
}

// Prices returns the ladder in ascending order.
func (p *PriceLadder) Prices() []num.Decimal {
	out := make([]num.Decimal, 0, p.tree.Len())
	p.tree.Ascend(func(d num.Decimal) bool {
		out = append(out, d)
		return true
	})
	return out
}
