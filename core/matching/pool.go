package matching

import (
	"code.openwager.io/openwager/core/queue"
	"code.openwager.io/openwager/core/types"
	"code.openwager.io/openwager/libs/num"
)

// Pool is the resting-order FIFO for one (market, outcome, price, side) key.
// liquidity always equals the sum of unmatched stakes of the queued orders.
// promised is the slice of that liquidity already reserved by match
// instructions sitting on the matching queue, it has been committed to a
// counterparty but not yet applied to specific maker orders.
type Pool struct {
	ID           string
	MarketID     string
	OutcomeIndex uint16
	Price        num.Decimal
	Side         types.Side

	orders    *queue.Ring[string]
	liquidity uint64
	promised  uint64
	matched   uint64

	// set when the market went inplay after this pool accrued volume, the
	// pre-inplay matched volume is reported as zero from then on
	inplayZeroed     bool
	preInplayMatched uint64
}

func newPool(id, marketID string, outcome uint16, price num.Decimal, side types.Side, capacity int) *Pool {
	return &Pool{
		ID:           id,
		MarketID:     marketID,
		OutcomeIndex: outcome,
		Price:        price,
		Side:         side,
		orders:       queue.New[string](capacity),
	}
}

// Liquidity returns the aggregate unmatched stake of the queued orders.
func (p *Pool) Liquidity() uint64 {
	return p.liquidity
}

// Available returns the liquidity not yet reserved by queued matches.
func (p *Pool) Available() uint64 {
	return p.liquidity - p.promised
}

// MatchedVolume returns the volume matched through this pool. Pools zeroed at
// the inplay transition only report volume accrued since.
func (p *Pool) MatchedVolume() uint64 {
	if p.inplayZeroed {
		return p.matched - p.preInplayMatched
	}
	return p.matched
}

// Len returns the number of resting orders.
func (p *Pool) Len() int {
	return p.orders.Len()
}

// Head returns the order id at the front of the FIFO.
func (p *Pool) Head() (string, bool) {
	id, err := p.orders.Front()
	if err != nil {
		return "", false
	}
	return id, true
}

// Orders returns the resting order ids in arrival order.
func (p *Pool) Orders() []string {
	return p.orders.Items()
}

func (p *Pool) enqueue(orderID string, stake uint64) error {
	if err := p.orders.PushBack(orderID); err != nil {
		return err
	}
	liq, err := num.AddU64(p.liquidity, stake)
	if err != nil {
		return err
	}
	p.liquidity = liq
	return nil
}

// reserve holds an amount of liquidity for a queued match.
func (p *Pool) reserve(stake uint64) error {
	held, err := num.AddU64(p.promised, stake)
	if err != nil {
		return err
	}
	if held > p.liquidity {
		return num.ErrMathOperationFailed
	}
	p.promised = held
	return nil
}

// consume applies a reserved amount against the head order, reducing both
// liquidity and the reservation, and accruing matched volume.
func (p *Pool) consume(stake uint64) error {
	liq, err := num.SubU64(p.liquidity, stake)
	if err != nil {
		return err
	}
	held, err := num.SubU64(p.promised, stake)
	if err != nil {
		return err
	}
	matched, err := num.AddU64(p.matched, stake)
	if err != nil {
		return err
	}
	p.liquidity, p.promised, p.matched = liq, held, matched
	return nil
}

// release drops a reservation without consuming it, used when a queued match
// is dropped by a forced void.
func (p *Pool) release(stake uint64) {
	if stake > p.promised {
		p.promised = 0
		return
	}
	p.promised -= stake
}

// dropOrder removes an order id from the FIFO without touching the liquidity
// aggregates, used once a fully-matched order has been consumed.
func (p *Pool) dropOrder(orderID string) {
	items := p.orders.Items()
	rebuilt := queue.New[string](p.orders.Cap())
	removed := false
	for _, id := range items {
		if !removed && id == orderID {
			removed = true
			continue
		}
		rebuilt.PushBack(id)
	}
	p.orders = rebuilt
}

// removeOrder drops an order from anywhere in the FIFO, preserving the
// arrival order of the rest. Used by cancellation and per-order settlement.
func (p *Pool) removeOrder(orderID string, stake uint64) error {
	items := p.orders.Items()
	rebuilt := queue.New[string](p.orders.Cap())
	removed := false
	for _, id := range items {
		if !removed && id == orderID {
			removed = true
			continue
		}
		rebuilt.PushBack(id)
	}
	if !removed {
		return types.ErrOrderNotFound
	}
	liq, err := num.SubU64(p.liquidity, stake)
	if err != nil {
		return err
	}
	p.orders = rebuilt
	p.liquidity = liq
	return nil
}

// zeroForInplay marks the inplay transition, pre-inplay matched volume is
// reported as zero from here on.
func (p *Pool) zeroForInplay() {
	p.inplayZeroed = true
	p.preInplayMatched = p.matched
}
