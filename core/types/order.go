package types

import (
	"fmt"
	"time"

	"code.openwager.io/openwager/libs/num"
)

// OrderStatus tracks an order through its life. Settled is terminal for the
// settlement path, Voided for the void path.
type OrderStatus int8

const (
	OrderStatusOpen OrderStatus = iota
	OrderStatusMatched
	OrderStatusCancelled
	OrderStatusSettled
	OrderStatusVoided
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusOpen:
		return "open"
	case OrderStatusMatched:
		return "matched"
	case OrderStatusCancelled:
		return "cancelled"
	case OrderStatusSettled:
		return "settled"
	case OrderStatusVoided:
		return "voided"
	default:
		return fmt.Sprintf("unknown(%d)", int8(s))
	}
}

// Order is a live stake resting in, or fully consumed from, a matching pool.
// All stake fields are integers scaled by the market's decimal limit.
type Order struct {
	ID           string
	Reference    string // client supplied request reference
	Purchaser    string
	MarketID     string
	OutcomeIndex uint16
	Side         Side
	Price        num.Decimal

	RequestedStake uint64
	UnmatchedStake uint64
	MatchedStake   uint64
	VoidedStake    uint64

	// total payment taken from the purchaser for this order, maintained by
	// the position ledger and used for event payloads only
	Payment uint64

	Status    OrderStatus
	Product   string // optional commission product
	CreatedAt time.Time
}

// Cancellable reports whether any stake can still be released.
func (o *Order) Cancellable() bool {
	return o.Status == OrderStatusOpen && o.UnmatchedStake > 0
}

func (o *Order) String() string {
	return fmt.Sprintf(
		"id(%s) purchaser(%s) market(%s) outcome(%d) side(%s) price(%s) requested(%d) unmatched(%d) matched(%d) voided(%d) status(%s)",
		o.ID, o.Purchaser, o.MarketID, o.OutcomeIndex, o.Side, o.Price, o.RequestedStake, o.UnmatchedStake, o.MatchedStake, o.VoidedStake, o.Status,
	)
}

// Trade is one side of a matched pair of stake movements. Trades are always
// created two at a time, each referencing the other.
type Trade struct {
	ID              string
	OrderID         string
	OppositeTradeID string
	MarketID        string
	OutcomeIndex    uint16
	Side            Side
	Stake           uint64
	Price           num.Decimal
	Purchaser       string
	Payer           string

	// commission product and the rate in force at match time
	Product string
	Rate    num.Decimal

	CreatedAt time.Time
}

func (t *Trade) String() string {
	return fmt.Sprintf(
		"id(%s) order(%s) opposite(%s) market(%s) outcome(%d) side(%s) stake(%d) price(%s) purchaser(%s)",
		t.ID, t.OrderID, t.OppositeTradeID, t.MarketID, t.OutcomeIndex, t.Side, t.Stake, t.Price, t.Purchaser,
	)
}

// OrderRequest is an intake entry waiting on the order-request queue. The
// stake is already scaled, conversion from the client's decimal presentation
// happens at enqueue time so a bad precision fails before anything is stored.
type OrderRequest struct {
	Reference    string
	Purchaser    string
	MarketID     string
	OutcomeIndex uint16
	Side         Side
	Price        num.Decimal
	Stake        uint64
	Product      string
	CreatedAt    time.Time

	// delay gate for inplay submissions
	DelayUntil time.Time
}
