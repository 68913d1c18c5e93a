// Package events defines the bus events emitted by the engines so external
// indexers can follow state changes without polling the datastore.
package events

import "context"

type Type int

const (
	// All is used by subscribers that want every event, it has no payload.
	All Type = iota
	MarketEvent
	OrderEvent
	TradeEvent
	PositionEvent
	AccountEvent
	SettlementEvent
)

func (t Type) String() string {
	switch t {
	case All:
		return "ALL"
	case MarketEvent:
		return "MARKET"
	case OrderEvent:
		return "ORDER"
	case TradeEvent:
		return "TRADE"
	case PositionEvent:
		return "POSITION"
	case AccountEvent:
		return "ACCOUNT"
	case SettlementEvent:
		return "SETTLEMENT"
	default:
		return "UNSPECIFIED"
	}
}

// Event is the base interface all bus events satisfy.
type Event interface {
	Type() Type
	Context() context.Context
	Sequence() uint64
	SetSequenceID(s uint64)
}

// Base is the common denominator all events share.
type Base struct {
	ctx context.Context
	seq uint64
	et  Type
}

func newBase(ctx context.Context, t Type) Base {
	return Base{
		ctx: ctx,
		et:  t,
	}
}

// Type returns the event type.
func (b Base) Type() Type {
	return b.et
}

// Context returns the context the event was emitted under.
func (b Base) Context() context.Context {
	return b.ctx
}

// Sequence returns the sequence id the broker assigned to this event.
func (b Base) Sequence() uint64 {
	return b.seq
}

// SetSequenceID is only called by the broker, once.
func (b *Base) SetSequenceID(s uint64) {
	if b.seq != 0 {
		return
	}
	b.seq = s
}
