package events

import (
	"context"

	"code.openwager.io/openwager/core/types"
)

// Market carries a market record after a lifecycle change.
type Market struct {
	Base
	m types.Market
}

func NewMarketEvent(ctx context.Context, m types.Market) *Market {
	return &Market{
		Base: newBase(ctx, MarketEvent),
		m:    m,
	}
}

func (e Market) Market() types.Market {
	return e.m
}

func (e Market) MarketID() string {
	return e.m.ID
}

// Order carries an order record after creation or a state change.
type Order struct {
	Base
	o types.Order
}

func NewOrderEvent(ctx context.Context, o types.Order) *Order {
	return &Order{
		Base: newBase(ctx, OrderEvent),
		o:    o,
	}
}

func (e Order) Order() types.Order {
	return e.o
}

func (e Order) MarketID() string {
	return e.o.MarketID
}

// Trade carries one leg of an applied match.
type Trade struct {
	Base
	t types.Trade
}

func NewTradeEvent(ctx context.Context, t types.Trade) *Trade {
	return &Trade{
		Base: newBase(ctx, TradeEvent),
		t:    t,
	}
}

func (e Trade) Trade() types.Trade {
	return e.t
}

func (e Trade) MarketID() string {
	return e.t.MarketID
}

// Position reports an escrow movement against a purchaser's position.
type Position struct {
	Base
	marketID  string
	purchaser string
	payment   uint64
	refund    uint64
	paid      uint64
}

func NewPositionEvent(ctx context.Context, marketID, purchaser string, payment, refund, paid uint64) *Position {
	return &Position{
		Base:      newBase(ctx, PositionEvent),
		marketID:  marketID,
		purchaser: purchaser,
		payment:   payment,
		refund:    refund,
		paid:      paid,
	}
}

func (e Position) MarketID() string {
	return e.marketID
}

func (e Position) Purchaser() string {
	return e.purchaser
}

func (e Position) Payment() uint64 {
	return e.payment
}

func (e Position) Refund() uint64 {
	return e.refund
}

func (e Position) Paid() uint64 {
	return e.paid
}

// Settlement reports a settled or voided position's final payout.
type Settlement struct {
	Base
	marketID   string
	purchaser  string
	payout     uint64
	commission uint64
	voided     bool
}

func NewSettlementEvent(ctx context.Context, marketID, purchaser string, payout, commission uint64, voided bool) *Settlement {
	return &Settlement{
		Base:       newBase(ctx, SettlementEvent),
		marketID:   marketID,
		purchaser:  purchaser,
		payout:     payout,
		commission: commission,
		voided:     voided,
	}
}

func (e Settlement) MarketID() string {
	return e.marketID
}

func (e Settlement) Purchaser() string {
	return e.purchaser
}

func (e Settlement) Payout() uint64 {
	return e.payout
}

func (e Settlement) Commission() uint64 {
	return e.commission
}

func (e Settlement) Voided() bool {
	return e.voided
}
