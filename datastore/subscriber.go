package datastore

import (
	"code.openwager.io/openwager/core/events"
)

// Indexer subscribes to the broker and mirrors order, position and market
// events into the record store. Settled and voided positions are dropped so a
// List only ever returns live accounts.
type Indexer struct {
	store *Store
	id    int
}

// NewIndexer returns an indexer writing into the given store.
func NewIndexer(store *Store) *Indexer {
	return &Indexer{store: store}
}

// Types declares the event types the indexer follows.
func (i *Indexer) Types() []events.Type {
	return []events.Type{
		events.MarketEvent,
		events.OrderEvent,
		events.PositionEvent,
		events.SettlementEvent,
	}
}

// Push mirrors each event into its record layout.
func (i *Indexer) Push(evts ...events.Event) {
	for _, e := range evts {
		switch ev := e.(type) {
		case *events.Market:
			i.store.Put(EncodeMarket(ev.Market()))
		case *events.Order:
			i.store.Put(EncodeOrder(ev.Order()))
		case *events.Position:
			i.store.Put(EncodePosition(ev.MarketID(), ev.Purchaser(), ev.Paid()))
		case *events.Settlement:
			key := ev.MarketID() + "/" + ev.Purchaser()
			i.store.Delete(PositionDiscriminator, key)
		}
	}
}

// SetID sets the broker-assigned subscriber id.
func (i *Indexer) SetID(id int) {
	i.id = id
}

// ID returns the broker-assigned subscriber id.
func (i *Indexer) ID() int {
	return i.id
}
