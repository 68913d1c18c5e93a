// Package broker fans engine events out to in-process subscribers.
package broker

import (
	"sync"

	"code.openwager.io/openwager/core/events"
	"code.openwager.io/openwager/logging"
)

// Subscriber receives events pushed by the broker. Push is called
// synchronously from the emitting engine, subscribers hand off to their own
// goroutine if they need to do slow work.
type Subscriber interface {
	Push(evts ...events.Event)
	Types() []events.Type
	SetID(id int)
	ID() int
}

// Interface is the emitting side engines depend on.
type Interface interface {
	Send(event events.Event)
	SendBatch(events []events.Event)
}

// Broker - the base broker type.
type Broker struct {
	log *logging.Logger

	mu sync.Mutex
	// event type -> subscriber id -> subscriber
	tSubs map[events.Type]map[int]Subscriber
	subs  map[int]Subscriber
	seqID uint64
	id    int
}

// New creates a new broker.
func New(log *logging.Logger, config Config) *Broker {
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	return &Broker{
		log:   log,
		tSubs: map[events.Type]map[int]Subscriber{},
		subs:  map[int]Subscriber{},
	}
}

// Subscribe registers a subscriber for the event types it declares. A
// subscriber declaring events.All receives everything.
func (b *Broker) Subscribe(s Subscriber) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.id++
	s.SetID(b.id)
	b.subs[b.id] = s
	for _, t := range s.Types() {
		if _, ok := b.tSubs[t]; !ok {
			b.tSubs[t] = map[int]Subscriber{}
		}
		b.tSubs[t][b.id] = s
	}
	return b.id
}

// SubscribeBatch registers several subscribers in one call.
func (b *Broker) SubscribeBatch(subs ...Subscriber) {
	for _, s := range subs {
		b.Subscribe(s)
	}
}

// Unsubscribe removes a subscriber by its key.
func (b *Broker) Unsubscribe(k int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.subs[k]
	if !ok {
		return
	}
	for _, t := range s.Types() {
		delete(b.tSubs[t], k)
	}
	delete(b.subs, k)
}

// Send pushes a single event to all matching subscribers.
func (b *Broker) Send(event events.Event) {
	b.SendBatch([]events.Event{event})
}

// SendBatch pushes a batch of events, stamping each with its sequence id.
func (b *Broker) SendBatch(evts []events.Event) {
	if len(evts) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, e := range evts {
		b.seqID++
		e.SetSequenceID(b.seqID)
	}
	pushed := map[int]struct{}{}
	for _, e := range evts {
		for id, s := range b.tSubs[e.Type()] {
			s.Push(e)
			pushed[id] = struct{}{}
		}
		for id, s := range b.tSubs[events.All] {
			if _, done := pushed[id]; done {
				continue
			}
			s.Push(e)
		}
		for id := range pushed {
			delete(pushed, id)
		}
	}
}
