package matching

import (
	"sort"

	"code.openwager.io/openwager/core/idgeneration"
	"code.openwager.io/openwager/core/queue"
	"code.openwager.io/openwager/core/types"
	"code.openwager.io/openwager/libs/num"
	"code.openwager.io/openwager/logging"
)

// OrderStore gives the engine access to the live order records it mutates
// when applying queued matches.
type OrderStore interface {
	GetOrder(id string) (*types.Order, bool)
}

// OrderMatch is one maker-leg entry on the matching queue: stake committed to
// a counterparty at plan time, applied to the maker pool's head order when the
// queue is cranked.
type OrderMatch struct {
	TakerOrderID string
	TakerOutcome uint16
	TakerPrice   num.Decimal
	TakerStake   uint64
	MakerOutcome uint16
	MakerPrice   num.Decimal
	MakerSide    types.Side
	MakerStake   uint64
	Cross        bool
}

// MatchResult is one applied pair of stake movements, ready for the caller to
// turn into trade records, position updates and escrow movements.
type MatchResult struct {
	Taker, Maker               *types.Order
	TakerStake, MakerStake     uint64
	TakerPrice, MakerPrice     num.Decimal
	TakerOutcome, MakerOutcome uint16
	Cross                      bool
}

type poolKey struct {
	outcome uint16
	price   string
	side    types.Side
}

// Engine maintains the matching pools and the matching queue for one market.
// Matching is planned eagerly (reserving pool liquidity) and applied one pair
// per crank, each application re-validated against current pool state.
type Engine struct {
	Config
	log *logging.Logger

	marketID string
	outcomes uint16

	pools map[poolKey]*Pool
	liq   *Liquidities
	match *queue.Ring[*OrderMatch]
}

// New instantiates a matching engine for one market.
func New(log *logging.Logger, config Config, marketID string, outcomes uint16) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	return &Engine{
		Config:   config,
		log:      log,
		marketID: marketID,
		outcomes: outcomes,
		pools:    map[poolKey]*Pool{},
		liq:      newLiquidities(),
		match:    queue.New[*OrderMatch](config.QueueCapacity),
	}
}

// ReloadConf updates the internal configuration of the matching engine.
func (e *Engine) ReloadConf(cfg Config) {
	e.log.Info("reloading configuration")
	if e.log.GetLevel() != cfg.Level.Get() {
		e.log.Info("updating log level",
			logging.String("old", e.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		e.log.SetLevel(cfg.Level.Get())
	}
	e.Config = cfg
}

func (e *Engine) key(outcome uint16, price num.Decimal, side types.Side) poolKey {
	return poolKey{outcome: outcome, price: price.String(), side: side}
}

// Pool returns the pool for the given key if it exists.
func (e *Engine) Pool(outcome uint16, price num.Decimal, side types.Side) (*Pool, bool) {
	p, ok := e.pools[e.key(outcome, price, side)]
	return p, ok
}

// Pools returns all pools ordered by (outcome, price, side) for deterministic
// iteration.
func (e *Engine) Pools() []*Pool {
	out := make([]*Pool, 0, len(e.pools))
	for _, p := range e.pools {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OutcomeIndex != out[j].OutcomeIndex {
			return out[i].OutcomeIndex < out[j].OutcomeIndex
		}
		if !out[i].Price.Equal(out[j].Price) {
			return out[i].Price.LessThan(out[j].Price)
		}
		return out[i].Side < out[j].Side
	})
	return out
}

func (e *Engine) getOrCreatePool(outcome uint16, price num.Decimal, side types.Side) *Pool {
	k := e.key(outcome, price, side)
	if p, ok := e.pools[k]; ok {
		return p
	}
	p := newPool(
		idgeneration.PoolID(e.marketID, outcome, price, side),
		e.marketID, outcome, price, side, e.PoolCapacity,
	)
	e.pools[k] = p
	return p
}

// SubmitOrder places the order at the tail of its pool and plans matches
// against the opposing pool and, for for-orders, any fresh cross-liquidity
// entry. It returns the number of match instructions enqueued.
func (e *Engine) SubmitOrder(o *types.Order) (int, error) {
	if o.MarketID != e.marketID {
		return 0, types.ErrMatchingMarketMismatch
	}
	if o.OutcomeIndex >= e.outcomes {
		return 0, types.ErrInvalidOutcomeIndex
	}

	pool := e.getOrCreatePool(o.OutcomeIndex, o.Price, o.Side)
	if err := pool.enqueue(o.ID, o.UnmatchedStake); err != nil {
		return 0, err
	}

	queued := 0
	remaining := o.UnmatchedStake

	// direct liquidity first, price-time priority is preserved because the
	// apply step always consumes the opposing pool's head
	opposing, ok := e.Pool(o.OutcomeIndex, o.Price, o.Side.Opposite())
	if ok && opposing.Available() > 0 && remaining > 0 {
		chunk := num.MinU64(remaining, opposing.Available())
		if err := e.planDirect(o, pool, opposing, chunk); err != nil {
			return queued, err
		}
		remaining -= chunk
		queued++
	}

	// derived liquidity, only matchable once explicitly refreshed
	if o.Side == types.SideFor && remaining > 0 {
		n, err := e.planCross(o, pool, remaining)
		if err != nil {
			return queued, err
		}
		queued += n
	}

	// planning changed pool state, entries computed before it are now stale
	e.liq.touch()

	if e.log.IsDebug() {
		e.log.Debug("order submitted to matching",
			logging.OrderID(o.ID),
			logging.Uint64("stake", o.UnmatchedStake),
			logging.Int("matches-queued", queued),
		)
	}
	return queued, nil
}

func (e *Engine) planDirect(taker *types.Order, takerPool, makerPool *Pool, stake uint64) error {
	if err := takerPool.reserve(stake); err != nil {
		return err
	}
	if err := makerPool.reserve(stake); err != nil {
		return err
	}
	return e.match.PushBack(&OrderMatch{
		TakerOrderID: taker.ID,
		TakerOutcome: taker.OutcomeIndex,
		TakerPrice:   taker.Price,
		TakerStake:   stake,
		MakerOutcome: taker.OutcomeIndex,
		MakerPrice:   taker.Price,
		MakerSide:    taker.Side.Opposite(),
		MakerStake:   stake,
	})
}

// planCross consumes the derived against-liquidity entry at the taker's
// (outcome, price), committing each source for-pool in the same plan. The
// entry is cleared once consumed, a later taker needs a fresh refresh.
func (e *Engine) planCross(taker *types.Order, takerPool *Pool, remaining uint64) (int, error) {
	entry, fresh := e.liq.get(taker.OutcomeIndex, taker.Price)
	if entry == nil || entry.Amount == 0 {
		return 0, nil
	}
	if !fresh {
		// advisory only, the caller refreshes and retries
		return 0, nil
	}

	stake := num.MinU64(remaining, entry.Amount)
	pot := num.DecimalFromUint64(stake).Mul(taker.Price)

	queued := 0
	takerLeft := stake
	for i, src := range entry.Sources {
		srcPool, ok := e.Pool(src.OutcomeIndex, src.Price, types.SideFor)
		if !ok {
			return queued, types.ErrMatchingCrossLiquidityStale
		}
		makerStake, err := num.ScaleToUint(pot.Div(src.Price).Floor(), 0)
		if err != nil {
			return queued, err
		}
		if makerStake > srcPool.Available() {
			return queued, types.ErrMatchingCrossLiquidityStale
		}
		takerStake := takerLeft
		if i < len(entry.Sources)-1 {
			// taker attribution per source leg: sᵢ/(price-1), the legs sum
			// back to the full taker stake
			share := num.DecimalFromUint64(makerStake).Div(taker.Price.Sub(num.DecimalOne()))
			takerStake, err = num.ScaleToUint(share.Floor(), 0)
			if err != nil {
				return queued, err
			}
			takerStake = num.MinU64(takerStake, takerLeft)
		}
		if err := takerPool.reserve(takerStake); err != nil {
			return queued, err
		}
		if err := srcPool.reserve(makerStake); err != nil {
			return queued, err
		}
		if err := e.match.PushBack(&OrderMatch{
			TakerOrderID: taker.ID,
			TakerOutcome: taker.OutcomeIndex,
			TakerPrice:   taker.Price,
			TakerStake:   takerStake,
			MakerOutcome: src.OutcomeIndex,
			MakerPrice:   src.Price,
			MakerSide:    types.SideFor,
			MakerStake:   makerStake,
			Cross:        true,
		}); err != nil {
			return queued, err
		}
		takerLeft -= takerStake
		queued++
	}

	e.liq.clear(taker.OutcomeIndex, taker.Price)
	e.liq.touch()
	return queued, nil
}

// MatchOrders is the externally-driven pairwise variant: the caller names the
// two orders it believes are at the head of their pools, and the engine
// re-validates everything against current state before committing a match.
func (e *Engine) MatchOrders(forOrder, againstOrder *types.Order) error {
	if forOrder.ID == againstOrder.ID {
		return types.ErrMatchingOrdersForAndAgainstAreIdentical
	}
	if forOrder.Side != types.SideFor {
		return types.ErrMatchingExpectedAForOrder
	}
	if againstOrder.Side != types.SideAgainst {
		return types.ErrMatchingExpectedAnAgainstOrder
	}
	if forOrder.MarketID != e.marketID || againstOrder.MarketID != e.marketID {
		return types.ErrMatchingMarketMismatch
	}
	if forOrder.OutcomeIndex != againstOrder.OutcomeIndex {
		return types.ErrMatchingOutcomeMismatch
	}
	if !forOrder.Price.Equal(againstOrder.Price) {
		return types.ErrInvalidPrice
	}

	forPool, ok := e.Pool(forOrder.OutcomeIndex, forOrder.Price, types.SideFor)
	if !ok {
		return types.ErrMatchingPoolHeadMismatch
	}
	againstPool, ok := e.Pool(againstOrder.OutcomeIndex, againstOrder.Price, types.SideAgainst)
	if !ok {
		return types.ErrMatchingPoolHeadMismatch
	}
	if head, _ := forPool.Head(); head != forOrder.ID {
		return types.ErrMatchingPoolHeadMismatch
	}
	if head, _ := againstPool.Head(); head != againstOrder.ID {
		return types.ErrMatchingPoolHeadMismatch
	}

	stake := num.MinU64(
		num.MinU64(forOrder.UnmatchedStake, againstOrder.UnmatchedStake),
		num.MinU64(forPool.Available(), againstPool.Available()),
	)
	if stake == 0 {
		// everything at the head is already spoken for
		return types.ErrMatchingPoolHeadMismatch
	}

	// the resting side is the maker, price is shared so only time matters
	maker, taker := forOrder, againstOrder
	makerPool, takerPool := forPool, againstPool
	if againstOrder.CreatedAt.Before(forOrder.CreatedAt) {
		maker, taker = againstOrder, forOrder
		makerPool, takerPool = againstPool, forPool
	}

	if err := takerPool.reserve(stake); err != nil {
		return err
	}
	if err := makerPool.reserve(stake); err != nil {
		return err
	}
	return e.match.PushBack(&OrderMatch{
		TakerOrderID: taker.ID,
		TakerOutcome: taker.OutcomeIndex,
		TakerPrice:   taker.Price,
		TakerStake:   stake,
		MakerOutcome: maker.OutcomeIndex,
		MakerPrice:   maker.Price,
		MakerSide:    maker.Side,
		MakerStake:   stake,
	})
}

// ProcessNextMatch applies the front matching-queue entry against the current
// head of the maker pool. At most one pair is matched per call, a multi-entry
// queue needs repeated calls, each independently atomic.
func (e *Engine) ProcessNextMatch(store OrderStore) (*MatchResult, error) {
	m, err := e.match.Front()
	if err != nil {
		return nil, err
	}

	makerPool, ok := e.Pool(m.MakerOutcome, m.MakerPrice, m.MakerSide)
	if !ok {
		e.log.Panic("matching queue references a missing pool",
			logging.MarketID(e.marketID),
			logging.Uint16("outcome", m.MakerOutcome),
		)
	}
	headID, ok := makerPool.Head()
	if !ok {
		e.log.Panic("matching queue holds a reservation on an empty pool",
			logging.MarketID(e.marketID),
			logging.String("pool", makerPool.ID),
		)
	}
	maker, ok := store.GetOrder(headID)
	if !ok {
		return nil, types.ErrOrderNotFound
	}
	taker, ok := store.GetOrder(m.TakerOrderID)
	if !ok {
		return nil, types.ErrOrderNotFound
	}

	makerStake := num.MinU64(m.MakerStake, maker.UnmatchedStake)
	takerStake := m.TakerStake
	if makerStake < m.MakerStake {
		// head is smaller than the planned chunk, apportion the taker leg
		mul, err := num.MulU64(m.TakerStake, makerStake)
		if err != nil {
			return nil, err
		}
		takerStake = mul / m.MakerStake
	}

	if err := e.applyLeg(makerPool, maker, makerStake); err != nil {
		return nil, err
	}
	takerPool, ok := e.Pool(m.TakerOutcome, m.TakerPrice, taker.Side)
	if !ok {
		e.log.Panic("taker pool missing for queued match",
			logging.OrderID(taker.ID),
		)
	}
	if err := e.applyLeg(takerPool, taker, takerStake); err != nil {
		return nil, err
	}

	m.MakerStake -= makerStake
	m.TakerStake -= takerStake
	if m.MakerStake == 0 {
		if m.TakerStake > 0 {
			// rounding dust from a cross apportionment, hand it back
			takerPool.release(m.TakerStake)
			m.TakerStake = 0
		}
		e.match.PopFront()
	}
	e.liq.touch()

	return &MatchResult{
		Taker:        taker,
		Maker:        maker,
		TakerStake:   takerStake,
		MakerStake:   makerStake,
		TakerPrice:   m.TakerPrice,
		MakerPrice:   m.MakerPrice,
		TakerOutcome: m.TakerOutcome,
		MakerOutcome: m.MakerOutcome,
		Cross:        m.Cross,
	}, nil
}

func (e *Engine) applyLeg(pool *Pool, o *types.Order, stake uint64) error {
	unmatched, err := num.SubU64(o.UnmatchedStake, stake)
	if err != nil {
		return err
	}
	matched, err := num.AddU64(o.MatchedStake, stake)
	if err != nil {
		return err
	}
	if err := pool.consume(stake); err != nil {
		return err
	}
	o.UnmatchedStake = unmatched
	o.MatchedStake = matched
	if o.UnmatchedStake == 0 {
		o.Status = types.OrderStatusMatched
		pool.dropOrder(o.ID)
	}
	return nil
}

// CancelOrder releases an order's unmatched stake from its pool, provided the
// liquidity left behind still covers every reservation queued against the
// pool. The check runs against current state, not the submission snapshot.
func (e *Engine) CancelOrder(o *types.Order) error {
	if !o.Cancellable() {
		return types.ErrCancelOrderNotCancellable
	}
	pool, ok := e.Pool(o.OutcomeIndex, o.Price, o.Side)
	if !ok {
		return types.ErrOrderNotFound
	}
	if pool.Liquidity()-o.UnmatchedStake < pool.promised {
		return types.ErrCancelationLowLiquidity
	}
	if err := pool.removeOrder(o.ID, o.UnmatchedStake); err != nil {
		return err
	}
	e.liq.touch()
	return nil
}

// ReleaseOrder removes an order's unmatched stake without the liquidity
// guard, used by settlement and voiding once matching has ceased.
func (e *Engine) ReleaseOrder(o *types.Order) error {
	pool, ok := e.Pool(o.OutcomeIndex, o.Price, o.Side)
	if !ok {
		return nil
	}
	if err := pool.removeOrder(o.ID, o.UnmatchedStake); err != nil {
		if err == types.ErrOrderNotFound {
			return nil
		}
		return err
	}
	e.liq.touch()
	return nil
}

// UpdateCrossLiquidity recomputes the derived against-liquidity entry implied
// by the given source for-pools. Sources must cover every outcome but one.
func (e *Engine) UpdateCrossLiquidity(sources []LiquiditySource) (*CrossLiquidity, error) {
	if len(sources) != int(e.outcomes)-1 {
		return nil, types.ErrInvalidOutcomeIndex
	}
	seen := map[uint16]bool{}
	for _, s := range sources {
		if s.OutcomeIndex >= e.outcomes || seen[s.OutcomeIndex] {
			return nil, types.ErrInvalidOutcomeIndex
		}
		seen[s.OutcomeIndex] = true
	}
	var target uint16
	for i := uint16(0); i < e.outcomes; i++ {
		if !seen[i] {
			target = i
			break
		}
	}

	price, err := crossPrice(sources)
	if err != nil {
		return nil, err
	}

	// implied stake is bounded by the thinnest source pot
	amount := uint64(0)
	first := true
	for _, s := range sources {
		pool, ok := e.Pool(s.OutcomeIndex, s.Price, types.SideFor)
		available := uint64(0)
		if ok {
			available = pool.Available()
		}
		pot := num.DecimalFromUint64(available).Mul(s.Price)
		implied, err := num.ScaleToUint(pot.Div(price).Floor(), 0)
		if err != nil {
			return nil, err
		}
		if first || implied < amount {
			amount = implied
			first = false
		}
	}

	entry := &CrossLiquidity{
		OutcomeIndex: target,
		Price:        price,
		Amount:       amount,
		Sources:      sources,
	}
	e.liq.put(entry)

	if e.log.IsDebug() {
		e.log.Debug("cross liquidity refreshed",
			logging.MarketID(e.marketID),
			logging.Uint16("outcome", target),
			logging.String("price", price.String()),
			logging.Uint64("amount", amount),
		)
	}
	return entry, nil
}

// CrossLiquidity returns the stored entry for (outcome, price) and whether it
// is fresh enough to match against.
func (e *Engine) CrossLiquidity(outcome uint16, price num.Decimal) (*CrossLiquidity, bool) {
	return e.liq.get(outcome, price)
}

// QueueEmpty reports whether the matching queue is fully drained.
func (e *Engine) QueueEmpty() bool {
	return e.match.Empty()
}

// QueueLen returns the matching queue depth.
func (e *Engine) QueueLen() int {
	return e.match.Len()
}

// DropQueue discards all queued matches and their reservations. The forced
// void path and lock-time cancel-unmatched both use it, a planned match dies
// with the stake it reserved.
func (e *Engine) DropQueue() []*OrderMatch {
	dropped := make([]*OrderMatch, 0, e.match.Len())
	for !e.match.Empty() {
		m, _ := e.match.PopFront()
		if pool, ok := e.Pool(m.MakerOutcome, m.MakerPrice, m.MakerSide); ok {
			pool.release(m.MakerStake)
		}
		takerSide := m.MakerSide.Opposite()
		if m.Cross {
			takerSide = types.SideFor
		}
		if pool, ok := e.Pool(m.TakerOutcome, m.TakerPrice, takerSide); ok {
			pool.release(m.TakerStake)
		}
		dropped = append(dropped, m)
	}
	e.liq.touch()
	return dropped
}

// ZeroPoolsForInplay marks every pool's pre-inplay volume as logically zeroed
// and returns the ids of all resting orders so the caller can apply the
// market's inplay order behaviour to them.
func (e *Engine) ZeroPoolsForInplay() []string {
	resting := []string{}
	for _, p := range e.Pools() {
		resting = append(resting, p.Orders()...)
		p.zeroForInplay()
	}
	e.liq.touch()
	return resting
}
