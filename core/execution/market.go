package execution

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/maps"

	"code.openwager.io/openwager/broker"
	"code.openwager.io/openwager/core/collateral"
	"code.openwager.io/openwager/core/events"
	"code.openwager.io/openwager/core/idgeneration"
	"code.openwager.io/openwager/core/markets"
	"code.openwager.io/openwager/core/matching"
	"code.openwager.io/openwager/core/positions"
	"code.openwager.io/openwager/core/products"
	"code.openwager.io/openwager/core/queue"
	"code.openwager.io/openwager/core/settlement"
	"code.openwager.io/openwager/core/types"
	"code.openwager.io/openwager/core/voiding"
	"code.openwager.io/openwager/libs/num"
	"code.openwager.io/openwager/logging"
	"code.openwager.io/openwager/metrics"
)

// Market holds one wagering market and the per-market engines driving it.
// Every operation is an isolated all-or-nothing step; queue-consuming
// operations re-validate their preconditions against current state so racing
// crank callers fail with a typed error instead of corrupting the ledger.
type Market struct {
	log *logging.Logger
	mkt *types.Market

	matching *matching.Engine
	position *positions.Engine
	settle   *settlement.Engine
	voiding  *voiding.Engine
	gate     *markets.Engine

	collateral *collateral.Engine
	products   *products.Engine
	broker     broker.Interface

	requests *queue.Ring[*types.OrderRequest]
	orders   map[string]*types.Order
	trades   []*types.Trade

	escrowID  string
	fundingID string
}

// NewMarket wires the per-market engines around an already created market
// record whose escrow accounts exist.
func NewMarket(
	log *logging.Logger,
	config Config,
	mkt *types.Market,
	gate *markets.Engine,
	col *collateral.Engine,
	prods *products.Engine,
	bkr broker.Interface,
	fundingID string,
) *Market {
	return &Market{
		log:        log,
		mkt:        mkt,
		matching:   matching.New(log, config.Matching, mkt.ID, mkt.OutcomeCount()),
		position:   positions.New(log, config.Positions, mkt.ID, mkt.OutcomeCount()),
		settle:     settlement.New(log, config.Settlement, mkt.ID),
		voiding:    voiding.New(log, config.Voiding, mkt.ID),
		gate:       gate,
		collateral: col,
		products:   prods,
		broker:     bkr,
		requests:   queue.New[*types.OrderRequest](config.RequestQueueCapacity),
		orders:     map[string]*types.Order{},
		escrowID:   mkt.EscrowAccount,
		fundingID:  fundingID,
	}
}

// Market returns the underlying market record.
func (m *Market) Market() *types.Market {
	return m.mkt
}

// GetOrder returns a live order record, satisfying the matching engine's
// order store.
func (m *Market) GetOrder(id string) (*types.Order, bool) {
	o, ok := m.orders[id]
	return o, ok
}

// Orders returns every order of the market sorted by id.
func (m *Market) Orders() []*types.Order {
	ids := maps.Keys(m.orders)
	sort.Strings(ids)
	out := make([]*types.Order, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.orders[id])
	}
	return out
}

// Trades returns the applied trades in creation order.
func (m *Market) Trades() []*types.Trade {
	return m.trades
}

// Position returns a copy of a purchaser's position.
func (m *Market) Position(purchaser string) (*positions.MarketPosition, bool) {
	return m.position.Get(purchaser)
}

// Purchasers returns every purchaser holding a position.
func (m *Market) Purchasers() []string {
	return m.position.Purchasers()
}

// provisional is the worst-case escrow taken at intake, before the position
// ledger can net it against what the purchaser already covers.
func provisional(side types.Side, stake uint64, price num.Decimal) (uint64, error) {
	if side == types.SideAgainst {
		return num.Risk(stake, price)
	}
	return stake, nil
}

// SubmitOrderRequest validates an order request, escrows the worst-case
// payment and appends the request to the intake queue. No matching happens
// inline, the queue is cranked by ProcessNextRequest.
func (m *Market) SubmitOrderRequest(
	ctx context.Context,
	purchaser string,
	outcome uint16,
	side types.Side,
	price num.Decimal,
	stake num.Decimal,
	product string,
	now time.Time,
) (string, error) {
	if m.mkt.Suspended {
		return "", types.ErrMarketSuspended
	}
	if !m.mkt.AcceptingOrders() {
		return "", types.ErrMarketInvalidStatus
	}
	if outcome >= m.mkt.OutcomeCount() {
		return "", types.ErrInvalidOutcomeIndex
	}
	if !m.mkt.Outcomes[outcome].HasPrice(price) {
		return "", types.ErrInvalidPrice
	}
	if product != "" {
		if _, err := m.products.Get(product); err != nil {
			return "", err
		}
	}

	scaled, err := num.ScaleToUint(stake, m.mkt.DecimalLimit)
	if err != nil {
		return "", err
	}
	if scaled == 0 {
		return "", types.ErrInvalidStake
	}

	payment, err := provisional(side, scaled, price)
	if err != nil {
		return "", err
	}
	general := m.collateral.CreateGeneralAccount(purchaser, m.mkt.SettlementToken)
	if err := m.collateral.Transfer(general, m.escrowID, payment); err != nil {
		return "", err
	}

	req := &types.OrderRequest{
		Reference:    uuid.NewString(),
		Purchaser:    purchaser,
		MarketID:     m.mkt.ID,
		OutcomeIndex: outcome,
		Side:         side,
		Price:        price,
		Stake:        scaled,
		Product:      product,
		CreatedAt:    now,
	}
	if m.mkt.Inplay {
		req.DelayUntil = now.Add(m.mkt.InplayDelay)
	}
	if err := m.requests.PushBack(req); err != nil {
		// hand the escrow straight back, the request was never stored
		if terr := m.collateral.Transfer(m.escrowID, general, payment); terr != nil {
			m.log.Panic("failed to refund rejected order request",
				logging.MarketID(m.mkt.ID),
				logging.PurchaserID(purchaser),
				logging.Error(terr),
			)
		}
		return "", err
	}
	metrics.RequestQueueDepth(m.mkt.ID, m.requests.Len())
	return req.Reference, nil
}

// ProcessNextRequest pops the front intake entry. If the market has become
// invalid for the entry, or its inplay delay has not elapsed, the escrowed
// stake is refunded and no order is created. Otherwise the order is placed at
// the tail of its matching pool and matches are planned.
func (m *Market) ProcessNextRequest(ctx context.Context, now time.Time) (*types.Order, error) {
	req, err := m.requests.PopFront()
	if err != nil {
		return nil, err
	}
	metrics.RequestQueueDepth(m.mkt.ID, m.requests.Len())

	amount, err := provisional(req.Side, req.Stake, req.Price)
	if err != nil {
		return nil, err
	}
	general := m.collateral.CreateGeneralAccount(req.Purchaser, m.mkt.SettlementToken)

	if !m.mkt.AcceptingOrders() || now.Before(req.DelayUntil) {
		if err := m.collateral.Transfer(m.escrowID, general, amount); err != nil {
			return nil, err
		}
		if m.log.IsDebug() {
			m.log.Debug("order request refunded",
				logging.MarketID(m.mkt.ID),
				logging.PurchaserID(req.Purchaser),
				logging.Uint64("refund", amount),
			)
		}
		return nil, nil
	}

	o := &types.Order{
		ID:             idgeneration.OrderID(m.mkt.ID, req.Purchaser, req.Reference),
		Reference:      req.Reference,
		Purchaser:      req.Purchaser,
		MarketID:       m.mkt.ID,
		OutcomeIndex:   req.OutcomeIndex,
		Side:           req.Side,
		Price:          req.Price,
		RequestedStake: req.Stake,
		UnmatchedStake: req.Stake,
		Status:         types.OrderStatusOpen,
		Product:        req.Product,
		CreatedAt:      req.CreatedAt,
	}

	_, created := m.position.GetOrCreate(o.Purchaser)
	payment, err := m.position.RegisterOrder(o)
	if err != nil {
		return nil, err
	}
	o.Payment = payment

	// exposure the purchaser already covered comes straight back
	if amount > payment {
		if err := m.collateral.Transfer(m.escrowID, general, amount-payment); err != nil {
			return nil, err
		}
	}

	m.orders[o.ID] = o
	m.gate.IncUnsettled(m.mkt, 1)
	if created {
		m.gate.IncUnsettled(m.mkt, 1)
	}

	if _, err := m.matching.SubmitOrder(o); err != nil {
		return nil, err
	}
	metrics.OrderCounterInc(m.mkt.ID)
	metrics.MatchingQueueDepth(m.mkt.ID, m.matching.QueueLen())

	m.broker.Send(events.NewOrderEvent(ctx, *o))
	m.sendPositionEvent(ctx, o.Purchaser, payment, 0)
	return o, nil
}

// CancelOrder releases an order's unmatched stake and refunds whatever escrow
// becomes redundant. The matching engine rejects the cancel when the pool's
// remaining liquidity would no longer cover its queued reservations.
func (m *Market) CancelOrder(ctx context.Context, orderID string) (uint64, error) {
	o, ok := m.orders[orderID]
	if !ok {
		return 0, types.ErrOrderNotFound
	}
	if err := m.matching.CancelOrder(o); err != nil {
		return 0, err
	}
	refund, err := m.position.UnregisterStake(o.Purchaser, o.Side, o.OutcomeIndex, o.UnmatchedStake, o.Price)
	if err != nil {
		return 0, err
	}
	o.UnmatchedStake = 0
	o.Status = types.OrderStatusCancelled

	if refund > 0 {
		general := m.collateral.CreateGeneralAccount(o.Purchaser, m.mkt.SettlementToken)
		if err := m.collateral.Transfer(m.escrowID, general, refund); err != nil {
			return 0, err
		}
	}

	m.broker.Send(events.NewOrderEvent(ctx, *o))
	m.sendPositionEvent(ctx, o.Purchaser, 0, refund)
	return refund, nil
}

// MatchOrders is the externally-driven pairwise matching variant: the caller
// names the two head orders, the engine re-validates and plans the match.
func (m *Market) MatchOrders(forOrderID, againstOrderID string) error {
	forOrder, ok := m.orders[forOrderID]
	if !ok {
		return types.ErrOrderNotFound
	}
	againstOrder, ok := m.orders[againstOrderID]
	if !ok {
		return types.ErrOrderNotFound
	}
	if err := m.matching.MatchOrders(forOrder, againstOrder); err != nil {
		return err
	}
	metrics.MatchingQueueDepth(m.mkt.ID, m.matching.QueueLen())
	return nil
}

// ProcessNextMatch applies the front matching-queue entry, creating the trade
// pair, updating both positions and moving whatever escrow the exposure
// deltas demand.
func (m *Market) ProcessNextMatch(ctx context.Context, now time.Time) (*matching.MatchResult, error) {
	res, err := m.matching.ProcessNextMatch(m)
	if err != nil {
		return nil, err
	}
	metrics.MatchingQueueDepth(m.mkt.ID, m.matching.QueueLen())

	takerTrade, err := m.applyMatchLeg(ctx, res.Taker, res.Maker, res.TakerOutcome, res.TakerStake, res.TakerPrice, now)
	if err != nil {
		return nil, err
	}
	makerTrade, err := m.applyMatchLeg(ctx, res.Maker, res.Taker, res.MakerOutcome, res.MakerStake, res.MakerPrice, now)
	if err != nil {
		return nil, err
	}
	takerTrade.OppositeTradeID = makerTrade.ID
	makerTrade.OppositeTradeID = takerTrade.ID
	metrics.TradeCounterAdd(m.mkt.ID, 2)

	m.broker.SendBatch([]events.Event{
		events.NewTradeEvent(ctx, *takerTrade),
		events.NewTradeEvent(ctx, *makerTrade),
	})
	return res, nil
}

func (m *Market) applyMatchLeg(ctx context.Context, o, against *types.Order, outcome uint16, stake uint64, price num.Decimal, now time.Time) (*types.Trade, error) {
	rate := num.DecimalZero()
	if o.Product != "" {
		p, err := m.products.Get(o.Product)
		if err != nil {
			return nil, err
		}
		rate = p.RateAt(now)
	}

	refund, payment, err := m.position.ApplyMatch(o.Purchaser, o.Side, outcome, stake, price, o.Product, rate)
	if err != nil {
		return nil, err
	}
	general := m.collateral.CreateGeneralAccount(o.Purchaser, m.mkt.SettlementToken)
	if refund > 0 {
		if err := m.collateral.Transfer(m.escrowID, general, refund); err != nil {
			return nil, err
		}
	}
	if payment > 0 {
		if err := m.collateral.Transfer(general, m.escrowID, payment); err != nil {
			return nil, err
		}
	}

	trade := &types.Trade{
		ID:           idgeneration.TradeID(o.ID, against.ID, stake),
		OrderID:      o.ID,
		MarketID:     m.mkt.ID,
		OutcomeIndex: outcome,
		Side:         o.Side,
		Stake:        stake,
		Price:        price,
		Purchaser:    o.Purchaser,
		Payer:        against.Purchaser,
		Product:      o.Product,
		Rate:         rate,
		CreatedAt:    now,
	}
	m.trades = append(m.trades, trade)

	m.sendPositionEvent(ctx, o.Purchaser, payment, refund)
	return trade, nil
}

// UpdateCrossLiquidity refreshes the derived against-liquidity entry implied
// by the given source for-pools.
func (m *Market) UpdateCrossLiquidity(sources []matching.LiquiditySource) (*matching.CrossLiquidity, error) {
	return m.matching.UpdateCrossLiquidity(sources)
}

// CrossLiquidity returns the stored entry for (outcome, price).
func (m *Market) CrossLiquidity(outcome uint16, price num.Decimal) (*matching.CrossLiquidity, bool) {
	return m.matching.CrossLiquidity(outcome, price)
}

// Lock transitions the market to Locked and applies its lock order behaviour
// to every resting order. Queued-but-unapplied matches still count as
// unmatched stake at this point, so their reservations are dropped before the
// cancel sweep runs; cancelling around a live reservation would refund stake
// the queued match still claims.
func (m *Market) Lock(ctx context.Context) error {
	if err := m.gate.Lock(m.mkt); err != nil {
		return err
	}
	if m.mkt.LockOrderBehaviour == types.OrderBehaviourCancelUnmatched {
		if !m.matching.QueueEmpty() {
			m.matching.DropQueue()
			metrics.MatchingQueueDepth(m.mkt.ID, m.matching.QueueLen())
		}
		return m.cancelResting(ctx)
	}
	return nil
}

// MoveToInplay flips the market inplay, logically zeroing pre-event matched
// volume on every pool.
func (m *Market) MoveToInplay(ctx context.Context, now time.Time) error {
	if err := m.gate.MoveToInplay(m.mkt, now); err != nil {
		return err
	}
	m.matching.ZeroPoolsForInplay()
	m.broker.Send(events.NewMarketEvent(ctx, *m.mkt))
	return nil
}

func (m *Market) cancelResting(ctx context.Context) error {
	ids := []string{}
	for _, p := range m.matching.Pools() {
		ids = append(ids, p.Orders()...)
	}
	for _, id := range ids {
		o := m.orders[id]
		if err := m.matching.ReleaseOrder(o); err != nil {
			return err
		}
		refund, err := m.position.UnregisterStake(o.Purchaser, o.Side, o.OutcomeIndex, o.UnmatchedStake, o.Price)
		if err != nil {
			return err
		}
		o.UnmatchedStake = 0
		o.Status = types.OrderStatusCancelled
		if refund > 0 {
			general := m.collateral.CreateGeneralAccount(o.Purchaser, m.mkt.SettlementToken)
			if err := m.collateral.Transfer(m.escrowID, general, refund); err != nil {
				return err
			}
		}
		m.broker.Send(events.NewOrderEvent(ctx, *o))
	}
	return nil
}

// SettleMarket records the winning outcome. The matching queue must be fully
// drained first, a queued-but-unapplied match would otherwise settle wrong.
func (m *Market) SettleMarket(ctx context.Context, outcome uint16) error {
	if !m.matching.QueueEmpty() {
		return types.ErrSettlementMarketMatchingQueueNotEmpty
	}
	if err := m.gate.SetWinningOutcome(m.mkt, outcome); err != nil {
		return err
	}
	m.broker.Send(events.NewMarketEvent(ctx, *m.mkt))
	return nil
}

// SettleOrder releases an order's still-unmatched stake back to the purchaser
// and marks it Settled.
func (m *Market) SettleOrder(ctx context.Context, orderID string) error {
	if m.mkt.Status != types.MarketStatusReadyForSettlement {
		return types.ErrMarketInvalidStatus
	}
	o, ok := m.orders[orderID]
	if !ok {
		return types.ErrOrderNotFound
	}
	switch o.Status {
	case types.OrderStatusSettled, types.OrderStatusVoided:
		return types.ErrSettlementOrderNotSettleable
	}

	if o.UnmatchedStake > 0 {
		if err := m.matching.ReleaseOrder(o); err != nil {
			return err
		}
		refund, err := m.position.UnregisterStake(o.Purchaser, o.Side, o.OutcomeIndex, o.UnmatchedStake, o.Price)
		if err != nil {
			return err
		}
		o.UnmatchedStake = 0
		if refund > 0 {
			general := m.collateral.CreateGeneralAccount(o.Purchaser, m.mkt.SettlementToken)
			if err := m.collateral.Transfer(m.escrowID, general, refund); err != nil {
				return err
			}
		}
		m.sendPositionEvent(ctx, o.Purchaser, 0, refund)
	}
	o.Status = types.OrderStatusSettled
	m.gate.DecUnsettled(m.mkt)
	m.broker.Send(events.NewOrderEvent(ctx, *o))
	return nil
}

// SettlePosition pays out a purchaser's matched book against the winning
// outcome, net of commission, and stages the commission payments.
func (m *Market) SettlePosition(ctx context.Context, purchaser string) error {
	if m.mkt.Status != types.MarketStatusReadyForSettlement {
		return types.ErrMarketInvalidStatus
	}
	pos, ok := m.position.Get(purchaser)
	if !ok {
		return types.ErrOrderNotFound
	}
	if pos.Settled() {
		return types.ErrSettlementOrderNotSettleable
	}

	payout, profit, regimes, err := m.position.Settle(purchaser, *m.mkt.WinningOutcome)
	if err != nil {
		return err
	}
	net, err := m.settle.SettlePosition(purchaser, payout, profit, regimes)
	if err != nil {
		return err
	}
	commission := payout - net

	general := m.collateral.CreateGeneralAccount(purchaser, m.mkt.SettlementToken)
	if net > 0 {
		if err := m.collateral.Transfer(m.escrowID, general, net); err != nil {
			return err
		}
	}
	if commission > 0 {
		if err := m.collateral.Transfer(m.escrowID, m.fundingID, commission); err != nil {
			return err
		}
	}

	m.gate.DecUnsettled(m.mkt)
	metrics.SettledPositionsInc(m.mkt.ID)
	m.broker.Send(events.NewSettlementEvent(ctx, m.mkt.ID, purchaser, net, commission, false))
	return nil
}

// CompleteMarketSettlement drains the commission payment queue into the
// product and protocol escrows and advances the market to Settled.
func (m *Market) CompleteMarketSettlement(ctx context.Context) error {
	if m.mkt.Status != types.MarketStatusReadyForSettlement {
		return types.ErrMarketInvalidStatus
	}
	for !m.settle.QueueEmpty() {
		p, err := m.settle.NextPayment()
		if err != nil {
			return err
		}
		dest, err := m.commissionEscrow(p.ProductID)
		if err != nil {
			return err
		}
		if err := m.collateral.Transfer(m.fundingID, dest, p.Amount); err != nil {
			return err
		}
	}
	if err := m.settle.CompleteMarketSettlement(m.mkt.UnsettledAccountsCount); err != nil {
		return err
	}
	if err := m.gate.CompleteSettlement(m.mkt); err != nil {
		return err
	}
	m.broker.Send(events.NewMarketEvent(ctx, *m.mkt))
	return nil
}

func (m *Market) commissionEscrow(productID string) (string, error) {
	if productID == "" {
		return m.collateral.GetOrCreateProtocolEscrow(m.mkt.SettlementToken), nil
	}
	p, err := m.products.Get(productID)
	if err != nil {
		return "", err
	}
	if _, err := m.collateral.GetAccount(p.EscrowID); err != nil {
		if _, cerr := m.collateral.CreateProductEscrowAccount(p.ID, m.mkt.SettlementToken); cerr != nil {
			return "", cerr
		}
	}
	return p.EscrowID, nil
}

// VoidMarket moves the market onto the full-refund path. A non-empty matching
// queue blocks it unless forced, a forced void drops the queued matches and
// their reservations.
func (m *Market) VoidMarket(ctx context.Context, force bool) error {
	if err := m.voiding.VoidMarket(m.mkt, m.matching.QueueLen(), force); err != nil {
		return err
	}
	if !m.matching.QueueEmpty() {
		m.matching.DropQueue()
	}
	m.broker.Send(events.NewMarketEvent(ctx, *m.mkt))
	return nil
}

// VoidOrder refunds an order's remaining unmatched stake on a voided market.
func (m *Market) VoidOrder(ctx context.Context, orderID string) error {
	if m.mkt.Status != types.MarketStatusReadyToVoid {
		return types.ErrMarketInvalidStatus
	}
	o, ok := m.orders[orderID]
	if !ok {
		return types.ErrOrderNotFound
	}
	if err := m.matching.ReleaseOrder(o); err != nil {
		return err
	}
	stake, err := m.voiding.VoidOrder(o)
	if err != nil {
		return err
	}
	refund, err := m.position.UnregisterStake(o.Purchaser, o.Side, o.OutcomeIndex, stake, o.Price)
	if err != nil {
		return err
	}
	if refund > 0 {
		general := m.collateral.CreateGeneralAccount(o.Purchaser, m.mkt.SettlementToken)
		if err := m.collateral.Transfer(m.escrowID, general, refund); err != nil {
			return err
		}
	}
	m.gate.DecUnsettled(m.mkt)
	m.broker.Send(events.NewOrderEvent(ctx, *o))
	m.sendPositionEvent(ctx, o.Purchaser, 0, refund)
	return nil
}

// VoidPosition refunds everything still escrowed against a position.
func (m *Market) VoidPosition(ctx context.Context, purchaser string) error {
	if m.mkt.Status != types.MarketStatusReadyToVoid {
		return types.ErrMarketInvalidStatus
	}
	pos, ok := m.position.Get(purchaser)
	if !ok {
		return types.ErrOrderNotFound
	}
	if pos.Settled() {
		return types.ErrVoidOrderNotVoidable
	}
	refund, err := m.position.Void(purchaser)
	if err != nil {
		return err
	}
	if refund > 0 {
		general := m.collateral.CreateGeneralAccount(purchaser, m.mkt.SettlementToken)
		if err := m.collateral.Transfer(m.escrowID, general, refund); err != nil {
			return err
		}
	}
	m.gate.DecUnsettled(m.mkt)
	m.broker.Send(events.NewSettlementEvent(ctx, m.mkt.ID, purchaser, refund, 0, true))
	return nil
}

// CompleteMarketVoid advances the market to Voided once all accounts drained.
func (m *Market) CompleteMarketVoid(ctx context.Context) error {
	if err := m.gate.CompleteVoid(m.mkt); err != nil {
		return err
	}
	m.broker.Send(events.NewMarketEvent(ctx, *m.mkt))
	return nil
}

// ForceUnsettledCount applies the administrative counter correction exposed
// for forced voids with stuck in-flight matches.
func (m *Market) ForceUnsettledCount(count uint32) error {
	return m.voiding.ForceUnsettledCount(m.mkt, count)
}

// TransferEscrowSurplus moves any leftover escrow balance to the given
// recipient's general account and returns the amount moved. A terminal market
// cannot become ReadyToClose while a surplus remains.
func (m *Market) TransferEscrowSurplus(recipient string) (uint64, error) {
	switch m.mkt.Status {
	case types.MarketStatusSettled, types.MarketStatusVoided:
	default:
		return 0, types.ErrMarketInvalidStatus
	}
	balance, err := m.collateral.Balance(m.escrowID)
	if err != nil {
		return 0, err
	}
	if balance == 0 {
		return 0, nil
	}
	general := m.collateral.CreateGeneralAccount(recipient, m.mkt.SettlementToken)
	if err := m.collateral.Transfer(m.escrowID, general, balance); err != nil {
		return 0, err
	}
	return balance, nil
}

// SetReadyToClose gates the market into account reclamation.
func (m *Market) SetReadyToClose(ctx context.Context) error {
	balance, err := m.collateral.Balance(m.escrowID)
	if err != nil {
		return err
	}
	if err := m.gate.SetReadyToClose(m.mkt, balance); err != nil {
		return err
	}
	m.broker.Send(events.NewMarketEvent(ctx, *m.mkt))
	return nil
}

// CloseOrder reclaims a terminal order's account.
func (m *Market) CloseOrder(orderID string) error {
	if m.mkt.Status != types.MarketStatusReadyToClose {
		return types.ErrMarketInvalidStatus
	}
	if _, ok := m.orders[orderID]; !ok {
		return types.ErrOrderNotFound
	}
	delete(m.orders, orderID)
	m.gate.DecUnclosed(m.mkt)
	return nil
}

// ClosePosition reclaims a settled position's account.
func (m *Market) ClosePosition(purchaser string) error {
	if m.mkt.Status != types.MarketStatusReadyToClose {
		return types.ErrMarketInvalidStatus
	}
	if _, ok := m.position.Get(purchaser); !ok {
		return types.ErrOrderNotFound
	}
	m.position.Remove(purchaser)
	m.gate.DecUnclosed(m.mkt)
	return nil
}

// CloseMarket finishes the lifecycle and reclaims the market accounts.
func (m *Market) CloseMarket(ctx context.Context) error {
	if err := m.gate.CloseMarket(m.mkt); err != nil {
		return err
	}
	if err := m.collateral.RemoveAccount(m.escrowID); err != nil {
		return err
	}
	if err := m.collateral.RemoveAccount(m.fundingID); err != nil {
		return err
	}
	m.broker.Send(events.NewMarketEvent(ctx, *m.mkt))
	return nil
}

// RequestQueueLen returns the intake queue depth.
func (m *Market) RequestQueueLen() int {
	return m.requests.Len()
}

// MatchingQueueLen returns the matching queue depth.
func (m *Market) MatchingQueueLen() int {
	return m.matching.QueueLen()
}

// Pools exposes the matching pools for read-only inspection.
func (m *Market) Pools() []*matching.Pool {
	return m.matching.Pools()
}

func (m *Market) sendPositionEvent(ctx context.Context, purchaser string, payment, refund uint64) {
	pos, ok := m.position.Get(purchaser)
	if !ok {
		return
	}
	m.broker.Send(events.NewPositionEvent(ctx, m.mkt.ID, purchaser, payment, refund, pos.Paid()))
}
