package markets

import (
	"time"

	"code.openwager.io/openwager/core/idgeneration"
	"code.openwager.io/openwager/core/types"
	"code.openwager.io/openwager/libs/num"
	"code.openwager.io/openwager/logging"
)

// Definition carries everything needed to create a market.
type Definition struct {
	Event           string
	MarketType      string
	MarketTypeValue string
	SettlementToken string
	TokenDecimals   uint8
	DecimalLimit    uint8
	Version         uint32

	Title          string
	LockTime       time.Time
	EventStartTime time.Time

	InplayEnabled      bool
	InplayDelay        time.Duration
	LockOrderBehaviour types.OrderBehaviour

	Outcomes []OutcomeDefinition
}

// OutcomeDefinition is one outcome and its initial price ladder.
type OutcomeDefinition struct {
	Title  string
	Prices []num.Decimal
}

// Engine is the lifecycle gate. Every status transition and counter move goes
// through here so an operation against the wrong state fails with a specific
// error instead of silently no-op-ing.
type Engine struct {
	Config
	log *logging.Logger
}

// New instantiates a new markets engine.
func New(log *logging.Logger, config Config) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	return &Engine{
		Config: config,
		log:    log,
	}
}

// ReloadConf updates the internal configuration of the markets engine.
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

// CreateMarket validates a definition and returns the market record in
// Initializing with its deterministic id and escrow account id derived.
func (e *Engine) CreateMarket(def Definition) (*types.Market, error) {
	if def.LockTime.After(def.EventStartTime) {
		return nil, types.ErrMarketLockTimeAfterEventTime
	}
	if def.DecimalLimit > def.TokenDecimals {
		return nil, types.ErrMarketInvalidDecimalLimit
	}
	if len(def.Outcomes) < 2 {
		return nil, types.ErrMarketOutcomesMissing
	}

	id := idgeneration.MarketID(def.Event, def.MarketType, def.MarketTypeValue, def.SettlementToken, def.Version)
	m := &types.Market{
		ID:                 id,
		Event:              def.Event,
		MarketType:         def.MarketType,
		MarketTypeValue:    def.MarketTypeValue,
		SettlementToken:    def.SettlementToken,
		Version:            def.Version,
		TokenDecimals:      def.TokenDecimals,
		DecimalLimit:       def.DecimalLimit,
		Title:              def.Title,
		LockTime:           def.LockTime,
		EventStartTime:     def.EventStartTime,
		Status:             types.MarketStatusInitializing,
		InplayEnabled:      def.InplayEnabled,
		InplayDelay:        def.InplayDelay,
		LockOrderBehaviour: def.LockOrderBehaviour,
		EscrowAccount:      idgeneration.EscrowID(id),
	}
	for i, od := range def.Outcomes {
		ladder := types.NewPriceLadder(id, len(od.Prices))
		if err := ladder.Add(od.Prices...); err != nil {
			return nil, err
		}
		m.Outcomes = append(m.Outcomes, &types.Outcome{
			MarketID: id,
			Index:    uint16(i),
			Title:    od.Title,
			Prices:   ladder.Prices(),
		})
	}

	e.log.Info("market created",
		logging.MarketID(m.ID),
		logging.String("event", m.Event),
		logging.String("title", m.Title),
		logging.Uint32("version", m.Version),
	)
	return m, nil
}

// OpenMarket moves a market out of Initializing once its accounts exist.
func (e *Engine) OpenMarket(m *types.Market) error {
	if m.Status != types.MarketStatusInitializing {
		return types.ErrMarketInvalidStatus
	}
	m.Status = types.MarketStatusOpen
	return nil
}

// Publish flips the discoverability flag on an active market.
func (e *Engine) Publish(m *types.Market, published bool) error {
	switch m.Status {
	case types.MarketStatusInitializing, types.MarketStatusOpen, types.MarketStatusLocked:
		m.Published = published
		return nil
	default:
		return types.ErrMarketInvalidStatus
	}
}

// Suspend halts intake without touching resting state.
func (e *Engine) Suspend(m *types.Market, suspended bool) error {
	switch m.Status {
	case types.MarketStatusOpen, types.MarketStatusLocked:
		m.Suspended = suspended
		return nil
	default:
		return types.ErrMarketInvalidStatus
	}
}

// Lock transitions Open to Locked, either by the lock time passing or an
// explicit administrative action. The caller applies the market's lock order
// behaviour to resting orders.
func (e *Engine) Lock(m *types.Market) error {
	if m.Status != types.MarketStatusOpen {
		return types.ErrMarketInvalidStatus
	}
	m.Status = types.MarketStatusLocked
	e.log.Info("market locked", logging.MarketID(m.ID))
	return nil
}

// MoveToInplay flips the inplay flag once the event has started. The caller
// zeroes the matched volume of the pre-event pools.
func (e *Engine) MoveToInplay(m *types.Market, now time.Time) error {
	if m.Status != types.MarketStatusLocked {
		return types.ErrMarketInvalidStatus
	}
	if !m.InplayEnabled {
		return types.ErrMarketInplayNotEnabled
	}
	if now.Before(m.EventStartTime) {
		return types.ErrMarketNotYetInplay
	}
	if m.Inplay {
		return types.ErrMarketInvalidStatus
	}
	m.Inplay = true
	e.log.Info("market moved to inplay", logging.MarketID(m.ID))
	return nil
}

// UpdateTimes adjusts the lock and event start times before the market locks.
func (e *Engine) UpdateTimes(m *types.Market, lockTime, eventStartTime time.Time) error {
	switch m.Status {
	case types.MarketStatusInitializing, types.MarketStatusOpen:
	default:
		return types.ErrMarketInvalidStatus
	}
	if lockTime.After(eventStartTime) {
		return types.ErrMarketLockTimeAfterEventTime
	}
	m.LockTime = lockTime
	m.EventStartTime = eventStartTime
	return nil
}

// SetWinningOutcome records the resolved outcome exactly once and moves the
// market to ReadyForSettlement.
func (e *Engine) SetWinningOutcome(m *types.Market, outcome uint16) error {
	switch m.Status {
	// Open is accepted alongside Locked: an event can resolve before the
	// lock crank fires, and settlement must not wait on it
	case types.MarketStatusOpen, types.MarketStatusLocked:
	default:
		return types.ErrMarketInvalidStatus
	}
	if m.WinningOutcome != nil {
		return types.ErrMarketWinningOutcomeAlreadySet
	}
	if outcome >= m.OutcomeCount() {
		return types.ErrSettlementInvalidMarketOutcomeIndex
	}
	w := outcome
	m.WinningOutcome = &w
	m.Status = types.MarketStatusReadyForSettlement
	e.log.Info("winning outcome set",
		logging.MarketID(m.ID),
		logging.Uint16("outcome", outcome),
	)
	return nil
}

// CompleteSettlement moves ReadyForSettlement to Settled once every position
// settled and all commission was paid out.
func (e *Engine) CompleteSettlement(m *types.Market) error {
	if m.Status != types.MarketStatusReadyForSettlement {
		return types.ErrMarketInvalidStatus
	}
	if m.UnsettledAccountsCount != 0 {
		return types.ErrMarketUnsettledAccountsNonZero
	}
	m.Status = types.MarketStatusSettled
	return nil
}

// CompleteVoid moves ReadyToVoid to Voided once every account was voided.
func (e *Engine) CompleteVoid(m *types.Market) error {
	if m.Status != types.MarketStatusReadyToVoid {
		return types.ErrMarketInvalidStatus
	}
	if m.UnsettledAccountsCount != 0 {
		return types.ErrMarketUnsettledAccountsNonZero
	}
	m.Status = types.MarketStatusVoided
	return nil
}

// SetReadyToClose gates the transition into account reclamation: the market
// must be terminal and its escrow drained, any surplus has to be explicitly
// transferred out first.
func (e *Engine) SetReadyToClose(m *types.Market, escrowBalance uint64) error {
	switch m.Status {
	case types.MarketStatusSettled, types.MarketStatusVoided:
	default:
		return types.ErrMarketNotReadyToClose
	}
	if escrowBalance != 0 {
		return types.ErrMarketEscrowNonZero
	}
	m.Status = types.MarketStatusReadyToClose
	return nil
}

// CloseMarket finishes the lifecycle once every subsidiary account is closed.
func (e *Engine) CloseMarket(m *types.Market) error {
	if m.Status != types.MarketStatusReadyToClose {
		return types.ErrMarketNotReadyToClose
	}
	if m.UnclosedAccountsCount != 0 {
		return types.ErrMarketUnclosedAccountsCountNonZero
	}
	m.Status = types.MarketStatusClosed
	e.log.Info("market closed", logging.MarketID(m.ID))
	return nil
}

// IncUnsettled bumps the settlement semaphore as accounts are opened.
func (e *Engine) IncUnsettled(m *types.Market, n uint32) {
	m.UnsettledAccountsCount += n
	m.UnclosedAccountsCount += n
}

// DecUnsettled drains the settlement semaphore. Going below zero is an
// accounting invariant breach.
func (e *Engine) DecUnsettled(m *types.Market) {
	if m.UnsettledAccountsCount == 0 {
		e.log.Panic("unsettled accounts count underflow", logging.MarketID(m.ID))
	}
	m.UnsettledAccountsCount--
}

// DecUnclosed drains the close semaphore as subsidiary accounts are removed.
func (e *Engine) DecUnclosed(m *types.Market) {
	if m.UnclosedAccountsCount == 0 {
		e.log.Panic("unclosed accounts count underflow", logging.MarketID(m.ID))
	}
	m.UnclosedAccountsCount--
}
