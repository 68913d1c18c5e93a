package execution

import (
	"context"
	"sort"

	"golang.org/x/exp/maps"

	"code.openwager.io/openwager/broker"
	"code.openwager.io/openwager/core/collateral"
	"code.openwager.io/openwager/core/events"
	"code.openwager.io/openwager/core/markets"
	"code.openwager.io/openwager/core/products"
	"code.openwager.io/openwager/core/types"
	"code.openwager.io/openwager/logging"
)

// Engine is the top-level orchestrator: it owns the market lifecycle gate and
// the live markets, and shares the collateral ledger and product registry
// across them. Markets are independent, no cross-market locking exists.
type Engine struct {
	Config
	log *logging.Logger

	gate       *markets.Engine
	collateral *collateral.Engine
	products   *products.Engine
	broker     broker.Interface

	markets map[string]*Market
}

// New instantiates the execution engine.
func New(
	log *logging.Logger,
	config Config,
	gate *markets.Engine,
	col *collateral.Engine,
	prods *products.Engine,
	bkr broker.Interface,
) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	return &Engine{
		Config:     config,
		log:        log,
		gate:       gate,
		collateral: col,
		products:   prods,
		broker:     bkr,
		markets:    map[string]*Market{},
	}
}

// ReloadConf updates the configuration of the execution engine and the
// per-market engines under it.
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
	for _, m := range e.markets {
		m.matching.ReloadConf(cfg.Matching)
		m.position.ReloadConf(cfg.Positions)
		m.settle.ReloadConf(cfg.Settlement)
		m.voiding.ReloadConf(cfg.Voiding)
	}
}

// CreateMarket validates the definition, opens the market's escrow accounts
// and brings the market to Open, ready for intake.
func (e *Engine) CreateMarket(ctx context.Context, def markets.Definition) (*Market, error) {
	mkt, err := e.gate.CreateMarket(def)
	if err != nil {
		return nil, err
	}
	if _, ok := e.markets[mkt.ID]; ok {
		return nil, types.ErrMarketInvalidStatus
	}
	_, fundingID, err := e.collateral.CreateMarketAccounts(mkt.ID, mkt.SettlementToken)
	if err != nil {
		return nil, err
	}
	if err := e.gate.OpenMarket(mkt); err != nil {
		return nil, err
	}

	m := NewMarket(e.log, e.Config, mkt, e.gate, e.collateral, e.products, e.broker, fundingID)
	e.markets[mkt.ID] = m

	e.broker.Send(events.NewMarketEvent(ctx, *mkt))
	return m, nil
}

// GetMarket returns a live market by id.
func (e *Engine) GetMarket(id string) (*Market, error) {
	m, ok := e.markets[id]
	if !ok {
		return nil, types.ErrMarketNotFound
	}
	return m, nil
}

// MarketIDs returns the ids of all live markets, sorted.
func (e *Engine) MarketIDs() []string {
	ids := maps.Keys(e.markets)
	sort.Strings(ids)
	return ids
}

// RemoveMarket drops a closed market from the engine.
func (e *Engine) RemoveMarket(id string) error {
	m, ok := e.markets[id]
	if !ok {
		return types.ErrMarketNotFound
	}
	if m.mkt.Status != types.MarketStatusClosed {
		return types.ErrMarketInvalidStatus
	}
	delete(e.markets, id)
	return nil
}
