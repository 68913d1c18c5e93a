package settlement

import (
	"code.openwager.io/openwager/core/positions"
	"code.openwager.io/openwager/core/queue"
	"code.openwager.io/openwager/core/types"
	"code.openwager.io/openwager/libs/num"
	"code.openwager.io/openwager/logging"
)

// CommissionPayment is one queued commission slice, owed to a product's
// escrow, or to the protocol escrow when ProductID is empty.
type CommissionPayment struct {
	ProductID string
	Purchaser string
	Amount    uint64
}

// Engine computes commission on realised profit for one market and stages the
// resulting payments on the commission payment queue. Balances do not move
// here, the caller drains the queue and performs the transfers, so a market
// cannot advance past settlement while payments are still owed.
type Engine struct {
	Config
	log *logging.Logger

	marketID string
	payments *queue.Ring[*CommissionPayment]
}

// New instantiates a new settlement engine.
func New(log *logging.Logger, config Config, marketID string) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	return &Engine{
		Config:   config,
		log:      log,
		marketID: marketID,
		payments: queue.New[*CommissionPayment](config.QueueCapacity),
	}
}

// ReloadConf updates the internal configuration of the settlement engine.
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

// SettlePosition takes the payout and commissionable profit produced by the
// position ledger and returns the net amount owed to the purchaser after
// commission. Profit is apportioned across the commission regimes pro-rata by
// trade count, each slice charged at its regime's rate and queued as a
// payment to that regime's product.
func (e *Engine) SettlePosition(purchaser string, payout, profit uint64, regimes []positions.CommissionRegime) (uint64, error) {
	if profit == 0 || len(regimes) == 0 {
		return payout, nil
	}

	var totalTrades uint64
	for _, r := range regimes {
		totalTrades += r.Trades
	}
	if totalTrades == 0 {
		return payout, nil
	}

	profitD := num.DecimalFromUint64(profit)
	totalD := num.DecimalFromUint64(totalTrades)

	var totalCommission, sliced uint64
	for i, r := range regimes {
		// last slice takes the rounding remainder so the slices sum to profit
		slice := profit - sliced
		if i < len(regimes)-1 {
			d := profitD.Mul(num.DecimalFromUint64(r.Trades)).Div(totalD).Floor()
			slice = uint64(d.IntPart())
		}
		sliced += slice

		commission := uint64(num.DecimalFromUint64(slice).Mul(r.Rate).Floor().IntPart())
		if commission == 0 {
			continue
		}
		total, err := num.AddU64(totalCommission, commission)
		if err != nil {
			return 0, err
		}
		totalCommission = total

		if err := e.payments.PushBack(&CommissionPayment{
			ProductID: r.Product,
			Purchaser: purchaser,
			Amount:    commission,
		}); err != nil {
			return 0, err
		}
	}

	if totalCommission > payout {
		e.log.Panic("commission exceeds settlement payout",
			logging.MarketID(e.marketID),
			logging.PurchaserID(purchaser),
			logging.Uint64("payout", payout),
			logging.Uint64("commission", totalCommission),
		)
	}

	if e.log.IsDebug() {
		e.log.Debug("position settled",
			logging.MarketID(e.marketID),
			logging.PurchaserID(purchaser),
			logging.Uint64("payout", payout),
			logging.Uint64("profit", profit),
			logging.Uint64("commission", totalCommission),
		)
	}
	return payout - totalCommission, nil
}

// NextPayment pops the front commission payment for the caller to transfer.
func (e *Engine) NextPayment() (*CommissionPayment, error) {
	p, err := e.payments.PopFront()
	if err != nil {
		return nil, err
	}
	return p, nil
}

// QueueEmpty reports whether all queued commission has been paid out.
func (e *Engine) QueueEmpty() bool {
	return e.payments.Empty()
}

// QueueLen returns the number of queued commission payments.
func (e *Engine) QueueLen() int {
	return e.payments.Len()
}

// CompleteMarketSettlement verifies the market can advance past settlement:
// every commission payment drained and no accounts left unsettled.
func (e *Engine) CompleteMarketSettlement(unsettledAccounts uint32) error {
	if !e.payments.Empty() {
		return types.ErrSettlementPaymentQueueNotEmpty
	}
	if unsettledAccounts != 0 {
		return types.ErrMarketUnsettledAccountsNonZero
	}
	return nil
}
