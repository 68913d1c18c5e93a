package types

import (
	"fmt"
	"time"

	"code.openwager.io/openwager/libs/num"
)

// MarketStatus is the lifecycle state of a market. Transitions are gated by
// the markets engine, nothing mutates this field directly.
type MarketStatus int

const (
	MarketStatusInitializing MarketStatus = iota
	MarketStatusOpen
	MarketStatusLocked
	MarketStatusReadyForSettlement
	MarketStatusSettled
	MarketStatusReadyToVoid
	MarketStatusVoided
	MarketStatusReadyToClose
	MarketStatusClosed
)

func (s MarketStatus) String() string {
	switch s {
	case MarketStatusInitializing:
		return "initializing"
	case MarketStatusOpen:
		return "open"
	case MarketStatusLocked:
		return "locked"
	case MarketStatusReadyForSettlement:
		return "ready-for-settlement"
	case MarketStatusSettled:
		return "settled"
	case MarketStatusReadyToVoid:
		return "ready-to-void"
	case MarketStatusVoided:
		return "voided"
	case MarketStatusReadyToClose:
		return "ready-to-close"
	case MarketStatusClosed:
		return "closed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// OrderBehaviour describes what happens to unmatched orders when the market
// locks or goes inplay.
type OrderBehaviour int8

const (
	OrderBehaviourNone OrderBehaviour = iota
	OrderBehaviourCancelUnmatched
)

func (b OrderBehaviour) String() string {
	if b == OrderBehaviourCancelUnmatched {
		return "cancel-unmatched"
	}
	return "none"
}

// Market is the root ledger record for one wagering market. It is a passive
// record, all mutation goes through the engines.
type Market struct {
	ID string

	// identity seeds, lineage across recreations is event+type+value+token
	Event           string
	MarketType      string
	MarketTypeValue string
	SettlementToken string
	Version         uint32

	// settlement token decimals and the market's own precision ceiling for
	// client-presented stakes
	TokenDecimals uint8
	DecimalLimit  uint8

	Title          string
	LockTime       time.Time
	EventStartTime time.Time

	Status    MarketStatus
	Published bool
	Suspended bool

	Inplay             bool
	InplayEnabled      bool
	InplayDelay        time.Duration
	LockOrderBehaviour OrderBehaviour

	// set once, never reassigned
	WinningOutcome *uint16

	// distributed semaphores gating settlement completion and close
	UnsettledAccountsCount uint32
	UnclosedAccountsCount  uint32

	Outcomes []*Outcome

	// derived escrow account id, held by the collateral engine
	EscrowAccount string
}

// Outcome is one of the mutually-exclusive results the market settles on.
type Outcome struct {
	MarketID string
	Index    uint16
	Title    string
	Prices   []num.Decimal // sorted distinct price ladder
}

// HasPrice reports whether p is a valid price point for this outcome.
func (o *Outcome) HasPrice(p num.Decimal) bool {
	for _, lp := range o.Prices {
		if lp.Equal(p) {
			return true
		}
	}
	return false
}

// OutcomeCount is a convenience for bounds checks.
func (m *Market) OutcomeCount() uint16 {
	return uint16(len(m.Outcomes))
}

// AcceptingOrders reports whether new order requests may be enqueued. Locked
// markets still accept orders when their lock behaviour keeps unmatched stake
// alive for inplay trading.
func (m *Market) AcceptingOrders() bool {
	if m.Suspended {
		return false
	}
	switch m.Status {
	case MarketStatusOpen:
		return true
	case MarketStatusLocked:
		return m.InplayEnabled && m.LockOrderBehaviour == OrderBehaviourNone
	default:
		return false
	}
}
