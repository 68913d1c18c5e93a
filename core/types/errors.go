package types

import "errors"

// Validation errors, rejected before any state mutation.
var (
	ErrInvalidOutcomeIndex          = errors.New("outcome index out of range for market")
	ErrInvalidPrice                 = errors.New("price is not on the outcome price ladder")
	ErrInvalidStake                 = errors.New("stake must be greater than zero")
	ErrMarketLockTimeAfterEventTime = errors.New("market lock time must not be after event start time")
	ErrMarketInvalidDecimalLimit    = errors.New("market decimal limit exceeds settlement token decimals")
	ErrMarketOutcomesMissing        = errors.New("market requires at least two outcomes")
)

// Lifecycle state errors.
var (
	ErrMarketInvalidStatus                = errors.New("market status does not permit this operation")
	ErrMarketSuspended                    = errors.New("market is suspended")
	ErrMarketNotReadyToClose              = errors.New("market is not ready to close")
	ErrMarketUnclosedAccountsCountNonZero = errors.New("market unclosed accounts count is not zero")
	ErrMarketUnsettledAccountsNonZero     = errors.New("market unsettled accounts count is not zero")
	ErrMarketEscrowNonZero                = errors.New("market escrow surplus must be transferred before close")
	ErrMarketWinningOutcomeAlreadySet     = errors.New("market winning outcome has already been set")
	ErrMarketInplayNotEnabled             = errors.New("market does not have inplay enabled")
	ErrMarketNotYetInplay                 = errors.New("market event has not started")
)

// Matching errors. Head mismatches are staleness, the rest are account-binding
// failures and always fatal to the call.
var (
	ErrMatchingPoolHeadMismatch                = errors.New("matching pool head does not match the supplied order")
	ErrMatchingMarketMismatch                  = errors.New("orders do not belong to the same market")
	ErrMatchingOutcomeMismatch                 = errors.New("orders do not reference the same outcome")
	ErrMatchingOrdersForAndAgainstAreIdentical = errors.New("for and against orders are identical")
	ErrMatchingExpectedAForOrder               = errors.New("expected a for order")
	ErrMatchingExpectedAnAgainstOrder          = errors.New("expected an against order")
	ErrMatchingCrossLiquidityStale             = errors.New("cross liquidity is stale and must be refreshed")
)

// Cancellation errors.
var (
	ErrCancelationLowLiquidity   = errors.New("insufficient unmatched liquidity to release order stake")
	ErrCancelOrderNotCancellable = errors.New("order is not in a cancellable state")
)

// Settlement errors.
var (
	ErrSettlementMarketMatchingQueueNotEmpty = errors.New("matching queue must be drained before settlement")
	ErrSettlementInvalidMarketOutcomeIndex   = errors.New("winning outcome index out of range for market")
	ErrSettlementOrderNotSettleable          = errors.New("order is not in a settleable state")
	ErrSettlementPaymentQueueNotEmpty        = errors.New("commission payment queue must be drained")
)

// Void errors.
var (
	ErrVoidMarketMatchingQueueNotEmpty = errors.New("matching queue must be drained before voiding, use the forced variant to override")
	ErrVoidOrderNotVoidable            = errors.New("order is not in a voidable state")
)

// Account-binding errors.
var (
	ErrAccountMismatch = errors.New("supplied account does not match the derived address")
	ErrOrderNotFound   = errors.New("order not found")
	ErrMarketNotFound  = errors.New("market not found")
)

// IsStaleState reports whether an error means the caller's snapshot of queue
// head or liquidity no longer matches current state. These are the only
// errors worth retrying against fresh state, everything else is final.
func IsStaleState(err error) bool {
	return errors.Is(err, ErrMatchingPoolHeadMismatch) ||
		errors.Is(err, ErrMatchingCrossLiquidityStale) ||
		errors.Is(err, ErrCancelationLowLiquidity)
}
