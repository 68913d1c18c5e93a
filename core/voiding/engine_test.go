package voiding_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code.openwager.io/openwager/core/types"
	"code.openwager.io/openwager/core/voiding"
	"code.openwager.io/openwager/logging"
)

func getTestEngine(t *testing.T) *voiding.Engine {
	t.Helper()
	return voiding.New(logging.NewTestLogger(), voiding.NewDefaultConfig(), "market-1")
}

func openMarket() *types.Market {
	return &types.Market{ID: "market-1", Status: types.MarketStatusOpen}
}

func TestVoidMarket(t *testing.T) {
	e := getTestEngine(t)
	m := openMarket()

	require.NoError(t, e.VoidMarket(m, 0, false))
	assert.Equal(t, types.MarketStatusReadyToVoid, m.Status)
	assert.False(t, e.Forced())

	// already voided
	assert.ErrorIs(t, e.VoidMarket(m, 0, false), types.ErrMarketInvalidStatus)
}

func TestVoidMarketBlockedByMatchingQueue(t *testing.T) {
	e := getTestEngine(t)
	m := openMarket()

	err := e.VoidMarket(m, 2, false)
	assert.ErrorIs(t, err, types.ErrVoidMarketMatchingQueueNotEmpty)
	assert.Equal(t, types.MarketStatusOpen, m.Status)
}

func TestForcedVoidProceedsAndMarksEngine(t *testing.T) {
	e := getTestEngine(t)
	m := openMarket()

	require.NoError(t, e.VoidMarket(m, 2, true))
	assert.Equal(t, types.MarketStatusReadyToVoid, m.Status)
	assert.True(t, e.Forced())
}

func TestVoidOrderReleasesUnmatchedStake(t *testing.T) {
	e := getTestEngine(t)
	o := &types.Order{
		ID:             "order-1",
		RequestedStake: 10,
		UnmatchedStake: 4,
		MatchedStake:   6,
		Status:         types.OrderStatusOpen,
	}

	stake, err := e.VoidOrder(o)
	require.NoError(t, err)
	assert.EqualValues(t, 4, stake)
	assert.EqualValues(t, 0, o.UnmatchedStake)
	assert.EqualValues(t, 4, o.VoidedStake)
	assert.Equal(t, types.OrderStatusVoided, o.Status)

	_, err = e.VoidOrder(o)
	assert.ErrorIs(t, err, types.ErrVoidOrderNotVoidable)
}

func TestForceUnsettledCount(t *testing.T) {
	e := getTestEngine(t)
	m := openMarket()
	m.UnsettledAccountsCount = 3

	// only valid on a forced void in ReadyToVoid
	assert.ErrorIs(t, e.ForceUnsettledCount(m, 2), types.ErrMarketInvalidStatus)

	require.NoError(t, e.VoidMarket(m, 1, true))
	require.NoError(t, e.ForceUnsettledCount(m, 2))
	assert.EqualValues(t, 2, m.UnsettledAccountsCount)
	assert.True(t, e.CountsCorrected())
}

func TestForceUnsettledCountRejectedOnCleanVoid(t *testing.T) {
	e := getTestEngine(t)
	m := openMarket()

	require.NoError(t, e.VoidMarket(m, 0, false))
	assert.ErrorIs(t, e.ForceUnsettledCount(m, 0), types.ErrMarketInvalidStatus)
}
