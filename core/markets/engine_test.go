package markets_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code.openwager.io/openwager/core/markets"
	"code.openwager.io/openwager/core/types"
	"code.openwager.io/openwager/libs/num"
	"code.openwager.io/openwager/logging"
)

func getTestEngine(t *testing.T) *markets.Engine {
	t.Helper()
	return markets.New(logging.NewTestLogger(), markets.NewDefaultConfig())
}

func testDefinition() markets.Definition {
	lock := time.Date(2026, 6, 1, 14, 0, 0, 0, time.UTC)
	return markets.Definition{
		Event:           "event-1",
		MarketType:      "winner",
		SettlementToken: "token-1",
		TokenDecimals:   6,
		DecimalLimit:    3,
		Title:           "Full time result",
		LockTime:        lock,
		EventStartTime:  lock.Add(time.Minute),
		InplayEnabled:   true,
		InplayDelay:     5 * time.Second,
		Outcomes: []markets.OutcomeDefinition{
			{Title: "home", Prices: []num.Decimal{num.DecimalFromInt64(2), num.DecimalFromInt64(4)}},
			{Title: "away", Prices: []num.Decimal{num.DecimalFromInt64(3)}},
		},
	}
}

func TestCreateMarket(t *testing.T) {
	e := getTestEngine(t)

	m, err := e.CreateMarket(testDefinition())
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)
	assert.NotEmpty(t, m.EscrowAccount)
	assert.Equal(t, types.MarketStatusInitializing, m.Status)
	require.Len(t, m.Outcomes, 2)
	assert.EqualValues(t, 0, m.Outcomes[0].Index)
	assert.Len(t, m.Outcomes[0].Prices, 2)

	// same identity seeds with a bumped version derive a fresh id
	def := testDefinition()
	def.Version = 1
	m2, err := e.CreateMarket(def)
	require.NoError(t, err)
	assert.NotEqual(t, m.ID, m2.ID)
}

func TestCreateMarketValidation(t *testing.T) {
	e := getTestEngine(t)

	def := testDefinition()
	def.LockTime = def.EventStartTime.Add(time.Second)
	_, err := e.CreateMarket(def)
	assert.ErrorIs(t, err, types.ErrMarketLockTimeAfterEventTime)

	def = testDefinition()
	def.DecimalLimit = 7
	_, err = e.CreateMarket(def)
	assert.ErrorIs(t, err, types.ErrMarketInvalidDecimalLimit)

	def = testDefinition()
	def.Outcomes = def.Outcomes[:1]
	_, err = e.CreateMarket(def)
	assert.ErrorIs(t, err, types.ErrMarketOutcomesMissing)

	def = testDefinition()
	def.Outcomes[0].Prices = []num.Decimal{num.DecimalOne()}
	_, err = e.CreateMarket(def)
	assert.ErrorIs(t, err, types.ErrPriceLadderInvalidPrice)
}

func TestLifecycleHappyPath(t *testing.T) {
	e := getTestEngine(t)
	m, err := e.CreateMarket(testDefinition())
	require.NoError(t, err)

	require.NoError(t, e.OpenMarket(m))
	require.NoError(t, e.Publish(m, true))
	require.NoError(t, e.Lock(m))
	require.NoError(t, e.MoveToInplay(m, m.EventStartTime))
	require.NoError(t, e.SetWinningOutcome(m, 1))
	assert.Equal(t, types.MarketStatusReadyForSettlement, m.Status)
	require.NoError(t, e.CompleteSettlement(m))
	require.NoError(t, e.SetReadyToClose(m, 0))
	require.NoError(t, e.CloseMarket(m))
	assert.Equal(t, types.MarketStatusClosed, m.Status)
}

func TestWinningOutcomeSetOnce(t *testing.T) {
	e := getTestEngine(t)
	m, _ := e.CreateMarket(testDefinition())
	require.NoError(t, e.OpenMarket(m))

	assert.ErrorIs(t, e.SetWinningOutcome(m, 5), types.ErrSettlementInvalidMarketOutcomeIndex)
	require.NoError(t, e.SetWinningOutcome(m, 0))

	// market is no longer in a settable status and the outcome is immutable
	assert.ErrorIs(t, e.SetWinningOutcome(m, 1), types.ErrMarketInvalidStatus)
	require.NotNil(t, m.WinningOutcome)
	assert.EqualValues(t, 0, *m.WinningOutcome)
}

func TestInplayGates(t *testing.T) {
	e := getTestEngine(t)

	def := testDefinition()
	def.InplayEnabled = false
	m, _ := e.CreateMarket(def)
	require.NoError(t, e.OpenMarket(m))
	require.NoError(t, e.Lock(m))
	assert.ErrorIs(t, e.MoveToInplay(m, m.EventStartTime), types.ErrMarketInplayNotEnabled)

	m2, _ := e.CreateMarket(testDefinition())
	require.NoError(t, e.OpenMarket(m2))
	require.NoError(t, e.Lock(m2))
	assert.ErrorIs(t, e.MoveToInplay(m2, m2.EventStartTime.Add(-time.Second)), types.ErrMarketNotYetInplay)
	require.NoError(t, e.MoveToInplay(m2, m2.EventStartTime))
	assert.ErrorIs(t, e.MoveToInplay(m2, m2.EventStartTime), types.ErrMarketInvalidStatus)
}

func TestCloseGates(t *testing.T) {
	e := getTestEngine(t)
	m, _ := e.CreateMarket(testDefinition())
	require.NoError(t, e.OpenMarket(m))
	require.NoError(t, e.SetWinningOutcome(m, 0))

	e.IncUnsettled(m, 2)
	assert.ErrorIs(t, e.CompleteSettlement(m), types.ErrMarketUnsettledAccountsNonZero)
	e.DecUnsettled(m)
	e.DecUnsettled(m)
	require.NoError(t, e.CompleteSettlement(m))

	// escrow surplus blocks ready-to-close until explicitly transferred out
	assert.ErrorIs(t, e.SetReadyToClose(m, 7), types.ErrMarketEscrowNonZero)
	require.NoError(t, e.SetReadyToClose(m, 0))

	assert.ErrorIs(t, e.CloseMarket(m), types.ErrMarketUnclosedAccountsCountNonZero)
	e.DecUnclosed(m)
	e.DecUnclosed(m)
	require.NoError(t, e.CloseMarket(m))
}

func TestSuspendBlocksIntakeStatus(t *testing.T) {
	e := getTestEngine(t)
	m, _ := e.CreateMarket(testDefinition())
	require.NoError(t, e.OpenMarket(m))

	require.True(t, m.AcceptingOrders())
	require.NoError(t, e.Suspend(m, true))
	assert.False(t, m.AcceptingOrders())
	require.NoError(t, e.Suspend(m, false))
	assert.True(t, m.AcceptingOrders())
}

func TestUpdateTimes(t *testing.T) {
	e := getTestEngine(t)
	m, _ := e.CreateMarket(testDefinition())

	newLock := m.LockTime.Add(time.Hour)
	assert.ErrorIs(t, e.UpdateTimes(m, newLock, newLock.Add(-time.Minute)), types.ErrMarketLockTimeAfterEventTime)
	require.NoError(t, e.UpdateTimes(m, newLock, newLock.Add(time.Minute)))
	assert.Equal(t, newLock, m.LockTime)

	require.NoError(t, e.OpenMarket(m))
	require.NoError(t, e.Lock(m))
	assert.ErrorIs(t, e.UpdateTimes(m, newLock, newLock.Add(time.Minute)), types.ErrMarketInvalidStatus)
}
