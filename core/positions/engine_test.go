package positions_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code.openwager.io/openwager/core/positions"
	"code.openwager.io/openwager/core/types"
	"code.openwager.io/openwager/libs/num"
	"code.openwager.io/openwager/logging"
)

const testMarket = "market-1"

func getTestEngine(t *testing.T, outcomes uint16) *positions.Engine {
	t.Helper()
	return positions.New(
		logging.NewTestLogger(),
		positions.NewDefaultConfig(),
		testMarket,
		outcomes,
	)
}

func forOrder(purchaser string, outcome uint16, stake uint64, price int64) *types.Order {
	return &types.Order{
		ID:             "order-" + purchaser,
		Purchaser:      purchaser,
		MarketID:       testMarket,
		OutcomeIndex:   outcome,
		Side:           types.SideFor,
		Price:          num.DecimalFromInt64(price),
		RequestedStake: stake,
		UnmatchedStake: stake,
		Status:         types.OrderStatusOpen,
	}
}

func againstOrder(purchaser string, outcome uint16, stake uint64, price int64) *types.Order {
	o := forOrder(purchaser, outcome, stake, price)
	o.Side = types.SideAgainst
	return o
}

func TestRegisterForOrderPaysFullStake(t *testing.T) {
	e := getTestEngine(t, 3)

	payment, err := e.RegisterOrder(forOrder("alice", 0, 10, 4))
	require.NoError(t, err)
	assert.EqualValues(t, 10, payment)

	pos, ok := e.Get("alice")
	require.True(t, ok)
	assert.EqualValues(t, 10, pos.Paid())
	assert.EqualValues(t, 0, pos.UnmatchedExposure(0))
	assert.EqualValues(t, 10, pos.UnmatchedExposure(1))
	assert.EqualValues(t, 10, pos.UnmatchedExposure(2))
}

func TestRegisterAgainstOrderPaysRisk(t *testing.T) {
	e := getTestEngine(t, 2)

	// risk = stake * (price - 1) = 5 * 3
	payment, err := e.RegisterOrder(againstOrder("bob", 0, 5, 4))
	require.NoError(t, err)
	assert.EqualValues(t, 15, payment)

	pos, ok := e.Get("bob")
	require.True(t, ok)
	assert.EqualValues(t, 15, pos.UnmatchedExposure(0))
	assert.EqualValues(t, 0, pos.UnmatchedExposure(1))
}

func TestOffsettingOrdersOnlyPayTheExposureDelta(t *testing.T) {
	e := getTestEngine(t, 2)

	payment, err := e.RegisterOrder(forOrder("carol", 0, 10, 4))
	require.NoError(t, err)
	assert.EqualValues(t, 10, payment)

	// against on the same outcome raises worst-case exposure from 10 to 15
	payment, err = e.RegisterOrder(againstOrder("carol", 0, 5, 4))
	require.NoError(t, err)
	assert.EqualValues(t, 5, payment)

	pos, _ := e.Get("carol")
	assert.EqualValues(t, 15, pos.Paid())
}

func TestUnregisterRefundsDependOnReleaseOrder(t *testing.T) {
	price := num.DecimalFromInt64(4)

	// releasing the for order first leaves the against exposure intact
	e := getTestEngine(t, 2)
	_, err := e.RegisterOrder(forOrder("dave", 0, 10, 4))
	require.NoError(t, err)
	_, err = e.RegisterOrder(againstOrder("dave", 0, 5, 4))
	require.NoError(t, err)

	refund, err := e.UnregisterStake("dave", types.SideFor, 0, 10, price)
	require.NoError(t, err)
	assert.EqualValues(t, 0, refund)
	refund, err = e.UnregisterStake("dave", types.SideAgainst, 0, 5, price)
	require.NoError(t, err)
	assert.EqualValues(t, 15, refund)

	// reversed release order shifts the split but not the total
	e = getTestEngine(t, 2)
	_, err = e.RegisterOrder(forOrder("dave", 0, 10, 4))
	require.NoError(t, err)
	_, err = e.RegisterOrder(againstOrder("dave", 0, 5, 4))
	require.NoError(t, err)

	refund, err = e.UnregisterStake("dave", types.SideAgainst, 0, 5, price)
	require.NoError(t, err)
	assert.EqualValues(t, 5, refund)
	refund, err = e.UnregisterStake("dave", types.SideFor, 0, 10, price)
	require.NoError(t, err)
	assert.EqualValues(t, 10, refund)

	pos, _ := e.Get("dave")
	assert.EqualValues(t, 0, pos.Paid())
}

func TestPartialAgainstReleaseStrandsDustWithoutUnderflow(t *testing.T) {
	e := getTestEngine(t, 2)
	price := num.DecimalFromFloat(3.5)

	o := againstOrder("jack", 0, 3, 4)
	o.Price = price
	// risk = trunc(3 * 3.5) - 3 = 7
	payment, err := e.RegisterOrder(o)
	require.NoError(t, err)
	assert.EqualValues(t, 7, payment)

	// each unit released recomputes trunc(1 * 3.5) - 1 = 2, so three partial
	// releases refund 6 of the 7 and strand one unit of dust
	for i := 0; i < 3; i++ {
		refund, err := e.UnregisterStake("jack", types.SideAgainst, 0, 1, price)
		require.NoError(t, err)
		assert.EqualValues(t, 2, refund)
	}

	pos, _ := e.Get("jack")
	assert.EqualValues(t, 1, pos.UnmatchedExposure(0))
	assert.EqualValues(t, 1, pos.Paid())

	// the dust stays refundable, nothing underflowed
	refund, err := e.Void("jack")
	require.NoError(t, err)
	assert.EqualValues(t, 1, refund)
}

func TestMatchAndSettleConservesEscrow(t *testing.T) {
	e := getTestEngine(t, 2)
	price := num.DecimalFromInt64(4)
	rate := num.DecimalFromFloat(0.05)

	// alice backs outcome 0 with 10, bob lays 5 against it
	pIn1, err := e.RegisterOrder(forOrder("alice", 0, 10, 4))
	require.NoError(t, err)
	pIn2, err := e.RegisterOrder(againstOrder("bob", 0, 5, 4))
	require.NoError(t, err)
	assert.EqualValues(t, 10, pIn1)
	assert.EqualValues(t, 15, pIn2)

	// 5 of alice's stake matches all of bob's
	refund, payment, err := e.ApplyMatch("alice", types.SideFor, 0, 5, price, "betting", rate)
	require.NoError(t, err)
	assert.Zero(t, refund)
	assert.Zero(t, payment)

	refund, payment, err = e.ApplyMatch("bob", types.SideAgainst, 0, 5, price, "betting", rate)
	require.NoError(t, err)
	assert.Zero(t, refund)
	assert.Zero(t, payment)

	// outcome 0 wins: alice's matched 5 pays risk 15, bob loses his lay
	payout, profit, regimes, err := e.Settle("alice", 0)
	require.NoError(t, err)
	assert.EqualValues(t, 20, payout)
	assert.EqualValues(t, 15, profit)
	require.Len(t, regimes, 1)
	assert.EqualValues(t, 1, regimes[0].Trades)
	assert.Equal(t, "betting", regimes[0].Product)

	payout, profit, _, err = e.Settle("bob", 0)
	require.NoError(t, err)
	assert.Zero(t, payout)
	assert.Zero(t, profit)

	// alice's unmatched 5 is still escrowed until the order is released
	refund, err = e.UnregisterStake("alice", types.SideFor, 0, 5, price)
	require.NoError(t, err)
	assert.EqualValues(t, 5, refund)

	// everything paid in came back out: 10 + 15 == 20 + 0 + 5
	aPos, _ := e.Get("alice")
	bPos, _ := e.Get("bob")
	assert.Zero(t, aPos.Paid())
	assert.Zero(t, bPos.Paid())
}

func TestSettleLosingSideKeepsUnmatchedEscrow(t *testing.T) {
	e := getTestEngine(t, 2)
	price := num.DecimalFromInt64(4)
	rate := num.DecimalFromFloat(0.05)

	_, err := e.RegisterOrder(forOrder("erin", 0, 10, 4))
	require.NoError(t, err)
	_, _, err = e.ApplyMatch("erin", types.SideFor, 0, 5, price, "betting", rate)
	require.NoError(t, err)

	// outcome 1 wins, erin's matched 5 is lost but 5 unmatched stays covered
	payout, profit, _, err := e.Settle("erin", 1)
	require.NoError(t, err)
	assert.Zero(t, payout)
	assert.Zero(t, profit)

	pos, _ := e.Get("erin")
	assert.True(t, pos.Settled())
	assert.EqualValues(t, 5, pos.Paid())
}

func TestSettleTwiceIsIdempotent(t *testing.T) {
	e := getTestEngine(t, 2)
	rate := num.DecimalFromFloat(0.05)

	_, err := e.RegisterOrder(forOrder("frank", 0, 10, 4))
	require.NoError(t, err)
	_, _, err = e.ApplyMatch("frank", types.SideFor, 0, 10, num.DecimalFromInt64(4), "betting", rate)
	require.NoError(t, err)

	payout, _, _, err := e.Settle("frank", 0)
	require.NoError(t, err)
	assert.EqualValues(t, 40, payout)

	payout, profit, regimes, err := e.Settle("frank", 0)
	require.NoError(t, err)
	assert.Zero(t, payout)
	assert.Zero(t, profit)
	assert.Nil(t, regimes)
}

func TestSettleRejectsInvalidOutcome(t *testing.T) {
	e := getTestEngine(t, 2)
	_, err := e.RegisterOrder(forOrder("gina", 0, 10, 4))
	require.NoError(t, err)

	_, _, _, err = e.Settle("gina", 2)
	assert.ErrorIs(t, err, types.ErrSettlementInvalidMarketOutcomeIndex)
}

func TestVoidRefundsEverything(t *testing.T) {
	e := getTestEngine(t, 2)
	rate := num.DecimalFromFloat(0.05)

	_, err := e.RegisterOrder(forOrder("hank", 0, 10, 4))
	require.NoError(t, err)
	_, _, err = e.ApplyMatch("hank", types.SideFor, 0, 5, num.DecimalFromInt64(4), "betting", rate)
	require.NoError(t, err)

	refund, err := e.Void("hank")
	require.NoError(t, err)
	assert.EqualValues(t, 10, refund)

	pos, _ := e.Get("hank")
	assert.Zero(t, pos.Paid())
	assert.True(t, pos.Settled())
}

func TestCommissionRegimesSplitByRate(t *testing.T) {
	e := getTestEngine(t, 2)
	price := num.DecimalFromInt64(2)

	_, err := e.RegisterOrder(forOrder("iris", 0, 30, 2))
	require.NoError(t, err)

	_, _, err = e.ApplyMatch("iris", types.SideFor, 0, 10, price, "betting", num.DecimalFromFloat(0.05))
	require.NoError(t, err)
	_, _, err = e.ApplyMatch("iris", types.SideFor, 0, 10, price, "betting", num.DecimalFromFloat(0.05))
	require.NoError(t, err)
	_, _, err = e.ApplyMatch("iris", types.SideFor, 0, 10, price, "betting", num.DecimalFromFloat(0.1))
	require.NoError(t, err)

	pos, _ := e.Get("iris")
	regimes := pos.Regimes()
	require.Len(t, regimes, 2)
	assert.EqualValues(t, 2, regimes[0].Trades)
	assert.True(t, regimes[0].Rate.Equal(num.DecimalFromFloat(0.05)))
	assert.EqualValues(t, 1, regimes[1].Trades)
	assert.True(t, regimes[1].Rate.Equal(num.DecimalFromFloat(0.1)))
}

func TestUnknownPurchaser(t *testing.T) {
	e := getTestEngine(t, 2)

	_, err := e.UnregisterStake("nobody", types.SideFor, 0, 1, num.DecimalFromInt64(2))
	assert.ErrorIs(t, err, types.ErrOrderNotFound)
	_, _, _, err = e.Settle("nobody", 0)
	assert.ErrorIs(t, err, types.ErrOrderNotFound)
	_, err = e.Void("nobody")
	assert.ErrorIs(t, err, types.ErrOrderNotFound)
}

func TestPurchasersSorted(t *testing.T) {
	e := getTestEngine(t, 2)
	for _, p := range []string{"zoe", "adam", "mike"} {
		_, created := e.GetOrCreate(p)
		assert.True(t, created)
	}
	assert.Equal(t, []string{"adam", "mike", "zoe"}, e.Purchasers())
}
