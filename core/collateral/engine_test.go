package collateral_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code.openwager.io/openwager/core/collateral"
	"code.openwager.io/openwager/logging"
)

const testAsset = "token-1"

func getTestEngine(t *testing.T) *collateral.Engine {
	t.Helper()
	return collateral.New(logging.NewTestLogger(), collateral.NewDefaultConfig())
}

func TestCreateAccounts(t *testing.T) {
	e := getTestEngine(t)

	general := e.CreateGeneralAccount("alice", testAsset)
	assert.NotEmpty(t, general)
	// idempotent
	assert.Equal(t, general, e.CreateGeneralAccount("alice", testAsset))

	escrow, funding, err := e.CreateMarketAccounts("market-1", testAsset)
	require.NoError(t, err)
	assert.NotEqual(t, escrow, funding)

	_, _, err = e.CreateMarketAccounts("market-1", testAsset)
	assert.ErrorIs(t, err, collateral.ErrAccountAlreadyExists)

	acc, err := e.GetAccount(escrow)
	require.NoError(t, err)
	assert.Equal(t, collateral.AccountTypeMarketEscrow, acc.Type)
	assert.Equal(t, "market-1", acc.Owner)
}

func TestTransferMovesBalance(t *testing.T) {
	e := getTestEngine(t)

	alice := e.CreateGeneralAccount("alice", testAsset)
	escrow, _, err := e.CreateMarketAccounts("market-1", testAsset)
	require.NoError(t, err)
	require.NoError(t, e.Deposit(alice, 100))

	require.NoError(t, e.Transfer(alice, escrow, 40))

	aBal, _ := e.Balance(alice)
	eBal, _ := e.Balance(escrow)
	assert.EqualValues(t, 60, aBal)
	assert.EqualValues(t, 40, eBal)
	assert.EqualValues(t, 100, e.TotalBalance(testAsset))
}

func TestTransferRejections(t *testing.T) {
	e := getTestEngine(t)

	alice := e.CreateGeneralAccount("alice", testAsset)
	bob := e.CreateGeneralAccount("bob", "token-2")
	require.NoError(t, e.Deposit(alice, 10))

	assert.ErrorIs(t, e.Transfer(alice, bob, 5), collateral.ErrAssetMismatch)
	assert.ErrorIs(t, e.Transfer(alice, "missing", 5), collateral.ErrAccountDoesNotExist)
	assert.ErrorIs(t, e.Transfer(alice, alice, 0), collateral.ErrInvalidTransferAmount)

	carol := e.CreateGeneralAccount("carol", testAsset)
	assert.ErrorIs(t, e.Transfer(alice, carol, 11), collateral.ErrInsufficientFunds)
}

func TestWithdraw(t *testing.T) {
	e := getTestEngine(t)
	alice := e.CreateGeneralAccount("alice", testAsset)
	require.NoError(t, e.Deposit(alice, 10))

	require.NoError(t, e.Withdraw(alice, 4))
	bal, _ := e.Balance(alice)
	assert.EqualValues(t, 6, bal)

	assert.ErrorIs(t, e.Withdraw(alice, 7), collateral.ErrInsufficientFunds)
}

func TestRemoveAccount(t *testing.T) {
	e := getTestEngine(t)
	alice := e.CreateGeneralAccount("alice", testAsset)
	require.NoError(t, e.Deposit(alice, 10))

	assert.ErrorIs(t, e.RemoveAccount(alice), collateral.ErrAccountBalanceNonZero)
	require.NoError(t, e.Withdraw(alice, 10))
	require.NoError(t, e.RemoveAccount(alice))

	_, err := e.Balance(alice)
	assert.ErrorIs(t, err, collateral.ErrAccountDoesNotExist)
}
