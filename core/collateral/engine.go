package collateral

import (
	"errors"
	"sort"

	"golang.org/x/exp/maps"

	"code.openwager.io/openwager/core/idgeneration"
	"code.openwager.io/openwager/libs/num"
	"code.openwager.io/openwager/logging"
)

var (
	ErrAccountAlreadyExists  = errors.New("account already exists")
	ErrAccountDoesNotExist   = errors.New("account does not exist")
	ErrInsufficientFunds     = errors.New("insufficient funds in source account")
	ErrAssetMismatch         = errors.New("source and destination assets differ")
	ErrAccountBalanceNonZero = errors.New("account balance is not zero")
	ErrInvalidTransferAmount = errors.New("transfer amount must be positive")
)

// Engine is the token ledger. Balances only move through Transfer, so the
// total supply of an asset is invariant across every matching, settlement and
// voiding sequence; Deposit and Withdraw are the only mint/burn points and
// model the external token programme.
type Engine struct {
	Config
	log *logging.Logger

	accounts map[string]*Account
}

// New instantiates a new collateral engine.
func New(log *logging.Logger, config Config) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	return &Engine{
		Config:   config,
		log:      log,
		accounts: map[string]*Account{},
	}
}

// ReloadConf updates the internal configuration of the collateral engine.
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

// CreateGeneralAccount opens (or returns) a purchaser's general account.
func (e *Engine) CreateGeneralAccount(owner, asset string) string {
	id := idgeneration.GeneralAccountID(owner, asset)
	if _, ok := e.accounts[id]; !ok {
		e.accounts[id] = &Account{ID: id, Owner: owner, Asset: asset, Type: AccountTypeGeneral}
	}
	return id
}

// CreateMarketAccounts opens the escrow and funding accounts for a market.
func (e *Engine) CreateMarketAccounts(marketID, asset string) (escrowID, fundingID string, err error) {
	escrowID = idgeneration.EscrowID(marketID)
	fundingID = idgeneration.FundingID(marketID)
	if _, ok := e.accounts[escrowID]; ok {
		return "", "", ErrAccountAlreadyExists
	}
	e.accounts[escrowID] = &Account{ID: escrowID, Owner: marketID, Asset: asset, Type: AccountTypeMarketEscrow}
	e.accounts[fundingID] = &Account{ID: fundingID, Owner: marketID, Asset: asset, Type: AccountTypeMarketFunding}
	return escrowID, fundingID, nil
}

// CreateProductEscrowAccount opens a commission product's escrow.
func (e *Engine) CreateProductEscrowAccount(productID, asset string) (string, error) {
	id := idgeneration.ProductEscrowID(productID)
	if _, ok := e.accounts[id]; ok {
		return "", ErrAccountAlreadyExists
	}
	e.accounts[id] = &Account{ID: id, Owner: productID, Asset: asset, Type: AccountTypeProductEscrow}
	return id, nil
}

// GetOrCreateProtocolEscrow returns the protocol commission escrow for an
// asset, creating it on first use.
func (e *Engine) GetOrCreateProtocolEscrow(asset string) string {
	id := idgeneration.ProtocolEscrowID(asset)
	if _, ok := e.accounts[id]; !ok {
		e.accounts[id] = &Account{ID: id, Owner: "protocol", Asset: asset, Type: AccountTypeProtocolEscrow}
	}
	return id
}

// Deposit credits an account from outside the ledger.
func (e *Engine) Deposit(id string, amount uint64) error {
	acc, ok := e.accounts[id]
	if !ok {
		return ErrAccountDoesNotExist
	}
	balance, err := num.AddU64(acc.Balance, amount)
	if err != nil {
		return err
	}
	acc.Balance = balance
	return nil
}

// Withdraw debits an account to outside the ledger.
func (e *Engine) Withdraw(id string, amount uint64) error {
	acc, ok := e.accounts[id]
	if !ok {
		return ErrAccountDoesNotExist
	}
	if acc.Balance < amount {
		return ErrInsufficientFunds
	}
	acc.Balance -= amount
	return nil
}

// Transfer moves an amount between two accounts of the same asset. A zero
// amount is rejected so callers cannot mask accounting bugs with no-ops.
func (e *Engine) Transfer(fromID, toID string, amount uint64) error {
	if amount == 0 {
		return ErrInvalidTransferAmount
	}
	from, ok := e.accounts[fromID]
	if !ok {
		return ErrAccountDoesNotExist
	}
	to, ok := e.accounts[toID]
	if !ok {
		return ErrAccountDoesNotExist
	}
	if from.Asset != to.Asset {
		return ErrAssetMismatch
	}
	if from.Balance < amount {
		e.log.Error("transfer with insufficient funds",
			logging.String("from", fromID),
			logging.String("to", toID),
			logging.Uint64("amount", amount),
			logging.Uint64("balance", from.Balance),
		)
		return ErrInsufficientFunds
	}
	balance, err := num.AddU64(to.Balance, amount)
	if err != nil {
		return err
	}
	from.Balance -= amount
	to.Balance = balance

	if e.log.IsDebug() {
		e.log.Debug("transfer",
			logging.String("from", fromID),
			logging.String("to", toID),
			logging.Uint64("amount", amount),
		)
	}
	return nil
}

// Balance returns the balance of an account.
func (e *Engine) Balance(id string) (uint64, error) {
	acc, ok := e.accounts[id]
	if !ok {
		return 0, ErrAccountDoesNotExist
	}
	return acc.Balance, nil
}

// GetAccount returns a copy of an account.
func (e *Engine) GetAccount(id string) (*Account, error) {
	acc, ok := e.accounts[id]
	if !ok {
		return nil, ErrAccountDoesNotExist
	}
	return acc.Clone(), nil
}

// RemoveAccount deletes an empty account, the close path reclaims it.
func (e *Engine) RemoveAccount(id string) error {
	acc, ok := e.accounts[id]
	if !ok {
		return ErrAccountDoesNotExist
	}
	if acc.Balance != 0 {
		return ErrAccountBalanceNonZero
	}
	delete(e.accounts, id)
	return nil
}

// TotalBalance sums every account balance of an asset, the conservation
// check used by tests and the close path.
func (e *Engine) TotalBalance(asset string) uint64 {
	var total uint64
	for _, acc := range e.accounts {
		if acc.Asset == asset {
			total += acc.Balance
		}
	}
	return total
}

// Accounts returns copies of every account, sorted by id.
func (e *Engine) Accounts() []*Account {
	ids := maps.Keys(e.accounts)
	sort.Strings(ids)
	out := make([]*Account, 0, len(ids))
	for _, id := range ids {
		out = append(out, e.accounts[id].Clone())
	}
	return out
}
