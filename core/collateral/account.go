package collateral

// AccountType discriminates what an account's balance is held for.
type AccountType int8

const (
	AccountTypeUnspecified AccountType = iota
	// AccountTypeGeneral is a purchaser's spendable token balance.
	AccountTypeGeneral
	// AccountTypeMarketEscrow holds the liabilities of a market's open
	// positions and unmatched orders.
	AccountTypeMarketEscrow
	// AccountTypeMarketFunding stages commission during settlement until
	// the payment queue drains it to the product escrows.
	AccountTypeMarketFunding
	// AccountTypeProductEscrow accrues a commission product's earnings.
	AccountTypeProductEscrow
	// AccountTypeProtocolEscrow accrues commission with no product attached.
	AccountTypeProtocolEscrow
)

func (t AccountType) String() string {
	switch t {
	case AccountTypeGeneral:
		return "GENERAL"
	case AccountTypeMarketEscrow:
		return "MARKET_ESCROW"
	case AccountTypeMarketFunding:
		return "MARKET_FUNDING"
	case AccountTypeProductEscrow:
		return "PRODUCT_ESCROW"
	case AccountTypeProtocolEscrow:
		return "PROTOCOL_ESCROW"
	default:
		return "UNSPECIFIED"
	}
}

// Account is a single token balance. Owner is the purchaser for general
// accounts, the market id for escrow/funding accounts, and the product id for
// product escrows.
type Account struct {
	ID      string
	Owner   string
	Asset   string
	Type    AccountType
	Balance uint64
}

// Clone returns a copy safe to hand to callers.
func (a *Account) Clone() *Account {
	cpy := *a
	return &cpy
}
