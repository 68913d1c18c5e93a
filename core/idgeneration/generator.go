// Package idgeneration derives the deterministic account addresses described
// by the instruction surface. Callers recompute the same ids from the same
// seeds, a mismatch is an account-binding failure, never auto-corrected.
package idgeneration

import (
	"encoding/hex"
	"fmt"

	"code.openwager.io/openwager/core/types"
	"code.openwager.io/openwager/libs/crypto"
	"code.openwager.io/openwager/libs/num"
)

// Generator produces a deterministic stream of ids rooted at an initial id.
// No mutex required, markets process deterministically and sequentially.
type Generator struct {
	nextIDBytes []byte
}

// New returns a Generator rooted at the given hex id.
func New(rootID string) *Generator {
	nextIDBytes, err := hex.DecodeString(rootID)
	if err != nil {
		panic("failed to create deterministic id generator: " + err.Error())
	}
	return &Generator{nextIDBytes: nextIDBytes}
}

func (g *Generator) NextID() string {
	if g == nil {
		panic("id generator instance is not initialised")
	}
	nextID := hex.EncodeToString(g.nextIDBytes)
	g.nextIDBytes = crypto.Hash(g.nextIDBytes)
	return nextID
}

// MarketID derives the market account id from its identity seeds. Version is
// part of the seed so a recreated market gets a fresh address while staying
// linked by event+type+value+token lineage.
func MarketID(event, marketType, marketTypeValue, settlementToken string, version uint32) string {
	return derive("market", event, marketType, marketTypeValue, settlementToken, fmt.Sprintf("%d", version))
}

// EscrowID derives the market escrow token account id.
func EscrowID(marketID string) string {
	return derive("escrow", marketID)
}

// FundingID derives the market funding account id, the commission staging
// account drained by completeMarketSettlement.
func FundingID(marketID string) string {
	return derive("funding", marketID)
}

// PoolID derives a matching pool id from (market, outcome, price, side).
func PoolID(marketID string, outcome uint16, price num.Decimal, side types.Side) string {
	return derive("pool", marketID, fmt.Sprintf("%d", outcome), price.String(), side.String())
}

// PositionID derives a position account id from (market, purchaser).
func PositionID(marketID, purchaser string) string {
	return derive("position", marketID, purchaser)
}

// OrderID derives an order account id from the market and the submitting
// request's distinct reference.
func OrderID(marketID, purchaser, reference string) string {
	return derive("order", marketID, purchaser, reference)
}

// TradeID derives a trade account id from the order it belongs to and the
// opposing order consumed by the match.
func TradeID(orderID, againstOrderID string, stake uint64) string {
	return derive("trade", orderID, againstOrderID, fmt.Sprintf("%d", stake))
}

// GeneralAccountID derives a purchaser's general token account id.
func GeneralAccountID(owner, asset string) string {
	return derive("general", owner, asset)
}

// ProtocolEscrowID derives the protocol commission escrow id for an asset.
func ProtocolEscrowID(asset string) string {
	return derive("protocol-escrow", asset)
}

// ProductID derives a commission product account id from its title and the
// authority allowed to update it.
func ProductID(title, authority string) string {
	return derive("product", title, authority)
}

// ProductEscrowID derives the commission escrow account id for a product.
func ProductEscrowID(productID string) string {
	return derive("product-escrow", productID)
}

func derive(seeds ...string) string {
	buf := make([][]byte, 0, len(seeds)*2)
	for _, s := range seeds {
		buf = append(buf, []byte(s), []byte{0})
	}
	return hex.EncodeToString(crypto.HashBytesBuffer(buf...))
}
