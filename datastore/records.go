package datastore

import (
	"encoding/binary"

	"code.openwager.io/openwager/core/idgeneration"
	"code.openwager.io/openwager/core/types"
)

// Record type discriminators.
var (
	OrderDiscriminator    = Discriminator("order")
	PositionDiscriminator = Discriminator("position")
	MarketDiscriminator   = Discriminator("market")
)

// Identity fields are padded to a fixed width so offset filters line up
// across records of the same type.
const idFieldLen = 64

// Byte offsets shared by all record layouts. Every record places the owning
// market directly behind the discriminator, owner-scoped records place the
// owner behind that.
const (
	OffsetMarket = DiscriminatorLen
	OffsetOwner  = OffsetMarket + idFieldLen
)

func fixedID(s string) []byte {
	b := make([]byte, idFieldLen)
	copy(b, s)
	return b
}

// MarketFilter restricts a List to records owned by one market.
func MarketFilter(marketID string) Filter {
	return Filter{Offset: OffsetMarket, Value: fixedID(marketID)}
}

// OwnerFilter restricts a List to records owned by one purchaser.
func OwnerFilter(owner string) Filter {
	return Filter{Offset: OffsetOwner, Value: fixedID(owner)}
}

// EncodeOrder lays out an order record:
// disc | market | purchaser | order id | side | status | unmatched | matched.
func EncodeOrder(o types.Order) (string, []byte) {
	data := make([]byte, 0, DiscriminatorLen+3*idFieldLen+2+16)
	data = append(data, OrderDiscriminator[:]...)
	data = append(data, fixedID(o.MarketID)...)
	data = append(data, fixedID(o.Purchaser)...)
	data = append(data, fixedID(o.ID)...)
	data = append(data, byte(o.Side), byte(o.Status))
	data = binary.BigEndian.AppendUint64(data, o.UnmatchedStake)
	data = binary.BigEndian.AppendUint64(data, o.MatchedStake)
	return o.ID, data
}

// OffsetPositionAccount locates the derived position account address in a
// position record.
const OffsetPositionAccount = OffsetOwner + idFieldLen + 8

// EncodePosition lays out a position record:
// disc | market | purchaser | paid | position account address.
func EncodePosition(marketID, purchaser string, paid uint64) (string, []byte) {
	data := make([]byte, 0, DiscriminatorLen+3*idFieldLen+8)
	data = append(data, PositionDiscriminator[:]...)
	data = append(data, fixedID(marketID)...)
	data = append(data, fixedID(purchaser)...)
	data = binary.BigEndian.AppendUint64(data, paid)
	data = append(data, fixedID(idgeneration.PositionID(marketID, purchaser))...)
	return marketID + "/" + purchaser, data
}

// EncodeMarket lays out a market record: disc | market | status.
func EncodeMarket(m types.Market) (string, []byte) {
	data := make([]byte, 0, DiscriminatorLen+idFieldLen+1)
	data = append(data, MarketDiscriminator[:]...)
	data = append(data, fixedID(m.ID)...)
	data = append(data, byte(m.Status))
	return m.ID, data
}
