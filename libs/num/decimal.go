package num

import (
	"github.com/shopspring/decimal"
)

type Decimal = decimal.Decimal

var (
	dzero = decimal.Zero
	d1    = decimal.NewFromInt(1)
)

func MustDecimalFromString(f string) Decimal {
	d, err := DecimalFromString(f)
	if err != nil {
		panic(err)
	}
	return d
}

func DecimalZero() Decimal {
	return dzero
}

func DecimalOne() Decimal {
	return d1
}

func DecimalFromInt64(i int64) Decimal {
	return decimal.NewFromInt(i)
}

func DecimalFromUint64(u uint64) Decimal {
	return decimal.NewFromUint64(u)
}

func DecimalFromFloat(v float64) Decimal {
	return decimal.NewFromFloat(v)
}

func DecimalFromString(s string) (Decimal, error) {
	return decimal.NewFromString(s)
}

func MaxD(a, b Decimal) Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

func MinD(a, b Decimal) Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// ScaleToUint converts a client-presented decimal amount into the integer
// representation used by the ledger, scaled by the given number of decimals.
// The conversion must be lossless, a fractional remainder is a validation
// failure, not something to round away.
func ScaleToUint(d Decimal, decimals uint8) (uint64, error) {
	scaled := d.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return 0, ErrStakePrecisionTooHigh
	}
	if scaled.IsNegative() {
		return 0, ErrMathOperationFailed
	}
	if !scaled.LessThanOrEqual(decimal.NewFromUint64(maxU64)) {
		return 0, ErrMathOperationFailed
	}
	return scaled.BigInt().Uint64(), nil
}

// ScaleFromUint is the inverse of ScaleToUint, for presentation and event
// payloads only.
func ScaleFromUint(v uint64, decimals uint8) Decimal {
	return decimal.NewFromUint64(v).Shift(-int32(decimals))
}
