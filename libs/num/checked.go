package num

import (
	"errors"
	"math"
)

const maxU64 = math.MaxUint64

var (
	// ErrMathOperationFailed signals an overflow or underflow in stake or
	// commission arithmetic. It is always an invariant breach for the caller.
	ErrMathOperationFailed = errors.New("math operation has failed")
	// ErrStakePrecisionTooHigh is returned when a client-presented decimal
	// cannot be represented losslessly at the market's decimal limit.
	ErrStakePrecisionTooHigh = errors.New("stake precision exceeds market decimal limit")
)

// AddU64 returns a+b, or ErrMathOperationFailed on overflow.
func AddU64(a, b uint64) (uint64, error) {
	if a > maxU64-b {
		return 0, ErrMathOperationFailed
	}
	return a + b, nil
}

// SubU64 returns a-b, or ErrMathOperationFailed on underflow.
func SubU64(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrMathOperationFailed
	}
	return a - b, nil
}

// MulU64 returns a*b, or ErrMathOperationFailed on overflow.
func MulU64(a, b uint64) (uint64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if a > maxU64/b {
		return 0, ErrMathOperationFailed
	}
	return a * b, nil
}

// AddI64 returns a+b with overflow checking.
func AddI64(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, ErrMathOperationFailed
	}
	return a + b, nil
}

// SubI64 returns a-b with overflow checking.
func SubI64(a, b int64) (int64, error) {
	if b == math.MinInt64 {
		if a >= 0 {
			return 0, ErrMathOperationFailed
		}
		return a - b, nil
	}
	return AddI64(a, -b)
}

// MinU64 returns the smaller of two uint64s.
func MinU64(a, b uint64) uint64 {
	if b < a {
		return b
	}
	return a
}

// MaxU64 returns the larger of two uint64s.
func MaxU64(a, b uint64) uint64 {
	if b > a {
		return b
	}
	return a
}

// Payout returns the total return of a winning for-stake at the given decimal
// price, truncated toward zero. All derived amounts (risk, profit) are
// computed from the truncated payout so the books always balance.
func Payout(stake uint64, price Decimal) (uint64, error) {
	p := DecimalFromUint64(stake).Mul(price).Truncate(0)
	if p.IsNegative() || !p.LessThanOrEqual(DecimalFromUint64(maxU64)) {
		return 0, ErrMathOperationFailed
	}
	return p.BigInt().Uint64(), nil
}

// Risk returns the liability taken on by the against side of a stake matched
// at the given price: payout minus the stake itself.
func Risk(stake uint64, price Decimal) (uint64, error) {
	p, err := Payout(stake, price)
	if err != nil {
		return 0, err
	}
	return SubU64(p, stake)
}
