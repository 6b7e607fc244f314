// Package settle implements the pari-mutuel payout arithmetic.
//
// The winning side splits the net pool (total staked minus the protocol fee)
// in proportion to each winner's stake:
//
//	netPool = pool * (RatioBase - feeRatio) / RatioBase
//	share   = stake[win] * netPool / totals[win]
//
// Multiplication always precedes division, and every division floors, so the
// sum of all shares never exceeds the net pool: rounding loss stays in the
// pool rather than being minted. All values use shopspring/decimal — never
// float64 for money. It is stateless — prediction totals are passed as
// arguments, not stored.
package settle

import (
	"errors"

	"github.com/shopspring/decimal"
)

// RatioBase is the fixed denominator for fee ratios. A feeRatio of
// 100_000_000 is a 10% protocol fee.
const RatioBase = 1_000_000_000

// ErrInvalidFeeRatio is returned when a fee ratio is negative, fractional,
// or exceeds RatioBase.
var ErrInvalidFeeRatio = errors.New("settle: fee ratio must be an integer in [0, RatioBase]")

var ratioBase = decimal.NewFromInt(RatioBase)

// ValidateFeeRatio checks that feeRatio is a whole number in [0, RatioBase].
func ValidateFeeRatio(feeRatio decimal.Decimal) error {
	if feeRatio.IsNegative() || feeRatio.GreaterThan(ratioBase) || !feeRatio.Equal(feeRatio.Truncate(0)) {
		return ErrInvalidFeeRatio
	}
	return nil
}

// Pool sums the per-option totals into the full staked pool.
func Pool(totals []decimal.Decimal) decimal.Decimal {
	pool := decimal.Zero
	for _, t := range totals {
		pool = pool.Add(t)
	}
	return pool
}

// NetPool returns the pool net of the protocol fee:
//
//	pool * (RatioBase - feeRatio) / RatioBase
//
// floored to whole value units.
func NetPool(pool, feeRatio decimal.Decimal) decimal.Decimal {
	return floorDiv(pool.Mul(ratioBase.Sub(feeRatio)), ratioBase)
}

// Share returns a winner's payout:
//
//	stake * netPool / winnerTotal
//
// floored to whole value units. A zero winnerTotal means nobody staked the
// winning option; the entire net pool is unclaimable and the share is zero —
// never a division fault.
func Share(stake, netPool, winnerTotal decimal.Decimal) decimal.Decimal {
	if winnerTotal.IsZero() || stake.IsZero() {
		return decimal.Zero
	}
	return floorDiv(stake.Mul(netPool), winnerTotal)
}

// floorDiv divides a by b and truncates to an integer. Both operands are
// non-negative everywhere in this package, so truncation equals floor.
func floorDiv(a, b decimal.Decimal) decimal.Decimal {
	q, _ := a.QuoRem(b, 0)
	return q
}
