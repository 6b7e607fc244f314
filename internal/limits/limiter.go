// Package limits enforces stake caps on open predictions.
//
// Pari-mutuel pools are winner-take-share: one user accumulating most of an
// option's total can dominate the payout and, with a large pool cap, the
// escrow exposure. This package bounds both the per-user cumulative stake on
// a single prediction and the prediction's total pool size.
package limits

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrUserLimitExceeded is returned when a bet would push one user's
	// cumulative stake on a prediction beyond the per-user maximum.
	ErrUserLimitExceeded = errors.New("limits: per-user stake limit exceeded")

	// ErrPoolLimitExceeded is returned when a bet would push a prediction's
	// total pool beyond the per-prediction maximum.
	ErrPoolLimitExceeded = errors.New("limits: prediction pool limit exceeded")
)

// StakeLimiter enforces stake limits. A zero limit disables that check.
type StakeLimiter struct {
	// MaxPerUser is the maximum cumulative stake one user may hold across
	// all options of a single prediction.
	MaxPerUser decimal.Decimal

	// MaxPerPool is the maximum total staked pool of a single prediction.
	MaxPerPool decimal.Decimal
}

// NewStakeLimiter creates a limiter with the given per-user and per-pool
// maximums. Pass zero for either to leave it unbounded.
func NewStakeLimiter(maxPerUser, maxPerPool decimal.Decimal) *StakeLimiter {
	return &StakeLimiter{
		MaxPerUser: maxPerUser,
		MaxPerPool: maxPerPool,
	}
}

// CheckStake validates whether accepting a bet of amount respects the
// limits, given the user's current cumulative stake on the prediction and
// the prediction's current pool total. Returns nil if the bet is within
// limits, or an error describing the violation.
func (l *StakeLimiter) CheckStake(amount, userTotal, poolTotal decimal.Decimal) error {
	if l.MaxPerUser.IsPositive() && userTotal.Add(amount).GreaterThan(l.MaxPerUser) {
		return ErrUserLimitExceeded
	}
	if l.MaxPerPool.IsPositive() && poolTotal.Add(amount).GreaterThan(l.MaxPerPool) {
		return ErrPoolLimitExceeded
	}
	return nil
}
