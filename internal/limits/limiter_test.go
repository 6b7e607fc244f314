package limits

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

func TestCheckStake_WithinLimits(t *testing.T) {
	limiter := NewStakeLimiter(d(1000), d(5000))

	if err := limiter.CheckStake(d(100), d(0), d(0)); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestCheckStake_UserLimitExceeded(t *testing.T) {
	limiter := NewStakeLimiter(d(1000), d(5000))

	// Existing stake of 950 + new 100 = 1050 > 1000.
	err := limiter.CheckStake(d(100), d(950), d(2000))
	if err != ErrUserLimitExceeded {
		t.Errorf("expected ErrUserLimitExceeded, got %v", err)
	}
}

func TestCheckStake_AtUserLimit(t *testing.T) {
	limiter := NewStakeLimiter(d(1000), d(5000))

	// Exactly at the limit is allowed.
	if err := limiter.CheckStake(d(100), d(900), d(2000)); err != nil {
		t.Errorf("stake at the limit should succeed, got %v", err)
	}
}

func TestCheckStake_PoolLimitExceeded(t *testing.T) {
	limiter := NewStakeLimiter(d(1000), d(5000))

	// Pool 4950 + new 100 = 5050 > 5000.
	err := limiter.CheckStake(d(100), d(0), d(4950))
	if err != ErrPoolLimitExceeded {
		t.Errorf("expected ErrPoolLimitExceeded, got %v", err)
	}
}

func TestCheckStake_UserLimitCheckedFirst(t *testing.T) {
	limiter := NewStakeLimiter(d(100), d(100))

	err := limiter.CheckStake(d(200), d(0), d(0))
	if err != ErrUserLimitExceeded {
		t.Errorf("expected ErrUserLimitExceeded, got %v", err)
	}
}

func TestCheckStake_ZeroLimitsUnbounded(t *testing.T) {
	limiter := NewStakeLimiter(decimal.Zero, decimal.Zero)

	if err := limiter.CheckStake(d(1_000_000_000), d(1_000_000_000), d(1_000_000_000)); err != nil {
		t.Errorf("zero limits should be unbounded, got %v", err)
	}
}
