package settle

import (
	"testing"

	"github.com/shopspring/decimal"
)

// di is a test helper for creating decimals from int64.
func di(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

// tenPercent is a 10% fee expressed over RatioBase.
var tenPercent = di(RatioBase / 10)

// --- Fee ratio validation ---

func TestValidateFeeRatio_Bounds(t *testing.T) {
	for _, fee := range []decimal.Decimal{di(0), tenPercent, di(RatioBase)} {
		if err := ValidateFeeRatio(fee); err != nil {
			t.Errorf("fee %s should be valid, got %v", fee, err)
		}
	}
}

func TestValidateFeeRatio_Negative(t *testing.T) {
	if err := ValidateFeeRatio(di(-1)); err != ErrInvalidFeeRatio {
		t.Errorf("expected ErrInvalidFeeRatio, got %v", err)
	}
}

func TestValidateFeeRatio_AboveBase(t *testing.T) {
	if err := ValidateFeeRatio(di(RatioBase + 1)); err != ErrInvalidFeeRatio {
		t.Errorf("expected ErrInvalidFeeRatio, got %v", err)
	}
}

func TestValidateFeeRatio_Fractional(t *testing.T) {
	if err := ValidateFeeRatio(decimal.NewFromFloat(0.5)); err != ErrInvalidFeeRatio {
		t.Errorf("expected ErrInvalidFeeRatio for fractional ratio, got %v", err)
	}
}

// --- Net pool ---

func TestNetPool_TenPercentFee(t *testing.T) {
	// pool 3000, 10% fee → 2700 exactly.
	net := NetPool(di(3000), tenPercent)
	if !net.Equal(di(2700)) {
		t.Errorf("expected net pool 2700, got %s", net)
	}
}

func TestNetPool_ZeroFee(t *testing.T) {
	net := NetPool(di(5000), di(0))
	if !net.Equal(di(5000)) {
		t.Errorf("zero fee should keep the full pool, got %s", net)
	}
}

func TestNetPool_FullFee(t *testing.T) {
	net := NetPool(di(5000), di(RatioBase))
	if !net.IsZero() {
		t.Errorf("full fee should consume the entire pool, got %s", net)
	}
}

func TestNetPool_FloorsTowardZero(t *testing.T) {
	// pool 7, fee 1/3 of base (333_333_333): 7 * 666_666_667 / 1e9 = 4.66… → 4.
	net := NetPool(di(7), di(333_333_333))
	if !net.Equal(di(4)) {
		t.Errorf("expected floored net pool 4, got %s", net)
	}
}

// --- Shares ---

func TestShare_SingleWinnerTakesNetPool(t *testing.T) {
	// 1000 on the winner, 2000 elsewhere, 10% fee. The lone winner takes
	// 1000 * 2700 / 1000 = 2700.
	net := NetPool(di(3000), tenPercent)
	share := Share(di(1000), net, di(1000))
	if !share.Equal(di(2700)) {
		t.Errorf("expected share 2700, got %s", share)
	}
}

func TestShare_Proportionality(t *testing.T) {
	// Two winners staking 100 and 300 split a net pool of 900 in ratio 1:3.
	winnerTotal := di(400)
	net := di(900)
	a := Share(di(100), net, winnerTotal)
	b := Share(di(300), net, winnerTotal)
	if !a.Equal(di(225)) || !b.Equal(di(675)) {
		t.Errorf("expected 225/675 split, got %s/%s", a, b)
	}
	if !a.Add(b).Equal(net) {
		t.Errorf("shares should consume the net pool exactly, got %s", a.Add(b))
	}
}

func TestShare_RoundingNeverMints(t *testing.T) {
	// Awkward split: net pool 1000 over winner stakes 1/1/1. Each floor share
	// is 333; the 1-unit remainder stays in the pool.
	winnerTotal := di(3)
	net := di(1000)
	sum := decimal.Zero
	for i := 0; i < 3; i++ {
		sum = sum.Add(Share(di(1), net, winnerTotal))
	}
	if sum.GreaterThan(net) {
		t.Errorf("shares %s exceed net pool %s", sum, net)
	}
	if !sum.Equal(di(999)) {
		t.Errorf("expected 999 after floor rounding, got %s", sum)
	}
}

func TestShare_ZeroWinnerTotal(t *testing.T) {
	// Nobody staked the winning option: share must be zero, not a fault.
	share := Share(di(0), di(2700), di(0))
	if !share.IsZero() {
		t.Errorf("expected zero share, got %s", share)
	}
}

func TestShare_ZeroStake(t *testing.T) {
	share := Share(di(0), di(2700), di(1000))
	if !share.IsZero() {
		t.Errorf("expected zero share for non-staker, got %s", share)
	}
}

func TestShare_MultiplyBeforeDivide(t *testing.T) {
	// 3 * 1000 / 7 = 428 with multiply-then-divide; dividing first would
	// floor 1000/7 to 142 and yield 426.
	share := Share(di(3), di(1000), di(7))
	if !share.Equal(di(428)) {
		t.Errorf("expected 428, got %s", share)
	}
}

func TestPool_SumsTotals(t *testing.T) {
	pool := Pool([]decimal.Decimal{di(1000), di(2000), di(0)})
	if !pool.Equal(di(3000)) {
		t.Errorf("expected pool 3000, got %s", pool)
	}
}
