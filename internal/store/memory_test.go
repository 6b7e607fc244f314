package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zencoLabs/predict-contract/internal/model"
	"github.com/zencoLabs/predict-contract/internal/store"
)

func seedPrediction(t *testing.T, ms *store.MemoryStore) uint64 {
	t.Helper()
	index, err := ms.CreatePrediction(context.Background(), &model.Prediction{
		Name:        "seed",
		Options:     []string{"a", "b"},
		OptionLogos: []string{"a", "b"},
		UnlockTime:  time.Now().Add(time.Hour),
		FeeRatio:    decimal.Zero,
		OptionVotes: []decimal.Decimal{decimal.Zero, decimal.Zero},
		Claimed:     decimal.Zero,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return index
}

func TestMemoryStore_UnknownIndex(t *testing.T) {
	ms := store.NewMemoryStore()
	ctx := context.Background()

	if _, err := ms.GetPrediction(ctx, 0); err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	err := ms.AddStake(ctx, &model.BetRecord{Index: 0, UserID: "u", Amount: decimal.NewFromInt(1)})
	if err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound from AddStake, got %v", err)
	}
}

func TestMemoryStore_AddStakeAccumulates(t *testing.T) {
	ms := store.NewMemoryStore()
	ctx := context.Background()
	index := seedPrediction(t, ms)

	for _, amount := range []int64{100, 250} {
		err := ms.AddStake(ctx, &model.BetRecord{
			ID:     "bet",
			Index:  index,
			UserID: "u1",
			Option: 1,
			Amount: decimal.NewFromInt(amount),
		})
		if err != nil {
			t.Fatalf("add stake: %v", err)
		}
	}

	p, err := ms.GetPrediction(ctx, index)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !p.OptionVotes[1].Equal(decimal.NewFromInt(350)) {
		t.Errorf("expected option total 350, got %s", p.OptionVotes[1])
	}

	vec, err := ms.UserStakes(ctx, index, "u1", 2)
	if err != nil {
		t.Fatalf("user stakes: %v", err)
	}
	if !vec[0].IsZero() || !vec[1].Equal(decimal.NewFromInt(350)) {
		t.Errorf("unexpected stake vector: %v", vec)
	}

	// Unknown users get a zero vector, not an error.
	vec, err = ms.UserStakes(ctx, index, "stranger", 2)
	if err != nil || len(vec) != 2 || !vec[0].IsZero() {
		t.Errorf("expected zero vector for stranger, got %v (%v)", vec, err)
	}
}

func TestMemoryStore_MarkClaimedOnce(t *testing.T) {
	ms := store.NewMemoryStore()
	ctx := context.Background()
	index := seedPrediction(t, ms)

	if err := ms.MarkClaimed(ctx, index, "u1", decimal.NewFromInt(900)); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if err := ms.MarkClaimed(ctx, index, "u1", decimal.NewFromInt(900)); err != store.ErrAlreadyClaimed {
		t.Errorf("expected ErrAlreadyClaimed, got %v", err)
	}

	claimed, err := ms.HasClaimed(ctx, index, "u1")
	if err != nil || !claimed {
		t.Errorf("expected claimed=true, got %v (%v)", claimed, err)
	}

	p, _ := ms.GetPrediction(ctx, index)
	if !p.Claimed.Equal(decimal.NewFromInt(900)) {
		t.Errorf("expected escrow claimed total 900 after one payout, got %s", p.Claimed)
	}
}

func TestMemoryStore_SnapshotsAreIsolated(t *testing.T) {
	ms := store.NewMemoryStore()
	ctx := context.Background()
	index := seedPrediction(t, ms)

	p, _ := ms.GetPrediction(ctx, index)
	p.OptionVotes[0] = decimal.NewFromInt(1_000_000)
	p.Options[0] = "tampered"

	fresh, _ := ms.GetPrediction(ctx, index)
	if !fresh.OptionVotes[0].IsZero() || fresh.Options[0] != "a" {
		t.Error("mutating a returned prediction must not affect the store")
	}
}
