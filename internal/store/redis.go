package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/zencoLabs/predict-contract/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache for the hot read paths: prediction records and per-user stake
// vectors. Writes go to the primary store and invalidate the cache. Claim
// records are never cached — the claim mark is the double-payment gate and
// must always hit the source of truth.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Writes (write to primary, invalidate cache) ---

func (s *CachedStore) CreatePrediction(ctx context.Context, p *model.Prediction) (uint64, error) {
	index, err := s.primary.CreatePrediction(ctx, p)
	if err != nil {
		return 0, err
	}
	// No cache entry to populate yet; the first read fills it.
	return index, nil
}

func (s *CachedStore) MarkRevealed(ctx context.Context, index uint64, outcome int) error {
	if err := s.primary.MarkRevealed(ctx, index, outcome); err != nil {
		return err
	}
	s.rdb.Del(ctx, predictionKey(index))
	return nil
}

func (s *CachedStore) AddStake(ctx context.Context, rec *model.BetRecord) error {
	if err := s.primary.AddStake(ctx, rec); err != nil {
		return err
	}
	// Both the record totals and the user's vector changed.
	s.rdb.Del(ctx, predictionKey(rec.Index), stakesKey(rec.Index, rec.UserID))
	return nil
}

func (s *CachedStore) MarkClaimed(ctx context.Context, index uint64, userID string, amount decimal.Decimal) error {
	if err := s.primary.MarkClaimed(ctx, index, userID, amount); err != nil {
		return err
	}
	s.rdb.Del(ctx, predictionKey(index))
	return nil
}

// --- Reads (check cache first) ---

func (s *CachedStore) GetPrediction(ctx context.Context, index uint64) (*model.Prediction, error) {
	data, err := s.rdb.Get(ctx, predictionKey(index)).Bytes()
	if err == nil {
		var p model.Prediction
		if json.Unmarshal(data, &p) == nil {
			return &p, nil
		}
	}

	p, err := s.primary.GetPrediction(ctx, index)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(p); err == nil {
		s.rdb.Set(ctx, predictionKey(index), data, s.ttl)
	}
	return p, nil
}

func (s *CachedStore) UserStakes(ctx context.Context, index uint64, userID string, n int) ([]decimal.Decimal, error) {
	data, err := s.rdb.Get(ctx, stakesKey(index, userID)).Bytes()
	if err == nil {
		var vec []decimal.Decimal
		if json.Unmarshal(data, &vec) == nil && len(vec) == n {
			return vec, nil
		}
	}

	vec, err := s.primary.UserStakes(ctx, index, userID, n)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(vec); err == nil {
		s.rdb.Set(ctx, stakesKey(index, userID), data, s.ttl)
	}
	return vec, nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) ListPredictions(ctx context.Context) ([]model.Prediction, error) {
	return s.primary.ListPredictions(ctx)
}

func (s *CachedStore) NextIndex(ctx context.Context) (uint64, error) {
	return s.primary.NextIndex(ctx)
}

func (s *CachedStore) HasClaimed(ctx context.Context, index uint64, userID string) (bool, error) {
	return s.primary.HasClaimed(ctx, index, userID)
}

func (s *CachedStore) BetsByPrediction(ctx context.Context, index uint64) ([]model.BetRecord, error) {
	return s.primary.BetsByPrediction(ctx, index)
}

func (s *CachedStore) BetsByUser(ctx context.Context, userID string) ([]model.BetRecord, error) {
	return s.primary.BetsByUser(ctx, userID)
}

// --- Cache keys ---

func predictionKey(index uint64) string { return fmt.Sprintf("prediction:%d", index) }

func stakesKey(index uint64, uid string) string { return fmt.Sprintf("stakes:%d:%s", index, uid) }
