package store

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/zencoLabs/predict-contract/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing and
// development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu          sync.RWMutex
	next        uint64
	predictions map[uint64]*model.Prediction
	stakes      map[uint64]map[string][]decimal.Decimal
	claims      map[uint64]map[string]decimal.Decimal
	ledger      []model.BetRecord
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		predictions: make(map[uint64]*model.Prediction),
		stakes:      make(map[uint64]map[string][]decimal.Decimal),
		claims:      make(map[uint64]map[string]decimal.Decimal),
	}
}

func (s *MemoryStore) CreatePrediction(_ context.Context, p *model.Prediction) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := clonePrediction(p)
	stored.Index = s.next
	s.predictions[stored.Index] = stored
	s.next++
	return stored.Index, nil
}

func (s *MemoryStore) GetPrediction(_ context.Context, index uint64) (*model.Prediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.predictions[index]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePrediction(p), nil
}

func (s *MemoryStore) ListPredictions(_ context.Context) ([]model.Prediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]model.Prediction, 0, len(s.predictions))
	for _, p := range s.predictions {
		list = append(list, *clonePrediction(p))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Index < list[j].Index })
	return list, nil
}

func (s *MemoryStore) NextIndex(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.next, nil
}

func (s *MemoryStore) MarkRevealed(_ context.Context, index uint64, outcome int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.predictions[index]
	if !ok {
		return ErrNotFound
	}
	p.Revealed = true
	p.Outcome = outcome
	return nil
}

// AddStake updates the option total, the user's stake vector slot, and the
// bet ledger under one lock — no partial update is ever visible.
func (s *MemoryStore) AddStake(_ context.Context, rec *model.BetRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.predictions[rec.Index]
	if !ok {
		return ErrNotFound
	}

	p.OptionVotes[rec.Option] = p.OptionVotes[rec.Option].Add(rec.Amount)

	byUser, ok := s.stakes[rec.Index]
	if !ok {
		byUser = make(map[string][]decimal.Decimal)
		s.stakes[rec.Index] = byUser
	}
	vec, ok := byUser[rec.UserID]
	if !ok {
		vec = zeroVector(len(p.Options))
		byUser[rec.UserID] = vec
	}
	vec[rec.Option] = vec[rec.Option].Add(rec.Amount)

	s.ledger = append(s.ledger, *rec)
	return nil
}

func (s *MemoryStore) UserStakes(_ context.Context, index uint64, userID string, n int) ([]decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if vec, ok := s.stakes[index][userID]; ok {
		out := make([]decimal.Decimal, len(vec))
		copy(out, vec)
		return out, nil
	}
	return zeroVector(n), nil
}

func (s *MemoryStore) HasClaimed(_ context.Context, index uint64, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.claims[index][userID]
	return ok, nil
}

func (s *MemoryStore) MarkClaimed(_ context.Context, index uint64, userID string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.predictions[index]
	if !ok {
		return ErrNotFound
	}

	byUser, ok := s.claims[index]
	if !ok {
		byUser = make(map[string]decimal.Decimal)
		s.claims[index] = byUser
	}
	if _, done := byUser[userID]; done {
		return ErrAlreadyClaimed
	}
	byUser[userID] = amount
	p.Claimed = p.Claimed.Add(amount)
	return nil
}

func (s *MemoryStore) BetsByPrediction(_ context.Context, index uint64) ([]model.BetRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.BetRecord
	for _, rec := range s.ledger {
		if rec.Index == index {
			result = append(result, rec)
		}
	}
	return result, nil
}

func (s *MemoryStore) BetsByUser(_ context.Context, userID string) ([]model.BetRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.BetRecord
	for _, rec := range s.ledger {
		if rec.UserID == userID {
			result = append(result, rec)
		}
	}
	return result, nil
}

// clonePrediction deep-copies a prediction so callers cannot mutate stored
// slices behind the lock.
func clonePrediction(p *model.Prediction) *model.Prediction {
	c := *p
	c.Options = append([]string(nil), p.Options...)
	c.OptionLogos = append([]string(nil), p.OptionLogos...)
	c.OptionVotes = append([]decimal.Decimal(nil), p.OptionVotes...)
	return &c
}

func zeroVector(n int) []decimal.Decimal {
	vec := make([]decimal.Decimal, n)
	for i := range vec {
		vec[i] = decimal.Zero
	}
	return vec
}
