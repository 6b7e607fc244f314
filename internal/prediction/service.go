// Package prediction provides the staking ledger and settlement operations:
// creating predictions, accepting bets while the window is open, revealing
// the winning option after unlock, and paying winners their proportional
// share of the net pool.
//
// All monetary values use shopspring/decimal — never float64 for money.
package prediction

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zencoLabs/predict-contract/internal/limits"
	"github.com/zencoLabs/predict-contract/internal/metrics"
	"github.com/zencoLabs/predict-contract/internal/model"
	"github.com/zencoLabs/predict-contract/internal/settle"
	"github.com/zencoLabs/predict-contract/internal/store"
)

var (
	// ErrNotFound is returned for unknown prediction indexes.
	ErrNotFound = errors.New("prediction: not found")

	// ErrInvalidOptions is returned when the option and logo sequences
	// differ in length or hold fewer than two entries.
	ErrInvalidOptions = errors.New("prediction: need at least two options with matching logos")

	// ErrInvalidUnlockTime is returned when the unlock time is not strictly
	// in the future.
	ErrInvalidUnlockTime = errors.New("prediction: unlock time must be in the future")

	// ErrNotOpen is returned for bets placed at or after the unlock time.
	ErrNotOpen = errors.New("prediction: betting window is closed")

	// ErrInvalidOption is returned when an option index is out of range.
	ErrInvalidOption = errors.New("prediction: option index out of range")

	// ErrZeroAmount is returned for non-positive stake amounts.
	ErrZeroAmount = errors.New("prediction: stake amount must be positive")

	// ErrNotYetFinished is returned when revealing before the unlock time.
	// Callers may retry once the prediction is over.
	ErrNotYetFinished = errors.New("prediction: not over yet")

	// ErrAlreadyRevealed is returned for a second reveal. Terminal.
	ErrAlreadyRevealed = errors.New("prediction: outcome already revealed")

	// ErrNotRevealed is returned for claims before the outcome is revealed.
	ErrNotRevealed = errors.New("prediction: outcome not revealed yet")

	// ErrAlreadyClaimed is returned for a second claim by the same user.
	ErrAlreadyClaimed = errors.New("prediction: payout already claimed")

	// ErrNothingToClaim is returned when the caller's claimable share is zero.
	ErrNothingToClaim = errors.New("prediction: nothing to claim")
)

// Service handles prediction lifecycle, staking, and settlement. Uses a
// mutex for serialized mutation (single-instance); every operation either
// fully commits or fully fails with no side effects.
type Service struct {
	store   store.Store
	limiter *limits.StakeLimiter
	hub     *EventHub
	now     func() time.Time
	mu      sync.Mutex
}

// NewService creates a new prediction service.
// Pass nil for hub if WebSocket broadcasting is not needed.
func NewService(st store.Store, limiter *limits.StakeLimiter, hub *EventHub) *Service {
	return &Service{
		store:   st,
		limiter: limiter,
		hub:     hub,
		now:     time.Now,
	}
}

// SetNow overrides the service clock. Tests use this to drive the
// open → awaiting-reveal transition deterministically.
func (s *Service) SetNow(now func() time.Time) {
	s.now = now
}

// CreateRequest carries the creation-time parameters of a prediction.
type CreateRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Options     []string        `json:"options"`
	OptionLogos []string        `json:"option_logos"`
	UnlockTime  time.Time       `json:"unlock_time"`
	FeeRatio    decimal.Decimal `json:"fee_ratio"`
}

// Create validates the request and appends a new prediction with all option
// totals zero. Returns the stored record with its assigned index. On any
// validation failure no index is consumed.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*model.Prediction, error) {
	if len(req.Options) < 2 || len(req.Options) != len(req.OptionLogos) {
		return nil, ErrInvalidOptions
	}
	if err := settle.ValidateFeeRatio(req.FeeRatio); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if !req.UnlockTime.After(now) {
		return nil, ErrInvalidUnlockTime
	}

	votes := make([]decimal.Decimal, len(req.Options))
	for i := range votes {
		votes[i] = decimal.Zero
	}

	p := &model.Prediction{
		Name:        req.Name,
		Description: req.Description,
		Options:     req.Options,
		OptionLogos: req.OptionLogos,
		UnlockTime:  req.UnlockTime,
		FeeRatio:    req.FeeRatio,
		OptionVotes: votes,
		Claimed:     decimal.Zero,
		CreatedAt:   now.UTC(),
	}

	index, err := s.store.CreatePrediction(ctx, p)
	if err != nil {
		return nil, err
	}
	p.Index = index

	metrics.PredictionsCreated.Inc()
	metrics.OpenPredictions.Inc()
	slog.Info("prediction created",
		"index", index,
		"name", p.Name,
		"options", len(p.Options),
		"unlock_time", p.UnlockTime,
		"fee_ratio", p.FeeRatio.String(),
	)

	return p, nil
}

// Bet stakes amount on one option of an open prediction. The option total
// and the caller's stake vector slot are updated atomically; the accepted
// bet is returned as an immutable ledger record.
func (s *Service) Bet(ctx context.Context, index uint64, userID string, option int, amount decimal.Decimal) (*model.BetRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.store.GetPrediction(ctx, index)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if !p.Open(s.now()) {
		return nil, ErrNotOpen
	}
	if option < 0 || option >= len(p.Options) {
		return nil, ErrInvalidOption
	}
	if !amount.IsPositive() {
		return nil, ErrZeroAmount
	}

	if s.limiter != nil {
		stakes, err := s.store.UserStakes(ctx, index, userID, len(p.Options))
		if err != nil {
			return nil, err
		}
		userTotal := settle.Pool(stakes)
		if err := s.limiter.CheckStake(amount, userTotal, p.TotalVotes()); err != nil {
			metrics.BetRejections.Inc()
			return nil, err
		}
	}

	rec := &model.BetRecord{
		ID:        uuid.New().String(),
		Index:     index,
		UserID:    userID,
		Option:    option,
		Amount:    amount,
		Timestamp: s.now().UTC(),
	}

	if err := s.store.AddStake(ctx, rec); err != nil {
		return nil, mapStoreErr(err)
	}

	metrics.BetsTotal.Inc()
	slog.Info("bet accepted",
		"bet_id", rec.ID,
		"index", index,
		"user", userID,
		"option", option,
		"amount", amount.String(),
	)

	if s.hub != nil {
		s.hub.Broadcast(Event{
			Type:   EventBetPlaced,
			Index:  index,
			UserID: userID,
			Option: option,
			Amount: amount.String(),
		})
	}

	return rec, nil
}

// Reveal records the winning option of a finished prediction. The
// unrevealed → revealed transition happens exactly once and is terminal.
func (s *Service) Reveal(ctx context.Context, index uint64, outcome int) (*model.Prediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.store.GetPrediction(ctx, index)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if p.Open(s.now()) {
		return nil, ErrNotYetFinished
	}
	if p.Revealed {
		return nil, ErrAlreadyRevealed
	}
	if outcome < 0 || outcome >= len(p.Options) {
		return nil, ErrInvalidOption
	}

	if err := s.store.MarkRevealed(ctx, index, outcome); err != nil {
		return nil, mapStoreErr(err)
	}
	p.Revealed = true
	p.Outcome = outcome

	metrics.RevealsTotal.Inc()
	slog.Info("prediction revealed",
		"index", index,
		"outcome", outcome,
		"pool", p.TotalVotes().String(),
	)

	if s.hub != nil {
		s.hub.Broadcast(Event{
			Type:    EventRevealed,
			Index:   index,
			Outcome: outcome,
		})
	}

	return p, nil
}

// ClaimableAmount is a pure read of what the user could withdraw right now.
// It returns zero for unrevealed predictions, for users with no stake in the
// winning option, and for users who already claimed; only an unknown index
// is an error.
func (s *Service) ClaimableAmount(ctx context.Context, index uint64, userID string) (decimal.Decimal, error) {
	p, err := s.store.GetPrediction(ctx, index)
	if err != nil {
		return decimal.Zero, mapStoreErr(err)
	}
	if !p.Revealed {
		return decimal.Zero, nil
	}

	claimed, err := s.store.HasClaimed(ctx, index, userID)
	if err != nil {
		return decimal.Zero, err
	}
	if claimed {
		return decimal.Zero, nil
	}

	return s.share(ctx, p, userID)
}

// share computes the user's payout for a revealed prediction:
// stake[outcome] * netPool / totals[outcome], floored.
func (s *Service) share(ctx context.Context, p *model.Prediction, userID string) (decimal.Decimal, error) {
	stakes, err := s.store.UserStakes(ctx, p.Index, userID, len(p.Options))
	if err != nil {
		return decimal.Zero, err
	}

	winnerTotal := p.OptionVotes[p.Outcome]
	netPool := settle.NetPool(p.TotalVotes(), p.FeeRatio)
	return settle.Share(stakes[p.Outcome], netPool, winnerTotal), nil
}

// Claim pays the caller their share of the net pool exactly once. The claim
// record is marked before the payout event is emitted, so a re-entrant or
// concurrent second claim can never pay twice.
func (s *Service) Claim(ctx context.Context, index uint64, userID string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.store.GetPrediction(ctx, index)
	if err != nil {
		return decimal.Zero, mapStoreErr(err)
	}
	if !p.Revealed {
		return decimal.Zero, ErrNotRevealed
	}

	claimed, err := s.store.HasClaimed(ctx, index, userID)
	if err != nil {
		return decimal.Zero, err
	}
	if claimed {
		return decimal.Zero, ErrAlreadyClaimed
	}

	amount, err := s.share(ctx, p, userID)
	if err != nil {
		return decimal.Zero, err
	}
	if amount.IsZero() {
		return decimal.Zero, ErrNothingToClaim
	}

	// Mark first; the store refuses a second mark even if this path races.
	if err := s.store.MarkClaimed(ctx, index, userID, amount); err != nil {
		return decimal.Zero, mapStoreErr(err)
	}

	metrics.ClaimsTotal.Inc()
	metrics.PayoutAmount.Add(amount.InexactFloat64())
	slog.Info("payout claimed",
		"index", index,
		"user", userID,
		"amount", amount.String(),
	)

	if s.hub != nil {
		s.hub.Broadcast(Event{
			Type:   EventUserClaim,
			Index:  index,
			UserID: userID,
			Amount: amount.String(),
		})
	}

	return amount, nil
}

// --- Read-only queries ---

// Get returns one prediction by index.
func (s *Service) Get(ctx context.Context, index uint64) (*model.Prediction, error) {
	p, err := s.store.GetPrediction(ctx, index)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return p, nil
}

// List returns all predictions in index order.
func (s *Service) List(ctx context.Context) ([]model.Prediction, error) {
	return s.store.ListPredictions(ctx)
}

// NextIndex returns the index the next created prediction will receive,
// which equals the number of predictions ever created.
func (s *Service) NextIndex(ctx context.Context) (uint64, error) {
	return s.store.NextIndex(ctx)
}

// Unfinished returns only the predictions still open for betting.
func (s *Service) Unfinished(ctx context.Context) ([]model.Prediction, error) {
	all, err := s.store.ListPredictions(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	open := make([]model.Prediction, 0, len(all))
	for _, p := range all {
		if p.Open(now) {
			open = append(open, p)
		}
	}
	return open, nil
}

// UserBets returns the user's stake vector for a prediction, all zeros if
// the user never staked.
func (s *Service) UserBets(ctx context.Context, index uint64, userID string) ([]decimal.Decimal, error) {
	p, err := s.store.GetPrediction(ctx, index)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return s.store.UserStakes(ctx, index, userID, len(p.Options))
}

// TotalVotes returns the full staked pool of a prediction.
func (s *Service) TotalVotes(ctx context.Context, index uint64) (decimal.Decimal, error) {
	p, err := s.store.GetPrediction(ctx, index)
	if err != nil {
		return decimal.Zero, mapStoreErr(err)
	}
	return p.TotalVotes(), nil
}

// UserBetHistory returns every ledger record for one user across all
// predictions, in placement order.
func (s *Service) UserBetHistory(ctx context.Context, userID string) ([]model.BetRecord, error) {
	return s.store.BetsByUser(ctx, userID)
}

// BetHistory returns the immutable bet ledger for a prediction.
func (s *Service) BetHistory(ctx context.Context, index uint64) ([]model.BetRecord, error) {
	if _, err := s.store.GetPrediction(ctx, index); err != nil {
		return nil, mapStoreErr(err)
	}
	return s.store.BetsByPrediction(ctx, index)
}

// mapStoreErr translates store sentinels into the service's error taxonomy.
func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrAlreadyClaimed):
		return ErrAlreadyClaimed
	default:
		return err
	}
}
