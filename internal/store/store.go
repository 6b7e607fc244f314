// Package store defines the ledger persistence interface for the settlement
// engine. Implementations include PostgreSQL (source of truth), Redis
// (read-through cache), and in-memory (for testing).
package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/zencoLabs/predict-contract/internal/model"
)

var (
	// ErrNotFound is returned when a prediction index is unknown.
	ErrNotFound = errors.New("store: prediction not found")

	// ErrAlreadyClaimed is returned by MarkClaimed when the (prediction,
	// user) claim record is already set. The mark is the atomic gate against
	// double payment, so callers must treat this as terminal.
	ErrAlreadyClaimed = errors.New("store: payout already claimed")
)

// Store is the ledger persistence interface. A bet's two writes — the
// prediction's option total and the user's stake vector slot — commit
// together or not at all; no partial update is ever visible.
type Store interface {
	// --- Prediction records ---

	// CreatePrediction appends a new prediction, assigns the next monotonic
	// index (never reused), and returns it.
	CreatePrediction(ctx context.Context, p *model.Prediction) (uint64, error)

	// GetPrediction retrieves one prediction by index.
	GetPrediction(ctx context.Context, index uint64) (*model.Prediction, error)

	// ListPredictions returns all predictions in index order.
	ListPredictions(ctx context.Context) ([]model.Prediction, error)

	// NextIndex returns the index the next created prediction will receive.
	NextIndex(ctx context.Context) (uint64, error)

	// MarkRevealed records the winning option and flips the revealed flag.
	MarkRevealed(ctx context.Context, index uint64, outcome int) error

	// --- Stakes ---

	// AddStake applies one accepted bet: adds rec.Amount to the prediction's
	// option total and the user's stake vector slot, and appends rec to the
	// immutable bet ledger, all atomically.
	AddStake(ctx context.Context, rec *model.BetRecord) error

	// UserStakes returns the user's stake vector of length n for a
	// prediction, all zeros if the user never staked.
	UserStakes(ctx context.Context, index uint64, userID string, n int) ([]decimal.Decimal, error)

	// --- Claims ---

	// HasClaimed reports whether the user's claim record for a prediction
	// is set.
	HasClaimed(ctx context.Context, index uint64, userID string) (bool, error)

	// MarkClaimed sets the user's claim record exactly once and adds amount
	// to the prediction's paid-out total. Returns ErrAlreadyClaimed if the
	// record was already set.
	MarkClaimed(ctx context.Context, index uint64, userID string, amount decimal.Decimal) error

	// --- Immutable bet ledger ---

	// BetsByPrediction returns all accepted bets for a prediction.
	BetsByPrediction(ctx context.Context, index uint64) ([]model.BetRecord, error)

	// BetsByUser returns all accepted bets placed by a user.
	BetsByUser(ctx context.Context, userID string) ([]model.BetRecord, error)
}
