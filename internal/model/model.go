// Package model defines the core domain types shared across the settlement
// engine. All monetary values use shopspring/decimal — never float64 for money.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Prediction is a single pari-mutuel market: a fixed set of options, an
// unlock time after which betting closes, and cumulative per-option stakes.
// Predictions are never deleted; they persist for audit and query purposes.
type Prediction struct {
	Index       uint64            `json:"index" db:"idx"`
	Name        string            `json:"name" db:"name"`
	Description string            `json:"description" db:"description"`
	Options     []string          `json:"options" db:"options"`
	OptionLogos []string          `json:"option_logos" db:"option_logos"`
	UnlockTime  time.Time         `json:"unlock_time" db:"unlock_time"`
	FeeRatio    decimal.Decimal   `json:"fee_ratio" db:"fee_ratio"` // numerator over settle.RatioBase
	Revealed    bool              `json:"revealed" db:"revealed"`
	Outcome     int               `json:"outcome" db:"outcome"` // winning option, meaningful only once Revealed
	OptionVotes []decimal.Decimal `json:"option_votes" db:"option_votes"`
	Claimed     decimal.Decimal   `json:"claimed" db:"claimed"` // running total of paid-out claims
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
}

// Prediction states derived from the clock. Open→AwaitingReveal is implicit
// (never stored); AwaitingReveal→Revealed is the explicit reveal call.
const (
	StateOpen           = "open"
	StateAwaitingReveal = "awaiting_reveal"
	StateRevealed       = "revealed"
)

// Open reports whether bets are still accepted at the given instant.
func (p *Prediction) Open(now time.Time) bool {
	return now.Before(p.UnlockTime)
}

// State returns the derived lifecycle state at the given instant.
func (p *Prediction) State(now time.Time) string {
	switch {
	case p.Revealed:
		return StateRevealed
	case p.Open(now):
		return StateOpen
	default:
		return StateAwaitingReveal
	}
}

// TotalVotes returns the full staked pool: the sum of all option totals.
func (p *Prediction) TotalVotes() decimal.Decimal {
	total := decimal.Zero
	for _, v := range p.OptionVotes {
		total = total.Add(v)
	}
	return total
}

// BetRecord is an immutable record of one accepted stake.
// Once created, these are never modified or deleted.
type BetRecord struct {
	ID        string          `json:"id" db:"id"`
	Index     uint64          `json:"index" db:"prediction_idx"`
	UserID    string          `json:"user_id" db:"user_id"`
	Option    int             `json:"option" db:"option_idx"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Timestamp time.Time       `json:"timestamp" db:"ts"`
}
