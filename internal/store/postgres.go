package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/zencoLabs/predict-contract/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// All monetary values are stored as NUMERIC for exact decimal precision;
// per-option totals live in a TEXT[] of decimal strings alongside the
// prediction row so a single row lock covers the whole record.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// InitSchema creates the ledger tables if they do not exist yet.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS predictions (
			idx          BIGINT PRIMARY KEY,
			name         TEXT NOT NULL,
			description  TEXT NOT NULL,
			options      TEXT[] NOT NULL,
			option_logos TEXT[] NOT NULL,
			unlock_time  TIMESTAMPTZ NOT NULL,
			fee_ratio    NUMERIC NOT NULL,
			revealed     BOOLEAN NOT NULL DEFAULT FALSE,
			outcome      INT NOT NULL DEFAULT 0,
			option_votes TEXT[] NOT NULL,
			claimed      NUMERIC NOT NULL DEFAULT 0,
			created_at   TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS stakes (
			prediction_idx BIGINT NOT NULL,
			user_id        TEXT NOT NULL,
			option_idx     INT NOT NULL,
			amount         NUMERIC NOT NULL,
			PRIMARY KEY (prediction_idx, user_id, option_idx)
		);
		CREATE TABLE IF NOT EXISTS claims (
			prediction_idx BIGINT NOT NULL,
			user_id        TEXT NOT NULL,
			amount         NUMERIC NOT NULL,
			claimed_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (prediction_idx, user_id)
		);
		CREATE TABLE IF NOT EXISTS bets (
			id             UUID PRIMARY KEY,
			prediction_idx BIGINT NOT NULL,
			user_id        TEXT NOT NULL,
			option_idx     INT NOT NULL,
			amount         NUMERIC NOT NULL,
			ts             TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS bets_prediction_idx ON bets (prediction_idx);
		CREATE INDEX IF NOT EXISTS bets_user_idx ON bets (user_id);
	`)
	return err
}

func (s *PostgresStore) CreatePrediction(ctx context.Context, p *model.Prediction) (uint64, error) {
	var idx uint64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO predictions
		   (idx, name, description, options, option_logos, unlock_time,
		    fee_ratio, revealed, outcome, option_votes, claimed, created_at)
		 SELECT COALESCE(MAX(idx) + 1, 0), $1, $2, $3, $4, $5,
		        $6::NUMERIC, FALSE, 0, $7, 0, $8
		 FROM predictions
		 RETURNING idx`,
		p.Name, p.Description, p.Options, p.OptionLogos, p.UnlockTime,
		p.FeeRatio.String(), votesToStrings(p.OptionVotes), p.CreatedAt,
	).Scan(&idx)
	if err != nil {
		return 0, fmt.Errorf("create prediction: %w", err)
	}
	return idx, nil
}

const predictionColumns = `idx, name, description, options, option_logos,
	unlock_time, fee_ratio::TEXT, revealed, outcome, option_votes,
	claimed::TEXT, created_at`

func (s *PostgresStore) GetPrediction(ctx context.Context, index uint64) (*model.Prediction, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+predictionColumns+` FROM predictions WHERE idx = $1`, index)
	p, err := scanPrediction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get prediction %d: %w", index, err)
	}
	return p, nil
}

func (s *PostgresStore) ListPredictions(ctx context.Context) ([]model.Prediction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+predictionColumns+` FROM predictions ORDER BY idx`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

func (s *PostgresStore) NextIndex(ctx context.Context) (uint64, error) {
	var next uint64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(idx) + 1, 0) FROM predictions`).Scan(&next)
	return next, err
}

func (s *PostgresStore) MarkRevealed(ctx context.Context, index uint64, outcome int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE predictions SET revealed = TRUE, outcome = $2 WHERE idx = $1`,
		index, outcome)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddStake runs all three writes in one transaction; the SELECT ... FOR
// UPDATE row lock serializes concurrent bets on the same prediction.
func (s *PostgresStore) AddStake(ctx context.Context, rec *model.BetRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var votes []string
	err = tx.QueryRow(ctx,
		`SELECT option_votes FROM predictions WHERE idx = $1 FOR UPDATE`,
		rec.Index).Scan(&votes)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	current, err := decimal.NewFromString(votes[rec.Option])
	if err != nil {
		return fmt.Errorf("corrupt option total %q: %w", votes[rec.Option], err)
	}
	votes[rec.Option] = current.Add(rec.Amount).String()

	if _, err := tx.Exec(ctx,
		`UPDATE predictions SET option_votes = $2 WHERE idx = $1`,
		rec.Index, votes); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO stakes (prediction_idx, user_id, option_idx, amount)
		 VALUES ($1, $2, $3, $4::NUMERIC)
		 ON CONFLICT (prediction_idx, user_id, option_idx)
		 DO UPDATE SET amount = stakes.amount + EXCLUDED.amount`,
		rec.Index, rec.UserID, rec.Option, rec.Amount.String()); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO bets (id, prediction_idx, user_id, option_idx, amount, ts)
		 VALUES ($1, $2, $3, $4, $5::NUMERIC, $6)`,
		rec.ID, rec.Index, rec.UserID, rec.Option, rec.Amount.String(), rec.Timestamp); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) UserStakes(ctx context.Context, index uint64, userID string, n int) ([]decimal.Decimal, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT option_idx, amount::TEXT FROM stakes
		 WHERE prediction_idx = $1 AND user_id = $2`, index, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vec := make([]decimal.Decimal, n)
	for i := range vec {
		vec[i] = decimal.Zero
	}
	for rows.Next() {
		var option int
		var amountS string
		if err := rows.Scan(&option, &amountS); err != nil {
			return nil, err
		}
		if option >= 0 && option < n {
			vec[option], _ = decimal.NewFromString(amountS)
		}
	}
	return vec, rows.Err()
}

func (s *PostgresStore) HasClaimed(ctx context.Context, index uint64, userID string) (bool, error) {
	var claimed bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM claims WHERE prediction_idx = $1 AND user_id = $2)`,
		index, userID).Scan(&claimed)
	return claimed, err
}

// MarkClaimed inserts the claim record and bumps the paid-out total in one
// transaction. The ON CONFLICT DO NOTHING makes the mark a true
// compare-and-set: a second claim sees zero rows inserted and fails.
func (s *PostgresStore) MarkClaimed(ctx context.Context, index uint64, userID string, amount decimal.Decimal) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE predictions SET claimed = claimed + $2::NUMERIC WHERE idx = $1`,
		index, amount.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	tag, err = tx.Exec(ctx,
		`INSERT INTO claims (prediction_idx, user_id, amount)
		 VALUES ($1, $2, $3::NUMERIC)
		 ON CONFLICT (prediction_idx, user_id) DO NOTHING`,
		index, userID, amount.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyClaimed
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) BetsByPrediction(ctx context.Context, index uint64) ([]model.BetRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, prediction_idx, user_id, option_idx, amount::TEXT, ts
		 FROM bets WHERE prediction_idx = $1 ORDER BY ts`, index)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBetRecords(rows)
}

func (s *PostgresStore) BetsByUser(ctx context.Context, userID string) ([]model.BetRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, prediction_idx, user_id, option_idx, amount::TEXT, ts
		 FROM bets WHERE user_id = $1 ORDER BY ts`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBetRecords(rows)
}

// pgxRow is the single-row scan surface shared by QueryRow and Query rows.
type pgxRow interface {
	Scan(dest ...interface{}) error
}

func scanPrediction(row pgxRow) (*model.Prediction, error) {
	var p model.Prediction
	var feeS, claimedS string
	var votes []string

	if err := row.Scan(&p.Index, &p.Name, &p.Description, &p.Options, &p.OptionLogos,
		&p.UnlockTime, &feeS, &p.Revealed, &p.Outcome, &votes,
		&claimedS, &p.CreatedAt); err != nil {
		return nil, err
	}

	p.FeeRatio, _ = decimal.NewFromString(feeS)
	p.Claimed, _ = decimal.NewFromString(claimedS)
	p.OptionVotes = make([]decimal.Decimal, len(votes))
	for i, v := range votes {
		p.OptionVotes[i], _ = decimal.NewFromString(v)
	}
	return &p, nil
}

type pgxRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanBetRecords(rows pgxRows) ([]model.BetRecord, error) {
	var records []model.BetRecord
	for rows.Next() {
		var rec model.BetRecord
		var amountS string

		if err := rows.Scan(&rec.ID, &rec.Index, &rec.UserID, &rec.Option,
			&amountS, &rec.Timestamp); err != nil {
			return nil, err
		}

		rec.Amount, _ = decimal.NewFromString(amountS)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func votesToStrings(votes []decimal.Decimal) []string {
	out := make([]string, len(votes))
	for i, v := range votes {
		out[i] = v.String()
	}
	return out
}
