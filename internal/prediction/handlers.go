package prediction

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/zencoLabs/predict-contract/internal/limits"
	"github.com/zencoLabs/predict-contract/internal/model"
	"github.com/zencoLabs/predict-contract/internal/settle"
)

// BetRequest is the JSON body for POST /predictions/{index}/bets.
// Amount is the attached value being escrowed on the chosen option.
type BetRequest struct {
	UserID string          `json:"user_id"`
	Option int             `json:"option"`
	Amount decimal.Decimal `json:"amount"`
}

// RevealRequest is the JSON body for POST /predictions/{index}/reveal.
type RevealRequest struct {
	Outcome int `json:"outcome"`
}

// ClaimRequest is the JSON body for POST /predictions/{index}/claims.
type ClaimRequest struct {
	UserID string `json:"user_id"`
}

// ClaimResponse reports a successful payout.
type ClaimResponse struct {
	Index  uint64          `json:"index"`
	UserID string          `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

// ListResponse wraps the full prediction list with the monotonic index
// counter (the index the next created prediction will receive).
type ListResponse struct {
	NextIndex   uint64             `json:"next_index"`
	Predictions []model.Prediction `json:"predictions"`
}

// HandleCreate handles POST /api/v1/predictions
func (s *Service) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	p, err := s.Create(r.Context(), req)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

// HandleBet handles POST /api/v1/predictions/{index}/bets
func (s *Service) HandleBet(w http.ResponseWriter, r *http.Request) {
	index, ok := parseIndex(w, r)
	if !ok {
		return
	}

	var req BetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		writeError(w, "user_id is required", http.StatusBadRequest)
		return
	}

	rec, err := s.Bet(r.Context(), index, req.UserID, req.Option, req.Amount)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// HandleReveal handles POST /api/v1/predictions/{index}/reveal
func (s *Service) HandleReveal(w http.ResponseWriter, r *http.Request) {
	index, ok := parseIndex(w, r)
	if !ok {
		return
	}

	var req RevealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	p, err := s.Reveal(r.Context(), index, req.Outcome)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// HandleClaim handles POST /api/v1/predictions/{index}/claims
func (s *Service) HandleClaim(w http.ResponseWriter, r *http.Request) {
	index, ok := parseIndex(w, r)
	if !ok {
		return
	}

	var req ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		writeError(w, "user_id is required", http.StatusBadRequest)
		return
	}

	amount, err := s.Claim(r.Context(), index, req.UserID)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, ClaimResponse{
		Index:  index,
		UserID: req.UserID,
		Amount: amount,
	})
}

// HandleGet handles GET /api/v1/predictions/{index}
func (s *Service) HandleGet(w http.ResponseWriter, r *http.Request) {
	index, ok := parseIndex(w, r)
	if !ok {
		return
	}

	p, err := s.Get(r.Context(), index)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// HandleList handles GET /api/v1/predictions
func (s *Service) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	list, err := s.List(ctx)
	if err != nil {
		writeError(w, "failed to list predictions", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []model.Prediction{}
	}

	next, err := s.NextIndex(ctx)
	if err != nil {
		writeError(w, "failed to read index counter", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ListResponse{NextIndex: next, Predictions: list})
}

// HandleUnfinished handles GET /api/v1/predictions/unfinished
func (s *Service) HandleUnfinished(w http.ResponseWriter, r *http.Request) {
	list, err := s.Unfinished(r.Context())
	if err != nil {
		writeError(w, "failed to list predictions", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []model.Prediction{}
	}

	writeJSON(w, http.StatusOK, list)
}

// HandleUserBets handles GET /api/v1/predictions/{index}/bets/{userID}
func (s *Service) HandleUserBets(w http.ResponseWriter, r *http.Request) {
	index, ok := parseIndex(w, r)
	if !ok {
		return
	}
	userID := chi.URLParam(r, "userID")

	vec, err := s.UserBets(r.Context(), index, userID)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, vec)
}

// HandleClaimable handles GET /api/v1/predictions/{index}/claimable/{userID}
func (s *Service) HandleClaimable(w http.ResponseWriter, r *http.Request) {
	index, ok := parseIndex(w, r)
	if !ok {
		return
	}
	userID := chi.URLParam(r, "userID")

	amount, err := s.ClaimableAmount(r.Context(), index, userID)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"amount": amount})
}

// HandleTotal handles GET /api/v1/predictions/{index}/total
func (s *Service) HandleTotal(w http.ResponseWriter, r *http.Request) {
	index, ok := parseIndex(w, r)
	if !ok {
		return
	}

	total, err := s.TotalVotes(r.Context(), index)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"total": total})
}

// HandleBetHistory handles GET /api/v1/predictions/{index}/history
func (s *Service) HandleBetHistory(w http.ResponseWriter, r *http.Request) {
	index, ok := parseIndex(w, r)
	if !ok {
		return
	}

	records, err := s.BetHistory(r.Context(), index)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	if records == nil {
		records = []model.BetRecord{}
	}

	writeJSON(w, http.StatusOK, records)
}

// HandleUserBetHistory handles GET /api/v1/users/{userID}/bets
func (s *Service) HandleUserBetHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeError(w, "user_id is required", http.StatusBadRequest)
		return
	}

	records, err := s.UserBetHistory(r.Context(), userID)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	if records == nil {
		records = []model.BetRecord{}
	}

	writeJSON(w, http.StatusOK, records)
}

// parseIndex reads the {index} URL parameter.
func parseIndex(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	index, err := strconv.ParseUint(chi.URLParam(r, "index"), 10, 64)
	if err != nil {
		writeError(w, "invalid prediction index", http.StatusBadRequest)
		return 0, false
	}
	return index, true
}

// statusFor maps the service error taxonomy onto HTTP status codes:
// validation failures are 400, unknown indexes 404, and temporal or
// state conflicts 409 so callers can tell "retry later" from "never".
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidOptions),
		errors.Is(err, ErrInvalidUnlockTime),
		errors.Is(err, settle.ErrInvalidFeeRatio),
		errors.Is(err, ErrInvalidOption),
		errors.Is(err, ErrZeroAmount):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNotOpen),
		errors.Is(err, ErrNotYetFinished),
		errors.Is(err, ErrAlreadyRevealed),
		errors.Is(err, ErrNotRevealed),
		errors.Is(err, ErrAlreadyClaimed),
		errors.Is(err, ErrNothingToClaim),
		errors.Is(err, limits.ErrUserLimitExceeded),
		errors.Is(err, limits.ErrPoolLimitExceeded):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
