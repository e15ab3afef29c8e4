// internal/api/handler/ledger.go
package handler

import (
	"encoding/json"
	"net/http"

	"fxwallet/internal/api/types"
	"fxwallet/internal/service"
	"fxwallet/internal/util"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// LedgerHandler handles HTTP requests on the authenticated user's balances.
type LedgerHandler struct {
	responder
	service service.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(svc service.LedgerService, logger *logrus.Logger) *LedgerHandler {
	return &LedgerHandler{responder: responder{logger: logger}, service: svc}
}

// Me returns the user's balance snapshot.
// GET /users/me
func (h *LedgerHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	snap, err := h.service.GetSnapshot(r.Context(), userID)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.NewSnapshotResponse(snap))
}

// TopUp credits the user's balance.
// PATCH /users/top_up_balance
func (h *LedgerHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req types.TopUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, r, util.ErrInvalidAmount)
		return
	}
	if req.Currency == "" {
		h.respondWithError(w, r, util.ErrInvalidCurrency)
		return
	}

	snap, err := h.service.TopUp(r.Context(), userID, req.Currency, req.Amount)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.NewSnapshotResponse(snap))
}

// ChangeCurrency converts part of one balance into another currency.
// PATCH /users/change_currency?source=USD&currency=EUR&amount=40
func (h *LedgerHandler) ChangeCurrency(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	source, target := query.Get("source"), query.Get("currency")
	if source == "" || target == "" {
		h.respondWithError(w, r, util.ErrInvalidCurrency)
		return
	}
	amount, err := decimal.NewFromString(query.Get("amount"))
	if err != nil {
		h.respondWithError(w, r, util.ErrInvalidAmount)
		return
	}

	snap, err := h.service.Convert(r.Context(), userID, source, target, amount)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.NewSnapshotResponse(snap))
}

// EvaluateBalance values all balances in one currency.
// GET /users/evaluate_balance?source=EUR
func (h *LedgerHandler) EvaluateBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	source := r.URL.Query().Get("source")
	if source == "" {
		h.respondWithError(w, r, util.ErrInvalidCurrency)
		return
	}

	capital, err := h.service.EvaluateCapital(r.Context(), userID, source)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.NewCapitalResponse(capital))
}

// DeleteMe removes the user and all of their balances.
// DELETE /users/me
func (h *LedgerHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteUser(r.Context(), userID); err != nil {
		h.respondWithError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
