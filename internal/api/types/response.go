// internal/api/types/response.go
package types

import (
	"fmt"
	"time"

	"fxwallet/internal/domain"

	"github.com/shopspring/decimal"
)

// RateTimeLayout is how quote timestamps are rendered to clients.
const RateTimeLayout = "2006-01-02 15:04:05"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// BalanceResponse is one currency line with a fixed two-place amount.
type BalanceResponse struct {
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
}

// SnapshotResponse mirrors domain.BalanceSnapshot for the wire.
type SnapshotResponse struct {
	Username  string            `json:"username"`
	Email     string            `json:"email"`
	CreatedAt time.Time         `json:"created_at"`
	Balances  []BalanceResponse `json:"balances"`
}

func amountString(d decimal.Decimal) string {
	return d.StringFixed(domain.AmountScale)
}

func NewSnapshotResponse(s *domain.BalanceSnapshot) SnapshotResponse {
	balances := make([]BalanceResponse, 0, len(s.Balances))
	for _, b := range s.Balances {
		balances = append(balances, BalanceResponse{Currency: b.Currency, Amount: amountString(b.Amount)})
	}
	return SnapshotResponse{
		Username:  s.Username,
		Email:     s.Email,
		CreatedAt: s.CreatedAt,
		Balances:  balances,
	}
}

// CapitalResponse is the valuation of all balances in one currency.
type CapitalResponse struct {
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
	Message  string `json:"message"`
}

func NewCapitalResponse(c *domain.Capital) CapitalResponse {
	amount := amountString(c.Amount)
	return CapitalResponse{
		Currency: c.Currency,
		Amount:   amount,
		Message:  fmt.Sprintf("Your capital in %s is %s %s", c.Currency, amount, c.Currency),
	}
}

// RatesResponse is a quote with a human-readable UTC time.
type RatesResponse struct {
	Time   string             `json:"time"`
	Source string             `json:"source"`
	Quotes map[string]float64 `json:"quotes"`
}

func NewRatesResponse(q *domain.Quote) RatesResponse {
	return RatesResponse{
		Time:   q.Time().Format(RateTimeLayout),
		Source: q.Source,
		Quotes: q.Quotes,
	}
}

// CurrenciesResponse lists known currency codes with their labels.
type CurrenciesResponse struct {
	Currencies map[string]string `json:"currencies"`
}

// TopUpRequest represents the request body for a top-up.
type TopUpRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}
