// internal/domain/balance.go
package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// AmountScale is the fixed number of fractional digits stored for every amount.
const AmountScale = 2

// Balance represents a user's holding in one currency. A stored balance is
// always strictly positive: rows that reach zero are pruned.
type Balance struct {
	ID       int64           `db:"id" json:"-"`
	UserID   int64           `db:"user_id" json:"-"`
	Currency string          `db:"currency" json:"currency"` // Uppercase ISO-4217-like code
	Amount   decimal.Decimal `db:"amount" json:"amount"`     // NUMERIC(20, 2) in DB
}

// NormalizeCurrency returns the canonical (uppercase, trimmed) form of a code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValidAmount reports whether amount is positive and fits the stored scale.
func IsValidAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.Equal(amount.Round(AmountScale))
}

// Holdings indexes one user's balances by currency code.
type Holdings map[string]*Balance

// NewHoldings builds the per-currency index for a user's balances.
func NewHoldings(balances []Balance) Holdings {
	h := make(Holdings, len(balances))
	for i := range balances {
		b := balances[i]
		h[b.Currency] = &b
	}
	return h
}

// Currencies returns the held currency codes in ascending order.
func (h Holdings) Currencies() []string {
	codes := make([]string, 0, len(h))
	for code := range h {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// BalanceEntry is one currency line of a BalanceSnapshot.
type BalanceEntry struct {
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

// BalanceSnapshot is the per-user view returned after every operation.
type BalanceSnapshot struct {
	Username  string         `json:"username"`
	Email     string         `json:"email"`
	CreatedAt time.Time      `json:"created_at"`
	Balances  []BalanceEntry `json:"balances"`
}

// NewBalanceSnapshot renders a user and their holdings, ordered by currency.
func NewBalanceSnapshot(user *User, holdings Holdings) *BalanceSnapshot {
	entries := make([]BalanceEntry, 0, len(holdings))
	for _, code := range holdings.Currencies() {
		entries = append(entries, BalanceEntry{Currency: code, Amount: holdings[code].Amount})
	}
	return &BalanceSnapshot{
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		Balances:  entries,
	}
}

// Capital is the result of evaluating all of a user's balances in one currency.
type Capital struct {
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}
