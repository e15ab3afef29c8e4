// internal/repository/balance_repo.go
package repository

import (
	"context"

	"fxwallet/internal/domain"

	"github.com/shopspring/decimal"
)

// BalanceRepository defines the interface for per-currency balance rows.
type BalanceRepository interface {
	// ListByUser returns every balance held by userID, ordered by currency.
	ListByUser(ctx context.Context, q DBExecutor, userID int64) ([]domain.Balance, error)
	// LockForUpdate row-locks the user's balances in the given currencies, in
	// ascending currency order. Currencies the user does not hold are absent.
	LockForUpdate(ctx context.Context, q DBExecutor, userID int64, currencies []string) ([]domain.Balance, error)
	// FindOrCreate returns the (locked) balance row for the pair, creating an
	// empty one when the user holds none yet.
	FindOrCreate(ctx context.Context, q DBExecutor, userID int64, currency string) (*domain.Balance, error)
	// Credit adds amount to the balance and returns the new amount.
	Credit(ctx context.Context, q DBExecutor, balanceID int64, amount decimal.Decimal) (decimal.Decimal, error)
	// Debit subtracts amount and returns the remainder. A balance that would go
	// negative is left untouched and util.ErrInsufficientFunds is returned; a
	// balance that reaches zero is deleted.
	Debit(ctx context.Context, q DBExecutor, balanceID int64, amount decimal.Decimal) (decimal.Decimal, error)
}
