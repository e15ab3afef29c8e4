// internal/repository/postgres/balance_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fxwallet/internal/domain"
	"fxwallet/internal/repository"
	"fxwallet/internal/util"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const balanceColumns = `id, user_id, currency, amount`

// findOrCreateAttempts bounds the insert/select race with a concurrent
// debit that prunes the row between the two statements.
const findOrCreateAttempts = 2

// BalanceRepository implements repository.BalanceRepository for PostgreSQL.
type BalanceRepository struct{}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository() repository.BalanceRepository {
	return &BalanceRepository{}
}

// ListByUser returns the user's balances ordered by currency.
func (r *BalanceRepository) ListByUser(ctx context.Context, q repository.DBExecutor, userID int64) ([]domain.Balance, error) {
	balances := []domain.Balance{}
	query := `SELECT ` + balanceColumns + ` FROM balances WHERE user_id = $1 ORDER BY currency`
	if err := q.SelectContext(ctx, &balances, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list balances for user %d: %w", userID, err)
	}
	return balances, nil
}

// LockForUpdate takes row locks in currency order so two conversions over the
// same pair never wait on each other in opposite orders.
func (r *BalanceRepository) LockForUpdate(ctx context.Context, q repository.DBExecutor, userID int64, currencies []string) ([]domain.Balance, error) {
	balances := []domain.Balance{}
	query := `SELECT ` + balanceColumns + ` FROM balances
              WHERE user_id = $1 AND currency = ANY($2)
              ORDER BY currency FOR UPDATE`
	if err := q.SelectContext(ctx, &balances, query, userID, pq.Array(currencies)); err != nil {
		return nil, fmt.Errorf("failed to lock balances for user %d: %w", userID, err)
	}
	return balances, nil
}

// FindOrCreate inserts an empty balance row or, when one already exists,
// locks it. The zero amount is never visible outside the caller's transaction
// because a Credit always follows.
func (r *BalanceRepository) FindOrCreate(ctx context.Context, q repository.DBExecutor, userID int64, currency string) (*domain.Balance, error) {
	insert := `INSERT INTO balances (user_id, currency, amount) VALUES ($1, $2, 0)
               ON CONFLICT (user_id, currency) DO NOTHING
               RETURNING ` + balanceColumns
	lock := `SELECT ` + balanceColumns + ` FROM balances
             WHERE user_id = $1 AND currency = $2 FOR UPDATE`

	for attempt := 0; attempt < findOrCreateAttempts; attempt++ {
		var balance domain.Balance
		err := q.GetContext(ctx, &balance, insert, userID, currency)
		if err == nil {
			return &balance, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to create balance %s for user %d: %w", currency, userID, err)
		}

		err = q.GetContext(ctx, &balance, lock, userID, currency)
		if err == nil {
			return &balance, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to lock balance %s for user %d: %w", currency, userID, err)
		}
	}
	return nil, fmt.Errorf("balance %s for user %d kept disappearing: %w", currency, userID, util.ErrConflict)
}

// Credit adds amount to the balance row.
func (r *BalanceRepository) Credit(ctx context.Context, q repository.DBExecutor, balanceID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	var updated decimal.Decimal
	query := `UPDATE balances SET amount = amount + $1 WHERE id = $2 RETURNING amount`
	err := q.QueryRowContext(ctx, query, amount, balanceID).Scan(&updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("balance %d: %w", balanceID, util.ErrNotFound)
		}
		return decimal.Zero, fmt.Errorf("failed to credit balance %d: %w", balanceID, err)
	}
	return updated, nil
}

// Debit subtracts amount only when enough is held, then prunes an emptied row.
func (r *BalanceRepository) Debit(ctx context.Context, q repository.DBExecutor, balanceID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	var remaining decimal.Decimal
	query := `UPDATE balances SET amount = amount - $1
              WHERE id = $2 AND amount >= $1 RETURNING amount`
	err := q.QueryRowContext(ctx, query, amount, balanceID).Scan(&remaining)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, util.ErrInsufficientFunds
		}
		return decimal.Zero, fmt.Errorf("failed to debit balance %d: %w", balanceID, err)
	}

	if remaining.IsZero() {
		if _, err := q.ExecContext(ctx, `DELETE FROM balances WHERE id = $1`, balanceID); err != nil {
			return decimal.Zero, fmt.Errorf("failed to prune empty balance %d: %w", balanceID, err)
		}
	}
	return remaining, nil
}
