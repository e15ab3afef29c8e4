// internal/repository/postgres/schema.go
package postgres

import (
	"context"
	"fmt"

	"fxwallet/internal/repository"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
        id         BIGSERIAL PRIMARY KEY,
        username   VARCHAR(64)  NOT NULL UNIQUE,
        email      VARCHAR(255) NOT NULL UNIQUE,
        created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS balances (
        id       BIGSERIAL PRIMARY KEY,
        user_id  BIGINT        NOT NULL REFERENCES users (id) ON DELETE CASCADE,
        currency CHAR(3)       NOT NULL,
        amount   NUMERIC(20,2) NOT NULL CHECK (amount >= 0),
        UNIQUE (user_id, currency)
    )`,
}

// Migrate creates the tables the ledger needs when they do not exist yet.
func Migrate(ctx context.Context, q repository.DBExecutor) error {
	for _, stmt := range schema {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
