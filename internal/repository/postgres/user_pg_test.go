// internal/repository/postgres/user_pg_test.go
package postgres

import (
	"context"
	"testing"
	"time"

	"fxwallet/internal/domain"
	"fxwallet/internal/util"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	t.Run("GetUserByID", func(t *testing.T) {
		db, mock := newMockDB(t)
		created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		mock.ExpectQuery(`SELECT id, username, email, created_at FROM users WHERE id = \$1`).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "created_at"}).
				AddRow(1, "alice", "alice@example.com", created))

		user, err := repo.GetUserByID(ctx, db, 1)
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, created, user.CreatedAt)
	})

	t.Run("GetUserByIDNotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`FROM users WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "created_at"}))

		_, err := repo.GetUserByID(ctx, db, 42)
		assert.ErrorIs(t, err, util.ErrUserNotFound)
	})

	t.Run("CreateUserDuplicate", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`INSERT INTO users`).
			WillReturnError(&pq.Error{Code: uniqueViolation})

		err := repo.CreateUser(ctx, db, domain.NewUser("alice", "alice@example.com"))
		assert.ErrorIs(t, err, util.ErrConflict)
	})

	t.Run("DeleteUser", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
			WithArgs(int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.DeleteUser(ctx, db, 1))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DeleteMissingUser", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`DELETE FROM users`).WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.DeleteUser(ctx, db, 7), util.ErrUserNotFound)
	})
}
