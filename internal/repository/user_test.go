package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memopad/memopad/internal/model"
)

var userRowColumns = []string{"id", "email", "name", "password_hash", "created_at"}

func TestRepository_CreateUser(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	user := &model.User{ID: "u1", Email: "a@example.com", Name: "A", PasswordHash: "$argon2id$...", CreatedAt: now}

	t.Run("success", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec("INSERT INTO users").
			WithArgs("u1", "a@example.com", "A", "$argon2id$...", now).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, repo.CreateUser(ctx, user))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec("INSERT INTO users").
			WithArgs("u1", "a@example.com", "A", "$argon2id$...", now).
			WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

		err := repo.CreateUser(ctx, user)
		require.ErrorIs(t, err, ErrEmailExists)
	})
}

func TestRepository_GetUserByEmail(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("found", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery("FROM users").
			WithArgs("a@example.com").
			WillReturnRows(pgxmock.NewRows(userRowColumns).AddRow("u1", "a@example.com", "A", "hash", now))

		user, err := repo.GetUserByEmail(ctx, "a@example.com")
		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
		assert.Equal(t, "hash", user.PasswordHash)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery("FROM users").
			WithArgs("missing@example.com").
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetUserByEmail(ctx, "missing@example.com")
		require.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestRepository_GetUserByID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("FROM users").
		WithArgs("gone").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetUserByID(context.Background(), "gone")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(nil))
}

func TestRepository_UpdatePasswordHash(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec("UPDATE users SET password_hash").
			WithArgs("new-hash", "u1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.UpdatePasswordHash(ctx, "u1", "new-hash"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown user", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec("UPDATE users SET password_hash").
			WithArgs("new-hash", "ghost").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.UpdatePasswordHash(ctx, "ghost", "new-hash")
		require.ErrorIs(t, err, ErrUserNotFound)
	})
}
