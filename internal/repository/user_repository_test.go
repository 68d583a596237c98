package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/arunalla/relief-intake-api/internal/models"
)

func TestUserRepositoryCreateAndFindByEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	user := &models.User{
		Email:        "staff@arunalla.help",
		PasswordHash: "$2a$10$hash",
		FullName:     "Kusum Silva",
		Role:         models.RoleManager,
		Active:       true,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	require.NotEmpty(t, user.ID)
	require.False(t, user.CreatedAt.IsZero())

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "role", "active", "last_login", "created_at", "updated_at"}).
		AddRow(user.ID, user.Email, user.PasswordHash, user.FullName, "MANAGER", true, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, password_hash, full_name, role, active, last_login, created_at, updated_at")).
		WithArgs("staff@arunalla.help").
		WillReturnRows(rows)

	found, err := repo.FindByEmail(context.Background(), "staff@arunalla.help")
	require.NoError(t, err)
	require.Equal(t, user.ID, found.ID)
	require.Equal(t, models.RoleManager, found.Role)
	require.Nil(t, found.LastLogin)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryRefreshTokenLifecycle(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO refresh_tokens")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	token := &models.RefreshToken{
		ID:        "tok-1",
		UserID:    "usr-1",
		Token:     "opaque-token",
		ExpiresAt: now.Add(7 * 24 * time.Hour),
		CreatedAt: now,
	}
	require.NoError(t, repo.CreateRefreshToken(context.Background(), token))

	rows := sqlmock.NewRows([]string{"id", "user_id", "token", "expires_at", "created_at", "revoked", "revoked_at", "ip_address", "user_agent"}).
		AddRow("tok-1", "usr-1", "opaque-token", token.ExpiresAt, now, false, nil, "", "")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, token, expires_at, created_at, revoked, revoked_at, ip_address, user_agent")).
		WithArgs("opaque-token").
		WillReturnRows(rows)

	stored, err := repo.FindRefreshToken(context.Background(), "opaque-token")
	require.NoError(t, err)
	require.Equal(t, "usr-1", stored.UserID)
	require.False(t, stored.Revoked)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $1 WHERE id = $2")).
		WithArgs(sqlmock.AnyArg(), "tok-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.RevokeRefreshToken(context.Background(), "tok-1", now))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $1 WHERE user_id = $2 AND revoked = FALSE")).
		WithArgs(sqlmock.AnyArg(), "usr-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	require.NoError(t, repo.RevokeUserRefreshTokens(context.Background(), "usr-1"))

	require.NoError(t, mock.ExpectationsWereMet())
}
