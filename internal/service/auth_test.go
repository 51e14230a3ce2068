package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"example.com/backstage/services/inventory/internal/auth"
	"example.com/backstage/services/inventory/internal/models"
	"example.com/backstage/services/inventory/internal/repository"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const strongPassword = "Str0ng!Pass"

var meta = RequestMeta{ClientIP: "203.0.113.7", UserAgent: "test"}

func existingUser(t *testing.T) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(strongPassword, 4)
	require.NoError(t, err)
	return &models.User{
		Model:              models.Model{ID: 3},
		Username:           "jane",
		Email:              "jane@example.com",
		PasswordHash:       hash,
		IsActive:           true,
		LastPasswordChange: fixedNow.Add(-24 * time.Hour),
	}
}

func TestRegisterLowerCasesAndHashes(t *testing.T) {
	f := newFixture(t, PolicyCascade)
	f.repo.On("FindUserByUsername", mock.Anything, "jane.doe").Return(nil, repository.ErrNotFound)
	f.repo.On("FindUserByEmail", mock.Anything, "jane@example.com").Return(nil, repository.ErrNotFound)
	f.repo.On("CreateUser", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)

	user, err := f.svc.Register(context.Background(), RegisterInput{
		Username:        "Jane.Doe",
		Email:           "Jane@Example.com",
		Password:        strongPassword,
		ConfirmPassword: strongPassword,
	}, meta)

	require.NoError(t, err)
	require.Equal(t, "jane.doe", user.Username)
	require.Equal(t, "jane@example.com", user.Email)
	require.True(t, user.IsActive)
	require.NotEqual(t, strongPassword, user.PasswordHash)
	require.NoError(t, auth.CheckPassword(user.PasswordHash, strongPassword))
	require.Equal(t, fixedNow, user.LastPasswordChange)
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	f := newFixture(t, PolicyCascade)

	_, err := f.svc.Register(context.Background(), RegisterInput{
		Username:        "jane",
		Email:           "jane@example.com",
		Password:        "password",
		ConfirmPassword: "password",
	}, meta)

	var ierr *InputError
	require.True(t, errors.As(err, &ierr))
	f.repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestRegisterTakenUsername(t *testing.T) {
	f := newFixture(t, PolicyCascade)
	f.repo.On("FindUserByUsername", mock.Anything, "jane").Return(existingUser(t), nil)

	_, err := f.svc.Register(context.Background(), RegisterInput{
		Username:        "jane",
		Email:           "other@example.com",
		Password:        strongPassword,
		ConfirmPassword: strongPassword,
	}, meta)

	var cerr *ConflictError
	require.True(t, errors.As(err, &cerr))
	require.Equal(t, "username", cerr.Field)
}

func TestLoginIssuesTokenAndRecordsLastLogin(t *testing.T) {
	f := newFixture(t, PolicyCascade)
	user := existingUser(t)
	f.repo.On("FindUserByEmail", mock.Anything, "jane@example.com").Return(user, nil)
	f.repo.On("UpdateUser", mock.Anything, user).Return(nil)

	result, err := f.svc.Login(context.Background(), LoginInput{Email: "JANE@example.com", Password: strongPassword}, meta)

	require.NoError(t, err)
	require.False(t, result.PasswordExpired)
	require.Equal(t, fixedNow, *user.LastLogin)

	claims, err := f.tokens.Parse(result.Token, auth.TokenTypeAccess)
	require.NoError(t, err)
	require.Equal(t, uint(3), claims.Subject())
}

func TestLoginFlagsExpiredPassword(t *testing.T) {
	f := newFixture(t, PolicyCascade)
	user := existingUser(t)
	user.LastPasswordChange = fixedNow.Add(-91 * 24 * time.Hour)
	f.repo.On("FindUserByEmail", mock.Anything, "jane@example.com").Return(user, nil)
	f.repo.On("UpdateUser", mock.Anything, user).Return(nil)

	result, err := f.svc.Login(context.Background(), LoginInput{Email: "jane@example.com", Password: strongPassword}, meta)

	require.NoError(t, err)
	require.True(t, result.PasswordExpired)
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t, PolicyCascade)
	inactive := existingUser(t)
	inactive.Email = "old@example.com"
	inactive.IsActive = false
	f.repo.On("FindUserByEmail", mock.Anything, "jane@example.com").Return(existingUser(t), nil)
	f.repo.On("FindUserByEmail", mock.Anything, "old@example.com").Return(inactive, nil)
	f.repo.On("FindUserByEmail", mock.Anything, "nobody@example.com").Return(nil, repository.ErrNotFound)

	_, err := f.svc.Login(context.Background(), LoginInput{Email: "jane@example.com", Password: "Wr0ng!Pass"}, meta)
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = f.svc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: strongPassword}, meta)
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = f.svc.Login(context.Background(), LoginInput{Email: "old@example.com", Password: strongPassword}, meta)
	require.ErrorIs(t, err, ErrAccountInactive)

	f.repo.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything)
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t, PolicyCascade)
	user := existingUser(t)
	f.repo.On("FindUserByEmail", mock.Anything, "jane@example.com").Return(user, nil)
	f.repo.On("FindUserByID", mock.Anything, uint(3)).Return(user, nil)
	f.repo.On("UpdateUser", mock.Anything, user).Return(nil)

	require.NoError(t, f.svc.RequestPasswordReset(context.Background(), "jane@example.com", meta))
	require.Equal(t, []string{"jane@example.com"}, f.mailer.to)
	token := f.mailer.token

	confirm := ResetConfirmInput{Token: token, Password: "N3w!Password", ConfirmPassword: "N3w!Password"}
	require.NoError(t, f.svc.ConfirmPasswordReset(context.Background(), confirm, meta))
	require.NoError(t, auth.CheckPassword(user.PasswordHash, "N3w!Password"))
	require.Equal(t, fixedNow, user.LastPasswordChange)

	// the same token cannot be used twice
	require.ErrorIs(t, f.svc.ConfirmPasswordReset(context.Background(), confirm, meta), ErrInvalidResetToken)
}

func TestPasswordResetUnknownEmailIsSilent(t *testing.T) {
	f := newFixture(t, PolicyCascade)
	f.repo.On("FindUserByEmail", mock.Anything, "nobody@example.com").Return(nil, repository.ErrNotFound)

	require.NoError(t, f.svc.RequestPasswordReset(context.Background(), "nobody@example.com", meta))
	require.Empty(t, f.mailer.to)
}

func TestConfirmPasswordResetRejectsAccessToken(t *testing.T) {
	f := newFixture(t, PolicyCascade)
	token, err := f.tokens.GenerateAccessToken(3)
	require.NoError(t, err)

	err = f.svc.ConfirmPasswordReset(context.Background(), ResetConfirmInput{
		Token:           token,
		Password:        "N3w!Password",
		ConfirmPassword: "N3w!Password",
	}, meta)

	require.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t, PolicyCascade)
	user := existingUser(t)
	f.repo.On("FindUserByID", mock.Anything, uint(3)).Return(user, nil)
	token, err := f.tokens.GenerateAccessToken(3)
	require.NoError(t, err)

	got, err := f.svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "jane", got.Username)

	_, err = f.svc.Authenticate(context.Background(), "garbage")
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestExpiredPasswords(t *testing.T) {
	f := newFixture(t, PolicyCascade)
	f.repo.On("ListUsersWithPasswordBefore", mock.Anything, fixedNow.Add(-90*24*time.Hour)).
		Return([]*models.User{existingUser(t)}, nil)

	users, err := f.svc.ExpiredPasswords(context.Background())

	require.NoError(t, err)
	require.Len(t, users, 1)
}

func TestSetUserActive(t *testing.T) {
	f := newFixture(t, PolicyCascade)
	user := existingUser(t)
	f.repo.On("FindUserByUsername", mock.Anything, "jane").Return(user, nil)
	f.repo.On("UpdateUser", mock.Anything, user).Return(nil)

	got, err := f.svc.SetUserActive(context.Background(), "Jane", false)

	require.NoError(t, err)
	require.False(t, got.IsActive)
}

func TestPasswordsOverBcryptLimitAreInputErrors(t *testing.T) {
	f := newFixture(t, PolicyCascade)
	long := "Str0ng!" + strings.Repeat("x", 66)

	_, err := f.svc.Register(context.Background(), RegisterInput{
		Username:        "jane",
		Email:           "jane@example.com",
		Password:        long,
		ConfirmPassword: long,
	}, meta)
	var ierr *InputError
	require.True(t, errors.As(err, &ierr))
	require.Contains(t, ierr.Messages, "Password must be at most 72 bytes long")

	err = f.svc.ConfirmPasswordReset(context.Background(), ResetConfirmInput{
		Token:           "unused",
		Password:        long,
		ConfirmPassword: long,
	}, meta)
	require.True(t, errors.As(err, &ierr))
	f.repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything)
}
