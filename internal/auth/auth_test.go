package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Str0ng!Pass", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEqual(t, "Str0ng!Pass", hash)

	require.NoError(t, CheckPassword(hash, "Str0ng!Pass"))
	require.Equal(t, ErrInvalidCredentials, CheckPassword(hash, "wrong"))
}

func TestPasswordProblems(t *testing.T) {
	require.Empty(t, PasswordProblems("Str0ng!Pass"))
	require.True(t, StrongPassword("Abcdef1?"))

	problems := PasswordProblems("abc")
	require.Len(t, problems, 4)
	require.Contains(t, problems, "Password must be at least 8 characters long")
	require.Contains(t, problems, "Password must contain at least one special character")

	require.Equal(t, []string{"Password must contain at least one number"}, PasswordProblems("Abcdefg!"))
}

func TestPasswordProblemsByteLimit(t *testing.T) {
	atLimit := "Str0ng!" + strings.Repeat("a", MaxPasswordBytes-7)
	require.Empty(t, PasswordProblems(atLimit))

	// multi-byte runes count by their encoded size
	tooLong := "Str0ng!" + strings.Repeat("é", 33)
	require.Equal(t, []string{"Password must be at most 72 bytes long"}, PasswordProblems(tooLong))
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, 10*time.Minute)

	token, err := m.GenerateAccessToken(42)
	require.NoError(t, err)

	claims, err := m.Parse(token, TokenTypeAccess)
	require.NoError(t, err)
	require.Equal(t, uint(42), claims.Subject())
}

func TestResetTokenCarriesUserAndEpoch(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, 600*time.Second)
	changed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	token, err := m.GenerateResetToken(7, changed)
	require.NoError(t, err)

	claims, err := m.Parse(token, TokenTypeReset)
	require.NoError(t, err)
	require.Equal(t, uint(7), claims.Subject())
	require.Equal(t, changed.Unix(), claims.PasswordEpoch)
	require.Equal(t, 600*time.Second, claims.ExpiresAt.Sub(claims.IssuedAt.Time))

	_, err = m.Parse(token, TokenTypeAccess)
	require.Equal(t, ErrInvalidTokenType, err)
}

func TestExpiredToken(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, 600*time.Second)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := m.GenerateAccessToken(1)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Parse(token, TokenTypeAccess)
	require.Equal(t, ErrTokenExpired, err)
}

func TestTokenSignedWithOtherSecretIsRejected(t *testing.T) {
	token, err := NewTokenManager("one", time.Hour, time.Minute).GenerateAccessToken(1)
	require.NoError(t, err)

	_, err = NewTokenManager("two", time.Hour, time.Minute).Parse(token, TokenTypeAccess)
	require.True(t, errors.Is(err, ErrInvalidToken))
}
