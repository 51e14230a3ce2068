package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Token types
const (
	TokenTypeAccess = "access"
	TokenTypeReset  = "reset"
)

// Token errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidTokenType = errors.New("invalid token type")
)

// Claims carried by access and password reset tokens
type Claims struct {
	UserID        uint   `json:"user_id,omitempty"`
	ResetPassword uint   `json:"reset_password,omitempty"`
	PasswordEpoch int64  `json:"pwe,omitempty"`
	Type          string `json:"type"`
	jwt.RegisteredClaims
}

// Subject returns the user the token was issued for
func (c *Claims) Subject() uint {
	if c.Type == TokenTypeReset {
		return c.ResetPassword
	}
	return c.UserID
}

// TokenManager signs and verifies HS256 tokens
type TokenManager struct {
	secret    []byte
	accessTTL time.Duration
	resetTTL  time.Duration
	now       func() time.Time
}

// NewTokenManager creates a token manager
func NewTokenManager(secret string, accessTTL, resetTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		resetTTL:  resetTTL,
		now:       time.Now,
	}
}

// AccessTTL is the lifetime of access tokens
func (m *TokenManager) AccessTTL() time.Duration {
	return m.accessTTL
}

// GenerateAccessToken issues a session token for userID
func (m *TokenManager) GenerateAccessToken(userID uint) (string, error) {
	return m.sign(Claims{UserID: userID, Type: TokenTypeAccess}, m.accessTTL)
}

// GenerateResetToken issues a password reset token. passwordChangedAt binds
// the token to the current password so it stops working once used.
func (m *TokenManager) GenerateResetToken(userID uint, passwordChangedAt time.Time) (string, error) {
	return m.sign(Claims{
		ResetPassword: userID,
		PasswordEpoch: passwordChangedAt.Unix(),
		Type:          TokenTypeReset,
	}, m.resetTTL)
}

// Parse verifies signature, expiry and token type
func (m *TokenManager) Parse(tokenStr, expectedType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != expectedType {
		return nil, ErrInvalidTokenType
	}
	return claims, nil
}

func (m *TokenManager) sign(claims Claims, ttl time.Duration) (string, error) {
	now := m.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}
	return signed, nil
}
