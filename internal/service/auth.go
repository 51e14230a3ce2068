package service

import (
	"context"
	"strings"
	"time"

	"example.com/backstage/services/inventory/internal/auth"
	"example.com/backstage/services/inventory/internal/models"
	"example.com/backstage/services/inventory/internal/repository"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Auth event types
const (
	AuthEventRegistrationSuccess  = "registration_success"
	AuthEventRegistrationFailed   = "registration_failed"
	AuthEventLoginSuccess         = "login_success"
	AuthEventLoginFailed          = "login_failed"
	AuthEventPasswordResetRequest = "password_reset_request"
	AuthEventPasswordResetSuccess = "password_reset_success"
	AuthEventPasswordResetFailed  = "password_reset_failed"
)

// RequestMeta describes where an account request came from
type RequestMeta struct {
	ClientIP  string
	UserAgent string
}

// RegisterInput is the registration form
type RegisterInput struct {
	Username        string `json:"username" validate:"required,min=3,max=80,username"`
	Email           string `json:"email" validate:"required,email,max=120"`
	Password        string `json:"password" validate:"required,password_strength"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// LoginInput is the login form
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ResetConfirmInput sets a new password with a reset token
type ResetConfirmInput struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required,password_strength"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// LoginResult is returned on a successful login
type LoginResult struct {
	Token           string       `json:"token"`
	ExpiresAt       time.Time    `json:"expires_at"`
	User            *models.User `json:"user"`
	PasswordExpired bool         `json:"password_expired"`
}

// Register creates an active account. Username and email are stored lower-cased.
func (s *service) Register(ctx context.Context, in RegisterInput, meta RequestMeta) (*models.User, error) {
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateInput(in); err != nil {
		return nil, err
	}

	if err := s.ensureAvailable(ctx, in.Username, in.Email); err != nil {
		s.logAuthEvent(AuthEventRegistrationFailed, nil, meta, err.Error())
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:           in.Username,
		Email:              in.Email,
		PasswordHash:       hash,
		IsActive:           true,
		LastPasswordChange: s.now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			s.logAuthEvent(AuthEventRegistrationFailed, nil, meta, "user already exists")
			return nil, &ConflictError{Field: "email", Message: "Email or username already exists"}
		}
		return nil, s.persistenceError(err, "failed to create user", logrus.Fields{"username": user.Username})
	}

	s.logAuthEvent(AuthEventRegistrationSuccess, user, meta, "")
	return user, nil
}

func (s *service) ensureAvailable(ctx context.Context, username, email string) error {
	if _, err := s.repo.FindUserByUsername(ctx, username); err == nil {
		return &ConflictError{Field: "username", Message: "Username already exists"}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if _, err := s.repo.FindUserByEmail(ctx, email); err == nil {
		return &ConflictError{Field: "email", Message: "Email already registered"}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

// Login checks the credentials and issues an access token
func (s *service) Login(ctx context.Context, in LoginInput, meta RequestMeta) (*LoginResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateInput(in); err != nil {
		return nil, err
	}

	user, err := s.repo.FindUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logAuthEvent(AuthEventLoginFailed, nil, meta, "invalid credentials")
			return nil, auth.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := auth.CheckPassword(user.PasswordHash, in.Password); err != nil {
		s.logAuthEvent(AuthEventLoginFailed, user, meta, "invalid credentials")
		return nil, err
	}
	if !user.IsActive {
		s.logAuthEvent(AuthEventLoginFailed, user, meta, "account deactivated")
		return nil, ErrAccountInactive
	}

	now := s.now().UTC()
	user.LastLogin = &now
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Warn("Failed to record last login")
	}

	token, err := s.tokens.GenerateAccessToken(user.ID)
	if err != nil {
		return nil, err
	}

	result := &LoginResult{
		Token:           token,
		ExpiresAt:       now.Add(s.tokens.AccessTTL()),
		User:            user,
		PasswordExpired: user.PasswordExpired(now, s.passwordMaxAge),
	}
	s.logAuthEvent(AuthEventLoginSuccess, user, meta, "")
	return result, nil
}

// RequestPasswordReset mails a reset link when the address belongs to an
// active account. The outcome is never revealed to the caller.
func (s *service) RequestPasswordReset(ctx context.Context, email string, meta RequestMeta) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil || !user.IsActive {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			s.log.WithError(err).Error("Failed to look up user for password reset")
		}
		s.logAuthEvent(AuthEventPasswordResetRequest, nil, meta, "no active account for email")
		return nil
	}

	token, err := s.tokens.GenerateResetToken(user.ID, user.LastPasswordChange)
	if err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Error("Failed to issue reset token")
		return nil
	}
	if err := s.mailer.SendPasswordReset(ctx, user.Email, user.Username, token); err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Error("Failed to send password reset mail")
	}

	s.logAuthEvent(AuthEventPasswordResetRequest, user, meta, "")
	return nil
}

// ConfirmPasswordReset sets a new password. A token stops working once the password changed.
func (s *service) ConfirmPasswordReset(ctx context.Context, in ResetConfirmInput, meta RequestMeta) error {
	if err := validateInput(in); err != nil {
		return err
	}

	claims, err := s.tokens.Parse(in.Token, auth.TokenTypeReset)
	if err != nil {
		s.logAuthEvent(AuthEventPasswordResetFailed, nil, meta, err.Error())
		return ErrInvalidResetToken
	}

	user, err := s.repo.FindUserByID(ctx, claims.Subject())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}
	if !user.IsActive || user.LastPasswordChange.Unix() != claims.PasswordEpoch {
		s.logAuthEvent(AuthEventPasswordResetFailed, user, meta, "token no longer valid")
		return ErrInvalidResetToken
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.LastPasswordChange = s.now().UTC()
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return s.persistenceError(err, "failed to update password", logrus.Fields{"user_id": user.ID})
	}

	s.logAuthEvent(AuthEventPasswordResetSuccess, user, meta, "")
	return nil
}

// Authenticate resolves an access token to an active user
func (s *service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Parse(token, auth.TokenTypeAccess)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindUserByID(ctx, claims.Subject())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, auth.ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	return user, nil
}

func (s *service) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.repo.FindUserByID(ctx, id)
}

func (s *service) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.repo.ListUsers(ctx)
}

// SetUserActive enables or disables login for a user
func (s *service) SetUserActive(ctx context.Context, username string, active bool) (*models.User, error) {
	user, err := s.repo.FindUserByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		return nil, err
	}
	user.IsActive = active
	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, s.persistenceError(err, "failed to update user", logrus.Fields{"user_id": user.ID})
	}

	s.log.WithFields(logrus.Fields{
		"user_id":   user.ID,
		"username":  user.Username,
		"is_active": active,
	}).Info("User activation changed")
	return user, nil
}

// ExpiredPasswords lists active users whose password is older than the maximum age
func (s *service) ExpiredPasswords(ctx context.Context) ([]*models.User, error) {
	if s.passwordMaxAge <= 0 {
		return nil, nil
	}
	return s.repo.ListUsersWithPasswordBefore(ctx, s.now().Add(-s.passwordMaxAge))
}

func (s *service) logAuthEvent(eventType string, user *models.User, meta RequestMeta, details string) {
	fields := logrus.Fields{
		"event_type": eventType,
		"ip_address": meta.ClientIP,
		"user_agent": meta.UserAgent,
	}
	if user != nil {
		fields["user_id"] = user.ID
		fields["username"] = user.Username
	}
	if details != "" {
		fields["details"] = details
	}
	s.log.WithFields(fields).Info("Auth event")
}
