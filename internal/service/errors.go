package service

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrPersistence hides storage failures from callers, details are logged
	ErrPersistence = errors.New("the change could not be saved")

	// ErrAccountInactive is returned when a deactivated user tries to log in
	ErrAccountInactive = errors.New("account is inactive")

	// ErrInvalidResetToken covers expired, forged and already used reset tokens
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
)

// InputError carries field messages for a rejected catalog or account form
type InputError struct {
	Messages []string
}

func (e *InputError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// ConflictError is returned when a unique value is already taken
type ConflictError struct {
	Field   string
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// ReferenceError is returned when a catalog entity cannot be deleted
// because historical deliveries or returns point at it
type ReferenceError struct {
	Entity        string
	ID            uint
	Blocker       string
	DeliveryCount int64
	ReturnCount   int64
}

func (e *ReferenceError) Error() string {
	if e.Blocker != "" {
		return fmt.Sprintf("cannot delete %s %d: referenced by %s", e.Entity, e.ID, e.Blocker)
	}
	return fmt.Sprintf("cannot delete %s %d: referenced by %d deliveries and %d returns",
		e.Entity, e.ID, e.DeliveryCount, e.ReturnCount)
}
