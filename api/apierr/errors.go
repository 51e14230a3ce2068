package apierr

import (
	"net/http"

	"example.com/backstage/services/inventory/internal/aggregate"
	"example.com/backstage/services/inventory/internal/auth"
	"example.com/backstage/services/inventory/internal/report"
	"example.com/backstage/services/inventory/internal/repository"
	"example.com/backstage/services/inventory/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrorResponse defines the structure of an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// Error represents an API error
type Error struct {
	Message    string
	StatusCode int
	Code       string
	Details    interface{}
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}

// Common API errors
var (
	ErrInvalidRequest  = &Error{Message: "Invalid request", StatusCode: http.StatusBadRequest, Code: "INVALID_REQUEST"}
	ErrNotFound        = &Error{Message: "Resource not found", StatusCode: http.StatusNotFound, Code: "NOT_FOUND"}
	ErrInternalServer  = &Error{Message: "Internal server error", StatusCode: http.StatusInternalServerError, Code: "INTERNAL_ERROR"}
	ErrUnauthorized    = &Error{Message: "Unauthorized", StatusCode: http.StatusUnauthorized, Code: "UNAUTHORIZED"}
	ErrForbidden       = &Error{Message: "Forbidden", StatusCode: http.StatusForbidden, Code: "FORBIDDEN"}
	ErrConflict        = &Error{Message: "Resource already exists", StatusCode: http.StatusConflict, Code: "CONFLICT"}
	ErrValidation      = &Error{Message: "Validation error", StatusCode: http.StatusBadRequest, Code: "VALIDATION_ERROR"}
	ErrTooManyRequests = &Error{Message: "Too many requests", StatusCode: http.StatusTooManyRequests, Code: "TOO_MANY_REQUESTS"}
)

// NewError creates a new API error with custom details
func NewError(message string, statusCode int, code string) *Error {
	return &Error{
		Message:    message,
		StatusCode: statusCode,
		Code:       code,
	}
}

// NewValidationError creates a validation error with a custom message
func NewValidationError(message string) *Error {
	return NewError(message, http.StatusBadRequest, "VALIDATION_ERROR")
}

// Translate maps a service layer error to the API error sent to the client.
// The bool is false when the error is unexpected and should be logged.
func Translate(err error) (*Error, bool) {
	var (
		apiErr   *Error
		verr     *aggregate.ValidationError
		inputErr *service.InputError
		refErr   *service.ReferenceError
		conflict *service.ConflictError
	)

	switch {
	case errors.As(err, &apiErr):
		return apiErr, true
	case errors.As(err, &verr):
		return &Error{
			Message:    "Validation error",
			StatusCode: http.StatusBadRequest,
			Code:       "VALIDATION_ERROR",
			Details:    gin.H{"violations": verr.Violations},
		}, true
	case errors.As(err, &inputErr):
		return &Error{
			Message:    "Validation error",
			StatusCode: http.StatusBadRequest,
			Code:       "VALIDATION_ERROR",
			Details:    gin.H{"errors": inputErr.Messages},
		}, true
	case errors.As(err, &refErr):
		details := gin.H{"entity": refErr.Entity, "id": refErr.ID}
		if refErr.Blocker != "" {
			details["blocker"] = refErr.Blocker
		} else {
			details["deliveries"] = refErr.DeliveryCount
			details["returns"] = refErr.ReturnCount
		}
		return &Error{
			Message:    refErr.Error(),
			StatusCode: http.StatusConflict,
			Code:       "REFERENCED",
			Details:    details,
		}, true
	case errors.As(err, &conflict):
		return &Error{
			Message:    conflict.Message,
			StatusCode: http.StatusConflict,
			Code:       "CONFLICT",
			Details:    gin.H{"field": conflict.Field},
		}, true
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, report.ErrUnknownKind):
		return ErrNotFound, true
	case errors.Is(err, auth.ErrInvalidCredentials):
		return NewError("Invalid email or password", http.StatusUnauthorized, "UNAUTHORIZED"), true
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenExpired), errors.Is(err, auth.ErrInvalidTokenType):
		return NewError("Invalid or expired token", http.StatusUnauthorized, "UNAUTHORIZED"), true
	case errors.Is(err, service.ErrAccountInactive):
		return NewError("Account is deactivated", http.StatusForbidden, "FORBIDDEN"), true
	case errors.Is(err, service.ErrInvalidResetToken):
		return NewError("Invalid or expired reset token", http.StatusBadRequest, "INVALID_TOKEN"), true
	case errors.Is(err, service.ErrPersistence):
		return NewError("The change could not be saved, please try again", http.StatusInternalServerError, "INTERNAL_ERROR"), true
	}
	return ErrInternalServer, false
}

// Write sends err as a JSON error response and aborts the chain
func Write(c *gin.Context, log *logrus.Logger, err error) {
	apiErr, known := Translate(err)
	if !known && log != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Error("Unhandled error")
	}
	c.AbortWithStatusJSON(apiErr.StatusCode, ErrorResponse{
		Message: apiErr.Message,
		Code:    apiErr.Code,
		Details: apiErr.Details,
	})
}
