package memberauth

import (
	"errors"
	"fmt"
)

// Error codes returned in AuthError.Code. Callers can switch on these to
// render precise messages.
const (
	ErrCodeDuplicateUsername   = "duplicate_username"
	ErrCodeUsernameTaken       = "username_taken"
	ErrCodeInvalidUsername     = "invalid_username"
	ErrCodeInvalidCreds        = "invalid_credentials"
	ErrCodeLocalPasswordExists = "local_password_exists"
	ErrCodeUnknownProvider     = "unknown_provider"
	ErrCodeMissingField        = "missing_field"
	ErrCodePersistence         = "persistence_failed"
)

// Sentinel errors surfaced by UserStore implementations on lookup misses.
// The managers translate these into boolean outcomes where the contract
// calls for a quiet failure.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrLinkNotFound     = errors.New("oauth link not found")
	ErrProviderNotFound = errors.New("provider not registered")
)

// AuthError is a structured error with a stable code and the field (if any)
// the condition relates to.
type AuthError struct {
	Code    string
	Message string
	Field   string
}

func (e *AuthError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAuthError creates an AuthError with the given code, message and field
func NewAuthError(code, message, field string) *AuthError {
	return &AuthError{Code: code, Message: message, Field: field}
}

// persistenceError wraps an unexpected store failure so raw store errors
// never leak to callers on loud paths.
func persistenceError(op string, err error) *AuthError {
	return NewAuthError(ErrCodePersistence, fmt.Sprintf("%s: %v", op, err), "")
}

// IsAuthCode reports whether err is an *AuthError carrying the given code.
func IsAuthCode(err error, code string) bool {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}
