package token

import (
	"errors"
	"fmt"
)

// Kind classifies a failed invocation. Hard failures abort the transaction
// (Fabric discards the write set), soft failures surface as a false result.
type Kind string

const (
	ErrInvalidAccount        Kind = "InvalidAccount"
	ErrInvalidAmount         Kind = "InvalidAmount"
	ErrInvalidArgument       Kind = "InvalidArgument"
	ErrDuplicateOperation    Kind = "DuplicateOperation"
	ErrInsufficientFunds     Kind = "InsufficientFunds"
	ErrInsufficientAllowance Kind = "InsufficientAllowance"
	ErrUnauthorized          Kind = "Unauthorized"
	ErrNotFound              Kind = "NotFound"
	ErrInvalidState          Kind = "InvalidState"
	ErrAlreadySet            Kind = "AlreadySet"
	ErrAlreadyUnset          Kind = "AlreadyUnset"
)

// TokenError is the single error type every operation returns on a hard
// failure, so callers can branch on the kind instead of matching messages.
type TokenError struct {
	Kind    Kind
	Message string
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func errorf(kind Kind, format string, args ...interface{}) *TokenError {
	return &TokenError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from an error, or "" for non-token errors.
func KindOf(err error) Kind {
	var te *TokenError
	if errors.As(err, &te) {
		return te.Kind
	}
	return ""
}
