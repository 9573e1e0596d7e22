package shared

import (
	"errors"
	"fmt"
	"strings"
)

// Kind groups domain failures by how callers should react to them.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindStateConflict  Kind = "state_conflict"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindUnauthorized   Kind = "unauthorized"
	KindInfrastructure Kind = "infrastructure"
)

// Stable codes shared by more than one bounded context.
const (
	CodeInvalidID          = "INVALID_ID"
	CodeInvalidMoneyAmount = "INVALID_MONEY_AMOUNT"
	CodeInvalidCurrency    = "INVALID_CURRENCY"
	CodeCurrencyMismatch   = "CURRENCY_MISMATCH"
	CodeInvalidPercentage  = "INVALID_PERCENTAGE"
	CodeInvalidQuantity    = "INVALID_QUANTITY"
	CodeInvalidTimestamp   = "INVALID_TIMESTAMP"
	CodeInfrastructure     = "INFRASTRUCTURE_ERROR"
)

// Error is the canonical domain error. Code is machine readable and stable,
// Message is for humans and may change.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) ErrorCode() string { return e.Code }
func (e *Error) ErrorKind() Kind   { return e.Kind }

func NewError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: strings.TrimSpace(message)}
}

func Validation(code, format string, args ...any) *Error {
	return NewError(KindValidation, code, fmt.Sprintf(format, args...))
}

func StateConflict(code, format string, args ...any) *Error {
	return NewError(KindStateConflict, code, fmt.Sprintf(format, args...))
}

func NotFound(code, format string, args ...any) *Error {
	return NewError(KindNotFound, code, fmt.Sprintf(format, args...))
}

func Conflict(code, format string, args ...any) *Error {
	return NewError(KindConflict, code, fmt.Sprintf(format, args...))
}

// Infrastructure wraps a store/cache failure. A nil err stays nil.
func Infrastructure(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindInfrastructure, Code: CodeInfrastructure, Message: op + ": " + err.Error(), Cause: err}
}

// TransitionError is returned when a status machine refuses a move.
type TransitionError struct {
	Code string
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot transition from %s to %s", e.Code, e.From, e.To)
}

func (e *TransitionError) ErrorCode() string { return e.Code }
func (e *TransitionError) ErrorKind() Kind   { return KindStateConflict }

type coded interface {
	ErrorCode() string
	ErrorKind() Kind
}

// CodeOf extracts the stable code, or "" for errors that carry none.
func CodeOf(err error) string {
	var c coded
	if errors.As(err, &c) {
		return c.ErrorCode()
	}
	return ""
}

// KindOf extracts the error kind, or "" for errors that carry none.
func KindOf(err error) Kind {
	var c coded
	if errors.As(err, &c) {
		return c.ErrorKind()
	}
	return ""
}

func IsCode(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
