package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type InvalidAmountError struct {
	Amount decimal.Decimal
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount %s: must be greater than zero", e.Amount.String())
}

func (e *InvalidAmountError) Is(target error) bool { return target == ErrValidation }

// InvalidTypeError reports an unknown enum value.
type InvalidTypeError struct {
	Kind  string
	Value string
}

func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Kind, e.Value)
}

func (e *InvalidTypeError) Is(target error) bool { return target == ErrValidation }

// InvalidAccountError rejects a posting against an unknown or inactive account.
type InvalidAccountError struct {
	Number string
	Reason string
}

func (e *InvalidAccountError) Error() string {
	return fmt.Sprintf("invalid account %s: %s", e.Number, e.Reason)
}

type SameAccountError struct {
	Number string
}

func (e *SameAccountError) Error() string {
	return fmt.Sprintf("debit and credit account must differ (both %s)", e.Number)
}

type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError signals a uniqueness violation or a state that forbids the
// operation, e.g. reversing an entry twice.
type ConflictError struct {
	Entity string
	Key    string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Entity, e.Key, e.Reason)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }
