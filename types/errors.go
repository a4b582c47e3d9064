package types

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("record not found")
	ErrInvalidState      = errors.New("invalid state transition")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

type NotFoundError struct {
	Entity string
	ID     string
}

func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return "can't find " + e.Entity + " by id: " + e.ID
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

type StateError struct {
	Entity string
	ID     string
	From   string
	To     string
}

func (e *StateError) Error() string {
	if e.To == "" {
		return e.Entity + " " + e.ID + " is " + e.From
	}

	return "cannot move " + e.Entity + " " + e.ID + " from " + e.From + " to " + e.To
}

func (e *StateError) Is(target error) bool {
	return target == ErrInvalidState
}

type InsufficientFundsError struct {
	UserID    string
	Requested int64
	Available int64
	Minimum   int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf(
		"cannot withdraw (user id: %s, amount: %d, balance: %d, minimum: %d)",
		e.UserID, e.Requested, e.Available, e.Minimum,
	)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}
