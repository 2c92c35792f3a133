package services

import (
	"errors"
	"fmt"
	"time"

	"cafe-order/store"
)

// ValidationError reports missing or malformed input.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// AuthError reports bad credentials or an unusable token.
type AuthError struct {
	Msg string
}

func (e *AuthError) Error() string { return e.Msg }

// NotFoundError reports an unknown id.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// ThrottleError means a login was refused because of recent failures.
type ThrottleError struct {
	RetryAfter time.Duration
}

func (e *ThrottleError) Error() string {
	return fmt.Sprintf("too many failed attempts, try again in %d seconds", int(e.RetryAfter.Seconds()))
}

var (
	errInvalidCredentials = &AuthError{Msg: "invalid credentials"}
	errInvalidToken       = &AuthError{Msg: "invalid or expired token"}
	errUnknownAdmin       = &AuthError{Msg: "user not found"}
)

// notFound maps store.ErrNotFound onto a NotFoundError and wraps anything else.
func notFound(err error, resource, id, op string) error {
	if errors.Is(err, store.ErrNotFound) {
		return &NotFoundError{Resource: resource, ID: id}
	}
	return fmt.Errorf("%s: %w", op, err)
}
