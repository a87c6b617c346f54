// Package services defines the business logic for accounts, quotes, and sell
// orders. This file centralizes common service-level error values so that they
// can be consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

// Account-related errors.
var (
	// ErrInvalidUserType is returned when a signup or login names a user type
	// outside the allowed set ("customer" or "agent").
	ErrInvalidUserType = errors.New("user type must be customer or agent")

	// ErrDuplicatePhone is returned when a phone number is already registered
	// for the requested user type.
	ErrDuplicatePhone = errors.New("phone already registered for this user type")

	// ErrInvalidCredentials is returned for a failed login. It deliberately
	// does not distinguish an unknown phone from a wrong password.
	ErrInvalidCredentials = errors.New("invalid phone or password")

	// ErrWeakPassword is returned when a signup password does not meet the
	// minimum length requirement.
	ErrWeakPassword = errors.New("password too short")

	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// Order-related errors.
var (
	// ErrInvalidOrder is returned when an order request is missing required
	// fields or carries a negative price.
	ErrInvalidOrder = errors.New("invalid order request")

	// ErrOrderNotFound indicates that the requested order does not exist or
	// is not accessible to the current user.
	ErrOrderNotFound = errors.New("order not found")

	// ErrOrderConflict is returned when an agent attempts to claim an order
	// that is no longer pending, or to update an order they do not hold.
	ErrOrderConflict = errors.New("order already taken")

	// ErrInvalidStatus is returned for an order status transition outside the
	// allowed lifecycle.
	ErrInvalidStatus = errors.New("invalid order status")
)

// Quote-related errors.
var (
	// ErrInvalidQuote is returned when a quote request is missing the model
	// name or carries an unknown screen condition.
	ErrInvalidQuote = errors.New("invalid quote request")

	// ErrQuoteNotFound indicates that the requested quote session does not
	// exist or has expired.
	ErrQuoteNotFound = errors.New("quote not found")
)
