package domain

import (
	"errors"
	"fmt"
)

// Common error types
type ErrNotFound struct {
	Entity string
	ID     string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found with ID: %s", e.Entity, e.ID)
}

// ErrCustomerNotFound is returned when a customer does not exist in the organization
type ErrCustomerNotFound struct {
	Message string
}

func (e *ErrCustomerNotFound) Error() string {
	return e.Message
}

// ErrSegmentNotFound is returned when a segment does not exist in the organization
type ErrSegmentNotFound struct {
	Message string
}

func (e *ErrSegmentNotFound) Error() string {
	return e.Message
}

// ErrCustomerProcessing wraps the failure of one customer inside a bulk run
type ErrCustomerProcessing struct {
	CustomerID string
	Err        error
}

func (e *ErrCustomerProcessing) Error() string {
	return fmt.Sprintf("failed to process customer %s: %v", e.CustomerID, e.Err)
}

func (e *ErrCustomerProcessing) Unwrap() error {
	return e.Err
}

// ValidationError represents an error that occurs due to invalid input or parameters
type ValidationError struct {
	Message string
}

// Error implements the error interface
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a new validation error with the given message
func NewValidationError(message string) error {
	return ValidationError{
		Message: message,
	}
}

// IsNotFound reports whether err is one of the not found errors
func IsNotFound(err error) bool {
	var notFound *ErrNotFound
	var customerNotFound *ErrCustomerNotFound
	var segmentNotFound *ErrSegmentNotFound
	return errors.As(err, &notFound) ||
		errors.As(err, &customerNotFound) ||
		errors.As(err, &segmentNotFound)
}

// IsValidationError reports whether err is a ValidationError
func IsValidationError(err error) bool {
	var validationErr ValidationError
	return errors.As(err, &validationErr)
}
