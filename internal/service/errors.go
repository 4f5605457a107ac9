package service

import (
	"errors"
	"fmt"
)

var (
	ErrSubmissionInProgress = errors.New("a booking request is already in progress")
	ErrResetWhileBooking    = errors.New("cannot reset while a booking request is being submitted")
	ErrUnauthenticated      = errors.New("not authenticated")
)

// ValidationError is returned before any network call when input is rejected
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// TransportError is a failed create-request call. It ends the attempt.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to submit booking request: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// PersistenceError is a failure of the history or preference store.
// It never changes the booking lifecycle.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
