package services

import (
	"errors"
	"fmt"

	"research-review-api/models"
)

// Sentinel errors matched with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrConflict          = errors.New("conflict")
	ErrPersistence       = errors.New("persistence failure")
)

// Workflow actions named in transition errors and audit rows.
const (
	ActionSubmit          = "submit"
	ActionResubmit        = "resubmit"
	ActionApprove         = "approve"
	ActionReject          = "reject"
	ActionRequestRevision = "request_revision"
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError reports an unknown entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InvalidTransitionError reports an action the status machine has no edge for.
type InvalidTransitionError struct {
	Action string
	Status models.PaperStatus
	Role   models.Role
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s paper in status %q as %q", e.Action, e.Status, e.Role)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// ConflictError reports that the paper changed status between read and write.
type ConflictError struct {
	PaperID  string
	Expected models.PaperStatus
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("paper %s is no longer in status %q", e.PaperID, e.Expected)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// PersistenceError wraps a failed store write or read.
type PersistenceError struct {
	Op    string
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

func (e *PersistenceError) Unwrap() error { return e.Cause }

func persistenceErr(op string, err error) error {
	var nf *NotFoundError
	var conflict *ConflictError
	if errors.As(err, &nf) || errors.As(err, &conflict) {
		return err
	}
	return &PersistenceError{Op: op, Cause: err}
}
