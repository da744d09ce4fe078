package hr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a unique code, name or pair is already used.
	ErrDuplicate = errors.New("record already exists")

	// ErrTrainingFull is returned when enrolling past a training's seat limit.
	ErrTrainingFull = errors.New("training has no seats left")

	// ErrTrainingClosed is returned when enrolling in a cancelled or
	// completed training.
	ErrTrainingClosed = errors.New("training no longer accepts participants")

	// ErrAlreadyValidated is returned when editing a validated cotation.
	ErrAlreadyValidated = errors.New("cotation already validated")
)

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

// DuplicateError names the record kind and the fields that collided.
type DuplicateError struct {
	Kind   string
	Fields []string
}

func (e *DuplicateError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s already exists", e.Kind)
	}
	return fmt.Sprintf("%s already exists with the same %v", e.Kind, e.Fields)
}

func (e *DuplicateError) Unwrap() error {
	return ErrDuplicate
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict returns true for uniqueness and state conflicts.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicate) ||
		errors.Is(err, ErrTrainingFull) ||
		errors.Is(err, ErrTrainingClosed) ||
		errors.Is(err, ErrAlreadyValidated)
}
