/*
errors.go - Error types for the payroll pipeline

ERROR CATEGORIES:
  1. Validation errors - bad input, reported per field (forms.FieldErrors)
  2. State precondition errors - the period is not in the state the
     operation needs (PreconditionError, TransitionError)
  3. Referential warnings - a grid entry points at a deactivated element
     or grade; these are logged and skipped, never returned
  4. Store errors - lookups that miss, uniqueness collisions

USAGE:
  Callers branch with errors.Is / errors.As:

    if errors.Is(err, payroll.ErrInvalidTransition) {
        // 409
    }

SEE ALSO:
  - period.go: raises TransitionError
  - api/handlers.go: maps these errors to HTTP statuses
*/
package payroll

import (
	"errors"
	"fmt"

	"github.com/Mohamedkandolo/Projet-RH/forms"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrPeriodNotFound    = errors.New("pay period not found")
	ErrEmployeeNotFound  = errors.New("employee not found")
	ErrElementNotFound   = errors.New("pay element not found")
	ErrGridEntryNotFound = errors.New("salary grid entry not found")
	ErrMovementNotFound  = errors.New("movement not found")
	ErrPayslipNotFound   = errors.New("payslip not found")
	ErrHistoryNotFound   = errors.New("pay history not found")

	// ErrDuplicatePeriod is returned when a period already exists for the month.
	ErrDuplicatePeriod = errors.New("a pay period already exists for this month")

	ErrDuplicateElement   = errors.New("pay element code or name already used")
	ErrDuplicateGridEntry = errors.New("grade already has an amount for this element")
	ErrDuplicateMovement  = errors.New("employee already has a movement for this element in the period")

	// ErrHistoryExists is returned when a payslip has already been archived.
	ErrHistoryExists = errors.New("payslip already archived")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrInvalidTransition is returned when a period is not in the state
	// an operation requires.
	ErrInvalidTransition = errors.New("invalid pay period transition")

	// ErrPeriodReadOnly is returned when writing into an archived period.
	ErrPeriodReadOnly = errors.New("pay period is archived and read-only")

	// ErrUnknownReference is returned when a write points at a grade,
	// element, employee or period that does not exist.
	ErrUnknownReference = errors.New("referenced record does not exist")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// TransitionError describes a refused state change.
type TransitionError struct {
	PeriodID string
	From     PeriodStatus
	To       PeriodStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("pay period %s cannot go from %s to %s", e.PeriodID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// PreconditionError describes an operation refused because of the period state.
type PreconditionError struct {
	Op       string
	PeriodID string
	Status   PeriodStatus
	Want     PeriodStatus
}

func (e *PreconditionError) Error() string {
	if e.Want == "" {
		return fmt.Sprintf("%s: pay period %s is %s", e.Op, e.PeriodID, e.Status)
	}
	return fmt.Sprintf("%s: pay period %s is %s, must be %s", e.Op, e.PeriodID, e.Status, e.Want)
}

func (e *PreconditionError) Unwrap() error {
	if e.Status == StatusArchived && e.Want != StatusClosed {
		return ErrPeriodReadOnly
	}
	return ErrInvalidTransition
}

// ArchiveError reports a partially completed archival. The period stays
// CLOSED and a later run resumes with the payslips that were not archived.
type ArchiveError struct {
	PeriodID string
	Archived int
	Err      error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("archive period %s stopped after %d payslips: %v", e.PeriodID, e.Archived, e.Err)
}

func (e *ArchiveError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPeriodNotFound) ||
		errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrElementNotFound) ||
		errors.Is(err, ErrGridEntryNotFound) ||
		errors.Is(err, ErrMovementNotFound) ||
		errors.Is(err, ErrPayslipNotFound) ||
		errors.Is(err, ErrHistoryNotFound)
}

// IsConflict returns true if the error is a state or uniqueness conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrPeriodReadOnly) ||
		errors.Is(err, ErrDuplicatePeriod) ||
		errors.Is(err, ErrDuplicateElement) ||
		errors.Is(err, ErrDuplicateGridEntry) ||
		errors.Is(err, ErrDuplicateMovement) ||
		errors.Is(err, ErrHistoryExists)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	_, isForm := forms.AsFieldErrors(err)
	return isForm ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrUnknownReference) ||
		IsConflict(err)
}
