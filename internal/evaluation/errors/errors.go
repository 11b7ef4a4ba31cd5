// Package errors defines the sentinel errors surfaced by the
// evaluation core and their classification for transport mapping.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput covers missing or malformed fields rejected before
	// any mutation.
	ErrInvalidInput = fmt.Errorf("invalid input")
	// ErrEmptyCriteria is returned when a department is created or
	// redefined without a single usable criterion.
	ErrEmptyCriteria = fmt.Errorf("at least one criterion with a name is required")
	// ErrIncompleteScore is returned when a score entry is missing its
	// criteria id or its score value.
	ErrIncompleteScore = fmt.Errorf("incomplete score data")

	ErrDepartmentNotFound = fmt.Errorf("department not found")
	ErrEmployeeNotFound   = fmt.Errorf("employee not found")
	ErrEvaluationNotFound = fmt.Errorf("evaluation not found")
	ErrCriteriaNotFound   = fmt.Errorf("criteria not found")

	ErrDuplicateName           = fmt.Errorf("duplicate department name")
	ErrDuplicateEmployeeNumber = fmt.Errorf("duplicate employee number")
	// ErrDuplicateEvaluation is returned when an evaluation already
	// exists for the same (employee, month, year) key.
	ErrDuplicateEvaluation = fmt.Errorf("evaluation already exists for this period")

	// ErrCriteriaDepartmentMismatch is returned when a score references a
	// criterion from a department other than the employee's.
	ErrCriteriaDepartmentMismatch = fmt.Errorf("criteria does not belong to the employee's department")
	// ErrDepartmentHasEmployees blocks deleting a department that is
	// still referenced by employees.
	ErrDepartmentHasEmployees = fmt.Errorf("department still has employees")
)

// Kind classifies an error for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindIntegrity
)

// Classify maps a core error chain to its Kind. Anything unrecognized
// is internal.
func Classify(err error) Kind {
	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrEmptyCriteria),
		errors.Is(err, ErrIncompleteScore):
		return KindValidation
	case errors.Is(err, ErrDepartmentNotFound),
		errors.Is(err, ErrEmployeeNotFound),
		errors.Is(err, ErrEvaluationNotFound),
		errors.Is(err, ErrCriteriaNotFound):
		return KindNotFound
	case errors.Is(err, ErrDuplicateName),
		errors.Is(err, ErrDuplicateEmployeeNumber),
		errors.Is(err, ErrDuplicateEvaluation):
		return KindConflict
	case errors.Is(err, ErrCriteriaDepartmentMismatch),
		errors.Is(err, ErrDepartmentHasEmployees):
		return KindIntegrity
	default:
		return KindInternal
	}
}
