package database

import (
	stderrors "errors"
	"strings"

	"github.com/lib/pq"
	"github.com/orfevre/attendance-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	var pqErr *pq.Error
	if !stderrors.As(err, &pqErr) {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict(formatConstraintMessage(pqErr))

	// Foreign key violation (23503)
	case "23503":
		return errors.BadRequest("referenced record does not exist")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

// mapCheckConstraint maps specific CHECK constraint names to user-friendly messages.
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "missing_minutes_nonneg"):
		return errors.Validation(map[string]string{
			"missing_minutes": "must not be negative",
		})

	case strings.Contains(constraint, "month_start_first_day"):
		return errors.Validation(map[string]string{
			"month": "month_start must be the first day of a month",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

// formatConstraintMessage creates a user-friendly message for unique constraint violations.
func formatConstraintMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "employee_month"):
		return "a timesheet for this employee and month already exists"
	default:
		return "a record with these values already exists"
	}
}

// AsAppError returns err as an AppError: pq constraint errors are mapped, anything
// else becomes a Persistence error for operation.
func AsAppError(operation string, err error) *errors.AppError {
	if err == nil {
		return nil
	}
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if mapped := MapPQError(err); mapped != nil {
		return mapped
	}
	return errors.Persistence(operation, err)
}
