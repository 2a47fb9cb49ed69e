// Package errs defines the error taxonomy shared by the store, the
// authorization gate and the lifecycle rules. Every error carries the entity
// type and, where known, the offending field or id so handlers can render a
// precise message instead of a generic fault.
package errs

import (
	"errors"
	"fmt"
)

// ValidationError reports a malformed or missing field, or a foreign key
// referencing a nonexistent or wrong-typed entity.
type ValidationError struct {
	Entity  string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: invalid %s: %s", e.Entity, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Entity, e.Message)
}

// Validation builds a ValidationError.
func Validation(entity, field, message string) error {
	return &ValidationError{Entity: entity, Field: field, Message: message}
}

// NotFoundError reports a missing entity, or one the caller may not know
// exists (patient-scoped resources return NotFound instead of Forbidden to
// avoid enumeration).
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Entity)
}

// NotFound builds a NotFoundError.
func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ForbiddenError reports an operation the principal's role or ownership does
// not permit.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

// Forbidden builds a ForbiddenError.
func Forbidden(message string) error {
	return &ForbiddenError{Message: message}
}

// ConflictError reports a duplicate unique field or a delete blocked by
// dependent entities.
type ConflictError struct {
	Entity  string
	Field   string
	Message string
}

func (e *ConflictError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: conflict on %s: %s", e.Entity, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Entity, e.Message)
}

// Conflict builds a ConflictError.
func Conflict(entity, field, message string) error {
	return &ConflictError{Entity: entity, Field: field, Message: message}
}

// InvalidTransitionError reports a status change outside the entity's
// transition table, with both the current and the attempted status.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: invalid status transition %q -> %q", e.Entity, e.From, e.To)
}

// InvalidTransition builds an InvalidTransitionError.
func InvalidTransition(entity, from, to string) error {
	return &InvalidTransitionError{Entity: entity, From: from, To: to}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsForbidden reports whether err is a ForbiddenError.
func IsForbidden(err error) bool {
	var target *ForbiddenError
	return errors.As(err, &target)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

// IsInvalidTransition reports whether err is an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var target *InvalidTransitionError
	return errors.As(err, &target)
}
