package services

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	CodeForbidden        ErrorCode = "FORBIDDEN"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeInvalidInput     ErrorCode = "INVALID_INPUT"
	CodeInvalidReference ErrorCode = "INVALID_REFERENCE"
	CodeSelfDependency   ErrorCode = "SELF_DEPENDENCY"
	CodeDependencyCycle  ErrorCode = "DEPENDENCY_CYCLE"
	CodeHasDependents    ErrorCode = "HAS_DEPENDENTS"
	CodeInfrastructure   ErrorCode = "INFRASTRUCTURE"
)

// DomainError is the structured error crossing the service boundary.
// Expected conditions are returned as values, never panics; only the
// INFRASTRUCTURE code is eligible for caller-side retry.
type DomainError struct {
	Code    ErrorCode
	Message string
	Details map[string]any
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

func NewUnauthorized() *DomainError {
	return &DomainError{Code: CodeUnauthorized, Message: "caller identity is missing or invalid"}
}

// NewForbidden carries no detail beyond "not permitted" so existence of
// out-of-scope projects and tasks is not leaked.
func NewForbidden() *DomainError {
	return &DomainError{Code: CodeForbidden, Message: "not permitted"}
}

func NewNotFound(resource string) *DomainError {
	return &DomainError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Details: map[string]any{"resource": resource},
	}
}

func NewInvalidInput(field, reason string) *DomainError {
	return &DomainError{
		Code:    CodeInvalidInput,
		Message: fmt.Sprintf("invalid value for field '%s': %s", field, reason),
		Details: map[string]any{"field": field, "reason": reason},
	}
}

func NewInvalidReference(field, id string) *DomainError {
	return &DomainError{
		Code:    CodeInvalidReference,
		Message: fmt.Sprintf("%s references '%s' which does not exist", field, id),
		Details: map[string]any{"field": field, "id": id},
	}
}

func NewSelfDependency(id string) *DomainError {
	return &DomainError{
		Code:    CodeSelfDependency,
		Message: "a task cannot depend on itself",
		Details: map[string]any{"id": id},
	}
}

func NewDependencyCycle(id string) *DomainError {
	return &DomainError{
		Code:    CodeDependencyCycle,
		Message: "dependency would create a cycle",
		Details: map[string]any{"id": id},
	}
}

func NewHasDependents(count int64) *DomainError {
	return &DomainError{
		Code:    CodeHasDependents,
		Message: fmt.Sprintf("%d task(s) depend on this task", count),
		Details: map[string]any{"dependents": count},
	}
}

func NewInfrastructure(op string, err error) *DomainError {
	return &DomainError{
		Code:    CodeInfrastructure,
		Message: fmt.Sprintf("store operation '%s' failed", op),
		Err:     err,
	}
}

// IsCode reports whether err is a DomainError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
