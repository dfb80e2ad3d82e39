package domain

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var (
	ErrUserAlreadyExists   = errors.New("user already exists")
	ErrRecordNotFound      = errors.New("record not found")
	ErrEditConflict        = errors.New("edit conflict")
	ErrValidation          = errors.New("validation failed")
	ErrUnauthenticated     = errors.New("authentication required")
	ErrUnauthorized        = errors.New("not authorized")
	ErrConflict            = errors.New("conflicting state transition")
	ErrSeatAlreadyReserved = fmt.Errorf("%w: seat(s) are already reserved", ErrConflict)
	ErrExternalService     = errors.New("external service failure")
	ErrPaymentNotSettled   = errors.New("payment is not settled")
)

// ValidationError collects field level issues of a rejected input.
// It matches ErrValidation with errors.Is.
type ValidationError struct {
	Issues map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Issues: make(map[string]string)}
}

func (v *ValidationError) Add(field, issue string) {
	if _, exists := v.Issues[field]; !exists {
		v.Issues[field] = issue
	}
}

func (v *ValidationError) Check(ok bool, field, issue string) {
	if !ok {
		v.Add(field, issue)
	}
}

func (v *ValidationError) Valid() bool {
	return len(v.Issues) == 0
}

// Err returns nil when no issue has been recorded, so callers can write
// `return v.Err()` at the end of a validation block.
func (v *ValidationError) Err() error {
	if v.Valid() {
		return nil
	}

	return v
}

func (v *ValidationError) Error() string {
	fields := slices.Sorted(maps.Keys(v.Issues))

	parts := make([]string, len(fields))
	for i, field := range fields {
		parts[i] = fmt.Sprintf("%s %s", field, v.Issues[field])
	}

	return fmt.Sprintf("validation failed: %s", strings.Join(parts, "; "))
}

func (v *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
