package invoice

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when an invoice or audit record does not exist.
var ErrNotFound = errors.New("invoice not found")

// ValidationError reports one or more rejected input items. Items name the
// fields or checklist entries that failed, so callers can surface an itemized
// response.
type ValidationError struct {
	Items []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Items, ", ")
}

// NewValidationError builds a ValidationError from item names.
func NewValidationError(items ...string) *ValidationError {
	return &ValidationError{Items: items}
}

// ConflictError reports a claim status transition that is not allowed from the
// record's current status, including the race where the status changed between
// read and update.
type ConflictError struct {
	From string
	To   string
}

func (e *ConflictError) Error() string {
	from := e.From
	if from == "" {
		from = "none"
	}
	return fmt.Sprintf("claim status transition not allowed: %s -> %s", from, e.To)
}
