package records

import (
	"errors"
	"fmt"

	"github.com/openroad/driveadmin/internal/schema"
)

// ErrNotFound is returned when no record exists for the requested id.
var ErrNotFound = errors.New("record not found")

// ErrUnknownEntity is returned for entity types absent from the registry.
var ErrUnknownEntity = errors.New("unknown entity type")

// ConflictError signals that a mutation carried a stale or undecodable
// version token. It carries the record's current state so the caller can
// retry informed.
type ConflictError struct {
	Current schema.Record
	ETag    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict: record is at %s", e.ETag)
}

// ValidationError signals a malformed field name or value in a request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Reason)
}
