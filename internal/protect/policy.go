// Package protect decides whether a mutation may touch a record at all.
// Protection is evaluated before concurrency control so a caller can never
// learn the version state of a protected record by probing it with tokens.
package protect

import (
	"errors"

	"github.com/openroad/driveadmin/internal/schema"
)

// ErrProtected is returned when a destructive operation targets a protected
// record. It is distinct from validation errors: the request was well-formed,
// the target is simply off-limits.
var ErrProtected = errors.New("record is protected from destructive operations")

// Policy classifies operations as destructive and refuses them against
// protected records, delegating the protected predicate to the schema.
type Policy struct {
	registry *schema.Registry
}

// NewPolicy creates a protection policy over the schema registry.
func NewPolicy(registry *schema.Registry) *Policy {
	return &Policy{registry: registry}
}

// IsProtected reports whether the record is shielded from destructive
// operations.
func (p *Policy) IsProtected(t schema.EntityType, rec schema.Record) bool {
	s, ok := p.registry.Get(t)
	if !ok {
		return false
	}
	return s.IsProtected(rec)
}

// IsDestructiveChange reports whether the field changes would revoke access:
// currently, writing a disabling status value.
func (p *Policy) IsDestructiveChange(t schema.EntityType, changes schema.Record) bool {
	s, ok := p.registry.Get(t)
	if !ok {
		return false
	}
	status, present := changes["status"]
	if !present {
		return false
	}
	return s.IsDisablingStatus(schema.Record{"status": status}.String("status"))
}

// CheckUpdate refuses destructive field changes on protected records.
// Non-destructive edits (a name fix, say) remain allowed.
func (p *Policy) CheckUpdate(t schema.EntityType, rec schema.Record, changes schema.Record) error {
	if p.IsProtected(t, rec) && p.IsDestructiveChange(t, changes) {
		return ErrProtected
	}
	return nil
}

// CheckDelete refuses deletion of protected records. Deletion is always
// destructive.
func (p *Policy) CheckDelete(t schema.EntityType, rec schema.Record) error {
	if p.IsProtected(t, rec) {
		return ErrProtected
	}
	return nil
}

// CheckBulk refuses any bulk mutation of a protected record. Bulk changes
// are applied blind across many ids, so protected records are excluded
// outright rather than per-field.
func (p *Policy) CheckBulk(t schema.EntityType, rec schema.Record) error {
	if p.IsProtected(t, rec) {
		return ErrProtected
	}
	return nil
}
