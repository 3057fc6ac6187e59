// Package schema holds the static description of every record kind the admin
// console can manage: which fields exist, which are searchable/sortable, and
// which records are protected from destructive operations.
//
// # Usage
//
//	registry := schema.NewRegistry()
//	s, ok := registry.Get(schema.EntityAccounts)
package schema

import "fmt"

// EntityType identifies one of the supported record kinds.
type EntityType string

const (
	EntityAccounts    EntityType = "accounts"
	EntityInstructors EntityType = "instructors"
	EntityStudents    EntityType = "students"
	EntityBookings    EntityType = "bookings"
)

// Record is a generic key-value view of a stored row. Every record carries
// an "id" and a "version" key; the remaining keys are schema fields.
type Record map[string]any

// ID returns the record's integer id, or 0 if absent.
func (r Record) ID() int64 {
	return toInt64(r["id"])
}

// Version returns the record's version counter, or 0 if absent.
func (r Record) Version() int64 {
	return toInt64(r["version"])
}

// String returns the named field coerced to a string, or "" if absent.
func (r Record) String(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case uint:
		return int64(n)
	case uint64:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

// Field describes a single column of an entity.
type Field struct {
	Name       string // column / JSON name
	Label      string // display label for the console
	Searchable bool   // participates in text search
	Sortable   bool   // valid sort key
	Filterable bool   // valid equality/range filter key
	Editable   bool   // may be changed via update / bulk update
}

// Schema is the static description of one entity kind. Immutable after
// registry construction.
type Schema struct {
	Type   EntityType
	Table  string
	Fields []Field

	// Protected reports whether destructive operations must never touch
	// this record. Nil means no record of this kind is protected.
	Protected func(Record) bool

	// DisablingStatuses are status values that revoke access when applied.
	// Writing one of these (or deleting the record) is destructive.
	DisablingStatuses []string

	fieldIndex map[string]Field
}

// FieldByName returns the field declaration for name.
func (s *Schema) FieldByName(name string) (Field, bool) {
	f, ok := s.fieldIndex[name]
	return f, ok
}

// SearchableFields lists the names of all fields participating in text search.
func (s *Schema) SearchableFields() []string {
	var names []string
	for _, f := range s.Fields {
		if f.Searchable {
			names = append(names, f.Name)
		}
	}
	return names
}

// IsSortable reports whether name is a declared sortable field.
func (s *Schema) IsSortable(name string) bool {
	f, ok := s.fieldIndex[name]
	return ok && f.Sortable
}

// IsFilterable reports whether name is a declared filterable field.
func (s *Schema) IsFilterable(name string) bool {
	f, ok := s.fieldIndex[name]
	return ok && f.Filterable
}

// IsEditable reports whether name may be changed by update operations.
func (s *Schema) IsEditable(name string) bool {
	f, ok := s.fieldIndex[name]
	return ok && f.Editable
}

// IsProtected reports whether the record must be shielded from destructive
// operations.
func (s *Schema) IsProtected(rec Record) bool {
	if s.Protected == nil {
		return false
	}
	return s.Protected(rec)
}

// IsDisablingStatus reports whether value is a status that revokes access.
func (s *Schema) IsDisablingStatus(value string) bool {
	for _, v := range s.DisablingStatuses {
		if v == value {
			return true
		}
	}
	return false
}

// Project maps a raw database row onto the schema's declared fields,
// dropping internal columns (credential hashes and the like) that generic
// reads must never expose. The record's version is always carried over.
func (s *Schema) Project(row map[string]any) Record {
	rec := make(Record, len(s.Fields)+1)
	for _, f := range s.Fields {
		if v, ok := row[f.Name]; ok {
			rec[f.Name] = v
		}
	}
	rec["version"] = Record(row).Version()
	return rec
}

func (s *Schema) buildIndex() {
	s.fieldIndex = make(map[string]Field, len(s.Fields))
	for _, f := range s.Fields {
		s.fieldIndex[f.Name] = f
	}
}
