// Package records provides the generic versioned store behind the admin
// console's database screens. One repository serves every registered entity
// kind through schema-driven table access; rows travel as generic records
// rather than per-entity structs, so listing, editing and bulk mutation are
// written once.
//
// Every mutation is conditional on a version token issued at read time. The
// compare-and-apply runs as a single UPDATE/DELETE guarded by
// "id = ? AND version = ?", so no interleaving write can slip between the
// check and the apply for the same record.
package records

import (
	"errors"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"github.com/openroad/driveadmin/internal/etag"
	"github.com/openroad/driveadmin/internal/schema"
)

// maxIDClaimAttempts bounds retries when two concurrent creates claim the
// same next id and one insert loses.
const maxIDClaimAttempts = 3

// Repository handles versioned CRUD for all registered entity kinds.
type Repository struct {
	db       *gorm.DB
	registry *schema.Registry
}

// NewRepository creates a record repository over the given database.
func NewRepository(db *gorm.DB, registry *schema.Registry) *Repository {
	return &Repository{db: db, registry: registry}
}

// Registry exposes the schema registry the repository was built with.
func (r *Repository) Registry() *schema.Registry {
	return r.registry
}

// Get fetches one record and the token encoding its current version.
func (r *Repository) Get(t schema.EntityType, id int64) (schema.Record, string, error) {
	s, ok := r.registry.Get(t)
	if !ok {
		return nil, "", ErrUnknownEntity
	}

	var row map[string]any
	err := r.db.Table(s.Table).Where("id = ?", id).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}

	rec := s.Project(row)
	return rec, etag.Issue(rec.Version()), nil
}

// List fetches records by id, or every record of the kind when ids is nil.
// The result preserves id order for explicit id lists.
func (r *Repository) List(t schema.EntityType, ids []int64) ([]schema.Record, error) {
	s, ok := r.registry.Get(t)
	if !ok {
		return nil, ErrUnknownEntity
	}

	tx := r.db.Table(s.Table)
	if ids != nil {
		tx = tx.Where("id IN ?", ids)
	}

	var rows []map[string]any
	if err := tx.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}

	recs := make([]schema.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, s.Project(row))
	}
	return recs, nil
}

// Create inserts a new record at version 1 and returns it with its token.
// Field names must be declared in the schema; id, version and timestamps are
// owned by the store and rejected as input.
func (r *Repository) Create(t schema.EntityType, fields schema.Record) (schema.Record, string, error) {
	s, ok := r.registry.Get(t)
	if !ok {
		return nil, "", ErrUnknownEntity
	}
	if len(fields) == 0 {
		return nil, "", &ValidationError{Reason: "no fields supplied"}
	}

	payload := make(map[string]any, len(fields)+3)
	for name, value := range fields {
		if isStoreOwned(name) {
			return nil, "", &ValidationError{Field: name, Reason: "owned by the store"}
		}
		if _, ok := s.FieldByName(name); !ok {
			return nil, "", &ValidationError{Field: name, Reason: "not declared for " + string(t)}
		}
		payload[name] = value
	}

	now := time.Now()
	payload["version"] = int64(1)
	payload["created_at"] = now
	payload["updated_at"] = now

	var id int64
	for attempt := 1; ; attempt++ {
		err := r.db.Transaction(func(tx *gorm.DB) error {
			// Map-based creates do not report the generated key, so claim the
			// next id inside the same transaction.
			if err := tx.Table(s.Table).Select("COALESCE(MAX(id), 0) + 1").Scan(&id).Error; err != nil {
				return err
			}
			payload["id"] = id
			return tx.Table(s.Table).Create(payload).Error
		})
		if err == nil {
			break
		}
		if isIDClaimConflict(err) && attempt < maxIDClaimAttempts {
			continue
		}
		if isUniqueConflict(err) {
			return nil, "", &ValidationError{Reason: "duplicate value for a unique field"}
		}
		return nil, "", err
	}

	rec, token, err := r.Get(t, id)
	if err != nil {
		return nil, "", err
	}
	return rec, token, nil
}

// ConditionalUpdate applies field changes iff the token encodes the record's
// current version. On success the version increments and the new token is
// returned. A stale or undecodable token yields a ConflictError carrying the
// record's current state.
func (r *Repository) ConditionalUpdate(t schema.EntityType, id int64, token string, changes schema.Record) (schema.Record, string, error) {
	s, ok := r.registry.Get(t)
	if !ok {
		return nil, "", ErrUnknownEntity
	}
	if len(changes) == 0 {
		return nil, "", &ValidationError{Reason: "no field changes supplied"}
	}

	updates := make(map[string]any, len(changes)+2)
	for name, value := range changes {
		if isStoreOwned(name) {
			return nil, "", &ValidationError{Field: name, Reason: "owned by the store"}
		}
		if !s.IsEditable(name) {
			return nil, "", &ValidationError{Field: name, Reason: "not editable for " + string(t)}
		}
		updates[name] = value
	}

	version, err := etag.Decode(token)
	if err != nil {
		// Undecodable tokens behave exactly like stale ones.
		return nil, "", r.conflictOrNotFound(t, id)
	}

	updates["version"] = gorm.Expr("version + 1")
	updates["updated_at"] = time.Now()

	res := r.db.Table(s.Table).
		Where("id = ? AND version = ?", id, version).
		Updates(updates)
	if res.Error != nil {
		return nil, "", res.Error
	}
	if res.RowsAffected == 0 {
		return nil, "", r.conflictOrNotFound(t, id)
	}

	return r.Get(t, id)
}

// ConditionalDelete removes the record iff the token encodes its current
// version.
func (r *Repository) ConditionalDelete(t schema.EntityType, id int64, token string) error {
	s, ok := r.registry.Get(t)
	if !ok {
		return ErrUnknownEntity
	}

	version, err := etag.Decode(token)
	if err != nil {
		return r.conflictOrNotFound(t, id)
	}

	res := r.db.Exec("DELETE FROM "+s.Table+" WHERE id = ? AND version = ?", id, version)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.conflictOrNotFound(t, id)
	}
	return nil
}

// conflictOrNotFound classifies a failed conditional mutation: the record
// either no longer exists, or exists at a different version.
func (r *Repository) conflictOrNotFound(t schema.EntityType, id int64) error {
	current, currentTag, err := r.Get(t, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return &ConflictError{Current: current, ETag: currentTag}
}

// isUniqueConflict reports whether the error is a SQLite unique or primary
// key constraint violation.
func isUniqueConflict(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// isIDClaimConflict reports whether the unique violation is on the id column
// itself, i.e. a concurrent create won the claimed id.
func isIDClaimConflict(err error) bool {
	return isUniqueConflict(err) && strings.Contains(err.Error(), ".id")
}

// isStoreOwned reports whether the column is maintained by the store itself
// and therefore never accepted from callers.
func isStoreOwned(name string) bool {
	switch name {
	case "id", "version", "created_at", "updated_at":
		return true
	}
	return false
}
