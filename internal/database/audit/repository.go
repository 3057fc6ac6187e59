// Package audit provides database operations for the admin activity trail.
package audit

import (
	"time"

	"gorm.io/gorm"

	"github.com/openroad/driveadmin/internal/entities"
)

// Repository handles audit event persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new audit repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LogEvent stores a single audit event.
func (r *Repository) LogEvent(event *entities.AuditEvent) error {
	return r.db.Create(event).Error
}

// ListEvents returns one page of audit events, newest first, optionally
// narrowed to one entity type. Also returns the total match count.
func (r *Repository) ListEvents(page, pageSize int, entityType string) ([]entities.AuditEvent, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	tx := r.db.Model(&entities.AuditEvent{})
	if entityType != "" {
		tx = tx.Where("entity_type = ?", entityType)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var events []entities.AuditEvent
	err := tx.Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&events).Error
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// DeleteOldEvents removes events older than the retention window and
// reports how many were deleted.
func (r *Repository) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	res := r.db.Where("created_at < ?", cutoff).Delete(&entities.AuditEvent{})
	return res.RowsAffected, res.Error
}
