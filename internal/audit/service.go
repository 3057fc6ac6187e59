// Package audit records who changed which record, so soft-disabled and
// deleted rows stay accountable after the fact.
package audit

import (
	"encoding/json"
	"log"

	"github.com/openroad/driveadmin/internal/database/audit"
	"github.com/openroad/driveadmin/internal/entities"
	"github.com/openroad/driveadmin/internal/schema"
)

// Service provides high-level audit logging around the record operations.
type Service struct {
	repo *audit.Repository
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	go func() {
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// LogUpdate records a single-record field update.
func (s *Service) LogUpdate(actorID int64, t schema.EntityType, recordID int64, changed []string, err error) {
	event := &entities.AuditEvent{
		ActorID:     actorID,
		EventType:   entities.AuditEventUpdate,
		Action:      string(t) + "_update",
		Description: "Updated " + string(t) + " record",
		EntityType:  string(t),
		EntityID:    &recordID,
		Status:      entities.AuditStatusSuccess,
	}

	if md, e := json.Marshal(map[string]any{"fields": changed}); e == nil {
		event.Metadata = string(md)
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// LogDelete records a record deletion.
func (s *Service) LogDelete(actorID int64, t schema.EntityType, recordID int64, err error) {
	event := &entities.AuditEvent{
		ActorID:     actorID,
		EventType:   entities.AuditEventDelete,
		Action:      string(t) + "_delete",
		Description: "Deleted " + string(t) + " record",
		EntityType:  string(t),
		EntityID:    &recordID,
		Status:      entities.AuditStatusSuccess,
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// LogBulkUpdate records a bulk mutation with its per-record outcome counts.
func (s *Service) LogBulkUpdate(actorID int64, t schema.EntityType, field string, succeeded, failed int) {
	event := &entities.AuditEvent{
		ActorID:     actorID,
		EventType:   entities.AuditEventBulk,
		Action:      string(t) + "_bulk_update",
		Description: "Bulk updated " + string(t),
		EntityType:  string(t),
		Status:      entities.AuditStatusSuccess,
	}

	metadata := map[string]any{
		"field":     field,
		"succeeded": succeeded,
		"failed":    failed,
	}
	if md, err := json.Marshal(metadata); err == nil {
		event.Metadata = string(md)
	}
	if succeeded == 0 && failed > 0 {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(actorID int64, action, ipAddr string, success bool) {
	event := &entities.AuditEvent{
		ActorID:   actorID,
		EventType: entities.AuditEventAuth,
		Action:    action,
		IPAddress: ipAddr,
		Status:    entities.AuditStatusSuccess,
	}

	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
