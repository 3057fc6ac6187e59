// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── records/         # Generic entity record store with optimistic locking
//	└── audit/           # Audit trail persistence and retention
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	// Initialize database connection
//	db, err := database.NewDatabase("./driveadmin.db")
//
//	// Create repositories
//	recordsRepo := records.NewRepository(db.DB, schema.NewRegistry())
//	auditRepo := audit.NewRepository(db.DB)
//
//	// Use repositories
//	rec, etag, err := recordsRepo.Get(schema.EntityAccounts, 123)
//	events, total, err := auditRepo.ListEvents(1, 20, "")
//
// The records repository works on schema.Record maps rather than entity
// structs so one code path serves every registered entity kind. Every
// mutation is a compare-and-swap against the record's version column.
package database
