package http

import (
	"github.com/openroad/driveadmin/internal/audit"
	"github.com/openroad/driveadmin/internal/auth"
	"github.com/openroad/driveadmin/internal/bulk"
	"github.com/openroad/driveadmin/internal/config"
	"github.com/openroad/driveadmin/internal/database"
	auditdb "github.com/openroad/driveadmin/internal/database/audit"
	"github.com/openroad/driveadmin/internal/database/records"
	"github.com/openroad/driveadmin/internal/demo"
	"github.com/openroad/driveadmin/internal/protect"
	"github.com/openroad/driveadmin/internal/query"
	"github.com/openroad/driveadmin/internal/schema"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router. This replaces the long parameter list
// in NewRouter for better maintainability.
type RouterConfig struct {
	// Core dependencies
	Database    *database.Database
	Registry    *schema.Registry
	Records     *records.Repository
	QueryEngine *query.Engine
	Policy      *protect.Policy
	Bulk        *bulk.Coordinator

	// Audit trail
	Auditor   *audit.Service
	AuditRepo *auditdb.Repository

	// Authentication
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	AuthMiddleware *auth.Middleware
	AuthConfig     config.Auth
	CSRFSecret     []byte

	// Demo mode (blocks writes)
	DemoMiddleware *demo.Middleware

	// Listing defaults
	PageSize int

	// Application info
	Version string
}
