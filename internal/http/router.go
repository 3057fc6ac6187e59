package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openroad/driveadmin/internal/auth"
	"github.com/openroad/driveadmin/internal/config"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	// Apply CSRF protection if auth is enabled
	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.AuthConfig.SecureCookies, cfg.AuthService))
	}

	// Session runs after CSRF so session context isn't overwritten by
	// CSRF's request replacement
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	} else {
		// No auth - inject default actor ID
		router.Use(func(c *gin.Context) {
			c.Set(auth.ContextKeyActorID, auth.DefaultActorID)
			c.Set(auth.ContextKeyAuthType, auth.AuthTypeNone)
			c.Next()
		})
	}

	// Demo mode blocks writes after auth so login still works
	if cfg.DemoMiddleware != nil && cfg.DemoMiddleware.IsEnabled() {
		router.Use(cfg.DemoMiddleware.Handler())
	}

	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	healthController := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", healthController.Status)

	// Auth routes stay registered even in no-auth mode so the setup
	// endpoint can report the mode to the UI
	if cfg.AuthService != nil && cfg.AuthConfig.Mode == config.AuthModeLocal {
		authController := auth.NewController(cfg.AuthService, cfg.SessionManager, cfg.AuthConfig)
		authController.RegisterRoutes(router)
	}

	recordsController := NewRecordsController(cfg.Records, cfg.QueryEngine, cfg.Policy, cfg.Auditor)
	bulkController := NewBulkController(cfg.Bulk, cfg.Registry, cfg.Auditor)
	auditController := NewAuditController(cfg.AuditRepo, cfg.PageSize)

	admin := router.Group("/api/admin")
	{
		admin.GET("/audit", auditController.List)

		admin.GET("/:entity", recordsController.List)
		admin.POST("/:entity", recordsController.Create)
		admin.GET("/:entity/:id", recordsController.Get)
		admin.PATCH("/:entity/:id", recordsController.Update)
		admin.DELETE("/:entity/:id", recordsController.Delete)
		admin.POST("/:entity/bulk", bulkController.Update)
	}

	return router
}
