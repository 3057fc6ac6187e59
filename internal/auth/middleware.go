package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openroad/driveadmin/internal/config"
	"github.com/openroad/driveadmin/internal/entities"
)

// Context keys for the authenticated administrator
const (
	ContextKeyActorID  = "auth_actor_id"
	ContextKeyEmail    = "auth_email"
	ContextKeyRole     = "auth_role"
	ContextKeyAuthType = "auth_type" // "session", "bearer", or "none"
)

// AuthType indicates how the administrator was authenticated
type AuthType string

const (
	AuthTypeNone    AuthType = "none"
	AuthTypeSession AuthType = "session"
	AuthTypeBearer  AuthType = "bearer"
)

// DefaultActorID is used when authentication is disabled
const DefaultActorID = int64(0)

// Middleware authenticates every request before it reaches the record
// endpoints.
type Middleware struct {
	service        *Service
	sessionManager *SessionManager
	config         config.Auth
	publicPaths    map[string]bool
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service, sessionManager *SessionManager, cfg config.Auth) *Middleware {
	publicPaths := map[string]bool{
		"/health": true,
		"/ping":   true,
		"/login":  true,
		"/setup":  true,
	}

	return &Middleware{
		service:        service,
		sessionManager: sessionManager,
		config:         cfg,
		publicPaths:    publicPaths,
	}
}

// Handler returns a Gin middleware handler that authenticates requests.
func (m *Middleware) Handler() gin.HandlerFunc {
	// If auth is disabled, inject the default actor
	if m.config.Mode == config.AuthModeNone {
		return m.noAuthHandler()
	}

	return m.authHandler()
}

func (m *Middleware) noAuthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyActorID, DefaultActorID)
		c.Set(ContextKeyAuthType, AuthTypeNone)
		c.Next()
	}
}

func (m *Middleware) authHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.isPublicPath(c.Request.URL.Path) {
			c.Set(ContextKeyActorID, DefaultActorID)
			c.Set(ContextKeyAuthType, AuthTypeNone)
			c.Next()
			return
		}

		// Bearer tokens first (API clients), then session cookies
		if account := m.tryBearerAuth(c); account != nil {
			m.setActorContext(c, account, AuthTypeBearer)
			c.Next()
			return
		}

		if account := m.trySessionAuth(c); account != nil {
			m.setActorContext(c, account, AuthTypeSession)
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "authentication required",
		})
	}
}

// tryBearerAuth attempts to authenticate using a Bearer token.
func (m *Middleware) tryBearerAuth(c *gin.Context) *entities.Account {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil
	}

	account, err := m.service.ValidateToken(parts[1])
	if err != nil {
		return nil
	}
	return account
}

// trySessionAuth attempts to authenticate using the session cookie.
func (m *Middleware) trySessionAuth(c *gin.Context) *entities.Account {
	if m.sessionManager == nil {
		return nil
	}

	accountID := m.sessionManager.GetAccountID(c.Request)
	if accountID == 0 {
		return nil
	}

	account, err := m.service.GetAccountByID(accountID)
	if err != nil {
		return nil
	}
	// A session minted before a role change or suspension is no longer valid.
	if account.Role != entities.AccountRoleOwner && account.Role != entities.AccountRoleAdmin {
		return nil
	}
	if account.Status != entities.AccountStatusActive {
		return nil
	}
	return account
}

func (m *Middleware) setActorContext(c *gin.Context, account *entities.Account, authType AuthType) {
	c.Set(ContextKeyActorID, account.ID)
	c.Set(ContextKeyEmail, account.Email)
	c.Set(ContextKeyRole, account.Role)
	c.Set(ContextKeyAuthType, authType)
}

func (m *Middleware) isPublicPath(path string) bool {
	return m.publicPaths[path]
}

// GetActorID extracts the authenticated administrator's account id from the
// Gin context. Returns DefaultActorID when auth is disabled.
func GetActorID(c *gin.Context) int64 {
	if v, exists := c.Get(ContextKeyActorID); exists {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return DefaultActorID
}
