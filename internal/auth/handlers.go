package auth

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/openroad/driveadmin/internal/config"
	"github.com/openroad/driveadmin/internal/entities"
)

// setupMutex serializes setup requests so two concurrent first-run calls
// cannot both create an owner.
var setupMutex sync.Mutex

// Controller handles the authentication endpoints of the console.
type Controller struct {
	service        *Service
	sessionManager *SessionManager
	config         config.Auth
	rateLimiter    *RateLimiter
}

// NewController creates the authentication controller.
func NewController(service *Service, sessionManager *SessionManager, cfg config.Auth) *Controller {
	rateLimiter := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     cfg.MaxLoginAttempts,
		WindowDuration:  cfg.RateLimitWindow,
		LockoutDuration: cfg.LockoutDuration,
	})

	return &Controller{
		service:        service,
		sessionManager: sessionManager,
		config:         cfg,
		rateLimiter:    rateLimiter,
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ctrl *Controller) RegisterRoutes(router *gin.Engine) {
	router.POST("/login", ctrl.Login)
	router.POST("/logout", ctrl.Logout)
	router.GET("/setup", ctrl.SetupStatus)
	router.POST("/setup", ctrl.Setup)
	router.GET("/api/auth/me", ctrl.Me)
	router.POST("/api/auth/token", ctrl.GenerateToken)
	router.DELETE("/api/auth/token", ctrl.RevokeToken)
}

// Stop cleans up the rate limiter's background goroutine.
func (ctrl *Controller) Stop() {
	if ctrl.rateLimiter != nil {
		ctrl.rateLimiter.Stop()
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates an administrator and creates a session.
func (ctrl *Controller) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	ip := c.ClientIP()
	if allowed, retryAfter := ctrl.rateLimiter.Allow(ip, req.Email); !allowed {
		c.Header("Retry-After", retryAfter.String())
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many login attempts"})
		return
	}

	account, err := ctrl.service.Authenticate(req.Email, req.Password)
	if err != nil {
		ctrl.rateLimiter.RecordFailure(ip, req.Email)
		switch {
		case errors.Is(err, ErrAccountLocked):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "account is temporarily locked"})
		case errors.Is(err, ErrAccountSuspended):
			c.JSON(http.StatusForbidden, gin.H{"error": "account is suspended"})
		default:
			// One message for wrong email and wrong password alike.
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		}
		return
	}

	ctrl.rateLimiter.RecordSuccess(ip, req.Email)

	if err := ctrl.sessionManager.CreateSession(c.Request, account); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":        account.ID,
		"email":     account.Email,
		"full_name": account.FullName,
		"role":      account.Role,
	})
}

// Logout destroys the current session.
func (ctrl *Controller) Logout(c *gin.Context) {
	if err := ctrl.sessionManager.DestroySession(c.Request); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to destroy session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// SetupStatus reports whether first-run setup is still needed.
func (ctrl *Controller) SetupStatus(c *gin.Context) {
	hasAdmins, err := ctrl.service.HasAdministrators()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check setup state"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"needs_setup": !hasAdmins})
}

type setupRequest struct {
	Email    string `json:"email" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Setup creates the owner account on a fresh installation. Refused once any
// administrator exists.
func (ctrl *Controller) Setup(c *gin.Context) {
	setupMutex.Lock()
	defer setupMutex.Unlock()

	hasAdmins, err := ctrl.service.HasAdministrators()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check setup state"})
		return
	}
	if hasAdmins {
		c.JSON(http.StatusForbidden, gin.H{"error": "setup already completed"})
		return
	}

	var req setupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email, full_name and password are required"})
		return
	}

	account, err := ctrl.service.CreateAdministrator(req.Email, req.FullName, req.Password, entities.AccountRoleOwner)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := ctrl.sessionManager.CreateSession(c.Request, account); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":        account.ID,
		"email":     account.Email,
		"full_name": account.FullName,
		"role":      account.Role,
	})
}

// Me returns the authenticated administrator.
func (ctrl *Controller) Me(c *gin.Context) {
	actorID := GetActorID(c)
	if actorID == DefaultActorID {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	account, err := ctrl.service.GetAccountByID(actorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load account"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"id":            account.ID,
		"email":         account.Email,
		"full_name":     account.FullName,
		"role":          account.Role,
	})
}

// GenerateToken mints a fresh API token for the signed-in administrator.
func (ctrl *Controller) GenerateToken(c *gin.Context) {
	actorID := GetActorID(c)
	if actorID == DefaultActorID {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	token, err := ctrl.service.GenerateToken(actorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	// The plaintext is shown exactly once; only its hash is stored.
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// RevokeToken removes the signed-in administrator's API token.
func (ctrl *Controller) RevokeToken(c *gin.Context) {
	actorID := GetActorID(c)
	if actorID == DefaultActorID {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	if err := ctrl.service.RevokeToken(actorID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "token revoked"})
}
