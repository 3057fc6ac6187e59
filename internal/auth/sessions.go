package auth

import (
	"database/sql"
	"encoding/gob"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/openroad/driveadmin/internal/config"
	"github.com/openroad/driveadmin/internal/entities"
)

// Session data keys
const (
	SessionKeyAccountID = "account_id"
	SessionKeyEmail     = "email"
	SessionKeyRole      = "role"
	SessionKeyLoginAt   = "login_at"
)

const sessionsSchema = `CREATE TABLE IF NOT EXISTS sessions (
	token TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	expiry REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`

func init() {
	// Types stored in session data must be gob-registered.
	gob.Register(entities.AccountRole(""))
	gob.Register(time.Time{})
}

// SessionManager wraps scs.SessionManager with application-specific methods.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager creates a session manager persisting to the sessions
// table of the given database. sqlDB should be the *sql.DB underlying GORM.
func NewSessionManager(sqlDB *sql.DB, cfg config.Auth) (*SessionManager, error) {
	if _, err := sqlDB.Exec(sessionsSchema); err != nil {
		return nil, fmt.Errorf("failed to create sessions table: %w", err)
	}

	sm := scs.New()
	sm.Store = sqlite3store.New(sqlDB)
	sm.Lifetime = cfg.SessionLifetime
	sm.IdleTimeout = cfg.SessionLifetime / 2

	sm.Cookie.Name = "session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteStrictMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}, nil
}

// CreateSession renews the session token (against fixation) and records the
// administrator's identity in it.
func (sm *SessionManager) CreateSession(r *http.Request, account *entities.Account) error {
	ctx := r.Context()
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}

	// Stored as int so GetInt finds it on the way back out.
	sm.Put(ctx, SessionKeyAccountID, int(account.ID))
	sm.Put(ctx, SessionKeyEmail, account.Email)
	sm.Put(ctx, SessionKeyRole, account.Role)
	sm.Put(ctx, SessionKeyLoginAt, time.Now())
	return nil
}

// DestroySession removes all session data and invalidates the session.
func (sm *SessionManager) DestroySession(r *http.Request) error {
	return sm.Destroy(r.Context())
}

// GetAccountID returns the signed-in account id, or 0 when unauthenticated.
func (sm *SessionManager) GetAccountID(r *http.Request) int64 {
	return int64(sm.GetInt(r.Context(), SessionKeyAccountID))
}

// GetEmail returns the signed-in administrator's email.
func (sm *SessionManager) GetEmail(r *http.Request) string {
	return sm.GetString(r.Context(), SessionKeyEmail)
}

// GetRole returns the administrator role recorded at login.
func (sm *SessionManager) GetRole(r *http.Request) entities.AccountRole {
	role, _ := sm.Get(r.Context(), SessionKeyRole).(entities.AccountRole)
	return role
}

// IsAuthenticated reports whether the request carries a valid session.
func (sm *SessionManager) IsAuthenticated(r *http.Request) bool {
	return sm.GetAccountID(r) != 0
}
