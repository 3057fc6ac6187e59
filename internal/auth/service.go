package auth

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"gorm.io/gorm"

	"github.com/openroad/driveadmin/internal/config"
	"github.com/openroad/driveadmin/internal/entities"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrAccountExists    = errors.New("account already exists")
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrNotAdministrator = errors.New("account is not an administrator")
	ErrAccountSuspended = errors.New("account is suspended")
	ErrAccountLocked    = errors.New("account is locked due to too many failed login attempts")
	ErrOwnerExists      = errors.New("an owner account already exists")
	ErrEmailRequired    = errors.New("email is required")
	ErrNameRequired     = errors.New("full name is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrEmailInvalid     = errors.New("invalid email format")
	ErrInvalidRole      = errors.New("invalid administrator role")
)

// Service handles administrator authentication against the accounts table.
type Service struct {
	db     *gorm.DB
	config config.Auth
}

// NewService creates a new authentication service.
func NewService(db *gorm.DB, cfg config.Auth) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// CreateAdministrator creates a login-capable administrator account. Role
// must be owner or admin; only one owner may ever exist.
func (s *Service) CreateAdministrator(email, fullName, password string, role entities.AccountRole) (*entities.Account, error) {
	if email == "" {
		return nil, ErrEmailRequired
	}
	if fullName == "" {
		return nil, ErrNameRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return nil, ErrEmailInvalid
	}

	switch role {
	case entities.AccountRoleOwner, entities.AccountRoleAdmin:
		// Valid
	default:
		return nil, ErrInvalidRole
	}

	if role == entities.AccountRoleOwner {
		var owners int64
		if err := s.db.Model(&entities.Account{}).
			Where("role = ?", entities.AccountRoleOwner).
			Count(&owners).Error; err != nil {
			return nil, fmt.Errorf("failed to count owners: %w", err)
		}
		if owners > 0 {
			return nil, ErrOwnerExists
		}
	}

	var existing entities.Account
	err := s.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, ErrAccountExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &entities.Account{
		Email:        email,
		FullName:     fullName,
		PasswordHash: passwordHash,
		Role:         role,
		Status:       entities.AccountStatusActive,
		Version:      1,
	}

	if err := s.db.Create(account).Error; err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return account, nil
}

// Authenticate validates credentials and returns the account. Only active
// administrator accounts may sign in; repeated failures lock the account.
func (s *Service) Authenticate(email, password string) (*entities.Account, error) {
	var account entities.Account
	err := s.db.Where("email = ?", email).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}

	if !isAdministrator(account.Role) {
		return nil, ErrNotAdministrator
	}
	if account.Status != entities.AccountStatusActive {
		return nil, ErrAccountSuspended
	}
	if account.LockedUntil != nil && time.Now().Before(*account.LockedUntil) {
		return nil, ErrAccountLocked
	}

	if err := CheckPassword(password, account.PasswordHash); err != nil {
		s.recordFailedLogin(&account)
		return nil, err
	}

	now := time.Now()
	s.db.Model(&account).Updates(map[string]any{
		"last_login_at":      now,
		"failed_login_count": 0,
		"locked_until":       nil,
	})

	return &account, nil
}

// recordFailedLogin increments the failure counter and locks the account
// once the threshold is reached.
func (s *Service) recordFailedLogin(account *entities.Account) {
	account.FailedLoginCount++

	updates := map[string]any{
		"failed_login_count": account.FailedLoginCount,
	}

	maxAttempts := s.config.MaxLoginAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if account.FailedLoginCount >= maxAttempts {
		lockoutDuration := s.config.LockoutDuration
		if lockoutDuration == 0 {
			lockoutDuration = 30 * time.Minute
		}
		updates["locked_until"] = time.Now().Add(lockoutDuration)
	}

	s.db.Model(account).Updates(updates)
}

// GetAccountByID retrieves an account by id.
func (s *Service) GetAccountByID(id int64) (*entities.Account, error) {
	var account entities.Account
	err := s.db.First(&account, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// ValidateToken checks a plaintext API token and returns the administrator
// it belongs to. Returns ErrTokenExpired past the configured expiry.
func (s *Service) ValidateToken(token string) (*entities.Account, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	var account entities.Account
	err := s.db.Where("token_hash = ?", HashToken(token)).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if !isAdministrator(account.Role) {
		return nil, ErrNotAdministrator
	}
	if s.config.TokenExpiry > 0 && account.TokenCreatedAt != nil {
		if time.Since(*account.TokenCreatedAt) > s.config.TokenExpiry {
			return nil, ErrTokenExpired
		}
	}

	return &account, nil
}

// GenerateToken creates a new API token for an administrator. Only the hash
// is stored; the plaintext is returned once.
func (s *Service) GenerateToken(accountID int64) (string, error) {
	plaintext, hash, err := GenerateAPIToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	now := time.Now()
	result := s.db.Model(&entities.Account{}).Where("id = ?", accountID).Updates(map[string]any{
		"token_hash":       hash,
		"token_created_at": now,
	})
	if result.Error != nil {
		return "", fmt.Errorf("failed to save token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return "", ErrAccountNotFound
	}

	return plaintext, nil
}

// RevokeToken removes an administrator's API token.
func (s *Service) RevokeToken(accountID int64) error {
	result := s.db.Model(&entities.Account{}).Where("id = ?", accountID).Updates(map[string]any{
		"token_hash":       "",
		"token_created_at": nil,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to revoke token: %w", result.Error)
	}
	return nil
}

// ChangePassword updates an administrator's password after verifying the
// old one.
func (s *Service) ChangePassword(accountID int64, oldPassword, newPassword string) error {
	account, err := s.GetAccountByID(accountID)
	if err != nil {
		return err
	}

	if err := CheckPassword(oldPassword, account.PasswordHash); err != nil {
		return err
	}

	newHash, err := HashPassword(newPassword, s.config.BcryptCost)
	if err != nil {
		return err
	}

	return s.db.Model(account).Update("password_hash", newHash).Error
}

// HasAdministrators reports whether any administrator account exists yet.
// False means the first-run setup flow still has to create the owner.
func (s *Service) HasAdministrators() (bool, error) {
	var count int64
	err := s.db.Model(&entities.Account{}).
		Where("role IN ?", []entities.AccountRole{entities.AccountRoleOwner, entities.AccountRoleAdmin}).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// IsAuthEnabled returns true if authentication is required.
func (s *Service) IsAuthEnabled() bool {
	return s.config.Mode == config.AuthModeLocal
}

// GetAuthMode returns the current authentication mode.
func (s *Service) GetAuthMode() config.AuthMode {
	return s.config.Mode
}

func isAdministrator(role entities.AccountRole) bool {
	return role == entities.AccountRoleOwner || role == entities.AccountRoleAdmin
}
