package auth

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/openroad/driveadmin/internal/config"
	"github.com/openroad/driveadmin/internal/database"
	"github.com/openroad/driveadmin/internal/entities"
)

const testPassword = "correct-horse-battery"

func setupTestService(t *testing.T) (*Service, func()) {
	t.Helper()
	dbPath := "./test_" + t.Name() + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	cfg := config.Auth{
		Mode:             config.AuthModeLocal,
		BcryptCost:       bcrypt.MinCost,
		TokenExpiry:      time.Hour,
		MaxLoginAttempts: 3,
		LockoutDuration:  time.Minute,
	}
	service := NewService(db.DB, cfg)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return service, cleanup
}

func TestCreateAdministrator(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	t.Run("creates the owner", func(t *testing.T) {
		account, err := service.CreateAdministrator("owner@example.com", "Owner One", testPassword, entities.AccountRoleOwner)
		require.NoError(t, err)
		assert.Equal(t, entities.AccountRoleOwner, account.Role)
		assert.Equal(t, entities.AccountStatusActive, account.Status)
		assert.NotEmpty(t, account.PasswordHash)
		assert.NotEqual(t, testPassword, account.PasswordHash)
	})

	t.Run("only one owner may exist", func(t *testing.T) {
		_, err := service.CreateAdministrator("second@example.com", "Second Owner", testPassword, entities.AccountRoleOwner)
		assert.ErrorIs(t, err, ErrOwnerExists)
	})

	t.Run("admins are unrestricted in count", func(t *testing.T) {
		_, err := service.CreateAdministrator("admin1@example.com", "Admin One", testPassword, entities.AccountRoleAdmin)
		require.NoError(t, err)
		_, err = service.CreateAdministrator("admin2@example.com", "Admin Two", testPassword, entities.AccountRoleAdmin)
		assert.NoError(t, err)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := service.CreateAdministrator("admin1@example.com", "Duplicate", testPassword, entities.AccountRoleAdmin)
		assert.ErrorIs(t, err, ErrAccountExists)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := service.CreateAdministrator("", "Name", testPassword, entities.AccountRoleAdmin)
		assert.ErrorIs(t, err, ErrEmailRequired)

		_, err = service.CreateAdministrator("x@example.com", "", testPassword, entities.AccountRoleAdmin)
		assert.ErrorIs(t, err, ErrNameRequired)

		_, err = service.CreateAdministrator("x@example.com", "Name", "", entities.AccountRoleAdmin)
		assert.ErrorIs(t, err, ErrPasswordRequired)

		_, err = service.CreateAdministrator("not-an-email", "Name", testPassword, entities.AccountRoleAdmin)
		assert.ErrorIs(t, err, ErrEmailInvalid)

		_, err = service.CreateAdministrator("s@example.com", "Name", testPassword, entities.AccountRoleStudent)
		assert.ErrorIs(t, err, ErrInvalidRole)
	})
}

func TestAuthenticate(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	_, err := service.CreateAdministrator("owner@example.com", "Owner", testPassword, entities.AccountRoleOwner)
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		account, err := service.Authenticate("owner@example.com", testPassword)
		require.NoError(t, err)
		assert.Equal(t, "owner@example.com", account.Email)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := service.Authenticate("owner@example.com", "wrong-password-here")
		assert.ErrorIs(t, err, ErrInvalidPassword)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := service.Authenticate("nobody@example.com", testPassword)
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})

	t.Run("non-administrators cannot sign in", func(t *testing.T) {
		hash, err := HashPassword(testPassword, bcrypt.MinCost)
		require.NoError(t, err)
		student := entities.Account{
			Email:        "student@example.com",
			FullName:     "Student",
			Role:         entities.AccountRoleStudent,
			Status:       entities.AccountStatusActive,
			PasswordHash: hash,
			Version:      1,
		}
		require.NoError(t, service.db.Create(&student).Error)

		_, err = service.Authenticate("student@example.com", testPassword)
		assert.ErrorIs(t, err, ErrNotAdministrator)
	})

	t.Run("suspended administrators cannot sign in", func(t *testing.T) {
		hash, err := HashPassword(testPassword, bcrypt.MinCost)
		require.NoError(t, err)
		suspended := entities.Account{
			Email:        "gone@example.com",
			FullName:     "Gone",
			Role:         entities.AccountRoleAdmin,
			Status:       entities.AccountStatusSuspended,
			PasswordHash: hash,
			Version:      1,
		}
		require.NoError(t, service.db.Create(&suspended).Error)

		_, err = service.Authenticate("gone@example.com", testPassword)
		assert.ErrorIs(t, err, ErrAccountSuspended)
	})

	t.Run("repeated failures lock the account", func(t *testing.T) {
		_, err := service.CreateAdministrator("lockme@example.com", "Lock Me", testPassword, entities.AccountRoleAdmin)
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			_, err = service.Authenticate("lockme@example.com", "wrong-password-here")
			assert.ErrorIs(t, err, ErrInvalidPassword)
		}

		_, err = service.Authenticate("lockme@example.com", testPassword)
		assert.ErrorIs(t, err, ErrAccountLocked)
	})
}

func TestAPITokens(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	account, err := service.CreateAdministrator("owner@example.com", "Owner", testPassword, entities.AccountRoleOwner)
	require.NoError(t, err)

	t.Run("generate and validate", func(t *testing.T) {
		token, err := service.GenerateToken(account.ID)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		validated, err := service.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, account.ID, validated.ID)
	})

	t.Run("revoked tokens stop validating", func(t *testing.T) {
		token, err := service.GenerateToken(account.ID)
		require.NoError(t, err)

		require.NoError(t, service.RevokeToken(account.ID))

		_, err = service.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage tokens", func(t *testing.T) {
		_, err := service.ValidateToken("")
		assert.ErrorIs(t, err, ErrInvalidToken)

		_, err = service.ValidateToken("not-a-real-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := service.GenerateToken(9999)
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}

func TestChangePassword(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	account, err := service.CreateAdministrator("owner@example.com", "Owner", testPassword, entities.AccountRoleOwner)
	require.NoError(t, err)

	t.Run("requires the old password", func(t *testing.T) {
		err := service.ChangePassword(account.ID, "wrong-old-password", "a-brand-new-password")
		assert.ErrorIs(t, err, ErrInvalidPassword)
	})

	t.Run("changes and takes effect", func(t *testing.T) {
		require.NoError(t, service.ChangePassword(account.ID, testPassword, "a-brand-new-password"))

		_, err := service.Authenticate("owner@example.com", testPassword)
		assert.ErrorIs(t, err, ErrInvalidPassword)

		_, err = service.Authenticate("owner@example.com", "a-brand-new-password")
		assert.NoError(t, err)
	})
}

func TestHasAdministrators(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	has, err := service.HasAdministrators()
	require.NoError(t, err)
	assert.False(t, has)

	_, err = service.CreateAdministrator("owner@example.com", "Owner", testPassword, entities.AccountRoleOwner)
	require.NoError(t, err)

	has, err = service.HasAdministrators()
	require.NoError(t, err)
	assert.True(t, has)
}
