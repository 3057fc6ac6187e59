package demo

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openroad/driveadmin/internal/database"
	"github.com/openroad/driveadmin/internal/entities"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestSeed(t *testing.T) {
	dbPath := "./test_" + t.Name() + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)
	defer func() {
		db.Close()
		os.Remove(dbPath)
	}()

	require.NoError(t, Seed(db.DB))

	var accounts, instructors, students, bookings int64
	db.DB.Model(&entities.Account{}).Count(&accounts)
	db.DB.Model(&entities.InstructorProfile{}).Count(&instructors)
	db.DB.Model(&entities.StudentProfile{}).Count(&students)
	db.DB.Model(&entities.Booking{}).Count(&bookings)

	assert.NotZero(t, instructors)
	assert.NotZero(t, students)
	assert.NotZero(t, bookings)
	// Owner and admin plus one account per profile
	assert.Equal(t, instructors+students+2, accounts)

	var owners int64
	db.DB.Model(&entities.Account{}).Where("role = ?", entities.AccountRoleOwner).Count(&owners)
	assert.Equal(t, int64(1), owners)

	t.Run("is idempotent", func(t *testing.T) {
		require.NoError(t, Seed(db.DB))
		var after int64
		db.DB.Model(&entities.Account{}).Count(&after)
		assert.Equal(t, accounts, after)
	})
}

func TestMiddlewareBlocksWrites(t *testing.T) {
	router := gin.New()
	router.Use(NewMiddleware(true).Handler())
	router.GET("/api/admin/accounts", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/api/admin/accounts", func(c *gin.Context) { c.Status(http.StatusCreated) })
	router.POST("/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("reads pass", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/accounts", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("writes are blocked", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/admin/accounts", nil))
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "demo mode")
	})

	t.Run("login stays open", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestMiddlewareDisabled(t *testing.T) {
	router := gin.New()
	router.Use(NewMiddleware(false).Handler())
	router.POST("/api/admin/accounts", func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/admin/accounts", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
}
