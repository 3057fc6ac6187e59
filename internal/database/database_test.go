package database

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openroad/driveadmin/internal/entities"
)

// setupTestDB creates a fresh test database
func setupTestDB(t *testing.T) (*Database, func()) {
	t.Helper()
	dbPath := "./test_" + t.Name() + ".db"
	db, err := NewDatabase(dbPath)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return db, cleanup
}

func TestNewDatabaseMigratesAllTables(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	for _, table := range []string{"accounts", "instructor_profiles", "student_profiles", "bookings", "audit_events"} {
		assert.True(t, db.DB.Migrator().HasTable(table), "table %s", table)
	}
}

func TestNewDatabaseEnablesWAL(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	var mode string
	require.NoError(t, db.DB.Raw("PRAGMA journal_mode").Scan(&mode).Error)
	assert.Equal(t, "wal", mode)
}

func TestDatabaseRoundTrip(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	account := entities.Account{
		Email:    "roundtrip@example.com",
		FullName: "Round Trip",
		Role:     entities.AccountRoleStudent,
		Status:   entities.AccountStatusActive,
		Version:  1,
	}
	require.NoError(t, db.DB.Create(&account).Error)
	require.NotZero(t, account.ID)

	booking := entities.Booking{
		StudentID:       account.ID,
		InstructorID:    1,
		LessonDate:      "2026-09-15",
		StartTime:       "10:00",
		DurationMinutes: 90,
		Status:          entities.BookingStatusBooked,
		Version:         1,
	}
	require.NoError(t, db.DB.Create(&booking).Error)

	var loaded entities.Booking
	require.NoError(t, db.DB.First(&loaded, booking.ID).Error)
	assert.Equal(t, "2026-09-15", loaded.LessonDate)
	assert.Equal(t, entities.BookingStatusBooked, loaded.Status)
}

func TestClose(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	assert.NoError(t, db.Close())
}
