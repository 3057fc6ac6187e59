package database

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openroad/driveadmin/internal/entities"
)

// dsnParams keep the store usable under concurrent request handlers.
const dsnParams = "?_journal=WAL&_busy_timeout=5000"

// migratedEntities is the full set of tables the service owns. The generic
// record store reads the same tables through their schemas.
func migratedEntities() []any {
	return []any{
		&entities.Account{},
		&entities.InstructorProfile{},
		&entities.StudentProfile{},
		&entities.Booking{},
		&entities.AuditEvent{},
	}
}

type Database struct {
	DB *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath+dsnParams), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(migratedEntities()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)
	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
