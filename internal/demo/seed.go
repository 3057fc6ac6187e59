package demo

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/openroad/driveadmin/internal/auth"
	"github.com/openroad/driveadmin/internal/entities"
)

// DemoPassword is the password shared by every seeded account.
const DemoPassword = "drive-with-care!"

var suburbs = []string{
	"Parramatta", "Chatswood", "Bondi", "Newtown", "Blacktown",
	"Hurstville", "Penrith", "Manly", "Liverpool", "Ryde",
}

var instructorNames = []string{
	"Grace Okafor", "Tom Nguyen", "Priya Sharma", "Liam O'Brien",
	"Mei Chen", "Sofia Rossi", "Jack Taylor", "Amira Hassan",
}

var studentNames = []string{
	"Olivia Brown", "Noah Wilson", "Ava Martin", "Ethan Clarke",
	"Isla Thompson", "Lucas White", "Mia Anderson", "Oscar Walker",
	"Ruby Harris", "Leo King", "Zoe Scott", "Max Turner",
	"Chloe Baker", "Finn Murphy", "Lily Adams", "Henry Bell",
	"Emma Ward", "Sam Foster", "Aria Gray", "Ben Cole",
}

// Seed populates the database with a coherent demo dataset: one owner,
// an administrator, instructor and student accounts with profiles, and a
// spread of bookings across all statuses. Idempotent: a database that
// already has accounts is left alone.
func Seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&entities.Account{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count accounts: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(DemoPassword, 0)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		owner := entities.Account{
			Email:        "owner@openroad.example",
			FullName:     "Dana Reeves",
			Phone:        "0400 000 001",
			Role:         entities.AccountRoleOwner,
			Status:       entities.AccountStatusActive,
			PasswordHash: hash,
			Version:      1,
		}
		admin := entities.Account{
			Email:        "admin@openroad.example",
			FullName:     "Marcus Webb",
			Phone:        "0400 000 002",
			Role:         entities.AccountRoleAdmin,
			Status:       entities.AccountStatusActive,
			PasswordHash: hash,
			Version:      1,
		}
		if err := tx.Create(&owner).Error; err != nil {
			return err
		}
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}

		var instructorIDs []int64
		for i, name := range instructorNames {
			acct := entities.Account{
				Email:        fmt.Sprintf("instructor%d@openroad.example", i+1),
				FullName:     name,
				Phone:        fmt.Sprintf("0400 100 %03d", i+1),
				Role:         entities.AccountRoleInstructor,
				Status:       entities.AccountStatusActive,
				PasswordHash: hash,
				Version:      1,
			}
			if err := tx.Create(&acct).Error; err != nil {
				return err
			}

			transmission := entities.TransmissionManual
			if i%3 == 0 {
				transmission = entities.TransmissionAutomatic
			}
			profile := entities.InstructorProfile{
				AccountID:     acct.ID,
				FullName:      name,
				LicenceNumber: fmt.Sprintf("ADI-%05d", 10000+i),
				ADIGrade:      4 + i%3,
				Vehicle:       vehicleFor(i),
				Transmission:  transmission,
				Suburb:        suburbs[i%len(suburbs)],
				HourlyRate:    65 + float64(i%4)*5,
				Status:        entities.AccountStatusActive,
				Version:       1,
			}
			if err := tx.Create(&profile).Error; err != nil {
				return err
			}
			instructorIDs = append(instructorIDs, profile.ID)
		}

		var studentIDs []int64
		for i, name := range studentNames {
			status := entities.AccountStatusActive
			if i == len(studentNames)-1 {
				status = entities.AccountStatusSuspended
			}
			acct := entities.Account{
				Email:        fmt.Sprintf("student%d@openroad.example", i+1),
				FullName:     name,
				Phone:        fmt.Sprintf("0400 200 %03d", i+1),
				Role:         entities.AccountRoleStudent,
				Status:       status,
				PasswordHash: hash,
				Version:      1,
			}
			if err := tx.Create(&acct).Error; err != nil {
				return err
			}

			transmission := entities.TransmissionManual
			if i%2 == 0 {
				transmission = entities.TransmissionAutomatic
			}
			profile := entities.StudentProfile{
				AccountID:             acct.ID,
				FullName:              name,
				PreferredTransmission: transmission,
				Suburb:                suburbs[(i+3)%len(suburbs)],
				ProgressLevel:         i % 6,
				Status:                status,
				Version:               1,
			}
			if err := tx.Create(&profile).Error; err != nil {
				return err
			}
			studentIDs = append(studentIDs, profile.ID)
		}

		return seedBookings(tx, studentIDs, instructorIDs)
	})
}

func seedBookings(tx *gorm.DB, studentIDs, instructorIDs []int64) error {
	statuses := []entities.BookingStatus{
		entities.BookingStatusBooked,
		entities.BookingStatusCompleted,
		entities.BookingStatusCancelled,
	}
	lessonTypes := []string{"standard", "highway", "test_preparation", "night"}

	base := time.Now().AddDate(0, 0, -30)
	for i := 0; i < 60; i++ {
		day := base.AddDate(0, 0, i)
		status := statuses[0]
		if day.Before(time.Now()) {
			// Past lessons are mostly completed, occasionally cancelled
			status = statuses[1]
			if i%7 == 0 {
				status = statuses[2]
			}
		}

		booking := entities.Booking{
			StudentID:       studentIDs[i%len(studentIDs)],
			InstructorID:    instructorIDs[i%len(instructorIDs)],
			LessonDate:      day.Format("2006-01-02"),
			StartTime:       fmt.Sprintf("%02d:00", 8+i%9),
			DurationMinutes: 60 + (i%2)*30,
			LessonType:      lessonTypes[i%len(lessonTypes)],
			PickupSuburb:    suburbs[i%len(suburbs)],
			Price:           70 + float64(i%3)*15,
			Status:          status,
			Version:         1,
		}
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}
	}
	return nil
}

func vehicleFor(i int) string {
	vehicles := []string{
		"Toyota Corolla 2022", "Mazda 3 2021", "Hyundai i30 2023",
		"Kia Cerato 2022", "Volkswagen Golf 2020",
	}
	return vehicles[i%len(vehicles)]
}
