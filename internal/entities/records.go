package entities

import "time"

type AccountRole string

const (
	// AccountRoleOwner is the original administrator created during first-run
	// setup. Owner accounts are protected from destructive operations.
	AccountRoleOwner      AccountRole = "owner"
	AccountRoleAdmin      AccountRole = "admin"
	AccountRoleInstructor AccountRole = "instructor"
	AccountRoleStudent    AccountRole = "student"
)

type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "ACTIVE"
	AccountStatusSuspended AccountStatus = "SUSPENDED"
)

type Transmission string

const (
	TransmissionManual    Transmission = "manual"
	TransmissionAutomatic Transmission = "automatic"
)

type BookingStatus string

const (
	BookingStatusBooked    BookingStatus = "BOOKED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// Account is a login-capable platform account: administrators, instructors
// and students all authenticate against this table.
type Account struct {
	ID       int64         `gorm:"primaryKey" json:"id"`
	Email    string        `gorm:"uniqueIndex;size:254" json:"email"`
	FullName string        `gorm:"index;size:200" json:"full_name"`
	Phone    string        `gorm:"size:32" json:"phone,omitempty"`
	Role     AccountRole   `gorm:"index;size:20" json:"role"`
	Status   AccountStatus `gorm:"index;size:20;default:'ACTIVE'" json:"status"`

	// Credentials, hidden from JSON
	PasswordHash     string     `gorm:"size:100" json:"-"`
	TokenHash        string     `gorm:"index;size:64" json:"-"` // SHA-256 of the API token
	TokenCreatedAt   *time.Time `json:"-"`
	FailedLoginCount int        `json:"-"`
	LockedUntil      *time.Time `json:"-"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`

	Version   int64     `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InstructorProfile holds the teaching-side details for an instructor account.
type InstructorProfile struct {
	ID            int64         `gorm:"primaryKey" json:"id"`
	AccountID     int64         `gorm:"index" json:"account_id"`
	FullName      string        `gorm:"index;size:200" json:"full_name"`
	LicenceNumber string        `gorm:"uniqueIndex;size:32" json:"licence_number"`
	ADIGrade      int           `json:"adi_grade,omitempty"`
	Vehicle       string        `gorm:"size:100" json:"vehicle,omitempty"`
	Transmission  Transmission  `gorm:"size:20;default:'manual'" json:"transmission"`
	Suburb        string        `gorm:"index;size:100" json:"suburb,omitempty"`
	HourlyRate    float64       `json:"hourly_rate"`
	Status        AccountStatus `gorm:"index;size:20;default:'ACTIVE'" json:"status"`

	Version   int64     `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StudentProfile holds the learner-side details for a student account.
type StudentProfile struct {
	ID                    int64         `gorm:"primaryKey" json:"id"`
	AccountID             int64         `gorm:"index" json:"account_id"`
	FullName              string        `gorm:"index;size:200" json:"full_name"`
	LicenceNumber         string        `gorm:"size:32" json:"licence_number,omitempty"`
	PreferredTransmission Transmission  `gorm:"size:20;default:'manual'" json:"preferred_transmission"`
	Suburb                string        `gorm:"index;size:100" json:"suburb,omitempty"`
	ProgressLevel         int           `json:"progress_level"`
	Status                AccountStatus `gorm:"index;size:20;default:'ACTIVE'" json:"status"`

	Version   int64     `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Booking is a single scheduled driving lesson.
type Booking struct {
	ID              int64         `gorm:"primaryKey" json:"id"`
	StudentID       int64         `gorm:"index" json:"student_id"`
	InstructorID    int64         `gorm:"index" json:"instructor_id"`
	LessonDate      string        `gorm:"index;size:10" json:"lesson_date"` // YYYY-MM-DD
	StartTime       string        `gorm:"size:5" json:"start_time"`         // HH:MM
	DurationMinutes int           `gorm:"default:60" json:"duration_minutes"`
	LessonType      string        `gorm:"size:50" json:"lesson_type,omitempty"`
	PickupSuburb    string        `gorm:"index;size:100" json:"pickup_suburb,omitempty"`
	Price           float64       `json:"price"`
	Status          BookingStatus `gorm:"index;size:20;default:'BOOKED'" json:"status"`

	Version   int64     `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}

func (InstructorProfile) TableName() string {
	return "instructor_profiles"
}

func (StudentProfile) TableName() string {
	return "student_profiles"
}

func (Booking) TableName() string {
	return "bookings"
}
