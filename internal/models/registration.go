package models

import "time"

type RegistrationStatus string

const (
	StatusPending   RegistrationStatus = "pending"
	StatusConfirmed RegistrationStatus = "confirmed"
	StatusWaitlist  RegistrationStatus = "waitlist"
	StatusCancelled RegistrationStatus = "cancelled"
)

// EventRegistration is unique per (event, user); the composite index backs the
// duplicate check in the admission controller. Cancelling removes the row, so
// a user can register again afterwards.
type EventRegistration struct {
	ID                  uint               `gorm:"primaryKey" json:"id"`
	EventID             uint               `gorm:"not null;uniqueIndex:idx_event_user" json:"event_id"`
	UserID              uint               `gorm:"not null;uniqueIndex:idx_event_user" json:"user_id"`
	Status              RegistrationStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	RegistrationDate    time.Time          `gorm:"not null" json:"registration_date"`
	Notes               string             `gorm:"type:text" json:"notes,omitempty"`
	EmergencyContact    string             `gorm:"size:255" json:"emergency_contact,omitempty"`
	DietaryRestrictions string             `gorm:"type:text" json:"dietary_restrictions,omitempty"`
	SpecialNeeds        string             `gorm:"type:text" json:"special_needs,omitempty"`

	Event      *Event            `gorm:"foreignKey:EventID" json:"event,omitempty"`
	User       *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Attendance *AttendanceRecord `gorm:"foreignKey:RegistrationID;constraint:OnDelete:CASCADE" json:"attendance,omitempty"`
}

// AttendanceRecord is one-to-one with a registration; the unique index rejects
// a second record for the same registration.
type AttendanceRecord struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	RegistrationID   uint       `gorm:"not null;uniqueIndex" json:"registration_id"`
	CheckInTime      *time.Time `json:"check_in_time,omitempty"`
	CheckOutTime     *time.Time `json:"check_out_time,omitempty"`
	WasPresent       bool       `gorm:"not null;default:false" json:"was_present"`
	Notes            string     `gorm:"type:text" json:"notes,omitempty"`
	RecordedByUserID *uint      `json:"recorded_by_user_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`

	Registration *EventRegistration `gorm:"foreignKey:RegistrationID" json:"registration,omitempty"`
}
