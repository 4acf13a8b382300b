package models

import (
	"time"

	"gorm.io/datatypes"
)

type Event struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Type            string         `gorm:"size:50;index;not null" json:"type"`
	Title           string         `gorm:"size:255;not null" json:"title"`
	Description     string         `gorm:"size:2000" json:"description,omitempty"`
	Location        string         `gorm:"size:255" json:"location,omitempty"`
	StartTime       time.Time      `gorm:"not null" json:"start_time"`
	EndTime         time.Time      `gorm:"not null" json:"end_time"`
	Data            datatypes.JSON `json:"data,omitempty"`
	Capacity        *int           `json:"capacity,omitempty"` // nil = unlimited
	IsPublished     bool           `gorm:"not null;default:false" json:"is_published"`
	CreatedByUserID *uint          `json:"created_by_user_id,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`

	Creator       *User               `gorm:"foreignKey:CreatedByUserID" json:"creator,omitempty"`
	Registrations []EventRegistration `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"registrations,omitempty"`
}
