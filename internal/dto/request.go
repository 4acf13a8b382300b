package dto

import (
	"encoding/json"
	"time"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type CreateEventRequest struct {
	Type        string          `json:"type" validate:"required"`
	Title       string          `json:"title" validate:"required"`
	Description string          `json:"description"`
	Location    string          `json:"location"`
	StartTime   time.Time       `json:"start_time" validate:"required"`
	EndTime     time.Time       `json:"end_time" validate:"required,gtfield=StartTime"`
	Data        json.RawMessage `json:"data,omitempty"`
	Capacity    *int            `json:"capacity,omitempty" validate:"omitempty,gte=0"`
	IsPublished bool            `json:"is_published"`
}

type UpdateEventRequest struct {
	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	Location    *string         `json:"location,omitempty"`
	StartTime   *time.Time      `json:"start_time,omitempty"`
	EndTime     *time.Time      `json:"end_time,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
	Capacity    *int            `json:"capacity,omitempty" validate:"omitempty,gte=0"`
	IsPublished *bool           `json:"is_published,omitempty"`
}

type RegisterRequest struct {
	EventID             uint   `json:"event_id" validate:"required"`
	Notes               string `json:"notes"`
	EmergencyContact    string `json:"emergency_contact"`
	DietaryRestrictions string `json:"dietary_restrictions"`
	SpecialNeeds        string `json:"special_needs"`
}

// UpdateRegistrationRequest is the privileged partial update; only fields that
// are present are applied.
type UpdateRegistrationRequest struct {
	Status              *string `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed waitlist cancelled"`
	Notes               *string `json:"notes,omitempty"`
	EmergencyContact    *string `json:"emergency_contact,omitempty"`
	DietaryRestrictions *string `json:"dietary_restrictions,omitempty"`
	SpecialNeeds        *string `json:"special_needs,omitempty"`
}

type RecordAttendanceRequest struct {
	RegistrationID uint       `json:"registration_id" validate:"required"`
	WasPresent     bool       `json:"was_present"`
	CheckInTime    *time.Time `json:"check_in_time,omitempty"`
	CheckOutTime   *time.Time `json:"check_out_time,omitempty"`
	Notes          string     `json:"notes"`
}

type CreateGroupRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	IsPrivate   bool   `json:"is_private"`
}

type CreateManagedGroupRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	IsPrivate   bool   `json:"is_private"`
	GroupType   string `json:"group_type" validate:"required,oneof=admin_managed instructor_managed"`
	MemberIDs   []uint `json:"member_ids"`
}

type UpdateGroupRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsPrivate   *bool   `json:"is_private,omitempty"`
}

type AddMemberRequest struct {
	UserID  uint `json:"user_id" validate:"required"`
	IsAdmin bool `json:"is_admin"`
}

type SendMessageRequest struct {
	Content     string `json:"content" validate:"required"`
	MessageType string `json:"message_type" validate:"omitempty,oneof=text image file"`
}
