package dto

import (
	"encoding/json"
	"time"

	"github.com/KobaKhit/rebelzapp/internal/models"
)

type ErrorResponse struct {
	Message string `json:"message"`
}

type TokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        UserSummary `json:"user"`
}

type UserSummary struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
}

type EventResponse struct {
	ID          uint            `json:"id"`
	Type        string          `json:"type"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Location    string          `json:"location,omitempty"`
	StartTime   time.Time       `json:"start_time"`
	EndTime     time.Time       `json:"end_time"`
	Data        json.RawMessage `json:"data,omitempty"`
	Capacity    *int            `json:"capacity,omitempty"`
	IsPublished bool            `json:"is_published"`
	CreatedAt   time.Time       `json:"created_at"`
}

// RegistrationResponse carries denormalized user/event display fields so list
// views don't need follow-up lookups.
type RegistrationResponse struct {
	ID                  uint                      `json:"id"`
	EventID             uint                      `json:"event_id"`
	UserID              uint                      `json:"user_id"`
	Status              models.RegistrationStatus `json:"status"`
	RegistrationDate    time.Time                 `json:"registration_date"`
	Notes               string                    `json:"notes,omitempty"`
	EmergencyContact    string                    `json:"emergency_contact,omitempty"`
	DietaryRestrictions string                    `json:"dietary_restrictions,omitempty"`
	SpecialNeeds        string                    `json:"special_needs,omitempty"`
	UserEmail           string                    `json:"user_email,omitempty"`
	UserFullName        string                    `json:"user_full_name,omitempty"`
	EventTitle          string                    `json:"event_title,omitempty"`
}

type AttendanceResponse struct {
	ID               uint       `json:"id"`
	RegistrationID   uint       `json:"registration_id"`
	CheckInTime      *time.Time `json:"check_in_time,omitempty"`
	CheckOutTime     *time.Time `json:"check_out_time,omitempty"`
	WasPresent       bool       `json:"was_present"`
	Notes            string     `json:"notes,omitempty"`
	RecordedByUserID *uint      `json:"recorded_by_user_id,omitempty"`
	UserEmail        string     `json:"user_email,omitempty"`
	UserFullName     string     `json:"user_full_name,omitempty"`
}

type EventStatsResponse struct {
	EventID                uint     `json:"event_id"`
	EventTitle             string   `json:"event_title"`
	TotalCapacity          *int     `json:"total_capacity,omitempty"`
	TotalRegistrations     int64    `json:"total_registrations"`
	ConfirmedRegistrations int64    `json:"confirmed_registrations"`
	PendingRegistrations   int64    `json:"pending_registrations"`
	WaitlistRegistrations  int64    `json:"waitlist_registrations"`
	CancelledRegistrations int64    `json:"cancelled_registrations"`
	AttendanceRate         *float64 `json:"attendance_rate,omitempty"`
}

type GroupResponse struct {
	ID          uint             `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	IsPrivate   bool             `json:"is_private"`
	GroupType   models.GroupType `json:"group_type"`
	CreatedByID uint             `json:"created_by_id"`
	ManagedByID *uint            `json:"managed_by_id,omitempty"`
	MemberCount int              `json:"member_count"`
	Members     []MemberResponse `json:"members,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

type MemberResponse struct {
	UserID   uint      `json:"user_id"`
	IsAdmin  bool      `json:"is_admin"`
	JoinedAt time.Time `json:"joined_at"`
	Email    string    `json:"email,omitempty"`
	FullName string    `json:"full_name,omitempty"`
}

type MessageResponse struct {
	ID          uint               `json:"id"`
	GroupID     uint               `json:"group_id"`
	SenderID    uint               `json:"sender_id"`
	Content     string             `json:"content"`
	MessageType models.MessageType `json:"message_type"`
	CreatedAt   time.Time          `json:"created_at"`
	Sender      *UserSummary       `json:"sender,omitempty"`
}

func ToUserSummary(u *models.User) UserSummary {
	return UserSummary{ID: u.ID, Email: u.Email, FullName: u.FullName}
}

func ToEventResponse(e *models.Event) EventResponse {
	return EventResponse{
		ID:          e.ID,
		Type:        e.Type,
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Data:        json.RawMessage(e.Data),
		Capacity:    e.Capacity,
		IsPublished: e.IsPublished,
		CreatedAt:   e.CreatedAt,
	}
}

func ToRegistrationResponse(r *models.EventRegistration) RegistrationResponse {
	resp := RegistrationResponse{
		ID:                  r.ID,
		EventID:             r.EventID,
		UserID:              r.UserID,
		Status:              r.Status,
		RegistrationDate:    r.RegistrationDate,
		Notes:               r.Notes,
		EmergencyContact:    r.EmergencyContact,
		DietaryRestrictions: r.DietaryRestrictions,
		SpecialNeeds:        r.SpecialNeeds,
	}
	if r.User != nil {
		resp.UserEmail = r.User.Email
		resp.UserFullName = r.User.FullName
	}
	if r.Event != nil {
		resp.EventTitle = r.Event.Title
	}
	return resp
}

func ToAttendanceResponse(a *models.AttendanceRecord) AttendanceResponse {
	resp := AttendanceResponse{
		ID:               a.ID,
		RegistrationID:   a.RegistrationID,
		CheckInTime:      a.CheckInTime,
		CheckOutTime:     a.CheckOutTime,
		WasPresent:       a.WasPresent,
		Notes:            a.Notes,
		RecordedByUserID: a.RecordedByUserID,
	}
	if a.Registration != nil && a.Registration.User != nil {
		resp.UserEmail = a.Registration.User.Email
		resp.UserFullName = a.Registration.User.FullName
	}
	return resp
}

func ToGroupResponse(g *models.ChatGroup) GroupResponse {
	resp := GroupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		IsPrivate:   g.IsPrivate,
		GroupType:   g.GroupType,
		CreatedByID: g.CreatedByID,
		ManagedByID: g.ManagedByID,
		MemberCount: len(g.Members),
		CreatedAt:   g.CreatedAt,
	}
	for _, m := range g.Members {
		member := MemberResponse{UserID: m.UserID, IsAdmin: m.IsAdmin, JoinedAt: m.JoinedAt}
		if m.User != nil {
			member.Email = m.User.Email
			member.FullName = m.User.FullName
		}
		resp.Members = append(resp.Members, member)
	}
	return resp
}

func ToMessageResponse(m *models.ChatMessage) MessageResponse {
	resp := MessageResponse{
		ID:          m.ID,
		GroupID:     m.GroupID,
		SenderID:    m.SenderID,
		Content:     m.Content,
		MessageType: m.MessageType,
		CreatedAt:   m.CreatedAt,
	}
	if m.Sender != nil {
		s := ToUserSummary(m.Sender)
		resp.Sender = &s
	}
	return resp
}
