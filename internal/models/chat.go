package models

import "time"

type GroupType string

const (
	GroupUserCreated       GroupType = "user_created"
	GroupAdminManaged      GroupType = "admin_managed"
	GroupInstructorManaged GroupType = "instructor_managed"
)

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageFile  MessageType = "file"
)

// ChatGroup owns its members and messages; both are removed with the group.
// GroupType is immutable after creation.
type ChatGroup struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	IsPrivate   bool      `gorm:"not null;default:false" json:"is_private"`
	GroupType   GroupType `gorm:"type:varchar(50);not null;default:'user_created'" json:"group_type"`
	CreatedByID uint      `gorm:"not null" json:"created_by_id"`
	ManagedByID *uint     `json:"managed_by_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	CreatedBy *User             `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	ManagedBy *User             `gorm:"foreignKey:ManagedByID" json:"managed_by,omitempty"`
	Members   []ChatGroupMember `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
	Messages  []ChatMessage     `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

// ChatGroupMember carries a group-scoped admin flag, distinct from global roles.
type ChatGroupMember struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	GroupID  uint      `gorm:"not null;uniqueIndex:idx_group_user" json:"group_id"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_group_user" json:"user_id"`
	IsAdmin  bool      `gorm:"not null;default:false" json:"is_admin"`
	JoinedAt time.Time `gorm:"not null" json:"joined_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

type ChatMessage struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	GroupID     uint        `gorm:"not null;index" json:"group_id"`
	SenderID    uint        `gorm:"not null" json:"sender_id"`
	Content     string      `gorm:"type:text;not null" json:"content"`
	MessageType MessageType `gorm:"type:varchar(50);not null;default:'text'" json:"message_type"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`

	Sender *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}
