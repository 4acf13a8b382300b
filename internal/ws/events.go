package ws

import "github.com/KobaKhit/rebelzapp/internal/dto"

// Outbound event type tags. Inbound payloads reuse EventTyping and
// EventMessage as their discriminator.
const (
	EventConnection = "connection"
	EventHeartbeat  = "heartbeat"
	EventUserJoined = "user_joined"
	EventUserLeft   = "user_left"
	EventTyping     = "typing"
	EventMessage    = "message"
	EventError      = "error"
)

// Inbound is the envelope clients send; unknown types are ignored.
type Inbound struct {
	Type        string `json:"type"`
	Content     string `json:"content,omitempty"`
	MessageType string `json:"message_type,omitempty"`
	IsTyping    bool   `json:"is_typing,omitempty"`
}

type ConnectionEvent struct {
	Type    string `json:"type"`
	GroupID uint   `json:"group_id"`
}

type HeartbeatEvent struct {
	Type string `json:"type"`
}

type PresenceEvent struct {
	Type    string          `json:"type"`
	GroupID uint            `json:"group_id"`
	User    dto.UserSummary `json:"user"`
}

type TypingEvent struct {
	Type     string          `json:"type"`
	GroupID  uint            `json:"group_id"`
	User     dto.UserSummary `json:"user"`
	IsTyping bool            `json:"is_typing"`
}

type MessageEvent struct {
	Type    string              `json:"type"`
	Message dto.MessageResponse `json:"message"`
}
