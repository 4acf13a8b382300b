package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/KobaKhit/rebelzapp/internal/dto"
	"github.com/KobaKhit/rebelzapp/internal/models"
	"github.com/KobaKhit/rebelzapp/internal/repository"
	"github.com/KobaKhit/rebelzapp/internal/service"
	"github.com/KobaKhit/rebelzapp/internal/ws"
	"github.com/KobaKhit/rebelzapp/pkg/token"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

type WebSocketHandler struct {
	hub      *ws.Hub
	chatSvc  service.ChatService
	userRepo repository.UserRepository
	tokens   *token.Manager
	upgrader websocket.Upgrader
}

func NewWebSocketHandler(hub *ws.Hub, chatSvc service.ChatService, userRepo repository.UserRepository, tokens *token.Manager) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      hub,
		chatSvc:  chatSvc,
		userRepo: userRepo,
		tokens:   tokens,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *WebSocketHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/chat/:group_id", h.Serve)
}

// Serve upgrades the connection, authenticates the credential, verifies group
// membership and then runs the receive loop until the peer goes away. Auth and
// membership failures close with a policy-violation code before any broadcast.
func (h *WebSocketHandler) Serve(c echo.Context) error {
	groupID, err := parseID(c, "group_id")
	if err != nil {
		return err
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()

	user, err := h.authenticate(ctx, c.QueryParam("token"))
	if err != nil {
		closeWithPolicyViolation(conn, "authentication failed")
		return nil
	}

	member, err := h.chatSvc.IsMember(ctx, groupID, user.ID)
	if err != nil || !member {
		closeWithPolicyViolation(conn, "not a member of this group")
		return nil
	}

	client := ws.NewClient(conn, user)
	h.hub.Join(groupID, client)
	_ = client.Send(ws.ConnectionEvent{Type: ws.EventConnection, GroupID: groupID})

	done := make(chan struct{})
	go h.heartbeat(client, done)

	client.ExtendReadDeadline(pongWait)
	for {
		data, err := client.ReadMessage()
		if err != nil {
			break
		}
		h.dispatch(ctx, groupID, client, data)
	}

	close(done)
	h.hub.Leave(groupID, client)
	_ = client.Close()
	return nil
}

// dispatch handles one inbound payload. Malformed JSON and unknown types are
// logged and ignored; a single bad message never terminates the connection.
func (h *WebSocketHandler) dispatch(ctx context.Context, groupID uint, client *ws.Client, data []byte) {
	var msg ws.Inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("[ws] ignoring malformed payload from user %d: %v", client.User.ID, err)
		return
	}

	switch msg.Type {
	case ws.EventTyping:
		h.hub.Broadcast(groupID, ws.TypingEvent{
			Type:     ws.EventTyping,
			GroupID:  groupID,
			User:     dto.ToUserSummary(client.User),
			IsTyping: msg.IsTyping,
		}, client)

	case ws.EventMessage:
		saved, err := h.chatSvc.SendMessage(ctx, groupID, client.User.ID, msg.Content, models.MessageType(msg.MessageType))
		if err != nil {
			log.Printf("[ws] persist message failed for user %d in group %d: %v", client.User.ID, groupID, err)
			return
		}
		// the sender receives the broadcast too, as its echo/ack
		h.hub.Broadcast(groupID, ws.MessageEvent{
			Type:    ws.EventMessage,
			Message: dto.ToMessageResponse(saved),
		}, nil)

	default:
		log.Printf("[ws] ignoring unknown payload type %q from user %d", msg.Type, client.User.ID)
	}
}

func (h *WebSocketHandler) heartbeat(client *ws.Client, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := client.Ping(time.Now().Add(writeWait)); err != nil {
				return
			}
			_ = client.Send(ws.HeartbeatEvent{Type: ws.EventHeartbeat})
		}
	}
}

func (h *WebSocketHandler) authenticate(ctx context.Context, raw string) (*models.User, error) {
	userID, err := h.tokens.Verify(raw)
	if err != nil {
		return nil, err
	}
	user, err := h.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, token.ErrInvalidToken
	}
	return user, nil
}

func closeWithPolicyViolation(conn *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	_ = conn.Close()
}
