package ws

import (
	"sync"
	"time"

	"github.com/KobaKhit/rebelzapp/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Conn is the subset of *websocket.Conn the hub needs; tests substitute fakes.
type Conn interface {
	WriteJSON(v any) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	ReadMessage() (int, []byte, error)
	SetReadDeadline(t time.Time) error
	SetPongHandler(h func(string) error)
	Close() error
}

// Client pairs a live connection with the authenticated user it represents.
// Writes are serialized through writeMu because gorilla connections do not
// support concurrent writers.
type Client struct {
	ID   string
	User *models.User

	conn    Conn
	writeMu sync.Mutex
}

func NewClient(conn Conn, user *models.User) *Client {
	return &Client{
		ID:   uuid.NewString(),
		User: user,
		conn: conn,
	}
}

func (c *Client) Send(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

// Ping sends a control frame; gorilla allows WriteControl concurrently with
// other writes.
func (c *Client) Ping(deadline time.Time) error {
	return c.conn.WriteControl(websocket.PingMessage, nil, deadline)
}

func (c *Client) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

// ExtendReadDeadline arms the idle-reaping deadline and refreshes it on every
// pong, so a connection that stops answering pings eventually errors out of
// its read loop.
func (c *Client) ExtendReadDeadline(wait time.Duration) {
	_ = c.conn.SetReadDeadline(time.Now().Add(wait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wait))
	})
}

func (c *Client) Close() error {
	return c.conn.Close()
}
