package ws

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/KobaKhit/rebelzapp/internal/models"
	"github.com/stretchr/testify/assert"
)

// fakeConn records everything written to it; failAll makes every write error,
// simulating a dead peer.
type fakeConn struct {
	mu      sync.Mutex
	written []any
	failAll bool
	closed  bool
}

func (f *fakeConn) WriteJSON(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return errors.New("write to closed connection")
	}
	f.written = append(f.written, v)
	return nil
}

func (f *fakeConn) WriteControl(messageType int, data []byte, deadline time.Time) error {
	if f.failAll {
		return errors.New("write to closed connection")
	}
	return nil
}

func (f *fakeConn) ReadMessage() (int, []byte, error) { return 0, nil, errors.New("not implemented") }
func (f *fakeConn) SetReadDeadline(t time.Time) error { return nil }
func (f *fakeConn) SetPongHandler(h func(string) error) {}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) events() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]any, len(f.written))
	copy(out, f.written)
	return out
}

func newFakeClient(userID uint) (*Client, *fakeConn) {
	conn := &fakeConn{}
	user := &models.User{ID: userID, Email: "user@example.com"}
	return NewClient(conn, user), conn
}

func TestJoin_AnnouncesToOthersNotSelf(t *testing.T) {
	hub := NewHub()
	first, firstConn := newFakeClient(1)
	second, secondConn := newFakeClient(2)

	hub.Join(7, first)
	hub.Join(7, second)

	assert.Equal(t, 2, hub.Connections(7))

	// the earlier member hears about the join
	events := firstConn.events()
	assert.Len(t, events, 1)
	presence, ok := events[0].(PresenceEvent)
	assert.True(t, ok)
	assert.Equal(t, EventUserJoined, presence.Type)
	assert.Equal(t, uint(2), presence.User.ID)

	// the joiner does not hear its own join
	assert.Empty(t, secondConn.events())
}

func TestLeave_AnnouncesAndCleansUpEmptyGroup(t *testing.T) {
	hub := NewHub()
	first, firstConn := newFakeClient(1)
	second, _ := newFakeClient(2)

	hub.Join(7, first)
	hub.Join(7, second)
	hub.Leave(7, second)

	assert.Equal(t, 1, hub.Connections(7))
	assert.False(t, hub.Registered(second))

	events := firstConn.events()
	assert.Len(t, events, 2)
	left, ok := events[1].(PresenceEvent)
	assert.True(t, ok)
	assert.Equal(t, EventUserLeft, left.Type)
	assert.Equal(t, uint(2), left.User.ID)

	// last member out removes the group entry entirely
	hub.Leave(7, first)
	assert.Equal(t, 0, hub.Connections(7))
	assert.False(t, hub.Registered(first))
}

func TestBroadcast_ExcludesSender(t *testing.T) {
	hub := NewHub()
	sender, senderConn := newFakeClient(1)
	receiver, receiverConn := newFakeClient(2)

	hub.Join(7, sender)
	hub.Join(7, receiver)

	hub.Broadcast(7, TypingEvent{Type: EventTyping, GroupID: 7, IsTyping: true}, sender)

	var senderTyping, receiverTyping int
	for _, e := range senderConn.events() {
		if te, ok := e.(TypingEvent); ok && te.IsTyping {
			senderTyping++
		}
	}
	for _, e := range receiverConn.events() {
		if te, ok := e.(TypingEvent); ok && te.IsTyping {
			receiverTyping++
		}
	}
	assert.Equal(t, 0, senderTyping)
	assert.Equal(t, 1, receiverTyping)
}

func TestBroadcast_IncludesEveryoneWithoutExclude(t *testing.T) {
	hub := NewHub()
	first, firstConn := newFakeClient(1)
	second, secondConn := newFakeClient(2)

	hub.Join(7, first)
	hub.Join(7, second)

	hub.Broadcast(7, MessageEvent{Type: EventMessage}, nil)

	countMessages := func(events []any) int {
		n := 0
		for _, e := range events {
			if _, ok := e.(MessageEvent); ok {
				n++
			}
		}
		return n
	}
	assert.Equal(t, 1, countMessages(firstConn.events()))
	assert.Equal(t, 1, countMessages(secondConn.events()))
}

func TestBroadcast_PrunesFailedConnections(t *testing.T) {
	hub := NewHub()
	healthy, healthyConn := newFakeClient(1)
	dead, deadConn := newFakeClient(2)

	hub.Join(7, healthy)
	hub.Join(7, dead)
	deadConn.failAll = true

	hub.Broadcast(7, MessageEvent{Type: EventMessage}, nil)

	assert.Equal(t, 1, hub.Connections(7))
	assert.False(t, hub.Registered(dead))
	assert.True(t, hub.Registered(healthy))
	assert.True(t, deadConn.closed)

	// the healthy connection still got the event
	found := false
	for _, e := range healthyConn.events() {
		if _, ok := e.(MessageEvent); ok {
			found = true
		}
	}
	assert.True(t, found)
}

func TestBroadcast_UnknownGroupIsNoop(t *testing.T) {
	hub := NewHub()
	hub.Broadcast(99, MessageEvent{Type: EventMessage}, nil)
	assert.Equal(t, 0, hub.Connections(99))
}

func TestHub_GroupsAreIsolated(t *testing.T) {
	hub := NewHub()
	inGroup, inConn := newFakeClient(1)
	other, otherConn := newFakeClient(2)

	hub.Join(7, inGroup)
	hub.Join(8, other)

	hub.Broadcast(7, MessageEvent{Type: EventMessage}, nil)

	assert.Len(t, inConn.events(), 1)
	assert.Empty(t, otherConn.events())
}

func TestHub_ConcurrentJoinLeave(t *testing.T) {
	hub := NewHub()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			c, _ := newFakeClient(id)
			groupID := id % 5
			hub.Join(groupID, c)
			hub.Broadcast(groupID, TypingEvent{Type: EventTyping, GroupID: groupID}, c)
			hub.Leave(groupID, c)
		}(uint(i + 1))
	}
	wg.Wait()

	for g := uint(0); g < 5; g++ {
		assert.Equal(t, 0, hub.Connections(g))
	}
}
