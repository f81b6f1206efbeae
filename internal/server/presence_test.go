package server

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nearchat/nearchat/internal/testutil"
)

func newTestClient(t *testing.T, id string) *Client {
	t.Helper()
	return &Client{
		id:    id,
		log:   testutil.TestLogger(t),
		send:  make(chan *ServerEvent, 16),
		stop:  make(chan struct{}),
		rooms: make(map[string]struct{}),
	}
}

// receivedEvents drains every queued event without blocking.
func receivedEvents(c *Client) []*ServerEvent {
	var events []*ServerEvent
	for {
		select {
		case evt := <-c.send:
			events = append(events, evt)
		default:
			return events
		}
	}
}

func TestPresenceRegisterUnregister(t *testing.T) {
	p := NewPresence()
	c := newTestClient(t, "conn-1")

	assert.False(t, p.IsOnline(1), "expected user to be offline before registration")

	cameOnline, _, _ := p.Register(c, 1)
	assert.True(t, cameOnline, "expected first registration to bring user online")
	assert.True(t, p.IsOnline(1), "expected user to be online after registration")

	userId, ok := p.LookupUser(c.id)
	assert.True(t, ok, "expected connection to be registered")
	assert.Equal(t, 1, userId, "expected connection to map to user 1")

	gone, wentOffline := p.Unregister(c)
	assert.Equal(t, 1, gone, "expected unregister to return the user id")
	assert.True(t, wentOffline, "expected user to go offline with last connection")
	assert.False(t, p.IsOnline(1), "expected user to be offline after unregister")

	_, ok = p.LookupUser(c.id)
	assert.False(t, ok, "expected connection lookup to fail after unregister")
}

func TestPresenceUnregisterUnknownConnection(t *testing.T) {
	p := NewPresence()
	c := newTestClient(t, "conn-1")

	userId, wentOffline := p.Unregister(c)
	assert.Zero(t, userId, "expected zero user id for unknown connection")
	assert.False(t, wentOffline, "expected no offline transition for unknown connection")
}

func TestPresenceRegisterIdempotent(t *testing.T) {
	p := NewPresence()
	c := newTestClient(t, "conn-1")

	cameOnline, _, _ := p.Register(c, 1)
	assert.True(t, cameOnline, "expected first registration to bring user online")
	cameOnline, _, prevWentOffline := p.Register(c, 1)
	assert.False(t, cameOnline, "expected repeat registration to be a no-op")
	assert.False(t, prevWentOffline, "expected no offline transition on repeat registration")

	_, wentOffline := p.Unregister(c)
	assert.True(t, wentOffline, "expected a single unregister to take the user offline")
}

func TestPresenceMultipleConnections(t *testing.T) {
	p := NewPresence()
	c1 := newTestClient(t, "conn-1")
	c2 := newTestClient(t, "conn-2")

	cameOnline, _, _ := p.Register(c1, 1)
	assert.True(t, cameOnline, "expected first connection to bring user online")
	cameOnline, _, _ = p.Register(c2, 1)
	assert.False(t, cameOnline, "expected second connection to find user already online")

	_, wentOffline := p.Unregister(c1)
	assert.False(t, wentOffline, "expected user to stay online while another connection remains")
	assert.True(t, p.IsOnline(1), "expected user online with one connection left")

	_, wentOffline = p.Unregister(c2)
	assert.True(t, wentOffline, "expected user offline after last connection unregisters")
}

func TestPresenceRegisterMovesConnection(t *testing.T) {
	p := NewPresence()
	c := newTestClient(t, "conn-1")

	p.Register(c, 1)
	cameOnline, prevUserId, prevWentOffline := p.Register(c, 2)
	assert.True(t, cameOnline, "expected new user to come online")
	assert.Equal(t, 1, prevUserId, "expected move to report the previous user id")
	assert.True(t, prevWentOffline, "expected previous user to report going offline")
	assert.False(t, p.IsOnline(1), "expected previous user to be offline after move")
	assert.True(t, p.IsOnline(2), "expected new user to be online after move")

	userId, _ := p.LookupUser(c.id)
	assert.Equal(t, 2, userId, "expected connection to map to the new user")
}

func TestPresenceMoveKeepsPreviousUserOnline(t *testing.T) {
	p := NewPresence()
	c1 := newTestClient(t, "conn-1")
	c2 := newTestClient(t, "conn-2")

	p.Register(c1, 1)
	p.Register(c2, 1)

	_, prevUserId, prevWentOffline := p.Register(c1, 2)
	assert.Equal(t, 1, prevUserId, "expected move to report the previous user id")
	assert.False(t, prevWentOffline, "expected previous user to stay online on another connection")
	assert.True(t, p.IsOnline(1), "expected previous user online with a remaining connection")
}

func TestPresenceSendToUser(t *testing.T) {
	p := NewPresence()
	c1 := newTestClient(t, "conn-1")
	c2 := newTestClient(t, "conn-2")

	p.Register(c1, 1)
	p.Register(c2, 1)

	evt := &ServerEvent{Timestamp: Now(), ChatJoined: &ChatJoined{RoomId: "1_2"}}
	delivered := p.SendToUser(1, evt)
	assert.Equal(t, 2, delivered, "expected delivery to both connections of the user")
	assert.Len(t, receivedEvents(c1), 1, "expected one event on first connection")
	assert.Len(t, receivedEvents(c2), 1, "expected one event on second connection")

	delivered = p.SendToUser(99, evt)
	assert.Zero(t, delivered, "expected zero deliveries for a user with no connections")
}
