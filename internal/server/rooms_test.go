package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/nearchat/nearchat/internal/stats"
	"github.com/nearchat/nearchat/internal/testutil"
)

func newTestRoomManager(t *testing.T, presence *Presence) *RoomManager {
	t.Helper()

	su := &stats.MockStatsUpdater{}
	su.On("Incr", mock.Anything).Return(nil).Maybe()
	su.On("Decr", mock.Anything).Return(nil).Maybe()

	return NewRoomManager(testutil.TestLogger(t), presence, su)
}

func TestDeriveRoomKey(t *testing.T) {
	assert.Equal(t, "1_2", DeriveRoomKey(1, 2), "expected sorted pair key")
	assert.Equal(t, "1_2", DeriveRoomKey(2, 1), "expected key to be symmetric")
	assert.Equal(t, DeriveRoomKey(42, 7), DeriveRoomKey(7, 42), "expected key to be symmetric for any pair")
	assert.Equal(t, "5_5", DeriveRoomKey(5, 5), "expected self pair to produce a key")
}

func TestParseRoomKey(t *testing.T) {
	a, b, ok := ParseRoomKey("1_2")
	assert.True(t, ok, "expected valid key to parse")
	assert.Equal(t, 1, a, "expected first participant")
	assert.Equal(t, 2, b, "expected second participant")

	for _, key := range []string{"", "1", "1_x", "x_2", "_"} {
		_, _, ok := ParseRoomKey(key)
		assert.Falsef(t, ok, "expected key %q not to parse", key)
	}
}

func TestRequestChat(t *testing.T) {
	p := NewPresence()
	rm := newTestRoomManager(t, p)

	initiator := newTestClient(t, "conn-1")
	initiator.username = "alice"
	target := newTestClient(t, "conn-2")

	p.Register(initiator, 1)
	p.Register(target, 2)

	rm.RequestChat(initiator, 2)

	targetEvents := receivedEvents(target)
	assert.Len(t, targetEvents, 1, "expected target to receive exactly one event")
	req := targetEvents[0].ChatRequest
	assert.NotNil(t, req, "expected a chat_request event")
	assert.Equal(t, 1, req.From, "expected request to carry the initiator's user id")
	assert.Equal(t, "alice", req.FromName, "expected request to carry the initiator's name")
	assert.Equal(t, "1_2", req.RoomId, "expected request to carry the derived room key")

	initiatorEvents := receivedEvents(initiator)
	assert.Len(t, initiatorEvents, 1, "expected initiator to receive exactly one event")
	joined := initiatorEvents[0].ChatJoined
	assert.NotNil(t, joined, "expected a chat_joined ack")
	assert.Equal(t, "1_2", joined.RoomId, "expected ack to carry the room key")

	assert.Equal(t, 1, rm.RoomSize("1_2"), "expected only the initiator to be subscribed")
}

func TestRequestChatUnregisteredInitiator(t *testing.T) {
	p := NewPresence()
	rm := newTestRoomManager(t, p)

	initiator := newTestClient(t, "conn-1")
	target := newTestClient(t, "conn-2")
	p.Register(target, 2)

	rm.RequestChat(initiator, 2)

	assert.Empty(t, receivedEvents(target), "expected no events for the target")
	assert.Empty(t, receivedEvents(initiator), "expected no ack for the initiator")
	assert.Zero(t, rm.RoomSize("0_2"), "expected no room to be created")
}

func TestAcceptChat(t *testing.T) {
	t.Run("participant joins", func(t *testing.T) {
		p := NewPresence()
		rm := newTestRoomManager(t, p)

		c := newTestClient(t, "conn-2")
		p.Register(c, 2)

		rm.AcceptChat(c, "1_2")
		assert.Equal(t, 1, rm.RoomSize("1_2"), "expected participant to be subscribed")
	})

	t.Run("non-participant rejected", func(t *testing.T) {
		p := NewPresence()
		rm := newTestRoomManager(t, p)

		c := newTestClient(t, "conn-3")
		p.Register(c, 3)

		rm.AcceptChat(c, "1_2")
		assert.Zero(t, rm.RoomSize("1_2"), "expected non-participant to be rejected")
	})

	t.Run("unregistered connection rejected", func(t *testing.T) {
		p := NewPresence()
		rm := newTestRoomManager(t, p)

		c := newTestClient(t, "conn-1")

		rm.AcceptChat(c, "1_2")
		assert.Zero(t, rm.RoomSize("1_2"), "expected unregistered connection to be rejected")
	})

	t.Run("malformed room key dropped", func(t *testing.T) {
		p := NewPresence()
		rm := newTestRoomManager(t, p)

		c := newTestClient(t, "conn-1")
		p.Register(c, 1)

		rm.AcceptChat(c, "not-a-key")
		assert.Zero(t, rm.RoomSize("not-a-key"), "expected malformed key to be dropped")
	})
}

func TestSendMessageNoSubscribers(t *testing.T) {
	p := NewPresence()
	rm := newTestRoomManager(t, p)

	c := newTestClient(t, "conn-1")
	p.Register(c, 1)

	rm.SendMessage(c, "1_2", "hello?")

	assert.Empty(t, receivedEvents(c), "expected zero deliveries for an empty room")
}

func TestSendMessageBeforeAccept(t *testing.T) {
	p := NewPresence()
	rm := newTestRoomManager(t, p)

	u1 := newTestClient(t, "conn-1")
	u2 := newTestClient(t, "conn-2")
	p.Register(u1, 1)
	p.Register(u2, 2)

	rm.RequestChat(u1, 2)
	receivedEvents(u1) // drop the ack
	receivedEvents(u2) // drop the chat request

	rm.SendMessage(u1, "1_2", "hi")

	u1Events := receivedEvents(u1)
	assert.Len(t, u1Events, 1, "expected sender to receive its own message")
	msg := u1Events[0].ReceiveMessage
	assert.NotNil(t, msg, "expected a receive_message event")
	assert.Equal(t, "hi", msg.Text, "expected message text to match")
	if assert.NotNil(t, msg.SenderId, "expected sender id to be set") {
		assert.Equal(t, 1, *msg.SenderId, "expected sender id to match")
	}

	assert.Empty(t, receivedEvents(u2), "expected nothing for a user who has not accepted")
}

func TestSendMessageAfterAccept(t *testing.T) {
	p := NewPresence()
	rm := newTestRoomManager(t, p)

	u1 := newTestClient(t, "conn-1")
	u2 := newTestClient(t, "conn-2")
	p.Register(u1, 1)
	p.Register(u2, 2)

	rm.RequestChat(u1, 2)
	rm.AcceptChat(u2, "1_2")
	receivedEvents(u1)
	receivedEvents(u2)

	rm.SendMessage(u2, "1_2", "hey there")

	for _, c := range []*Client{u1, u2} {
		events := receivedEvents(c)
		assert.Lenf(t, events, 1, "expected one delivery on connection %q", c.id)
		msg := events[0].ReceiveMessage
		assert.NotNil(t, msg, "expected a receive_message event")
		assert.Equal(t, "hey there", msg.Text, "expected message text to match")
		if assert.NotNil(t, msg.SenderId, "expected sender id to be set") {
			assert.Equal(t, 2, *msg.SenderId, "expected sender id to match")
		}
	}
}

func TestSendMessageUnregisteredSender(t *testing.T) {
	p := NewPresence()
	rm := newTestRoomManager(t, p)

	c := newTestClient(t, "conn-1")
	rm.subscribe(c, "1_2")

	rm.SendMessage(c, "1_2", "anonymous")

	events := receivedEvents(c)
	assert.Len(t, events, 1, "expected the message to be delivered")
	msg := events[0].ReceiveMessage
	assert.NotNil(t, msg, "expected a receive_message event")
	assert.Nil(t, msg.SenderId, "expected a null sender id for an unregistered sender")
}

func TestLeaveAllTearsDownEmptyRooms(t *testing.T) {
	p := NewPresence()

	su := &stats.MockStatsUpdater{}
	su.On("Incr", statActiveRooms).Return(nil).Once()
	su.On("Incr", mock.Anything).Return(nil).Maybe()
	su.On("Decr", statActiveRooms).Return(nil).Once()
	defer su.AssertExpectations(t)

	rm := NewRoomManager(testutil.TestLogger(t), p, su)

	u1 := newTestClient(t, "conn-1")
	u2 := newTestClient(t, "conn-2")
	p.Register(u1, 1)
	p.Register(u2, 2)

	rm.subscribe(u1, "1_2")
	rm.subscribe(u2, "1_2")
	assert.Equal(t, 2, rm.RoomSize("1_2"), "expected both connections in the room")

	rm.LeaveAll(u1)
	assert.Equal(t, 1, rm.RoomSize("1_2"), "expected room to survive while subscribed")

	rm.LeaveAll(u2)
	assert.Zero(t, rm.RoomSize("1_2"), "expected room to be torn down with its last subscriber")
	assert.Empty(t, u2.roomKeys(), "expected client room bookkeeping to be cleared")
}
