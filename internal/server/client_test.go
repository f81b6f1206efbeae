package server

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nearchat/nearchat/internal/testutil"
)

func TestQueueEvent(t *testing.T) {
	c := &Client{
		id:   "conn-1",
		log:  testutil.TestLogger(t),
		send: make(chan *ServerEvent, 1),
	}

	evt := &ServerEvent{Timestamp: Now()}
	assert.True(t, c.QueueEvent(evt), "expected event to be queued")
	assert.False(t, c.QueueEvent(evt), "expected event to be dropped when the buffer is full")

	queued := <-c.send
	assert.Equal(t, evt, queued, "expected queued event to match")
}

func TestClientRoomBookkeeping(t *testing.T) {
	c := newTestClient(t, "conn-1")

	assert.Empty(t, c.roomKeys(), "expected no rooms initially")

	c.addRoom("1_2")
	c.addRoom("1_3")
	assert.ElementsMatch(t, []string{"1_2", "1_3"}, c.roomKeys(), "expected both rooms to be tracked")

	c.delRoom("1_2")
	assert.Equal(t, []string{"1_3"}, c.roomKeys(), "expected remaining room only")
}
