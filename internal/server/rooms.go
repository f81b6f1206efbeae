package server

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/nearchat/nearchat/internal/stats"
	"github.com/nearchat/nearchat/internal/types"
)

// DeriveRoomKey returns the deterministic key for the two-party room
// between userA and userB. Symmetric: the argument order is irrelevant.
func DeriveRoomKey(userA, userB int) string {
	if userA > userB {
		userA, userB = userB, userA
	}

	return fmt.Sprintf("%d_%d", userA, userB)
}

// ParseRoomKey extracts the participant user ids from a room key.
func ParseRoomKey(key string) (int, int, bool) {
	a, b, found := strings.Cut(key, "_")
	if !found {
		return 0, 0, false
	}

	userA, err := strconv.Atoi(a)
	if err != nil {
		return 0, 0, false
	}
	userB, err := strconv.Atoi(b)
	if err != nil {
		return 0, 0, false
	}

	return userA, userB, true
}

// RoomManager establishes pairwise chat rooms and relays messages
// within them. Rooms are created on first subscribe and torn down when
// the last subscriber's connection goes away.
type RoomManager struct {
	log      *log.Logger
	presence *Presence
	stats    stats.StatsProvider
	mu       sync.RWMutex
	rooms    map[string]map[*Client]struct{}
}

func NewRoomManager(logger *log.Logger, presence *Presence, su stats.StatsProvider) *RoomManager {
	return &RoomManager{
		log:      logger,
		presence: presence,
		stats:    su,
		rooms:    make(map[string]map[*Client]struct{}),
	}
}

// RequestChat subscribes the initiator to the pairwise room with
// targetUserId, notifies the target's personal group and acks the
// initiator. Silent no-op if the initiator never registered.
func (rm *RoomManager) RequestChat(c *Client, targetUserId int) {
	userId, ok := rm.presence.LookupUser(c.id)
	if !ok {
		rm.log.Printf("chat request from unregistered connection %q", c.id)
		return
	}

	key := DeriveRoomKey(userId, targetUserId)
	rm.subscribe(c, key)

	rm.presence.SendToUser(targetUserId, &ServerEvent{
		Timestamp: Now(),
		ChatRequest: &ChatRequest{
			From:     userId,
			FromName: c.Username(),
			RoomId:   key,
		},
	})

	c.QueueEvent(&ServerEvent{
		Timestamp:  Now(),
		ChatJoined: &ChatJoined{RoomId: key},
	})
}

// AcceptChat subscribes the connection to an existing pairwise room.
// The accepting connection must be registered to one of the two users
// named in the room key; anything else is dropped.
func (rm *RoomManager) AcceptChat(c *Client, roomKey string) {
	userA, userB, ok := ParseRoomKey(roomKey)
	if !ok {
		rm.log.Printf("accept chat with malformed room key %q", roomKey)
		return
	}

	userId, ok := rm.presence.LookupUser(c.id)
	if !ok {
		rm.log.Printf("accept chat from unregistered connection %q", c.id)
		return
	}

	if userId != userA && userId != userB {
		rm.log.Printf("user %d is not a participant of room %q", userId, roomKey)
		return
	}

	rm.subscribe(c, roomKey)
}

// SendMessage broadcasts a message to every subscriber of the room,
// including the sender. Unregistered senders produce a null sender id.
// A room with no subscribers yields zero deliveries and no error.
func (rm *RoomManager) SendMessage(c *Client, roomKey, text string) {
	var senderId *int
	if userId, ok := rm.presence.LookupUser(c.id); ok {
		senderId = &userId
	}

	n := rm.broadcast(roomKey, &ServerEvent{
		Timestamp: Now(),
		ReceiveMessage: &types.Message{
			Text:      text,
			SenderId:  senderId,
			Timestamp: Now(),
		},
	})
	if n > 0 {
		rm.stats.Incr(statMessagesRelayed)
	}
}

// LeaveAll removes the client from every room it is subscribed to,
// dropping rooms left with no subscribers. Called on connection close.
func (rm *RoomManager) LeaveAll(c *Client) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	for _, key := range c.roomKeys() {
		clients, ok := rm.rooms[key]
		if !ok {
			continue
		}

		delete(clients, c)
		c.delRoom(key)
		if len(clients) == 0 {
			delete(rm.rooms, key)
			rm.stats.Decr(statActiveRooms)
			rm.log.Printf("room %q torn down", key)
		}
	}
}

// RoomSize returns the current number of subscribed connections.
func (rm *RoomManager) RoomSize(roomKey string) int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	return len(rm.rooms[roomKey])
}

func (rm *RoomManager) subscribe(c *Client, key string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	clients, ok := rm.rooms[key]
	if !ok {
		clients = make(map[*Client]struct{})
		rm.rooms[key] = clients
		rm.stats.Incr(statActiveRooms)
		rm.log.Printf("room %q created", key)
	}

	clients[c] = struct{}{}
	c.addRoom(key)
}

func (rm *RoomManager) broadcast(key string, evt *ServerEvent) int {
	rm.mu.RLock()
	clients := make([]*Client, 0, len(rm.rooms[key]))
	for c := range rm.rooms[key] {
		clients = append(clients, c)
	}
	rm.mu.RUnlock()

	var delivered int
	for _, c := range clients {
		if c.QueueEvent(evt) {
			delivered++
		}
	}

	return delivered
}
