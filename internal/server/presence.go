package server

import (
	"sync"
)

// Presence tracks which user is behind which open connection. A user's
// personal broadcast group is the set of all live clients registered to
// that user id; direct-to-user events are delivered to every member.
type Presence struct {
	mu    sync.RWMutex
	conns map[string]int
	users map[int]map[*Client]struct{}
}

func NewPresence() *Presence {
	return &Presence{
		conns: make(map[string]int),
		users: make(map[int]map[*Client]struct{}),
	}
}

// Register associates the client's connection with userId and joins its
// personal broadcast group. Registering the same connection again is a
// no-op; registering it to a different user moves it. Returns whether
// the user came online with this registration and, on a move, the
// previous user id together with whether that user went offline as a
// result.
func (p *Presence) Register(c *Client, userId int) (cameOnline bool, prevUserId int, prevWentOffline bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if prev, ok := p.conns[c.id]; ok {
		if prev == userId {
			return false, 0, false
		}
		p.removeLocked(c, prev)
		prevUserId = prev
		prevWentOffline = p.users[prev] == nil
	}

	p.conns[c.id] = userId
	group := p.users[userId]
	cameOnline = len(group) == 0
	if group == nil {
		group = make(map[*Client]struct{})
		p.users[userId] = group
	}
	group[c] = struct{}{}

	return cameOnline, prevUserId, prevWentOffline
}

// Unregister removes the connection's association. Returns the user id
// it was registered to and whether the user went offline as a result.
// No-op for connections that never registered.
func (p *Presence) Unregister(c *Client) (userId int, wentOffline bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	userId, ok := p.conns[c.id]
	if !ok {
		return 0, false
	}

	delete(p.conns, c.id)
	p.removeLocked(c, userId)

	return userId, p.users[userId] == nil
}

func (p *Presence) removeLocked(c *Client, userId int) {
	if group, ok := p.users[userId]; ok {
		delete(group, c)
		if len(group) == 0 {
			delete(p.users, userId)
		}
	}
}

// IsOnline reports whether the user's personal broadcast group has at
// least one member.
func (p *Presence) IsOnline(userId int) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.users[userId]) > 0
}

// LookupUser returns the user id registered for the connection.
func (p *Presence) LookupUser(connId string) (int, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	userId, ok := p.conns[connId]
	return userId, ok
}

// SendToUser queues the event on every client in the user's personal
// broadcast group, returning the number of deliveries.
func (p *Presence) SendToUser(userId int, evt *ServerEvent) int {
	p.mu.RLock()
	group := make([]*Client, 0, len(p.users[userId]))
	for c := range p.users[userId] {
		group = append(group, c)
	}
	p.mu.RUnlock()

	var delivered int
	for _, c := range group {
		if c.QueueEvent(evt) {
			delivered++
		}
	}

	return delivered
}
