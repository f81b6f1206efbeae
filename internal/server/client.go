package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// Client is one open realtime channel. The connection id is assigned at
// channel open; the user association is established by a register_user
// event and lives in the Presence registry.
type Client struct {
	id       string
	conn     *websocket.Conn
	gateway  *Gateway
	log      *log.Logger
	send     chan *ServerEvent
	stop     chan struct{}
	stopOnce sync.Once
	mu       sync.RWMutex
	username string
	rooms    map[string]struct{}
}

func NewClient(id string, conn *websocket.Conn, gw *Gateway, l *log.Logger) *Client {
	return &Client{
		id:      id,
		conn:    conn,
		gateway: gw,
		log:     l,
		send:    make(chan *ServerEvent, 256),
		stop:    make(chan struct{}),
		rooms:   make(map[string]struct{}),
	}
}

func (c *Client) Id() string {
	return c.id
}

func (c *Client) Username() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.username
}

func (c *Client) setUsername(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.username = name
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.log.Printf("write exiting for connection %q", c.id)
	}()

	for {
		select {
		case evt, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := json.Marshal(evt)
			if err != nil {
				c.log.Println("failed to serialize event:", err)
				continue
			}

			if !c.writeMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			if !c.writeMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
		c.log.Printf("read exiting for connection %q", c.id)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		var evt ClientEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			// no response channel for channel events, drop it
			c.log.Println("error parsing event:", err)
			continue
		}

		c.gateway.dispatch(c, &evt)
	}
}

// QueueEvent enqueues an event for delivery, dropping it if the send
// buffer is full. Delivery is best-effort.
func (c *Client) QueueEvent(evt *ServerEvent) bool {
	select {
	case c.send <- evt:
	default:
		c.log.Printf("send buffer full for connection %q, dropping event", c.id)
		return false
	}

	return true
}

func (c *Client) writeMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

func (c *Client) cleanup() {
	c.gateway.disconnect(c)
	c.stopClient()
}

// stopClient signals the write pump to exit. Safe to call more
// than once; cleanup and the gateway's shutdown path may race.
func (c *Client) stopClient() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

func (c *Client) addRoom(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rooms[key] = struct{}{}
}

func (c *Client) delRoom(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.rooms, key)
}

func (c *Client) roomKeys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.rooms))
	for key := range c.rooms {
		keys = append(keys, key)
	}

	return keys
}
