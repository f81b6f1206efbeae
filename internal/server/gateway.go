package server

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/teris-io/shortid"

	"github.com/nearchat/nearchat/internal/database"
	"github.com/nearchat/nearchat/internal/geo"
	"github.com/nearchat/nearchat/internal/stats"
)

const (
	statActiveConnections = "ActiveConnections"
	statRegisteredUsers   = "RegisteredUsers"
	statActiveRooms       = "ActiveRooms"
	statMessagesRelayed   = "MessagesRelayed"
)

// NearbyBroadcaster pushes a users-nearby snapshot to a client. It is an
// extension point invoked after registration and after every location
// update; a nil broadcaster disables the push.
type NearbyBroadcaster func(ctx context.Context, c *Client, userId int)

// Gateway binds inbound channel events to the presence registry, the
// room manager and the location stores, and owns connection lifecycle.
type Gateway struct {
	log         *log.Logger
	db          database.UserRepository
	index       geo.LocationIndex
	presence    *Presence
	rooms       *RoomManager
	stats       stats.StatsProvider
	clients     map[*Client]struct{}
	clientsLock sync.Mutex
	nearby      NearbyBroadcaster
}

func NewGateway(logger *log.Logger, db database.UserRepository, index geo.LocationIndex, su stats.StatsProvider) (*Gateway, error) {
	presence := NewPresence()
	g := &Gateway{
		log:      logger,
		db:       db,
		index:    index,
		presence: presence,
		rooms:    NewRoomManager(logger, presence, su),
		stats:    su,
		clients:  make(map[*Client]struct{}),
	}

	for _, name := range []string{
		statActiveConnections,
		statRegisteredUsers,
		statActiveRooms,
		statMessagesRelayed,
	} {
		su.RegisterMetric(name)
	}

	return g, nil
}

// SetNearbyBroadcaster installs the snapshot hook. Must be called
// before the gateway accepts connections.
func (g *Gateway) SetNearbyBroadcaster(nb NearbyBroadcaster) {
	g.nearby = nb
}

func (g *Gateway) Presence() *Presence {
	return g.presence
}

func (g *Gateway) Rooms() *RoomManager {
	return g.rooms
}

// HandleConnection assigns a connection id to an upgraded websocket
// channel and starts its read and write pumps.
func (g *Gateway) HandleConnection(conn *websocket.Conn) (*Client, error) {
	id, err := shortid.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate connection id: %w", err)
	}

	c := NewClient(id, conn, g, g.log)
	g.addClient(c)
	g.stats.Incr(statActiveConnections)
	g.log.Printf("connection %q opened", c.id)

	go c.Write()
	go c.Read()

	return c, nil
}

func (g *Gateway) addClient(c *Client) {
	g.clientsLock.Lock()
	defer g.clientsLock.Unlock()
	g.clients[c] = struct{}{}
}

func (g *Gateway) removeClient(c *Client) {
	g.clientsLock.Lock()
	defer g.clientsLock.Unlock()
	delete(g.clients, c)
}

func (g *Gateway) disconnect(c *Client) {
	g.removeClient(c)
	g.stats.Decr(statActiveConnections)

	if userId, wentOffline := g.presence.Unregister(c); wentOffline {
		g.stats.Decr(statRegisteredUsers)
		g.log.Printf("user %d went offline", userId)
	}

	g.rooms.LeaveAll(c)
	g.log.Printf("connection %q closed", c.id)
}

// dispatch routes one inbound event. Handler failures are logged and
// swallowed; the connection stays open.
func (g *Gateway) dispatch(c *Client, evt *ClientEvent) {
	ctx := context.Background()

	switch {
	case evt.RegisterUser != nil:
		g.handleRegister(ctx, c, evt.RegisterUser.UserId)
	case evt.UpdateLocation != nil:
		g.handleUpdateLocation(ctx, c, evt.UpdateLocation.Lat, evt.UpdateLocation.Lng)
	case evt.JoinChat != nil:
		g.rooms.RequestChat(c, evt.JoinChat.TargetUserId)
	case evt.AcceptChat != nil:
		g.rooms.AcceptChat(c, evt.AcceptChat.RoomId)
	case evt.SendMessage != nil:
		g.rooms.SendMessage(c, evt.SendMessage.RoomId, evt.SendMessage.Message)
	case evt.GettingDirections != nil:
		g.handleDirections(ctx, c, evt.GettingDirections.TargetUserId)
	default:
		g.log.Printf("unrecognized event from connection %q", c.id)
	}
}

func (g *Gateway) handleRegister(ctx context.Context, c *Client, userId int) {
	cameOnline, prevUserId, prevWentOffline := g.presence.Register(c, userId)
	if prevWentOffline {
		g.stats.Decr(statRegisteredUsers)
		g.log.Printf("user %d went offline", prevUserId)
	}
	if cameOnline {
		g.stats.Incr(statRegisteredUsers)
		g.log.Printf("user %d came online", userId)
	}

	user, err := g.db.GetAccountById(ctx, userId)
	if err != nil {
		g.log.Printf("register: get account %d: %v", userId, err)
	} else {
		c.setUsername(user.Username)
	}

	if g.nearby != nil {
		g.nearby(ctx, c, userId)
	}
}

func (g *Gateway) handleUpdateLocation(ctx context.Context, c *Client, lat, lng float64) {
	userId, ok := g.presence.LookupUser(c.id)
	if !ok {
		g.log.Printf("location update from unregistered connection %q", c.id)
		return
	}

	if err := g.db.UpdateLocation(ctx, userId, lat, lng, Now()); err != nil {
		g.log.Printf("update location for user %d: %v", userId, err)
		return
	}

	if err := g.index.Update(ctx, userId, lat, lng); err != nil {
		// the coordinate is persisted, the index catches up on the next update
		g.log.Printf("index location for user %d: %v", userId, err)
	}

	if g.nearby != nil {
		g.nearby(ctx, c, userId)
	}
}

func (g *Gateway) handleDirections(ctx context.Context, c *Client, targetUserId int) {
	userId, ok := g.presence.LookupUser(c.id)
	if !ok {
		g.log.Printf("directions request from unregistered connection %q", c.id)
		return
	}

	name := c.Username()
	if name == "" {
		user, err := g.db.GetAccountById(ctx, userId)
		if err != nil {
			g.log.Printf("directions: get account %d: %v", userId, err)
			return
		}
		name = user.Username
	}

	g.presence.SendToUser(targetUserId, &ServerEvent{
		Timestamp: Now(),
		DirectionsAlert: &DirectionsAlert{
			FromName: name,
			Message:  fmt.Sprintf("%s is getting directions to you", name),
		},
	})
}

// Shutdown stops every open connection.
func (g *Gateway) Shutdown() {
	g.log.Println("shutting down gateway")

	g.clientsLock.Lock()
	defer g.clientsLock.Unlock()
	for c := range g.clients {
		c.stopClient()
	}
}
