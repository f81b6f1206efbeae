package server

import (
	"time"

	"github.com/nearchat/nearchat/internal/types"
)

// ClientEvent is the inbound event envelope. Exactly one field is set
// per event; events with no recognized field are dropped.
type ClientEvent struct {
	RegisterUser      *RegisterUser      `json:"register_user,omitempty"`
	UpdateLocation    *UpdateLocation    `json:"update_location,omitempty"`
	JoinChat          *JoinChat          `json:"join_chat,omitempty"`
	AcceptChat        *AcceptChat        `json:"accept_chat,omitempty"`
	SendMessage       *SendMessage       `json:"send_message,omitempty"`
	GettingDirections *GettingDirections `json:"getting_directions,omitempty"`
}

type RegisterUser struct {
	UserId int `json:"userId"`
}

type UpdateLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type JoinChat struct {
	TargetUserId int `json:"targetUserId"`
}

type AcceptChat struct {
	RoomId string `json:"roomId"`
}

type SendMessage struct {
	RoomId  string `json:"roomId"`
	Message string `json:"message"`
}

type GettingDirections struct {
	TargetUserId int `json:"targetUserId"`
}

// ServerEvent is the outbound event envelope.
type ServerEvent struct {
	Timestamp       time.Time           `json:"timestamp"`
	ChatRequest     *ChatRequest        `json:"chat_request,omitempty"`
	ChatJoined      *ChatJoined         `json:"chat_joined,omitempty"`
	ReceiveMessage  *types.Message      `json:"receive_message,omitempty"`
	DirectionsAlert *DirectionsAlert    `json:"directions_alert,omitempty"`
	NearbyUsers     []types.UserSummary `json:"nearby_users,omitempty"`
}

type ChatRequest struct {
	From     int    `json:"from"`
	FromName string `json:"fromName"`
	RoomId   string `json:"roomId"`
}

type ChatJoined struct {
	RoomId string `json:"roomId"`
}

type DirectionsAlert struct {
	FromName string `json:"fromName"`
	Message  string `json:"message"`
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
