package types

import (
	"time"
)

type User struct {
	Id           int       `json:"id"`
	Username     string    `json:"username"`
	EmailAddress string    `json:"email_address,omitempty"`
	Password     string    `json:"-"`
	Interests    []string  `json:"interests,omitempty"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	LastLogin    time.Time `json:"last_login,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

// UserSummary is the shape returned by the nearby and global user queries.
type UserSummary struct {
	Id         int      `json:"id"`
	Username   string   `json:"username"`
	Interests  []string `json:"interests"`
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	DistanceKm float64  `json:"distance_km,omitempty"`
	IsOnline   bool     `json:"is_online"`
}

type Coordinate struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// IsUnset reports whether the coordinate is the never-set sentinel.
func (c Coordinate) IsUnset() bool {
	return c.Latitude == 0 && c.Longitude == 0
}

type Message struct {
	Text      string    `json:"text"`
	SenderId  *int      `json:"senderId"`
	Timestamp time.Time `json:"timestamp"`
}
