package database

import "time"

type User struct {
	Id           int
	Username     string
	EmailAddress string
	PasswordHash string
	Interests    []string
	Latitude     float64
	Longitude    float64
	LastLogin    time.Time
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type CreateAccountParams struct {
	Username     string
	EmailAddress string
	PasswordHash string
	Interests    []string
}

type UpdateAccountParams struct {
	UserId       int
	Username     string
	PasswordHash string
	Interests    []string
}
