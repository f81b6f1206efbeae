package database

import (
	"context"
	"time"
)

type UserRepository interface {
	Ping() error
	CreateAccount(ctx context.Context, params CreateAccountParams) (User, error)
	UpdateAccount(ctx context.Context, params UpdateAccountParams) (User, error)
	GetAccountById(ctx context.Context, userId int) (User, error)
	GetAccountByEmail(ctx context.Context, email string) (User, error)
	UpdateLocation(ctx context.Context, userId int, lat, lng float64, lastLogin time.Time) error
	GetUsersByIds(ctx context.Context, ids []int) ([]User, error)
	ListActiveUsers(ctx context.Context, excludeId int) ([]User, error)
}
