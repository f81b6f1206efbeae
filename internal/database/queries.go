package database

import (
	"context"
	"time"

	"github.com/lib/pq"
)

const userColumns = "id, username, email, password_hash, interests, latitude, longitude, last_login, active, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.PasswordHash,
		pq.Array(&u.Interests),
		&u.Latitude,
		&u.Longitude,
		&u.LastLogin,
		&u.Active,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

func (db *PgUserRepository) CreateAccount(ctx context.Context, params CreateAccountParams) (User, error) {
	row := db.conn.QueryRowContext(ctx,
		"INSERT INTO accounts (username, email, password_hash, interests, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $5) RETURNING "+userColumns,
		params.Username,
		params.EmailAddress,
		params.PasswordHash,
		pq.Array(params.Interests),
		time.Now().UTC(),
	)

	return scanUser(row)
}

func (db *PgUserRepository) UpdateAccount(ctx context.Context, params UpdateAccountParams) (User, error) {
	row := db.conn.QueryRowContext(ctx,
		"UPDATE accounts SET username = $2, password_hash = $3, interests = $4, updated_at = $5 "+
			"WHERE id = $1 RETURNING "+userColumns,
		params.UserId,
		params.Username,
		params.PasswordHash,
		pq.Array(params.Interests),
		time.Now().UTC(),
	)

	return scanUser(row)
}

func (db *PgUserRepository) GetAccountById(ctx context.Context, userId int) (User, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM accounts WHERE id = $1 LIMIT 1",
		userId,
	)

	return scanUser(row)
}

func (db *PgUserRepository) GetAccountByEmail(ctx context.Context, email string) (User, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM accounts WHERE email = $1 LIMIT 1",
		email,
	)

	return scanUser(row)
}

func (db *PgUserRepository) UpdateLocation(ctx context.Context, userId int, lat, lng float64, lastLogin time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		"UPDATE accounts SET latitude = $2, longitude = $3, last_login = $4, updated_at = $4 WHERE id = $1",
		userId,
		lat,
		lng,
		lastLogin,
	)

	return err
}

// GetUsersByIds fetches the given accounts, preserving the order of ids.
func (db *PgUserRepository) GetUsersByIds(ctx context.Context, ids []int) ([]User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+userColumns+" FROM accounts WHERE id = ANY($1)",
		pq.Array(ids),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byId := make(map[int]User, len(ids))
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		byId[u.Id] = u
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	users := make([]User, 0, len(ids))
	for _, id := range ids {
		if u, ok := byId[id]; ok {
			users = append(users, u)
		}
	}

	return users, nil
}

func (db *PgUserRepository) ListActiveUsers(ctx context.Context, excludeId int) ([]User, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+userColumns+" FROM accounts WHERE active AND id != $1 ORDER BY last_login DESC",
		excludeId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}
