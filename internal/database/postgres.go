package database

import (
	"database/sql"
)

type PgUserRepository struct {
	conn *sql.DB
}

func NewPgUserRepository(dsn string) (*PgUserRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PgUserRepository{conn: db}, nil
}

func (db *PgUserRepository) Ping() error {
	return db.conn.Ping()
}

func (db *PgUserRepository) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id SERIAL PRIMARY KEY,
	username TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	interests TEXT[] NOT NULL DEFAULT '{}',
	latitude DOUBLE PRECISION NOT NULL DEFAULT 0,
	longitude DOUBLE PRECISION NOT NULL DEFAULT 0,
	last_login TIMESTAMPTZ NOT NULL DEFAULT now(),
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// EnsureSchema creates the accounts table if it does not exist.
func (db *PgUserRepository) EnsureSchema() error {
	_, err := db.conn.Exec(schema)
	return err
}
