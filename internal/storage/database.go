package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("record not found")

// sent_at is stored as fixed-width UTC text so string order is time order.
const timeLayout = "2006-01-02 15:04:05.000000000"

type DB struct {
	conn *sql.DB
}

const createUsersTable = `
	CREATE TABLE IF NOT EXISTS users (
			"id" INTEGER PRIMARY KEY AUTOINCREMENT,
			"username" TEXT NOT NULL UNIQUE,
			"password_hash" TEXT NOT NULL,
			"is_staff" INTEGER NOT NULL DEFAULT 1,
			"created_at" TEXT NOT NULL
	);`

const createFormSubmissionsTable = `
	CREATE TABLE IF NOT EXISTS form_submissions (
			"id" INTEGER PRIMARY KEY AUTOINCREMENT,
			"name" TEXT NOT NULL,
			"language" TEXT NOT NULL DEFAULT '',
			"sent_at" TEXT NOT NULL,
			"data" TEXT NOT NULL DEFAULT '[]',
			"recipients" TEXT NOT NULL DEFAULT '[]',
			"form_url" TEXT NOT NULL DEFAULT ''
	);`

const createFormDataTable = `
	CREATE TABLE IF NOT EXISTS form_data (
			"id" INTEGER PRIMARY KEY AUTOINCREMENT,
			"name" TEXT NOT NULL,
			"language" TEXT NOT NULL DEFAULT '',
			"sent_at" TEXT NOT NULL,
			"data" TEXT NOT NULL DEFAULT '',
			"people_notified" TEXT NOT NULL DEFAULT ''
	);`

var createIndexes = []string{
	`CREATE INDEX IF NOT EXISTS form_submissions_name_sent_at ON form_submissions(name, sent_at)`,
	`CREATE INDEX IF NOT EXISTS form_data_name_sent_at ON form_data(name, sent_at)`,
}

// Open connects to the sqlite file at path and creates missing tables.
// Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.Open(): failed to open database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would get its own empty in-memory database
		conn.SetMaxOpenConns(1)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage.Open(): failed to connect to database: %w", err)
	}

	statements := append([]string{createUsersTable, createFormSubmissionsTable, createFormDataTable}, createIndexes...)
	for _, stmt := range statements {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("storage.Open(): failed to create schema: %w", err)
		}
	}
	log.Debug().Str("path", path).Msg("storage: database ready")

	return &DB{conn: conn}, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) Ping(ctx context.Context) error {
	return d.conn.PingContext(ctx)
}
