package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"formsadmin/internal/models"

	"modernc.org/sqlite"
)

var ErrUsernameExists = errors.New("username already exists")

// SQLITE_CONSTRAINT_UNIQUE
const sqliteConstraintUnique = 2067

func (d *DB) CreateUser(ctx context.Context, username, passwordHash string, isStaff bool) (int64, error) {
	stmt, err := d.conn.PrepareContext(ctx, "INSERT INTO users(username, password_hash, is_staff, created_at) VALUES(?, ?, ?, ?)")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	res, err := stmt.ExecContext(ctx, username, passwordHash, isStaff, formatTime(time.Now()))
	if err != nil {
		var sqliteErr *sqlite.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqliteConstraintUnique {
			return 0, ErrUsernameExists
		}
		return 0, fmt.Errorf("storage.CreateUser(): %w", err)
	}
	return res.LastInsertId()
}

func (d *DB) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	var createdAt string

	row := d.conn.QueryRowContext(ctx, "SELECT id, username, password_hash, is_staff, created_at FROM users WHERE username = ?", username)
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.IsStaff, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user, ErrNotFound
		}
		return user, fmt.Errorf("storage.GetUserByUsername(): %w", err)
	}
	if parsed, err := parseTime(createdAt); err == nil {
		user.CreatedAt = parsed
	}
	return user, nil
}

// SetUserPassword replaces the stored hash of an existing user.
func (d *DB) SetUserPassword(ctx context.Context, username, passwordHash string) error {
	res, err := d.conn.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE username = ?", passwordHash, username)
	if err != nil {
		return fmt.Errorf("storage.SetUserPassword(): %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
