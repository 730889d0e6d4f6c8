package database

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"photo-vault/internal/logging"
)

// SessionDuration is the length of time a session remains valid.
const SessionDuration = 24 * time.Hour

// CreateUser creates a new account with a bcrypt-hashed password.
func (d *Database) CreateUser(ctx context.Context, username, password string) (*User, error) {
	done := observeQuery("create_user")

	username = strings.TrimSpace(username)
	if username == "" {
		err := errors.New("username cannot be empty")
		done(err)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		done(err)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	result, err := d.db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash) VALUES (?, ?)",
		username, string(hash),
	)
	if err != nil {
		if isUniqueViolation(err) {
			done(nil)
			return nil, ErrDuplicate
		}
		done(err)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	done(nil)

	id, _ := result.LastInsertId()
	return &User{ID: id, Username: username, CreatedAt: time.Now()}, nil
}

// Authenticate checks the username/password pair and returns the user
// when valid.
func (d *Database) Authenticate(ctx context.Context, username, password string) (*User, error) {
	done := observeQuery("authenticate")

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var user User
	var createdAt int64
	err := d.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE username = ?",
		strings.TrimSpace(username),
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &createdAt)
	if err != nil {
		done(nil)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	done(nil)

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errors.New("invalid password")
	}

	user.CreatedAt = time.Unix(createdAt, 0)
	return &user, nil
}

// GetUser returns the user with the given ID.
func (d *Database) GetUser(ctx context.Context, id int64) (*User, error) {
	done := observeQuery("get_user")

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var user User
	var createdAt int64
	err := d.db.QueryRowContext(ctx,
		"SELECT id, username, created_at FROM users WHERE id = ?", id,
	).Scan(&user.ID, &user.Username, &createdAt)
	if err != nil {
		done(nil)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	done(nil)

	user.CreatedAt = time.Unix(createdAt, 0)
	return &user, nil
}

// ResetPassword replaces the password hash for the named user.
func (d *Database) ResetPassword(ctx context.Context, username, newPassword string) error {
	done := observeQuery("reset_password")

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		done(err)
		return fmt.Errorf("failed to hash password: %w", err)
	}

	result, err := d.db.ExecContext(ctx,
		"UPDATE users SET password_hash = ? WHERE username = ?",
		string(hash), strings.TrimSpace(username),
	)
	if err != nil {
		done(err)
		return fmt.Errorf("failed to update password: %w", err)
	}
	done(nil)

	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	// Existing sessions are invalidated along with the old password.
	if _, err := d.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE user_id = (SELECT id FROM users WHERE username = ?)",
		strings.TrimSpace(username),
	); err != nil {
		logging.Warn("failed to clear sessions after password reset: %v", err)
	}

	return nil
}

// CountUsers returns the number of registered accounts.
func (d *Database) CountUsers(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var count int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// CreateSession creates a new session token for the user.
func (d *Database) CreateSession(ctx context.Context, userID int64) (*Session, error) {
	done := observeQuery("create_session")

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	token, err := generateToken()
	if err != nil {
		done(err)
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	expiresAt := time.Now().Add(SessionDuration)
	result, err := d.db.ExecContext(ctx,
		"INSERT INTO sessions (user_id, token, expires_at) VALUES (?, ?, ?)",
		userID, token, expiresAt.Unix(),
	)
	if err != nil {
		done(err)
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	done(nil)

	id, _ := result.LastInsertId()
	return &Session{
		ID:        id,
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}, nil
}

// GetSession returns the session for a token, or ErrNotFound when the
// token is unknown or expired.
func (d *Database) GetSession(ctx context.Context, token string) (*Session, error) {
	done := observeQuery("get_session")

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var s Session
	var expiresAt, createdAt int64
	err := d.db.QueryRowContext(ctx,
		"SELECT id, user_id, token, expires_at, created_at FROM sessions WHERE token = ? AND expires_at > ?",
		token, time.Now().Unix(),
	).Scan(&s.ID, &s.UserID, &s.Token, &expiresAt, &createdAt)
	if err != nil {
		done(nil)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	done(nil)

	s.ExpiresAt = time.Unix(expiresAt, 0)
	s.CreatedAt = time.Unix(createdAt, 0)
	return &s, nil
}

// DeleteSession removes a session token (logout).
func (d *Database) DeleteSession(ctx context.Context, token string) error {
	done := observeQuery("delete_session")

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token)
	done(err)
	return err
}

// CleanExpiredSessions removes all expired sessions. Called periodically
// from a background sweeper.
func (d *Database) CleanExpiredSessions(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at <= ?", time.Now().Unix())
	if err != nil {
		logging.Error("failed to clean expired sessions: %v", err)
		return
	}
	if n, _ := result.RowsAffected(); n > 0 {
		logging.Debug("cleaned %d expired sessions", n)
	}
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// isUniqueViolation reports whether err is a SQLite uniqueness
// constraint failure. Matched on the message text so callers do not
// need the driver-specific error type.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
