// ABOUTME: User directory lookups keyed by email
// ABOUTME: Read-only from the gateway; records are written by admin tooling

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetUserByEmail retrieves a user record by email.
// Returns ErrUserNotFound if no record exists.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT email, external_id, status, roles, updated_at
		FROM users
		WHERE email = ?
	`

	var user User
	var status, roles, updatedAtStr string

	err := s.db.QueryRowContext(ctx, query, email).Scan(
		&user.Email,
		&user.ExternalID,
		&status,
		&roles,
		&updatedAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	user.Status = UserStatus(status)
	user.Roles = SplitRoles(roles)
	user.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &user, nil
}

// UpsertUser inserts or replaces a user record. The gateway itself never
// calls this at request time; it exists for admin tooling and tests.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (email, external_id, status, roles, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			external_id = excluded.external_id,
			status = excluded.status,
			roles = excluded.roles,
			updated_at = excluded.updated_at
	`

	updatedAt := user.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, query,
		user.Email,
		user.ExternalID,
		string(user.Status),
		JoinRoles(user.Roles),
		updatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting user: %w", err)
	}

	s.logger.Debug("upserted user", "email", user.Email, "status", user.Status)
	return nil
}

// ListUsers returns every user record ordered by email.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*User, error) {
	query := `
		SELECT email, external_id, status, roles, updated_at
		FROM users
		ORDER BY email
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		var user User
		var status, roles, updatedAtStr string
		if err := rows.Scan(&user.Email, &user.ExternalID, &status, &roles, &updatedAtStr); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		user.Status = UserStatus(status)
		user.Roles = SplitRoles(roles)
		user.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing updated_at: %w", err)
		}
		users = append(users, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}

	return users, nil
}

// SetUserStatus updates the authorization state of an existing user.
// Returns ErrUserNotFound if no record exists for the email.
func (s *SQLiteStore) SetUserStatus(ctx context.Context, email string, status UserStatus) error {
	query := `UPDATE users SET status = ?, updated_at = ? WHERE email = ?`

	res, err := s.db.ExecContext(ctx, query,
		string(status),
		time.Now().UTC().Format(time.RFC3339),
		email,
	)
	if err != nil {
		return fmt.Errorf("updating user status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("counting updated users: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}

	s.logger.Debug("updated user status", "email", email, "status", status)
	return nil
}

// DeleteUser removes a user record.
// Returns ErrUserNotFound if no record exists for the email.
func (s *SQLiteStore) DeleteUser(ctx context.Context, email string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE email = ?`, email)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("counting deleted users: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}

	s.logger.Debug("deleted user", "email", email)
	return nil
}
