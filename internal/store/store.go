// ABOUTME: Store types and errors for handoff-gateway persistence
// ABOUTME: Defines User, UserStatus, and the durable replay-nonce record

package store

import (
	"errors"
	"strings"
	"time"
)

// ErrUserNotFound is returned when no user record exists for an email.
var ErrUserNotFound = errors.New("user not found")

// UserStatus is the authorization state of a user record.
// Records are mutated out-of-band by administrative tooling; the gateway
// only reads them. Any status other than suspended is treated as
// allowed, so unrecognized values fail open at the directory rather
// than at the database.
type UserStatus string

// User statuses
const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

// User is a local authorization record keyed by email.
type User struct {
	Email      string
	ExternalID string
	Status     UserStatus
	Roles      []string
	UpdatedAt  time.Time
}

// Suspended reports whether the user is denied due to suspension.
func (u *User) Suspended() bool {
	return u.Status == UserStatusSuspended
}

// rolesSeparator delimits the roles set in its stored encoding.
const rolesSeparator = ","

// JoinRoles encodes a roles set as a delimited string for storage.
func JoinRoles(roles []string) string {
	return strings.Join(roles, rolesSeparator)
}

// SplitRoles decodes a delimited roles string, dropping empty entries.
func SplitRoles(encoded string) []string {
	if encoded == "" {
		return nil
	}
	parts := strings.Split(encoded, rolesSeparator)
	roles := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			roles = append(roles, p)
		}
	}
	return roles
}
