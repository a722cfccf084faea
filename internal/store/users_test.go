// ABOUTME: Tests for the directory-management operations used by admin tooling
// ABOUTME: Covers listing, status transitions, and removal

package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	require.NoError(t, s.UpsertUser(ctx, &User{Email: "b@example.com", Status: UserStatusActive}))
	require.NoError(t, s.UpsertUser(ctx, &User{Email: "a@example.com", Status: UserStatusSuspended, Roles: []string{"developer"}}))

	users, err = s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	// Ordered by email
	assert.Equal(t, "a@example.com", users[0].Email)
	assert.Equal(t, UserStatusSuspended, users[0].Status)
	assert.Equal(t, []string{"developer"}, users[0].Roles)
	assert.Equal(t, "b@example.com", users[1].Email)
}

func TestSetUserStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	require.NoError(t, s.UpsertUser(ctx, &User{Email: "a@example.com", Status: UserStatusActive}))

	require.NoError(t, s.SetUserStatus(ctx, "a@example.com", UserStatusSuspended))
	user, err := s.GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.True(t, user.Suspended())

	require.NoError(t, s.SetUserStatus(ctx, "a@example.com", UserStatusActive))
	user, err = s.GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.False(t, user.Suspended())
}

func TestSetUserStatus_NotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.SetUserStatus(t.Context(), "ghost@example.com", UserStatusSuspended)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteUser(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	require.NoError(t, s.UpsertUser(ctx, &User{Email: "a@example.com", Status: UserStatusActive}))
	require.NoError(t, s.DeleteUser(ctx, "a@example.com"))

	_, err := s.GetUserByEmail(ctx, "a@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)

	assert.ErrorIs(t, s.DeleteUser(ctx, "a@example.com"), ErrUserNotFound)
}
