// ABOUTME: Tests for identity propagation through request contexts
// ABOUTME: Covers round-trip and absent-identity behavior

package auth

import (
	"context"
	"testing"
)

func TestIdentityContext_RoundTrip(t *testing.T) {
	id := &Identity{
		UserID: "u1",
		Email:  "a@b.com",
		Roles:  []string{"developer"},
	}

	ctx := WithIdentity(context.Background(), id)

	got := FromContext(ctx)
	if got == nil {
		t.Fatal("FromContext() = nil")
	}
	if got.UserID != "u1" || got.Email != "a@b.com" {
		t.Errorf("got %+v", got)
	}
}

func TestIdentityContext_Absent(t *testing.T) {
	if got := FromContext(context.Background()); got != nil {
		t.Errorf("FromContext() = %+v, want nil", got)
	}
}
