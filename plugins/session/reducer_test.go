package session

import (
	"context"
	"testing"

	"github.com/devlitus/lesson-inglesh/logging"
	"github.com/devlitus/lesson-inglesh/plugins/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReducer_SignedIn_NameDerivation(t *testing.T) {
	ctx := logging.EnsureLogger(context.Background())

	tests := []struct {
		name     string
		session  identity.Session
		wantName string
	}{
		{
			name:     "name hint wins over email",
			session:  identity.Session{UserID: "u1", Email: "jane@x.com", Name: "Jane"},
			wantName: "Jane",
		},
		{
			name:     "email local part when no hint",
			session:  identity.Session{UserID: "u1", Email: "test@example.com"},
			wantName: "test",
		},
		{
			name:     "placeholder when neither",
			session:  identity.Session{UserID: "u1"},
			wantName: "Student",
		},
		{
			name:     "blank hint falls through to email",
			session:  identity.Session{UserID: "u1", Email: "ana@example.com", Name: "   "},
			wantName: "ana",
		},
		{
			name:     "hint is trimmed",
			session:  identity.Session{UserID: "u1", Email: "ana@example.com", Name: "  Ana  "},
			wantName: "Ana",
		},
		{
			name:     "empty local part falls through to placeholder",
			session:  identity.Session{UserID: "u1", Email: "@example.com"},
			wantName: "Student",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore()
			r := NewReducer(store)
			r.Apply(ctx, identity.Event{Kind: identity.SignedInEvent, Session: &tt.session})

			state := store.State()
			require.NotNil(t, state.User)
			assert.Equal(t, tt.wantName, state.User.Name)
			assert.NotEmpty(t, state.User.Name)
		})
	}
}

func TestReducer_SignedIn(t *testing.T) {
	ctx := logging.EnsureLogger(context.Background())
	store := NewStore()
	r := NewReducer(store)

	r.Apply(ctx, identity.Event{
		Kind:    identity.SignedInEvent,
		Session: &identity.Session{UserID: "u1", Email: "ana@example.com", Name: "Ana"},
	})

	state := store.State()
	assert.True(t, state.Authenticated)
	require.NotNil(t, state.User)
	assert.Equal(t, "u1", state.User.ID)
	assert.Equal(t, "ana@example.com", state.User.Email)
}

func TestReducer_SignedIn_OverwritesExistingUser(t *testing.T) {
	ctx := logging.EnsureLogger(context.Background())
	store := NewStore()
	r := NewReducer(store)
	store.SetUser(&identity.User{ID: "u1", Email: "ana@example.com", Name: "Ana"})

	r.Apply(ctx, identity.Event{
		Kind:    identity.SignedInEvent,
		Session: &identity.Session{UserID: "u2", Email: "ben@example.com"},
	})

	state := store.State()
	require.NotNil(t, state.User)
	assert.Equal(t, "u2", state.User.ID)
	assert.Equal(t, "ben", state.User.Name)
}

func TestReducer_SignedIn_NoPayloadIgnored(t *testing.T) {
	ctx := logging.EnsureLogger(context.Background())
	store := NewStore()
	r := NewReducer(store)
	ana := &identity.User{ID: "u1", Email: "ana@example.com", Name: "Ana"}
	store.SetUser(ana)

	r.Apply(ctx, identity.Event{Kind: identity.SignedInEvent})

	assert.Same(t, ana, store.State().User, "a sign-in without payload must not disturb state")
}

func TestReducer_SignedOut(t *testing.T) {
	ctx := logging.EnsureLogger(context.Background())

	t.Run("FromAuthenticated", func(t *testing.T) {
		store := NewStore()
		r := NewReducer(store)
		store.SetUser(&identity.User{ID: "u1"})

		r.Apply(ctx, identity.Event{Kind: identity.SignedOutEvent})

		state := store.State()
		assert.Nil(t, state.User)
		assert.False(t, state.Authenticated)
	})

	t.Run("FromUnauthenticated", func(t *testing.T) {
		store := NewStore()
		r := NewReducer(store)

		r.Apply(ctx, identity.Event{Kind: identity.SignedOutEvent})

		state := store.State()
		assert.Nil(t, state.User)
		assert.False(t, state.Authenticated)
	})
}

func TestReducer_TokenRefreshed_NeverChangesUser(t *testing.T) {
	ctx := logging.EnsureLogger(context.Background())
	store := NewStore()
	r := NewReducer(store)
	ana := &identity.User{ID: "u1", Email: "ana@example.com", Name: "Ana"}
	store.SetUser(ana)

	// Even a payload naming a different user is ignored: session truth was
	// established by the prior sign-in.
	r.Apply(ctx, identity.Event{
		Kind:    identity.TokenRefreshedEvent,
		Session: &identity.Session{UserID: "u2", Email: "ben@example.com", Name: "Ben"},
	})

	assert.Same(t, ana, store.State().User)
}

func TestReducer_UnknownKindNoOp(t *testing.T) {
	ctx := logging.EnsureLogger(context.Background())
	store := NewStore()
	r := NewReducer(store)
	ana := &identity.User{ID: "u1"}
	store.SetUser(ana)

	for _, kind := range []string{identity.RegisteredEvent, "auth.mfa_challenge", ""} {
		r.Apply(ctx, identity.Event{Kind: kind, Session: &identity.Session{UserID: "u9"}})
		assert.Same(t, ana, store.State().User, "kind %q must be a no-op", kind)
	}
}
