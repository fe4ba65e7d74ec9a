package fakeidp

import (
	"context"
	"testing"

	inglesh "github.com/devlitus/lesson-inglesh"
	"github.com/devlitus/lesson-inglesh/errors"
	"github.com/devlitus/lesson-inglesh/logging"
	"github.com/devlitus/lesson-inglesh/plugins/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

var _ identity.Gateway = (*FakePlugin)(nil)

func TestAuthenticate_DefaultIdentity(t *testing.T) {
	p := Plugin()
	ctx := context.Background()

	user, err := p.Authenticate(ctx, identity.Credentials{Password: "anything"})
	require.NoError(t, err)
	assert.Equal(t, defaultID, user.ID)
	assert.Equal(t, defaultEmail, user.Email)
	assert.Equal(t, defaultName, user.Name)
	assert.Equal(t, ProviderName, user.Metadata["provider"])

	current, err := p.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Same(t, user, current)
}

func TestAuthenticate_CredsOverrideDefaults(t *testing.T) {
	p := Plugin()

	user, err := p.Authenticate(context.Background(), identity.Credentials{
		Email:    "custom@example.com",
		Password: "anything",
		Name:     "Custom User",
	})
	require.NoError(t, err)
	assert.Equal(t, "custom@example.com", user.Email)
	assert.Equal(t, "Custom User", user.Name)

	calls := p.AuthenticateCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "custom@example.com", calls[0].Email)
}

func TestAuthenticate_ValidatorRejects(t *testing.T) {
	p := Plugin(WithCredentialsValidator(func(ctx context.Context, creds identity.Credentials) error {
		return errors.NewC("rejected for testing", codes.Unauthenticated)
	}))

	_, err := p.Authenticate(context.Background(), identity.Credentials{Email: "ana@example.com"})
	require.Error(t, err)
	assert.Equal(t, codes.Unauthenticated, errors.Code(err))

	user, err := p.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Nil(t, user, "rejected sign-in should not start a session")
}

func TestRegister_EmitsBothEvents(t *testing.T) {
	p := Plugin()
	ctx := context.Background()

	var kinds []string
	_, err := p.SubscribeEvents(ctx, func(ctx context.Context, evt identity.Event) {
		kinds = append(kinds, evt.Kind)
	})
	require.NoError(t, err)

	_, err = p.Register(ctx, identity.Credentials{Email: "ana@example.com", Password: "pw"})
	require.NoError(t, err)

	// Fake delivery is synchronous and ordered.
	assert.Equal(t, []string{identity.RegisteredEvent, identity.SignedInEvent}, kinds)
}

func TestEndSession(t *testing.T) {
	p := Plugin(WithUser(&identity.User{ID: "u1", Email: "ana@example.com"}))
	ctx := context.Background()

	var events []identity.Event
	_, err := p.SubscribeEvents(ctx, func(ctx context.Context, evt identity.Event) {
		events = append(events, evt)
	})
	require.NoError(t, err)

	require.NoError(t, p.EndSession(ctx))
	assert.Equal(t, 1, p.EndSessionCalls())

	user, err := p.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)

	require.Len(t, events, 1)
	assert.Equal(t, identity.SignedOutEvent, events[0].Kind)
	assert.Nil(t, events[0].Session)
}

func TestScriptedErrors(t *testing.T) {
	p := Plugin()
	ctx := context.Background()

	boom := errors.NewC("scripted failure", codes.Internal)

	p.SetCurrentUserError(boom)
	_, err := p.CurrentUser(ctx)
	assert.ErrorIs(t, err, boom)

	p.SetSubscribeError(boom)
	_, err = p.SubscribeEvents(ctx, func(context.Context, identity.Event) {})
	assert.ErrorIs(t, err, boom)

	p.SetEndSessionError(boom)
	assert.ErrorIs(t, p.EndSession(ctx), boom)
	assert.Equal(t, 1, p.EndSessionCalls(), "failed calls still count")
}

func TestSubscriptionCancel(t *testing.T) {
	p := Plugin()
	ctx := context.Background()

	var count int
	sub, err := p.SubscribeEvents(ctx, func(context.Context, identity.Event) { count++ })
	require.NoError(t, err)
	require.Equal(t, 1, p.ActiveSubscriptions())

	p.Emit(ctx, identity.Event{Kind: identity.TokenRefreshedEvent})
	assert.Equal(t, 1, count)

	sub.Cancel()
	assert.Equal(t, 0, p.ActiveSubscriptions())

	p.Emit(ctx, identity.Event{Kind: identity.TokenRefreshedEvent})
	assert.Equal(t, 1, count, "cancelled subscription should see no new events")
}

func TestPlugin_Init(t *testing.T) {
	ctx := logging.EnsureLogger(context.Background())

	ip := identity.Plugin(identity.WithProvider(ProviderName))
	p := Plugin(WithUser(&identity.User{ID: "u1", Email: "ana@example.com", Name: "Ana"}))

	r := &inglesh.Registry{}
	r.Register(ip)
	r.Register(p)
	require.NoError(t, r.Init(ctx))

	user, err := ip.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, 1, p.CurrentUserCalls())
	assert.Equal(t, 0, p.SubscribeCalls())
}
