// Package fakeidp provides an identity gateway for testing purposes.
//
// The fake keeps its state in memory and delivers auth events synchronously
// on the caller's goroutine, so tests can drive the session lifecycle without
// an event bus or real credentials. Any email and password are accepted
// unless a credentials validator rejects them, and individual operations can
// be scripted to fail.
package fakeidp

import (
	"context"
	"sync"
	"time"

	inglesh "github.com/devlitus/lesson-inglesh"
	"github.com/devlitus/lesson-inglesh/plugins/identity"
	"github.com/google/uuid"
)

const (
	// PluginName is the name of the fake identity plugin.
	PluginName = "identity_fake"

	// ProviderName is the name of the fake identity provider.
	ProviderName = "fake"

	// Default identity values if not provided.
	defaultID    = "fake-user-123"
	defaultEmail = "fake-user@example.com"
	defaultName  = "Fake User"
)

// FakeOption allows configuration of the FakePlugin.
type FakeOption func(*FakePlugin)

// WithUser seeds the fake with an existing session, as if the user had
// signed in before the test started.
func WithUser(u *identity.User) FakeOption {
	return func(p *FakePlugin) {
		p.user = u
	}
}

// WithCredentialsValidator allows setting a custom validator for sign-in and
// sign-up requests. Return an error to reject the credentials.
func WithCredentialsValidator(validator CredentialsValidator) FakeOption {
	return func(p *FakePlugin) {
		p.validator = validator
	}
}

// CredentialsValidator validates fake sign-in credentials.
type CredentialsValidator func(ctx context.Context, creds identity.Credentials) error

// Plugin returns a new FakePlugin for testing purposes.
func Plugin(opts ...FakeOption) *FakePlugin {
	p := &FakePlugin{
		validator: func(ctx context.Context, creds identity.Credentials) error {
			return nil // Accept all by default
		},
		handlers: map[int]identity.Handler{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FakePlugin provides fake identity for testing purposes. It implements
// identity.Gateway over in-memory state and records every call it receives.
type FakePlugin struct {
	mu sync.Mutex

	user      *identity.User
	validator CredentialsValidator

	currentUserErr error
	subscribeErr   error
	endSessionErr  error

	currentUserCalls  int
	subscribeCalls    int
	endSessionCalls   int
	authenticateCalls []identity.Credentials
	registerCalls     []identity.Credentials

	handlers map[int]identity.Handler
	nextSub  int
}

// From inglesh.Plugin.
func (p *FakePlugin) Name() string {
	return PluginName
}

// From inglesh.DependentPlugin.
func (p *FakePlugin) Deps() []string {
	return []string{identity.PluginName}
}

// From inglesh.InitializablePlugin.
func (p *FakePlugin) Init(ctx context.Context, r *inglesh.Registry) error {
	ip := r.Get(identity.PluginName).(*identity.IdentityPlugin)
	ip.AddGateway(ProviderName, p)
	return nil
}

// From identity.Gateway.
func (p *FakePlugin) CurrentUser(ctx context.Context) (*identity.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currentUserCalls++
	if p.currentUserErr != nil {
		return nil, p.currentUserErr
	}
	return p.user, nil
}

// From identity.Gateway.
func (p *FakePlugin) SubscribeEvents(ctx context.Context, h identity.Handler) (identity.Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribeCalls++
	if p.subscribeErr != nil {
		return nil, p.subscribeErr
	}
	id := p.nextSub
	p.nextSub++
	p.handlers[id] = h
	return &subscription{plugin: p, id: id}, nil
}

// From identity.Gateway.
func (p *FakePlugin) Authenticate(ctx context.Context, creds identity.Credentials) (*identity.User, error) {
	p.mu.Lock()
	p.authenticateCalls = append(p.authenticateCalls, creds)
	p.mu.Unlock()

	if err := p.validator(ctx, creds); err != nil {
		return nil, err
	}

	user := p.userFromCreds(creds)
	p.mu.Lock()
	p.user = user
	p.mu.Unlock()

	p.Emit(ctx, identity.Event{Kind: identity.SignedInEvent, Session: p.sessionFor(user)})
	return user, nil
}

// From identity.Gateway.
func (p *FakePlugin) Register(ctx context.Context, creds identity.Credentials) (*identity.User, error) {
	p.mu.Lock()
	p.registerCalls = append(p.registerCalls, creds)
	p.mu.Unlock()

	if err := p.validator(ctx, creds); err != nil {
		return nil, err
	}

	user := p.userFromCreds(creds)
	p.mu.Lock()
	p.user = user
	p.mu.Unlock()

	s := p.sessionFor(user)
	p.Emit(ctx, identity.Event{Kind: identity.RegisteredEvent, Session: s})
	p.Emit(ctx, identity.Event{Kind: identity.SignedInEvent, Session: s})
	return user, nil
}

// From identity.Gateway.
func (p *FakePlugin) EndSession(ctx context.Context) error {
	p.mu.Lock()
	p.endSessionCalls++
	if p.endSessionErr != nil {
		err := p.endSessionErr
		p.mu.Unlock()
		return err
	}
	p.user = nil
	p.mu.Unlock()

	p.Emit(ctx, identity.Event{Kind: identity.SignedOutEvent})
	return nil
}

// Emit delivers an event to every active subscriber, synchronously. Tests use
// it to simulate provider-originated events such as token refreshes.
func (p *FakePlugin) Emit(ctx context.Context, evt identity.Event) {
	p.mu.Lock()
	handlers := make([]identity.Handler, 0, len(p.handlers))
	for _, h := range p.handlers {
		handlers = append(handlers, h)
	}
	p.mu.Unlock()

	for _, h := range handlers {
		h(ctx, evt)
	}
}

// SetUser scripts the result of subsequent CurrentUser calls.
func (p *FakePlugin) SetUser(u *identity.User) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.user = u
}

// SetCurrentUserError makes subsequent CurrentUser calls fail.
func (p *FakePlugin) SetCurrentUserError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currentUserErr = err
}

// SetSubscribeError makes subsequent SubscribeEvents calls fail.
func (p *FakePlugin) SetSubscribeError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribeErr = err
}

// SetEndSessionError makes subsequent EndSession calls fail.
func (p *FakePlugin) SetEndSessionError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.endSessionErr = err
}

// CurrentUserCalls reports how many times CurrentUser was invoked.
func (p *FakePlugin) CurrentUserCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentUserCalls
}

// SubscribeCalls reports how many times SubscribeEvents was invoked.
func (p *FakePlugin) SubscribeCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.subscribeCalls
}

// EndSessionCalls reports how many times EndSession was invoked.
func (p *FakePlugin) EndSessionCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.endSessionCalls
}

// AuthenticateCalls returns the credentials passed to each Authenticate call.
func (p *FakePlugin) AuthenticateCalls() []identity.Credentials {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]identity.Credentials(nil), p.authenticateCalls...)
}

// RegisterCalls returns the credentials passed to each Register call.
func (p *FakePlugin) RegisterCalls() []identity.Credentials {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]identity.Credentials(nil), p.registerCalls...)
}

// ActiveSubscriptions reports how many subscriptions have not been cancelled.
func (p *FakePlugin) ActiveSubscriptions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.handlers)
}

// Build a user from the default identity, overridden by any provided
// credential fields.
func (p *FakePlugin) userFromCreds(creds identity.Credentials) *identity.User {
	user := &identity.User{
		ID:       defaultID,
		Email:    defaultEmail,
		Name:     defaultName,
		Metadata: map[string]string{"provider": ProviderName},
	}
	if creds.Email != "" {
		user.Email = creds.Email
	}
	if creds.Name != "" {
		user.Name = creds.Name
	}
	return user
}

func (p *FakePlugin) sessionFor(u *identity.User) *identity.Session {
	return &identity.Session{
		UserID:    u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Token:     uuid.New().String(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

type subscription struct {
	plugin *FakePlugin
	id     int
}

func (s *subscription) Cancel() {
	s.plugin.mu.Lock()
	defer s.plugin.mu.Unlock()
	delete(s.plugin.handlers, s.id)
}
